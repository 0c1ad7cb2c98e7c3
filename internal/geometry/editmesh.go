package geometry

// EditVert is a vertex in the working copy. The session identity (ID) is
// unique for the lifetime of the EditMesh and is never reused; the
// positional index changes whenever topology edits add or remove vertices.
type EditVert struct {
	Co     Vec3
	Hide   bool
	Select bool

	id     int
	src    int // document index at session start, -1 for verts created mid-session
	index  int
	layers map[string]int
}

// ID returns the session-stable identity of the vertex.
func (v *EditVert) ID() int { return v.id }

// SourceIndex returns the document index this vertex originated from, or
// -1 if it was created during the session.
func (v *EditVert) SourceIndex() int { return v.src }

// Index returns the current positional index of the vertex.
func (v *EditVert) Index() int { return v.index }

// Layer reads the named integer layer value; absent layers read as 0.
func (v *EditVert) Layer(name string) int {
	if v.layers == nil {
		return 0
	}
	return v.layers[name]
}

// SetLayer stores the named integer layer value on the vertex.
func (v *EditVert) SetLayer(name string, value int) {
	if v.layers == nil {
		v.layers = make(map[string]int)
	}
	v.layers[name] = value
}

// EditEdge is an edge in the working copy.
type EditEdge struct {
	V      [2]*EditVert
	Hide   bool
	Select bool
}

// EditFace is a polygon in the working copy. Verts form a closed loop.
type EditFace struct {
	Verts  []*EditVert
	Hide   bool
	Select bool
}

// EditMesh is the in-memory working copy used for editing, distinct from
// the persisted Mesh. Topology edits renumber positional indices but keep
// session identities stable.
type EditMesh struct {
	Verts []*EditVert
	Edges []*EditEdge
	Faces []*EditFace

	nextID int
}

// FromMesh builds a working copy of the given data block. All point
// attributes whose length matches the vertex count are copied into vertex
// layers; malformed attributes are skipped.
func FromMesh(m *Mesh) *EditMesh {
	em := &EditMesh{}
	if m == nil {
		return em
	}
	em.Verts = make([]*EditVert, 0, len(m.Verts))
	for i, co := range m.Verts {
		v := &EditVert{Co: co, id: em.nextID, src: i, index: i}
		em.nextID++
		em.Verts = append(em.Verts, v)
	}
	for name, values := range m.Attributes {
		if len(values) != len(m.Verts) {
			continue
		}
		for i, val := range values {
			if val != 0 {
				em.Verts[i].SetLayer(name, val)
			}
		}
	}
	for _, e := range m.Edges {
		if e[0] < 0 || e[1] < 0 || e[0] >= len(em.Verts) || e[1] >= len(em.Verts) {
			continue
		}
		em.Edges = append(em.Edges, &EditEdge{V: [2]*EditVert{em.Verts[e[0]], em.Verts[e[1]]}})
	}
	for _, f := range m.Faces {
		face := &EditFace{Verts: make([]*EditVert, 0, len(f))}
		valid := true
		for _, vi := range f {
			if vi < 0 || vi >= len(em.Verts) {
				valid = false
				break
			}
			face.Verts = append(face.Verts, em.Verts[vi])
		}
		if valid && len(face.Verts) >= 3 {
			em.Faces = append(em.Faces, face)
		}
	}
	return em
}

// CommitTo writes the working copy back into the data block: positions,
// edges, faces and every vertex layer as a full-length point attribute.
func (em *EditMesh) CommitTo(m *Mesh) {
	if m == nil {
		return
	}
	em.reindex()
	m.Verts = make([]Vec3, len(em.Verts))
	for i, v := range em.Verts {
		m.Verts[i] = v.Co
	}
	m.Edges = m.Edges[:0]
	for _, e := range em.Edges {
		m.Edges = append(m.Edges, [2]int{e.V[0].index, e.V[1].index})
	}
	m.Faces = m.Faces[:0]
	for _, f := range em.Faces {
		loop := make([]int, len(f.Verts))
		for i, v := range f.Verts {
			loop[i] = v.index
		}
		m.Faces = append(m.Faces, loop)
	}
	names := make(map[string]struct{})
	for _, v := range em.Verts {
		for name := range v.layers {
			names[name] = struct{}{}
		}
	}
	// Existing attributes are rewritten even when no vertex carries the
	// layer anymore, so cleared flags persist as zeros.
	for name := range m.Attributes {
		names[name] = struct{}{}
	}
	for name := range names {
		values := make([]int, len(em.Verts))
		for i, v := range em.Verts {
			values[i] = v.Layer(name)
		}
		m.SetAttribute(name, values)
	}
}

// VertexCount returns the number of vertices in the working copy.
func (em *EditMesh) VertexCount() int {
	return len(em.Verts)
}

// AddVert appends a new vertex with no document origin.
func (em *EditMesh) AddVert(co Vec3) *EditVert {
	v := &EditVert{Co: co, id: em.nextID, src: -1, index: len(em.Verts)}
	em.nextID++
	em.Verts = append(em.Verts, v)
	return v
}

// DeleteVerts removes the given vertices along with every edge and face
// touching them, then renumbers positional indices.
func (em *EditMesh) DeleteVerts(doomed map[*EditVert]struct{}) {
	if len(doomed) == 0 {
		return
	}
	verts := em.Verts[:0]
	for _, v := range em.Verts {
		if _, dead := doomed[v]; !dead {
			verts = append(verts, v)
		}
	}
	em.Verts = verts
	edges := em.Edges[:0]
	for _, e := range em.Edges {
		if _, d0 := doomed[e.V[0]]; d0 {
			continue
		}
		if _, d1 := doomed[e.V[1]]; d1 {
			continue
		}
		edges = append(edges, e)
	}
	em.Edges = edges
	faces := em.Faces[:0]
	for _, f := range em.Faces {
		alive := true
		for _, v := range f.Verts {
			if _, dead := doomed[v]; dead {
				alive = false
				break
			}
		}
		if alive {
			faces = append(faces, f)
		}
	}
	em.Faces = faces
	em.reindex()
}

// WeldVerts merges the given vertices into target: edges and faces are
// rewired to target, degenerate edges and faces are dropped, and the
// merged vertices are removed.
func (em *EditMesh) WeldVerts(target *EditVert, merged []*EditVert) {
	if target == nil || len(merged) == 0 {
		return
	}
	gone := make(map[*EditVert]struct{}, len(merged))
	for _, v := range merged {
		if v != target {
			gone[v] = struct{}{}
		}
	}
	if len(gone) == 0 {
		return
	}
	edges := em.Edges[:0]
	for _, e := range em.Edges {
		for i := range e.V {
			if _, dead := gone[e.V[i]]; dead {
				e.V[i] = target
			}
		}
		if e.V[0] == e.V[1] {
			continue
		}
		edges = append(edges, e)
	}
	em.Edges = edges
	faces := em.Faces[:0]
	for _, f := range em.Faces {
		loop := f.Verts[:0]
		for _, v := range f.Verts {
			if _, dead := gone[v]; dead {
				v = target
			}
			if len(loop) > 0 && loop[len(loop)-1] == v {
				continue
			}
			loop = append(loop, v)
		}
		if len(loop) > 1 && loop[0] == loop[len(loop)-1] {
			loop = loop[:len(loop)-1]
		}
		f.Verts = loop
		if len(f.Verts) >= 3 {
			faces = append(faces, f)
		}
	}
	em.Faces = faces
	verts := em.Verts[:0]
	for _, v := range em.Verts {
		if _, dead := gone[v]; !dead {
			verts = append(verts, v)
		}
	}
	em.Verts = verts
	em.reindex()
}

// SubdivideEdges splits each given edge at its midpoint, inserting the new
// vertex into every face loop that uses the edge.
func (em *EditMesh) SubdivideEdges(edges []*EditEdge) {
	for _, e := range edges {
		mid := em.AddVert(e.V[0].Co.Mid(e.V[1].Co))
		second := &EditEdge{V: [2]*EditVert{mid, e.V[1]}, Hide: e.Hide, Select: e.Select}
		for _, f := range em.Faces {
			f.Verts = insertBetween(f.Verts, e.V[0], e.V[1], mid)
		}
		e.V[1] = mid
		em.Edges = append(em.Edges, second)
	}
	em.reindex()
}

// TranslateVerts moves every vertex in the set by delta.
func (em *EditMesh) TranslateVerts(verts map[*EditVert]struct{}, delta Vec3) {
	for v := range verts {
		v.Co = v.Co.Add(delta)
	}
}

// insertBetween inserts mid into the loop wherever a and b are adjacent
// (in either order, including the wrap-around pair).
func insertBetween(loop []*EditVert, a, b, mid *EditVert) []*EditVert {
	n := len(loop)
	for i := 0; i < n; i++ {
		v0, v1 := loop[i], loop[(i+1)%n]
		if (v0 == a && v1 == b) || (v0 == b && v1 == a) {
			out := make([]*EditVert, 0, n+1)
			out = append(out, loop[:i+1]...)
			out = append(out, mid)
			out = append(out, loop[i+1:]...)
			return out
		}
	}
	return loop
}

func (em *EditMesh) reindex() {
	for i, v := range em.Verts {
		v.index = i
	}
}
