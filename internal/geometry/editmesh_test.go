package geometry

import "testing"

// quad returns a unit quad: 4 verts, 4 boundary edges, 1 face.
func quad() *Mesh {
	return &Mesh{
		Name: "quad",
		Verts: []Vec3{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		},
		Edges: [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		Faces: [][]int{{0, 1, 2, 3}},
	}
}

func TestFromMeshCopiesAttributes(t *testing.T) {
	m := quad()
	m.SetAttribute("mesh_lock_vert", []int{0, 1, 0, 1})

	em := FromMesh(m)
	if em.VertexCount() != 4 {
		t.Fatalf("expected 4 verts, got %d", em.VertexCount())
	}
	for i, want := range []int{0, 1, 0, 1} {
		if got := em.Verts[i].Layer("mesh_lock_vert"); got != want {
			t.Errorf("vert %d layer = %d, want %d", i, got, want)
		}
	}
	for i, v := range em.Verts {
		if v.SourceIndex() != i {
			t.Errorf("vert %d source index = %d", i, v.SourceIndex())
		}
	}
}

func TestFromMeshSkipsMalformedAttribute(t *testing.T) {
	m := quad()
	m.SetAttribute("mesh_lock_vert", []int{1, 1}) // wrong length

	em := FromMesh(m)
	for i, v := range em.Verts {
		if v.Layer("mesh_lock_vert") != 0 {
			t.Errorf("vert %d picked up value from malformed attribute", i)
		}
	}
}

func TestCommitToWritesLayersBack(t *testing.T) {
	m := quad()
	em := FromMesh(m)
	em.Verts[2].SetLayer("mesh_lock_vert", 1)

	em.CommitTo(m)

	values, ok := m.Attribute("mesh_lock_vert")
	if !ok {
		t.Fatal("attribute missing after commit")
	}
	want := []int{0, 0, 1, 0}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("attribute[%d] = %d, want %d", i, values[i], want[i])
		}
	}
}

func TestCommitToPersistsClearedFlags(t *testing.T) {
	m := quad()
	m.SetAttribute("mesh_lock_vert", []int{1, 1, 1, 1})
	em := FromMesh(m)
	for _, v := range em.Verts {
		v.SetLayer("mesh_lock_vert", 0)
	}

	em.CommitTo(m)

	values, _ := m.Attribute("mesh_lock_vert")
	if len(values) != 4 {
		t.Fatalf("attribute length = %d", len(values))
	}
	for i, val := range values {
		if val != 0 {
			t.Errorf("attribute[%d] = %d after clearing", i, val)
		}
	}
}

func TestDeleteVertsRemovesIncidentTopology(t *testing.T) {
	em := FromMesh(quad())
	doomed := map[*EditVert]struct{}{em.Verts[0]: {}}

	em.DeleteVerts(doomed)

	if em.VertexCount() != 3 {
		t.Fatalf("expected 3 verts, got %d", em.VertexCount())
	}
	if len(em.Edges) != 2 {
		t.Errorf("expected 2 edges, got %d", len(em.Edges))
	}
	if len(em.Faces) != 0 {
		t.Errorf("expected face touching deleted vert to be removed")
	}
	for i, v := range em.Verts {
		if v.Index() != i {
			t.Errorf("vert at slot %d has index %d", i, v.Index())
		}
	}
}

func TestWeldVertsRewiresEdges(t *testing.T) {
	em := FromMesh(quad())
	target, merged := em.Verts[0], em.Verts[1]

	em.WeldVerts(target, []*EditVert{merged})

	if em.VertexCount() != 3 {
		t.Fatalf("expected 3 verts, got %d", em.VertexCount())
	}
	// Edge {0,1} collapsed, edge {1,2} rewired to target.
	if len(em.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(em.Edges))
	}
	rewired := false
	for _, e := range em.Edges {
		if e.V[0] == merged || e.V[1] == merged {
			t.Error("edge still references merged vertex")
		}
		if e.V[0] == target || e.V[1] == target {
			rewired = true
		}
	}
	if !rewired {
		t.Error("no edge rewired to weld target")
	}
	if len(em.Faces) != 1 || len(em.Faces[0].Verts) != 3 {
		t.Errorf("expected quad face reduced to a triangle")
	}
}

func TestSubdivideEdgesInsertsMidpoint(t *testing.T) {
	em := FromMesh(quad())
	em.SubdivideEdges([]*EditEdge{em.Edges[0]})

	if em.VertexCount() != 5 {
		t.Fatalf("expected 5 verts, got %d", em.VertexCount())
	}
	if len(em.Edges) != 5 {
		t.Errorf("expected 5 edges, got %d", len(em.Edges))
	}
	mid := em.Verts[4]
	if mid.SourceIndex() != -1 {
		t.Errorf("midpoint vert should have no document origin")
	}
	if mid.Co != (Vec3{X: 0.5, Y: 0}) {
		t.Errorf("midpoint at %+v", mid.Co)
	}
	if len(em.Faces[0].Verts) != 5 {
		t.Errorf("face loop not extended, has %d verts", len(em.Faces[0].Verts))
	}
}

func TestSessionIDsStableAcrossEdits(t *testing.T) {
	em := FromMesh(quad())
	idBefore := em.Verts[3].ID()

	em.DeleteVerts(map[*EditVert]struct{}{em.Verts[0]: {}})
	em.AddVert(Vec3{X: 2})

	if em.Verts[2].ID() != idBefore {
		t.Errorf("session ID changed across topology edit")
	}
	// New vert must not reuse a freed ID.
	newVert := em.Verts[3]
	if newVert.ID() <= idBefore {
		t.Errorf("new vert reused session ID %d", newVert.ID())
	}
}

func TestTranslateVerts(t *testing.T) {
	em := FromMesh(quad())
	set := map[*EditVert]struct{}{em.Verts[0]: {}, em.Verts[1]: {}}

	em.TranslateVerts(set, Vec3{Z: 2})

	if em.Verts[0].Co.Z != 2 || em.Verts[1].Co.Z != 2 {
		t.Error("selected verts not translated")
	}
	if em.Verts[2].Co.Z != 0 {
		t.Error("unselected vert moved")
	}
}
