package lockstore

import "github.com/meshlock/meshlock-go/internal/geometry"

// Working-copy side of the lock store: the lock flags live in a vertex
// layer while an edit session is open, and are synchronized with the
// persisted attribute by LoadLayer/SaveLayer.

// LoadLayer copies the persisted lock attribute into the working copy's
// lock layer, matching vertices by their document identity. Verts created
// mid-session have no document slot and keep their layer value; a missing
// attribute is a no-op.
func LoadLayer(m *geometry.Mesh, em *geometry.EditMesh) {
	if m == nil || em == nil {
		return
	}
	values, ok := m.Attribute(LockAttributeName)
	if !ok {
		return
	}
	for _, v := range em.Verts {
		if src := v.SourceIndex(); src >= 0 && src < len(values) {
			v.SetLayer(LockAttributeName, values[src])
		}
	}
}

// SaveLayer writes the working copy's lock layer back to the data block,
// matching vertices by their document identity. The attribute always
// holds one value per document vertex, so mesh-side readers stay valid
// while topology edits are pending in the working copy. Flags on verts
// created mid-session have no document slot yet and reach the data block
// when the edit is committed. Marks the mesh data as modified.
func SaveLayer(em *geometry.EditMesh, m *geometry.Mesh) {
	if m == nil || em == nil {
		return
	}
	values := make([]int, m.VertexCount())
	for _, v := range em.Verts {
		if src := v.SourceIndex(); src >= 0 && src < len(values) {
			values[src] = v.Layer(LockAttributeName)
		}
	}
	m.SetAttribute(LockAttributeName, values)
	m.MarkDirty()
}

// VertLocked reports whether the working-copy vertex is locked.
func VertLocked(v *geometry.EditVert) bool {
	return v != nil && v.Layer(LockAttributeName) == 1
}

// SetVertLocked sets the working-copy lock flag for a single vertex.
func SetVertLocked(v *geometry.EditVert, locked bool) {
	if v == nil {
		return
	}
	if locked {
		v.SetLayer(LockAttributeName, 1)
	} else {
		v.SetLayer(LockAttributeName, 0)
	}
}

// LockedVerts returns the working-copy vertices whose lock flag is set.
func LockedVerts(em *geometry.EditMesh) []*geometry.EditVert {
	if em == nil {
		return nil
	}
	var locked []*geometry.EditVert
	for _, v := range em.Verts {
		if VertLocked(v) {
			locked = append(locked, v)
		}
	}
	return locked
}

// CountLockedLayer returns the number of locked vertices in the working copy.
func CountLockedLayer(em *geometry.EditMesh) int {
	return len(LockedVerts(em))
}
