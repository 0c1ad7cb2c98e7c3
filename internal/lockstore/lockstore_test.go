package lockstore

import (
	"testing"

	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube() *geometry.Mesh {
	m := &geometry.Mesh{
		Name: "cube",
		Verts: []geometry.Vec3{
			{}, {X: 1}, {X: 1, Y: 1}, {Y: 1},
			{Z: 1}, {X: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {Y: 1, Z: 1},
		},
		Edges: [][2]int{
			{0, 1}, {1, 2}, {2, 3}, {3, 0},
			{4, 5}, {5, 6}, {6, 7}, {7, 4},
			{0, 4}, {1, 5}, {2, 6}, {3, 7},
		},
	}
	return m
}

func TestEnsureAttributeIdempotent(t *testing.T) {
	m := cube()

	first := EnsureAttribute(m)
	require.Len(t, first, 8)

	first[3] = 1
	second := EnsureAttribute(m)
	assert.Equal(t, 1, second[3], "second ensure must preserve existing values")
}

func TestEnsureAttributeRecreatesMalformed(t *testing.T) {
	m := cube()
	m.SetAttribute(LockAttributeName, []int{1, 1}) // wrong length

	values := EnsureAttribute(m)

	require.Len(t, values, 8)
	for i, v := range values {
		assert.Zero(t, v, "recreated attribute must be all-zero at %d", i)
	}
}

func TestSetLockedIgnoresOutOfRange(t *testing.T) {
	m := cube()

	SetLocked(m, []int{2, 5, 99, -3}, true)

	locked := LockedIndices(m)
	assert.Len(t, locked, 2)
	assert.Contains(t, locked, 2)
	assert.Contains(t, locked, 5)
}

func TestSetLockedMarksDirty(t *testing.T) {
	m := cube()
	require.False(t, m.Dirty())

	SetLocked(m, []int{0}, true)
	assert.True(t, m.Dirty())

	m.ClearDirty()
	SetLocked(m, []int{0}, true) // no change
	assert.False(t, m.Dirty(), "redundant set must not mark the mesh dirty")
}

func TestLockedIndicesNeverMutates(t *testing.T) {
	m := cube()
	m.SetAttribute(LockAttributeName, []int{1, 0, 1}) // malformed

	locked := LockedIndices(m)

	assert.Empty(t, locked)
	values, _ := m.Attribute(LockAttributeName)
	assert.Len(t, values, 3, "read path must not repair the attribute")
}

func TestCountLocked(t *testing.T) {
	m := cube()
	assert.Equal(t, 0, CountLocked(m))
	assert.False(t, HasLocked(m))

	SetLocked(m, []int{1, 2, 3}, true)
	assert.Equal(t, 3, CountLocked(m))
	assert.True(t, HasLocked(m))

	SetLocked(m, []int{2}, false)
	assert.Equal(t, 2, CountLocked(m))
}

func TestClearAllKeepsAttribute(t *testing.T) {
	m := cube()
	SetLocked(m, []int{1, 2, 3}, true)

	changed := ClearAll(m)

	assert.Equal(t, 3, changed)
	assert.Equal(t, 0, CountLocked(m))
	values, ok := m.Attribute(LockAttributeName)
	require.True(t, ok, "attribute must survive unlock-all")
	assert.Len(t, values, 8)
}

func TestLayerRoundTrip(t *testing.T) {
	m := cube()
	SetLocked(m, []int{0, 7}, true)
	em := geometry.FromMesh(m)

	// FromMesh already copies attributes; LoadLayer must agree.
	LoadLayer(m, em)
	assert.True(t, VertLocked(em.Verts[0]))
	assert.True(t, VertLocked(em.Verts[7]))
	assert.Equal(t, 2, CountLockedLayer(em))

	SetVertLocked(em.Verts[0], false)
	SetVertLocked(em.Verts[3], true)
	SaveLayer(em, m)

	locked := LockedIndices(m)
	assert.Len(t, locked, 2)
	assert.Contains(t, locked, 3)
	assert.Contains(t, locked, 7)
}

func TestSaveLayerKeepsDocumentLength(t *testing.T) {
	m := cube()
	SetLocked(m, []int{2}, true)
	em := geometry.FromMesh(m)

	// A vert added mid-session has no document slot until commit, so the
	// attribute must stay valid for mesh-side readers.
	added := em.AddVert(geometry.Vec3{X: 2})
	SetVertLocked(added, true)
	SaveLayer(em, m)

	values, _ := m.Attribute(LockAttributeName)
	require.Len(t, values, 8)
	assert.Equal(t, 1, values[2])
	assert.Equal(t, 1, CountLocked(m))

	em.CommitTo(m)
	values, _ = m.Attribute(LockAttributeName)
	require.Len(t, values, 9)
	assert.Equal(t, 1, values[8], "flag on the added vert lands on commit")
}

func TestSaveLayerMatchesDocumentIdentityAfterDeletion(t *testing.T) {
	m := cube()
	SetLocked(m, []int{2, 5}, true)
	em := geometry.FromMesh(m)

	em.DeleteVerts(map[*geometry.EditVert]struct{}{em.Verts[0]: {}})
	SaveLayer(em, m)

	// Surviving locks stay on their document slots, not positional ones.
	locked := LockedIndices(m)
	assert.Len(t, locked, 2)
	assert.Contains(t, locked, 2)
	assert.Contains(t, locked, 5)
}
