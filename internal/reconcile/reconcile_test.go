package reconcile

import (
	"testing"

	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/lockstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grid() *geometry.Object {
	m := &geometry.Mesh{
		Name: "grid",
		Verts: []geometry.Vec3{
			{}, {X: 1}, {X: 2},
			{Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1},
		},
		Edges: [][2]int{{0, 1}, {1, 2}, {3, 4}, {4, 5}, {0, 3}, {1, 4}, {2, 5}},
	}
	return geometry.NewObject("grid", m)
}

func TestReconcileKeepsLocksAfterVertexGrowth(t *testing.T) {
	obj := grid()
	lockstore.SetLocked(obj.Mesh, []int{1, 4}, true)
	em := geometry.FromMesh(obj.Mesh)
	r := New(nil, nil)

	em.AddVert(geometry.Vec3{X: 3})
	em.AddVert(geometry.Vec3{X: 3, Y: 1})
	r.Reconcile(obj, em)

	// The attribute keeps one value per document vertex until commit, so
	// mesh-side readers never see it as malformed mid-session.
	values, ok := obj.Mesh.Attribute(lockstore.LockAttributeName)
	require.True(t, ok)
	require.Len(t, values, 6, "attribute length must match the document vertex count")
	locked := lockstore.LockedIndices(obj.Mesh)
	assert.Contains(t, locked, 1)
	assert.Contains(t, locked, 4)
	assert.Len(t, locked, 2)
	assert.Equal(t, 2, lockstore.CountLockedLayer(em), "working copy keeps the live lock set")

	em.CommitTo(obj.Mesh)
	values, _ = obj.Mesh.Attribute(lockstore.LockAttributeName)
	require.Len(t, values, 8, "commit grows the attribute with the mesh")
	assert.Len(t, lockstore.LockedIndices(obj.Mesh), 2, "new verts default to unlocked")
}

func TestReconcilePreservesLocksAcrossDeletion(t *testing.T) {
	obj := grid()
	lockstore.SetLocked(obj.Mesh, []int{2, 5}, true)
	em := geometry.FromMesh(obj.Mesh)
	r := New(nil, nil)
	r.Reconcile(obj, em)

	// Delete an unlocked vertex; locked identities keep their document
	// slots until commit renumbers them.
	em.DeleteVerts(map[*geometry.EditVert]struct{}{em.Verts[0]: {}})
	r.Reconcile(obj, em)

	locked := lockstore.LockedIndices(obj.Mesh)
	assert.Len(t, locked, 2)
	assert.Contains(t, locked, 2)
	assert.Contains(t, locked, 5)

	em.CommitTo(obj.Mesh)
	locked = lockstore.LockedIndices(obj.Mesh)
	assert.Len(t, locked, 2)
	assert.Contains(t, locked, 1, "vert formerly at index 2")
	assert.Contains(t, locked, 4, "vert formerly at index 5")
}

func TestReconcileIdempotent(t *testing.T) {
	obj := grid()
	lockstore.SetLocked(obj.Mesh, []int{0, 3}, true)
	em := geometry.FromMesh(obj.Mesh)
	r := New(nil, nil)

	em.AddVert(geometry.Vec3{Z: 1})
	r.Reconcile(obj, em)
	first, _ := obj.Mesh.Attribute(lockstore.LockAttributeName)
	snapshot := append([]int(nil), first...)

	r.Reconcile(obj, em)
	second, _ := obj.Mesh.Attribute(lockstore.LockAttributeName)

	assert.Equal(t, snapshot, second, "second reconcile must not change the attribute")
}

func TestReconcileCreatesMissingAttribute(t *testing.T) {
	obj := grid()
	em := geometry.FromMesh(obj.Mesh)
	New(nil, nil).Reconcile(obj, em)

	values, ok := obj.Mesh.Attribute(lockstore.LockAttributeName)
	require.True(t, ok)
	assert.Len(t, values, 6)
}

func TestReconcileRestoresLostAttributeFromLayer(t *testing.T) {
	obj := grid()
	lockstore.SetLocked(obj.Mesh, []int{3}, true)
	em := geometry.FromMesh(obj.Mesh)

	// Attribute dropped externally; the working copy still holds the flags.
	delete(obj.Mesh.Attributes, lockstore.LockAttributeName)
	New(nil, nil).Reconcile(obj, em)

	locked := lockstore.LockedIndices(obj.Mesh)
	assert.Contains(t, locked, 3)
}

func TestReconcileHidesLockedOutsideUnlockMode(t *testing.T) {
	obj := grid()
	lockstore.SetLocked(obj.Mesh, []int{1}, true)
	em := geometry.FromMesh(obj.Mesh)
	em.Verts[1].Hide = false
	em.Verts[1].Select = true

	New(nil, nil).Reconcile(obj, em)

	assert.True(t, em.Verts[1].Hide, "locked vert must be hidden outside unlock mode")
	assert.False(t, em.Verts[1].Select, "locked vert must be deselected outside unlock mode")
}

func TestReconcileDropsStaleModeFlag(t *testing.T) {
	obj := grid()
	obj.SetUnlockMode(true)
	em := geometry.FromMesh(obj.Mesh)

	New(nil, nil).Reconcile(obj, em)

	assert.False(t, obj.UnlockMode(), "mode flag with zero locks must be cleared")
}

func TestReconcileKeepsModeFlagWhileLocksExist(t *testing.T) {
	obj := grid()
	lockstore.SetLocked(obj.Mesh, []int{0}, true)
	obj.SetUnlockMode(true)
	em := geometry.FromMesh(obj.Mesh)
	em.Verts[0].Hide = false // visible on purpose during unlock mode

	New(nil, nil).Reconcile(obj, em)

	assert.True(t, obj.UnlockMode())
	assert.False(t, em.Verts[0].Hide, "unlock mode keeps locked verts visible")
}

func TestReconcileNilTolerant(t *testing.T) {
	r := New(nil, nil)
	assert.NotPanics(t, func() {
		r.Reconcile(nil, nil)
		r.Reconcile(grid(), nil)
		r.Reconcile(nil, &geometry.EditMesh{})
	})
}
