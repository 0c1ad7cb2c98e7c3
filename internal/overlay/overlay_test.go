package overlay

import (
	"testing"

	"github.com/meshlock/meshlock-go/internal/conf"
	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/lockstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overlayFixture(lockedIdx ...int) (*geometry.Object, *geometry.EditMesh) {
	m := &geometry.Mesh{
		Name: "fixture",
		Verts: []geometry.Vec3{
			{X: 0}, {X: 1}, {X: 2}, {X: 3},
		},
		Edges: [][2]int{{0, 1}, {1, 2}, {2, 3}},
	}
	obj := geometry.NewObject("fixture", m)
	lockstore.SetLocked(m, lockedIdx, true)
	em := geometry.FromMesh(m)
	lockstore.LoadLayer(m, em)
	obj.SetUnlockMode(true)
	return obj, em
}

func testSettings() conf.OverlaySettings {
	s := conf.DefaultOverlaySettings()
	s.Show = true
	return s
}

func TestBuildPointsAndLines(t *testing.T) {
	obj, em := overlayFixture(1, 2)

	f := Build(obj, em, testSettings())

	require.Len(t, f.Points, 2)
	require.Len(t, f.Lines, 1, "only the edge between two locked verts is drawn")
	assert.Equal(t, geometry.Vec3{X: 1}, f.Lines[0].A)
	assert.Equal(t, geometry.Vec3{X: 2}, f.Lines[0].B)
	assert.True(t, f.DepthTest)
}

func TestBuildHighlightsSelection(t *testing.T) {
	obj, em := overlayFixture(1, 2)
	s := testSettings()
	em.Verts[1].Select = true

	f := Build(obj, em, s)

	var sel, base int
	for _, p := range f.Points {
		if p.Color == s.HighlightColor {
			sel++
			assert.Equal(t, s.PointSize+2, p.Size)
		} else {
			base++
			assert.Equal(t, s.PointSize, p.Size)
		}
	}
	assert.Equal(t, 1, sel)
	assert.Equal(t, 1, base)
	// The edge highlights only when both endpoints are selected.
	assert.Equal(t, s.BaseColor, f.Lines[0].Color)

	em.Verts[2].Select = true
	f = Build(obj, em, s)
	assert.Equal(t, s.HighlightColor, f.Lines[0].Color)
	assert.Equal(t, s.LineWidth+1, f.Lines[0].Width)
}

func TestBuildEmptyOutsideMode(t *testing.T) {
	obj, em := overlayFixture(1)
	obj.SetUnlockMode(false)

	assert.True(t, Build(obj, em, testSettings()).Empty())
}

func TestBuildEmptyWhenDisabled(t *testing.T) {
	obj, em := overlayFixture(1)
	s := testSettings()
	s.Show = false

	assert.True(t, Build(obj, em, s).Empty())
}

func TestBuildNilSafe(t *testing.T) {
	obj, em := overlayFixture(1)

	assert.True(t, Build(nil, em, testSettings()).Empty())
	assert.True(t, Build(obj, nil, testSettings()).Empty())
	assert.True(t, Build(&geometry.Object{Name: "bare"}, em, testSettings()).Empty())
}

func TestBuildDoesNotMutate(t *testing.T) {
	obj, em := overlayFixture(0, 3)
	attrBefore, _ := obj.Mesh.Attribute(lockstore.LockAttributeName)
	snapshot := append([]int(nil), attrBefore...)
	obj.Mesh.ClearDirty()

	Build(obj, em, testSettings())

	attrAfter, _ := obj.Mesh.Attribute(lockstore.LockAttributeName)
	assert.Equal(t, snapshot, attrAfter)
	assert.False(t, obj.Mesh.Dirty(), "building a frame must not modify the mesh")
}

func TestRegistryAddRemoveFrames(t *testing.T) {
	r := NewRegistry()
	obj, em := overlayFixture(1, 2)
	s := testSettings()

	h1 := r.Add(func() Frame { return Build(obj, em, s) })
	h2 := r.Add(func() Frame { return Frame{} })
	require.Equal(t, 2, r.Len())

	frames := r.Frames()
	require.Len(t, frames, 2)

	r.Remove(h2)
	r.Remove(h2) // second remove is a no-op
	assert.Equal(t, 1, r.Len())

	r.Remove(h1)
	assert.Empty(t, r.Frames())
}

func TestRegistryRecoversPanickingDrawFunc(t *testing.T) {
	r := NewRegistry()
	r.Add(func() Frame { panic("shader compile failed") })

	frames := r.Frames()

	require.Len(t, frames, 1)
	assert.True(t, frames[0].Empty())
}
