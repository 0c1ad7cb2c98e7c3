package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectedVertsExpandsEdgeSelection(t *testing.T) {
	em := FromMesh(quad())
	em.Edges[1].Select = true // edge {1,2}

	verts := em.SelectedVerts(SelectEdge)

	require.Len(t, verts, 2)
	assert.Contains(t, verts, em.Verts[1])
	assert.Contains(t, verts, em.Verts[2])
}

func TestSelectedVertsExpandsFaceSelection(t *testing.T) {
	em := FromMesh(quad())
	em.Faces[0].Select = true

	verts := em.SelectedVerts(SelectFace)

	assert.Len(t, verts, 4)
}

func TestSelectedVertsExcludesHidden(t *testing.T) {
	em := FromMesh(quad())
	em.Verts[0].Select = true
	em.Verts[1].Select = true
	em.Verts[1].Hide = true

	verts := em.SelectedVerts(SelectVertex)

	require.Len(t, verts, 1)
	assert.Contains(t, verts, em.Verts[0])
}

func TestAllVisibleSelected(t *testing.T) {
	em := FromMesh(quad())
	for _, v := range em.Verts {
		v.Select = true
	}
	assert.True(t, em.AllVisibleSelected(SelectVertex))

	em.Verts[2].Select = false
	assert.False(t, em.AllVisibleSelected(SelectVertex))

	// Hidden verts do not count toward full coverage.
	em.Verts[2].Hide = true
	assert.True(t, em.AllVisibleSelected(SelectVertex))
}

func TestAllVisibleSelectedEmptyMesh(t *testing.T) {
	em := &EditMesh{}
	assert.False(t, em.AllVisibleSelected(SelectVertex))
}

func TestAllVisibleVertsIn(t *testing.T) {
	em := FromMesh(quad())
	set := map[*EditVert]struct{}{}
	for _, v := range em.Verts {
		set[v] = struct{}{}
	}
	assert.True(t, em.AllVisibleVertsIn(set))

	delete(set, em.Verts[3])
	assert.False(t, em.AllVisibleVertsIn(set))

	em.Verts[3].Hide = true
	assert.True(t, em.AllVisibleVertsIn(set))
}

func TestSelectVertsByIndexIgnoresOutOfRange(t *testing.T) {
	em := FromMesh(quad())
	em.Verts[0].Select = true

	em.SelectVertsByIndex([]int{2, 17, -1})

	assert.False(t, em.Verts[0].Select, "previous selection should be cleared")
	assert.True(t, em.Verts[2].Select)
}

func TestParseSelectMode(t *testing.T) {
	assert.Equal(t, SelectEdge, ParseSelectMode("EDGE"))
	assert.Equal(t, SelectFace, ParseSelectMode("FACE"))
	assert.Equal(t, SelectVertex, ParseSelectMode("VERT"))
	assert.Equal(t, SelectVertex, ParseSelectMode("bogus"))
}
