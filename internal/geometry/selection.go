package geometry

// SelectMode mirrors the host's element selection mode. Edge and face
// selections expand to vertex sets for every lock decision.
type SelectMode string

const (
	SelectVertex SelectMode = "VERT"
	SelectEdge   SelectMode = "EDGE"
	SelectFace   SelectMode = "FACE"
)

// ParseSelectMode maps a mode string to a SelectMode, defaulting to
// vertex selection for unknown values.
func ParseSelectMode(s string) SelectMode {
	switch SelectMode(s) {
	case SelectEdge:
		return SelectEdge
	case SelectFace:
		return SelectFace
	default:
		return SelectVertex
	}
}

// SelectedVerts expands the current selection in the given mode to a
// vertex set. Hidden elements are excluded.
func (em *EditMesh) SelectedVerts(mode SelectMode) map[*EditVert]struct{} {
	verts := make(map[*EditVert]struct{})
	switch mode {
	case SelectEdge:
		for _, e := range em.Edges {
			if !e.Select || e.Hide {
				continue
			}
			for _, v := range e.V {
				if !v.Hide {
					verts[v] = struct{}{}
				}
			}
		}
	case SelectFace:
		for _, f := range em.Faces {
			if !f.Select || f.Hide {
				continue
			}
			for _, v := range f.Verts {
				if !v.Hide {
					verts[v] = struct{}{}
				}
			}
		}
	default:
		for _, v := range em.Verts {
			if v.Select && !v.Hide {
				verts[v] = struct{}{}
			}
		}
	}
	return verts
}

// AllVisibleSelected reports whether every visible element of the given
// mode is selected. An empty visible set reports false.
func (em *EditMesh) AllVisibleSelected(mode SelectMode) bool {
	anyVisible := false
	switch mode {
	case SelectEdge:
		for _, e := range em.Edges {
			if e.Hide {
				continue
			}
			anyVisible = true
			if !e.Select {
				return false
			}
		}
	case SelectFace:
		for _, f := range em.Faces {
			if f.Hide {
				continue
			}
			anyVisible = true
			if !f.Select {
				return false
			}
		}
	default:
		for _, v := range em.Verts {
			if v.Hide {
				continue
			}
			anyVisible = true
			if !v.Select {
				return false
			}
		}
	}
	return anyVisible
}

// AllVisibleVertsIn reports whether every visible vertex is contained in
// the given set. This is the vertex-basis full-selection test used for
// delete decisions.
func (em *EditMesh) AllVisibleVertsIn(set map[*EditVert]struct{}) bool {
	anyVisible := false
	for _, v := range em.Verts {
		if v.Hide {
			continue
		}
		anyVisible = true
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return anyVisible
}

// SelectVertsByIndex selects the vertices at the given positional indices
// in the requested mode's vertex basis, clearing any previous selection.
// Out-of-range indices are ignored.
func (em *EditMesh) SelectVertsByIndex(indices []int) {
	em.DeselectAll()
	for _, i := range indices {
		if i < 0 || i >= len(em.Verts) {
			continue
		}
		if !em.Verts[i].Hide {
			em.Verts[i].Select = true
		}
	}
}

// DeselectEdgesFaces clears every edge and face selection, leaving vertex
// selection untouched.
func (em *EditMesh) DeselectEdgesFaces() {
	for _, e := range em.Edges {
		e.Select = false
	}
	for _, f := range em.Faces {
		f.Select = false
	}
}

// SyncElemVisibility derives edge and face visibility from vertices: an
// element is hidden whenever any of its vertices is hidden. Hidden
// elements are also deselected.
func (em *EditMesh) SyncElemVisibility() {
	for _, e := range em.Edges {
		e.Hide = e.V[0].Hide || e.V[1].Hide
		if e.Hide {
			e.Select = false
		}
	}
	for _, f := range em.Faces {
		f.Hide = false
		for _, v := range f.Verts {
			if v.Hide {
				f.Hide = true
				break
			}
		}
		if f.Hide {
			f.Select = false
		}
	}
}

// DeselectAll clears the selection of every element.
func (em *EditMesh) DeselectAll() {
	for _, v := range em.Verts {
		v.Select = false
	}
	em.DeselectEdgesFaces()
}
