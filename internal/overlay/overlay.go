// Package overlay builds the read-only highlight frames shown while
// unlock-selection mode is active: locked vertices as points and edges
// between locked vertices as lines. Building a frame never mutates the
// mesh or the working copy.
package overlay

import (
	"github.com/meshlock/meshlock-go/internal/conf"
	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/lockstore"
)

// Point is a single highlighted vertex.
type Point struct {
	Co    geometry.Vec3 `json:"co"`
	Color conf.RGBA     `json:"color"`
	Size  float64       `json:"size"`
}

// Line is a highlighted edge segment between two locked vertices.
type Line struct {
	A     geometry.Vec3 `json:"a"`
	B     geometry.Vec3 `json:"b"`
	Color conf.RGBA     `json:"color"`
	Width float64       `json:"width"`
}

// Frame is one overlay drawing pass.
type Frame struct {
	Points    []Point `json:"points"`
	Lines     []Line  `json:"lines"`
	DepthTest bool    `json:"depth_test"`
}

// Empty reports whether the frame draws nothing.
func (f Frame) Empty() bool {
	return len(f.Points) == 0 && len(f.Lines) == 0
}

// Build computes the overlay frame for an object in unlock-selection
// mode. It returns an empty frame when the overlay is disabled, the mode
// is inactive, or any input is nil. Selected locked vertices use the
// highlight color and a slightly larger size so pending unlocks stand
// out.
func Build(obj *geometry.Object, em *geometry.EditMesh, settings conf.OverlaySettings) Frame {
	f := Frame{DepthTest: true}
	if !settings.Show || obj == nil || obj.Mesh == nil || em == nil {
		return f
	}
	if !obj.UnlockMode() {
		return f
	}

	for _, v := range em.Verts {
		if !lockstore.VertLocked(v) || v.Hide {
			continue
		}
		p := Point{Co: v.Co, Color: settings.BaseColor, Size: settings.PointSize}
		if v.Select {
			p.Color = settings.HighlightColor
			p.Size += 2
		}
		f.Points = append(f.Points, p)
	}

	for _, e := range em.Edges {
		if e.Hide || !lockstore.VertLocked(e.V[0]) || !lockstore.VertLocked(e.V[1]) {
			continue
		}
		l := Line{A: e.V[0].Co, B: e.V[1].Co, Color: settings.BaseColor, Width: settings.LineWidth}
		if e.V[0].Select && e.V[1].Select {
			l.Color = settings.HighlightColor
			l.Width++
		}
		f.Lines = append(f.Lines, l)
	}
	return f
}
