// Package reconcile repairs the persisted lock attribute against the live
// working copy after arbitrary topology edits. Every guard decision and
// every unlock-mode transition reconciles first, so no operation ever
// reads lock state that is stale relative to the current topology.
package reconcile

import (
	"log/slog"

	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/lockstore"
	"github.com/meshlock/meshlock-go/internal/observability"
)

// Reconciler repairs lock attribute / vertex count mismatches. Safe to
// call redundantly: a second call with no intervening edit is a no-op.
type Reconciler struct {
	metrics *observability.ReconcilerMetrics
	logger  *slog.Logger
}

// New creates a Reconciler. Both arguments may be nil.
func New(metrics *observability.Metrics, logger *slog.Logger) *Reconciler {
	return &Reconciler{metrics: metrics.ReconcilerMetrics(), logger: logger}
}

// Reconcile synchronizes the persisted lock attribute with the working
// copy and re-applies the visibility discipline for locked vertices.
// Failures never propagate: any panic degrades to "no lock information",
// which downstream guards treat as zero locks (fail-open).
func (r *Reconciler) Reconcile(obj *geometry.Object, em *geometry.EditMesh) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.RecordFailure()
			if r.logger != nil {
				r.logger.Error("reconciliation failed, degrading to no locks",
					"panic", rec)
			}
		}
	}()

	if obj == nil || obj.Mesh == nil || em == nil {
		return
	}
	mesh := obj.Mesh

	values, ok := mesh.Attribute(lockstore.LockAttributeName)
	switch {
	case !ok:
		if lockstore.CountLockedLayer(em) > 0 {
			// Attribute lost but the working copy still knows the locks.
			lockstore.SaveLayer(em, mesh)
			r.metrics.RecordRepair()
		} else {
			lockstore.EnsureAttribute(mesh)
		}
	case len(values) != mesh.VertexCount() || em.VertexCount() != mesh.VertexCount():
		// Malformed attribute, or a topology edit pending commit. The
		// lock layer travels with each surviving vertex identity, so
		// rebuilding from the working copy preserves flags for every
		// document vertex that still exists and keeps the attribute
		// sized to the document mesh. The layer stays authoritative for
		// verts created mid-session until the edit is committed.
		lockstore.SaveLayer(em, mesh)
		r.metrics.RecordRepair()
		if r.logger != nil {
			r.logger.Debug("rebuilt lock attribute from working copy",
				"mesh", mesh.Name,
				"attribute_len", len(values),
				"mesh_verts", mesh.VertexCount(),
				"edit_verts", em.VertexCount())
		}
	default:
		// Everything agrees: the persisted attribute is authoritative.
		lockstore.LoadLayer(mesh, em)
	}

	r.repairModeState(obj, em)
}

// repairModeState enforces the visibility discipline: outside
// unlock-selection mode locked vertices stay hidden and deselected; a
// lingering mode flag with no locks left is dropped.
func (r *Reconciler) repairModeState(obj *geometry.Object, em *geometry.EditMesh) {
	if obj.UnlockMode() {
		if lockstore.CountLocked(obj.Mesh) == 0 && lockstore.CountLockedLayer(em) == 0 {
			obj.SetUnlockMode(false)
		}
		return
	}

	needFix := false
	for _, v := range em.Verts {
		if lockstore.VertLocked(v) && (!v.Hide || v.Select) {
			needFix = true
			break
		}
	}
	if !needFix {
		return
	}
	for _, v := range em.Verts {
		if lockstore.VertLocked(v) {
			v.Hide = true
			v.Select = false
		}
	}
	obj.Mesh.MarkDirty()
}
