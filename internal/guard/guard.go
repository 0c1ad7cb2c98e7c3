// Package guard intercepts move and delete attempts against the mesh and
// decides, per invocation, whether the action may proceed. Blocking is a
// pre-check: a blocked action is cancelled before any geometry mutates.
package guard

import (
	"fmt"
	"log/slog"

	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/lockstore"
	"github.com/meshlock/meshlock-go/internal/observability"
	"github.com/meshlock/meshlock-go/internal/reconcile"
)

// Action is a guarded user action.
type Action string

const (
	ActionMove   Action = "move"
	ActionDelete Action = "delete"
)

// Outcome of an interception decision.
type Outcome string

const (
	OutcomePass    Outcome = "pass"
	OutcomeBlocked Outcome = "blocked"
)

// Reason explains an interception decision.
type Reason string

const (
	// ReasonNoLocks passes the action through untouched: with zero locks
	// the guard must behave exactly like the host's native action.
	ReasonNoLocks Reason = "no_locks"
	// ReasonClear passes: locks exist but the action touches none of them.
	ReasonClear Reason = "clear"
	// ReasonEmptySelection blocks: there is nothing to act on.
	ReasonEmptySelection Reason = "empty_selection"
	// ReasonLockedSelection blocks: the selection touches a locked vertex.
	ReasonLockedSelection Reason = "locked_selection"
	// ReasonBulkWithLocks blocks: a full-selection action while any lock
	// exists. This is a conservative safety rule, not a precise conflict
	// check; a bulk edit cannot be partially applied without risking the
	// locked subset.
	ReasonBulkWithLocks Reason = "bulk_with_locks"
)

// Decision is the result of one interception attempt.
type Decision struct {
	Action  Action
	Outcome Outcome
	Reason  Reason
	// Message is the user-visible warning for blocked decisions, empty on
	// a clean pass.
	Message string
	// Targets is the vertex set the action would touch. Nil when the
	// decision short-circuited before computing it.
	Targets map[*geometry.EditVert]struct{}
}

// Blocked reports whether the action must not proceed.
func (d Decision) Blocked() bool {
	return d.Outcome == OutcomeBlocked
}

// Engine makes interception decisions for guarded actions.
type Engine struct {
	reconciler *reconcile.Reconciler
	metrics    *observability.GuardMetrics
	logger     *slog.Logger
}

// New creates a guard engine. metrics and logger may be nil.
func New(reconciler *reconcile.Reconciler, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		reconciler: reconciler,
		metrics:    metrics.GuardMetrics(),
		logger:     logger,
	}
}

// Check evaluates one interception attempt without mutating geometry.
// The transition logic, in order: reconcile; zero locks pass through;
// empty selection blocks as a no-op; a selection touching a locked vertex
// blocks; a full-coverage selection blocks while any lock exists;
// otherwise the action passes.
func (e *Engine) Check(obj *geometry.Object, em *geometry.EditMesh, mode geometry.SelectMode, action Action) Decision {
	e.reconciler.Reconcile(obj, em)

	d := Decision{Action: action}

	// The working copy is the lock authority during a session: the mesh
	// attribute keeps one value per document vertex and only catches up
	// with mid-session topology edits on commit.
	if obj == nil || obj.Mesh == nil || em == nil || lockstore.CountLockedLayer(em) == 0 {
		d.Outcome = OutcomePass
		d.Reason = ReasonNoLocks
		return e.record(d)
	}

	d.Targets = em.SelectedVerts(mode)
	if len(d.Targets) == 0 {
		d.Outcome = OutcomeBlocked
		d.Reason = ReasonEmptySelection
		d.Message = fmt.Sprintf("nothing selected to %s", action)
		return e.record(d)
	}

	for v := range d.Targets {
		if lockstore.VertLocked(v) {
			d.Outcome = OutcomeBlocked
			d.Reason = ReasonLockedSelection
			d.Message = fmt.Sprintf("selection contains locked vertices, %s blocked", action)
			return e.record(d)
		}
	}

	if e.fullCoverage(em, mode, action, d.Targets) {
		d.Outcome = OutcomeBlocked
		d.Reason = ReasonBulkWithLocks
		d.Message = fmt.Sprintf("locked vertices exist, full-selection %s is not allowed", action)
		return e.record(d)
	}

	d.Outcome = OutcomePass
	d.Reason = ReasonClear
	return e.record(d)
}

// fullCoverage reports whether the pending action covers every visible
// element. Delete uses the vertex basis of the expanded selection so that
// edge and face deletions are judged against the vertices they remove.
func (e *Engine) fullCoverage(em *geometry.EditMesh, mode geometry.SelectMode, action Action, targets map[*geometry.EditVert]struct{}) bool {
	if action == ActionDelete {
		return em.AllVisibleVertsIn(targets)
	}
	return em.AllVisibleSelected(mode)
}

func (e *Engine) record(d Decision) Decision {
	e.metrics.RecordDecision(string(d.Action), string(d.Outcome), string(d.Reason))
	if e.logger != nil && d.Blocked() {
		e.logger.Info("blocked guarded action",
			"action", d.Action,
			"reason", d.Reason,
			"targets", len(d.Targets))
	}
	return d
}

// Move checks a pending translate and, on pass, moves the selected
// vertices by delta and persists the working copy's lock layer.
func (e *Engine) Move(obj *geometry.Object, em *geometry.EditMesh, mode geometry.SelectMode, delta geometry.Vec3) Decision {
	d := e.Check(obj, em, mode, ActionMove)
	if d.Blocked() {
		return d
	}
	targets := d.Targets
	if targets == nil {
		targets = em.SelectedVerts(mode)
	}
	em.TranslateVerts(targets, delta)
	if obj != nil && obj.Mesh != nil {
		obj.Mesh.MarkDirty()
	}
	return d
}

// Delete checks a pending delete and, on pass, removes the selected
// vertices (expanded from the selection mode, restricted to visible,
// unlocked verts) together with their incident edges and faces. Returns
// the decision and the number of vertices removed.
func (e *Engine) Delete(obj *geometry.Object, em *geometry.EditMesh, mode geometry.SelectMode) (Decision, int) {
	d := e.Check(obj, em, mode, ActionDelete)
	if d.Blocked() {
		return d, 0
	}
	targets := d.Targets
	if targets == nil {
		targets = em.SelectedVerts(mode)
	}
	// Restrict the doomed set to visible, unlocked verts so a locked
	// vertex never rides along on a pass-through.
	doomed := make(map[*geometry.EditVert]struct{}, len(targets))
	for v := range targets {
		if !v.Hide && !lockstore.VertLocked(v) {
			doomed[v] = struct{}{}
		}
	}
	em.DeleteVerts(doomed)
	if obj != nil && obj.Mesh != nil {
		obj.Mesh.MarkDirty()
	}
	return d, len(doomed)
}
