// Package unlockmode implements the operator-level lock workflow: locking
// the current selection, the two-phase unlock-selection mode, and the
// unlock-all escape hatch. All operations reconcile before reading lock
// state and persist the lock attribute before returning.
package unlockmode

import (
	"fmt"
	"log/slog"

	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/lockstore"
	"github.com/meshlock/meshlock-go/internal/reconcile"
)

// Result reports the outcome of a workflow operation. OK is false for
// no-ops, with Message explaining why nothing happened.
type Result struct {
	OK       bool   `json:"ok"`
	Affected int    `json:"affected"`
	Message  string `json:"message"`
}

func noOp(msg string) Result {
	return Result{OK: false, Message: msg}
}

// Mode drives the lock workflow against an object and its working copy.
type Mode struct {
	reconciler *reconcile.Reconciler
	logger     *slog.Logger
}

func New(rc *reconcile.Reconciler, logger *slog.Logger) *Mode {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mode{reconciler: rc, logger: logger}
}

// Active reports whether the object is in unlock-selection mode.
func (md *Mode) Active(obj *geometry.Object) bool {
	return obj != nil && obj.UnlockMode()
}

// LockSelection marks every selected vertex as locked, hides it and
// persists the lock attribute. Entering a lock while unlock-selection
// mode is active drops the mode first.
func (md *Mode) LockSelection(obj *geometry.Object, em *geometry.EditMesh, selMode geometry.SelectMode) Result {
	md.reconciler.Reconcile(obj, em)

	verts := em.SelectedVerts(selMode)
	if len(verts) == 0 {
		return noOp("no vertices selected to lock")
	}
	if obj.UnlockMode() {
		obj.SetUnlockMode(false)
	}

	newly := 0
	for v := range verts {
		if !lockstore.VertLocked(v) {
			lockstore.SetVertLocked(v, true)
			newly++
		}
		v.Hide = true
		v.Select = false
	}
	em.SyncElemVisibility()

	lockstore.SaveLayer(em, obj.Mesh)
	md.logger.Info("locked selection", "object", obj.Name, "newly_locked", newly, "total_locked", lockstore.CountLockedLayer(em))
	return Result{OK: true, Affected: newly, Message: fmt.Sprintf("locked %d vertices", newly)}
}

// Enter switches the object into unlock-selection mode: only locked
// vertices remain visible and selectable, everything starts deselected.
// Entering with zero locks is a no-op and clears any stale mode flag.
// Re-entering while already active just refreshes the visible set.
func (md *Mode) Enter(obj *geometry.Object, em *geometry.EditMesh) Result {
	md.reconciler.Reconcile(obj, em)

	if lockstore.CountLockedLayer(em) == 0 {
		obj.SetUnlockMode(false)
		return noOp("no locked vertices to unlock")
	}

	shown := 0
	for _, v := range em.Verts {
		if lockstore.VertLocked(v) {
			v.Hide = false
			shown++
		} else {
			v.Hide = true
		}
		v.Select = false
	}
	em.SyncElemVisibility()
	em.DeselectEdgesFaces()
	obj.SetUnlockMode(true)

	md.logger.Info("entered unlock-selection mode", "object", obj.Name, "locked", shown)
	return Result{OK: true, Affected: shown, Message: fmt.Sprintf("select locked vertices to unlock (%d shown)", shown)}
}

// Commit unlocks every locked vertex in the current selection, persists
// the attribute and leaves the mode. Remaining locked vertices are
// hidden again, everything else becomes visible.
func (md *Mode) Commit(obj *geometry.Object, em *geometry.EditMesh, selMode geometry.SelectMode) Result {
	md.reconciler.Reconcile(obj, em)

	if !md.Active(obj) {
		return noOp("unlock-selection mode is not active")
	}

	n := 0
	for v := range em.SelectedVerts(selMode) {
		if lockstore.VertLocked(v) {
			lockstore.SetVertLocked(v, false)
			n++
		}
	}
	if n == 0 {
		return noOp("selection contains no locked vertices")
	}

	md.restoreVisibility(em)
	lockstore.SaveLayer(em, obj.Mesh)
	obj.SetUnlockMode(false)

	md.logger.Info("committed unlock selection", "object", obj.Name, "unlocked", n, "remaining", lockstore.CountLockedLayer(em))
	return Result{OK: true, Affected: n, Message: fmt.Sprintf("unlocked %d vertices", n)}
}

// Cancel leaves unlock-selection mode without changing any locks.
func (md *Mode) Cancel(obj *geometry.Object, em *geometry.EditMesh) Result {
	if !md.Active(obj) {
		return noOp("unlock-selection mode is not active")
	}

	md.restoreVisibility(em)
	obj.SetUnlockMode(false)

	md.logger.Info("cancelled unlock-selection mode", "object", obj.Name)
	return Result{OK: true, Message: "unlock-selection mode cancelled"}
}

// UnlockAll clears every lock flag, restores visibility and persists the
// attribute. The mode flag is dropped whether or not it was set.
func (md *Mode) UnlockAll(obj *geometry.Object, em *geometry.EditMesh) Result {
	md.reconciler.Reconcile(obj, em)

	n := 0
	for _, v := range em.Verts {
		if lockstore.VertLocked(v) {
			lockstore.SetVertLocked(v, false)
			v.Hide = false
			n++
		}
	}
	obj.SetUnlockMode(false)
	if n == 0 {
		return noOp("no locked vertices")
	}
	em.SyncElemVisibility()
	lockstore.ClearAll(obj.Mesh)

	md.logger.Info("unlocked all vertices", "object", obj.Name, "unlocked", n)
	return Result{OK: true, Affected: n, Message: fmt.Sprintf("unlocked %d vertices", n)}
}

// restoreVisibility unhides everything except vertices that are still
// locked, which go back to hidden, and clears the selection.
func (md *Mode) restoreVisibility(em *geometry.EditMesh) {
	for _, v := range em.Verts {
		v.Hide = lockstore.VertLocked(v)
	}
	em.SyncElemVisibility()
	em.DeselectAll()
}
