// Package lockstore owns the persistent per-vertex lock attribute: a
// point-domain integer attribute on the mesh data block, mirrored into a
// vertex layer on the working copy while an edit session is open.
//
// Storage operations never return errors for shape problems: a malformed
// attribute (wrong length) is treated as "no lock information yet" and
// recreated all-zero.
package lockstore

import "github.com/meshlock/meshlock-go/internal/geometry"

// LockAttributeName is the point attribute and vertex layer holding the
// lock flags, values 0 (unlocked) or 1 (locked).
const LockAttributeName = "mesh_lock_vert"

// EnsureAttribute guarantees the lock attribute exists on the data block
// with one value per vertex. Existing valid values are preserved; an
// absent or malformed attribute is recreated all-zero. Returns the
// attribute slice.
func EnsureAttribute(m *geometry.Mesh) []int {
	if m == nil {
		return nil
	}
	values, ok := m.Attribute(LockAttributeName)
	if ok && len(values) == m.VertexCount() {
		return values
	}
	values = make([]int, m.VertexCount())
	m.SetAttribute(LockAttributeName, values)
	return values
}

// LockedIndices returns the set of vertex indices whose lock flag is 1.
// Never mutates; a missing or malformed attribute reads as no locks.
func LockedIndices(m *geometry.Mesh) map[int]struct{} {
	locked := make(map[int]struct{})
	if m == nil {
		return locked
	}
	values, ok := m.Attribute(LockAttributeName)
	if !ok || len(values) != m.VertexCount() {
		return locked
	}
	for i, v := range values {
		if v == 1 {
			locked[i] = struct{}{}
		}
	}
	return locked
}

// SetLocked sets the lock flag for the given vertex indices. Indices
// outside the current vertex range are silently ignored, since the caller
// may hold a stale selection across an edit. Marks the mesh data as
// modified.
func SetLocked(m *geometry.Mesh, indices []int, locked bool) {
	if m == nil {
		return
	}
	values := EnsureAttribute(m)
	flag := 0
	if locked {
		flag = 1
	}
	changed := false
	for _, i := range indices {
		if i < 0 || i >= len(values) {
			continue
		}
		if values[i] != flag {
			values[i] = flag
			changed = true
		}
	}
	if changed {
		m.MarkDirty()
	}
}

// CountLocked returns the number of locked vertices according to the
// persisted attribute.
func CountLocked(m *geometry.Mesh) int {
	return len(LockedIndices(m))
}

// HasLocked reports whether any vertex is locked.
func HasLocked(m *geometry.Mesh) bool {
	return CountLocked(m) > 0
}

// ClearAll resets every lock flag to 0 and returns the number of flags
// that changed. The attribute itself is kept to avoid schema churn on
// repeated lock/unlock cycles.
func ClearAll(m *geometry.Mesh) int {
	if m == nil {
		return 0
	}
	values := EnsureAttribute(m)
	changed := 0
	for i, v := range values {
		if v == 1 {
			changed++
		}
		values[i] = 0
	}
	if changed > 0 {
		m.MarkDirty()
	}
	return changed
}
