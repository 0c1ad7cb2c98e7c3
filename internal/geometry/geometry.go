// Package geometry provides the mesh data model used by the lock system:
// the persisted mesh data block, the object wrapper carrying custom
// properties, and the editable working copy (EditMesh) with session-stable
// vertex identities.
package geometry

// Vec3 is a point or offset in 3D space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns the component-wise sum of v and o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Mid returns the midpoint between v and o.
func (v Vec3) Mid(o Vec3) Vec3 {
	return Vec3{X: (v.X + o.X) / 2, Y: (v.Y + o.Y) / 2, Z: (v.Z + o.Z) / 2}
}

// Mesh is the persisted mesh data block. Point-domain integer attributes
// live in Attributes keyed by name; each attribute slice is positional and
// expected to match the vertex count whenever the mesh is not mid-edit.
type Mesh struct {
	Name       string
	Verts      []Vec3
	Edges      [][2]int
	Faces      [][]int
	Attributes map[string][]int

	// dirty is set when the data block changed and the host should re-sync.
	dirty bool
}

// MarkDirty flags the mesh data as modified so the host re-syncs.
func (m *Mesh) MarkDirty() {
	if m != nil {
		m.dirty = true
	}
}

// Dirty reports whether the mesh data was modified since the last ClearDirty.
func (m *Mesh) Dirty() bool {
	return m != nil && m.dirty
}

// ClearDirty resets the modified flag, typically after the host re-synced.
func (m *Mesh) ClearDirty() {
	if m != nil {
		m.dirty = false
	}
}

// VertexCount returns the number of vertices in the data block.
func (m *Mesh) VertexCount() int {
	return len(m.Verts)
}

// Attribute returns the named point attribute and whether it exists.
func (m *Mesh) Attribute(name string) ([]int, bool) {
	if m.Attributes == nil {
		return nil, false
	}
	values, ok := m.Attributes[name]
	return values, ok
}

// SetAttribute stores the named point attribute, replacing any previous
// values.
func (m *Mesh) SetAttribute(name string, values []int) {
	if m.Attributes == nil {
		m.Attributes = make(map[string][]int)
	}
	m.Attributes[name] = values
}

// UnlockModeProp is the object custom property marking that
// unlock-selection mode is active for the object. Absence reads as false.
const UnlockModeProp = "_meshlock_unlock_mode"

// Object wraps a mesh data block with a name and object-level custom
// properties. Properties are free-form; absent keys read as zero values.
type Object struct {
	Name  string
	Mesh  *Mesh
	Props map[string]any
}

// NewObject creates an object owning the given mesh.
func NewObject(name string, mesh *Mesh) *Object {
	return &Object{Name: name, Mesh: mesh, Props: make(map[string]any)}
}

// PropBool reads a boolean-like custom property. Absent keys and
// non-boolean values read as false.
func (o *Object) PropBool(name string) bool {
	if o == nil || o.Props == nil {
		return false
	}
	v, ok := o.Props[name]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// SetProp stores a custom property on the object.
func (o *Object) SetProp(name string, value any) {
	if o == nil {
		return
	}
	if o.Props == nil {
		o.Props = make(map[string]any)
	}
	o.Props[name] = value
}

// DelProp removes a custom property if present.
func (o *Object) DelProp(name string) {
	if o == nil || o.Props == nil {
		return
	}
	delete(o.Props, name)
}

// UnlockMode reports whether unlock-selection mode is active for the object.
func (o *Object) UnlockMode() bool {
	return o.PropBool(UnlockModeProp)
}

// SetUnlockMode sets or clears the unlock-selection mode flag. Clearing
// removes the property so objects that never entered the mode carry no
// trace of it.
func (o *Object) SetUnlockMode(active bool) {
	if o == nil {
		return
	}
	if active {
		o.SetProp(UnlockModeProp, true)
	} else {
		o.DelProp(UnlockModeProp)
	}
}

