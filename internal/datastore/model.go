package datastore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/meshlock/meshlock-go/internal/geometry"
)

// MeshRecord is the persisted form of a mesh document. Geometry arrays
// are stored JSON-encoded; attributes and object properties live in
// child tables so they can be queried and migrated independently.
type MeshRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:191;not null"`
	Verts     string `gorm:"type:text"`
	Edges     string `gorm:"type:text"`
	Faces     string `gorm:"type:text"`
	UpdatedAt time.Time

	Attributes []AttributeRecord `gorm:"foreignKey:MeshID;constraint:OnDelete:CASCADE"`
	Props      []ObjectProp      `gorm:"foreignKey:MeshID;constraint:OnDelete:CASCADE"`
}

// AttributeRecord is one named per-element integer attribute, the lock
// attribute included. Values are a JSON int array with one entry per
// element of the domain.
type AttributeRecord struct {
	ID     uint   `gorm:"primaryKey"`
	MeshID uint   `gorm:"index;not null"`
	Name   string `gorm:"size:191;not null"`
	Domain string `gorm:"size:32;not null"`
	Values string `gorm:"type:text"`
}

// ObjectProp is one object-level custom property, JSON-encoded.
type ObjectProp struct {
	ID     uint   `gorm:"primaryKey"`
	MeshID uint   `gorm:"index;not null"`
	Name   string `gorm:"size:191;not null"`
	Value  string `gorm:"type:text"`
}

// DomainVertex is the attribute domain for per-vertex attributes.
const DomainVertex = "vertex"

// toRecord converts an object and its mesh into the persisted form.
func toRecord(obj *geometry.Object) (*MeshRecord, error) {
	m := obj.Mesh
	verts, err := json.Marshal(m.Verts)
	if err != nil {
		return nil, fmt.Errorf("encoding verts: %w", err)
	}
	edges, err := json.Marshal(m.Edges)
	if err != nil {
		return nil, fmt.Errorf("encoding edges: %w", err)
	}
	faces, err := json.Marshal(m.Faces)
	if err != nil {
		return nil, fmt.Errorf("encoding faces: %w", err)
	}

	rec := &MeshRecord{
		Name:  m.Name,
		Verts: string(verts),
		Edges: string(edges),
		Faces: string(faces),
	}
	for name, values := range m.Attributes {
		encoded, err := json.Marshal(values)
		if err != nil {
			return nil, fmt.Errorf("encoding attribute %q: %w", name, err)
		}
		rec.Attributes = append(rec.Attributes, AttributeRecord{
			Name:   name,
			Domain: DomainVertex,
			Values: string(encoded),
		})
	}
	for name, value := range obj.Props {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encoding property %q: %w", name, err)
		}
		rec.Props = append(rec.Props, ObjectProp{Name: name, Value: string(encoded)})
	}
	return rec, nil
}

// fromRecord rebuilds the object from its persisted form.
func fromRecord(rec *MeshRecord) (*geometry.Object, error) {
	m := &geometry.Mesh{Name: rec.Name}
	if rec.Verts != "" {
		if err := json.Unmarshal([]byte(rec.Verts), &m.Verts); err != nil {
			return nil, fmt.Errorf("decoding verts of %q: %w", rec.Name, err)
		}
	}
	if rec.Edges != "" {
		if err := json.Unmarshal([]byte(rec.Edges), &m.Edges); err != nil {
			return nil, fmt.Errorf("decoding edges of %q: %w", rec.Name, err)
		}
	}
	if rec.Faces != "" {
		if err := json.Unmarshal([]byte(rec.Faces), &m.Faces); err != nil {
			return nil, fmt.Errorf("decoding faces of %q: %w", rec.Name, err)
		}
	}
	for i := range rec.Attributes {
		ar := &rec.Attributes[i]
		var values []int
		if err := json.Unmarshal([]byte(ar.Values), &values); err != nil {
			return nil, fmt.Errorf("decoding attribute %q of %q: %w", ar.Name, rec.Name, err)
		}
		m.SetAttribute(ar.Name, values)
	}
	m.ClearDirty()

	obj := geometry.NewObject(rec.Name, m)
	for i := range rec.Props {
		pr := &rec.Props[i]
		var value any
		if err := json.Unmarshal([]byte(pr.Value), &value); err != nil {
			return nil, fmt.Errorf("decoding property %q of %q: %w", pr.Name, rec.Name, err)
		}
		obj.SetProp(pr.Name, value)
	}
	return obj, nil
}
