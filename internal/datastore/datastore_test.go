package datastore

import (
	"testing"

	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/lockstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memStore opens an isolated in-memory database per test.
func memStore(t *testing.T) *DataStore {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared&_fk=1"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&MeshRecord{}, &AttributeRecord{}, &ObjectProp{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return &DataStore{DB: db}
}

func sampleObject(name string) *geometry.Object {
	m := &geometry.Mesh{
		Name:  name,
		Verts: []geometry.Vec3{{X: 0}, {X: 1}, {X: 2, Z: 1}, {Y: 1}},
		Edges: [][2]int{{0, 1}, {1, 2}},
		Faces: [][]int{{0, 1, 2, 3}},
	}
	obj := geometry.NewObject(name, m)
	lockstore.SetLocked(m, []int{1, 3}, true)
	obj.SetUnlockMode(true)
	return obj
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	ds := memStore(t)
	obj := sampleObject("suzanne")

	require.NoError(t, ds.SaveMesh(obj))
	assert.False(t, obj.Mesh.Dirty(), "save clears the dirty flag")

	got, err := ds.GetMesh("suzanne")
	require.NoError(t, err)

	assert.Equal(t, obj.Mesh.Verts, got.Mesh.Verts)
	assert.Equal(t, obj.Mesh.Edges, got.Mesh.Edges)
	assert.Equal(t, obj.Mesh.Faces, got.Mesh.Faces)
	assert.False(t, got.Mesh.Dirty())

	// The lock attribute survives byte for byte.
	want, _ := obj.Mesh.Attribute(lockstore.LockAttributeName)
	have, ok := got.Mesh.Attribute(lockstore.LockAttributeName)
	require.True(t, ok)
	assert.Equal(t, want, have)
	assert.True(t, got.UnlockMode(), "object properties round-trip")
}

func TestSaveReplacesPreviousRecord(t *testing.T) {
	ds := memStore(t)
	obj := sampleObject("plane")
	require.NoError(t, ds.SaveMesh(obj))

	// Unlock everything and save again; stale attribute rows must not
	// survive the rewrite.
	lockstore.ClearAll(obj.Mesh)
	obj.SetUnlockMode(false)
	require.NoError(t, ds.SaveMesh(obj))

	got, err := ds.GetMesh("plane")
	require.NoError(t, err)
	assert.Equal(t, 0, lockstore.CountLocked(got.Mesh))
	assert.False(t, got.UnlockMode())

	var count int64
	require.NoError(t, ds.DB.Model(&MeshRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGetMissingMesh(t *testing.T) {
	ds := memStore(t)

	_, err := ds.GetMesh("nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListMeshes(t *testing.T) {
	ds := memStore(t)
	require.NoError(t, ds.SaveMesh(sampleObject("beta")))
	require.NoError(t, ds.SaveMesh(sampleObject("alpha")))

	names, err := ds.ListMeshes()

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
}

func TestDeleteMeshRemovesChildren(t *testing.T) {
	ds := memStore(t)
	require.NoError(t, ds.SaveMesh(sampleObject("doomed")))

	require.NoError(t, ds.DeleteMesh("doomed"))

	_, err := ds.GetMesh("doomed")
	assert.Error(t, err)

	var attrs, props int64
	require.NoError(t, ds.DB.Model(&AttributeRecord{}).Count(&attrs).Error)
	require.NoError(t, ds.DB.Model(&ObjectProp{}).Count(&props).Error)
	assert.Zero(t, attrs)
	assert.Zero(t, props)
}

func TestDeleteMissingMesh(t *testing.T) {
	ds := memStore(t)

	err := ds.DeleteMesh("ghost")

	assert.Error(t, err)
}

func TestSaveNilMesh(t *testing.T) {
	ds := memStore(t)

	assert.Error(t, ds.SaveMesh(nil))
	assert.Error(t, ds.SaveMesh(&geometry.Object{Name: "bare"}))
}
