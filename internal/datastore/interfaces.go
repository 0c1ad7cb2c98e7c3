// interfaces.go: the interface for mesh document persistence
package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/meshlock/meshlock-go/internal/conf"
	"github.com/meshlock/meshlock-go/internal/errors"
	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/logging"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Close() error
	SaveMesh(obj *geometry.Object) error
	GetMesh(name string) (*geometry.Object, error)
	ListMeshes() ([]string, error)
	DeleteMesh(name string) error
}

// DataStore implements the query side of Interface using a GORM database;
// the backend-specific stores contribute Open.
type DataStore struct {
	DB *gorm.DB
}

var (
	_ Interface = (*SQLiteStore)(nil)
	_ Interface = (*MySQLStore)(nil)
)

// New creates a store for whichever backend the settings enable.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// SaveMesh upserts the full document: geometry, attributes and object
// properties replace any previous record with the same name in a single
// transaction, so the lock attribute can never go stale against the
// geometry it was saved with.
func (ds *DataStore) SaveMesh(obj *geometry.Object) error {
	if ds.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	if obj == nil || obj.Mesh == nil {
		return errors.Newf("cannot save nil mesh").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	rec, err := toRecord(obj)
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatastore).
			Context("mesh", obj.Mesh.Name).
			Build()
	}

	err = ds.DB.Transaction(func(tx *gorm.DB) error {
		var existing MeshRecord
		switch err := tx.Where("name = ?", rec.Name).First(&existing).Error; {
		case err == nil:
			if err := tx.Where("mesh_id = ?", existing.ID).Delete(&AttributeRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Where("mesh_id = ?", existing.ID).Delete(&ObjectProp{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first save of this document
		default:
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		return fmt.Errorf("saving mesh %q: %w", rec.Name, err)
	}
	obj.Mesh.ClearDirty()
	return nil
}

// GetMesh loads a document by name.
func (ds *DataStore) GetMesh(name string) (*geometry.Object, error) {
	if ds.DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	var rec MeshRecord
	err := ds.DB.Preload("Attributes").Preload("Props").
		Where("name = ?", name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Newf("mesh %q not found", name).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("mesh", name).
			Build()
	}
	if err != nil {
		return nil, fmt.Errorf("getting mesh %q: %w", name, err)
	}
	return fromRecord(&rec)
}

// ListMeshes returns the names of all stored documents.
func (ds *DataStore) ListMeshes() ([]string, error) {
	if ds.DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}
	var names []string
	if err := ds.DB.Model(&MeshRecord{}).Order("name ASC").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("listing meshes: %w", err)
	}
	return names, nil
}

// DeleteMesh removes a document and its attributes and properties.
func (ds *DataStore) DeleteMesh(name string) error {
	if ds.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var rec MeshRecord
		if err := tx.Where("name = ?", name).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Newf("mesh %q not found", name).
					Component("datastore").
					Category(errors.CategoryNotFound).
					Build()
			}
			return err
		}
		if err := tx.Where("mesh_id = ?", rec.ID).Delete(&AttributeRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("mesh_id = ?", rec.ID).Delete(&ObjectProp{}).Error; err != nil {
			return err
		}
		return tx.Delete(&rec).Error
	})
}

// Close closes the underlying connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return fmt.Errorf("getting database connection: %w", err)
	}
	return sqlDB.Close()
}

func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}

func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&MeshRecord{}, &AttributeRecord{}, &ObjectProp{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}
	if debug {
		logging.Debug("database connection initialized", "type", dbType, "target", connectionInfo)
	}
	return nil
}
