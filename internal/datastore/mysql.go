package datastore

import (
	"fmt"

	"github.com/meshlock/meshlock-go/internal/conf"
	"github.com/meshlock/meshlock-go/internal/logging"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQLStore implements Interface for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	my := settings.Output.MySQL
	if my.Host == "" || my.Database == "" {
		return fmt.Errorf("mysql host and database must be set")
	}
	return nil
}

// Open sets up the MySQL database connection and migrates the schema.
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	my := store.Settings.Output.MySQL
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		my.Username, my.Password, my.Host, my.Port, my.Database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		logging.Error("failed to open MySQL database",
			"host", my.Host, "port", my.Port, "database", my.Database, "error", err)
		return fmt.Errorf("failed to open MySQL database: %w", err)
	}

	store.DB = db
	connInfo := fmt.Sprintf("%s@%s:%s/%s", my.Username, my.Host, my.Port, my.Database)
	return performAutoMigration(db, store.Settings.Main.Debug, "MySQL", connInfo)
}
