// Package conf handles loading, saving and validation of application
// settings through viper, with YAML as the on-disk format.
package conf

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Log rotation types.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled  bool         // true to enable this log
	Path     string       // path to log file
	Rotation RotationType // rotation type
	MaxSize  int64        // max size in bytes for RotationSize
}

// MainSettings contains top level application settings
type MainSettings struct {
	Name  string    // name of the node, used for identification
	Debug bool      // true to enable debug logging
	Log   LogConfig // main application log configuration
}

// RGBA is a color with components in the 0..1 range.
type RGBA struct {
	R float64 `yaml:"r" json:"r"`
	G float64 `yaml:"g" json:"g"`
	B float64 `yaml:"b" json:"b"`
	A float64 `yaml:"a" json:"a"`
}

// OverlaySettings controls the lock highlight overlay rendering.
type OverlaySettings struct {
	Show           bool    // true to draw locked elements during unlock-selection mode
	BaseColor      RGBA    // color for locked, unselected elements
	HighlightColor RGBA    // color for locked, selected elements
	PointSize      float64 // locked vertex point size, 1..20
	LineWidth      float64 // locked edge line width, 1..10
}

// SQLiteSettings contains SQLite datastore settings
type SQLiteSettings struct {
	Enabled bool   // true to enable SQLite datastore
	Path    string // path to SQLite database file
}

// MySQLSettings contains MySQL datastore settings
type MySQLSettings struct {
	Enabled  bool   // true to enable MySQL datastore
	Username string // MySQL username
	Password string // MySQL password
	Database string // MySQL database name
	Host     string // MySQL server host
	Port     string // MySQL server port
}

// OutputSettings selects the datastore backend.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// WebServerSettings contains settings for the HTTP API server.
type WebServerSettings struct {
	Enabled bool   // true to enable the API server
	Port    string // port to listen on
	Debug   bool   // true to enable API debug logging
}

// Settings is the root configuration struct.
type Settings struct {
	Main      MainSettings
	Overlay   OverlaySettings
	Output    OutputSettings
	WebServer WebServerSettings
}

var (
	settingsInstance *Settings
	settingsOnce     sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration from disk, applying defaults for any
// missing values, and validates the result.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()
	return settings, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !asConfigFileNotFound(err, &notFound) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
		// No config file yet, create one from defaults.
		configPath := filepath.Join(configPaths[0], "config.yaml")
		if createErr := createDefaultConfig(configPath); createErr != nil {
			// Running without a persisted config is fine, keep defaults.
			log.Printf("unable to write default config file: %v", createErr)
		}
	}
	return nil
}

func asConfigFileNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	if e, ok := err.(viper.ConfigFileNotFoundError); ok {
		*target = e
		return true
	}
	return false
}

func createDefaultConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("error unmarshaling defaults: %w", err)
	}
	return SaveYAMLConfig(configPath, settings)
}

// Setting returns the current settings instance, loading it on first use.
func Setting() *Settings {
	settingsOnce.Do(func() {
		settingsMutex.RLock()
		loaded := settingsInstance != nil
		settingsMutex.RUnlock()
		if !loaded {
			if _, err := Load(); err != nil {
				log.Fatalf("error loading settings: %v", err)
			}
		}
	})
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SetTestSettings replaces the singleton, for tests only.
func SetTestSettings(settings *Settings) {
	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()
	settingsOnce.Do(func() {})
}

// SaveYAMLConfig writes the settings as YAML to the given path.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing YAML config: %w", err)
	}
	return nil
}

// GetDefaultConfigPaths returns the list of directories searched for the
// config file, most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}
	return []string{
		filepath.Join(homeDir, ".config", "meshlock"),
		".",
	}, nil
}

// GetBasePath expands the given directory relative to the working
// directory and ensures it exists.
func GetBasePath(path string) string {
	if path == "" {
		path = "."
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		log.Printf("failed to create directory %s: %v", path, err)
	}
	return path
}
