package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	return &Settings{
		Main: MainSettings{Name: "meshlock"},
		Output: OutputSettings{
			SQLite: SQLiteSettings{Enabled: true, Path: "meshlock.db"},
		},
		Overlay:   DefaultOverlaySettings(),
		WebServer: WebServerSettings{Enabled: true, Port: "8080"},
	}
}

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejectsDualBackends(t *testing.T) {
	s := validSettings()
	s.Output.MySQL.Enabled = true
	s.Output.MySQL.Database = "meshlock"
	s.Output.MySQL.Host = "localhost"

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one datastore backend")
}

func TestValidateSettingsRejectsEmptyName(t *testing.T) {
	s := validSettings()
	s.Main.Name = ""
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsRejectsSQLiteWithoutPath(t *testing.T) {
	s := validSettings()
	s.Output.SQLite.Path = ""
	assert.Error(t, ValidateSettings(s))
}

func TestClampOverlayForcesRanges(t *testing.T) {
	o := OverlaySettings{
		Show:           true,
		BaseColor:      RGBA{R: 2, G: -1, B: 0.5, A: 1.5},
		HighlightColor: RGBA{R: 0.2, G: 0.4, B: 0.6, A: 0.8},
		PointSize:      50,
		LineWidth:      0.1,
	}

	clamped := ClampOverlay(o)

	assert.InDelta(t, MaxPointSize, clamped.PointSize, 1e-9)
	assert.InDelta(t, MinLineWidth, clamped.LineWidth, 1e-9)
	assert.InDelta(t, 1.0, clamped.BaseColor.R, 1e-9)
	assert.InDelta(t, 0.0, clamped.BaseColor.G, 1e-9)
	assert.InDelta(t, 1.0, clamped.BaseColor.A, 1e-9)
	// In-range values pass through untouched.
	assert.Equal(t, o.HighlightColor, clamped.HighlightColor)
}

func TestValidateSettingsClampsOverlayInPlace(t *testing.T) {
	s := validSettings()
	s.Overlay.PointSize = 0

	require.NoError(t, ValidateSettings(s))
	assert.InDelta(t, MinPointSize, s.Overlay.PointSize, 1e-9)
}
