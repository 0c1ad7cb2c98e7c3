package conf

import (
	"errors"
	"fmt"
)

// Overlay size limits, matching the editor's property ranges.
const (
	MinPointSize = 1.0
	MaxPointSize = 20.0
	MinLineWidth = 1.0
	MaxLineWidth = 10.0
)

// ValidateSettings checks the settings for internal consistency and
// clamps overlay values into their allowed ranges.
func ValidateSettings(settings *Settings) error {
	var errs []error

	if settings.Main.Name == "" {
		errs = append(errs, errors.New("main.name must not be empty"))
	}

	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		errs = append(errs, errors.New("only one datastore backend may be enabled"))
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		errs = append(errs, errors.New("output.sqlite.path must be set when SQLite is enabled"))
	}
	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Database == "" || settings.Output.MySQL.Host == "" {
			errs = append(errs, errors.New("output.mysql requires database and host"))
		}
	}

	settings.Overlay = ClampOverlay(settings.Overlay)

	if len(errs) > 0 {
		return fmt.Errorf("settings validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// ClampOverlay returns the overlay settings with sizes and color
// components forced into their valid ranges.
func ClampOverlay(o OverlaySettings) OverlaySettings {
	o.PointSize = clamp(o.PointSize, MinPointSize, MaxPointSize)
	o.LineWidth = clamp(o.LineWidth, MinLineWidth, MaxLineWidth)
	o.BaseColor = clampColor(o.BaseColor)
	o.HighlightColor = clampColor(o.HighlightColor)
	return o
}

func clampColor(c RGBA) RGBA {
	return RGBA{
		R: clamp(c.R, 0, 1),
		G: clamp(c.G, 0, 1),
		B: clamp(c.B, 0, 1),
		A: clamp(c.A, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
