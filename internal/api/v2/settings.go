package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/meshlock/meshlock-go/internal/conf"
)

// initSettingsRoutes registers the configuration endpoints
func (c *Controller) initSettingsRoutes() {
	c.Group.GET("/settings/overlay", c.GetOverlaySettings)
	c.Group.PATCH("/settings/overlay", c.UpdateOverlaySettings)
}

// OverlayPatch carries a partial overlay settings update. Pointer fields
// distinguish "absent" from zero values.
type OverlayPatch struct {
	Show           *bool      `json:"show,omitempty"`
	BaseColor      *conf.RGBA `json:"base_color,omitempty"`
	HighlightColor *conf.RGBA `json:"highlight_color,omitempty"`
	PointSize      *float64   `json:"point_size,omitempty"`
	LineWidth      *float64   `json:"line_width,omitempty"`
}

// GetOverlaySettings returns the current overlay configuration.
func (c *Controller) GetOverlaySettings(ctx echo.Context) error {
	c.settingsMutex.RLock()
	defer c.settingsMutex.RUnlock()
	return ctx.JSON(http.StatusOK, c.Settings.Overlay)
}

// UpdateOverlaySettings applies a partial update. Values outside the
// allowed ranges are clamped, never rejected, so a bad client cannot
// wedge the overlay. Changing overlay settings never touches lock state.
func (c *Controller) UpdateOverlaySettings(ctx echo.Context) error {
	var patch OverlayPatch
	if err := ctx.Bind(&patch); err != nil {
		return c.HandleError(ctx, err, "Invalid overlay settings payload", http.StatusBadRequest)
	}

	c.settingsMutex.Lock()
	ov := &c.Settings.Overlay
	if patch.Show != nil {
		ov.Show = *patch.Show
	}
	if patch.BaseColor != nil {
		ov.BaseColor = *patch.BaseColor
	}
	if patch.HighlightColor != nil {
		ov.HighlightColor = *patch.HighlightColor
	}
	if patch.PointSize != nil {
		ov.PointSize = *patch.PointSize
	}
	if patch.LineWidth != nil {
		ov.LineWidth = *patch.LineWidth
	}
	*ov = conf.ClampOverlay(*ov)
	updated := *ov
	c.settingsMutex.Unlock()

	if !c.DisableSaveSettings {
		if err := c.saveSettings(); err != nil {
			c.apiLogger.Error("failed to persist settings", "error", err)
		}
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (c *Controller) saveSettings() error {
	paths, err := conf.GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	configPath := filepath.Join(paths[0], "config.yaml")
	if err := os.MkdirAll(paths[0], 0o755); err != nil {
		return err
	}
	c.settingsMutex.RLock()
	defer c.settingsMutex.RUnlock()
	return conf.SaveYAMLConfig(configPath, c.Settings)
}
