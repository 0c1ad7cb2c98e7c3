package conf

import "github.com/spf13/viper"

// setDefaultConfig registers the default value for every setting with
// viper. The overlay colors match the editor defaults: red-ish base for
// locked elements, yellow highlight for locked elements in the current
// selection.
func setDefaultConfig() {
	// Main settings
	viper.SetDefault("main.name", "meshlock")
	viper.SetDefault("main.debug", false)
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "meshlock.log")
	viper.SetDefault("main.log.rotation", string(RotationDaily))
	viper.SetDefault("main.log.maxsize", 1048576)

	// Overlay settings
	viper.SetDefault("overlay.show", true)
	viper.SetDefault("overlay.basecolor.r", 1.0)
	viper.SetDefault("overlay.basecolor.g", 0.3)
	viper.SetDefault("overlay.basecolor.b", 0.3)
	viper.SetDefault("overlay.basecolor.a", 0.9)
	viper.SetDefault("overlay.highlightcolor.r", 1.0)
	viper.SetDefault("overlay.highlightcolor.g", 1.0)
	viper.SetDefault("overlay.highlightcolor.b", 0.0)
	viper.SetDefault("overlay.highlightcolor.a", 1.0)
	viper.SetDefault("overlay.pointsize", 8.0)
	viper.SetDefault("overlay.linewidth", 3.0)

	// Datastore settings
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "meshlock.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "meshlock")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "meshlock")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	// Web server settings
	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)
}

// DefaultOverlaySettings returns the overlay defaults without going
// through viper, for callers that need a standalone value.
func DefaultOverlaySettings() OverlaySettings {
	return OverlaySettings{
		Show:           true,
		BaseColor:      RGBA{R: 1.0, G: 0.3, B: 0.3, A: 0.9},
		HighlightColor: RGBA{R: 1.0, G: 1.0, B: 0.0, A: 1.0},
		PointSize:      8.0,
		LineWidth:      3.0,
	}
}
