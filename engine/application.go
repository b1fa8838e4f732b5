package engine

type ApplicationConfig struct {
	// The application name used in logs.
	Name string
	// Path of the TOML configuration file, if any.
	ConfigPath string
	// Scene switched to once the engine is initialized. Overrides scenes.start.
	StartScene string
	// Show the loading bar while the start scene loads.
	ShowProgress bool
	// Overrides log.level when set.
	LogLevel string
	// Interval between two engine updates. Defaults to 1/60s.
	TickRate float64
}
