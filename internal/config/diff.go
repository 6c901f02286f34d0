package config

// ConfigDiff describes what changed between two configs. Only fields that
// can be applied without restarting the engine are tracked; provider and
// backend changes require a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	VoiceChanged bool
	NewVoice     VoiceConfig

	SessionChanged bool
	NewSession     SessionConfig
}

// Diff compares old and new configs and returns the hot-reloadable changes.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Voice != new.Voice {
		d.VoiceChanged = true
		d.NewVoice = new.Voice
	}
	if old.Session != new.Session {
		d.SessionChanged = true
		d.NewSession = new.Session
	}
	return d
}
