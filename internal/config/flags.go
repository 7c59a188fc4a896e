package config

import "github.com/spf13/pflag"

// Overrides are command-line settings that win over the config file.
type Overrides struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	InputRPM   float64
	Fast       bool
}

// BindFlags registers the override flags on fs.
func (o *Overrides) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigPath, "config", "", "Path to config file (.yaml or .toml)")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.LogFile, "log-file", "", "Also log to this rotating file")
	fs.Float64Var(&o.InputRPM, "rpm", 0, "Input shaft speed")
	fs.BoolVar(&o.Fast, "fast", false, "Use the fast animation period")
}

// Apply writes the set overrides into cfg.
func (o Overrides) Apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.InputRPM > 0 {
		cfg.Animation.InputRPM = o.InputRPM
	}
	if o.Fast {
		cfg.Animation.InputPeriod = Duration(FastInputPeriod)
	}
}
