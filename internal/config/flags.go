package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile = flag.String("log-file", "", "Write logs to a rotating file")
	flagJSONLog = flag.Bool("json-log", false, "Write the log file as JSON lines")
	flagDedup   = flag.Bool("dedup", false, "Merge vertices with identical coordinates")
	flagFormat  = flag.String("format", "", "Output format for paths without an extension")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagJSONLog {
		cfg.Logging.JSON = true
	}
	if *flagDedup {
		cfg.Load.Dedup = true
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
}
