package config

import "flag"

var (
	flagConfig       = flag.String("config", "", "Path to config file (default: ./"+DefaultConfigFile+" if present)")
	flagSaveConfig   = flag.String("save-config", "", "Write the effective config to this path")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile      = flag.String("log", "", "Also write the log to this file")
	flagScale        = flag.Float64("scale", 0, "Scale factor (0: keep config)")
	flagWebP         = flag.Bool("webp", false, "Encode textures as WebP (EXT_texture_webp)")
	flagUniqueNames  = flag.Bool("unique-names", false, "Make all node names unique")
	flagSkipBoneTest = flag.Bool("skip-bone-validation", false, "Write the file even if required humanoid bones are missing")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// SaveConfigPath returns the -save-config path.
func SaveConfigPath() string {
	return *flagSaveConfig
}

func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagScale > 0 {
		cfg.Conversion.Scale = float32(*flagScale)
	}
	if *flagWebP {
		cfg.Conversion.Image.Format = "webp"
	}
	if *flagUniqueNames {
		v := true
		cfg.Conversion.UniqueNodeNames = &v
	}
	if *flagSkipBoneTest {
		cfg.Conversion.SkipBoneValidation = true
	}
}
