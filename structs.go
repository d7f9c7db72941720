package main

var appversion = "0.3.0"

// Report formats accepted by --output.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// config is the merged view of flags and DISKLABELS_* environment variables.
type config struct {
	Output     string `mapstructure:"output"`
	Jobs       int    `mapstructure:"jobs"`
	Diskutil   string `mapstructure:"diskutil"`
	VolumesDir string `mapstructure:"volumes-dir"`
	PrebootDir string `mapstructure:"preboot-dir"`
	LogLevel   string `mapstructure:"log-level"`
	NoProgress bool   `mapstructure:"no-progress"`
}
