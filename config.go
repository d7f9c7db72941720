package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"disklabels/internal/volumes"
)

const envPrefix = "DISKLABELS"

func addConfigFlags(flags *pflag.FlagSet) {
	flags.StringP("output", "o", outputTable, "Report format: table, json or yaml")
	flags.IntP("jobs", "j", 1, "Number of volumes inspected at once")
	flags.String("diskutil", volumes.DefaultDiskutil, "Path to the diskutil binary")
	flags.String("volumes-dir", volumes.DefaultVolumesDir, "Directory holding volume mount points")
	flags.String("preboot-dir", volumes.DefaultPrebootDir, "APFS Preboot volume mount point")
	flags.String("log-level", "warn", "Log level: trace, debug, info, warn, error")
	flags.Bool("no-progress", false, "Do not show the progress line")
}

// loadConfig resolves every flag against DISKLABELS_<FLAG> environment
// variables. An explicitly set flag wins over the environment.
func loadConfig(flags *pflag.FlagSet) (config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg config
	if err := v.BindPFlags(flags); err != nil {
		return cfg, errors.Wrap(err, "binding flags")
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decoding configuration")
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch c.Output {
	case outputTable, outputJSON, outputYAML:
	default:
		return errors.Errorf("unsupported output format %q", c.Output)
	}
	if c.Jobs < 1 {
		return errors.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if c.Diskutil == "" {
		return errors.New("diskutil path is empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "log level %q", c.LogLevel)
	}
	return nil
}
