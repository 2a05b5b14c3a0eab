package config

import (
	"os"

	"codeberg.org/mutker/displayctl/internal/errors"
	"codeberg.org/mutker/displayctl/internal/refreshrate"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultInterval  = 2
	defaultModesFile = "/etc/displayctl/modes.yaml"
	defaultSocket    = "/run/displayctl.sock"
	defaultDBPath    = "/var/lib/displayctl/history.db"
	defaultStrategy  = "v1"
)

type Config struct {
	Interval    int     `mapstructure:"interval"`
	ModesFile   string  `mapstructure:"modes"`
	Socket      string  `mapstructure:"socket"`
	LogLevel    string  `mapstructure:"log_level"`
	Telemetry   bool    `mapstructure:"telemetry"`
	TelemetryDB string  `mapstructure:"database"`
	DefaultMode int     `mapstructure:"default_mode"`
	MinRate     float64 `mapstructure:"min_rate"`
	MaxRate     float64 `mapstructure:"max_rate"`
	Strategy    string  `mapstructure:"strategy"`
}

// Load reads configuration from /etc/displayctl.toml (or the file named
// by DISPLAYCTL_CONFIG), then applies command-line flag overrides.
func Load() (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet("displayctl", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Int("interval", defaultInterval, "Seconds between status updates")
	flags.String("modes", defaultModesFile, "Path to the display mode table")
	flags.String("socket", defaultSocket, "Path to the control socket")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.Bool("telemetry", false, "Record selection decisions to the history database")
	flags.String("database", defaultDBPath, "Path to the history database")
	flags.Int("default-mode", -1, "Policy default mode id (-1 keeps the boot mode)")
	flags.Float64("min-rate", 0, "Lowest refresh rate the policy permits")
	flags.Float64("max-rate", 0, "Highest refresh rate the policy permits (0 = unbounded)")
	flags.String("strategy", defaultStrategy, "Content selection strategy (v1, v2)")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("modes", defaultModesFile)
	v.SetDefault("socket", defaultSocket)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", defaultDBPath)
	v.SetDefault("default_mode", -1)
	v.SetDefault("min_rate", 0.0)
	v.SetDefault("max_rate", 0.0)
	v.SetDefault("strategy", defaultStrategy)

	if path := os.Getenv("DISPLAYCTL_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("displayctl")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Flags set on the command line override file values.
	flags.Visit(func(f *pflag.Flag) {
		key := f.Name
		switch key {
		case "log-level":
			key = "log_level"
		case "default-mode":
			key = "default_mode"
		case "min-rate":
			key = "min_rate"
		case "max-rate":
			key = "max_rate"
		}
		v.Set(key, f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if _, ok := refreshrate.ParseStrategy(c.Strategy); !ok {
		return errFactory.WithData(ErrInvalidStrategy, c.Strategy)
	}

	if c.MaxRate > 0 && c.MinRate > c.MaxRate {
		return errFactory.WithData(ErrInvalidRateWindow, c.MinRate)
	}

	return nil
}
