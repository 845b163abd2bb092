package main

import (
	"strings"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/logger"
	"github.com/autom8ter/livequery/util"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "LIVEQUERY"

// Config configures the livequery commands. Values are read from flags, LIVEQUERY_ prefixed
// environment variables and an optional config file, in that order of precedence.
type Config struct {
	Addr        string  `mapstructure:"addr" validate:"required"`
	Server      string  `mapstructure:"server"`
	Provider    string  `mapstructure:"provider" validate:"required"`
	StoragePath string  `mapstructure:"storage_path"`
	LogLevel    string  `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	RateLimit   float64 `mapstructure:"rate_limit" validate:"gte=0"`
	Burst       int     `mapstructure:"burst" validate:"gte=0"`
}

var flagKeys = map[string]string{
	"addr":         "addr",
	"server":       "server",
	"provider":     "provider",
	"storage-path": "storage_path",
	"log-level":    "log_level",
	"rate-limit":   "rate_limit",
	"burst":        "burst",
}

func loadConfig(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("provider", "badger")
	v.SetDefault("storage_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("rate_limit", 0)
	v.SetDefault("burst", 20)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for name, key := range flagKeys {
		if flag := lookupFlag(cmd, name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, errors.Wrap(err, errors.Internal, "failed to bind flag %s", name)
			}
		}
	}
	if flag := lookupFlag(cmd, "config"); flag != nil && flag.Value.String() != "" {
		file := flag.Value.String()
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, errors.Validation, "failed to read config file %s", file)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.Validation, "failed to decode config")
	}
	if err := util.ValidateStruct(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// lookupFlag finds a local or inherited flag
func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag
	}
	return cmd.InheritedFlags().Lookup(name)
}

func (c Config) logger() (logger.Logger, error) {
	return logger.New(c.LogLevel, map[string]any{"service": "livequery"})
}
