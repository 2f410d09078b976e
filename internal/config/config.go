// Package config loads and watches the bot configuration.
//
// Values come from an optional YAML file overridden by RANTBOT_* environment
// variables. The file is watched after startup; subscribers receive the
// re-loaded config (currently only the logging level is applied live).
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"github.com/samber/oops"
)

type Config struct {
	Discord  DiscordConfig  `koanf:"discord"`
	Corpus   CorpusConfig   `koanf:"corpus"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Logging  LoggingConfig  `koanf:"logging"`
	History  HistoryConfig  `koanf:"history"`
}

type DiscordConfig struct {
	Token  string `koanf:"token"`
	Prefix string `koanf:"prefix"`
}

type CorpusConfig struct {
	Path string `koanf:"path"`
}

type ScheduleConfig struct {
	// Cron is a six-field (seconds-resolution) cron expression.
	Cron string `koanf:"cron"`
	// Timezone is an IANA zone name, fixed for the process lifetime.
	Timezone string `koanf:"timezone"`
}

type LoggingConfig struct {
	Level   string      `koanf:"level"`
	Console bool        `koanf:"console"`
	File    LoggingFile `koanf:"file"`
}

type LoggingFile struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

const (
	// DefaultCron fires the daily rant at 07:00:00.
	DefaultCron     = "0 0 7 * * *"
	DefaultTimezone = "Europe/London"
	DefaultPrefix   = "!"

	envPrefix = "RANTBOT_"
)

// Load reads the config file at path (a missing file is fine: defaults and
// env apply) and overlays RANTBOT_* environment variables, e.g.
// RANTBOT_DISCORD_TOKEN -> discord.token.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if strings.TrimSpace(path) != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, oops.With("config_file", path).Wrap(err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	applyDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"discord.prefix":    DefaultPrefix,
		"corpus.path":       "./rants.yaml",
		"schedule.cron":     DefaultCron,
		"schedule.timezone": DefaultTimezone,
		"logging.level":     "info",
		"logging.console":   true,
		"history.path":      "./data/rantbot.db",
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			_ = k.Set(key, val)
		}
	}
}

// Validate rejects configs the services would choke on later. The cron
// expression is checked with the same strict six-field parser the scheduler
// uses, so a bad file fails at startup rather than at first fire.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Discord.Token) == "" {
		return oops.Errorf("discord.token is required (or set RANTBOT_DISCORD_TOKEN)")
	}
	if strings.TrimSpace(c.Corpus.Path) == "" {
		return oops.Errorf("corpus.path is required")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return oops.With("timezone", c.Schedule.Timezone).Wrap(err)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(c.Schedule.Cron); err != nil {
		return oops.With("cron", c.Schedule.Cron).Wrap(err)
	}
	return nil
}
