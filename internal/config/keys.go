package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "results.dir", typ: kString, env: "SNAKEBITE_RESULTS_DIR",
		apply:   func(cfg *Config, v any) { cfg.Results.Dir = v.(string) },
		extract: func(cfg Config) any { return cfg.Results.Dir },
	},
	{
		key: "results.public_dir", typ: kString, env: "SNAKEBITE_PUBLIC_DIR",
		apply:   func(cfg *Config, v any) { cfg.Results.PublicDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Results.PublicDir },
	},
	{
		key: "server.port", typ: kInt, env: "SNAKEBITE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SNAKEBITE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "validate.jobs", typ: kInt, env: "SNAKEBITE_VALIDATE_JOBS",
		apply:   func(cfg *Config, v any) { cfg.Validate.Jobs = v.(int) },
		extract: func(cfg Config) any { return cfg.Validate.Jobs },
	},
	{
		key: "log.level", typ: kString, env: "SNAKEBITE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
