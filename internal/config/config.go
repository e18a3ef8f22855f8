package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Results  ResultsConfig
	Server   ServerConfig
	Storage  StorageConfig
	Validate ValidateConfig
	Log      LogConfig
}

type ResultsConfig struct {
	Dir       string // root of submitted .jsonl files
	PublicDir string // generated summary artifacts
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type ValidateConfig struct {
	Jobs int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Results: ResultsConfig{
			Dir:       "results",
			PublicDir: "public",
		},
		Server: ServerConfig{
			Port: 4600,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Validate: ValidateConfig{
			Jobs: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "snakebite-data"
		}
	}
	return filepath.Join(dir, "snakebite")
}

// Load reads configuration from the config file backend
// ($XDG_CONFIG_HOME/snakebite/config.json), then applies SNAKEBITE_*
// environment overrides on top of the compiled-in defaults.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
