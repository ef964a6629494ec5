package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

type config struct {
	Precision      uint              `yaml:"precision" toml:"precision"`
	Number         string            `yaml:"number" toml:"number"`
	RecursionLimit int               `yaml:"recursion_limit" toml:"recursion_limit"`
	Given          map[string]string `yaml:"given" toml:"given"`
	Logging        loggerConfig      `yaml:"logging" toml:"logging"`
}

type loggerConfig struct {
	LogToFile       bool   `yaml:"log_to_file" toml:"log_to_file"`
	Filename        string `yaml:"filename" toml:"filename"`
	MaxSize         int    `yaml:"max_size" toml:"max_size"`
	MaxAge          int    `yaml:"max_age" toml:"max_age"`
	MaxBackups      int    `yaml:"max_backups" toml:"max_backups"`
	LogLevel        string `yaml:"log_level" toml:"log_level"`
	IncludeSrc      bool   `yaml:"include_src" toml:"include_src"`
	CompressOldLogs bool   `yaml:"compress_old_logs" toml:"compress_old_logs"`
}

func defaultConfig() config {
	return config{
		Number:  "float",
		Logging: loggerConfig{LogLevel: "warn"},
	}
}

// readConfig loads a YAML or TOML config file, chosen by its extension.
func readConfig(name string) (config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return config{}, err
	}
	return parseConfig(data, filepath.Ext(name))
}

func parseConfig(data []byte, ext string) (config, error) {
	conf := defaultConfig()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, &conf); err != nil {
			return config{}, err
		}
	case ".toml":
		md, err := toml.Decode(string(data), &conf)
		if err != nil {
			return config{}, err
		}
		if keys := md.Undecoded(); len(keys) != 0 {
			return config{}, fmt.Errorf("unknown config keys %v", keys)
		}
	default:
		return config{}, fmt.Errorf("unknown config file type %q", ext)
	}
	return conf, nil
}
