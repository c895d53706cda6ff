package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the settings read from a .smogrc.yaml file. Any field
// left unset in the file keeps its default.
type Config struct {
	StackSize    int  `yaml:"stack_size"`
	MaxCallDepth int  `yaml:"max_call_depth"`
	DebugOnStart bool `yaml:"debug_on_start"`
}

// defaultConfig returns the settings used when no config file is
// present or a field is omitted from one.
func defaultConfig() Config {
	return Config{
		StackSize:    4096,
		MaxCallDepth: 1000,
		DebugOnStart: false,
	}
}

// loadConfig reads path as YAML and overlays it onto defaultConfig. A
// missing file is not an error - it just means the defaults apply.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
