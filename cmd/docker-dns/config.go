package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is the fully resolved serve configuration: YAML file values with
// command-line flags layered on top.
type Config struct {
	Listen      string   `yaml:"listen"`
	Domain      string   `yaml:"domain"`
	Network     string   `yaml:"network"`
	Resolvers   []string `yaml:"resolvers"`
	Records     []string `yaml:"records"`
	MetricsAddr string   `yaml:"metrics_addr"`
	LogLevel    string   `yaml:"log_level"`
	LogJSON     bool     `yaml:"log_json"`
}

// resolveConfig merges the optional YAML config file with flags. A flag the
// operator set explicitly always wins over the file value.
func resolveConfig(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{}

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	applyString := func(flag string, dst *string) {
		if cmd.Flags().Changed(flag) || *dst == "" {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
	applyString("listen", &cfg.Listen)
	applyString("domain", &cfg.Domain)
	applyString("network", &cfg.Network)
	applyString("metrics-addr", &cfg.MetricsAddr)
	applyString("log-level", &cfg.LogLevel)

	if cmd.Flags().Changed("resolver") || len(cfg.Resolvers) == 0 {
		cfg.Resolvers, _ = cmd.Flags().GetStringSlice("resolver")
	}
	if cmd.Flags().Changed("record") || len(cfg.Records) == 0 {
		cfg.Records, _ = cmd.Flags().GetStringSlice("record")
	}
	if cmd.Flags().Changed("log-json") || !cfg.LogJSON {
		cfg.LogJSON, _ = cmd.Flags().GetBool("log-json")
	}

	return cfg, nil
}
