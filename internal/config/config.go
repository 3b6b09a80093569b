package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/winevalue-cli/internal/describe"
	"github.com/KaramelBytes/winevalue-cli/internal/factor"
)

// Global configuration structure.
type Global struct {
	DataPath string `mapstructure:"data_path" yaml:"data_path"`
	TopN     int    `mapstructure:"top_n" yaml:"top_n"`

	// Most-common filtering thresholds
	FilterAllBelow  int `mapstructure:"filter_all_below" yaml:"filter_all_below"`
	FilterMinCount  int `mapstructure:"filter_min_count" yaml:"filter_min_count"`
	FilterMaxValues int `mapstructure:"filter_max_values" yaml:"filter_max_values"`

	VocabSize int `mapstructure:"vocab_size" yaml:"vocab_size"`

	// Chart artifacts for categorical rankings
	ChartDir  string `mapstructure:"chart_dir" yaml:"chart_dir"`
	ShowChart bool   `mapstructure:"show_chart" yaml:"show_chart"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Policy returns the factor filtering thresholds.
func (c *Global) Policy() factor.Policy {
	return factor.Policy{
		AllValuesBelow: c.FilterAllBelow,
		MinCount:       c.FilterMinCount,
		MaxValues:      c.FilterMaxValues,
	}
}

// DescribeOptions returns the description model settings.
func (c *Global) DescribeOptions() describe.Options {
	return describe.Options{VocabSize: c.VocabSize}
}

// Validate rejects settings the models cannot run with.
func (c *Global) Validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	if c.FilterMaxValues <= 0 {
		return fmt.Errorf("filter_max_values must be positive, got %d", c.FilterMaxValues)
	}
	if c.FilterMinCount < 0 || c.FilterAllBelow < 0 {
		return fmt.Errorf("filter thresholds must not be negative")
	}
	if c.VocabSize <= 0 {
		return fmt.Errorf("vocab_size must be positive, got %d", c.VocabSize)
	}
	return nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".winevalue"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.winevalue/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile or ~/.winevalue/config.yaml) > defaults.
// A .env file in the working directory is loaded into the environment first.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("WINEVALUE")
	v.AutomaticEnv()

	v.SetDefault("data_path", "winemag-data-130k-v2.csv")
	v.SetDefault("top_n", 5)
	v.SetDefault("filter_all_below", factor.DefaultAllValuesBelow)
	v.SetDefault("filter_min_count", factor.DefaultMinCount)
	v.SetDefault("filter_max_values", factor.DefaultMaxValues)
	v.SetDefault("vocab_size", describe.DefaultVocabSize)
	v.SetDefault("chart_dir", "")
	v.SetDefault("show_chart", false)
	v.SetDefault("log_level", "warn")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}
