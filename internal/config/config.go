// Package config handles configuration loading and management for agentlabs.
// It supports XDG config paths, project-level overrides, .env files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the lab binaries.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Bedrock   BedrockConfig   `mapstructure:"bedrock"`
	Crew      CrewConfig      `mapstructure:"crew"`
	Trading   TradingConfig   `mapstructure:"trading"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// Model is the default model or alias (haiku, sonnet, opus).
	Model string `mapstructure:"model"`
}

// BedrockConfig routes model calls through AWS Bedrock instead of the direct API.
type BedrockConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// CrewConfig holds settings for crew runs.
type CrewConfig struct {
	// AgentsConfig is the path to agents.yaml. A missing file uses the built-in definitions.
	AgentsConfig string `mapstructure:"agents_config"`
	// TasksConfig is the path to tasks.yaml. A missing file uses the built-in definitions.
	TasksConfig string `mapstructure:"tasks_config"`
	// OutputDir is where task output files are written.
	OutputDir string `mapstructure:"output_dir"`
	// MaxIterations caps model round-trips per task.
	MaxIterations int `mapstructure:"max_iterations"`
	// Timeout bounds a whole kickoff.
	Timeout time.Duration `mapstructure:"timeout"`
}

// TradingConfig holds settings for the trading floor.
type TradingConfig struct {
	DBPath         string        `mapstructure:"db_path"`
	Model          string        `mapstructure:"model"`
	InitialBalance float64       `mapstructure:"initial_balance"`
	Spread         float64       `mapstructure:"spread"`
	MaxTurns       int           `mapstructure:"max_turns"`
	RunWhenClosed  bool          `mapstructure:"run_when_closed"`
	CycleTimeout   time.Duration `mapstructure:"cycle_timeout"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, AGENTLABS_*)
// 2. Project config (.agentlabs.yaml in current directory or parent)
// 3. User config (~/.config/agentlabs/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// bindEnv maps well-known environment variables onto config keys.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("agentlabs")
	v.AutomaticEnv()

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "AGENTLABS_MODEL")
	v.BindEnv("bedrock.enabled", "AGENTLABS_USE_BEDROCK")
	v.BindEnv("bedrock.region", "AWS_REGION")
	v.BindEnv("bedrock.profile", "AWS_PROFILE")
	v.BindEnv("trading.model", "AGENTLABS_TRADER_MODEL")
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "sonnet")

	v.SetDefault("bedrock.enabled", false)
	v.SetDefault("bedrock.region", "us-west-2")
	v.SetDefault("bedrock.profile", "")

	v.SetDefault("crew.agents_config", filepath.Join("config", "agents.yaml"))
	v.SetDefault("crew.tasks_config", filepath.Join("config", "tasks.yaml"))
	v.SetDefault("crew.output_dir", "output")
	v.SetDefault("crew.max_iterations", 25)
	v.SetDefault("crew.timeout", "20m")

	v.SetDefault("trading.db_path", filepath.Join(".agentlabs", "accounts.db"))
	v.SetDefault("trading.model", "haiku")
	v.SetDefault("trading.initial_balance", 10000.0)
	v.SetDefault("trading.spread", 0.002)
	v.SetDefault("trading.max_turns", 30)
	v.SetDefault("trading.run_when_closed", true)
	v.SetDefault("trading.cycle_timeout", "10m")
}

// getUserConfigDir returns the XDG config directory for agentlabs.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "agentlabs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "agentlabs")
	}
	return filepath.Join(home, ".config", "agentlabs")
}

// findProjectConfig searches for .agentlabs.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".agentlabs.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model: "sonnet",
		},
		Bedrock: BedrockConfig{
			Region: "us-west-2",
		},
		Crew: CrewConfig{
			AgentsConfig:  filepath.Join("config", "agents.yaml"),
			TasksConfig:   filepath.Join("config", "tasks.yaml"),
			OutputDir:     "output",
			MaxIterations: 25,
			Timeout:       20 * time.Minute,
		},
		Trading: TradingConfig{
			DBPath:         filepath.Join(".agentlabs", "accounts.db"),
			Model:          "haiku",
			InitialBalance: 10000,
			Spread:         0.002,
			MaxTurns:       30,
			RunWhenClosed:  true,
			CycleTimeout:   10 * time.Minute,
		},
	}
}
