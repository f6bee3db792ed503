package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured and Bedrock is off.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// KeySource represents where model credentials come from.
type KeySource string

const (
	KeySourceEnv     KeySource = "environment"
	KeySourceConfig  KeySource = "config_file"
	KeySourceBedrock KeySource = "aws_bedrock"
	KeySourceNone    KeySource = "none"
)

// GetAPIKey returns the Anthropic API key, preferring the environment over
// the config file. Unexpanded ${VAR} references count as unset.
func GetAPIKey(cfg *Config) (string, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, nil
	}
	if key := configKey(cfg); key != "" {
		return key, nil
	}
	return "", ErrNoAPIKey
}

// GetAPIKeySource reports where credentials will be taken from.
func GetAPIKeySource(cfg *Config) KeySource {
	switch {
	case cfg != nil && cfg.Bedrock.Enabled:
		return KeySourceBedrock
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		return KeySourceEnv
	case configKey(cfg) != "":
		return KeySourceConfig
	default:
		return KeySourceNone
	}
}

// RequireCredentials fails fast when neither an API key nor Bedrock is configured.
func RequireCredentials(cfg *Config) error {
	if GetAPIKeySource(cfg) == KeySourceNone {
		return ErrNoAPIKey
	}
	return nil
}

// MaskAPIKey returns a display-safe version of key: the sk-ant- prefix and
// the last four characters.
func MaskAPIKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 15:
		return "***"
	default:
		return key[:7] + "..." + key[len(key)-4:]
	}
}

// CredentialSummary describes the credentials in use without revealing them,
// e.g. "environment (sk-ant-...abcd)" or "aws_bedrock (us-west-2)".
func CredentialSummary(cfg *Config) string {
	source := GetAPIKeySource(cfg)
	switch source {
	case KeySourceBedrock:
		return fmt.Sprintf("%s (%s)", source, cfg.Bedrock.Region)
	case KeySourceNone:
		return string(source)
	}
	key, _ := GetAPIKey(cfg)
	return fmt.Sprintf("%s (%s)", source, MaskAPIKey(key))
}

func configKey(cfg *Config) string {
	if cfg == nil || cfg.Anthropic.APIKey == "" {
		return ""
	}
	key := os.ExpandEnv(cfg.Anthropic.APIKey)
	if strings.HasPrefix(key, "${") {
		return ""
	}
	return key
}
