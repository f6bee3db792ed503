package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ShayCichocki/agentlabs/internal/api"
	"github.com/ShayCichocki/agentlabs/internal/config"
)

// newClient creates the model client from configuration.
func newClient(cfg *config.Config) (*api.Client, error) {
	if err := config.RequireCredentials(cfg); err != nil {
		return nil, err
	}
	key, _ := config.GetAPIKey(cfg)

	client, err := api.NewClient(api.ClientConfig{
		Model:         cfg.Anthropic.Model,
		APIKey:        key,
		UseAWSBedrock: cfg.Bedrock.Enabled,
		AWSRegion:     cfg.Bedrock.Region,
		AWSProfile:    cfg.Bedrock.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	return client, nil
}

// newSignals watches the project's signals directory. Stop signals are
// optional, so failures only disable them.
func newSignals() *api.Signals {
	cwd, err := os.Getwd()
	if err != nil {
		return nil
	}
	signals, err := api.NewSignals(api.SignalsDir(cwd))
	if err != nil {
		log.Printf("[engineering] stop signals disabled: %v", err)
		return nil
	}
	return signals
}
