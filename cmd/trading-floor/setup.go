package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ShayCichocki/agentlabs/internal/api"
	"github.com/ShayCichocki/agentlabs/internal/config"
	"github.com/ShayCichocki/agentlabs/internal/state"
	"github.com/ShayCichocki/agentlabs/internal/trading"
)

// environment holds what every trader on this process shares.
type environment struct {
	cfg     *config.Config
	db      *state.DB
	client  *api.Client
	signals *api.Signals
}

// setup loads .env and configuration, opens the state database, registers
// the log tracer and creates the model client.
func setup() (*environment, error) {
	if err := config.LoadDotEnv(flagEnvFile, true); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagDBPath != "" {
		cfg.Trading.DBPath = flagDBPath
	}

	db, err := state.OpenAndMigrate(cfg.Trading.DBPath)
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, db: db}

	trading.AddTraceProcessor(trading.NewLogTracer(db))

	if err := config.RequireCredentials(cfg); err != nil {
		env.close()
		return nil, err
	}
	key, _ := config.GetAPIKey(cfg)
	env.client, err = api.NewClient(api.ClientConfig{
		Model:         cfg.Trading.Model,
		APIKey:        key,
		UseAWSBedrock: cfg.Bedrock.Enabled,
		AWSRegion:     cfg.Bedrock.Region,
		AWSProfile:    cfg.Bedrock.Profile,
	})
	if err != nil {
		env.close()
		return nil, fmt.Errorf("create API client: %w", err)
	}

	if cwd, err := os.Getwd(); err == nil {
		if s, err := api.NewSignals(api.SignalsDir(cwd)); err == nil {
			env.signals = s
		} else {
			log.Printf("[trader] stop signals disabled: %v", err)
		}
	}
	return env, nil
}

func (e *environment) newTrader(name, lastname, model string) (*trading.Trader, error) {
	return trading.NewTrader(name, lastname, model, trading.TraderDeps{
		Client:   e.client,
		Accounts: e.db,
		Prices:   trading.RandomPrices{},
		Account: trading.AccountOptions{
			InitialBalance: e.cfg.Trading.InitialBalance,
			Spread:         e.cfg.Trading.Spread,
		},
		Signals:  e.signals,
		MaxTurns: e.cfg.Trading.MaxTurns,
	})
}

func (e *environment) close() {
	if e.signals != nil {
		e.signals.Close()
	}
	if e.db != nil {
		e.db.Close()
	}
}
