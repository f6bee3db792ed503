package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentlabs/internal/api"
	"github.com/ShayCichocki/agentlabs/internal/config"
	"github.com/ShayCichocki/agentlabs/internal/console"
	"github.com/ShayCichocki/agentlabs/internal/trading"
)

// errReported marks failures already printed to the console.
var errReported = errors.New("trading cycle failed")

var (
	flagEnvFile       string
	flagDBPath        string
	flagName          string
	flagLastname      string
	flagModel         string
	flagRunWhenClosed bool
)

var rootCmd = &cobra.Command{
	Use:   "trading-floor",
	Short: "Run one trading cycle for a single simulated trader",
	Long: `Loads .env (overriding existing variables), registers the log tracer,
creates trader Warren Patience and runs a single trading cycle against a
simulated account. By default the cycle runs even when the market is closed.

Accounts, transactions and trace logs are stored in the state database.
Create .agentlabs/signals/kill to stop a cycle between model calls.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		console.Status(w, "🧪", "Testing Lab 3 Trading System", color.FgCyan)
		if err := runSingle(cmd, w); err != nil {
			return err
		}
		console.Status(w, "🎉", "Test completed!", color.FgGreen)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", config.DefaultDotEnvPath, "Path to the .env file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the state database (default from config)")

	rootCmd.Flags().StringVar(&flagName, "name", "Warren", "Trader first name (also the account name)")
	rootCmd.Flags().StringVar(&flagLastname, "lastname", "Patience", "Trader last name")
	rootCmd.Flags().StringVar(&flagModel, "model", "gpt-4o-mini", "Model the trader runs on")
	rootCmd.Flags().BoolVar(&flagRunWhenClosed, "run-when-closed", true, "Run the cycle even when the market is closed (default from config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(floorCmd)
	rootCmd.AddCommand(logsCmd)
}

func runSingle(cmd *cobra.Command, w io.Writer) error {
	trading.PrintStart(w)

	env, err := setup()
	if err != nil {
		return err
	}
	defer env.close()

	runWhenClosed := env.cfg.Trading.RunWhenClosed
	if cmd.Flags().Changed("run-when-closed") {
		runWhenClosed = flagRunWhenClosed
	}

	trader, err := env.newTrader(flagName, flagLastname, flagModel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()
	if env.cfg.Trading.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, env.cfg.Trading.CycleTimeout)
		defer cancel()
	}

	err = trading.RunSingleCycle(ctx, w, trader, time.Now, runWhenClosed)
	printUsage(w, env.client.Tracker())
	if err != nil {
		return fmt.Errorf("%w: %v", errReported, err)
	}
	return nil
}

func printUsage(w io.Writer, tracker *api.TokenTracker) {
	if tracker == nil || tracker.Calls() == 0 {
		return
	}
	console.Statusf(w, "📈", color.FgBlue, "Usage: %s", tracker.Summary())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
