package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentlabs/internal/config"
	"github.com/ShayCichocki/agentlabs/internal/console"
	"github.com/ShayCichocki/agentlabs/internal/state"
)

var logsLimit int

var logsCmd = &cobra.Command{
	Use:   "logs <trader>",
	Short: "Show recent trace logs and the account for a trader",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if flagDBPath != "" {
			cfg.Trading.DBPath = flagDBPath
		}
		db, err := state.OpenAndMigrate(cfg.Trading.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		name := strings.ToLower(args[0])
		w := cmd.OutOrStdout()

		if acct, err := db.GetAccount(name); err == nil {
			console.Statusf(w, "💰", color.FgGreen, "%s: balance %.2f, holdings %v, %d cycles", acct.Name, acct.Balance, acct.Holdings, acct.Cycles)
		}

		entries, err := db.RecentLogs(name, logsLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(w, "No logs for %s.\n", name)
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s  %-8s %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Type, e.Message)
		}

		txs, err := db.ListTransactions(name, 5)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			console.Statusf(w, "↔", color.FgCyan, "%s %d %s @ %.2f: %s", tx.Side, tx.Quantity, tx.Symbol, tx.Price, tx.Rationale)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 30, "Number of log lines")
}
