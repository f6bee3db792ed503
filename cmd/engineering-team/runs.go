package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentlabs/internal/config"
	"github.com/ShayCichocki/agentlabs/internal/console"
	"github.com/ShayCichocki/agentlabs/internal/state"
	"github.com/ShayCichocki/agentlabs/pkg/models"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List recorded kickoffs, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := state.OpenAndMigrate(cfg.Trading.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		w := cmd.OutOrStdout()
		if len(args) == 1 {
			run, err := db.GetCrewRun(args[0])
			if err != nil {
				return err
			}
			printRun(cmd, run)
			if run.Result != "" {
				fmt.Fprintf(w, "\n%s\n", run.Result)
			}
			if run.Error != "" {
				console.Fail(w, "❌", run.Error)
			}
			return nil
		}

		runs, err := db.ListCrewRuns(runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return nil
		}
		for i := range runs {
			printRun(cmd, &runs[i])
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to list")
}

func printRun(cmd *cobra.Command, run *models.CrewRun) {
	symbol, attr := "…", color.FgYellow
	switch run.Status {
	case models.CrewRunSucceeded:
		symbol, attr = "✓", color.FgGreen
	case models.CrewRunFailed:
		symbol, attr = "✗", color.FgRed
	}

	duration := "running"
	if run.CompletedAt != nil {
		duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Second).String()
	}

	var inputs []string
	if m := run.Inputs["module_name"]; m != "" {
		inputs = append(inputs, "module="+m)
	}
	console.Status(cmd.OutOrStdout(), symbol, fmt.Sprintf("%s  %s  %s  %s  %d tokens  %s",
		run.ID, run.Crew, run.StartedAt.Local().Format("2006-01-02 15:04"), duration, run.TokensUsed,
		strings.Join(inputs, " ")), attr)
}
