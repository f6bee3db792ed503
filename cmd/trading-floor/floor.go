package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentlabs/internal/trading"
)

var (
	floorTraders  []string
	floorInterval time.Duration
	floorOnce     bool
)

var floorCmd = &cobra.Command{
	Use:   "floor",
	Short: "Run several traders concurrently on a schedule",
	Long: `Runs every trader's cycle concurrently, then repeats after --interval
until interrupted. Cycles are skipped while the market is closed unless
trading.run_when_closed is set.

Traders are given as Name:Lastname:model, for example:
  trading-floor floor --trader Warren:Patience:haiku --trader George:Bold:sonnet`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := parseTraderFlags(floorTraders)
		if err != nil {
			return err
		}

		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		floor := &trading.Floor{
			Interval:      floorInterval,
			RunWhenClosed: env.cfg.Trading.RunWhenClosed,
			CycleTimeout:  env.cfg.Trading.CycleTimeout,
		}
		for _, s := range flags {
			tr, err := env.newTrader(s.name, s.lastname, s.model)
			if err != nil {
				return err
			}
			floor.Traders = append(floor.Traders, tr)
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()
		defer printUsage(cmd.OutOrStdout(), env.client.Tracker())

		if floorOnce {
			ran, err := floor.RunOnce(ctx)
			if !ran {
				fmt.Fprintln(cmd.OutOrStdout(), "Market is closed, nothing to do.")
			}
			return err
		}

		log.Printf("[floor] running %d traders every %s", len(floor.Traders), floorInterval)
		if err := floor.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	floorCmd.Flags().StringArrayVar(&floorTraders, "trader", []string{
		"Warren:Patience:gpt-4o-mini",
		"George:Bold:haiku",
		"Ray:Systematic:haiku",
		"Cathie:Crypto:haiku",
	}, "Trader as Name:Lastname:model (repeatable)")
	floorCmd.Flags().DurationVar(&floorInterval, "interval", time.Hour, "Time between cycles")
	floorCmd.Flags().BoolVar(&floorOnce, "once", false, "Run a single cycle and exit")
}

type traderFlag struct {
	name, lastname, model string
}

func parseTraderFlags(raw []string) ([]traderFlag, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one --trader is required")
	}
	seen := make(map[string]bool, len(raw))
	parsed := make([]traderFlag, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
			return nil, fmt.Errorf("invalid trader %q: want Name:Lastname[:model]", r)
		}
		s := traderFlag{name: parts[0], lastname: parts[1]}
		if len(parts) == 3 {
			s.model = parts[2]
		}
		key := strings.ToLower(s.name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate trader %q", s.name)
		}
		seen[key] = true
		parsed = append(parsed, s)
	}
	return parsed, nil
}
