package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentlabs/internal/api"
	"github.com/ShayCichocki/agentlabs/internal/config"
	"github.com/ShayCichocki/agentlabs/internal/console"
	"github.com/ShayCichocki/agentlabs/internal/crew"
	"github.com/ShayCichocki/agentlabs/internal/engineering"
	"github.com/ShayCichocki/agentlabs/internal/state"
	"github.com/ShayCichocki/agentlabs/internal/tui"
)

var errSmokeTestFailed = errors.New("smoke test failed")

var (
	flagAgents       string
	flagTasks        string
	flagOutputDir    string
	flagRequirements string
	flagModuleName   string
	flagClassName    string
	flagTUI          bool
	flagNoRecord     bool
	flagStrict       bool
)

var rootCmd = &cobra.Command{
	Use:   "engineering-team",
	Short: "Run the two-agent engineering team once",
	Long: `Builds an engineering lead and a backend engineer from agents.yaml and
tasks.yaml, then runs the design and code tasks in sequence for a small
calculator module.

With no arguments the built-in calculator requirements are used. Code
execution is disabled for the backend engineer. Task outputs are written to
the configured output directory and each kickoff is recorded in the state
database.

A failed kickoff is reported on the console and the process still exits 0,
unless --strict is given. Configuration errors always exit 1.

Create .agentlabs/signals/kill to stop a run between model calls.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTeam(cmd.Context(), cmd.OutOrStdout())
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSmokeTestFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&flagAgents, "agents", "", "Path to agents.yaml (default from config)")
	rootCmd.Flags().StringVar(&flagTasks, "tasks", "", "Path to tasks.yaml (default from config)")
	rootCmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "Directory for task output files (default from config)")
	rootCmd.Flags().StringVar(&flagRequirements, "requirements", "", "Override the requirements input")
	rootCmd.Flags().StringVar(&flagModuleName, "module-name", "", "Override the module_name input")
	rootCmd.Flags().StringVar(&flagClassName, "class-name", "", "Override the class_name input")
	rootCmd.Flags().BoolVar(&flagTUI, "tui", false, "Show live progress in a terminal UI")
	rootCmd.Flags().BoolVar(&flagNoRecord, "no-record", false, "Do not record the run in the state database")
	rootCmd.Flags().BoolVar(&flagStrict, "strict", false, "Exit non-zero when the kickoff fails")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runsCmd)
}

func runTeam(parent context.Context, w io.Writer) error {
	if err := config.LoadDotEnv(config.DefaultDotEnvPath, false); err != nil {
		log.Printf("[engineering] %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg)

	ctx, stop := signal.NotifyContext(contextOrBackground(parent), os.Interrupt)
	defer stop()
	if cfg.Crew.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Crew.Timeout)
		defer cancel()
	}

	env, err := buildTeam(cfg)
	defer env.cleanup()
	if err != nil {
		engineering.PrintBanner(w)
		engineering.ReportFailure(w, err)
		return smokeResult(false, flagStrict)
	}

	inputs := kickoffInputs()

	var ok bool
	if flagTUI {
		ok = runWithTUI(ctx, w, env, inputs)
	} else {
		ok = engineering.RunSmokeTest(ctx, w, env.team, inputs)
	}
	printUsage(w, env.client.Tracker())
	return smokeResult(ok, flagStrict)
}

func printUsage(w io.Writer, tracker *api.TokenTracker) {
	if tracker == nil || tracker.Calls() == 0 {
		return
	}
	console.Statusf(w, "📈", color.FgBlue, "Usage: %s", tracker.Summary())
}

// smokeResult maps the smoke test outcome to the command error. The failure
// line has already been printed, so only strict mode turns it into an exit
// status.
func smokeResult(ok, strict bool) error {
	if ok || !strict {
		return nil
	}
	return errSmokeTestFailed
}

func applyFlags(cfg *config.Config) {
	if flagAgents != "" {
		cfg.Crew.AgentsConfig = flagAgents
	}
	if flagTasks != "" {
		cfg.Crew.TasksConfig = flagTasks
	}
	if flagOutputDir != "" {
		cfg.Crew.OutputDir = flagOutputDir
	}
}

func kickoffInputs() map[string]string {
	inputs := engineering.DefaultInputs()
	if flagRequirements != "" {
		inputs["requirements"] = flagRequirements
	}
	if flagModuleName != "" {
		inputs["module_name"] = flagModuleName
	}
	if flagClassName != "" {
		inputs["class_name"] = flagClassName
	}
	return inputs
}

// teamEnv is a built team plus the collaborators the command reports on.
type teamEnv struct {
	team    *engineering.Team
	runner  *crew.LoopRunner
	client  *api.Client
	closers []func()
}

// cleanup is always safe to call.
func (e *teamEnv) cleanup() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// buildTeam wires the client, stop signals and run recorder into a team.
func buildTeam(cfg *config.Config) (*teamEnv, error) {
	env := &teamEnv{}

	client, err := newClient(cfg)
	if err != nil {
		return env, err
	}
	env.client = client

	var signals *api.Signals
	if signals = newSignals(); signals != nil {
		env.closers = append(env.closers, signals.Close)
	}

	var recorder crew.Recorder
	if !flagNoRecord {
		db, err := state.OpenAndMigrate(cfg.Trading.DBPath)
		if err != nil {
			log.Printf("[engineering] run recording disabled: %v", err)
		} else {
			env.closers = append(env.closers, func() { db.Close() })
			recorder = db
		}
	}

	env.runner = crew.NewLoopRunner(client, signals, cfg.Crew.MaxIterations)
	env.team, err = engineering.NewSimpleTeam(engineering.TeamConfig{
		AgentsConfig: cfg.Crew.AgentsConfig,
		TasksConfig:  cfg.Crew.TasksConfig,
		Runner:       env.runner,
		OutputDir:    cfg.Crew.OutputDir,
		Recorder:     recorder,
	})
	return env, err
}

// runWithTUI renders progress while the smoke test runs, then prints the
// smoke test's own report below the final view.
func runWithTUI(ctx context.Context, w io.Writer, env *teamEnv, inputs map[string]string) bool {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	team := env.team
	program, model := tui.NewProgressProgram(engineering.CrewName, tui.TasksFromCrew(team.Crew()))
	team.SetObserver(tui.Observer(program))
	env.runner.SetStreamHandler(tui.StreamLogger(program))
	defer env.runner.SetStreamHandler(nil)

	var report bytes.Buffer
	result := make(chan bool, 1)
	go func() {
		ok := engineering.RunSmokeTest(ctx, &report, team, inputs)
		var err error
		if !ok {
			err = errSmokeTestFailed
		}
		program.Send(tui.DoneMsg{Err: err})
		result <- ok
	}()

	if _, err := program.Run(); err != nil {
		log.Printf("[engineering] tui: %v", err)
	}
	if model.Cancelled() {
		cancel()
	}
	ok := <-result
	io.Copy(w, &report)
	return ok
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
