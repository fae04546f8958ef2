// Command navsim runs a scenario headlessly through the perception and
// navigation pipeline and prints a per-agent summary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/banshee-data/localnav/internal/actuation"
	"github.com/banshee-data/localnav/internal/config"
	"github.com/banshee-data/localnav/internal/localmap"
	"github.com/banshee-data/localnav/internal/monitoring"
	"github.com/banshee-data/localnav/internal/navlog"
	"github.com/banshee-data/localnav/internal/sim"
	"github.com/banshee-data/localnav/internal/version"
)

// errUsage marks bad command-line input.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "navsim: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("navsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	scenarioPath := fs.String("scenario", "", "Path to scenario YAML (required)")
	configPath := fs.String("config", "", "Path to tuning JSON (defaults to built-in values)")
	dbPath := fs.String("db", "", "SQLite file to record the run into (disabled when empty)")
	broker := fs.String("mqtt-broker", "", "MQTT broker URL for commands, e.g. tcp://localhost:1883 (disabled when empty)")
	prefix := fs.String("mqtt-prefix", "localnav", "MQTT topic prefix")
	ticks := fs.Int("ticks", 0, "Number of ticks to run (defaults to the scenario's)")
	seed := fs.Uint64("seed", 1, "Random seed")
	realTime := fs.Bool("realtime", false, "Pace ticks at the scenario's dt")
	verbose := fs.Bool("v", false, "Log diagnostics")
	trace := fs.Bool("vv", false, "Log diagnostics and per-tick trace")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String("navsim"))
		return nil
	}
	if *scenarioPath == "" {
		fs.Usage()
		return fmt.Errorf("%w: -scenario is required", errUsage)
	}
	if *ticks < 0 {
		return fmt.Errorf("%w: -ticks must be non-negative", errUsage)
	}

	lw := localmap.LogWriters{Ops: stderr}
	if *verbose || *trace {
		lw.Diag = stderr
	}
	if *trace {
		lw.Trace = stderr
	}
	localmap.SetLogWriters(lw)
	defer localmap.SetLogWriters(localmap.LogWriters{})

	scn, err := sim.LoadScenario(*scenarioPath)
	if err != nil {
		return err
	}
	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			return err
		}
	}

	opts := sim.Options{Config: cfg, Seed: *seed, RealTime: *realTime}

	var (
		store *navlog.Store
		runID string
	)
	if *dbPath != "" {
		if store, err = navlog.Open(*dbPath); err != nil {
			return err
		}
		defer store.Close()
		if runID, err = store.CreateRun(ctx, scn.Name, *seed); err != nil {
			return err
		}
		opts.Recorder = store.Recorder(runID)
		localmap.Opsf("recording run %s to %s", runID, *dbPath)
	}

	if *broker != "" {
		sink, err := actuation.DialMQTT(actuation.MQTTOptions{Broker: *broker, Prefix: *prefix})
		if err != nil {
			return err
		}
		defer sink.Close()
		opts.Sink = sink
	}

	runner, err := sim.NewRunner(scn, opts)
	if err != nil {
		return err
	}

	n := *ticks
	if n == 0 {
		n = scn.Ticks
	}
	runErr := runner.Run(ctx, n)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		monitoring.Logf("interrupted after %d ticks", runner.Tick())
	}

	if store != nil {
		// The run context may already be cancelled; finishing the record
		// must still happen.
		if err := store.FinishRun(context.WithoutCancel(ctx), runID, runner.Tick()); err != nil {
			return err
		}
	}

	printSummary(stdout, scn.Name, runner.Tick(), navlog.Summarise(runner.History()))
	return nil
}

func printSummary(w io.Writer, name string, ticks int, rows []navlog.AgentSummary) {
	fmt.Fprintf(w, "scenario %s: %d ticks\n", name, ticks)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "agent\tmean fwd\tsd fwd\tmean |turn|\tblocked\tcarrying\tclusters")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.1f%%\t%d\t%.2f\n",
			r.Agent, r.MeanForward, r.StdDevForward, r.MeanAbsTurn,
			100*r.BlockedFraction, r.CarryingTicks, r.MeanClusters)
	}
	tw.Flush()
}
