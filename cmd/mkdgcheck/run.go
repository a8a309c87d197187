package main

import (
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kalambet/mkdgcheck/internal/harness"
	"github.com/kalambet/mkdgcheck/internal/journal"
	"github.com/kalambet/mkdgcheck/internal/schema"
	"github.com/kalambet/mkdgcheck/internal/storage"
	"github.com/kalambet/mkdgcheck/internal/verify"
)

// --- run ---

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Round-trip scenarios through the configured backend",
	Long: `Round-trip scenarios through the configured backend.

Each scenario snapshots a key with the store's own tool, writes a derived
value through the backend, confirms it with the tool and writes the original
back. With no arguments every scenario in the schema runs.

Exit status is 0 when every scenario passes, 1 when any fails, 2 when no
backend is configured and 3 when the probe tool cannot be launched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appCfg
		if cmd.Flags().Changed("jobs") {
			cfg.Run.Jobs, _ = cmd.Flags().GetInt("jobs")
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		noHistory, _ := cmd.Flags().GetBool("no-history")

		w, err := wire(cfg)
		if err != nil {
			return err
		}
		suite, err := harness.FromSchema(w.schema)
		if err != nil {
			return err
		}
		scenarios, err := suite.Select(args)
		if err != nil {
			return err
		}

		j, err := journal.Open(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		defer j.Close()
		if pending, err := j.Pending(); err == nil && len(pending) > 0 {
			printWarning("%d key(s) from an earlier run were never restored; run `mkdgcheck recover`", len(pending))
		}

		v := verify.New(w.backend, w.probe, w.schema.Path)
		v.Journal = j
		runner := &harness.Runner{Verifier: v, Jobs: cfg.Run.Jobs, SchemaID: w.schema.ID}
		if !noHistory {
			store, err := storage.Open(cfg.Storage.DataDir)
			if err != nil {
				return fmt.Errorf("opening storage: %w", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					slog.Warn("closing storage", "error", err)
				}
			}()
			runner.History = store
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		printStep("Running %d scenario(s) against %s", len(scenarios), w.backend.Name())
		rep := runner.Run(ctx, scenarios)
		writeReport(cmd.OutOrStdout(), rep)

		switch code := rep.ExitCode(); code {
		case harness.ExitOK:
			printSuccess("All %d scenario(s) passed", rep.Passed())
			return nil
		case harness.ExitProbeUnavailable:
			return &exitError{code: code, err: fmt.Errorf("probe tool %s cannot be launched", w.probe.Name())}
		default:
			return &exitError{code: code, err: fmt.Errorf("%d of %d scenario(s) failed", len(scenarios)-rep.Passed(), len(scenarios))}
		}
	},
}

func init() {
	runCmd.Flags().Int("jobs", 1, "scenarios to run concurrently; same-key scenarios never overlap")
	runCmd.Flags().Bool("no-history", false, "do not record the run in history")
}

func writeReport(w io.Writer, rep *harness.Report) {
	for _, res := range rep.Results {
		fmt.Fprintf(w, "%s %-16s %-22s %s -> %s\n",
			verdict(res.Passed()), res.Scenario.Name, res.Scenario.Key, res.Original, res.Expected)
		if res.Err != nil {
			fmt.Fprintf(w, "     error: %v\n", res.Err)
		}
		if res.RestoreErr != nil {
			fmt.Fprintf(w, "     restore: %v\n", res.RestoreErr)
		}
	}
	for _, sc := range rep.Skipped {
		fmt.Fprintf(w, "%s %-16s %s\n", colorize(colorYellow, "SKIP"), sc.Name, sc.Key)
	}
	fmt.Fprintf(w, "run %s: %d passed, %d failed, %d skipped\n",
		rep.RunID, rep.Passed(), rep.Failed(), len(rep.Skipped))
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the scenarios defined by the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := schema.Load(appCfg.Backend.SchemaFile)
		if err != nil {
			return err
		}
		suite, err := harness.FromSchema(s)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", colorize(colorBold, s.ID), s.Path)
		for _, sc := range suite.Scenarios() {
			fmt.Fprintf(out, "  %-16s %-22s %s\n", sc.Name, sc.Key, sc.Kind)
		}
		return nil
	},
}

// --- recover ---

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Restore originals left behind by an interrupted run",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := wire(appCfg)
		if err != nil {
			return err
		}
		j, err := journal.Open(appCfg.Storage.DataDir)
		if err != nil {
			return err
		}
		defer j.Close()

		n, err := harness.Recover(cmd.Context(), j, w.backend, slog.Default())
		if n > 0 {
			printSuccess("Restored %d key(s)", n)
		}
		if err != nil {
			if pending, perr := j.Pending(); perr == nil {
				printError("%d journal entr(ies) still pending; fix the cause and run recover again", len(pending))
			}
			return err
		}
		if n == 0 {
			printSuccess("Nothing to recover")
		}
		return nil
	},
}
