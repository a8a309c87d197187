package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/mkdgcheck/internal/api"
	"github.com/kalambet/mkdgcheck/internal/storage"
)

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded runs, or one run with its scenario results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		store, err := storage.Open(appCfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		if len(args) == 0 {
			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			if asJSON {
				return enc.Encode(runs)
			}
			if len(runs) == 0 {
				printWarning("No runs recorded in %s", appCfg.Storage.DataDir)
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(out, "%s  %s  %-9s %d passed, %d failed%s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Backend, r.Passed, r.Failed, fatalMark(r.Fatal))
			}
			return nil
		}

		run, err := store.GetRun(args[0])
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("run %q not found", args[0])
		}
		if err != nil {
			return err
		}
		results, err := store.RunResults(run.ID)
		if err != nil {
			return err
		}
		if asJSON {
			return enc.Encode(map[string]any{"run": run, "results": results})
		}

		fmt.Fprintf(out, "%s\n", colorize(colorBold, "Run "+run.ID))
		writeStatus(out, "Started", "%s", run.StartedAt.Local().Format(time.DateTime))
		writeStatus(out, "Backend", "%s", run.Backend)
		writeStatus(out, "Schema", "%s", run.SchemaID)
		writeStatus(out, "Result", "%d passed, %d failed%s", run.Passed, run.Failed, fatalMark(run.Fatal))
		for _, r := range results {
			fmt.Fprintf(out, "%s %-16s %-22s %s -> %s (observed %s, %s)\n",
				verdict(r.Passed), r.Scenario, r.Key, r.Original, r.Expected, r.Observed, r.State)
			if r.Error != "" {
				fmt.Fprintf(out, "     error: %s\n", r.Error)
			}
			if r.RestoreError != "" {
				fmt.Fprintf(out, "     restore: %s\n", r.RestoreError)
			}
		}
		return nil
	},
}

func fatalMark(fatal bool) string {
	if fatal {
		return ", aborted"
	}
	return ""
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "print JSON")
}

// --- serve ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve run history over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := appCfg.Serve.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		store, err := storage.Open(appCfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("closing storage", "error", err)
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		handler := api.NewHistoryHandler(store, journalOnDemand{dir: appCfg.Storage.DataDir}, appCfg.Serve.Token)
		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext: func(_ net.Listener) context.Context {
				return ctx
			},
		}

		errCh := make(chan error, 1)
		go func() {
			printStatus("Listening", "http://%s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			printStep("shutting down...")
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address, overrides serve.addr")
}
