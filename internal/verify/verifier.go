// Package verify proves that a backend write is visible through the store's
// own tooling: snapshot, mutate, write, confirm, restore.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/mkdgcheck/internal/backend"
	"github.com/kalambet/mkdgcheck/internal/command"
	"github.com/kalambet/mkdgcheck/internal/probe"
	"github.com/kalambet/mkdgcheck/internal/value"
)

var (
	// ErrMismatch means the probe did not observe the value the backend wrote.
	ErrMismatch = errors.New("probe value differs from written value")
	// ErrNotRestored means the key did not read back as its original value after cleanup.
	ErrNotRestored = errors.New("original value not restored")
	// ErrNoValue is probe.ErrNoValue, re-exported for callers of this package.
	ErrNoValue = probe.ErrNoValue
)

// Scenario names one key to round-trip and the kind it holds.
type Scenario struct {
	Name string
	Key  string
	Kind value.Kind
}

// Snapshotter persists originals across process crashes. The journal package
// provides the bbolt implementation.
type Snapshotter interface {
	Record(backend, schemaPath, key string, v value.Value) error
	Clear(schemaPath, key string) error
}

// Result describes how far a scenario got and why it stopped.
type Result struct {
	Scenario Scenario
	// State is the last state reached on the success path.
	State    State
	Original value.Value
	Expected value.Value
	Observed value.Value
	// Err is the scenario failure, nil when the written value was observed.
	Err error
	// Restored reports whether the cleanup write ran and read back the original.
	Restored   bool
	RestoreErr error
	// Fatal is set when the probe tool could not be launched; no later
	// scenario can succeed either.
	Fatal    bool
	Started  time.Time
	Duration time.Duration
}

// Passed reports whether the write was observed and the original restored.
func (r Result) Passed() bool {
	return r.Err == nil && r.RestoreErr == nil && r.State == Done
}

// Verifier runs scenarios one at a time against a single backend.
type Verifier struct {
	Backend    backend.Backend
	Probe      probe.Probe
	SchemaPath string
	Journal    Snapshotter
	Logger     *slog.Logger
}

func New(b backend.Backend, p probe.Probe, schemaPath string) *Verifier {
	return &Verifier{Backend: b, Probe: p, SchemaPath: schemaPath, Logger: slog.Default()}
}

// Run executes sc. Once the original has been captured it is written back
// even if the write or the confirmation failed.
func (v *Verifier) Run(ctx context.Context, sc Scenario) (res Result) {
	logger := v.logger().With("scenario", sc.Name, "key", sc.Key, "kind", sc.Kind.String())
	res = Result{Scenario: sc, State: Init, Started: time.Now()}
	defer func() {
		if res.State == Restored {
			res.State = Done
		}
		res.Duration = time.Since(res.Started)
		v.logResult(logger, res)
	}()

	original, err := probe.Fetch(ctx, v.Probe, sc.Key, sc.Kind)
	if err != nil {
		res.Err = fmt.Errorf("snapshot: %w", err)
		res.Fatal = errors.Is(err, command.ErrLaunch)
		return res
	}
	res.Original = original
	res.State = Snapshotted
	logger.Debug("snapshot taken", "original", original)

	if v.Journal != nil {
		if err := v.Journal.Record(v.Backend.Name(), v.SchemaPath, sc.Key, original); err != nil {
			logger.Warn("could not journal original value", "error", err)
		}
	}
	defer v.restore(ctx, logger, &res)

	expected := value.Derive(original)
	res.Expected = expected
	res.State = Mutated

	if err := v.Backend.Write(ctx, expected, v.SchemaPath, sc.Key); err != nil {
		res.Err = fmt.Errorf("write: %w", err)
		return res
	}
	res.State = Written

	observed, err := probe.Fetch(ctx, v.Probe, sc.Key, sc.Kind)
	if err != nil {
		res.Err = fmt.Errorf("confirm: %w", err)
		res.Fatal = errors.Is(err, command.ErrLaunch)
		return res
	}
	res.Observed = observed
	if !value.Equal(expected, observed) {
		res.Err = fmt.Errorf("%w: wrote %v, probe read %v", ErrMismatch, expected, observed)
		return res
	}
	res.State = Verified
	return res
}

// restore writes the original back through the backend and confirms it with
// the probe. It ignores cancellation of ctx so cleanup always gets a chance.
func (v *Verifier) restore(ctx context.Context, logger *slog.Logger, res *Result) {
	ctx = context.WithoutCancel(ctx)
	sc := res.Scenario

	if err := v.Backend.Write(ctx, res.Original, v.SchemaPath, sc.Key); err != nil {
		res.RestoreErr = fmt.Errorf("restore: %w", err)
		return
	}
	got, err := probe.Fetch(ctx, v.Probe, sc.Key, sc.Kind)
	if err != nil {
		res.RestoreErr = fmt.Errorf("restore: %w", err)
		res.Fatal = res.Fatal || errors.Is(err, command.ErrLaunch)
		return
	}
	if !value.Equal(res.Original, got) {
		res.RestoreErr = fmt.Errorf("%w: want %v, probe read %v", ErrNotRestored, res.Original, got)
		return
	}
	res.Restored = true

	if v.Journal != nil {
		if err := v.Journal.Clear(v.SchemaPath, sc.Key); err != nil {
			logger.Warn("could not clear journal entry", "error", err)
		}
	}
	if res.State == Verified {
		res.State = Restored
	}
}

func (v *Verifier) logResult(logger *slog.Logger, res Result) {
	attrs := []any{"state", res.State.String(), "duration", res.Duration}
	switch {
	case res.Passed():
		logger.Info("scenario passed", attrs...)
	case res.Fatal:
		logger.Error("scenario aborted", append(attrs, "error", res.Err, "restore_error", res.RestoreErr)...)
	default:
		logger.Error("scenario failed", append(attrs, "error", res.Err, "restore_error", res.RestoreErr)...)
	}
}

func (v *Verifier) logger() *slog.Logger {
	if v.Logger == nil {
		return slog.Default()
	}
	return v.Logger
}
