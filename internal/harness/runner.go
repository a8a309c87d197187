package harness

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/mkdgcheck/internal/storage"
	"github.com/kalambet/mkdgcheck/internal/verify"
)

// Process exit codes.
const (
	ExitOK               = 0
	ExitFailed           = 1
	ExitNoBackend        = 2
	ExitProbeUnavailable = 3
)

// Recorder persists run history. *storage.Store implements it.
type Recorder interface {
	SaveRun(r storage.Run) error
	SaveResult(r storage.ScenarioResult) error
}

// Runner executes scenarios through one Verifier.
type Runner struct {
	Verifier *verify.Verifier
	// Jobs bounds how many scenarios run at once. Scenarios sharing a key
	// never overlap regardless of Jobs.
	Jobs     int
	History  Recorder
	SchemaID string
	Logger   *slog.Logger

	historyMu sync.Mutex
}

// Report is the outcome of one Run call.
type Report struct {
	RunID    string
	Results  []verify.Result
	Skipped  []verify.Scenario
	Fatal    bool
	Started  time.Time
	Finished time.Time
}

func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed() {
			n++
		}
	}
	return n
}

func (r *Report) Failed() int {
	return len(r.Results) - r.Passed()
}

// ExitCode maps the report to a process exit status.
func (r *Report) ExitCode() int {
	switch {
	case r.Fatal:
		return ExitProbeUnavailable
	case r.Failed() > 0 || len(r.Skipped) > 0:
		return ExitFailed
	default:
		return ExitOK
	}
}

// Run executes scenarios and returns a report. Once a scenario reports a fatal
// probe failure no further scenario is started.
func (r *Runner) Run(ctx context.Context, scenarios []verify.Scenario) *Report {
	logger := r.logger()
	rep := &Report{RunID: uuid.NewString(), Started: time.Now()}
	logger = logger.With("run", rep.RunID)
	r.saveRun(logger, rep)

	results := make([]verify.Result, len(scenarios))
	ran := make([]bool, len(scenarios))
	var fatal atomic.Bool

	runOne := func(i int) {
		if fatal.Load() || ctx.Err() != nil {
			return
		}
		res := r.Verifier.Run(ctx, scenarios[i])
		results[i] = res
		ran[i] = true
		if res.Fatal {
			fatal.Store(true)
		}
		r.saveResult(logger, rep.RunID, i, res)
	}

	if r.Jobs <= 1 {
		for i := range scenarios {
			runOne(i)
		}
	} else {
		locks := make(map[string]*sync.Mutex)
		for _, sc := range scenarios {
			if locks[sc.Key] == nil {
				locks[sc.Key] = &sync.Mutex{}
			}
		}
		var g errgroup.Group
		g.SetLimit(r.Jobs)
		for i, sc := range scenarios {
			mu := locks[sc.Key]
			g.Go(func() error {
				mu.Lock()
				defer mu.Unlock()
				runOne(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, sc := range scenarios {
		if ran[i] {
			rep.Results = append(rep.Results, results[i])
		} else {
			rep.Skipped = append(rep.Skipped, sc)
		}
	}
	rep.Fatal = fatal.Load()
	rep.Finished = time.Now()
	r.saveRun(logger, rep)

	logger.Info("run finished",
		"passed", rep.Passed(),
		"failed", rep.Failed(),
		"skipped", len(rep.Skipped),
		"fatal", rep.Fatal,
		"duration", rep.Finished.Sub(rep.Started),
	)
	return rep
}

func (r *Runner) saveRun(logger *slog.Logger, rep *Report) {
	if r.History == nil {
		return
	}
	run := storage.Run{
		ID:         rep.RunID,
		StartedAt:  rep.Started,
		FinishedAt: rep.Finished,
		Backend:    r.Verifier.Backend.Name(),
		SchemaID:   r.SchemaID,
		Passed:     rep.Passed(),
		Failed:     rep.Failed(),
		Fatal:      rep.Fatal,
	}
	r.historyMu.Lock()
	defer r.historyMu.Unlock()
	if err := r.History.SaveRun(run); err != nil {
		logger.Warn("could not record run", "error", err)
	}
}

func (r *Runner) saveResult(logger *slog.Logger, runID string, seq int, res verify.Result) {
	if r.History == nil {
		return
	}
	rec := storage.ScenarioResult{
		RunID:    runID,
		Seq:      seq,
		Scenario: res.Scenario.Name,
		Key:      res.Scenario.Key,
		Kind:     res.Scenario.Kind.String(),
		Original: res.Original.Text(),
		Expected: res.Expected.Text(),
		Observed: res.Observed.Text(),
		State:    res.State.String(),
		Passed:   res.Passed(),
		Duration: res.Duration,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if res.RestoreErr != nil {
		rec.RestoreError = res.RestoreErr.Error()
	}
	r.historyMu.Lock()
	defer r.historyMu.Unlock()
	if err := r.History.SaveResult(rec); err != nil {
		logger.Warn("could not record result", "scenario", res.Scenario.Name, "error", err)
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
