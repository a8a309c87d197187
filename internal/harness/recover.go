package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kalambet/mkdgcheck/internal/backend"
	"github.com/kalambet/mkdgcheck/internal/journal"
)

// Pending lists and clears journal entries. *journal.Journal implements it.
type Pending interface {
	Pending() ([]journal.Entry, error)
	Clear(schemaPath, key string) error
}

// Recover writes every journaled original back through b and clears the
// entries it restored. Entries recorded by another backend are left alone.
// It returns how many keys were restored.
func Recover(ctx context.Context, j Pending, b backend.Backend, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := j.Pending()
	if err != nil {
		return 0, fmt.Errorf("reading journal: %w", err)
	}

	restored := 0
	var errs []error
	for _, e := range entries {
		if e.Backend != b.Name() {
			logger.Warn("skipping entry written by another backend",
				"key", e.Key, "schema_path", e.SchemaPath, "backend", e.Backend)
			continue
		}
		v, err := e.Value()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", e.SchemaPath, e.Key, err))
			continue
		}
		// The schema that produced the entry may no longer be loaded.
		if err := b.Write(ctx, v, e.SchemaPath, e.Key, backend.SkipValidation()); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", e.SchemaPath, e.Key, err))
			continue
		}
		if err := j.Clear(e.SchemaPath, e.Key); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: clearing: %w", e.SchemaPath, e.Key, err))
			continue
		}
		logger.Info("restored original value", "key", e.Key, "schema_path", e.SchemaPath, "value", v)
		restored++
	}
	return restored, errors.Join(errs...)
}
