package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Run is one invocation of the scenario suite against one backend.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Backend    string    `json:"backend"`
	SchemaID   string    `json:"schema_id"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Fatal      bool      `json:"fatal"`
}

// ScenarioResult is the stored outcome of a single scenario. Values are kept
// in their text form; Kind says how to parse them.
type ScenarioResult struct {
	RunID        string        `json:"run_id"`
	Seq          int           `json:"seq"`
	Scenario     string        `json:"scenario"`
	Key          string        `json:"key"`
	Kind         string        `json:"kind"`
	Original     string        `json:"original"`
	Expected     string        `json:"expected"`
	Observed     string        `json:"observed"`
	State        string        `json:"state"`
	Passed       bool          `json:"passed"`
	Error        string        `json:"error,omitempty"`
	RestoreError string        `json:"restore_error,omitempty"`
	Duration     time.Duration `json:"duration"`
}
