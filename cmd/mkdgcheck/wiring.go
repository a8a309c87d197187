package main

import (
	"errors"
	"os/exec"
	"path"

	"github.com/kalambet/mkdgcheck/internal/backend"
	"github.com/kalambet/mkdgcheck/internal/command"
	"github.com/kalambet/mkdgcheck/internal/config"
	"github.com/kalambet/mkdgcheck/internal/harness"
	"github.com/kalambet/mkdgcheck/internal/journal"
	"github.com/kalambet/mkdgcheck/internal/probe"
	"github.com/kalambet/mkdgcheck/internal/schema"
)

// Swapped out by tests.
var (
	newCommandRunner                      = func() command.Runner { return command.NewExec() }
	lookPath         command.LookPathFunc = exec.LookPath
)

type wiring struct {
	schema  *schema.Schema
	backend backend.Backend
	probe   probe.Probe
}

// wire builds the backend selected by cfg together with the probe that reads
// the same store.
func wire(cfg config.Config) (*wiring, error) {
	s, err := schema.Load(cfg.Backend.SchemaFile)
	if err != nil {
		return nil, err
	}

	runner := newCommandRunner()
	b, err := backend.New(cfg.Backend.Variant, backend.Options{
		Schema:    s,
		Runner:    runner,
		DconfTool: cfg.Backend.DconfTool,
		GConfTool: cfg.Probe.GConfTool,
		GConfRoot: cfg.Backend.GConfDir,
	})
	if errors.Is(err, backend.ErrNoVariant) {
		return nil, &exitError{code: harness.ExitNoBackend, err: err}
	}
	if err != nil {
		return nil, err
	}

	var p probe.Probe
	switch b.Name() {
	case backend.VariantGConf2:
		dir := path.Join(cfg.Backend.GConfDir, path.Base(s.Dir()))
		p = probe.NewGConf(cfg.Probe.GConfTool, dir, runner)
	default:
		p = probe.NewGSettings(cfg.Probe.GSettingsTool, s.ID, runner)
	}
	return &wiring{schema: s, backend: b, probe: p}, nil
}

// tools lists the executables the configured variant shells out to.
func (w *wiring) tools(cfg config.Config) []string {
	if w.backend.Name() == backend.VariantGConf2 {
		return []string{cfg.Probe.GConfTool}
	}
	return []string{cfg.Probe.GSettingsTool, cfg.Backend.DconfTool}
}

// journalOnDemand opens the journal only for the duration of each call so a
// long-running server does not hold the file lock that runs need.
type journalOnDemand struct {
	dir string
}

func (j journalOnDemand) Pending() ([]journal.Entry, error) {
	jr, err := journal.Open(j.dir)
	if err != nil {
		return nil, err
	}
	defer jr.Close()
	return jr.Pending()
}
