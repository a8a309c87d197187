package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kalambet/mkdgcheck/internal/command"
	"github.com/kalambet/mkdgcheck/internal/command/commandtest"
	"github.com/kalambet/mkdgcheck/internal/harness"
	"github.com/kalambet/mkdgcheck/internal/journal"
	"github.com/kalambet/mkdgcheck/internal/schema"
	"github.com/kalambet/mkdgcheck/internal/storage"
	"github.com/kalambet/mkdgcheck/internal/value"
)

type cliEnv struct {
	dataDir    string
	configPath string
	store      *commandtest.Store
	schema     *schema.Schema
}

// newCLIEnv writes a config file pointing at a temp data dir and routes every
// external tool through an in-memory store.
func newCLIEnv(t *testing.T, variant string) *cliEnv {
	t.Helper()
	for _, env := range []string{
		"MKDG_CONFIG", "MKDG_BACKEND", "MKDG_SCHEMA_FILE", "MKDG_GCONF_DIR", "MKDG_DCONF_TOOL",
		"MKDG_GSETTINGS_TOOL", "MKDG_GCONF_TOOL", "MKDG_DATA_DIR", "MKDG_LOG_LEVEL", "MKDG_JOBS",
		"MKDG_SERVE_ADDR", "MKDG_SERVE_TOKEN",
	} {
		t.Setenv(env, "")
	}

	s, err := schema.Default()
	if err != nil {
		t.Fatal(err)
	}
	store := commandtest.NewStore()
	store.AddSchema(s.ID, s.Path)
	store.Define(s.Path+"plain-zhuyin", value.OfBool(true))
	store.Define(s.Path+"max-chi-symbol-len", value.OfInt(3))
	store.Define(s.Path+"cand-per-page", value.OfUint(5))
	store.Define(s.Path+"sel-keys", value.OfString("abc"))

	old := newCommandRunner
	newCommandRunner = func() command.Runner { return store }
	t.Cleanup(func() { newCommandRunner = old })

	dir := t.TempDir()
	e := &cliEnv{
		dataDir:    filepath.Join(dir, "data"),
		configPath: filepath.Join(dir, "config.yaml"),
		store:      store,
		schema:     s,
	}
	content := "storage:\n  data_dir: " + e.dataDir + "\nlog:\n  level: error\n"
	if variant != "" {
		content += "backend:\n  variant: " + variant + "\n"
	}
	if err := os.WriteFile(e.configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return e
}

// execute runs the root command with fresh flag state and returns stdout.
func (e *cliEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", e.configPath, "--no-color"}, args...))
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func wantExit(t *testing.T, err error, code int) {
	t.Helper()
	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %v, want exit status %d", err, code)
	}
	if ee.code != code {
		t.Fatalf("exit status = %d (%v), want %d", ee.code, ee.err, code)
	}
}

func TestRun_AllPass(t *testing.T) {
	e := newCLIEnv(t, "gsettings")

	out, err := e.execute(t, "run")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	for _, name := range []string{"write_boolean", "write_int", "write_uint", "write_string"} {
		if !strings.Contains(out, "PASS "+name) {
			t.Errorf("output missing PASS %s:\n%s", name, out)
		}
	}
	if !strings.Contains(out, "4 passed, 0 failed, 0 skipped") {
		t.Errorf("summary missing:\n%s", out)
	}

	v, _ := e.store.Value(e.schema.Path + "cand-per-page")
	if !value.Equal(value.OfUint(5), v) {
		t.Errorf("cand-per-page = %v after run, want original 5", v)
	}

	store, err := storage.Open(e.dataDir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Passed != 4 {
		t.Errorf("runs = %+v, want one run with 4 passed", runs)
	}
}

func TestRun_SelectedScenarios(t *testing.T) {
	e := newCLIEnv(t, "gsettings")

	out, err := e.execute(t, "run", "write_uint", "--jobs", "2", "--no-history")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 passed") || strings.Contains(out, "write_boolean") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(e.dataDir, "history.db")); !os.IsNotExist(err) {
		t.Errorf("history.db exists with --no-history (stat err %v)", err)
	}
}

func TestRun_UnknownScenario(t *testing.T) {
	e := newCLIEnv(t, "gsettings")

	_, err := e.execute(t, "run", "write_float")
	if err == nil || !strings.Contains(err.Error(), "write_float") {
		t.Fatalf("error = %v, want unknown scenario", err)
	}
}

func TestRun_NoBackendConfigured(t *testing.T) {
	e := newCLIEnv(t, "")

	_, err := e.execute(t, "run")
	wantExit(t, err, harness.ExitNoBackend)
	if len(e.store.Calls()) != 0 {
		t.Errorf("tools were invoked without a backend: %v", e.store.Calls())
	}
}

func TestRun_BackendFlagOverridesConfig(t *testing.T) {
	e := newCLIEnv(t, "")

	out, err := e.execute(t, "run", "--backend", "gconf2")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if e.store.CountCalls("gconftool-2", "--type") != 8 {
		t.Errorf("gconftool-2 writes = %d, want 8", e.store.CountCalls("gconftool-2", "--type"))
	}
	if e.store.CountCalls("dconf", "write") != 0 {
		t.Error("gconf2 run must not write through dconf")
	}
}

func TestRun_ProbeUnavailable(t *testing.T) {
	e := newCLIEnv(t, "gsettings")
	e.store.Missing["gsettings"] = true

	out, err := e.execute(t, "run")
	wantExit(t, err, harness.ExitProbeUnavailable)
	if !strings.Contains(out, "SKIP") {
		t.Errorf("later scenarios should be reported as skipped:\n%s", out)
	}
}

func TestRun_Failure(t *testing.T) {
	e := newCLIEnv(t, "gsettings")
	e.store.DropWrites["dconf"] = true

	out, err := e.execute(t, "run")
	wantExit(t, err, harness.ExitFailed)
	if !strings.Contains(out, "FAIL write_int") {
		t.Errorf("output missing FAIL line:\n%s", out)
	}
}

func TestRun_InvalidJobs(t *testing.T) {
	e := newCLIEnv(t, "gsettings")

	if _, err := e.execute(t, "run", "--jobs", "0"); err == nil {
		t.Fatal("expected error for --jobs 0")
	}
}

func TestList(t *testing.T) {
	e := newCLIEnv(t, "")

	out, err := e.execute(t, "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "org.freedesktop.IBus.Chewing") {
		t.Errorf("schema id missing:\n%s", out)
	}
	if !strings.Contains(out, "write_string") || !strings.Contains(out, "sel-keys") {
		t.Errorf("string scenario missing:\n%s", out)
	}
}

func TestRecover(t *testing.T) {
	e := newCLIEnv(t, "gsettings")

	j, err := journal.Open(e.dataDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Record("gsettings", e.schema.Path, "max-chi-symbol-len", value.OfInt(3)); err != nil {
		t.Fatal(err)
	}
	j.Close()
	e.store.Define(e.schema.Path+"max-chi-symbol-len", value.OfInt(2))

	if out, err := e.execute(t, "recover"); err != nil {
		t.Fatalf("recover: %v\n%s", err, out)
	}
	v, _ := e.store.Value(e.schema.Path + "max-chi-symbol-len")
	if !value.Equal(value.OfInt(3), v) {
		t.Errorf("max-chi-symbol-len = %v, want 3", v)
	}

	j, err = journal.Open(e.dataDir)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	if pending, _ := j.Pending(); len(pending) != 0 {
		t.Errorf("pending = %v, want none", pending)
	}
}

func TestRecover_WriteFailureKeepsEntry(t *testing.T) {
	e := newCLIEnv(t, "gsettings")

	j, err := journal.Open(e.dataDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Record("gsettings", e.schema.Path, "max-chi-symbol-len", value.OfInt(3)); err != nil {
		t.Fatal(err)
	}
	j.Close()
	e.store.Define(e.schema.Path+"max-chi-symbol-len", value.OfInt(2))
	e.store.Missing["dconf"] = true

	if _, err := e.execute(t, "recover"); err == nil {
		t.Fatal("recover succeeded with dconf missing")
	}
	v, _ := e.store.Value(e.schema.Path + "max-chi-symbol-len")
	if !value.Equal(value.OfInt(2), v) {
		t.Errorf("max-chi-symbol-len = %v, want untouched 2", v)
	}

	j, err = journal.Open(e.dataDir)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	if pending, _ := j.Pending(); len(pending) != 1 {
		t.Errorf("pending = %v, want the entry kept", pending)
	}
}

func TestRecover_NoBackend(t *testing.T) {
	e := newCLIEnv(t, "")
	_, err := e.execute(t, "recover")
	wantExit(t, err, harness.ExitNoBackend)
}

func TestHistory(t *testing.T) {
	e := newCLIEnv(t, "gsettings")
	if _, err := e.execute(t, "run"); err != nil {
		t.Fatal(err)
	}

	store, err := storage.Open(e.dataDir)
	if err != nil {
		t.Fatal(err)
	}
	runs, err := store.ListRuns(1)
	store.Close()
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs = %v, err = %v", runs, err)
	}
	id := runs[0].ID

	out, err := e.execute(t, "history")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "4 passed") {
		t.Errorf("history list:\n%s", out)
	}

	out, err = e.execute(t, "history", id)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "PASS write_uint") || !strings.Contains(out, "5 -> 4 (observed 4, done)") {
		t.Errorf("history detail:\n%s", out)
	}

	out, err = e.execute(t, "history", id, "--json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"scenario": "write_boolean"`) {
		t.Errorf("history json:\n%s", out)
	}

	if _, err := e.execute(t, "history", "no-such-run"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestConfigShow(t *testing.T) {
	e := newCLIEnv(t, "gconf2")

	out, err := e.execute(t, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "backend.variant = gconf2  (MKDG_BACKEND)") {
		t.Errorf("config show:\n%s", out)
	}
	if strings.Contains(out, "serve.token") {
		t.Errorf("secret listed:\n%s", out)
	}
}

func TestConfigSet(t *testing.T) {
	e := newCLIEnv(t, "")

	if _, err := e.execute(t, "config", "set", "backend.variant", "gsettings"); err != nil {
		t.Fatal(err)
	}
	out, err := e.execute(t, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "backend.variant = gsettings") {
		t.Errorf("config show after set:\n%s", out)
	}
	if _, err := e.execute(t, "config", "set", "run.jobs", "many"); err == nil {
		t.Error("expected error for non-integer run.jobs")
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(&exitError{code: 3, err: errors.New("probe tool gsettings cannot be launched")}); got != 3 {
		t.Errorf("exitCode = %d, want 3", got)
	}
	if got := exitCode(errors.New("boom")); got != 1 {
		t.Errorf("exitCode = %d, want 1", got)
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func (e *cliEnv) stubLookPath(t *testing.T) {
	t.Helper()
	old := lookPath
	lookPath = func(file string) (string, error) {
		if e.store.Missing[file] {
			return "", errors.New("executable file not found in $PATH")
		}
		return "/usr/bin/" + file, nil
	}
	t.Cleanup(func() { lookPath = old })
}

func TestDoctor(t *testing.T) {
	e := newCLIEnv(t, "gsettings")
	e.stubLookPath(t)

	out, err := e.execute(t, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	for _, want := range []string{"tool gsettings: /usr/bin/gsettings", "tool dconf: /usr/bin/dconf", "Backend: gsettings"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctor_MissingTool(t *testing.T) {
	e := newCLIEnv(t, "gconf2")
	e.stubLookPath(t)
	e.store.Missing["gconftool-2"] = true

	out, err := e.execute(t, "doctor")
	wantExit(t, err, harness.ExitProbeUnavailable)
	if !strings.Contains(out, "tool gconftool-2: not found") {
		t.Errorf("output:\n%s", out)
	}
}
