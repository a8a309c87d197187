// Package command runs the external tools that front a configuration store.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrLaunch is returned when a tool cannot be started at all, as opposed to
// starting and exiting with an error.
var ErrLaunch = errors.New("cannot launch command")

// Runner executes a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Exec runs commands as child processes.
type Exec struct {
	Logger *slog.Logger
}

// NewExec returns an Exec that logs through slog.Default.
func NewExec() *Exec {
	return &Exec{Logger: slog.Default()}
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("running command", "name", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if isLaunchFailure(err) {
			return nil, fmt.Errorf("%w %s: %v", ErrLaunch, name, err)
		}
		msg := strings.TrimSpace(stderr.String())
		return out, fmt.Errorf("%s %s: %w, stderr: %s", name, strings.Join(args, " "), err, msg)
	}
	return out, nil
}

func isLaunchFailure(err error) bool {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return true
	}
	var pathErr *fs.PathError
	return errors.As(err, &pathErr)
}

// FirstLine returns the first line of out without its trailing newline.
// ok is false when out holds no line at all, which callers must keep distinct
// from an empty line.
func FirstLine(out []byte) (line string, ok bool) {
	if len(out) == 0 {
		return "", false
	}
	s := string(out)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(s, "\r"), true
}
