// Package commandtest provides a command.Runner that emulates gsettings,
// dconf and gconftool-2 over an in-memory key map.
package commandtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kalambet/mkdgcheck/internal/command"
	"github.com/kalambet/mkdgcheck/internal/gvariant"
	"github.com/kalambet/mkdgcheck/internal/value"
)

// Store is a fake native configuration store. Keys are addressed by their
// full path, e.g. /desktop/ibus/engine/chewing/plain-zhuyin.
type Store struct {
	mu      sync.Mutex
	schemas map[string]string
	values  map[string]value.Value

	// Missing lists tool names that fail to launch.
	Missing map[string]bool
	// Silent lists full paths for which get prints nothing.
	Silent map[string]bool
	// DropWrites lists tool names whose writes succeed without storing anything.
	DropWrites map[string]bool

	calls [][]string
}

func NewStore() *Store {
	return &Store{
		schemas:    make(map[string]string),
		values:     make(map[string]value.Value),
		Missing:    make(map[string]bool),
		Silent:     make(map[string]bool),
		DropWrites: make(map[string]bool),
	}
}

// AddSchema maps a gsettings schema id to its dconf path.
func (s *Store) AddSchema(id, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[id] = path
}

// Define declares a key with its initial value; the value's kind becomes the key type.
func (s *Store) Define(fullPath string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[fullPath] = v
}

func (s *Store) Value(fullPath string) (value.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[fullPath]
	return v, ok
}

// Calls returns every invocation seen so far, tool name first.
func (s *Store) Calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// CountCalls counts invocations of tool whose first argument is verb.
func (s *Store) CountCalls(tool, verb string) int {
	n := 0
	for _, c := range s.Calls() {
		if c[0] == tool && len(c) > 1 && c[1] == verb {
			n++
		}
	}
	return n
}

func (s *Store) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]string{name}, args...))

	if s.Missing[name] {
		return nil, fmt.Errorf("%w %s: executable file not found in $PATH", command.ErrLaunch, name)
	}
	switch name {
	case "gsettings":
		return s.gsettings(args)
	case "dconf":
		return s.dconf(args)
	case "gconftool-2":
		return s.gconftool(args)
	}
	return nil, fmt.Errorf("commandtest: unsupported tool %s", name)
}

func (s *Store) gsettings(args []string) ([]byte, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("gsettings: usage error %v", args)
	}
	dir, ok := s.schemas[args[1]]
	if !ok {
		return nil, fmt.Errorf("gsettings: No such schema %q", args[1])
	}
	full := dir + args[2]
	cur, ok := s.values[full]
	if !ok {
		return nil, fmt.Errorf("gsettings: No such key %q", args[2])
	}
	switch args[0] {
	case "get":
		return s.print(full, cur, gsettingsText)
	case "set":
		if len(args) != 4 {
			return nil, fmt.Errorf("gsettings set: usage error %v", args)
		}
		v, err := gvariant.Parse(cur.Kind(), args[3])
		if err != nil && cur.Kind() == value.String {
			v, err = value.OfString(args[3]), nil
		}
		if err != nil {
			return nil, fmt.Errorf("gsettings set: %w", err)
		}
		return nil, s.store("gsettings", full, v)
	}
	return nil, fmt.Errorf("gsettings: unknown command %q", args[0])
}

func (s *Store) dconf(args []string) ([]byte, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("dconf: usage error %v", args)
	}
	full := args[1]
	cur, ok := s.values[full]
	switch args[0] {
	case "read":
		if !ok {
			return nil, nil
		}
		return s.print(full, cur, gsettingsText)
	case "write":
		if len(args) != 3 {
			return nil, fmt.Errorf("dconf write: usage error %v", args)
		}
		if !ok {
			return nil, fmt.Errorf("dconf write: fake store has no key %s", full)
		}
		v, err := gvariant.Parse(cur.Kind(), args[2])
		if err != nil {
			return nil, fmt.Errorf("dconf write: %w", err)
		}
		return nil, s.store("dconf", full, v)
	}
	return nil, fmt.Errorf("dconf: unknown command %q", args[0])
}

func (s *Store) gconftool(args []string) ([]byte, error) {
	switch {
	case len(args) == 2 && args[0] == "--get":
		cur, ok := s.values[args[1]]
		if !ok {
			return nil, nil
		}
		return s.print(args[1], cur, value.Value.Text)
	case len(args) == 5 && args[0] == "--type" && args[2] == "--set":
		cur, ok := s.values[args[3]]
		if !ok {
			return nil, fmt.Errorf("gconftool-2: fake store has no key %s", args[3])
		}
		v, err := value.FromText(cur.Kind(), args[4])
		if err != nil {
			return nil, fmt.Errorf("gconftool-2: %w", err)
		}
		return nil, s.store("gconftool-2", args[3], v)
	}
	return nil, fmt.Errorf("gconftool-2: usage error %v", args)
}

func (s *Store) print(full string, v value.Value, render func(value.Value) string) ([]byte, error) {
	if s.Silent[full] {
		return nil, nil
	}
	return []byte(render(v) + "\n"), nil
}

func (s *Store) store(tool, full string, v value.Value) error {
	if s.DropWrites[tool] {
		return nil
	}
	s.values[full] = v
	return nil
}

// gsettingsText prints v the way gsettings get does: uint32 annotation on
// unsigned values and single quotes around strings.
func gsettingsText(v value.Value) string {
	text, err := gvariant.Format(v)
	if err != nil {
		return strings.TrimSpace(v.Text())
	}
	return text
}
