package command

import (
	"fmt"
	"io"
)

// LookPathFunc resolves a tool name to an executable; exec.LookPath in production.
type LookPathFunc func(file string) (string, error)

// EnsureTools checks that every tool can be found, writing one status line per
// tool to w. The error names the missing tools and wraps ErrLaunch.
func EnsureTools(lookPath LookPathFunc, w io.Writer, tools ...string) error {
	seen := make(map[string]bool, len(tools))
	var missing []string
	for _, tool := range tools {
		if tool == "" || seen[tool] {
			continue
		}
		seen[tool] = true

		p, err := lookPath(tool)
		if err != nil {
			fmt.Fprintf(w, "tool %s: not found\n", tool)
			missing = append(missing, tool)
			continue
		}
		fmt.Fprintf(w, "tool %s: %s\n", tool, p)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v not found in $PATH", ErrLaunch, missing)
	}
	return nil
}
