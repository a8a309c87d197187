// Package harness registers round-trip scenarios and runs them against a
// verifier, collecting a report and recording it to history.
package harness

import (
	"fmt"

	"github.com/kalambet/mkdgcheck/internal/schema"
	"github.com/kalambet/mkdgcheck/internal/verify"
)

// Suite is an ordered set of uniquely named scenarios.
type Suite struct {
	scenarios []verify.Scenario
	index     map[string]int
}

func NewSuite() *Suite {
	return &Suite{index: make(map[string]int)}
}

// Add registers sc. Names must be unique.
func (s *Suite) Add(sc verify.Scenario) error {
	if sc.Name == "" {
		return fmt.Errorf("scenario for key %q has no name", sc.Key)
	}
	if _, dup := s.index[sc.Name]; dup {
		return fmt.Errorf("scenario %q registered twice", sc.Name)
	}
	s.index[sc.Name] = len(s.scenarios)
	s.scenarios = append(s.scenarios, sc)
	return nil
}

// FromSchema registers one scenario per schema key that names one.
func FromSchema(sch *schema.Schema) (*Suite, error) {
	s := NewSuite()
	for _, k := range sch.Keys {
		if k.Scenario == "" {
			continue
		}
		if err := s.Add(verify.Scenario{Name: k.Scenario, Key: k.Name, Kind: k.Kind}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Scenarios returns every registered scenario in registration order.
func (s *Suite) Scenarios() []verify.Scenario {
	out := make([]verify.Scenario, len(s.scenarios))
	copy(out, s.scenarios)
	return out
}

// Select returns the named scenarios in registration order, or all of them
// when names is empty.
func (s *Suite) Select(names []string) ([]verify.Scenario, error) {
	if len(names) == 0 {
		return s.Scenarios(), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := s.index[n]; !ok {
			return nil, fmt.Errorf("unknown scenario %q", n)
		}
		want[n] = true
	}
	var out []verify.Scenario
	for _, sc := range s.scenarios {
		if want[sc.Name] {
			out = append(out, sc)
		}
	}
	return out, nil
}
