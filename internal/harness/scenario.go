package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tasksync/internal/reconcile"
	"github.com/roach88/tasksync/internal/task"
)

// Scenario defines a sync scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy is the merge policy. Empty means reconcile.DefaultPolicy.
	Policy string `yaml:"policy,omitempty"`

	// Local seeds the store before the first step, in order.
	Local []LocalTask `yaml:"local,omitempty"`

	// Steps are the syncs to run, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final store and the step outcomes.
	Assertions []Assertion `yaml:"assertions"`
}

// LocalTask is a record seeded into the store.
type LocalTask struct {
	ID        string `yaml:"id"`
	Title     string `yaml:"title"`
	Note      string `yaml:"note,omitempty"`
	Completed bool   `yaml:"completed,omitempty"`
	RemoteID  *int64 `yaml:"remote_id,omitempty"`

	// Synced marks a linked record as agreeing with the remote when seeded.
	// Unsynced linked records carry no tracking information.
	Synced bool `yaml:"synced,omitempty"`
}

// Step is one sync. Edits are applied to the store before the sync runs.
type Step struct {
	Edits []Edit `yaml:"edits,omitempty"`

	// Remote is the list the fetcher returns. Ignored when Fail is set.
	Remote []task.RemoteTask `yaml:"remote,omitempty"`

	// Fail makes the fetch fail with a transport error.
	Fail bool `yaml:"fail,omitempty"`
}

// Edit changes the set fields of a stored record, as a user would.
type Edit struct {
	ID        string  `yaml:"id"`
	Title     *string `yaml:"title,omitempty"`
	Note      *string `yaml:"note,omitempty"`
	Completed *bool   `yaml:"completed,omitempty"`
}

// Assertion validates the final store or a step outcome.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// ID is the record ID (task, absent).
	ID string `yaml:"id,omitempty"`

	// Step is the zero-based step index (stats, failed).
	Step int `yaml:"step,omitempty"`

	// Count is the expected record count (count).
	Count int `yaml:"count,omitempty"`

	// Expect holds expected values (task, stats, failed). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTask   = "task"
	AssertAbsent = "absent"
	AssertCount  = "count"
	AssertStats  = "stats"
	AssertFailed = "failed"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Policy != "" {
		if _, err := reconcile.ParsePolicy(s.Policy); err != nil {
			return fmt.Errorf("policy: %w", err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	ids := make(map[string]bool, len(s.Local))
	for i, lt := range s.Local {
		if lt.ID == "" {
			return fmt.Errorf("local[%d]: id is required", i)
		}
		if ids[lt.ID] {
			return fmt.Errorf("local[%d]: duplicate id %q", i, lt.ID)
		}
		ids[lt.ID] = true
		if lt.Synced && lt.RemoteID == nil {
			return fmt.Errorf("local[%d]: synced requires remote_id", i)
		}
	}

	for i, step := range s.Steps {
		if step.Fail && len(step.Remote) > 0 {
			return fmt.Errorf("steps[%d]: fail and remote are mutually exclusive", i)
		}
		for j, e := range step.Edits {
			if e.ID == "" {
				return fmt.Errorf("steps[%d].edits[%d]: id is required", i, j)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Steps)); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTask:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for task", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for task", index)
		}
	case AssertAbsent:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for absent", index)
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertStats, AssertFailed:
		if a.Step < 0 || a.Step >= steps {
			return fmt.Errorf("assertions[%d]: step %d out of range", index, a.Step)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
