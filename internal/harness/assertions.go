package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/tasksync/internal/engine"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages. An empty slice means all assertions passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	errs := []string{}
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTask:
			err = assertTask(result, a)
		case AssertAbsent:
			err = assertAbsent(result, a)
		case AssertCount:
			err = assertCount(result, a)
		case AssertStats:
			err = assertStats(result, a)
		case AssertFailed:
			err = assertFailed(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func assertTask(result *Result, a Assertion) error {
	t, ok := result.Task(a.ID)
	if !ok {
		return &AssertionError{
			Type:     AssertTask,
			Expected: fmt.Sprintf("task %s", a.ID),
			Actual:   "not found",
		}
	}
	var remoteID any
	if t.RemoteID != nil {
		remoteID = *t.RemoteID
	}
	return matchFields(AssertTask, "task "+a.ID, a.Expect, map[string]any{
		"title":     t.Title,
		"note":      t.Note,
		"completed": t.Completed,
		"remote_id": remoteID,
		"state":     string(t.State),
	})
}

func assertAbsent(result *Result, a Assertion) error {
	if _, ok := result.Task(a.ID); ok {
		return &AssertionError{
			Type:     AssertAbsent,
			Expected: fmt.Sprintf("no task %s", a.ID),
			Actual:   "task present",
		}
	}
	return nil
}

func assertCount(result *Result, a Assertion) error {
	if len(result.Tasks) != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d tasks", a.Count),
			Actual:   fmt.Sprintf("%d tasks", len(result.Tasks)),
		}
	}
	return nil
}

func assertStats(result *Result, a Assertion) error {
	outcome := result.Steps[a.Step]
	if outcome.Stats == nil {
		return &AssertionError{
			Type:     AssertStats,
			Expected: fmt.Sprintf("step %d to succeed", a.Step),
			Actual:   fmt.Sprintf("failed at %s", outcome.Failed),
		}
	}
	return matchFields(AssertStats, fmt.Sprintf("step %d", a.Step), a.Expect, statsFields(*outcome.Stats))
}

func assertFailed(result *Result, a Assertion) error {
	outcome := result.Steps[a.Step]
	if outcome.Stats != nil {
		return &AssertionError{
			Type:     AssertFailed,
			Expected: fmt.Sprintf("step %d to fail", a.Step),
			Actual:   "succeeded",
		}
	}
	return matchFields(AssertFailed, fmt.Sprintf("step %d", a.Step), a.Expect, map[string]any{
		"stage": outcome.Failed,
	})
}

func statsFields(s engine.Stats) map[string]any {
	return map[string]any{
		"fetched":    s.Fetched,
		"inserted":   s.Inserted,
		"updated":    s.Updated,
		"deleted":    s.Deleted,
		"marked":     s.Marked,
		"unchanged":  s.Unchanged,
		"conflicts":  toList(s.Conflicts),
		"skipped":    toList(s.Skipped),
		"duplicates": toList(s.Duplicates),
	}
}

func toList[T any](xs []T) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// matchFields checks that every expected key is present in actual with an
// equal value. Keys are checked in sorted order so failures are stable.
func matchFields(kind, subject string, expected, actual map[string]any) error {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("%s field %q", subject, k),
				Actual:   "no such field",
			}
		}
		if !valuesEqual(expected[k], got) {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("%s %s=%v", subject, k, expected[k]),
				Actual:   fmt.Sprintf("%s=%v", k, got),
			}
		}
	}
	return nil
}

// valuesEqual compares a YAML-decoded expected value with an actual value.
// Integers compare by value regardless of width; lists compare elementwise.
func valuesEqual(expected, actual any) bool {
	if ei, ok := toInt64(expected); ok {
		ai, ok := toInt64(actual)
		return ok && ei == ai
	}
	if el, ok := expected.([]any); ok {
		al, ok := actual.([]any)
		if !ok || len(el) != len(al) {
			return false
		}
		for i := range el {
			if !valuesEqual(el[i], al[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(expected, actual)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}
