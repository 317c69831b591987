package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tasksync/internal/engine"
	"github.com/roach88/tasksync/internal/task"
)

func sampleResult() *Result {
	r := NewResult()
	r.Steps = []StepOutcome{
		{Stats: &engine.Stats{Fetched: 2, Inserted: 1, Conflicts: []string{"A"}, Skipped: []int64{4}}},
		{Failed: "fetch"},
	}
	r.Tasks = []TaskSnapshot{
		{ID: "A", Title: "Buy milk", RemoteID: task.RemoteIDPtr(7), State: task.StateLocallyModified},
		{ID: "B", Title: "Personal note", Note: "n", State: task.StateLocalOnly},
	}
	return r
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertTask, ID: "A", Expect: map[string]any{"title": "Buy milk", "remote_id": 7, "state": "locally-modified"}},
		{Type: AssertTask, ID: "B", Expect: map[string]any{"remote_id": nil, "note": "n", "completed": false}},
		{Type: AssertAbsent, ID: "C"},
		{Type: AssertCount, Count: 2},
		{Type: AssertStats, Step: 0, Expect: map[string]any{
			"fetched":    2,
			"inserted":   1,
			"conflicts":  []any{"A"},
			"skipped":    []any{4},
			"duplicates": []any{},
		}},
		{Type: AssertFailed, Step: 1, Expect: map[string]any{"stage": "fetch"}},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"task missing", Assertion{Type: AssertTask, ID: "Z", Expect: map[string]any{"title": "x"}}, "not found"},
		{"task field differs", Assertion{Type: AssertTask, ID: "A", Expect: map[string]any{"title": "Buy bread"}}, "title=Buy milk"},
		{"unknown field", Assertion{Type: AssertTask, ID: "A", Expect: map[string]any{"due": "today"}}, "no such field"},
		{"absent but present", Assertion{Type: AssertAbsent, ID: "A"}, "task present"},
		{"count", Assertion{Type: AssertCount, Count: 3}, "Actual: 2 tasks"},
		{"stats on failed step", Assertion{Type: AssertStats, Step: 1, Expect: map[string]any{"fetched": 0}}, "failed at fetch"},
		{"stats differ", Assertion{Type: AssertStats, Step: 0, Expect: map[string]any{"inserted": 0}}, "inserted=1"},
		{"conflict list differs", Assertion{Type: AssertStats, Step: 0, Expect: map[string]any{"conflicts": []any{}}}, "conflicts"},
		{"failed on ok step", Assertion{Type: AssertFailed, Step: 0, Expect: map[string]any{"stage": "fetch"}}, "succeeded"},
		{"unknown type", Assertion{Type: "trace_order"}, "unknown assertion type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
			assert.Contains(t, errs[0], "assertion 0")
		})
	}
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
		want     bool
	}{
		{"int vs int", 3, 3, true},
		{"int vs int64", 7, int64(7), true},
		{"int vs string", 7, "7", false},
		{"strings", "a", "a", true},
		{"bools", true, false, false},
		{"nil vs nil", nil, nil, true},
		{"nil vs int64", nil, int64(1), false},
		{"lists", []any{1, 2}, []any{int64(1), int64(2)}, true},
		{"list lengths", []any{1}, []any{}, false},
		{"list vs scalar", []any{1}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.expected, tt.actual))
		})
	}
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{Type: AssertCount, Expected: "2 tasks", Actual: "3 tasks"}
	assert.Equal(t, "Assertion failed: count\n  Expected: 2 tasks\n  Actual: 3 tasks", err.Error())
}

func TestMarshalSnapshot_NullRemoteAndOmittedStats(t *testing.T) {
	r := NewResult()
	r.Steps = []StepOutcome{{Failed: "fetch"}}
	r.Tasks = []TaskSnapshot{{ID: "A", Title: "t", State: task.StateLocalOnly}}

	data, err := MarshalSnapshot("s", r)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"failed": "fetch"`)
	assert.NotContains(t, out, `"stats"`)
	assert.Contains(t, out, `"remote_id": null`)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}
