package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := `
name: test_scenario
description: "Test scenario for validation"
policy: remote-wins
local:
  - id: A
    title: Buy milk
    remote_id: 7
    synced: true
steps:
  - edits:
      - {id: A, completed: true}
    remote:
      - {id: 7, todo: Buy milk, completed: false, userId: 3}
  - fail: true
assertions:
  - type: task
    id: A
    expect: {completed: false}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "remote-wins", scenario.Policy)
	require.Len(t, scenario.Local, 1)
	require.NotNil(t, scenario.Local[0].RemoteID)
	assert.Equal(t, int64(7), *scenario.Local[0].RemoteID)
	assert.True(t, scenario.Local[0].Synced)

	require.Len(t, scenario.Steps, 2)
	require.Len(t, scenario.Steps[0].Edits, 1)
	assert.Nil(t, scenario.Steps[0].Edits[0].Title)
	require.NotNil(t, scenario.Steps[0].Edits[0].Completed)
	assert.True(t, *scenario.Steps[0].Edits[0].Completed)
	require.Len(t, scenario.Steps[0].Remote, 1)
	assert.Equal(t, "Buy milk", scenario.Steps[0].Remote[0].Title)
	assert.Equal(t, int64(3), scenario.Steps[0].Remote[0].UserID)
	assert.True(t, scenario.Steps[1].Fail)

	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, false, scenario.Assertions[0].Expect["completed"])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: x
description: y
flow_token: abc
steps:
  - remote: []
assertions:
  - type: count
    count: 0
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse scenario YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nsteps: [{remote: []}]\nassertions: [{type: count}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nsteps: [{remote: []}]\nassertions: [{type: count}]\n",
			wantErr: "description is required",
		},
		{
			name:    "bad policy",
			yaml:    "name: n\ndescription: d\npolicy: newest\nsteps: [{remote: []}]\nassertions: [{type: count}]\n",
			wantErr: "policy",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\nassertions: [{type: count}]\n",
			wantErr: "steps list is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: n\ndescription: d\nsteps: [{remote: []}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "local without id",
			yaml:    "name: n\ndescription: d\nlocal: [{title: t}]\nsteps: [{remote: []}]\nassertions: [{type: count}]\n",
			wantErr: "local[0]: id is required",
		},
		{
			name:    "duplicate local id",
			yaml:    "name: n\ndescription: d\nlocal: [{id: A, title: t}, {id: A, title: u}]\nsteps: [{remote: []}]\nassertions: [{type: count}]\n",
			wantErr: "duplicate id",
		},
		{
			name:    "synced without remote id",
			yaml:    "name: n\ndescription: d\nlocal: [{id: A, title: t, synced: true}]\nsteps: [{remote: []}]\nassertions: [{type: count}]\n",
			wantErr: "synced requires remote_id",
		},
		{
			name:    "fail with remote",
			yaml:    "name: n\ndescription: d\nsteps: [{fail: true, remote: [{id: 1, todo: x}]}]\nassertions: [{type: count}]\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "edit without id",
			yaml:    "name: n\ndescription: d\nsteps: [{edits: [{title: x}]}]\nassertions: [{type: count}]\n",
			wantErr: "steps[0].edits[0]: id is required",
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: n\ndescription: d\nsteps: [{remote: []}]\nassertions: [{type: trace_order}]\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "task without expect",
			yaml:    "name: n\ndescription: d\nsteps: [{remote: []}]\nassertions: [{type: task, id: A}]\n",
			wantErr: "expect is required for task",
		},
		{
			name:    "stats step out of range",
			yaml:    "name: n\ndescription: d\nsteps: [{remote: []}]\nassertions: [{type: stats, step: 1, expect: {fetched: 0}}]\n",
			wantErr: "step 1 out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
