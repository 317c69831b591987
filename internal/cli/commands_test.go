package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tasksync/internal/engine"
	"github.com/roach88/tasksync/internal/task"
	"github.com/roach88/tasksync/internal/testutil"
)

const remoteFixture = `
todos:
  - id: 1
    todo: Do something nice for someone you care about
    completed: false
    userId: 152
  - id: 7
    todo: Buy milk
    completed: true
    userId: 13
total: 2
skip: 0
limit: 30
`

// cliEnv runs commands against one temp database with deterministic IDs
// and versions.
type cliEnv struct {
	dir    string
	db     string
	source string
	ids    *task.SequenceGenerator
	clock  *testutil.DeterministicClock
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, key := range []string{"DATABASE", "ENDPOINT", "SOURCE", "TIMEOUT", "POLICY", "LOCK_FILE"} {
		t.Setenv("TASKSYNC_"+key, "")
	}

	env := &cliEnv{
		dir:    dir,
		db:     filepath.Join(dir, "tasks.db"),
		source: filepath.Join(dir, "todos.yaml"),
		ids:    task.NewSequenceGenerator("t"),
		clock:  testutil.NewDeterministicClock(),
	}
	env.setRemote(t, remoteFixture)
	return env
}

func (e *cliEnv) setRemote(t *testing.T, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(e.source, []byte(doc), 0o644))
}

func (e *cliEnv) run(args ...string) (stdout, stderr string, code int) {
	opts := &RootOptions{IDs: e.ids, Clock: e.clock}
	cmd := newRootCommand(opts)
	cmd.SetArgs(append([]string{"--db", e.db, "--source", e.source}, args...))

	var out, errOut bytes.Buffer
	code = run(cmd, opts, &out, &errOut)
	return out.String(), errOut.String(), code
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, code := e.run(args...)
	require.Equal(t, ExitSuccess, code, "args %v failed\nstdout: %s\nstderr: %s", args, stdout, stderr)
	return stdout
}

type listResponse struct {
	Status  string     `json:"status"`
	Data    []taskView `json:"data"`
	Warning string     `json:"warning"`
}

func (e *cliEnv) listJSON(t *testing.T, args ...string) listResponse {
	t.Helper()
	out := e.mustRun(t, append([]string{"--format", "json", "list"}, args...)...)
	var resp listResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestAddAndList(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "add", "Buy", "bread", "--note", "sourdough", "--due", "2025-08-01")
	assert.Contains(t, out, "Added t-1")
	assert.Contains(t, out, "[ ] Buy bread  (local)")

	out = env.mustRun(t, "list")
	assert.Contains(t, out, "Buy bread")

	resp := env.listJSON(t)
	require.Len(t, resp.Data, 1)
	got := resp.Data[0]
	assert.Equal(t, "t-1", got.ID)
	assert.Equal(t, "sourdough", got.Note)
	assert.Equal(t, task.StateLocalOnly, got.State)
	assert.Nil(t, got.RemoteID)
	assert.Equal(t, "2025-08-01", got.DueDate.Local().Format("2006-01-02"))
}

func TestList_Empty(t *testing.T) {
	env := newCLIEnv(t)

	assert.Equal(t, "No tasks.\n", env.mustRun(t, "list"))
}

func TestAdd_RejectsBlankTitle(t *testing.T) {
	env := newCLIEnv(t)

	_, stderr, code := env.run("add", "   ")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "failed to add task")
}

func TestAdd_RejectsBadDueDate(t *testing.T) {
	env := newCLIEnv(t)

	_, stderr, code := env.run("add", "Buy milk", "--due", "tomorrow")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "invalid due date")
}

func TestSync(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "add", "Personal note")

	out := env.mustRun(t, "sync")
	assert.Contains(t, out, "Synced 2 remote tasks: 2 added, 0 updated, 0 removed, 0 unchanged.")
	assert.Contains(t, out, "3 tasks stored.")

	resp := env.listJSON(t)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, task.StateLocalOnly, resp.Data[0].State)
	assert.Equal(t, "Do something nice for someone you care about", resp.Data[1].Title)
	assert.Equal(t, task.StateInSync, resp.Data[1].State)
	assert.True(t, resp.Data[2].Completed)

	// Second sync with the same list changes nothing.
	out = env.mustRun(t, "sync")
	assert.Contains(t, out, "0 added, 0 updated, 0 removed, 2 unchanged.")

	// Remote drops task 7.
	env.setRemote(t, "todos:\n  - id: 1\n    todo: Do something nice for someone you care about\n    completed: true\n")
	out = env.mustRun(t, "sync")
	assert.Contains(t, out, "0 added, 1 updated, 1 removed, 0 unchanged.")
	assert.Len(t, env.listJSON(t).Data, 2)
}

func TestSync_FetchFailureLeavesStoreUntouched(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "sync")
	before := env.listJSON(t)

	require.NoError(t, os.Remove(env.source))
	_, stderr, code := env.run("sync")

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "could not fetch remote tasks; local tasks unchanged")
	assert.Equal(t, before, env.listJSON(t))
}

func TestSync_MalformedSource(t *testing.T) {
	env := newCLIEnv(t)
	env.setRemote(t, "todos:\n  - id: 1\n    title: wrong key\n")

	_, stderr, code := env.run("sync")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "decode")
}

func TestListSync_FallsBackToLocal(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "add", "Personal note")
	require.NoError(t, os.Remove(env.source))

	stdout, stderr, code := env.run("list", "--sync")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Personal note")
	assert.Contains(t, stderr, "Warning: could not fetch remote tasks")

	resp := env.listJSON(t, "--sync")
	assert.Len(t, resp.Data, 1)
	assert.Contains(t, resp.Warning, "could not fetch remote tasks")
}

func TestListSync_Success(t *testing.T) {
	env := newCLIEnv(t)

	resp := env.listJSON(t, "--sync")
	assert.Len(t, resp.Data, 2)
	assert.Empty(t, resp.Warning)
}

func TestList_Filters(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "sync")

	pending := env.listJSON(t, "--pending")
	require.Len(t, pending.Data, 1)
	assert.False(t, pending.Data[0].Completed)

	done := env.listJSON(t, "--done")
	require.Len(t, done.Data, 1)
	assert.True(t, done.Data[0].Completed)

	_, _, code := env.run("list", "--pending", "--done")
	assert.Equal(t, ExitCommandError, code)
}

func TestList_Search(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "sync")
	env.mustRun(t, "add", "Buy bread")

	resp := env.listJSON(t, "--search", "BUY")
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Buy milk", resp.Data[0].Title)
	assert.Equal(t, "Buy bread", resp.Data[1].Title)

	resp = env.listJSON(t, "--search", "milk", "--done")
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Buy milk", resp.Data[0].Title)

	resp = env.listJSON(t, "-s", "bread", "--done")
	assert.Empty(t, resp.Data)

	out := env.mustRun(t, "list", "--search", "nothing like this")
	assert.Equal(t, "No tasks.\n", out)
}

func TestEditToggleDelete(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "add", "Buy milk")

	out := env.mustRun(t, "edit", "t-1", "--title", "Buy oat milk", "--note", "2 litres")
	assert.Contains(t, out, "Updated t-1")
	assert.Contains(t, out, "Buy oat milk")

	out = env.mustRun(t, "show", "t-1")
	assert.Contains(t, out, "Title:     Buy oat milk\n")
	assert.Contains(t, out, "Note:      2 litres\n")
	assert.Contains(t, out, "State:     local-only\n")

	out = env.mustRun(t, "toggle", "t-1")
	assert.Contains(t, out, "Completed t-1")
	assert.Contains(t, out, "[x]")

	out = env.mustRun(t, "toggle", "t-1")
	assert.Contains(t, out, "Reopened t-1")

	out = env.mustRun(t, "delete", "t-1")
	assert.Equal(t, "Deleted t-1\n", out)

	_, stderr, code := env.run("show", "t-1")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, `task "t-1" not found`)
}

func TestEdit_RequiresAField(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "add", "Buy milk")

	_, stderr, code := env.run("edit", "t-1")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "nothing to change")
}

func TestEdit_ClearsNote(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "add", "Buy milk", "--note", "oat")

	env.mustRun(t, "edit", "t-1", "--note", "")

	resp := env.listJSON(t)
	require.Len(t, resp.Data, 1)
	assert.Empty(t, resp.Data[0].Note)
}

func TestResolveTask_Prefix(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "add", "first")
	env.mustRun(t, "add", "second")

	out := env.mustRun(t, "show", "t-2")
	assert.Contains(t, out, "Title:     second")

	_, stderr, code := env.run("show", "t-")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "ambiguous")
}

func TestSync_LocalEditSurvivesUnderLastWriteWins(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "sync")

	env.mustRun(t, "edit", "t-2", "--title", "Buy oat milk")

	out := env.mustRun(t, "sync")
	assert.Contains(t, out, "Kept 1 local edit(s) that differ from the remote: t-2")

	out = env.mustRun(t, "show", "t-2")
	assert.Contains(t, out, "Title:     Buy oat milk")
	assert.Contains(t, out, "State:     locally-modified")

	out = env.mustRun(t, "--policy", "remote-wins", "sync")
	assert.Contains(t, out, "1 updated")
	out = env.mustRun(t, "show", "t-2")
	assert.Contains(t, out, "Title:     Buy milk")
}

func TestStatus(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "status")
	assert.Contains(t, out, "Last sync:  never")
	assert.Contains(t, out, "Remote:     "+env.source)

	env.mustRun(t, "add", "Personal note")
	env.mustRun(t, "sync")

	raw := env.mustRun(t, "--format", "json", "status")
	var resp struct {
		Status string     `json:"status"`
		Data   statusView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.LocalOnly)
	assert.Equal(t, 2, resp.Data.InSync)
	assert.Equal(t, 1, resp.Data.Completed)
	assert.Equal(t, env.db, resp.Data.Database)
	assert.False(t, resp.Data.LastSyncAt.IsZero())
}

func TestInvalidFormat(t *testing.T) {
	env := newCLIEnv(t)

	_, stderr, code := env.run("--format", "xml", "list")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, `invalid format "xml"`)
}

func TestUnknownCommand(t *testing.T) {
	env := newCLIEnv(t)

	_, _, code := env.run("frobnicate")
	assert.Equal(t, ExitCommandError, code)
}

func TestInvalidPolicy(t *testing.T) {
	env := newCLIEnv(t)

	_, stderr, code := env.run("--policy", "newest-wins", "sync")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "failed to load config")
}

func TestPolicyFlagOverridesInvalidConfigFile(t *testing.T) {
	env := newCLIEnv(t)
	cfgPath := filepath.Join(env.dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("policy: newest\n"), 0o644))

	_, stderr, code := env.run("--config", cfgPath, "sync")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "failed to load config")

	out := env.mustRun(t, "--config", cfgPath, "--policy", "remote-wins", "sync")
	assert.Contains(t, out, "Synced 2 remote tasks: 2 added")

	out = env.mustRun(t, "--config", cfgPath, "--policy", "remote-wins", "status")
	assert.Contains(t, out, "Policy:     remote-wins")
}

func TestJSONErrorOutput(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, code := env.run("--format", "json", "show", "missing")
	assert.Equal(t, ExitFailure, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ExitFailure, resp.Error.Code)
}

func TestSyncExitError(t *testing.T) {
	assert.Equal(t, "another sync is running: sync already in progress",
		syncExitError(engine.ErrSyncInProgress).Error())
}
