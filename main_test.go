package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assignment-planner/pkg/assignments"
	"assignment-planner/pkg/persist"
)

const sampleCSV = "title,course,dueDate,dueTime,priority,status,estimateHours,remindAheadMinutes,notes\n" +
	"Essay,History,2030-06-14,18:00,High,todo,2,60,\n" +
	"Lab report,Physics,2030-06-20,,Low,doing,1,,bring goggles\n"

type cliHarness struct {
	fs     afero.Fs
	db     string
	driver string
}

func newCLIHarness(t *testing.T, driver string) *cliHarness {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "in.csv", []byte(sampleCSV), 0o644))
	return &cliHarness{
		fs:     fs,
		db:     filepath.Join(t.TempDir(), "planner.db"),
		driver: driver,
	}
}

func (h *cliHarness) run(args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	full := append([]string{"planner", "--store", h.driver, "--db", h.db}, args...)
	err := run(full, h.fs, &stdout, &stderr)
	return stdout.String(), err
}

func (h *cliHarness) state(t *testing.T) *persist.State {
	t.Helper()
	store, err := persist.Open(h.driver, h.db)
	require.NoError(t, err)
	defer store.Close()
	state, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, state)
	return state
}

func TestCLI_ImportListExport(t *testing.T) {
	for _, driver := range []string{"sqlite", "bolt"} {
		t.Run(driver, func(t *testing.T) {
			h := newCLIHarness(t, driver)

			out, err := h.run("import", "in.csv")
			require.NoError(t, err)
			assert.Equal(t, "Imported 2 assignments from in.csv\n", out)

			state := h.state(t)
			require.Len(t, state.Items, 2)
			assert.Equal(t, "Essay", state.Items[0].Title)
			assert.True(t, state.Items[0].RemindAhead.Enabled())
			assert.False(t, state.Items[1].RemindAhead.Enabled())

			out, err = h.run("list")
			require.NoError(t, err)
			assert.Contains(t, out, "Essay")
			assert.Contains(t, out, "Lab report")
			assert.Contains(t, out, "1h before")

			out, err = h.run("list", "--course", "Physics")
			require.NoError(t, err)
			assert.NotContains(t, out, "Essay")
			assert.Contains(t, out, "Lab report")

			out, err = h.run("export")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, strings.Join(assignments.CSVHeaders, ",")+"\n"))
			assert.Contains(t, out, "bring goggles")

			out, err = h.run("export", "out.csv")
			require.NoError(t, err)
			assert.Equal(t, "Exported to out.csv\n", out)
			data, err := afero.ReadFile(h.fs, "out.csv")
			require.NoError(t, err)
			assert.Contains(t, string(data), "Lab report")
		})
	}
}

func TestCLI_ICS(t *testing.T) {
	h := newCLIHarness(t, "sqlite")
	_, err := h.run("import", "in.csv")
	require.NoError(t, err)
	id := h.state(t).Items[0].ID

	out, err := h.run("ics", id)
	require.NoError(t, err)
	assert.Equal(t, "Wrote assignment_essay.ics\n", out)
	data, err := afero.ReadFile(h.fs, "assignment_essay.ics")
	require.NoError(t, err)
	assert.Contains(t, string(data), "UID:"+id+"@assignment-planner\r\n")

	_, err = h.run("ics", id, "essay.ics")
	require.NoError(t, err)
	ok, err := afero.Exists(h.fs, "essay.ics")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = h.run("ics", "asg_missing")
	assert.Error(t, err)
}

func TestCLI_EmptyList(t *testing.T) {
	h := newCLIHarness(t, "sqlite")
	out, err := h.run("list")
	require.NoError(t, err)
	assert.Equal(t, "planner: no assignments found\n", out)
}

func TestCLI_Errors(t *testing.T) {
	h := newCLIHarness(t, "sqlite")

	_, err := h.run("import")
	assert.Error(t, err)

	_, err = h.run("import", "missing.csv")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(h.fs, "empty.csv", []byte("title,course\n"), 0o644))
	_, err = h.run("import", "empty.csv")
	assert.ErrorIs(t, err, assignments.ErrNoRows)

	_, err = h.run("ics")
	assert.Error(t, err)

	h.driver = "postgres"
	_, err = h.run("list")
	assert.ErrorIs(t, err, persist.ErrUnknownDriver)
}

func TestCLI_LogFile(t *testing.T) {
	h := newCLIHarness(t, "sqlite")
	_, err := h.run("--log-file", "planner.log", "list")
	require.NoError(t, err)

	data, err := afero.ReadFile(h.fs, "planner.log")
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] Loaded planner state")
}

func TestPrintList_Badges(t *testing.T) {
	now := time.Date(2030, 6, 14, 12, 0, 0, 0, time.Local)
	items := []*assignments.Assignment{
		{ID: "asg_1", Title: "Quiz", DueDate: "2030-06-14", DueTime: "10:00", Status: assignments.StatusTodo, RemindAhead: assignments.NoReminder()},
		{ID: "asg_2", Title: "Essay", DueDate: "2030-06-14", DueTime: "15:00", Status: assignments.StatusTodo, RemindAhead: assignments.RemindBefore(60)},
		{ID: "asg_3", Title: "Old", DueDate: "2030-06-01", Status: assignments.StatusDone, RemindAhead: assignments.NoReminder()},
	}
	var buf bytes.Buffer
	require.NoError(t, printList(&buf, items, now))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "(Overdue)")
	assert.Contains(t, lines[2], "(Due soon)")
	assert.Contains(t, lines[2], "1h before")
	assert.NotContains(t, lines[3], "Overdue")
	assert.Contains(t, lines[3], "Done")
}
