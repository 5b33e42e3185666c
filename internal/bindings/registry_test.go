package bindings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBindings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bindings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultsWithoutFile(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)

	snap := r.Snapshot()
	assert.Len(t, snap.Bindings, 7)

	b, ok := r.Resolve("emergency-stop")
	require.True(t, ok)
	assert.Equal(t, "emergency-stop", b.Command)
	assert.True(t, b.Confirm)

	b, ok = r.Resolve("start")
	require.True(t, ok)
	assert.False(t, b.Confirm)

	_, ok = r.Resolve("missing")
	assert.False(t, ok)
}

func TestLoadFromFile(t *testing.T) {
	path := writeBindings(t, `actions:
  - action: kill-switch
    command: emergency-stop
    label: Kill Switch
    confirm: true
  - action: go
    command: start
`)
	r, err := NewRegistry(path)
	require.NoError(t, err)

	b, ok := r.Resolve("kill-switch")
	require.True(t, ok)
	assert.Equal(t, "emergency-stop", b.Command)
	assert.Equal(t, "Kill Switch", b.Label)
	assert.True(t, b.Confirm)

	_, ok = r.Resolve("emergency-stop")
	assert.False(t, ok)
}

func TestRejectsUnknownCommand(t *testing.T) {
	path := writeBindings(t, `actions:
  - action: launch
    command: fire-missiles
`)
	_, err := NewRegistry(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestRejectsDuplicateAction(t *testing.T) {
	path := writeBindings(t, `actions:
  - action: go
    command: start
  - action: go
    command: stop
`)
	_, err := NewRegistry(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRejectsSchemaViolations(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing actions key", `other: 1`},
		{"empty actions", `actions: []`},
		{"missing command", "actions:\n  - action: go\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(writeBindings(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)

	snap := r.Snapshot()
	delete(snap.Bindings, "start")

	_, ok := r.Resolve("start")
	assert.True(t, ok)
}
