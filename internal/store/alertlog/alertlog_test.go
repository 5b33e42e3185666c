package alertlog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "alerts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMarkNotifiedOnce(t *testing.T) {
	s := openTestStore(t)

	fresh, err := s.MarkNotified(1, "critical", "LTV breach")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.MarkNotified(1, "critical", "LTV breach")
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestSeen(t *testing.T) {
	s := openTestStore(t)

	seen, err := s.Seen(42)
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = s.MarkNotified(42, "error", "boom")
	require.NoError(t, err)

	seen, err = s.Seen(42)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.MarkNotified(7, "error", "boom")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	fresh, err := s.MarkNotified(7, "error", "boom")
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}
