package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ltvpilot/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.App.DataDir = t.TempDir()
	return cfg
}

func TestBuildWiresTheStack(t *testing.T) {
	app, err := buildAppWithWire(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(app.close)

	assert.NotNil(t, app.server)
	assert.NotNil(t, app.Sessions())
	assert.NotNil(t, app.state)
	assert.False(t, app.poller.Running())
	assert.False(t, app.Sessions().Active())
}

func TestBuildWithoutTelegramHasNoMirror(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notify.Telegram.Enabled = false

	app, err := NewAppBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(app.close)
	assert.NotNil(t, app)
}

func TestBuildRejectsNilConfig(t *testing.T) {
	_, err := NewAppBuilder(nil).Build(context.Background())
	require.Error(t, err)

	_, err = NewApp(nil)
	require.Error(t, err)
}

func TestBuildRejectsBadBindingsFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bindings.Path = "/nonexistent/bindings.yaml"

	_, err := NewAppBuilder(cfg).Build(context.Background())
	require.Error(t, err)
}
