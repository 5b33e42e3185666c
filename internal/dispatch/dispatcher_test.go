package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ltvpilot/internal/gateway/strategy"
	"ltvpilot/internal/poll"
	"ltvpilot/internal/report"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Initialize(ctx context.Context, initialCapitalUSD float64) error {
	return m.Called(ctx, initialCapitalUSD).Error(0)
}
func (m *mockAPI) Start(ctx context.Context) error           { return m.Called(ctx).Error(0) }
func (m *mockAPI) Stop(ctx context.Context) error            { return m.Called(ctx).Error(0) }
func (m *mockAPI) ManualRebalance(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockAPI) EmergencyStop(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *mockAPI) MarkAlertRead(ctx context.Context, alertID int) error {
	return m.Called(ctx, alertID).Error(0)
}
func (m *mockAPI) UpdateLTVSettings(ctx context.Context, targetMin, targetMax float64) error {
	return m.Called(ctx, targetMin, targetMax).Error(0)
}

type fakeRefresher struct {
	refreshes int
	feeds     []poll.Feed
}

func (f *fakeRefresher) Refresh(ctx context.Context) { f.refreshes++ }
func (f *fakeRefresher) RefreshFeed(ctx context.Context, feed poll.Feed) {
	f.feeds = append(f.feeds, feed)
}

func newDispatcher(t *testing.T) (*Dispatcher, *mockAPI, *fakeRefresher, *report.Reporter) {
	t.Helper()
	api := &mockAPI{}
	poller := &fakeRefresher{}
	reporter := report.NewReporter()
	return NewDispatcher(api, poller, reporter), api, poller, reporter
}

func capital(v float64) *float64 { return &v }

func TestInitializeBelowMinimumStaysLocal(t *testing.T) {
	d, api, poller, reporter := newDispatcher(t)

	err := d.Dispatch(context.Background(), Request{Command: CmdInitialize, InitialCapitalUSD: capital(50)})
	require.ErrorIs(t, err, ErrValidation)

	api.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
	assert.Zero(t, poller.refreshes)
	notice := reporter.Latest()
	require.NotNil(t, notice)
	assert.Equal(t, report.KindError, notice.Kind)
	assert.Equal(t, "Initial capital must be at least $100", notice.Message)
}

func TestInitializeAtOrAboveMinimumIsSent(t *testing.T) {
	d, api, poller, reporter := newDispatcher(t)
	api.On("Initialize", mock.Anything, 150.0).Return(nil)

	require.NoError(t, d.Dispatch(context.Background(), Request{Command: CmdInitialize, InitialCapitalUSD: capital(150)}))

	api.AssertExpectations(t)
	assert.Equal(t, 1, poller.refreshes)
	notice := reporter.Latest()
	require.NotNil(t, notice)
	assert.Equal(t, report.KindSuccess, notice.Kind)
	assert.Equal(t, "Portfolio initialized", notice.Message)
}

func TestEmergencyStopRequiresConfirmation(t *testing.T) {
	d, api, poller, reporter := newDispatcher(t)

	err := d.Dispatch(context.Background(), Request{Command: CmdEmergencyStop})
	require.ErrorIs(t, err, ErrConfirmationRequired)

	api.AssertNotCalled(t, "EmergencyStop", mock.Anything)
	assert.Zero(t, poller.refreshes)
	// Declining is a no-op: no user-facing notice either.
	assert.Nil(t, reporter.Latest())
}

func TestEmergencyStopConfirmed(t *testing.T) {
	d, api, poller, _ := newDispatcher(t)
	api.On("EmergencyStop", mock.Anything).Return(nil)

	require.NoError(t, d.Dispatch(context.Background(), Request{Command: CmdEmergencyStop, Confirmed: true}))
	api.AssertExpectations(t)
	assert.Equal(t, 1, poller.refreshes)
}

func TestServerErrorMessageSurfaced(t *testing.T) {
	d, api, poller, reporter := newDispatcher(t)
	api.On("Start", mock.Anything).Return(&strategy.APIError{StatusCode: 400, Message: "portfolio not initialized"})

	err := d.Dispatch(context.Background(), Request{Command: CmdStart})
	require.Error(t, err)

	assert.Zero(t, poller.refreshes)
	notice := reporter.Latest()
	require.NotNil(t, notice)
	assert.Equal(t, report.KindError, notice.Kind)
	assert.Equal(t, "portfolio not initialized", notice.Message)
}

func TestServerErrorWithoutMessageUsesFallback(t *testing.T) {
	d, api, _, reporter := newDispatcher(t)
	api.On("Stop", mock.Anything).Return(&strategy.APIError{StatusCode: 500})

	require.Error(t, d.Dispatch(context.Background(), Request{Command: CmdStop}))
	notice := reporter.Latest()
	require.NotNil(t, notice)
	assert.Equal(t, "Failed to stop automation", notice.Message)
}

func TestAlertReadRefreshesAlertsFeedOnly(t *testing.T) {
	d, api, poller, _ := newDispatcher(t)
	api.On("MarkAlertRead", mock.Anything, 7).Return(nil)

	require.NoError(t, d.Dispatch(context.Background(), Request{Command: CmdAlertRead, AlertID: 7}))
	assert.Zero(t, poller.refreshes)
	assert.Equal(t, []poll.Feed{poll.FeedAlerts}, poller.feeds)
}

func TestLTVSettingsValidation(t *testing.T) {
	cases := []struct {
		name     string
		min, max float64
		valid    bool
	}{
		{"normal band", 0.50, 0.65, true},
		{"max at cap", 0.55, 0.70, true},
		{"zero min", 0, 0.65, false},
		{"min above max", 0.66, 0.65, false},
		{"min equals max", 0.65, 0.65, false},
		{"max above cap", 0.50, 0.75, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, api, _, _ := newDispatcher(t)
			if tc.valid {
				api.On("UpdateLTVSettings", mock.Anything, tc.min, tc.max).Return(nil)
			}
			err := d.Dispatch(context.Background(), Request{Command: CmdLTVSettings, TargetLTVMin: tc.min, TargetLTVMax: tc.max})
			if tc.valid {
				require.NoError(t, err)
				api.AssertExpectations(t)
			} else {
				require.ErrorIs(t, err, ErrValidation)
				api.AssertNotCalled(t, "UpdateLTVSettings", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUnknownCommandRejected(t *testing.T) {
	d, _, _, _ := newDispatcher(t)
	err := d.Dispatch(context.Background(), Request{Command: Command("self-destruct")})
	require.ErrorIs(t, err, ErrValidation)
	assert.False(t, Known(Command("self-destruct")))
	assert.True(t, Known(CmdRebalance))
}
