package strategy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ltvpilot/internal/config"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

type capturedRequest struct {
	method string
	path   string
	query  string
	header http.Header
}

// fakeService records every request and plays back canned responses
// keyed by path.
type fakeService struct {
	mu        sync.Mutex
	requests  []capturedRequest
	responses map[string]func(w http.ResponseWriter)
}

func newFakeService() *fakeService {
	return &fakeService{responses: map[string]func(w http.ResponseWriter){}}
}

func (f *fakeService) respond(path string, status int, body string) {
	f.responses[path] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, capturedRequest{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.RawQuery,
		header: r.Header.Clone(),
	})
	handler := f.responses[r.URL.Path]
	f.mu.Unlock()
	if handler == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	handler(w)
}

func (f *fakeService) last() capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return capturedRequest{}
	}
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c, err := NewClient(config.APIConfig{BaseURL: srv.URL + "/api", TimeoutSeconds: 5}, staticTokens(token))
	require.NoError(t, err)
	c.SetHTTPClient(srv.Client())
	return c
}

func TestLoginParsesResult(t *testing.T) {
	svc := newFakeService()
	svc.respond("/api/auth/login", http.StatusOK, `{"access_token":"tok-1","user_id":7,"username":"alice"}`)
	srv := httptest.NewServer(svc)
	defer srv.Close()
	c := newTestClient(t, srv, "")

	res, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.AccessToken)
	assert.Equal(t, 7, res.UserID)
	assert.Equal(t, "alice", res.Username)

	req := svc.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "application/json", req.header.Get("Content-Type"))
	assert.Empty(t, req.header.Get("Authorization"))
	assert.NotEmpty(t, req.header.Get("X-Client-ID"))
}

func TestLoginRejectsMissingToken(t *testing.T) {
	svc := newFakeService()
	svc.respond("/api/auth/login", http.StatusOK, `{"user_id":7}`)
	srv := httptest.NewServer(svc)
	defer srv.Close()
	c := newTestClient(t, srv, "")

	_, err := c.Login(context.Background(), "alice", "secret")
	require.Error(t, err)
}

func TestAuthenticatedRequestsCarryBearerToken(t *testing.T) {
	svc := newFakeService()
	svc.respond("/api/portfolio/status", http.StatusOK, `{"status":"active","current_ltv":0.55}`)
	srv := httptest.NewServer(svc)
	defer srv.Close()
	c := newTestClient(t, srv, "tok-xyz")

	snap, err := c.PortfolioStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusActive, snap.Status)
	assert.Equal(t, "Bearer tok-xyz", svc.last().header.Get("Authorization"))
}

func TestPortfolioStatusMapsNotFound(t *testing.T) {
	svc := newFakeService()
	svc.respond("/api/portfolio/status", http.StatusNotFound, `{"error":"Portfolio not found"}`)
	srv := httptest.NewServer(svc)
	defer srv.Close()
	c := newTestClient(t, srv, "tok")

	snap, err := c.PortfolioStatus(context.Background())
	assert.Nil(t, snap)
	require.ErrorIs(t, err, ErrPortfolioNotFound)
}

func TestErrorBodyMessageExtraction(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"error key", `{"error":"Insufficient funds"}`, "Insufficient funds"},
		{"message key", `{"message":"nope"}`, "nope"},
		{"detail key", `{"detail":"bad request"}`, "bad request"},
		{"no body", ``, "strategy service returned 500"},
		{"non-json body", `upstream exploded`, "strategy service returned 500"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newFakeService()
			svc.respond("/api/portfolio/start", http.StatusInternalServerError, tc.body)
			srv := httptest.NewServer(svc)
			defer srv.Close()
			c := newTestClient(t, srv, "tok")

			err := c.Start(context.Background())
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestTransactionsEnvelope(t *testing.T) {
	svc := newFakeService()
	svc.respond("/api/transactions", http.StatusOK, `{"transactions":[{"id":1,"type":"rebalance","usd_value":120.5}]}`)
	srv := httptest.NewServer(svc)
	defer srv.Close()
	c := newTestClient(t, srv, "tok")

	txs, err := c.Transactions(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "rebalance", txs[0].Type)
	assert.Equal(t, "per_page=25", svc.last().query)
}

func TestAlertsEnvelope(t *testing.T) {
	svc := newFakeService()
	svc.respond("/api/alerts", http.StatusOK, `{"alerts":[{"id":3,"severity":"critical","title":"LTV breach"}]}`)
	srv := httptest.NewServer(svc)
	defer srv.Close()
	c := newTestClient(t, srv, "tok")

	alerts, err := c.Alerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].HighSeverity())
}

func TestMarkAlertReadPath(t *testing.T) {
	svc := newFakeService()
	svc.respond("/api/alerts/9/read", http.StatusOK, `{"status":"ok"}`)
	srv := httptest.NewServer(svc)
	defer srv.Close()
	c := newTestClient(t, srv, "tok")

	require.NoError(t, c.MarkAlertRead(context.Background(), 9))
	req := svc.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api/alerts/9/read", req.path)
}

func TestUserMessageHelpers(t *testing.T) {
	apiErr := &APIError{StatusCode: 400, Message: "server says no"}
	assert.Equal(t, "server says no", UserMessage(apiErr, "fallback"))
	assert.Equal(t, "fallback", UserMessage(&APIError{StatusCode: 502}, "fallback"))
	assert.Equal(t, "fallback", UserMessage(assert.AnError, "fallback"))

	assert.False(t, IsTransport(apiErr))
	assert.False(t, IsTransport(ErrPortfolioNotFound))
	assert.False(t, IsTransport(nil))
	assert.True(t, IsTransport(assert.AnError))

	assert.True(t, (&APIError{StatusCode: 401}).Unauthorized())
	assert.True(t, (&APIError{StatusCode: 403}).Unauthorized())
	assert.False(t, (&APIError{StatusCode: 500}).Unauthorized())
}

func TestServiceTimeParsing(t *testing.T) {
	snap := &PortfolioSnapshot{LastUpdated: "2025-06-01T12:00:00.123456"}
	ts := snap.LastUpdatedTime()
	require.NotNil(t, ts)
	assert.Equal(t, 2025, ts.Year())

	snap.LastUpdated = "not a timestamp"
	assert.Nil(t, snap.LastUpdatedTime())

	snap.LastUpdated = ""
	assert.Nil(t, snap.LastUpdatedTime())
}
