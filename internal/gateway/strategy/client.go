package strategy

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"ltvpilot/internal/config"
)

// TokenSource yields the current bearer token; an empty string means no
// session. The session manager is the only writer behind it.
type TokenSource interface {
	Token() string
}

// Client wraps the strategy service REST API. All authenticated calls
// read the token through the TokenSource at request time, so a token
// established after construction is picked up without rebuilding the
// client.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	clientID   string
}

// NewClient constructs a strategy service client from configuration.
func NewClient(cfg config.APIConfig, tokens TokenSource) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("api.base_url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing api.base_url failed: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true // #nosec G402
		}
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		tokens:     tokens,
		clientID:   uuid.NewString(),
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// ClientID is the per-process instance id sent as X-Client-ID.
func (c *Client) ClientID() string {
	return c.clientID
}

// Login authenticates and returns the access token. No token is stored
// here; credential custody belongs to the session manager.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	payload := map[string]string{"username": username, "password": password}
	var res LoginResult
	if err := c.doRequest(ctx, http.MethodPost, "/auth/login", payload, &res); err != nil {
		return nil, err
	}
	if strings.TrimSpace(res.AccessToken) == "" {
		return nil, fmt.Errorf("login response missing access_token")
	}
	if res.Username == "" {
		res.Username = username
	}
	return &res, nil
}

// Register creates an account. Success does not establish a session.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	payload := map[string]string{"username": username, "email": email, "password": password}
	return c.doRequest(ctx, http.MethodPost, "/auth/register", payload, nil)
}

// PortfolioStatus fetches the current snapshot. A 404 maps to
// ErrPortfolioNotFound, which renders as the uninitialized display.
func (c *Client) PortfolioStatus(ctx context.Context) (*PortfolioSnapshot, error) {
	var snap PortfolioSnapshot
	err := c.doRequest(ctx, http.MethodGet, "/portfolio/status", nil, &snap)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}
	return &snap, nil
}

// Initialize funds a new portfolio. The >=100 precondition is enforced
// by the dispatcher before any request is issued; the server enforces
// its own copy.
func (c *Client) Initialize(ctx context.Context, initialCapitalUSD float64) error {
	payload := map[string]float64{"initial_capital_usd": initialCapitalUSD}
	return c.doRequest(ctx, http.MethodPost, "/portfolio/initialize", payload, nil)
}

// Start enables automation.
func (c *Client) Start(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "/portfolio/start", nil, nil)
}

// Stop pauses automation.
func (c *Client) Stop(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "/portfolio/stop", nil, nil)
}

// ManualRebalance triggers one rebalance cycle.
func (c *Client) ManualRebalance(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "/manual/rebalance", nil, nil)
}

// EmergencyStop halts the strategy and liquidates. The confirmation
// gate lives in the dispatcher.
func (c *Client) EmergencyStop(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "/portfolio/emergency-stop", nil, nil)
}

// Transactions fetches the most recent history page.
func (c *Client) Transactions(ctx context.Context, perPage int) ([]Transaction, error) {
	if perPage <= 0 {
		perPage = 10
	}
	var env struct {
		Transactions []Transaction `json:"transactions"`
	}
	path := fmt.Sprintf("/transactions?per_page=%d", perPage)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Transactions, nil
}

// Alerts fetches recent system alerts, newest first.
func (c *Client) Alerts(ctx context.Context) ([]Alert, error) {
	var env struct {
		Alerts []Alert `json:"alerts"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/alerts", nil, &env); err != nil {
		return nil, err
	}
	return env.Alerts, nil
}

// MarkAlertRead flags an alert as read.
func (c *Client) MarkAlertRead(ctx context.Context, alertID int) error {
	path := fmt.Sprintf("/alerts/%d/read", alertID)
	return c.doRequest(ctx, http.MethodPost, path, nil, nil)
}

// UpdateLTVSettings adjusts the target band. Mirrors the server rule:
// min < max and max <= 0.70.
func (c *Client) UpdateLTVSettings(ctx context.Context, targetMin, targetMax float64) error {
	payload := map[string]float64{
		"target_ltv_min": targetMin,
		"target_ltv_max": targetMax,
	}
	return c.doRequest(ctx, http.MethodPost, "/settings/ltv", payload, nil)
}

// EarnPositions fetches active/matured earn positions.
func (c *Client) EarnPositions(ctx context.Context) ([]EarnPosition, error) {
	var env struct {
		Positions []EarnPosition `json:"positions"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/earn-positions", nil, &env); err != nil {
		return nil, err
	}
	return env.Positions, nil
}

// LoanPositions fetches open loan positions.
func (c *Client) LoanPositions(ctx context.Context) ([]LoanPosition, error) {
	var env struct {
		Positions []LoanPosition `json:"positions"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/loan-positions", nil, &env); err != nil {
		return nil, err
	}
	return env.Positions, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any, out any) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("strategy client not initialized")
	}
	endpoint, err := c.resolveEndpoint(path)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request failed: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("building request failed: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Client-ID", c.clientID)
	if c.tokens != nil {
		if token := strings.TrimSpace(c.tokens.Token()); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling strategy service failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: extractErrorMessage(data)}
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding strategy response failed: %w", err)
	}
	return nil
}

// extractErrorMessage pulls the human-readable message out of a failure
// body. The service answers {"error": ...}; a few proxies wrap it as
// {"message": ...} instead.
func extractErrorMessage(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ""
	}
	for _, key := range []string{"error", "message", "detail", "msg"} {
		if v := gjson.GetBytes(trimmed, key); v.Exists() && strings.TrimSpace(v.String()) != "" {
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}

func (c *Client) resolveEndpoint(path string) (*url.URL, error) {
	if c.baseURL == nil {
		return nil, fmt.Errorf("strategy API base URL not set")
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = "/"
	}
	query := ""
	if idx := strings.Index(trimmed, "?"); idx >= 0 {
		query = trimmed[idx+1:]
		trimmed = trimmed[:idx]
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	base := *c.baseURL
	base.Path = strings.TrimSuffix(base.Path, "/") + trimmed
	base.RawPath = ""
	base.RawQuery = query
	base.Fragment = ""
	return &base, nil
}
