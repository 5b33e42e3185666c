package strategy

import (
	"strings"
	"time"
)

// Portfolio status values reported by the strategy service.
const (
	StatusActive        = "active"
	StatusStopped       = "stopped"
	StatusUninitialized = "uninitialized"
)

// LoginResult is the payload of a successful POST /auth/login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
}

// PortfolioSnapshot mirrors GET /portfolio/status. The snapshot is
// refreshed wholesale every poll round; nothing here is merged
// client-side.
type PortfolioSnapshot struct {
	PortfolioID     int     `json:"portfolio_id"`
	Status          string  `json:"status"`
	CurrentLTV      float64 `json:"current_ltv"`
	TargetLTVMin    float64 `json:"target_ltv_min"`
	TargetLTVMax    float64 `json:"target_ltv_max"`
	ETHBalance      float64 `json:"eth_balance"`
	SOLBalance      float64 `json:"sol_balance"`
	ETHPrice        float64 `json:"eth_price"`
	SOLPrice        float64 `json:"sol_price"`
	TotalValue      float64 `json:"total_value"`
	TotalProfitLoss float64 `json:"total_profit_loss"`
	AutoRebalance   bool    `json:"auto_rebalance"`
	LastUpdated     string  `json:"last_updated"`
}

// LastUpdatedTime parses the service timestamp; nil when absent or
// unparseable.
func (s *PortfolioSnapshot) LastUpdatedTime() *time.Time {
	if s == nil {
		return nil
	}
	return parseServiceTime(s.LastUpdated)
}

// Transaction is one history entry. Any nonzero subset of the three
// quantities may be present.
type Transaction struct {
	ID          int     `json:"id"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	ETHAmount   float64 `json:"eth_amount"`
	SOLAmount   float64 `json:"sol_amount"`
	USDValue    float64 `json:"usd_value"`
	LTVRatio    float64 `json:"ltv_ratio"`
	Timestamp   string  `json:"timestamp"`
}

func (t *Transaction) Time() *time.Time {
	if t == nil {
		return nil
	}
	return parseServiceTime(t.Timestamp)
}

// Alert severities as emitted by the service.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

type Alert struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func (a *Alert) Time() *time.Time {
	if a == nil {
		return nil
	}
	return parseServiceTime(a.CreatedAt)
}

// Severity comparison treats error and critical as high-severity.
func (a *Alert) HighSeverity() bool {
	if a == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(a.Severity)) {
	case SeverityError, SeverityCritical:
		return true
	}
	return false
}

// EarnPosition mirrors GET /earn-positions entries.
type EarnPosition struct {
	ID               int     `json:"id"`
	Asset            string  `json:"asset"`
	ProductType      string  `json:"product_type"`
	PrincipalAmount  float64 `json:"principal_amount"`
	CurrentAmount    float64 `json:"current_amount"`
	RewardsEarned    float64 `json:"rewards_earned"`
	APR              float64 `json:"apr"`
	Status           string  `json:"status"`
	SubscriptionTime string  `json:"subscription_time"`
}

// LoanPosition mirrors GET /loan-positions entries.
type LoanPosition struct {
	ID                int     `json:"id"`
	LoanCoin          string  `json:"loan_coin"`
	CollateralCoin    string  `json:"collateral_coin"`
	LoanAmount        float64 `json:"loan_amount"`
	OutstandingAmount float64 `json:"outstanding_amount"`
	InterestRate      float64 `json:"interest_rate"`
	LTVRatio          float64 `json:"ltv_ratio"`
	BorrowTime        string  `json:"borrow_time"`
}

// serviceTimeLayouts covers RFC3339 plus the bare isoformat the service
// emits for naive UTC timestamps.
var serviceTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseServiceTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range serviceTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
