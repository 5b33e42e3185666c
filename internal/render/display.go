package render

import (
	"time"

	"ltvpilot/internal/gateway/strategy"
)

// Display caps and placeholders.
const (
	MaxAlerts            = 5
	NoAlertsPlaceholder  = "No alerts"
	UninitializedStatus  = "Not Initialized"
	UninitializedStatusK = strategy.StatusUninitialized
)

// SnapshotView is the rendered portfolio panel. An absent snapshot
// (404 from the service) renders every field at its zero default.
type SnapshotView struct {
	Status       string       `json:"status"`
	StatusKind   string       `json:"status_kind"`
	LTV          string       `json:"ltv"`
	LTVBand      GaugeBand    `json:"ltv_band"`
	GaugeSlices  [2]float64   `json:"gauge_slices"`
	TotalValue   string       `json:"total_value"`
	ETHBalance   string       `json:"eth_balance"`
	SOLBalance   string       `json:"sol_balance"`
	ProfitLoss   string       `json:"profit_loss"`
	ProfitClass  string       `json:"profit_class"`
	LastUpdated  string       `json:"last_updated"`
	Buttons      ButtonStates `json:"buttons"`
	TargetMinPct string       `json:"target_ltv_min,omitempty"`
	TargetMaxPct string       `json:"target_ltv_max,omitempty"`
}

// Snapshot renders the portfolio panel. A nil snapshot produces the
// fixed uninitialized display: status "Not Initialized", LTV "0.00%",
// last update "Never", balances zero.
func Snapshot(s *strategy.PortfolioSnapshot, now time.Time) SnapshotView {
	if s == nil {
		return SnapshotView{
			Status:      UninitializedStatus,
			StatusKind:  UninitializedStatusK,
			LTV:         Percent(0),
			LTVBand:     Band(0),
			GaugeSlices: GaugeSlices(0),
			TotalValue:  Money(0),
			ETHBalance:  Balance(0),
			SOLBalance:  Balance(0),
			ProfitLoss:  Money(0),
			ProfitClass: PnLClass(0),
			LastUpdated: RelativeTime(now, nil),
			Buttons:     Buttons(""),
		}
	}
	ltvPct := s.CurrentLTV * 100
	view := SnapshotView{
		Status:      StatusLabel(s.Status),
		StatusKind:  s.Status,
		LTV:         Percent(s.CurrentLTV),
		LTVBand:     Band(ltvPct),
		GaugeSlices: GaugeSlices(ltvPct),
		TotalValue:  Money(s.TotalValue),
		ETHBalance:  Balance(s.ETHBalance),
		SOLBalance:  Balance(s.SOLBalance),
		ProfitLoss:  Money(s.TotalProfitLoss),
		ProfitClass: PnLClass(s.TotalProfitLoss),
		LastUpdated: RelativeTime(now, s.LastUpdatedTime()),
		Buttons:     Buttons(s.Status),
	}
	if s.TargetLTVMax > 0 {
		view.TargetMinPct = Percent(s.TargetLTVMin)
		view.TargetMaxPct = Percent(s.TargetLTVMax)
	}
	return view
}

// TransactionView is one rendered history row. Zero-valued quantities
// stay empty and are not displayed.
type TransactionView struct {
	Type      string `json:"type"`
	ETHAmount string `json:"eth_amount,omitempty"`
	SOLAmount string `json:"sol_amount,omitempty"`
	USDValue  string `json:"usd_value,omitempty"`
	When      string `json:"when"`
}

// Transactions renders the history list.
func Transactions(txs []strategy.Transaction, now time.Time) []TransactionView {
	views := make([]TransactionView, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		v := TransactionView{
			Type: tx.Type,
			When: RelativeTime(now, tx.Time()),
		}
		if tx.ETHAmount != 0 {
			v.ETHAmount = Balance(tx.ETHAmount) + " ETH"
		}
		if tx.SOLAmount != 0 {
			v.SOLAmount = Balance(tx.SOLAmount) + " SOL"
		}
		if tx.USDValue != 0 {
			v.USDValue = "$" + Money(tx.USDValue)
		}
		views = append(views, v)
	}
	return views
}

// AlertView is one rendered alert row.
type AlertView struct {
	ID       int    `json:"id"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	When     string `json:"when"`
}

// AlertsView is the alert panel: at most the five most recent alerts,
// or the fixed placeholder when there are none.
type AlertsView struct {
	Alerts      []AlertView `json:"alerts"`
	Placeholder string      `json:"placeholder,omitempty"`
}

// Alerts renders the alert panel. Input is expected newest-first, as
// the service returns it.
func Alerts(alerts []strategy.Alert, now time.Time) AlertsView {
	if len(alerts) == 0 {
		return AlertsView{Placeholder: NoAlertsPlaceholder}
	}
	capped := alerts
	if len(capped) > MaxAlerts {
		capped = capped[:MaxAlerts]
	}
	views := make([]AlertView, 0, len(capped))
	for i := range capped {
		a := &capped[i]
		views = append(views, AlertView{
			ID:       a.ID,
			Severity: a.Severity,
			Title:    a.Title,
			Message:  a.Message,
			When:     RelativeTime(now, a.Time()),
		})
	}
	return AlertsView{Alerts: views}
}
