// Package controller holds the per-session display state: the last
// applied result of each feed, owned by one object with an explicit
// lifecycle instead of free-standing globals. Subcomponents receive it
// by reference.
package controller

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ltvpilot/internal/gateway/strategy"
	"ltvpilot/internal/render"
	"ltvpilot/internal/report"
	"ltvpilot/internal/store/sessionstore"
	"ltvpilot/internal/view"
)

// DashboardView is the fully rendered dashboard payload.
type DashboardView struct {
	Snapshot     render.SnapshotView      `json:"snapshot"`
	Transactions []render.TransactionView `json:"transactions"`
	Alerts       render.AlertsView        `json:"alerts"`
}

// Controller implements poll.Sink. Feeds are replaced wholesale on
// every application; there is no client-side merge.
type Controller struct {
	store    *sessionstore.Store
	mirror   *Mirror
	reporter *report.Reporter

	mu           sync.RWMutex
	snapshot     *strategy.PortfolioSnapshot
	transactions []strategy.Transaction
	alerts       []strategy.Alert
}

func NewController(store *sessionstore.Store, mirror *Mirror, reporter *report.Reporter) *Controller {
	return &Controller{store: store, mirror: mirror, reporter: reporter}
}

// BindViews clears the display state whenever the session leaves the
// dashboard, so a later login starts from a blank slate.
func (c *Controller) BindViews(views *view.Router) {
	views.Subscribe(func(from, to view.State) {
		if from == view.StateDashboard && to == view.StateLogin {
			c.Reset()
		}
	})
}

// LoadCached restores the last persisted snapshot so a restarted
// process shows something before the first poll round lands.
func (c *Controller) LoadCached() {
	payload, err := c.store.LastSnapshot()
	if err != nil {
		c.reporter.Diagnostic("loading cached snapshot failed: %v", err)
		return
	}
	if len(payload) == 0 {
		return
	}
	var snap strategy.PortfolioSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		c.reporter.Diagnostic("decoding cached snapshot failed: %v", err)
		return
	}
	c.mu.Lock()
	c.snapshot = &snap
	c.mu.Unlock()
}

// ApplySnapshot stores the latest snapshot; nil means uninitialized.
func (c *Controller) ApplySnapshot(snap *strategy.PortfolioSnapshot) {
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	if snap == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.store.SaveLastSnapshot(snap.PortfolioID, payload); err != nil {
		c.reporter.Diagnostic("persisting snapshot failed: %v", err)
	}
}

// ApplyTransactions stores the latest history page.
func (c *Controller) ApplyTransactions(txs []strategy.Transaction) {
	c.mu.Lock()
	c.transactions = txs
	c.mu.Unlock()
}

// ApplyAlerts stores the latest alert list and hands it to the mirror.
// Mirroring runs off the polling path; a slow notifier must not delay
// feed application.
func (c *Controller) ApplyAlerts(alerts []strategy.Alert) {
	c.mu.Lock()
	c.alerts = alerts
	ltvPct := 0.0
	if c.snapshot != nil {
		ltvPct = c.snapshot.CurrentLTV * 100
	}
	c.mu.Unlock()

	if c.mirror != nil && len(alerts) > 0 {
		go c.mirror.Process(context.Background(), alerts, ltvPct)
	}
}

// Reset drops all display state.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.snapshot = nil
	c.transactions = nil
	c.alerts = nil
	c.mu.Unlock()
}

// LTVPct returns the current LTV as a percentage, 0 when no snapshot
// was applied.
func (c *Controller) LTVPct() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return 0
	}
	return c.snapshot.CurrentLTV * 100
}

// Display renders the dashboard from the current state.
func (c *Controller) Display(now time.Time) DashboardView {
	c.mu.RLock()
	snap := c.snapshot
	txs := c.transactions
	alerts := c.alerts
	c.mu.RUnlock()

	return DashboardView{
		Snapshot:     render.Snapshot(snap, now),
		Transactions: render.Transactions(txs, now),
		Alerts:       render.Alerts(alerts, now),
	}
}
