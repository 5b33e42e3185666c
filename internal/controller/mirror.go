package controller

import (
	"context"
	"fmt"

	"ltvpilot/internal/gateway/notifier"
	"ltvpilot/internal/gateway/strategy"
	"ltvpilot/internal/report"
	"ltvpilot/internal/store/alertlog"
	"ltvpilot/internal/visual"
)

// Mirror forwards high-severity alerts (error, critical) to the
// notifier exactly once each, keyed by alert id in the alert log.
// Delivery failures are diagnostic only.
type Mirror struct {
	log       *alertlog.Store
	notify    notifier.Notifier
	reporter  *report.Reporter
	withChart bool
}

func NewMirror(log *alertlog.Store, notify notifier.Notifier, reporter *report.Reporter, withChart bool) *Mirror {
	return &Mirror{log: log, notify: notify, reporter: reporter, withChart: withChart}
}

// Process scans one alert feed application for unseen high-severity
// alerts and forwards them. ltvPct feeds the optional gauge snapshot.
func (m *Mirror) Process(ctx context.Context, alerts []strategy.Alert, ltvPct float64) {
	if m == nil || m.notify == nil || m.log == nil {
		return
	}
	for i := range alerts {
		alert := &alerts[i]
		if !alert.HighSeverity() {
			continue
		}
		fresh, err := m.log.MarkNotified(alert.ID, alert.Severity, alert.Title)
		if err != nil {
			m.reporter.Diagnostic("alert log write failed (id=%d): %v", alert.ID, err)
			continue
		}
		if !fresh {
			continue
		}
		m.deliver(ctx, alert, ltvPct)
	}
}

func (m *Mirror) deliver(ctx context.Context, alert *strategy.Alert, ltvPct float64) {
	caption := fmt.Sprintf("*%s* [%s]\n%s", alert.Title, alert.Severity, alert.Message)
	if m.withChart {
		png, err := visual.GaugePNG(ctx, ltvPct)
		if err != nil {
			m.reporter.Diagnostic("gauge snapshot failed, sending text only: %v", err)
		} else if err := m.notify.SendPhoto(caption, png); err != nil {
			m.reporter.Diagnostic("alert mirror photo delivery failed (id=%d): %v", alert.ID, err)
		} else {
			return
		}
	}
	if err := m.notify.SendText(caption); err != nil {
		m.reporter.Diagnostic("alert mirror delivery failed (id=%d): %v", alert.ID, err)
	}
}
