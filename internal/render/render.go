// Package render maps remote payloads to display values. Everything
// here is a pure function of its inputs; no network, no clocks other
// than the caller-supplied "now".
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ltvpilot/internal/gateway/strategy"
)

// Gauge band thresholds, in LTV percentage points.
const (
	BandSafeMax    = 55.0
	BandCautionMax = 65.0
)

// GaugeBand classifies the risk gauge color.
type GaugeBand string

const (
	BandSafe    GaugeBand = "safe"
	BandCaution GaugeBand = "caution"
	BandDanger  GaugeBand = "danger"
)

// Band returns the gauge color for an LTV expressed as a percentage.
// 55.0 is still safe, 65.0 still caution.
func Band(ltvPct float64) GaugeBand {
	switch {
	case ltvPct <= BandSafeMax:
		return BandSafe
	case ltvPct <= BandCautionMax:
		return BandCaution
	default:
		return BandDanger
	}
}

// GaugeSlices is the two-slice proportion [ltv, 100-ltv] fed to the
// gauge chart.
func GaugeSlices(ltvPct float64) [2]float64 {
	return [2]float64{ltvPct, 100 - ltvPct}
}

// RelativeTime formats an age for display. Boundaries sit exactly at
// one minute, one hour and one day; a nil timestamp reads "Never".
func RelativeTime(now time.Time, t *time.Time) string {
	if t == nil {
		return "Never"
	}
	age := now.Sub(*t)
	switch {
	case age < time.Minute:
		return "Just now"
	case age < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(age/time.Minute))
	case age < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(age/time.Hour))
	default:
		return t.Local().Format("Jan 2, 2006, 3:04:05 PM")
	}
}

// ButtonStates gives the enablement of the four dashboard actions.
// Start is usable only while the strategy is not running; the other
// three only while it is.
type ButtonStates struct {
	Start         bool `json:"start"`
	Stop          bool `json:"stop"`
	Rebalance     bool `json:"rebalance"`
	EmergencyStop bool `json:"emergency_stop"`
}

// Buttons derives button enablement from the portfolio status.
func Buttons(status string) ButtonStates {
	active := strings.EqualFold(strings.TrimSpace(status), strategy.StatusActive)
	return ButtonStates{
		Start:         !active,
		Stop:          active,
		Rebalance:     active,
		EmergencyStop: active,
	}
}

// Money formats a USD amount with two decimals.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Balance formats an asset quantity with four decimals.
func Balance(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}

// Percent renders an LTV ratio (0..1) as a percentage with two
// decimals, e.g. 0.5534 becomes "55.34%".
func Percent(ratio float64) string {
	return decimal.NewFromFloat(ratio * 100).StringFixed(2) + "%"
}

// PnLClass returns the coloring class for a profit/loss value.
// Zero counts as positive.
func PnLClass(v float64) string {
	if v < 0 {
		return "negative"
	}
	return "positive"
}

// StatusLabel title-cases a status for display; empty means the
// portfolio was never initialized.
func StatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "Not Initialized"
	}
	return strings.ToUpper(status[:1]) + strings.ToLower(status[1:])
}
