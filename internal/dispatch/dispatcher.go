// Package dispatch maps named user commands to authenticated write
// requests. Every successful command is followed by an immediate,
// unconditional refresh of the polled feeds; failures flow through the
// reporter with the server's message when one exists.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"ltvpilot/internal/gateway/strategy"
	"ltvpilot/internal/poll"
	"ltvpilot/internal/report"
)

// Command names, as bound by the presentation layer.
type Command string

const (
	CmdInitialize    Command = "initialize"
	CmdStart         Command = "start"
	CmdStop          Command = "stop"
	CmdRebalance     Command = "rebalance"
	CmdEmergencyStop Command = "emergency-stop"
	CmdAlertRead     Command = "alert-read"
	CmdLTVSettings   Command = "ltv-settings"
)

// MinInitialCapitalUSD is the client-side floor checked before any
// initialize request leaves the process.
const MinInitialCapitalUSD = 100.0

// MaxTargetLTV caps the configurable LTV band, matching the server
// rule.
const MaxTargetLTV = 0.70

// ErrValidation marks failures caught locally; no request was issued.
var ErrValidation = errors.New("validation failed")

// ErrConfirmationRequired is returned when emergency-stop arrives
// without the explicit confirmation step. Declining is a no-op, so
// nothing is reported.
var ErrConfirmationRequired = errors.New("confirmation required")

// Request carries a command with its parameters. Unused fields stay at
// their zero values.
type Request struct {
	Command           Command  `json:"command"`
	InitialCapitalUSD *float64 `json:"initial_capital_usd,omitempty"`
	Confirmed         bool     `json:"confirm,omitempty"`
	AlertID           int      `json:"alert_id,omitempty"`
	TargetLTVMin      float64  `json:"target_ltv_min,omitempty"`
	TargetLTVMax      float64  `json:"target_ltv_max,omitempty"`
}

// API is the write surface of the strategy client.
type API interface {
	Initialize(ctx context.Context, initialCapitalUSD float64) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ManualRebalance(ctx context.Context) error
	EmergencyStop(ctx context.Context) error
	MarkAlertRead(ctx context.Context, alertID int) error
	UpdateLTVSettings(ctx context.Context, targetMin, targetMax float64) error
}

// Refresher triggers feed refreshes after a successful write.
type Refresher interface {
	Refresh(ctx context.Context)
	RefreshFeed(ctx context.Context, feed poll.Feed)
}

type commandSpec struct {
	fallback string
	success  string
}

var commandSpecs = map[Command]commandSpec{
	CmdInitialize:    {fallback: "Failed to initialize portfolio", success: "Portfolio initialized"},
	CmdStart:         {fallback: "Failed to start automation", success: "Automation started"},
	CmdStop:          {fallback: "Failed to stop automation", success: "Automation stopped"},
	CmdRebalance:     {fallback: "Failed to execute manual rebalance", success: "Manual rebalance completed"},
	CmdEmergencyStop: {fallback: "Failed to execute emergency stop", success: "Emergency stop executed"},
	CmdAlertRead:     {fallback: "Failed to mark alert as read"},
	CmdLTVSettings:   {fallback: "Failed to update LTV settings", success: "LTV settings updated"},
}

// Dispatcher is the command table's execution side.
type Dispatcher struct {
	api      API
	poller   Refresher
	reporter *report.Reporter
}

func NewDispatcher(api API, poller Refresher, reporter *report.Reporter) *Dispatcher {
	return &Dispatcher{api: api, poller: poller, reporter: reporter}
}

// Known reports whether a command name is part of the table.
func Known(cmd Command) bool {
	_, ok := commandSpecs[cmd]
	return ok
}

// Dispatch validates and executes one command.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) error {
	spec, ok := commandSpecs[req.Command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrValidation, req.Command)
	}
	if err := d.precheck(req); err != nil {
		return err
	}

	var err error
	switch req.Command {
	case CmdInitialize:
		err = d.api.Initialize(ctx, *req.InitialCapitalUSD)
	case CmdStart:
		err = d.api.Start(ctx)
	case CmdStop:
		err = d.api.Stop(ctx)
	case CmdRebalance:
		err = d.api.ManualRebalance(ctx)
	case CmdEmergencyStop:
		err = d.api.EmergencyStop(ctx)
	case CmdAlertRead:
		err = d.api.MarkAlertRead(ctx, req.AlertID)
	case CmdLTVSettings:
		err = d.api.UpdateLTVSettings(ctx, req.TargetLTVMin, req.TargetLTVMax)
	}
	if err != nil {
		d.reporter.UserError(strategy.UserMessage(err, spec.fallback))
		if strategy.IsTransport(err) {
			d.reporter.Diagnostic("command %s transport failure: %v", req.Command, err)
		}
		return err
	}

	if spec.success != "" {
		d.reporter.UserSuccess(spec.success)
	}
	if req.Command == CmdAlertRead {
		d.poller.RefreshFeed(ctx, poll.FeedAlerts)
	} else {
		d.poller.Refresh(ctx)
	}
	return nil
}

// precheck runs local validation; a failure here short-circuits
// without issuing any request.
func (d *Dispatcher) precheck(req Request) error {
	switch req.Command {
	case CmdInitialize:
		if req.InitialCapitalUSD == nil || *req.InitialCapitalUSD < MinInitialCapitalUSD {
			msg := fmt.Sprintf("Initial capital must be at least $%.0f", MinInitialCapitalUSD)
			d.reporter.UserError(msg)
			return fmt.Errorf("%w: %s", ErrValidation, msg)
		}
	case CmdEmergencyStop:
		if !req.Confirmed {
			return ErrConfirmationRequired
		}
	case CmdAlertRead:
		if req.AlertID <= 0 {
			return fmt.Errorf("%w: alert id required", ErrValidation)
		}
	case CmdLTVSettings:
		if req.TargetLTVMin <= 0 || req.TargetLTVMin >= req.TargetLTVMax || req.TargetLTVMax > MaxTargetLTV {
			msg := "Invalid LTV range"
			d.reporter.UserError(msg)
			return fmt.Errorf("%w: %s", ErrValidation, msg)
		}
	}
	return nil
}
