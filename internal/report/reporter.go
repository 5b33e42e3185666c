// Package report is the single funnel for user-visible failure and
// success messages, plus a diagnostic channel for failures that must
// not interrupt the user (failed background poll ticks, notifier
// hiccups).
package report

import (
	"sync"
	"time"

	"ltvpilot/internal/logger"
)

// Kind classifies a user-facing notice.
type Kind string

const (
	KindError   Kind = "error"
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
)

// Notice is one user-facing message.
type Notice struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Reporter keeps the latest notice for the presentation surface to
// pick up. Diagnostics go straight to the log and never change the
// notice.
type Reporter struct {
	mu     sync.RWMutex
	latest *Notice
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// UserError surfaces a failure message to the user.
func (r *Reporter) UserError(message string) {
	r.publish(Notice{Kind: KindError, Message: message, At: time.Now().UTC()})
	logger.Warnf("user error: %s", message)
}

// UserSuccess surfaces a success notice to the user.
func (r *Reporter) UserSuccess(message string) {
	r.publish(Notice{Kind: KindSuccess, Message: message, At: time.Now().UTC()})
	logger.Infof("user notice: %s", message)
}

// Diagnostic logs a failure not meant for end users. The next
// scheduled poll tick is the recovery path, so nothing is surfaced.
func (r *Reporter) Diagnostic(format string, v ...any) {
	logger.Errorf(format, v...)
}

// Latest returns the most recent notice, nil when none was published.
func (r *Reporter) Latest() *Notice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return nil
	}
	n := *r.latest
	return &n
}

// Clear drops the pending notice once the surface consumed it.
func (r *Reporter) Clear() {
	r.mu.Lock()
	r.latest = nil
	r.mu.Unlock()
}

func (r *Reporter) publish(n Notice) {
	r.mu.Lock()
	r.latest = &n
	r.mu.Unlock()
}
