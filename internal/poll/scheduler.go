// Package poll drives the fixed-cadence refresh of the three read
// feeds. The three requests of a round are independent and unordered;
// each result is applied as it arrives, guarded by a per-feed
// generation counter so a stale response never overwrites a fresher
// one.
package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ltvpilot/internal/gateway/strategy"
	"ltvpilot/internal/report"
)

// Feed identifies one of the polled read feeds.
type Feed string

const (
	FeedSnapshot     Feed = "snapshot"
	FeedTransactions Feed = "transactions"
	FeedAlerts       Feed = "alerts"
)

// API is the read surface of the strategy client the scheduler needs.
type API interface {
	PortfolioStatus(ctx context.Context) (*strategy.PortfolioSnapshot, error)
	Transactions(ctx context.Context, perPage int) ([]strategy.Transaction, error)
	Alerts(ctx context.Context) ([]strategy.Alert, error)
}

// Sink receives feed results. ApplySnapshot gets nil when the service
// reports the portfolio as not found; that is the uninitialized
// display, not an error.
type Sink interface {
	ApplySnapshot(snap *strategy.PortfolioSnapshot)
	ApplyTransactions(txs []strategy.Transaction)
	ApplyAlerts(alerts []strategy.Alert)
}

// Scheduler runs the poll loop for one session. Start and Stop pair
// with session start and logout; Stop is idempotent.
type Scheduler struct {
	api      API
	sink     Sink
	reporter *report.Reporter
	interval time.Duration
	perPage  int

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    map[Feed]uint64
}

func NewScheduler(api API, sink Sink, reporter *report.Reporter, interval time.Duration, perPage int) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if perPage <= 0 {
		perPage = 10
	}
	return &Scheduler{
		api:      api,
		sink:     sink,
		reporter: reporter,
		interval: interval,
		perPage:  perPage,
		gen:      make(map[Feed]uint64),
	}
}

// Start launches the loop: one immediate round, then one per interval
// until Stop. Calling Start while running is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(loopCtx)
}

// Stop cancels future ticks. Requests already in flight are not
// aborted; bumping every feed generation makes their late responses
// fail the currency check and be discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	for _, feed := range []Feed{FeedSnapshot, FeedTransactions, FeedAlerts} {
		s.gen[feed]++
	}
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Refresh fires one full round outside the cadence, used after a
// successful command. A stopped scheduler ignores it.
func (s *Scheduler) Refresh(ctx context.Context) {
	if !s.Running() {
		return
	}
	s.round(ctx)
}

// RefreshFeed refreshes a single feed outside the cadence.
func (s *Scheduler) RefreshFeed(ctx context.Context, feed Feed) {
	if !s.Running() {
		return
	}
	switch feed {
	case FeedSnapshot:
		s.fetchSnapshot(ctx)
	case FeedTransactions:
		s.fetchTransactions(ctx)
	case FeedAlerts:
		s.fetchAlerts(ctx)
	}
}

func (s *Scheduler) run(ctx context.Context) {
	s.round(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.round(ctx)
		}
	}
}

// round fires the three fetches concurrently. Each fetch reports its
// own failure diagnostically and never fails the group, keeping the
// feeds independent.
func (s *Scheduler) round(ctx context.Context) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { s.fetchSnapshot(groupCtx); return nil })
	group.Go(func() error { s.fetchTransactions(groupCtx); return nil })
	group.Go(func() error { s.fetchAlerts(groupCtx); return nil })
	_ = group.Wait()
}

func (s *Scheduler) fetchSnapshot(ctx context.Context) {
	gen := s.nextGen(FeedSnapshot)
	snap, err := s.api.PortfolioStatus(ctx)
	if err != nil && !errors.Is(err, strategy.ErrPortfolioNotFound) {
		s.reporter.Diagnostic("poll snapshot failed: %v", err)
		return
	}
	// err == ErrPortfolioNotFound leaves snap nil, which the sink
	// renders as the uninitialized display.
	s.applyIfCurrent(FeedSnapshot, gen, func() { s.sink.ApplySnapshot(snap) })
}

func (s *Scheduler) fetchTransactions(ctx context.Context) {
	gen := s.nextGen(FeedTransactions)
	txs, err := s.api.Transactions(ctx, s.perPage)
	if err != nil {
		s.reporter.Diagnostic("poll transactions failed: %v", err)
		return
	}
	s.applyIfCurrent(FeedTransactions, gen, func() { s.sink.ApplyTransactions(txs) })
}

func (s *Scheduler) fetchAlerts(ctx context.Context) {
	gen := s.nextGen(FeedAlerts)
	alerts, err := s.api.Alerts(ctx)
	if err != nil {
		s.reporter.Diagnostic("poll alerts failed: %v", err)
		return
	}
	s.applyIfCurrent(FeedAlerts, gen, func() { s.sink.ApplyAlerts(alerts) })
}

// nextGen marks a new outstanding request for the feed and returns its
// generation. Any previously issued request for the same feed is now
// stale.
func (s *Scheduler) nextGen(feed Feed) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen[feed]++
	return s.gen[feed]
}

// applyIfCurrent applies a result only if no newer request for the
// feed was issued meanwhile. Last issued wins, not last resolved.
func (s *Scheduler) applyIfCurrent(feed Feed, gen uint64, apply func()) {
	s.mu.Lock()
	current := s.gen[feed] == gen
	s.mu.Unlock()
	if current {
		apply()
	}
}
