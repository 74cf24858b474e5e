package ratesync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"remit-rates/internal/ratesource"
)

// State is the synchronizer's temporal bookkeeping, exposed alongside the
// rate records so callers can render staleness and error affordances.
type State struct {
	// LastSuccess is the wall-clock time of the last successful fetch.
	// Zero until the first success.
	LastSuccess time.Time
	// InFlight reports whether at least one fetch is outstanding.
	InFlight bool
	// HadError reports whether the most recently applied fetch failed.
	HadError bool
	// IsLive becomes true after the first successful fetch and never
	// reverts, even across transient errors.
	IsLive bool
}

// UpdateFunc observes every applied rate update. It is called outside the
// synchronizer's lock, once per asset, after the records have been committed.
type UpdateFunc func(asset ratesource.AssetID, rate ratesource.Rate, at time.Time)

// Options parameterise a Synchronizer.
type Options struct {
	// Assets is the fixed set of assets this instance polls.
	Assets []ratesource.AssetID
	// Interval is the polling cadence.
	Interval time.Duration
	// FetchTimeout bounds a single fetch so a hung upstream surfaces as an
	// error instead of an eternally in-flight request.
	FetchTimeout time.Duration
	// Defaults seeds the records map so callers have a value to render
	// before the first fetch completes.
	Defaults map[ratesource.AssetID]ratesource.Rate
	// OnUpdate, when set, is invoked for every applied rate update.
	OnUpdate UpdateFunc
}

// Synchronizer keeps a set of asset rate records fresh by polling a rate
// source. Each instance owns its records and state exclusively.
//
// Fetches are numbered in issue order; a completed fetch is applied only if
// its number is still the latest issued, so a slow response can never clobber
// a newer one.
type Synchronizer struct {
	opts   Options
	source ratesource.RateFetcher
	logger zerolog.Logger

	mu       sync.Mutex
	records  map[ratesource.AssetID]ratesource.Rate
	state    State
	issued   uint64
	pending  int
	started  bool
	stopped  bool

	runCtx context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a stopped Synchronizer. Call Start to begin polling.
func New(opts Options, source ratesource.RateFetcher, logger zerolog.Logger) *Synchronizer {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}

	records := make(map[ratesource.AssetID]ratesource.Rate, len(opts.Assets))
	for asset, rate := range opts.Defaults {
		records[asset] = rate
	}

	return &Synchronizer{
		opts:    opts,
		source:  source,
		logger:  logger.With().Str("component", "rate_sync").Logger(),
		records: records,
		done:    make(chan struct{}),
	}
}

// ErrAlreadyStarted is returned by Start on a running or stopped instance.
var ErrAlreadyStarted = errors.New("ratesync: synchronizer already started")

// Start issues the first fetch immediately and then polls on the configured
// interval until Stop is called.
func (s *Synchronizer) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.runCtx, s.cancel = context.WithCancel(context.Background())
	ctx := s.runCtx
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Refresh forces an immediate out-of-band fetch. The interval timer is not
// reset. Safe to call concurrently, including while a fetch is in flight; the
// usual latest-issued rule arbitrates the results.
func (s *Synchronizer) Refresh() {
	s.mu.Lock()
	ctx := s.runCtx
	stopped := s.stopped || !s.started
	s.mu.Unlock()
	if stopped {
		return
	}
	go s.fetch(ctx)
}

// Stop cancels polling. A response arriving after Stop is discarded. Stop is
// idempotent and blocks until the polling loop has exited.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	<-s.done
}

// Snapshot returns copies of the current records and state.
func (s *Synchronizer) Snapshot() (map[ratesource.AssetID]ratesource.Rate, State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[ratesource.AssetID]ratesource.Rate, len(s.records))
	for asset, rate := range s.records {
		records[asset] = rate
	}
	return records, s.state
}

// Record returns the current record for one asset.
func (s *Synchronizer) Record(asset ratesource.AssetID) (ratesource.Rate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rate, ok := s.records[asset]
	return rate, ok
}

func (s *Synchronizer) run(ctx context.Context) {
	defer close(s.done)

	// First fetch fires before the first interval elapses so callers never
	// wait a full period for an initial value.
	go s.fetch(ctx)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go s.fetch(ctx)
		}
	}
}

func (s *Synchronizer) fetch(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.issued++
	seq := s.issued
	s.pending++
	s.state.InFlight = true
	s.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	rates, err := s.source.FetchRates(fetchCtx, s.opts.Assets)
	s.apply(ctx, seq, rates, err)
}

func (s *Synchronizer) apply(ctx context.Context, seq uint64, rates map[ratesource.AssetID]ratesource.Rate, err error) {
	s.mu.Lock()

	s.pending--
	s.state.InFlight = s.pending > 0

	if s.stopped || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if latest := s.issued; seq != latest {
		s.mu.Unlock()
		s.logger.Debug().Uint64("seq", seq).Uint64("latest", latest).
			Msg("discarding stale fetch result")
		return
	}

	var missing *ratesource.MissingAssetsError
	partial := errors.As(err, &missing) && len(rates) > 0

	if err != nil && !partial {
		s.state.HadError = true
		s.mu.Unlock()
		s.logger.Warn().Err(err).Msg("rate fetch failed; keeping last known rates")
		return
	}

	now := time.Now().UTC()
	applied := make([]ratesource.AssetID, 0, len(s.opts.Assets))
	updates := make(map[ratesource.AssetID]ratesource.Rate, len(s.opts.Assets))
	for _, asset := range s.opts.Assets {
		rate, ok := rates[asset]
		if !ok {
			continue
		}
		s.records[asset] = rate
		applied = append(applied, asset)
		updates[asset] = rate
	}

	s.state.LastSuccess = now
	s.state.IsLive = true
	s.state.HadError = partial
	onUpdate := s.opts.OnUpdate
	s.mu.Unlock()

	if partial {
		s.logger.Warn().Err(err).Int("applied", len(applied)).
			Msg("partial rate payload; missing assets keep last known rates")
	}

	if onUpdate != nil {
		for _, asset := range applied {
			onUpdate(asset, updates[asset], now)
		}
	}
}
