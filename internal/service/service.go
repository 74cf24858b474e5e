package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"remit-rates/internal/alerting"
	"remit-rates/internal/config"
	"remit-rates/internal/ratesource"
	"remit-rates/internal/ratesync"
	"remit-rates/internal/storage"
)

// Service runs the rate synchronizer as a long-lived process: it persists
// applied updates, watches for staleness, and holds the advisory lock that
// keeps two instances from double-sampling.
type Service struct {
	cfg      *config.Config
	sync     *ratesync.Synchronizer
	store    storage.SampleStore
	locker   storage.AdvisoryLocker
	notifier alerting.Notifier
	logger   zerolog.Logger

	// checkInterval is how often the watchdog re-derives staleness.
	checkInterval time.Duration
}

// New constructs the service around a rate fetcher. store and notifier may be
// nil; the corresponding behaviour is disabled.
func New(cfg *config.Config, source ratesource.RateFetcher, store storage.SampleStore, locker storage.AdvisoryLocker, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	s := &Service{
		cfg:           cfg,
		store:         store,
		locker:        locker,
		notifier:      notifier,
		logger:        logger.With().Str("component", "service").Logger(),
		checkInterval: time.Second,
	}

	assets := make([]ratesource.AssetID, len(cfg.Sync.Assets))
	for i, a := range cfg.Sync.Assets {
		assets[i] = ratesource.AssetID(a)
	}

	defaults := make(map[ratesource.AssetID]ratesource.Rate, len(cfg.Sync.Defaults))
	for asset, d := range cfg.Sync.Defaults {
		defaults[ratesource.AssetID(asset)] = ratesource.Rate{
			QuotePrice:     decimal.NewFromFloat(d.QuotePrice),
			ReferencePrice: decimal.NewFromFloat(d.ReferencePrice),
		}
	}

	s.sync = ratesync.New(ratesync.Options{
		Assets:       assets,
		Interval:     cfg.Sync.Interval,
		FetchTimeout: cfg.Sync.FetchTimeout,
		Defaults:     defaults,
		OnUpdate:     s.recordUpdate,
	}, source, logger)

	return s
}

// Synchronizer exposes the owned synchronizer for read access.
func (s *Service) Synchronizer() *ratesync.Synchronizer {
	return s.sync
}

// Run starts polling and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.locker != nil && s.cfg.Sync.AdvisoryLockKey != 0 {
		unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.cfg.Sync.AdvisoryLockKey)
		if err != nil {
			return fmt.Errorf("acquire advisory lock: %w", err)
		}
		if !acquired {
			return fmt.Errorf("another ratewatcher instance holds the advisory lock")
		}
		defer unlock()
	}

	if err := s.sync.Start(); err != nil {
		return err
	}
	defer s.sync.Stop()

	s.logger.Info().
		Strs("assets", s.cfg.Sync.Assets).
		Dur("interval", s.cfg.Sync.Interval).
		Msg("rate synchronizer started")

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	var lastAlert time.Time
	var failedSince time.Time

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("rate synchronizer stopping")
			return ctx.Err()
		case <-ticker.C:
			now := time.Now().UTC()
			_, state := s.sync.Snapshot()

			if state.HadError && failedSince.IsZero() {
				failedSince = now
			} else if !state.HadError {
				failedSince = time.Time{}
			}

			s.logger.Debug().
				Str("status", ratesync.StatusLabel(state)).
				Str("age", ratesync.FormatAge(now, state.LastSuccess)).
				Msg("sync state")

			lastAlert = s.maybeAlert(ctx, now, state, failedSince, lastAlert)
		}
	}
}

// maybeAlert fires a staleness notification when the last success is older
// than the configured threshold, honouring the cooldown between alerts.
func (s *Service) maybeAlert(ctx context.Context, now time.Time, state ratesync.State, failedSince, lastAlert time.Time) time.Time {
	if !s.cfg.Alerting.Enabled || s.notifier == nil {
		return lastAlert
	}

	threshold := s.cfg.Alerting.StaleThreshold
	if threshold <= 0 {
		return lastAlert
	}

	var age time.Duration
	if state.LastSuccess.IsZero() {
		if failedSince.IsZero() {
			return lastAlert
		}
		age = now.Sub(failedSince)
	} else {
		age = now.Sub(state.LastSuccess)
	}
	if age < threshold {
		return lastAlert
	}
	if !lastAlert.IsZero() && now.Sub(lastAlert) < s.cfg.Alerting.Cooldown {
		return lastAlert
	}

	for _, asset := range s.cfg.Sync.Assets {
		note := alerting.Notification{
			Asset:       asset,
			LastSuccess: state.LastSuccess,
			Age:         age,
			Threshold:   threshold,
			FailedSince: failedSince,
		}
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Str("asset", asset).Msg("failed to dispatch staleness alert")
		}
	}
	return now
}

// recordUpdate is the synchronizer's OnUpdate hook: log the applied rate and
// persist it when a store is configured.
func (s *Service) recordUpdate(asset ratesource.AssetID, rate ratesource.Rate, at time.Time) {
	event := s.logger.Info().
		Str("asset", string(asset)).
		Str("quote_price", rate.QuotePrice.String()).
		Str("reference_price", rate.ReferencePrice.String())
	if rate.Change24h != nil {
		event = event.Str("change_24h", rate.Change24h.String())
	}
	event.Msg("rate updated")

	if s.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sample := storage.RateSample{
		Asset:          string(asset),
		FetchedAt:      at,
		QuotePrice:     rate.QuotePrice,
		ReferencePrice: rate.ReferencePrice,
		Change24h:      rate.Change24h,
		QuoteCurrency:  s.cfg.RateSource.QuoteCurrency,
	}
	if err := s.store.UpsertSample(ctx, sample); err != nil {
		s.logger.Error().Err(err).Str("asset", string(asset)).Msg("failed to persist rate sample")
	}
}
