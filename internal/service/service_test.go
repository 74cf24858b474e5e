package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"remit-rates/internal/alerting"
	"remit-rates/internal/config"
	"remit-rates/internal/ratesource"
	"remit-rates/internal/storage"
)

type staticFetcher struct {
	rates map[ratesource.AssetID]ratesource.Rate
	err   error
}

func (f *staticFetcher) FetchRates(ctx context.Context, assets []ratesource.AssetID) (map[ratesource.AssetID]ratesource.Rate, error) {
	return f.rates, f.err
}

type memoryStore struct {
	mu      sync.Mutex
	samples []storage.RateSample
}

func (m *memoryStore) UpsertSample(ctx context.Context, sample storage.RateSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, sample)
	return nil
}

func (m *memoryStore) ListSamplesBetween(ctx context.Context, asset string, from, to time.Time) ([]storage.RateSample, error) {
	return nil, nil
}

func (m *memoryStore) ListRecentSamples(ctx context.Context, limit int) ([]storage.RateSample, error) {
	return nil, nil
}

func (m *memoryStore) CountSamples(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.samples)), nil
}

func (m *memoryStore) DeleteSamplesBefore(ctx context.Context, olderThan time.Time) error {
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []alerting.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func testConfig() *config.Config {
	return &config.Config{
		Sync: config.SyncConfig{
			Assets:       []string{"bitcoin"},
			Interval:     time.Hour,
			FetchTimeout: time.Second,
		},
		RateSource: config.RateSourceConfig{QuoteCurrency: "ngn"},
		Alerting: config.AlertingConfig{
			StaleThreshold: 5 * time.Minute,
			Cooldown:       30 * time.Minute,
		},
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRunPersistsAppliedRates(t *testing.T) {
	fetcher := &staticFetcher{rates: map[ratesource.AssetID]ratesource.Rate{
		"bitcoin": {
			QuotePrice:     decimal.RequireFromString("98000000"),
			ReferencePrice: decimal.RequireFromString("62000"),
		},
	}}
	store := &memoryStore{}

	svc := New(testConfig(), fetcher, store, nil, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	waitUntil(t, "a persisted sample", func() bool {
		n, _ := store.CountSamples(context.Background())
		return n > 0
	})

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("run should exit with context.Canceled, got %v", err)
	}

	store.mu.Lock()
	sample := store.samples[0]
	store.mu.Unlock()
	if sample.Asset != "bitcoin" || sample.QuoteCurrency != "ngn" {
		t.Fatalf("unexpected sample %+v", sample)
	}
	if !sample.QuotePrice.Equal(decimal.RequireFromString("98000000")) {
		t.Fatalf("unexpected persisted price %s", sample.QuotePrice)
	}
}

func TestRunAlertsWhenNeverSucceeding(t *testing.T) {
	fetcher := &staticFetcher{err: errors.New("upstream down")}
	notifier := &recordingNotifier{}

	cfg := testConfig()
	cfg.Alerting.Enabled = true
	cfg.Alerting.StaleThreshold = 20 * time.Millisecond

	svc := New(cfg, fetcher, nil, nil, notifier, zerolog.Nop())
	svc.checkInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	waitUntil(t, "a staleness alert", func() bool { return notifier.count() > 0 })
	cancel()
	<-done

	notifier.mu.Lock()
	note := notifier.notes[0]
	notifier.mu.Unlock()
	if note.Asset != "bitcoin" {
		t.Fatalf("unexpected alert %+v", note)
	}
	if !note.LastSuccess.IsZero() {
		t.Fatal("never-succeeded alert should carry a zero LastSuccess")
	}
}

func TestRunAlertCooldown(t *testing.T) {
	fetcher := &staticFetcher{err: errors.New("upstream down")}
	notifier := &recordingNotifier{}

	cfg := testConfig()
	cfg.Alerting.Enabled = true
	cfg.Alerting.StaleThreshold = 20 * time.Millisecond
	cfg.Alerting.Cooldown = time.Hour

	svc := New(cfg, fetcher, nil, nil, notifier, zerolog.Nop())
	svc.checkInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	waitUntil(t, "the first alert", func() bool { return notifier.count() > 0 })
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if n := notifier.count(); n != 1 {
		t.Fatalf("cooldown should suppress repeats, got %d alerts", n)
	}
}

func TestRunNoAlertsWhileHealthy(t *testing.T) {
	fetcher := &staticFetcher{rates: map[ratesource.AssetID]ratesource.Rate{
		"bitcoin": {QuotePrice: decimal.New(1, 0), ReferencePrice: decimal.New(1, 0)},
	}}
	notifier := &recordingNotifier{}

	cfg := testConfig()
	cfg.Alerting.Enabled = true
	cfg.Alerting.StaleThreshold = time.Hour

	svc := New(cfg, fetcher, nil, nil, notifier, zerolog.Nop())
	svc.checkInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	waitUntil(t, "a successful sync", func() bool {
		_, state := svc.Synchronizer().Snapshot()
		return state.IsLive
	})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if notifier.count() != 0 {
		t.Fatal("healthy sync must not alert")
	}
}
