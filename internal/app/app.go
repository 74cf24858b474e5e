package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"remit-rates/internal/alerting"
	"remit-rates/internal/config"
	"remit-rates/internal/ratesource"
	"remit-rates/internal/service"
	"remit-rates/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSource() *ratesource.Client {
	return ratesource.NewClient(ratesource.Options{
		BaseURL:           a.Config.RateSource.BaseURL,
		QuoteCurrency:     a.Config.RateSource.QuoteCurrency,
		ReferenceCurrency: a.Config.RateSource.ReferenceCurrency,
		Timeout:           a.Config.RateSource.RequestTimeout,
		UserAgent:         a.Config.RateSource.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running rate synchronizer service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	var sampleStore storage.SampleStore
	var locker storage.AdvisoryLocker
	if store != nil {
		sampleStore = store
		locker = store
	}

	svc := service.New(a.Config, a.newSource(), sampleStore, locker, a.newNotifier(), a.Logger)

	a.Logger.Info().Msg("starting rate synchronizer")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("rate synchronizer stopped")
	return nil
}

// QuoteOptions configure a one-shot conversion quote.
type QuoteOptions struct {
	Asset     string
	RawAmount string
	Direction string
	// FeeRate overrides the configured protocol fee when non-negative.
	FeeRate float64
}

// CompareOptions configure a corridor comparison.
type CompareOptions struct {
	Corridor  string
	RawAmount string
}

// ChartOptions configure the history chart command.
type ChartOptions struct {
	Asset   string
	Days    int
	PNGPath string
	Width   float64
	Height  float64
	Padding float64
}

// ExportOptions hold parameters for exporting persisted samples.
type ExportOptions struct {
	Asset     string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
