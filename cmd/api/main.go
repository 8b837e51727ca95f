package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/moodmusic/internal/adapters/audiodb"
	"github.com/ewilliams-labs/moodmusic/internal/adapters/prefs"
	"github.com/ewilliams-labs/moodmusic/internal/adapters/rest"
	"github.com/ewilliams-labs/moodmusic/internal/adapters/spotify"
	"github.com/ewilliams-labs/moodmusic/internal/adapters/sqlite"
	"github.com/ewilliams-labs/moodmusic/internal/config"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
	"github.com/ewilliams-labs/moodmusic/internal/core/services"
	"github.com/ewilliams-labs/moodmusic/internal/motion"
	"github.com/ewilliams-labs/moodmusic/internal/worker"
)

const appID = "com.ewilliamslabs.moodmusic"

func main() {
	// 1. Configuration (.env is optional)
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("moodmusic exited with error", zap.Error(err))
		_ = logger.Sync() // os.Exit skips deferred calls
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	// 2. Storage
	store, closeStore, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.SpotifyAccessToken != "" {
		if err := store.SetItem(context.Background(), spotify.TokenKey, cfg.SpotifyAccessToken); err != nil {
			return fmt.Errorf("seed spotify token: %w", err)
		}
	}

	// 3. Outbound adapters
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	limiter := rate.NewLimiter(rate.Every(cfg.AudioDBRateInterval), cfg.AudioDBRateBurst)
	metadata := audiodb.NewClient(httpClient, cfg.AudioDBBaseURL, cfg.AudioDBAPIKey, limiter, logger.Named("audiodb"))
	trackInfo := spotify.NewClient(spotify.TokenFromStore(store), cfg.SpotifyBaseURL, httpClient, logger.Named("spotify"))

	// 4. Fetch workers
	pool := worker.NewPool(cfg.Workers, cfg.QueueSize, logger.Named("worker"))
	pool.Start()
	defer pool.Stop()

	// 5. Core
	svc := services.NewOrchestrator(metadata, store,
		services.WithSessionDispatcher(pool),
		services.WithTrackInfo(trackInfo),
		services.WithOrchestratorLogger(logger.Named("service")),
		services.WithShakeConfig(motion.Config{
			Threshold:      cfg.ShakeThreshold,
			Debounce:       cfg.ShakeDebounce,
			SettleDelay:    cfg.ShakeSettle,
			SampleInterval: cfg.ShakeSampleInterval,
		}),
	)
	defer svc.Shutdown()

	handler := rest.NewHandler(svc, logger.Named("rest"))

	// 6. Server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	logger.Info("🎶 moodmusic API is running",
		zap.String("addr", srv.Addr),
		zap.String("storage", cfg.StorageDriver))

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}
	return nil
}

func openStorage(cfg config.Config) (ports.Storage, func() error, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		dbAdapter, err := sqlite.NewAdapter(cfg.StoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize database: %w", err)
		}
		return dbAdapter, dbAdapter.Close, nil
	case config.DriverPrefs:
		a := fyneapp.NewWithID(appID)
		return prefs.NewStore(a.Preferences()), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.StorageDriver)
	}
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = lvl
	return zcfg.Build()
}
