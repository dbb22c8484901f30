package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/database"
	"github.com/belphemur/hebrew-calendar/internal/dataset"
	"github.com/belphemur/hebrew-calendar/internal/handlers"
	"github.com/belphemur/hebrew-calendar/internal/logging"
	"github.com/belphemur/hebrew-calendar/internal/publish"
	"github.com/belphemur/hebrew-calendar/internal/reload"
	appSignals "github.com/belphemur/hebrew-calendar/internal/signals"
	"github.com/belphemur/hebrew-calendar/internal/token"
	"github.com/belphemur/hebrew-calendar/internal/watcher"
)

// snapshotsKept is how many dataset snapshots survive a prune
const snapshotsKept = 5

const (
	pruneListenerKey   = "main-snapshot-prune"
	publishListenerKey = "main-publish-on-reload"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the dataset and serve it over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	logger := logging.GetLogger("main")
	logger.Info().Str("version", version).Str("dataset", cfg.DatasetPath()).Msg("Starting hebrew-calendar")

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	loadStore := database.NewLoadStore(db)
	snapshotStore := database.NewSnapshotStore(db)
	tokenStore := database.NewTokenStore(db)

	holder := calendar.NewHolder(nil)
	primary, resource := fileLoader("")
	opts := []reload.Option{reload.WithLoadStore(loadStore), reload.WithSnapshotStore(snapshotStore)}
	if cfg.Dataset.SnapshotFallback {
		opts = append(opts, reload.WithFallback(dataset.NewLoader(database.NewSnapshotProvider(snapshotStore), newVerifier())))
	}
	reloader := reload.New(holder, primary, resource, opts...)

	// Prune old snapshots after every publish
	appSignals.OnDatasetReloaded(func(ctx context.Context, data appSignals.DatasetReloadedData) {
		signalLogger := logging.GetLogger("signal-dataset-reloaded")
		removed, err := snapshotStore.Prune(ctx, snapshotsKept)
		if err != nil {
			signalLogger.Warn().Err(err).Msg("Failed to prune dataset snapshots")
			return
		}
		if removed > 0 {
			signalLogger.Debug().Int64("removed", removed).Msg("Pruned dataset snapshots")
		}
	}, pruneListenerKey)
	defer appSignals.Off(pruneListenerKey)

	var (
		tokenManager    *token.TokenManager
		calendarManager *publish.Manager
	)
	if cfg.OAuth != nil && cfg.OAuth.ClientID != "" {
		tokenManager = token.NewTokenManager(tokenStore, token.NewOAuthConfig(cfg.OAuth), cfg.Publish.TokenFile)
		calendarManager = publish.NewManager(tokenStore, tokenManager, cfg.Publish.CalendarID)

		if cfg.Publish.OnReload {
			appSignals.OnDatasetReloaded(func(_ context.Context, data appSignals.DatasetReloadedData) {
				// Emit waits for listeners and the reload context may be short lived,
				// so publishing runs detached on the service context
				go publishOnReload(ctx, holder, tokenManager, calendarManager, data.Generation)
			}, publishListenerKey)
			defer appSignals.Off(publishListenerKey)
		}
	} else {
		logger.Info().Msg("GOOGLE_OAUTH_CLIENT_ID not set, calendar publishing disabled")
	}

	// A failed first load leaves the service up and unready; the watcher or
	// the schedule retries
	if outcome, err := reloader.Reload(ctx); err != nil {
		logger.Warn().Err(err).Str("kind", reload.ErrorKind(err)).Msg("Initial dataset load failed, serving 503 until a reload succeeds")
	} else {
		logger.Info().Str("source", string(outcome.Source)).Str("digest", outcome.Digest).Msg("Initial dataset published")
	}

	if cfg.Dataset.Watch {
		w, err := watcher.New(cfg.Dataset.Dir, cfg.Dataset.Name, watcher.DefaultDebounce)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
		go reloader.Follow(ctx, w.Changes)
		logger.Info().Str("dir", cfg.Dataset.Dir).Msg("Watching dataset directory")
	}

	var nextReload func() time.Time
	if cfg.Dataset.ReloadSchedule != "" {
		sched, err := reload.NewScheduler(reloader, cfg.Dataset.ReloadSchedule, time.Minute)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		nextReload = sched.Next
		logger.Info().Time("next", sched.Next()).Msg("Next dataset reload")
	}

	// Routes
	mux := http.NewServeMux()
	baseHandler := handlers.NewBaseHandler(holder)
	handlers.NewCalendarHandler(baseHandler, cfg.WeekStartDay()).RegisterRoutes(mux)
	handlers.NewStatusHandler(baseHandler, loadStore, nextReload).RegisterRoutes(mux)
	if calendarManager != nil {
		handlers.NewOAuthHandler(baseHandler, tokenManager, calendarManager).RegisterRoutes(mux)
		handlers.NewPublishHandler(baseHandler, calendarManager, cfg.EventKinds(), cfg.Publish.LookAheadDays).RegisterRoutes(mux)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Service.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Service.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Context cancelled, initiating shutdown sequence")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}
	logger.Info().Msg("HTTP server shut down gracefully")
	return nil
}

// publishOnReload republishes the default range after a dataset reload when
// an account is connected
func publishOnReload(ctx context.Context, holder *calendar.Holder, tm *token.TokenManager, manager *publish.Manager, generation string) {
	logger := logging.GetLogger("publish-on-reload").With().Str("generation", generation).Logger()

	hasToken, err := tm.HasToken(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to check for a stored token")
		return
	}
	if !hasToken {
		logger.Debug().Msg("No Google account connected, skipping publish")
		return
	}

	svc, err := manager.Service(ctx, "")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create calendar service")
		return
	}

	from, to := publish.DefaultRange(time.Now(), cfg.Publish.LookAheadDays)
	result, err := publish.Publish(ctx, svc, holder.Current(), from, to, cfg.EventKinds())
	if err != nil {
		logger.Error().Err(err).Msg("Publish after reload failed")
		return
	}
	logger.Info().
		Str("calendar_id", svc.CalendarID()).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deleted", result.Deleted).
		Int("unchanged", result.Unchanged).
		Msg("Published after reload")
}
