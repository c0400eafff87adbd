package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/daygrid/internal/application"
	"github.com/example/daygrid/internal/config"
	httptransport "github.com/example/daygrid/internal/http"
	"github.com/example/daygrid/internal/persistence"
	"github.com/example/daygrid/internal/persistence/filestore"
	"github.com/example/daygrid/internal/persistence/sqlite"
	"github.com/example/daygrid/internal/snapshot"
	"github.com/example/daygrid/internal/timefmt"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	configPath := flag.String("config", "daygrid.yaml", "Path to config file")
	hashPassword := flag.String("hash-password", "", "Print the argon2id hash for the given password and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := httptransport.CreatePasswordHash(*hashPassword, httptransport.DefaultArgon2idParams)
		if err != nil {
			logger.Error("failed to hash password", "error", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	location, err := timefmt.ResolveLocation(cfg.Timezone)
	if err != nil {
		logger.Error("failed to resolve display timezone", "error", err)
		os.Exit(1)
	}

	storage, closeStorage, err := openStore(cfg.Storage)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := closeStorage(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := uuid.NewString
	now := time.Now

	eventRepo := newEventRepositoryAdapter(storage)
	eventService := application.NewEventServiceWithLogger(eventRepo, idGenerator, logger)
	formatter := timefmt.NewFormatter(location)
	viewService, err := application.NewDayViewServiceWithLogger(eventService, cfg.Window.Grid(), formatter, now, logger)
	if err != nil {
		logger.Error("failed to build day view", "error", err)
		os.Exit(1)
	}

	eventHandler := httptransport.NewEventHandler(viewService, eventService, logger)
	viewHandler := httptransport.NewViewHandler(viewService, logger)
	calendarHandler := httptransport.NewCalendarHandler(eventService, viewService, logger)

	middleware := []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)}
	if cfg.Auth != nil {
		middleware = append(middleware, healthExempt(httptransport.RequireBasicAuth(cfg.Auth.Username, cfg.Auth.PasswordHash, logger)))
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Events:     eventHandler,
		Views:      viewHandler,
		Calendar:   calendarHandler,
		Middleware: middleware,
	})

	if cfg.Snapshot != nil {
		exporter, err := snapshot.New(eventService, cfg.Snapshot.Path, cfg.Snapshot.Schedule, location, logger)
		if err != nil {
			logger.Error("failed to configure snapshots", "error", err)
			os.Exit(1)
		}
		exporter.Start()
		defer exporter.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("daygrid API listening", "addr", server.Addr, "backend", cfg.Storage.Backend, "timezone", location.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// openStore opens the configured persistence backend and returns it together
// with the function that closes it.
func openStore(cfg config.StorageConfig) (persistence.EventRepository, func() error, error) {
	switch cfg.Backend {
	case config.BackendFilestore:
		store, err := filestore.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.BackendSQLite:
		pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(cfg.SQLitePath))
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Migrate(context.Background()); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return sqlite.NewEventRepository(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// healthExempt applies wrap to every request except the liveness probe, so
// monitoring can reach /healthz without credentials.
func healthExempt(wrap func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := wrap(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.EqualFold(r.URL.Path, "/healthz") {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

type eventRepositoryAdapter struct {
	repo persistence.EventRepository
}

func newEventRepositoryAdapter(repo persistence.EventRepository) *eventRepositoryAdapter {
	return &eventRepositoryAdapter{repo: repo}
}

func (a *eventRepositoryAdapter) CreateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.CreateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.Event{}, err
	}
	stored, err := a.repo.GetEvent(ctx, event.ID)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored), nil
}

func (a *eventRepositoryAdapter) GetEvent(ctx context.Context, id string) (application.Event, error) {
	stored, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored), nil
}

func (a *eventRepositoryAdapter) UpdateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.UpdateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.Event{}, err
	}
	stored, err := a.repo.GetEvent(ctx, event.ID)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored), nil
}

func (a *eventRepositoryAdapter) DeleteEvent(ctx context.Context, id string) error {
	return a.repo.DeleteEvent(ctx, id)
}

func (a *eventRepositoryAdapter) ListOverlapping(ctx context.Context, start, end time.Time) ([]application.Event, error) {
	filter := persistence.EventFilter{OverlapsStart: &start, OverlapsEnd: &end}
	models, err := a.repo.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	events := make([]application.Event, 0, len(models))
	for _, model := range models {
		events = append(events, toApplicationEvent(model))
	}
	return events, nil
}

func toApplicationEvent(model persistence.Event) application.Event {
	return application.Event{
		ID:    model.ID,
		Title: model.Title,
		Start: model.Start,
		End:   model.End,
		Color: cloneString(model.Color),
		Notes: cloneString(model.Notes),
	}
}

func toPersistenceEvent(event application.Event) persistence.Event {
	return persistence.Event{
		ID:    event.ID,
		Title: event.Title,
		Start: event.Start,
		End:   event.End,
		Color: cloneString(event.Color),
		Notes: cloneString(event.Notes),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
