package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/plant-md/internal/application"
	appdiag "github.com/bryanwahyu/plant-md/internal/application/diagnosis"
	"github.com/bryanwahyu/plant-md/internal/config"
	"github.com/bryanwahyu/plant-md/internal/domain/ai"
	"github.com/bryanwahyu/plant-md/internal/domain/events"
	"github.com/bryanwahyu/plant-md/internal/infra/ai/gemini"
	openaiClient "github.com/bryanwahyu/plant-md/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/plant-md/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/plant-md/internal/infra/db/postgres"
	"github.com/bryanwahyu/plant-md/internal/infra/eventbus"
	"github.com/bryanwahyu/plant-md/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/plant-md/internal/infra/storage"
	"github.com/bryanwahyu/plant-md/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()
	checkers := map[string]middleware.HealthChecker{}

	provider, err := newProvider(ctx, cfg.Provider)
	if err != nil {
		log.Fatalf("provider init error: %v", err)
	}

	svc := &appdiag.Service{
		Provider:      provider,
		Clock:         application.SystemClock{},
		MaxImageBytes: cfg.Server.MaxImageBytes,
	}

	if cfg.Archive.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Archive.Endpoint,
			cfg.Archive.Region,
			cfg.Archive.BucketName,
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			cfg.Archive.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		svc.Archive = store
		checkers["archive"] = store
	}

	var recorders events.Multi

	db, repo, err := openEventStore(ctx, cfg)
	if err != nil {
		log.Fatalf("%s connect error: %v", cfg.Events.Driver, err)
	}
	if db != nil {
		defer db.Close()
		recorders = append(recorders, repo)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	if cfg.Events.NATS.URL != "" {
		pub, err := eventbus.NewPublisher(cfg.Events.NATS.URL, cfg.Events.NATS.Subject)
		if err != nil {
			log.Fatalf("nats connect error: %v", err)
		}
		defer pub.Close()
		recorders = append(recorders, pub)
		checkers["nats"] = pub
	}

	if len(recorders) > 0 {
		svc.Events = recorders
	}

	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, httpserver.Options{
		Checkers:    checkers,
		CORSOrigins: cfg.Server.CORSOrigins,
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("server listening on %s provider=%s", addr, cfg.Provider.Name)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// newProvider returns nil when no API key is configured; the relay then
// answers every analysis with a configuration error instead of exiting.
func newProvider(ctx context.Context, pc config.ProviderConfig) (ai.Provider, error) {
	if pc.APIKey == "" {
		log.Printf("warning: API_KEY is not set, /api/analyze will return a configuration error")
		return nil, nil
	}
	switch pc.Name {
	case config.ProviderOpenAI:
		return openaiClient.NewClient(pc.APIKey, pc.Model, pc.BaseURL), nil
	default:
		c, err := gemini.NewClient(ctx, pc.APIKey, pc.Model, pc.BaseURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type eventStore interface {
	events.Recorder
	EnsureSchema(ctx context.Context) error
}

func openEventStore(ctx context.Context, cfg *config.Config) (*sql.DB, events.Recorder, error) {
	var (
		db    *sql.DB
		store eventStore
		err   error
	)
	switch cfg.Events.Driver {
	case config.DriverMySQL:
		if db, err = mysqlp.Connect(ctx, cfg.MySQLDSN()); err != nil {
			return nil, nil, err
		}
		store = mysqlp.NewEventRepository(db)
	case config.DriverPostgres:
		if db, err = postgresp.Connect(ctx, cfg.PostgresDSN()); err != nil {
			return nil, nil, err
		}
		store = postgresp.NewEventRepository(db)
	default:
		return nil, nil, nil
	}

	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, store, nil
}
