package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/therenansimoes/organizations/api/routes"
	"github.com/therenansimoes/organizations/internal/assignments"
	"github.com/therenansimoes/organizations/internal/cache"
	"github.com/therenansimoes/organizations/internal/lifecycle"
	"github.com/therenansimoes/organizations/pkg/config"
	"github.com/therenansimoes/organizations/pkg/db"
	"github.com/therenansimoes/organizations/pkg/docstore"
	"github.com/therenansimoes/organizations/pkg/logger"
	"github.com/therenansimoes/organizations/pkg/metrics"
	"github.com/therenansimoes/organizations/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	docstoreMetrics := metrics.NewDocstoreMetrics(registry)

	var (
		store    docstore.Store
		dbPinger routes.Pinger
	)
	if cfg.Docstore.IsGormBackend() {
		dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()

		gormStore, err := docstore.NewGormStore(dbClient.DB())
		if err != nil {
			logg.Error(context.Background(), "failed to create gorm document store", err)
			os.Exit(1)
		}
		gormStore.WithLinkedEntities(map[string]string{
			assignments.FieldPersonaID: cfg.Docstore.Entities.PersonaAcronym,
			assignments.FieldRoleID:    cfg.Docstore.Entities.RoleAcronym,
		})
		if cfg.FeatureFlags.AutoMigrate {
			if err := gormStore.AutoMigrate(); err != nil {
				logg.Error(context.Background(), "failed to migrate document store", err)
				os.Exit(1)
			}
		}
		store = gormStore
		dbPinger = dbClient
	} else {
		masterdata, err := docstore.NewMasterdata(cfg.Docstore, logg, docstoreMetrics)
		if err != nil {
			logg.Error(context.Background(), "failed to create masterdata client", err)
			os.Exit(1)
		}
		store = masterdata
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	repo, err := assignments.NewRepository(assignments.RepositoryParams{
		Store:    store,
		Entities: cfg.Docstore.Entities,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create assignments repository", err)
		os.Exit(1)
	}
	repo.WithSnapshotCache(redisClient, cfg.Cache.AssignmentTTL)

	engine, err := lifecycle.NewEngine(lifecycle.EngineParams{
		Store:    store,
		Entities: cfg.Docstore.Entities,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create lifecycle engine", err)
		os.Exit(1)
	}

	collection := cache.NewCollection()
	synchronizer, err := cache.NewSynchronizer(cache.SynchronizerParams{
		Collection: collection,
		Snapshots:  redisClient,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cache synchronizer", err)
		os.Exit(1)
	}

	membershipService, err := lifecycle.NewService(lifecycle.ServiceParams{
		Repo:          repo,
		Engine:        engine,
		Collection:    collection,
		Synchronizer:  synchronizer,
		Confirmations: lifecycle.NewConfirmationRegistry(),
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create membership service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": cfg.Docstore.Backend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbPinger,
			redisClient,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			membershipService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
