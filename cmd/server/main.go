package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	appservice "github.com/stategrc/posturehub/internal/application/service"
	"github.com/stategrc/posturehub/internal/config"
	"github.com/stategrc/posturehub/internal/domain/models"
	domainservice "github.com/stategrc/posturehub/internal/domain/service"
	"github.com/stategrc/posturehub/internal/infrastructure/audit"
	"github.com/stategrc/posturehub/internal/infrastructure/monitoring"
	"github.com/stategrc/posturehub/internal/infrastructure/persistence/postgres"
	"github.com/stategrc/posturehub/internal/infrastructure/persistence/redis"
	"github.com/stategrc/posturehub/internal/infrastructure/secrets"
	"github.com/stategrc/posturehub/internal/interfaces/http/handlers"
	"github.com/stategrc/posturehub/internal/interfaces/http/middleware"
	"github.com/stategrc/posturehub/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize tracing", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = tracing.Shutdown(shutdownCtx)
	}()

	// Persistence.
	db, err := postgres.NewGormDB(&cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to connect to database", err)
	}

	healthPool, err := postgres.NewHealthPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to create health pool", err)
	}
	defer healthPool.Close()

	redisConn, err := redis.NewConnection(ctx, &cfg.Redis, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to connect to Redis", err)
	}
	defer redisConn.Close()

	// Access policy: static config, optional policy file with hot reload,
	// optional Vault-held fingerprints. Vault fingerprints are folded into
	// the config list so file reloads keep them.
	if cfg.Vault.Enabled {
		source, err := secrets.NewFingerprintSource(&cfg.Vault, appLogger)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to create Vault client", err)
		}
		vaultFingerprints, err := source.Fetch(ctx)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to load fingerprints from Vault", err)
		}
		cfg.Policy.AllowedFingerprints = append(cfg.Policy.AllowedFingerprints, vaultFingerprints...)
	}
	policyStore := domainservice.NewPolicyStore(
		models.NewAccessPolicy(cfg.Policy.AllowedTenants, cfg.Policy.AllowedFingerprints))
	if cfg.Policy.PolicyFile != "" {
		policy, err := config.LoadPolicyFile(cfg.Policy.PolicyFile, &cfg.Policy)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to load policy file", err)
		}
		policyStore.Swap(policy)
		if err := config.WatchPolicyFile(ctx, cfg.Policy.PolicyFile, &cfg.Policy, policyStore, appLogger); err != nil {
			appLogger.Fatal(ctx, "Failed to watch policy file", err)
		}
	}

	// Audit sinks: always the database, plus Kafka when enabled.
	var kafkaSink *audit.KafkaSink
	sinks := []domainservice.AuditSink{audit.NewGormSink(db, appLogger)}
	if cfg.Kafka.Enabled {
		kafkaSink = audit.NewKafkaSink(cfg.Kafka, appLogger)
		sinks = append(sinks, kafkaSink)
		defer kafkaSink.Close()
	}
	auditSink := audit.NewMultiSink(sinks...)

	metrics := monitoring.NewMetrics()

	// Repositories.
	storageTimeout := cfg.Database.StorageTimeout()
	snapshotRepo := postgres.NewSnapshotRepository(db, storageTimeout, appLogger)
	labelMapRepo := postgres.NewLabelMapRepository(db, storageTimeout, appLogger)
	rollupRepo := postgres.NewRollupRepository(db, storageTimeout, appLogger)

	// Domain services.
	guard := domainservice.NewAccessGuard(policyStore, auditSink, appLogger)
	validator := domainservice.NewSnapshotValidator(appLogger)
	tierCache := redis.NewTierCache(redisConn, time.Duration(cfg.Redis.TierCacheTTL)*time.Minute, appLogger)
	normalizer := domainservice.NewLabelNormalizer(labelMapRepo, tierCache, 5*time.Minute, appLogger)

	// Application services.
	ingestSvc := appservice.NewIngestAppService(validator, normalizer, snapshotRepo, metrics, appLogger)
	aggregateSvc := appservice.NewAggregateAppService(snapshotRepo, rollupRepo, metrics, appLogger)
	contextSvc := appservice.NewContextAppService(snapshotRepo, rollupRepo, cfg.Context.TenantCap, appLogger)

	if cfg.Aggregate.Enabled {
		scheduler := appservice.NewAggregateScheduler(aggregateSvc, cfg.Aggregate.HourUTC, appLogger)
		go scheduler.Run(ctx)
	}

	// HTTP interface.
	r := router.NewRouter(
		cfg, appLogger,
		handlers.NewHealthHandler(healthPool, redisConn, appLogger),
		handlers.NewIngestHandler(ingestSvc, appLogger),
		handlers.NewAggregateHandler(aggregateSvc, appLogger),
		handlers.NewContextHandler(contextSvc, appLogger),
		middleware.AccessGuard(guard, metrics),
		[]gin.HandlerFunc{
			middleware.RequestID(),
			middleware.Observability(otel.Tracer("posturehub/http"), metrics),
		}...,
	)

	go func() {
		if err := r.Start(); err != nil {
			appLogger.Fatal(ctx, "HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info(ctx, "Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := r.Stop(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "Server forced to shutdown", err)
	}
}
