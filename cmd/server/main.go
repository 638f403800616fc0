package main

import (
	"context"
	"fmt"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/crmkit/backend/api/handler"
	"github.com/crmkit/backend/crm"
	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/internal/config"
	"github.com/crmkit/backend/internal/middleware"
	"github.com/crmkit/backend/internal/monitor"
	"github.com/crmkit/backend/internal/router"
	"github.com/crmkit/backend/internal/services/lifecycle"
	"github.com/crmkit/backend/notify"
	"github.com/crmkit/backend/pkg/httpcontext"
	"github.com/crmkit/backend/pkg/logger"
	"github.com/crmkit/backend/substrate"
	boltSub "github.com/crmkit/backend/substrate/boltdb"
	memorySub "github.com/crmkit/backend/substrate/memory"
	postgresSub "github.com/crmkit/backend/substrate/postgres"
	redisSub "github.com/crmkit/backend/substrate/redis"
	dashboardUC "github.com/crmkit/backend/usecase/dashboard"
	paymentsUC "github.com/crmkit/backend/usecase/payments"
	securityUC "github.com/crmkit/backend/usecase/security"
	"github.com/crmkit/backend/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	sub, err := openSubstrate(appCtx, cfg.Substrate, zapLogger)
	if err != nil {
		zapLogger.Fatal("substrate open failed", zap.Error(err))
	}
	manager.Register("substrate", func(ctx context.Context) error {
		return sub.Close()
	})

	notifier := notify.New()
	notifier.Subscribe(func(evt domain.Event) {
		zapLogger.Debug("collection changed",
			zap.String("collection", evt.Collection),
			zap.String("type", string(evt.Type)),
			zap.Int64("record_id", evt.Record.ID))
	})

	registry := crm.NewRegistry(sub, notifier, logger.Component(zapLogger, "store"))

	mon := monitor.New(sub, registry, cfg.Workflow.MonitorInterval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	security := securityUC.New(sub, zapLogger, securityUC.Config{Period: cfg.Workflow.CodePeriod})

	engine := workflow.New(logger.Component(zapLogger, "workflow"), workflow.Config{
		Interval: cfg.Workflow.PollInterval,
	})

	contacts, _ := registry.Get(crm.KeyContacts)
	cancelApproval := engine.Watch(workflow.Watch{
		Source:  contacts,
		Trigger: domain.StatusPending,
		Dwell:   cfg.Workflow.ApprovalDwell,
		OnFire: func(ctx context.Context, rec domain.Record) error {
			_, err := contacts.Update(ctx, rec.ID, domain.Patch{domain.FieldStatus: domain.StatusApproved})
			return err
		},
	})

	cancelRotation := engine.Schedule("admin_code_rotation", security.Period(), func(ctx context.Context) error {
		_, err := security.Rotate(ctx)
		return err
	})

	engine.Start()
	manager.Register("workflow_engine", func(ctx context.Context) error {
		cancelApproval()
		cancelRotation()
		engine.Stop(ctx)
		return nil
	})

	wallets, _ := registry.Get(crm.KeyWallets)
	paymentLog, _ := registry.Get(crm.KeyPayments)

	payments := paymentsUC.New(wallets, paymentLog, zapLogger)
	dashboard := dashboardUC.New(registry, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Collections: apiHandler.NewCollectionHandler(registry, ctxAdapter, zapLogger),
		Dashboard:   apiHandler.NewDashboardHandler(dashboard, ctxAdapter, zapLogger),
		Payments:    apiHandler.NewPaymentsHandler(payments, ctxAdapter, zapLogger),
		Security:    apiHandler.NewSecurityHandler(security, ctxAdapter, zapLogger),
		Health:      apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// openSubstrate wires the driver selected by configuration. Collections see
// only the substrate contract, never the driver.
func openSubstrate(ctx context.Context, cfg config.SubstrateConfig, zapLogger *zap.Logger) (substrate.Substrate, error) {
	switch cfg.Driver {
	case substrateDriverMemory:
		return memorySub.New(), nil

	case substrateDriverBolt:
		return boltSub.Open(cfg.BoltPath, cfg.BoltBucket)

	case substrateDriverRedis:
		return redisSub.Open(redisSub.Config{
			URL:      cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})

	case substrateDriverPostgres:
		if cfg.MigrationsEnabled {
			if err := postgresSub.RunMigrations(cfg.PostgresURL, cfg.MigrationsPath, zapLogger); err != nil {
				return nil, err
			}
		}
		return postgresSub.Open(ctx, postgresSub.Config{
			URL:             cfg.PostgresURL,
			MaxOpenConns:    cfg.PostgresMaxOpenConns,
			MaxIdleConns:    cfg.PostgresMaxIdleConns,
			MaxConnLifetime: cfg.PostgresMaxConnLifetime,
		}, zapLogger)

	default:
		return nil, fmt.Errorf("unknown substrate driver %q", cfg.Driver)
	}
}

const (
	substrateDriverMemory   = "memory"
	substrateDriverBolt     = "boltdb"
	substrateDriverRedis    = "redis"
	substrateDriverPostgres = "postgres"
)
