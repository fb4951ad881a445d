package cmd

import (
	"context"
	"fmt"

	"payouts/config"
	"payouts/database"
	"payouts/events"
	"payouts/infrastructure/observability"
	"payouts/repository"
	"payouts/service"

	"github.com/sirupsen/logrus"
)

// app holds the wired core shared by the server and the CLI commands
type app struct {
	db                 *database.DB
	eventBus           *events.Bus
	payouts            service.PayoutService
	commissionSettings service.CommissionSettingService
}

// ConfigureLogging applies the configured log level
func ConfigureLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	// Each payout worker holds a transaction while it processes an author
	db, err := database.NewConnectionWithMaxConns(ctx, cfg.GetDatabaseURL(), int32(cfg.PayoutWorkers+4))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	var metrics service.PayoutMetrics
	if provider := observability.GetMetrics(); provider != nil {
		metrics = provider
	}

	return &app{
		db:                 db,
		eventBus:           eventBus,
		payouts:            service.NewPayoutService(uowFactory, cfg.PayoutWorkers, metrics),
		commissionSettings: service.NewCommissionSettingService(uowFactory),
	}, nil
}

func (a *app) close() {
	a.eventBus.Wait()
	a.db.Close()
}
