package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"payouts/api"
	"payouts/bot"
	"payouts/config"
	"payouts/infrastructure"
	"payouts/infrastructure/observability"
	"payouts/service"
)

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	log.Println("Starting payouts service...")

	log.Println("Initializing metrics...")
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	log.Println("Connecting to database...")
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	log.Println("Database connection established successfully")

	var natsClient *infrastructure.NATSClient
	if cfg.NATSEnabled {
		log.Println("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			a.close()
			return err
		}
		if err := natsClient.EnsureStream(infrastructure.EventStreamName, infrastructure.AllSubjects()); err != nil {
			log.Printf("Failed to ensure event stream: %v", err)
		}
		infrastructure.NewNATSEventForwarder(natsClient).Register(a.eventBus)
		log.Println("Payout events are forwarded to NATS")
	}

	var notifier *bot.AdminNotifier
	if cfg.DiscordNotificationsEnabled() {
		log.Println("Initializing Discord admin notifier...")
		notifier, err = bot.New(bot.Config{
			Token:          cfg.DiscordToken,
			AdminChannelID: cfg.DiscordAdminChannelID,
		})
		if err != nil {
			log.Printf("Discord notifications disabled: %v", err)
		} else {
			notifier.Register(a.eventBus)
			log.Println("Discord admin notifier initialized successfully")
		}
	}

	var stopScheduler func()
	if cfg.PayoutScheduleEnabled {
		worker := service.NewPayoutScheduleWorker(a.payouts, cfg.PayoutScheduleDay, cfg.PayoutScheduleHour)
		stopScheduler = worker.Start(ctx)
	}

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Dependencies{
			Payouts:            a.payouts,
			CommissionSettings: a.commissionSettings,
			AllowedOrigins:     cfg.CORSAllowedOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	log.Printf("Payouts service is running in %s mode...", cfg.Environment)
	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	log.Println("Shutting down payouts service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
	if stopScheduler != nil {
		stopScheduler()
	}

	// Pending event handlers still need NATS and Discord
	a.close()

	if notifier != nil {
		if err := notifier.Close(); err != nil {
			log.Printf("Error closing Discord notifier: %v", err)
		}
	}
	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics: %v", err)
	}

	log.Println("Shutdown completed")
	return runErr
}
