package observability

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"payouts/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// MetricsProvider manages OpenTelemetry metrics for the payout service.
// All recording methods are safe on a nil or disabled provider.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	payoutOutcomesCounter        metric.Int64Counter
	payoutAmountCounter          metric.Int64Counter
	payoutConfirmationsCounter   metric.Int64Counter
	monthProcessingHist          metric.Float64Histogram
	natsMessagesPublishedCounter metric.Int64Counter
	databaseQueriesCounter       metric.Int64Counter
	databaseQueryDurationHist    metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Println("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Println("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Println("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.Printf("Using OTLP metric exporter: %s", mp.config.OTelOTLPEndpoint)

	case "none":
		log.Println("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("payouts")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Println("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.payoutOutcomesCounter, err = mp.meter.Int64Counter(
		PayoutOutcomesTotal,
		metric.WithDescription("Authors processed by monthly payout runs, by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create payout outcomes counter: %w", err)
	}

	mp.payoutAmountCounter, err = mp.meter.Int64Counter(
		PayoutAmountYen,
		metric.WithDescription("Payout amounts in yen, by status"),
		metric.WithUnit("{yen}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create payout amount counter: %w", err)
	}

	mp.payoutConfirmationsCounter, err = mp.meter.Int64Counter(
		PayoutConfirmationsTotal,
		metric.WithDescription("Payout confirmation attempts, by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create payout confirmations counter: %w", err)
	}

	mp.monthProcessingHist, err = mp.meter.Float64Histogram(
		MonthProcessingDuration,
		metric.WithDescription("Duration of monthly payout processing in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 30, 60, 300, 900),
	)
	if err != nil {
		return fmt.Errorf("failed to create month processing histogram: %w", err)
	}

	mp.natsMessagesPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	mp.databaseQueriesCounter, err = mp.meter.Int64Counter(
		DatabaseQueriesTotal,
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create database queries counter: %w", err)
	}

	mp.databaseQueryDurationHist, err = mp.meter.Float64Histogram(
		DatabaseQueryDuration,
		metric.WithDescription("Duration of database queries in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create database query duration histogram: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordPayoutOutcome counts one author result of a monthly run
func (mp *MetricsProvider) RecordPayoutOutcome(outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.payoutOutcomesCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelOutcome, outcome),
		),
	)
}

// RecordPayoutAmount adds amount yen under status
func (mp *MetricsProvider) RecordPayoutAmount(status string, amount int64) {
	if !mp.isEnabled() || amount <= 0 {
		return
	}

	mp.payoutAmountCounter.Add(context.Background(), amount,
		metric.WithAttributes(
			attribute.String(LabelStatus, status),
		),
	)
}

// RecordConfirmation counts a confirmation attempt
func (mp *MetricsProvider) RecordConfirmation(result string) {
	if !mp.isEnabled() {
		return
	}

	mp.payoutConfirmationsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelResult, result),
		),
	)
}

// RecordMonthProcessed records how long a monthly run took
func (mp *MetricsProvider) RecordMonthProcessed(period string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	mp.monthProcessingHist.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(
			attribute.String(LabelPeriod, period),
		),
	)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsMessagesPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
		),
	)
}

// RecordDatabaseQuery records a database query with duration
func (mp *MetricsProvider) RecordDatabaseQuery(repository, method string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelRepository, repository),
		attribute.String(LabelMethod, method),
	)

	mp.databaseQueriesCounter.Add(context.Background(), 1, attrs)
	mp.databaseQueryDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// MeasureDatabaseQuery returns a function to measure database query duration
// Usage:
//
//	defer observability.GetMetrics().MeasureDatabaseQuery("payout", "Upsert")()
func (mp *MetricsProvider) MeasureDatabaseQuery(repository, method string) func() {
	start := time.Now()
	return func() {
		mp.RecordDatabaseQuery(repository, method, time.Since(start))
	}
}

// isEnabled checks if metrics are enabled and instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.config.OTelEnabled && mp.meterProvider != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider. It is nil until
// InitializeGlobalMetrics runs; the recording methods tolerate that.
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
