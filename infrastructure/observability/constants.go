package observability

// Metric name prefixes
const (
	MetricPrefix = "payouts"
)

// Metric names
const (
	// Payout metrics
	PayoutOutcomesTotal      = MetricPrefix + ".payout.outcomes_total"
	PayoutAmountYen          = MetricPrefix + ".payout.amount_yen"
	PayoutConfirmationsTotal = MetricPrefix + ".payout.confirmations_total"
	MonthProcessingDuration  = MetricPrefix + ".month.processing_duration"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Database metrics
	DatabaseQueriesTotal  = MetricPrefix + ".database.queries_total"
	DatabaseQueryDuration = MetricPrefix + ".database.query_duration"
)

// Label keys
const (
	LabelOutcome   = "outcome"
	LabelStatus    = "status"
	LabelResult    = "result"
	LabelPeriod    = "period"
	LabelEventType = "event_type"

	// Database labels
	LabelRepository = "repository"
	LabelMethod     = "method"
)

// Repository names used for database metrics
const (
	RepositoryCommissionSetting = "commission_setting"
	RepositoryPayment           = "payment"
	RepositoryPayout            = "payout"
	RepositoryPayoutRun         = "payout_run"
)
