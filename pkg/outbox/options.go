package outbox

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/pkg/configuration"
	"github.com/iota-uz/precinct/pkg/logging"
)

type RelayOptions struct {
	PollInterval    time.Duration
	BatchSize       int
	LockTTL         time.Duration
	MaxAttempts     int
	SingleActive    bool
	MaxBackoff      time.Duration
	JitterMax       time.Duration
	LastErrorMaxLen int
	DispatchTimeout time.Duration

	ObserveQueueDepthEvery time.Duration

	Logger *logrus.Entry
	Rand   *rand.Rand
}

// RelayOptionsFrom maps the OUTBOX_* settings.
func RelayOptionsFrom(cfg configuration.OutboxOptions, logger *logrus.Entry) RelayOptions {
	return RelayOptions{
		PollInterval:    cfg.RelayPollInterval,
		BatchSize:       cfg.RelayBatchSize,
		LockTTL:         cfg.RelayLockTTL,
		MaxAttempts:     cfg.RelayMaxAttempts,
		SingleActive:    true,
		LastErrorMaxLen: cfg.LastErrorMaxBytes,
		DispatchTimeout: cfg.RelayDispatchTimeout,
		Logger:          logger,
	}
}

func (o *RelayOptions) setDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.LockTTL <= 0 {
		o.LockTTL = time.Minute
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 25
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = time.Minute
	}
	if o.JitterMax <= 0 {
		o.JitterMax = 200 * time.Millisecond
	}
	if o.LastErrorMaxLen <= 0 {
		o.LastErrorMaxLen = 2048
	}
	if o.DispatchTimeout <= 0 {
		o.DispatchTimeout = 30 * time.Second
	}
	if o.ObserveQueueDepthEvery <= 0 {
		o.ObserveQueueDepthEvery = 10 * time.Second
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
}

type CleanerOptions struct {
	Enabled   bool
	Interval  time.Duration
	Retention time.Duration
	// Rows that exhausted their attempts are kept for DeadRetention; zero
	// keeps them forever.
	DeadRetention         time.Duration
	DeadAttemptsThreshold int

	Logger *logrus.Entry
}

func CleanerOptionsFrom(cfg configuration.OutboxOptions, logger *logrus.Entry) CleanerOptions {
	return CleanerOptions{
		Enabled:   cfg.CleanerEnabled,
		Interval:  cfg.CleanerInterval,
		Retention: cfg.CleanerRetention,
		Logger:    logger,
	}
}

func (o *CleanerOptions) setDefaults() {
	if o.Interval <= 0 {
		o.Interval = time.Minute
	}
	if o.Retention <= 0 {
		o.Retention = 7 * 24 * time.Hour
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
}
