package trace

import (
	"os"
	"strconv"
	"time"
)

// Environment variables read by ResolveBatchConfig.
const (
	envMaxQueueSize        = "OTEL_BSP_MAX_QUEUE_SIZE"
	envScheduleDelay       = "OTEL_BSP_SCHEDULE_DELAY"
	envScheduleDelayMillis = "OTEL_BSP_SCHEDULE_DELAY_MILLIS"
	envMaxExportBatchSize  = "OTEL_BSP_MAX_EXPORT_BATCH_SIZE"
	envExportTimeout       = "OTEL_BSP_EXPORT_TIMEOUT"
	envExportTimeoutMillis = "OTEL_BSP_EXPORT_TIMEOUT_MILLIS"
)

// Defaults for BatchConfig, applied before environment overrides.
const (
	defaultMaxQueueSize       = 2048
	defaultScheduledDelayMS   = 5_000
	defaultMaxExportBatchSize = 512
	defaultExportTimeoutMS    = 30_000
)

// BatchConfig holds the immutable parameters of a BatchSpanProcessor.
type BatchConfig struct {
	// MaxQueueSize is the maximum number of spans buffered for export. Once
	// full, incoming spans are dropped and reported to the global error
	// sink.
	MaxQueueSize int
	// ScheduledDelay is the interval between unobserved, timer-driven
	// flushes.
	ScheduledDelay time.Duration
	// MaxExportBatchSize is the maximum number of spans sent to the
	// exporter in a single call. Always clamped to MaxQueueSize.
	MaxExportBatchSize int
	// ExportTimeout bounds a single sub-batch export.
	ExportTimeout time.Duration
}

// DefaultBatchConfig returns the hardcoded defaults with no environment
// overrides applied.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxQueueSize:       defaultMaxQueueSize,
		ScheduledDelay:     defaultScheduledDelayMS * time.Millisecond,
		MaxExportBatchSize: defaultMaxExportBatchSize,
		ExportTimeout:      defaultExportTimeoutMS * time.Millisecond,
	}
}

// ResolveBatchConfig returns BatchConfig defaults overridden by whichever of
// the OTEL_BSP_* environment variables are set and parse cleanly. Unparsable
// or negative values are ignored and the default (or prior override) is
// kept. MaxExportBatchSize is clamped to MaxQueueSize as the final step.
func ResolveBatchConfig() BatchConfig {
	cfg := DefaultBatchConfig()

	if v, ok := parseEnvInt(envMaxQueueSize); ok {
		cfg.MaxQueueSize = v
	}
	if d, ok := parseEnvMillis(envScheduleDelay, envScheduleDelayMillis); ok {
		cfg.ScheduledDelay = d
	}
	if v, ok := parseEnvInt(envMaxExportBatchSize); ok {
		cfg.MaxExportBatchSize = v
	}
	if cfg.MaxExportBatchSize > cfg.MaxQueueSize {
		cfg.MaxExportBatchSize = cfg.MaxQueueSize
	}
	if d, ok := parseEnvMillis(envExportTimeout, envExportTimeoutMillis); ok {
		cfg.ExportTimeout = d
	}

	return cfg
}

// parseEnvInt reads name as a positive decimal integer. A missing, negative,
// zero, or malformed value reports ok=false.
func parseEnvInt(name string) (int, bool) {
	s := os.Getenv(name)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseEnvMillis reads the first of primary/fallback that is set as a
// positive decimal count of milliseconds.
func parseEnvMillis(primary, fallback string) (time.Duration, bool) {
	for _, name := range [...]string{primary, fallback} {
		if n, ok := parseEnvInt(name); ok {
			return time.Duration(n) * time.Millisecond, true
		}
	}
	return 0, false
}
