package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/market-pulse/internal/modules/options"
)

// Scanner runs the options pipeline for one symbol
type Scanner interface {
	Scan(ctx context.Context, symbol string) (*options.ScanResult, error)
}

// ValueScorer supplies the value score recorded alongside a snapshot
type ValueScorer interface {
	Score(ctx context.Context, symbol string) (*float64, error)
}

// SnapshotRecorder persists one scan result, best effort
type SnapshotRecorder interface {
	Record(result *options.ScanResult, valueScore *float64)
}

// CaptureCycleJob scans the watchlist and records a snapshot per
// symbol. Symbols are scanned sequentially with a delay between them so
// the provider's rate limits are respected; a per-symbol failure is
// logged and skipped, never aborting the rest of the batch.
type CaptureCycleJob struct {
	scanner  Scanner
	values   ValueScorer
	recorder SnapshotRecorder
	session  *MarketSessionService

	watchlist []string
	scanDelay time.Duration
	timeout   time.Duration

	mu      sync.Mutex
	running bool

	log zerolog.Logger
}

// CaptureCycleConfig holds configuration for the capture cycle job
type CaptureCycleConfig struct {
	Scanner   Scanner
	Values    ValueScorer
	Recorder  SnapshotRecorder
	Session   *MarketSessionService
	Watchlist []string
	ScanDelay time.Duration
	Timeout   time.Duration
	Log       zerolog.Logger
}

// NewCaptureCycleJob creates a capture cycle job
func NewCaptureCycleJob(cfg CaptureCycleConfig) *CaptureCycleJob {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CaptureCycleJob{
		scanner:   cfg.Scanner,
		values:    cfg.Values,
		recorder:  cfg.Recorder,
		session:   cfg.Session,
		watchlist: cfg.Watchlist,
		scanDelay: cfg.ScanDelay,
		timeout:   timeout,
		log:       cfg.Log.With().Str("job", "capture_cycle").Logger(),
	}
}

// Name returns the job name
func (j *CaptureCycleJob) Name() string {
	return "capture_cycle"
}

// Run executes one capture cycle
func (j *CaptureCycleJob) Run() error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		j.log.Warn().Msg("Capture cycle already running, skipping")
		return nil
	}
	j.running = true
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	if j.session != nil && !j.session.IsTradingDay(time.Now()) {
		j.log.Debug().Msg("Market closed today, skipping capture cycle")
		return nil
	}

	start := time.Now()
	captured := 0

	for i, symbol := range j.watchlist {
		if i > 0 && j.scanDelay > 0 {
			time.Sleep(j.scanDelay)
		}
		if j.captureSymbol(symbol) {
			captured++
		}
	}

	j.log.Info().
		Int("watchlist", len(j.watchlist)).
		Int("captured", captured).
		Dur("elapsed", time.Since(start)).
		Msg("Capture cycle completed")
	return nil
}

// captureSymbol scans one symbol and records the snapshot. Returns
// false when the scan failed; value scoring failures degrade to a nil
// score rather than discarding the scan.
func (j *CaptureCycleJob) captureSymbol(symbol string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.scanner.Scan(ctx, symbol)
	if err != nil {
		j.log.Error().Err(err).Str("symbol", symbol).Msg("Scan failed, skipping symbol")
		return false
	}

	var valueScore *float64
	if j.values != nil {
		valueScore, err = j.values.Score(ctx, symbol)
		if err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Value score unavailable")
			valueScore = nil
		}
	}

	if j.recorder != nil {
		j.recorder.Record(result, valueScore)
	}
	return true
}
