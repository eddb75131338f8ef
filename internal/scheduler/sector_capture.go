package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SectorCapturer aggregates the day's movers into sector stats
type SectorCapturer interface {
	Capture(ctx context.Context) error
}

// SectorCaptureJob snapshots sector rotation once per run, typically
// scheduled near the close
type SectorCaptureJob struct {
	capturer SectorCapturer
	session  *MarketSessionService
	timeout  time.Duration
	log      zerolog.Logger
}

// NewSectorCaptureJob creates a sector capture job
func NewSectorCaptureJob(capturer SectorCapturer, session *MarketSessionService, log zerolog.Logger) *SectorCaptureJob {
	return &SectorCaptureJob{
		capturer: capturer,
		session:  session,
		timeout:  time.Minute,
		log:      log.With().Str("job", "sector_capture").Logger(),
	}
}

// Name returns the job name
func (j *SectorCaptureJob) Name() string {
	return "sector_capture"
}

// Run captures the current sector stats
func (j *SectorCaptureJob) Run() error {
	if j.session != nil && !j.session.IsTradingDay(time.Now()) {
		j.log.Debug().Msg("Market closed today, skipping sector capture")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	return j.capturer.Capture(ctx)
}
