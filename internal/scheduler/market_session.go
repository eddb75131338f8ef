package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/market-pulse/internal/domain"
)

// MarketSessionService classifies the current US equity session.
// Capture jobs use it to skip closed markets, and the freshness gate
// widens its window outside regular hours.
type MarketSessionService struct {
	loc *time.Location
	now func() time.Time
	log zerolog.Logger
}

// NewMarketSessionService creates a session service pinned to US
// eastern time
func NewMarketSessionService(log zerolog.Logger) *MarketSessionService {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// UTC-5 keeps the service usable on systems without tzdata,
		// at the cost of DST accuracy
		loc = time.FixedZone("ET", -5*3600)
		log.Warn().Err(err).Msg("Eastern timezone unavailable, using fixed offset")
	}
	return &MarketSessionService{
		loc: loc,
		now: time.Now,
		log: log.With().Str("component", "market_session").Logger(),
	}
}

// usHolidays2026 lists full-day NYSE/NASDAQ closures
var usHolidays2026 = map[string]bool{
	"2026-01-01": true, // New Year's Day
	"2026-01-19": true, // MLK Day
	"2026-02-16": true, // Presidents Day
	"2026-04-03": true, // Good Friday
	"2026-05-25": true, // Memorial Day
	"2026-06-19": true, // Juneteenth
	"2026-07-03": true, // Independence Day (observed)
	"2026-09-07": true, // Labor Day
	"2026-11-26": true, // Thanksgiving
	"2026-12-25": true, // Christmas
}

// Current returns the session for the current wall clock
func (s *MarketSessionService) Current() domain.MarketState {
	return s.SessionAt(s.now())
}

// SessionAt classifies an arbitrary instant. Pre market runs 04:00 to
// 09:30 ET, regular 09:30 to 16:00, post 16:00 to 20:00.
func (s *MarketSessionService) SessionAt(t time.Time) domain.MarketState {
	et := t.In(s.loc)

	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		return domain.MarketStateClosed
	}
	if usHolidays2026[et.Format("2006-01-02")] {
		return domain.MarketStateClosed
	}

	minutes := et.Hour()*60 + et.Minute()
	switch {
	case minutes >= 4*60 && minutes < 9*60+30:
		return domain.MarketStatePre
	case minutes >= 9*60+30 && minutes < 16*60:
		return domain.MarketStateRegular
	case minutes >= 16*60 && minutes < 20*60:
		return domain.MarketStatePost
	default:
		return domain.MarketStateClosed
	}
}

// IsTradingDay reports whether the instant falls on a non-holiday
// weekday
func (s *MarketSessionService) IsTradingDay(t time.Time) bool {
	et := t.In(s.loc)
	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		return false
	}
	return !usHolidays2026[et.Format("2006-01-02")]
}
