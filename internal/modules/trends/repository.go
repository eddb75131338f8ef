package trends

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository persists sector stats and reads snapshot aggregates
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a trends repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "trends").Logger(),
	}
}

// ReplaceForDate swaps out the whole date partition in one transaction.
// Captures are recomputed from scratch, never patched row by row.
func (r *Repository) ReplaceForDate(date string, stats []SectorStat) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sector_stats WHERE date = ?`, date); err != nil {
		return fmt.Errorf("failed to clear sector stats for %s: %w", date, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sector_stats
			(sector, date, stock_count, avg_change, total_volume, leader_symbol, leader_change, rank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stats {
		if _, err := stmt.Exec(s.Sector, date, s.StockCount, s.AvgChange,
			s.TotalVolume, s.LeaderSymbol, s.LeaderChange, s.Rank); err != nil {
			return fmt.Errorf("failed to insert sector stat for %s: %w", s.Sector, err)
		}
	}

	return tx.Commit()
}

// GetByDate returns one date's sector stats in rank order
func (r *Repository) GetByDate(date string) ([]SectorStat, error) {
	rows, err := r.db.Query(`
		SELECT id, sector, date, stock_count, avg_change, total_volume,
		       leader_symbol, leader_change, rank
		FROM sector_stats WHERE date = ? ORDER BY rank`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query sector stats: %w", err)
	}
	defer rows.Close()

	return scanStats(rows)
}

// GetLatestDate returns the most recent capture date, or empty when no
// captures exist
func (r *Repository) GetLatestDate() (string, error) {
	var date sql.NullString
	err := r.db.QueryRow(`SELECT MAX(date) FROM sector_stats`).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query latest capture date: %w", err)
	}
	return date.String, nil
}

// GetHistory returns a sector's rows newest first, capped at limit
func (r *Repository) GetHistory(sector string, limit int) ([]SectorStat, error) {
	rows, err := r.db.Query(`
		SELECT id, sector, date, stock_count, avg_change, total_volume,
		       leader_symbol, leader_change, rank
		FROM sector_stats WHERE sector = ? ORDER BY date DESC LIMIT ?`, sector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sector history: %w", err)
	}
	defer rows.Close()

	return scanStats(rows)
}

func scanStats(rows *sql.Rows) ([]SectorStat, error) {
	var out []SectorStat
	for rows.Next() {
		var s SectorStat
		var leaderSymbol sql.NullString
		var leaderChange sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.Sector, &s.Date, &s.StockCount, &s.AvgChange,
			&s.TotalVolume, &leaderSymbol, &leaderChange, &s.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan sector stat: %w", err)
		}
		s.LeaderSymbol = leaderSymbol.String
		s.LeaderChange = leaderChange.Float64
		out = append(out, s)
	}
	return out, rows.Err()
}

// Macro aggregates the latest snapshot date into a market summary.
// Breadth is the fraction of symbols with positive sentiment.
func (r *Repository) Macro() (*MacroSummary, error) {
	var date sql.NullString
	if err := r.db.QueryRow(`SELECT MAX(date) FROM stock_snapshots`).Scan(&date); err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot date: %w", err)
	}
	if !date.Valid || date.String == "" {
		return &MacroSummary{}, nil
	}

	out := &MacroSummary{Date: date.String}
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       AVG(CASE WHEN sentiment_score > 0 THEN 1.0 ELSE 0.0 END),
		       COALESCE(AVG(sentiment_score), 0),
		       COALESCE(AVG(value_score), 0),
		       COALESCE(AVG(money_flow_strength), 0)
		FROM stock_snapshots WHERE date = ?`, date.String).
		Scan(&out.SymbolCount, &out.Breadth, &out.AvgSentiment, &out.AvgValue, &out.AvgMoneyFlow)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate snapshots: %w", err)
	}

	return out, nil
}
