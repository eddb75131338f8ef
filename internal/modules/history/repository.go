package history

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository persists stock snapshots and their combo records
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// SaveSnapshot inserts a snapshot and its combos in one transaction and
// returns the snapshot ID
func (r *Repository) SaveSnapshot(snapshot *StockSnapshot) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	market := snapshot.Market
	if market == "" {
		market = "US"
	}

	res, err := tx.Exec(`
		INSERT INTO stock_snapshots
			(symbol, market, date, price, value_score, sentiment_score, money_flow_strength)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snapshot.Symbol, market, snapshot.Date, snapshot.Price,
		snapshot.ValueScore, snapshot.SentimentScore, snapshot.MoneyFlowStrength)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot for %s: %w", snapshot.Symbol, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot id: %w", err)
	}

	for _, combo := range snapshot.Combos {
		if _, err := tx.Exec(`
			INSERT INTO option_combos
				(snapshot_id, combo_id, strategy, notional, risk_profile, leg_count)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, combo.ComboID, combo.Strategy, combo.Notional,
			combo.RiskProfile, combo.LegCount); err != nil {
			return 0, fmt.Errorf("failed to insert combo %s: %w", combo.ComboID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetBySymbol returns a symbol's snapshots newest first with combos
// attached, capped at limit
func (r *Repository) GetBySymbol(symbol string, limit int) ([]StockSnapshot, error) {
	rows, err := r.db.Query(`
		SELECT id, symbol, market, date, price, value_score, sentiment_score,
		       money_flow_strength, created_at
		FROM stock_snapshots
		WHERE symbol = ?
		ORDER BY date DESC, id DESC
		LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots for %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []StockSnapshot
	for rows.Next() {
		var s StockSnapshot
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Market, &s.Date, &s.Price,
			&s.ValueScore, &s.SentimentScore, &s.MoneyFlowStrength, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		combos, err := r.combosForSnapshot(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Combos = combos
	}
	return out, nil
}

func (r *Repository) combosForSnapshot(snapshotID int64) ([]ComboRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, snapshot_id, combo_id, strategy, notional, risk_profile, leg_count
		FROM option_combos WHERE snapshot_id = ? ORDER BY id`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query combos: %w", err)
	}
	defer rows.Close()

	var out []ComboRecord
	for rows.Next() {
		var c ComboRecord
		if err := rows.Scan(&c.ID, &c.SnapshotID, &c.ComboID, &c.Strategy,
			&c.Notional, &c.RiskProfile, &c.LegCount); err != nil {
			return nil, fmt.Errorf("failed to scan combo: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
