// Package assembler independently reconstructs Trades from Fills by
// corrId, persists them, and republishes on arb.trades — a redundant
// consumer path used when the executor runs in pass-through modes.
package assembler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"arbitrage/internal/models"
)

// ErrTradeNotFound is returned by Store.GetByCorrID when no row matches.
var ErrTradeNotFound = errors.New("assembler: trade not found")

// Store persists assembled Trades to Postgres, following
// internal/repository/order_repository.go's query/Scan pattern.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save inserts trade for corrID. legs is stored as a JSON array so the
// schema doesn't need a child table for a handful of legs per trade.
func (s *Store) Save(ctx context.Context, corrID string, trade models.Trade) error {
	legsJSON, err := json.Marshal(trade.Legs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO trades (corr_id, ts, mode, legs, realized_pnl, taken, approved, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int64
	err = s.db.QueryRowContext(ctx, query,
		corrID,
		trade.Ts,
		trade.Mode,
		legsJSON,
		trade.RealizedPnl,
		trade.Taken,
		trade.Approved,
		trade.Source,
		time.Now(),
	).Scan(&id)
	return err
}

// GetByCorrID returns the persisted Trade for corrID, used by the
// assembler's own tests and by the accounting consumer's reconciliation
// path.
func (s *Store) GetByCorrID(ctx context.Context, corrID string) (models.Trade, error) {
	query := `
		SELECT ts, mode, legs, realized_pnl, taken, approved, source
		FROM trades
		WHERE corr_id = $1`

	var trade models.Trade
	var legsJSON []byte
	err := s.db.QueryRowContext(ctx, query, corrID).Scan(
		&trade.Ts, &trade.Mode, &legsJSON, &trade.RealizedPnl, &trade.Taken, &trade.Approved, &trade.Source,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Trade{}, ErrTradeNotFound
		}
		return models.Trade{}, err
	}
	if err := json.Unmarshal(legsJSON, &trade.Legs); err != nil {
		return models.Trade{}, err
	}
	trade.CorrID = corrID
	return trade, nil
}
