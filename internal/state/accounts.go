package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/agentlabs/pkg/models"
)

// GetAccount loads an account by name. Returns ErrNotFound if absent.
func (db *DB) GetAccount(name string) (*models.AccountRecord, error) {
	var (
		rec       models.AccountRecord
		holdings  string
		updatedAt string
	)
	err := db.QueryRow(`
		SELECT name, balance, strategy, holdings, initial_balance, cycles, updated_at
		FROM accounts WHERE name = ?
	`, name).Scan(&rec.Name, &rec.Balance, &rec.Strategy, &holdings, &rec.InitialBalance, &rec.Cycles, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", name, err)
	}

	if err := json.Unmarshal([]byte(holdings), &rec.Holdings); err != nil {
		return nil, fmt.Errorf("decode holdings for %s: %w", name, err)
	}
	if rec.Holdings == nil {
		rec.Holdings = map[string]int{}
	}
	if t, err := parseTime(updatedAt); err == nil {
		rec.UpdatedAt = t
	}

	return &rec, nil
}

// SaveAccount inserts or replaces an account.
func (db *DB) SaveAccount(rec *models.AccountRecord) error {
	return db.Transaction(func(tx *sql.Tx) error {
		return upsertAccount(tx, rec)
	})
}

// SaveTrade stores the updated account and appends the trade in one transaction.
func (db *DB) SaveTrade(rec *models.AccountRecord, trade *models.Transaction) error {
	return db.Transaction(func(tx *sql.Tx) error {
		if err := upsertAccount(tx, rec); err != nil {
			return err
		}

		if trade.Timestamp.IsZero() {
			trade.Timestamp = time.Now()
		}
		res, err := tx.Exec(`
			INSERT INTO transactions (account, symbol, side, quantity, price, rationale, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, rec.Name, trade.Symbol, string(trade.Side), trade.Quantity, trade.Price, trade.Rationale, formatTime(trade.Timestamp))
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		trade.Account = rec.Name
		trade.ID, _ = res.LastInsertId()
		return nil
	})
}

func upsertAccount(tx *sql.Tx, rec *models.AccountRecord) error {
	holdings := rec.Holdings
	if holdings == nil {
		holdings = map[string]int{}
	}
	encoded, err := json.Marshal(holdings)
	if err != nil {
		return fmt.Errorf("encode holdings: %w", err)
	}

	rec.UpdatedAt = time.Now()
	_, err = tx.Exec(`
		INSERT INTO accounts (name, balance, strategy, holdings, initial_balance, cycles, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			balance = excluded.balance,
			strategy = excluded.strategy,
			holdings = excluded.holdings,
			initial_balance = excluded.initial_balance,
			cycles = excluded.cycles,
			updated_at = excluded.updated_at
	`, rec.Name, rec.Balance, rec.Strategy, string(encoded), rec.InitialBalance, rec.Cycles, formatTime(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save account %s: %w", rec.Name, err)
	}
	return nil
}

// ListTransactions returns an account's trades, oldest first. A positive
// limit keeps only the most recent trades.
func (db *DB) ListTransactions(account string, limit int) ([]models.Transaction, error) {
	query := `
		SELECT id, account, symbol, side, quantity, price, rationale, timestamp
		FROM (
			SELECT * FROM transactions WHERE account = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.Query(query, account, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			t    models.Transaction
			side string
			ts   string
		)
		if err := rows.Scan(&t.ID, &t.Account, &t.Symbol, &side, &t.Quantity, &t.Price, &t.Rationale, &ts); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Side = models.Side(side)
		if parsed, err := parseTime(ts); err == nil {
			t.Timestamp = parsed
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
