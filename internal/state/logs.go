package state

import (
	"fmt"
	"time"

	"github.com/ShayCichocki/agentlabs/pkg/models"
)

// WriteLog appends a trace event for name.
func (db *DB) WriteLog(name, typ, message string) error {
	_, err := db.Exec(`
		INSERT INTO logs (name, type, message, timestamp) VALUES (?, ?, ?, ?)
	`, name, typ, message, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// RecentLogs returns up to limit of the newest events for name, oldest first.
func (db *DB) RecentLogs(name string, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT id, name, type, message, timestamp FROM (
			SELECT * FROM logs WHERE name = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC
	`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var out []models.LogEntry
	for rows.Next() {
		var (
			e  models.LogEntry
			ts string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.Message, &ts); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		if parsed, err := parseTime(ts); err == nil {
			e.Timestamp = parsed
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
