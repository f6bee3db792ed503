package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/agentlabs/pkg/models"
)

// CreateCrewRun records the start of a kickoff.
func (db *DB) CreateCrewRun(run *models.CrewRun) error {
	inputs, err := json.Marshal(run.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = models.CrewRunRunning
	}

	_, err = db.Exec(`
		INSERT INTO crew_runs (id, crew, inputs, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Crew, string(inputs), string(run.Status), formatTime(run.StartedAt))
	if err != nil {
		return fmt.Errorf("create crew run: %w", err)
	}
	return nil
}

// FinishCrewRun stores the final status, result and token count.
func (db *DB) FinishCrewRun(run *models.CrewRun) error {
	now := time.Now()
	run.CompletedAt = &now

	res, err := db.Exec(`
		UPDATE crew_runs SET status = ?, result = ?, error = ?, tokens_used = ?, completed_at = ?
		WHERE id = ?
	`, string(run.Status), run.Result, run.Error, run.TokensUsed, formatTime(now), run.ID)
	if err != nil {
		return fmt.Errorf("finish crew run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("crew run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// GetCrewRun loads a run by ID.
func (db *DB) GetCrewRun(id string) (*models.CrewRun, error) {
	row := db.QueryRow(`
		SELECT id, crew, inputs, status, result, error, tokens_used, started_at, completed_at
		FROM crew_runs WHERE id = ?
	`, id)
	run, err := scanCrewRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("crew run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// ListCrewRuns returns the newest runs first.
func (db *DB) ListCrewRuns(limit int) ([]models.CrewRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, crew, inputs, status, result, error, tokens_used, started_at, completed_at
		FROM crew_runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list crew runs: %w", err)
	}
	defer rows.Close()

	var out []models.CrewRun
	for rows.Next() {
		run, err := scanCrewRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCrewRun(s scanner) (*models.CrewRun, error) {
	var (
		run       models.CrewRun
		inputs    string
		status    string
		result    sql.NullString
		errMsg    sql.NullString
		startedAt string
		completed sql.NullString
	)
	if err := s.Scan(&run.ID, &run.Crew, &inputs, &status, &result, &errMsg, &run.TokensUsed, &startedAt, &completed); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(inputs), &run.Inputs); err != nil {
		return nil, fmt.Errorf("decode inputs: %w", err)
	}
	run.Status = models.CrewRunStatus(status)
	run.Result = result.String
	run.Error = errMsg.String
	if t, err := parseTime(startedAt); err == nil {
		run.StartedAt = t
	}
	run.CompletedAt = parseNullableTime(completed)
	return &run, nil
}
