package state

import (
	"io"

	"github.com/ShayCichocki/agentlabs/pkg/models"
)

// AccountStore persists trading accounts and their trades.
type AccountStore interface {
	GetAccount(name string) (*models.AccountRecord, error)
	SaveAccount(rec *models.AccountRecord) error
	// SaveTrade stores the updated account and the trade atomically.
	SaveTrade(rec *models.AccountRecord, tx *models.Transaction) error
	ListTransactions(account string, limit int) ([]models.Transaction, error)
}

// LogStore persists trace and span events.
type LogStore interface {
	WriteLog(name, typ, message string) error
	RecentLogs(name string, limit int) ([]models.LogEntry, error)
}

// RunStore records crew kickoffs.
type RunStore interface {
	CreateCrewRun(run *models.CrewRun) error
	FinishCrewRun(run *models.CrewRun) error
	GetCrewRun(id string) (*models.CrewRun, error)
	ListCrewRuns(limit int) ([]models.CrewRun, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	Migrate() error
}

// Store is the full persistence surface.
type Store interface {
	io.Closer
	Migrator
	AccountStore
	LogStore
	RunStore
}

var (
	_ Store        = (*DB)(nil)
	_ AccountStore = (*DB)(nil)
	_ LogStore     = (*DB)(nil)
	_ RunStore     = (*DB)(nil)
)
