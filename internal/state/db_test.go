package state

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/agentlabs/pkg/models"
)

// tempDBPath returns a path to a temp database file.
func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// setupTestDB creates a new migrated database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenAndMigrate(tempDBPath(t))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "a", "b", "c")
	path := filepath.Join(nested, "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := os.Stat(nested); os.IsNotExist(err) {
		t.Errorf("parent directories not created: %s", nested)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 4 {
		t.Errorf("schema version = %d, want 4", v)
	}
}

func TestDefaultPath(t *testing.T) {
	got := DefaultPath("/work")
	want := filepath.Join("/work", ".agentlabs", "accounts.db")
	if got != want {
		t.Errorf("DefaultPath = %q, want %q", got, want)
	}
}

func TestAccounts_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.GetAccount("warren"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetAccount on empty db: err = %v, want ErrNotFound", err)
	}

	rec := &models.AccountRecord{
		Name:           "warren",
		Balance:        10000,
		Strategy:       "value investing",
		Holdings:       map[string]int{"AAPL": 3},
		InitialBalance: 10000,
	}
	if err := db.SaveAccount(rec); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	rec.Balance = 9000
	rec.Cycles = 2
	if err := db.SaveAccount(rec); err != nil {
		t.Fatalf("SaveAccount update: %v", err)
	}

	got, err := db.GetAccount("warren")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.Balance != 9000 || got.Cycles != 2 || got.Strategy != "value investing" {
		t.Errorf("GetAccount = %+v", got)
	}
	if got.Holdings["AAPL"] != 3 {
		t.Errorf("holdings = %v", got.Holdings)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
}

func TestAccounts_SaveTrade(t *testing.T) {
	db := setupTestDB(t)

	rec := &models.AccountRecord{Name: "warren", Balance: 10000, InitialBalance: 10000, Holdings: map[string]int{}}
	if err := db.SaveAccount(rec); err != nil {
		t.Fatal(err)
	}

	for i, sym := range []string{"AAPL", "MSFT", "NVDA"} {
		rec.Balance -= 100
		rec.Holdings[sym] = i + 1
		trade := &models.Transaction{Symbol: sym, Side: models.SideBuy, Quantity: i + 1, Price: 100, Rationale: "test"}
		if err := db.SaveTrade(rec, trade); err != nil {
			t.Fatalf("SaveTrade %s: %v", sym, err)
		}
		if trade.ID == 0 || trade.Account != "warren" {
			t.Errorf("trade not stamped: %+v", trade)
		}
	}

	all, err := db.ListTransactions("warren", 0)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(all) != 3 || all[0].Symbol != "AAPL" || all[2].Symbol != "NVDA" {
		t.Errorf("ListTransactions = %+v", all)
	}
	if all[1].Side != models.SideBuy || all[1].Quantity != 2 {
		t.Errorf("second trade = %+v", all[1])
	}

	recent, err := db.ListTransactions("warren", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Symbol != "MSFT" {
		t.Errorf("recent = %+v", recent)
	}

	got, _ := db.GetAccount("warren")
	if got.Balance != 9700 || got.Holdings["NVDA"] != 3 {
		t.Errorf("account after trades = %+v", got)
	}
}

func TestLogs(t *testing.T) {
	db := setupTestDB(t)

	for _, msg := range []string{"one", "two", "three"} {
		if err := db.WriteLog("warren", "trace", msg); err != nil {
			t.Fatalf("WriteLog: %v", err)
		}
	}
	db.WriteLog("cathie", "span", "other")

	logs, err := db.RecentLogs("warren", 2)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(logs) != 2 || logs[0].Message != "two" || logs[1].Message != "three" {
		t.Errorf("RecentLogs = %+v", logs)
	}
	if logs[0].Type != "trace" || logs[0].Timestamp.IsZero() {
		t.Errorf("log entry = %+v", logs[0])
	}
}

func TestCrewRuns(t *testing.T) {
	db := setupTestDB(t)

	run := &models.CrewRun{
		ID:     "run-1",
		Crew:   "engineering_team",
		Inputs: map[string]string{"module_name": "calculator"},
	}
	if err := db.CreateCrewRun(run); err != nil {
		t.Fatalf("CreateCrewRun: %v", err)
	}
	if run.Status != models.CrewRunRunning {
		t.Errorf("status = %q, want running", run.Status)
	}

	later := &models.CrewRun{ID: "run-2", Crew: "engineering_team", StartedAt: time.Now().Add(time.Second)}
	if err := db.CreateCrewRun(later); err != nil {
		t.Fatal(err)
	}

	run.Status = models.CrewRunSucceeded
	run.Result = "class Calculator: ..."
	run.TokensUsed = 1234
	if err := db.FinishCrewRun(run); err != nil {
		t.Fatalf("FinishCrewRun: %v", err)
	}

	got, err := db.GetCrewRun("run-1")
	if err != nil {
		t.Fatalf("GetCrewRun: %v", err)
	}
	if got.Status != models.CrewRunSucceeded || got.Result != run.Result || got.TokensUsed != 1234 {
		t.Errorf("GetCrewRun = %+v", got)
	}
	if got.Inputs["module_name"] != "calculator" {
		t.Errorf("inputs = %v", got.Inputs)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}

	runs, err := db.ListCrewRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" {
		t.Errorf("ListCrewRuns order = %+v", runs)
	}

	if _, err := db.GetCrewRun("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCrewRun(missing) err = %v", err)
	}
	if err := db.FinishCrewRun(&models.CrewRun{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("FinishCrewRun(missing) err = %v", err)
	}
}

func TestConcurrentTrades(t *testing.T) {
	db := setupTestDB(t)

	var wg sync.WaitGroup
	for _, name := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			rec := &models.AccountRecord{Name: name, Balance: 100, InitialBalance: 100}
			for i := 0; i < 5; i++ {
				if err := db.SaveTrade(rec, &models.Transaction{Symbol: "X", Side: models.SideBuy, Quantity: 1, Price: 1}); err != nil {
					t.Errorf("SaveTrade(%s): %v", name, err)
					return
				}
			}
		}(name)
	}
	wg.Wait()

	for _, name := range []string{"a", "b", "c", "d"} {
		txs, err := db.ListTransactions(name, 0)
		if err != nil || len(txs) != 5 {
			t.Errorf("%s: %d transactions, err %v", name, len(txs), err)
		}
	}
}
