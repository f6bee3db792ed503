package trading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ShayCichocki/agentlabs/internal/state"
	"github.com/ShayCichocki/agentlabs/pkg/models"
)

var (
	// ErrInsufficientFunds is returned when a buy or withdrawal exceeds the cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientShares is returned when a sell exceeds the shares held.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrInvalidQuantity is returned for a non-positive share count.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrInvalidAmount is returned for a non-positive deposit or withdrawal.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Default account settings.
const (
	DefaultInitialBalance = 10000.0
	DefaultSpread         = 0.002
	DefaultStrategy       = "You are a day trader. Look for short-term opportunities in liquid US stocks."
)

// AccountOptions configures LoadAccount.
type AccountOptions struct {
	// InitialBalance funds a newly created account (0 = DefaultInitialBalance).
	InitialBalance float64
	// Spread is the fraction added to buys and removed from sells (0 = DefaultSpread).
	Spread float64
	// Strategy seeds a newly created account (empty = DefaultStrategy).
	Strategy string
	Prices   PriceSource
}

// Account is a cash balance plus share holdings, persisted on every change.
type Account struct {
	mu     sync.Mutex
	rec    models.AccountRecord
	store  state.AccountStore
	prices PriceSource
	spread float64
}

// LoadAccount loads the named account, creating and funding it if it does not exist.
func LoadAccount(store state.AccountStore, name string, opts AccountOptions) (*Account, error) {
	if opts.Prices == nil {
		return nil, errors.New("account requires a price source")
	}
	spread := opts.Spread
	if spread == 0 {
		spread = DefaultSpread
	}

	rec, err := store.GetAccount(name)
	if errors.Is(err, state.ErrNotFound) {
		balance := opts.InitialBalance
		if balance == 0 {
			balance = DefaultInitialBalance
		}
		strategy := opts.Strategy
		if strategy == "" {
			strategy = DefaultStrategy
		}
		rec = &models.AccountRecord{
			Name:           name,
			Balance:        balance,
			Strategy:       strategy,
			Holdings:       map[string]int{},
			InitialBalance: balance,
		}
		if err := store.SaveAccount(rec); err != nil {
			return nil, fmt.Errorf("create account %s: %w", name, err)
		}
	} else if err != nil {
		return nil, err
	}

	return &Account{rec: *rec, store: store, prices: opts.Prices, spread: spread}, nil
}

// Name returns the account owner.
func (a *Account) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rec.Name
}

// Balance returns the cash balance.
func (a *Account) Balance() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rec.Balance
}

// Strategy returns the current investment strategy.
func (a *Account) Strategy() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rec.Strategy
}

// Cycles returns how many trading cycles the account has completed.
func (a *Account) Cycles() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rec.Cycles
}

// Holdings returns a copy of the shares held per symbol.
func (a *Account) Holdings() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyHoldings(a.rec.Holdings)
}

// Deposit adds cash.
func (a *Account) Deposit(amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return a.update(func(rec *models.AccountRecord) error {
		rec.Balance += amount
		return nil
	})
}

// Withdraw removes cash.
func (a *Account) Withdraw(amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return a.update(func(rec *models.AccountRecord) error {
		if amount > rec.Balance {
			return fmt.Errorf("%w: withdraw %.2f with balance %.2f", ErrInsufficientFunds, amount, rec.Balance)
		}
		rec.Balance -= amount
		return nil
	})
}

// ChangeStrategy replaces the investment strategy.
func (a *Account) ChangeStrategy(strategy string) error {
	if strategy == "" {
		return errors.New("strategy must not be empty")
	}
	return a.update(func(rec *models.AccountRecord) error {
		rec.Strategy = strategy
		return nil
	})
}

// CompleteCycle increments the cycle counter and returns the new count.
func (a *Account) CompleteCycle() (int, error) {
	var n int
	err := a.update(func(rec *models.AccountRecord) error {
		rec.Cycles++
		n = rec.Cycles
		return nil
	})
	return n, err
}

// Buy purchases quantity shares at the quoted price plus spread.
func (a *Account) Buy(ctx context.Context, symbol string, quantity int, rationale string) (*models.Transaction, error) {
	return a.trade(ctx, models.SideBuy, symbol, quantity, rationale)
}

// Sell sells quantity shares at the quoted price minus spread.
func (a *Account) Sell(ctx context.Context, symbol string, quantity int, rationale string) (*models.Transaction, error) {
	return a.trade(ctx, models.SideSell, symbol, quantity, rationale)
}

func (a *Account) trade(ctx context.Context, side models.Side, symbol string, quantity int, rationale string) (*models.Transaction, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	symbol = normalizeSymbol(symbol)
	quote, err := a.prices.Price(ctx, symbol)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.rec
	next.Holdings = copyHoldings(a.rec.Holdings)

	var price float64
	switch side {
	case models.SideBuy:
		price = roundCents(quote * (1 + a.spread))
		cost := price * float64(quantity)
		if cost > next.Balance {
			return nil, fmt.Errorf("%w: %d %s costs %.2f, balance %.2f", ErrInsufficientFunds, quantity, symbol, cost, next.Balance)
		}
		next.Balance -= cost
		next.Holdings[symbol] += quantity
	case models.SideSell:
		if next.Holdings[symbol] < quantity {
			return nil, fmt.Errorf("%w: selling %d %s, holding %d", ErrInsufficientShares, quantity, symbol, next.Holdings[symbol])
		}
		price = roundCents(quote * (1 - a.spread))
		next.Balance += price * float64(quantity)
		next.Holdings[symbol] -= quantity
		if next.Holdings[symbol] == 0 {
			delete(next.Holdings, symbol)
		}
	default:
		return nil, fmt.Errorf("unknown side %q", side)
	}

	tx := &models.Transaction{
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		Rationale: rationale,
		Timestamp: time.Now(),
	}
	if err := a.store.SaveTrade(&next, tx); err != nil {
		return nil, err
	}
	a.rec = next
	return tx, nil
}

// PortfolioValue is cash plus holdings at current quoted prices.
func (a *Account) PortfolioValue(ctx context.Context) (float64, error) {
	a.mu.Lock()
	balance := a.rec.Balance
	holdings := copyHoldings(a.rec.Holdings)
	a.mu.Unlock()

	total := balance
	for sym, qty := range holdings {
		p, err := a.prices.Price(ctx, sym)
		if err != nil {
			return 0, err
		}
		total += p * float64(qty)
	}
	return total, nil
}

// ProfitLoss is the portfolio value less the initial balance.
func (a *Account) ProfitLoss(ctx context.Context) (float64, error) {
	v, err := a.PortfolioValue(ctx)
	if err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return v - a.rec.InitialBalance, nil
}

// Transactions returns the most recent trades, oldest first (limit <= 0 = all).
func (a *Account) Transactions(limit int) ([]models.Transaction, error) {
	return a.store.ListTransactions(a.Name(), limit)
}

// Report is the JSON account summary given to the trader model.
type Report struct {
	Name           string               `json:"name"`
	Balance        float64              `json:"balance"`
	Strategy       string               `json:"strategy"`
	Holdings       map[string]int       `json:"holdings"`
	PortfolioValue float64              `json:"total_portfolio_value"`
	ProfitLoss     float64              `json:"total_profit_loss"`
	Transactions   []models.Transaction `json:"recent_transactions"`
}

// Report builds the account summary including the last few trades.
func (a *Account) Report(ctx context.Context) (*Report, error) {
	value, err := a.PortfolioValue(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := a.Transactions(10)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return &Report{
		Name:           a.rec.Name,
		Balance:        roundCents(a.rec.Balance),
		Strategy:       a.rec.Strategy,
		Holdings:       copyHoldings(a.rec.Holdings),
		PortfolioValue: roundCents(value),
		ProfitLoss:     roundCents(value - a.rec.InitialBalance),
		Transactions:   txs,
	}, nil
}

// JSON renders the report for a tool result.
func (r *Report) JSON() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

func (a *Account) update(fn func(rec *models.AccountRecord) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.rec
	next.Holdings = copyHoldings(a.rec.Holdings)
	if err := fn(&next); err != nil {
		return err
	}
	if err := a.store.SaveAccount(&next); err != nil {
		return err
	}
	a.rec = next
	return nil
}

func copyHoldings(h map[string]int) map[string]int {
	out := make(map[string]int, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
