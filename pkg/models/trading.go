package models

import "time"

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Transaction is a single executed trade.
type Transaction struct {
	ID        int64     `json:"id"`
	Account   string    `json:"account"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Rationale string    `json:"rationale"`
	Timestamp time.Time `json:"timestamp"`
}

// Total returns the signed cash impact of the trade: negative for buys.
func (t Transaction) Total() float64 {
	v := float64(t.Quantity) * t.Price
	if t.Side == SideBuy {
		return -v
	}
	return v
}

// AccountRecord is the persisted state of a trading account.
type AccountRecord struct {
	Name           string         `json:"name"`
	Balance        float64        `json:"balance"`
	Strategy       string         `json:"strategy"`
	Holdings       map[string]int `json:"holdings"`
	InitialBalance float64        `json:"initial_balance"`
	Cycles         int            `json:"cycles"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// LogEntry is a trace or span event written by a tracer.
type LogEntry struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
