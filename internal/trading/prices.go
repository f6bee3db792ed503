package trading

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"
)

// ErrUnknownSymbol is returned when no price is available for a symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")

// PriceSource quotes share prices.
type PriceSource interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// RandomPrices quotes a pseudo-random whole-dollar price between 1 and 100
// that is stable for a given symbol on a given New York calendar day.
type RandomPrices struct {
	// Now defaults to time.Now.
	Now Clock
}

// Price implements PriceSource.
func (r RandomPrices) Price(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return 0, fmt.Errorf("%w: empty symbol", ErrUnknownSymbol)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte(now().In(newYork).Format("2006-01-02")))
	return float64(h.Sum64()%100 + 1), nil
}

// StaticPrices quotes from a fixed table and can be updated between calls.
type StaticPrices struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewStaticPrices creates a price table from symbol to price.
func NewStaticPrices(prices map[string]float64) *StaticPrices {
	s := &StaticPrices{prices: make(map[string]float64, len(prices))}
	for sym, p := range prices {
		s.prices[normalizeSymbol(sym)] = p
	}
	return s
}

// Set changes the price of symbol.
func (s *StaticPrices) Set(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[normalizeSymbol(symbol)] = price
}

// Price implements PriceSource.
func (s *StaticPrices) Price(ctx context.Context, symbol string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[normalizeSymbol(symbol)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return p, nil
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
