// Package models defines the core domain entities: quotes, trades,
// option activity, and alerts.
package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time snapshot of a single instrument as returned by
// the screener. It is immutable once constructed and discarded after one
// evaluation pass.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	ChangePct float64         `json:"change_pct"`
	Volume    int64           `json:"volume"`
	Bid       decimal.Decimal `json:"bid"`
	BidSize   int64           `json:"bid_size"`
	Ask       decimal.Decimal `json:"ask"`
	AskSize   int64           `json:"ask_size"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Validate checks quote field constraints.
func (q *Quote) Validate() error {
	if q.Symbol == "" {
		return errors.New("quote symbol must not be empty")
	}
	if q.Price.IsNegative() {
		return errors.New("quote price must not be negative")
	}
	if q.Volume < 0 {
		return errors.New("quote volume must not be negative")
	}
	if q.Bid.IsNegative() {
		return errors.New("quote bid must not be negative")
	}
	if q.BidSize < 0 {
		return errors.New("quote bid size must not be negative")
	}
	if q.Ask.IsNegative() {
		return errors.New("quote ask must not be negative")
	}
	if q.AskSize < 0 {
		return errors.New("quote ask size must not be negative")
	}
	return nil
}
