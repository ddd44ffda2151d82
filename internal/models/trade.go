package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide is the reported direction of an insider transaction.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// InsiderTrade is a single reported insider transaction for an instrument.
type InsiderTrade struct {
	Symbol  string          `json:"symbol"`
	Insider string          `json:"insider,omitempty"`
	Side    TradeSide       `json:"side"`
	Shares  int64           `json:"shares"`
	Price   decimal.Decimal `json:"price"`
	FiledAt time.Time       `json:"filed_at"`
}

// Validate checks insider trade field constraints.
func (t *InsiderTrade) Validate() error {
	if t.Symbol == "" {
		return errors.New("trade symbol must not be empty")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return errors.New("trade side must be BUY or SELL")
	}
	if t.Shares < 0 {
		return errors.New("trade shares must not be negative")
	}
	if t.Price.IsNegative() {
		return errors.New("trade price must not be negative")
	}
	return nil
}

// OptionActivity is one unusual-options-activity record: a single contract
// with its traded volume and open interest, keyed by the underlying symbol.
type OptionActivity struct {
	Symbol       string          `json:"symbol"`
	Contract     string          `json:"contract"`
	Strike       decimal.Decimal `json:"strike"`
	Volume       int64           `json:"volume"`
	OpenInterest int64           `json:"open_interest"`
}

// Validate checks option activity field constraints.
func (o *OptionActivity) Validate() error {
	if o.Symbol == "" {
		return errors.New("option activity symbol must not be empty")
	}
	if o.Contract == "" {
		return errors.New("option activity contract must not be empty")
	}
	if o.Volume < 0 {
		return errors.New("option activity volume must not be negative")
	}
	if o.OpenInterest < 0 {
		return errors.New("option activity open interest must not be negative")
	}
	return nil
}

// VolumeOIRatio returns traded volume over open interest, or 0 when open
// interest is zero.
func (o *OptionActivity) VolumeOIRatio() float64 {
	if o.OpenInterest == 0 {
		return 0
	}
	return float64(o.Volume) / float64(o.OpenInterest)
}
