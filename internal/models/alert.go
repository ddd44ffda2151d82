package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertKind identifies one of the fixed alert conditions. The kind is half
// of the cooldown key: at most one alert per (symbol, kind) per cooldown
// window.
type AlertKind string

const (
	KindBidMatchExact     AlertKind = "bid_match_exact"
	KindBidMatchHighValue AlertKind = "bid_match_high_value"
	KindVolumeSpike       AlertKind = "volume_spike"
	KindInsiderActivity   AlertKind = "insider_activity"
	KindOptionsActivity   AlertKind = "options_activity"
	KindHalt              AlertKind = "halt"
	KindLargeSale         AlertKind = "large_sale"
	KindSummary           AlertKind = "summary"
)

// Alert is a single fired alert: a kind, the symbol it fired for, and the
// formatted body handed to the notifier.
type Alert struct {
	ID      string
	Symbol  string
	Kind    AlertKind
	Text    string
	FiredAt time.Time
}

// NewAlert constructs an alert with a fresh ID.
func NewAlert(symbol string, kind AlertKind, text string, at time.Time) Alert {
	return Alert{
		ID:      uuid.NewString(),
		Symbol:  symbol,
		Kind:    kind,
		Text:    text,
		FiredAt: at,
	}
}
