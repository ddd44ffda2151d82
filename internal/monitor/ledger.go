package monitor

import (
	"sync"
	"time"

	"github.com/ziamudasar52-stack/deep-Bot/internal/models"
)

type ledgerKey struct {
	symbol string
	kind   models.AlertKind
}

// Ledger enforces the minimum re-alert interval per (symbol, kind). It is
// a side-effecting gate: a true result records the firing and authorizes
// both dispatch and any associated mutation, a false result must
// short-circuit without either.
type Ledger struct {
	mu       sync.Mutex
	cooldown time.Duration
	lastSent map[ledgerKey]time.Time
}

// NewLedger creates a ledger with the given cooldown interval.
func NewLedger(cooldown time.Duration) *Ledger {
	return &Ledger{
		cooldown: cooldown,
		lastSent: make(map[ledgerKey]time.Time),
	}
}

// Allow reports whether an alert of this kind may fire for the symbol at
// time now. The first call for a key records now and returns true. While
// now - prior < cooldown, Allow returns false without mutating state.
// Once the cooldown has elapsed it records now and returns true, resetting
// the window from now.
func (l *Ledger) Allow(symbol string, kind models.AlertKind, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := ledgerKey{symbol: symbol, kind: kind}
	if prior, exists := l.lastSent[k]; exists && now.Sub(prior) < l.cooldown {
		return false
	}
	l.lastSent[k] = now
	return true
}

// Compact removes entries that have been idle for at least ttl and returns
// how many were dropped. Without it the ledger grows with every
// (symbol, kind) pair ever fired.
func (l *Ledger) Compact(now time.Time, ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for k, sent := range l.lastSent {
		if now.Sub(sent) >= ttl {
			delete(l.lastSent, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked (symbol, kind) entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lastSent)
}
