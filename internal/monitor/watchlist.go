package monitor

import (
	"sort"
	"sync"
	"time"
)

// Watchlist is the set of symbols flagged for secondary monitoring after a
// primary alert. It supports concurrent adds and snapshot iteration.
type Watchlist struct {
	mu      sync.RWMutex
	flagged map[string]time.Time
}

// NewWatchlist creates an empty watchlist.
func NewWatchlist() *Watchlist {
	return &Watchlist{flagged: make(map[string]time.Time)}
}

// Add flags a symbol for secondary monitoring, refreshing its timestamp if
// already present.
func (w *Watchlist) Add(symbol string, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flagged[symbol] = now
}

// Contains reports whether the symbol is currently flagged.
func (w *Watchlist) Contains(symbol string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, exists := w.flagged[symbol]
	return exists
}

// Symbols returns a sorted snapshot of the flagged symbols. The snapshot
// is safe to iterate while other goroutines add entries.
func (w *Watchlist) Symbols() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	symbols := make([]string, 0, len(w.flagged))
	for s := range w.flagged {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Compact evicts symbols that have not been re-flagged within ttl and
// returns how many were dropped. A symbol that alerts again is simply
// re-added by the next primary match.
func (w *Watchlist) Compact(now time.Time, ttl time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	removed := 0
	for s, flaggedAt := range w.flagged {
		if now.Sub(flaggedAt) >= ttl {
			delete(w.flagged, s)
			removed++
		}
	}
	return removed
}

// Len returns the number of flagged symbols.
func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.flagged)
}
