// Package monitor implements the alerting core: rule evaluation, volume
// baselining, cooldown deduplication, the watchlist, and the scan tasks
// driven by the scheduler.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ziamudasar52-stack/deep-Bot/internal/logger"
	"github.com/ziamudasar52-stack/deep-Bot/internal/marketclock"
	"github.com/ziamudasar52-stack/deep-Bot/internal/models"
)

// Source is the data-source adapter consumed by the scan tasks. A fetch
// error means no data this cycle, never a fatal condition.
type Source interface {
	FetchTopMovers(ctx context.Context, limit int) ([]models.Quote, error)
	FetchInsiderTrades(ctx context.Context, symbol string) ([]models.InsiderTrade, error)
	FetchUnusualOptions(ctx context.Context) ([]models.OptionActivity, error)
	FetchHaltStatus(ctx context.Context, symbol string) (bool, error)
}

// Notifier delivers formatted messages to the messaging sink. A send
// failure is logged and never retried within the same cycle.
type Notifier interface {
	Send(text string, kind models.AlertKind) error
	SendStatus(text string) error
}

// Config holds the monitor behavior parameters.
type Config struct {
	Thresholds         Thresholds
	Cooldown           time.Duration
	TopMoversLimit     int
	SummaryTopK        int
	BaselineWindow     int
	BaselineMinSamples int
	StateTTL           time.Duration
}

// DefaultConfig returns the documented default parameters.
func DefaultConfig() Config {
	return Config{
		Thresholds: Thresholds{
			MinPercentMove:    5.0,
			ExactBidPrice:     decimal.NewFromInt(199999),
			ExactBidSize:      100,
			HighValueBidPrice: decimal.NewFromInt(2000),
			HighValueBidSize:  20,
			InsiderShareFloor: 10000,
			OptionRatioFloor:  5.0,
			OptionVolumeFloor: 5000,
		},
		Cooldown:           300 * time.Second,
		TopMoversLimit:     5,
		SummaryTopK:        5,
		BaselineWindow:     30,
		BaselineMinSamples: 5,
		StateTTL:           24 * time.Hour,
	}
}

// Monitor owns all in-memory alerting state. One instance drives every
// scheduled task; there are no process-wide registries.
type Monitor struct {
	source   Source
	notifier Notifier
	clock    *marketclock.Clock
	config   Config

	baselines *Baselines
	ledger    *Ledger
	watchlist *Watchlist

	mu                sync.Mutex
	marketOpen        bool
	openNoticeSent    bool
	lastSummaryBucket string
	scanCount         int

	now func() time.Time
}

// New creates a monitor. notifier may be nil, in which case alerts are
// logged and dropped.
func New(source Source, notifier Notifier, clock *marketclock.Clock, cfg Config) *Monitor {
	return &Monitor{
		source:    source,
		notifier:  notifier,
		clock:     clock,
		config:    cfg,
		baselines: NewBaselines(cfg.BaselineWindow, cfg.BaselineMinSamples),
		ledger:    NewLedger(cfg.Cooldown),
		watchlist: NewWatchlist(),
		now:       time.Now,
	}
}

// MarketOpen reports the last observed market state. Used as the
// scheduler gate for the scan tasks.
func (m *Monitor) MarketOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marketOpen
}

// ScanCount returns how many primary scans have run.
func (m *Monitor) ScanCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanCount
}

// Watchlist exposes the watchlist for the sweep task and tests.
func (m *Monitor) Watchlist() *Watchlist {
	return m.watchlist
}

// RecheckMarket re-evaluates the market clock. On the CLOSED to OPEN
// transition it fires the startup notice once; on OPEN to CLOSED it resets
// the flag so the notice re-fires at the next opening. This task is never
// gated.
func (m *Monitor) RecheckMarket(_ context.Context) error {
	open := m.clock.IsActive(m.now())

	m.mu.Lock()
	wasOpen := m.marketOpen
	m.marketOpen = open
	fireNotice := false
	if open && !wasOpen {
		if !m.openNoticeSent {
			fireNotice = true
			m.openNoticeSent = true
		}
	} else if !open && wasOpen {
		m.openNoticeSent = false
	}
	m.mu.Unlock()

	if open != wasOpen {
		logger.Info("Market state changed: open=%v", open)
	}
	if fireNotice {
		m.sendStatus("Market open, monitoring started")
	}
	return nil
}

// PrimaryScan fetches the top movers and runs the primary rule set over
// each quote: volume spike, bid matches (with watchlist insertion and halt
// follow-up), and the insider check when no bid rule matched.
func (m *Monitor) PrimaryScan(ctx context.Context) error {
	quotes, err := m.source.FetchTopMovers(ctx, m.config.TopMoversLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch top movers: %w", err)
	}

	m.mu.Lock()
	m.scanCount++
	scan := m.scanCount
	m.mu.Unlock()
	logger.Debug("Primary scan #%d: %d quotes", scan, len(quotes))

	for _, q := range quotes {
		baseline, ok := m.baselines.Observe(q.Symbol, q.Volume)
		ev := EvaluatePrimary(q, baseline, ok, m.config.Thresholds)
		now := m.now()

		if ev.Spike && m.ledger.Allow(q.Symbol, models.KindVolumeSpike, now) {
			m.emit(q.Symbol, models.KindVolumeSpike, formatSpike(q, ev.Baseline, ev.SpikeMultiplier))
		}

		switch {
		case ev.BidMatch != "":
			if !m.ledger.Allow(q.Symbol, ev.BidMatch, now) {
				continue
			}
			m.watchlist.Add(q.Symbol, now)
			m.emit(q.Symbol, ev.BidMatch, formatBidMatch(q))
			m.checkHalt(ctx, q.Symbol)

		case ev.CheckInsider:
			trades, err := m.source.FetchInsiderTrades(ctx, q.Symbol)
			if err != nil {
				logger.Warn("Insider lookup failed for %s: %v", q.Symbol, err)
				continue
			}
			if t, found := FirstUnusualInsider(trades, m.config.Thresholds.InsiderShareFloor); found {
				if m.ledger.Allow(q.Symbol, models.KindInsiderActivity, now) {
					m.emit(q.Symbol, models.KindInsiderActivity, formatInsider(t))
				}
			}
		}
	}

	return nil
}

// checkHalt queries halt status after a bid match and raises a halt alert
// if the instrument is reported halted.
func (m *Monitor) checkHalt(ctx context.Context, symbol string) {
	halted, err := m.source.FetchHaltStatus(ctx, symbol)
	if err != nil {
		logger.Warn("Halt lookup failed for %s: %v", symbol, err)
		return
	}
	if halted && m.ledger.Allow(symbol, models.KindHalt, m.now()) {
		m.emit(symbol, models.KindHalt, fmt.Sprintf("%s: trading halted", symbol))
	}
}

// OptionsScan fetches the unusual-options dataset and alerts per
// underlying symbol. The ledger keys on the underlying, so at most one
// alert per underlying per cooldown window even when several contracts
// qualify.
func (m *Monitor) OptionsScan(ctx context.Context) error {
	events, err := m.source.FetchUnusualOptions(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch unusual options: %w", err)
	}

	th := m.config.Thresholds
	for _, o := range UnusualOptions(events, th.OptionRatioFloor, th.OptionVolumeFloor) {
		if m.ledger.Allow(o.Symbol, models.KindOptionsActivity, m.now()) {
			m.emit(o.Symbol, models.KindOptionsActivity, formatOptions(o))
		}
	}
	return nil
}

// WatchlistSweep checks every flagged symbol for large insider sales and
// compacts idle ledger and watchlist entries.
func (m *Monitor) WatchlistSweep(ctx context.Context) error {
	for _, symbol := range m.watchlist.Symbols() {
		trades, err := m.source.FetchInsiderTrades(ctx, symbol)
		if err != nil {
			logger.Warn("Insider lookup failed for watchlist symbol %s: %v", symbol, err)
			continue
		}
		if t, found := FirstLargeSale(trades, m.config.Thresholds.InsiderShareFloor); found {
			if m.ledger.Allow(symbol, models.KindLargeSale, m.now()) {
				m.emit(symbol, models.KindLargeSale, formatLargeSale(t))
			}
		}
	}

	now := m.now()
	if n := m.ledger.Compact(now, m.config.StateTTL); n > 0 {
		logger.Debug("Compacted %d idle ledger entries", n)
	}
	if n := m.watchlist.Compact(now, m.config.StateTTL); n > 0 {
		logger.Debug("Evicted %d stale watchlist symbols", n)
	}
	return nil
}

// Summary sends a ranked top-K movers list. Sends are deduplicated by a
// per-minute bucket, so at most one summary goes out per minute regardless
// of how many scheduler ticks fall in it.
func (m *Monitor) Summary(ctx context.Context) error {
	bucket := m.now().UTC().Format("2006-01-02T15:04")
	m.mu.Lock()
	if bucket == m.lastSummaryBucket {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	quotes, err := m.source.FetchTopMovers(ctx, m.config.TopMoversLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch top movers for summary: %w", err)
	}
	if len(quotes) == 0 {
		return nil
	}

	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].ChangePct > quotes[j].ChangePct
	})
	if len(quotes) > m.config.SummaryTopK {
		quotes = quotes[:m.config.SummaryTopK]
	}

	m.mu.Lock()
	m.lastSummaryBucket = bucket
	scans := m.scanCount
	m.mu.Unlock()

	m.emit("", models.KindSummary, formatSummary(quotes, scans))
	return nil
}

// Heartbeat sends a low-frequency liveness notice while the market is
// closed. It is a no-op while open; the scan tasks are the heartbeat then.
func (m *Monitor) Heartbeat(_ context.Context) error {
	if m.MarketOpen() {
		return nil
	}
	m.sendStatus(fmt.Sprintf("Bot alive, market closed\nScans so far: %d", m.ScanCount()))
	return nil
}

// emit constructs the alert record and hands the formatted text to the
// notifier. The ledger has already authorized the firing.
func (m *Monitor) emit(symbol string, kind models.AlertKind, text string) {
	alert := models.NewAlert(symbol, kind, text, m.now())
	if m.notifier == nil {
		logger.Debug("Notifier disabled, dropping %s alert for %q", kind, symbol)
		return
	}
	if err := m.notifier.Send(text, kind); err != nil {
		logger.Warn("Failed to send %s alert %s: %v", kind, alert.ID, err)
		return
	}
	logger.Info("Sent %s alert %s for %q", kind, alert.ID, symbol)
}

func (m *Monitor) sendStatus(text string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.SendStatus(text); err != nil {
		logger.Warn("Failed to send status notice: %v", err)
	}
}
