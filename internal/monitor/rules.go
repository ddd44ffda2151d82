package monitor

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ziamudasar52-stack/deep-Bot/internal/models"
)

// Thresholds holds the fixed rule parameters. All rules are pure functions
// of a quote, its baseline, and these values.
type Thresholds struct {
	MinPercentMove    float64
	ExactBidPrice     decimal.Decimal
	ExactBidSize      int64
	HighValueBidPrice decimal.Decimal
	HighValueBidSize  int64
	InsiderShareFloor int64
	OptionRatioFloor  float64
	OptionVolumeFloor int64
}

// PrimaryEvaluation is the outcome of running the primary rule set against
// one quote.
type PrimaryEvaluation struct {
	Spike           bool
	SpikeMultiplier int
	Baseline        float64

	// BidMatch is empty, KindBidMatchExact, or KindBidMatchHighValue.
	// The two bid rules are mutually exclusive; exact wins.
	BidMatch models.AlertKind

	// CheckInsider is set when the move gate passed and no bid rule
	// matched, authorizing the secondary insider-trade lookup.
	CheckInsider bool
}

// spikeMultiplier selects the volume multiplier from the fixed step table
// keyed by absolute percent change. Lower bounds are inclusive; values
// below the lowest bucket use the default multiplier.
func spikeMultiplier(pct float64) int {
	pct = math.Abs(pct)
	switch {
	case pct >= 200:
		return 100
	case pct >= 100:
		return 50
	case pct >= 50:
		return 30
	case pct >= 10:
		return 20
	default:
		return 10
	}
}

// EvaluatePrimary runs the primary rules against one quote. baseline is
// the symbol's moving-average volume and baselineOK whether enough samples
// exist for it to be defined. The spike rule is independent of the
// minimum-move gate; the bid and insider rules sit behind it.
func EvaluatePrimary(q models.Quote, baseline float64, baselineOK bool, th Thresholds) PrimaryEvaluation {
	ev := PrimaryEvaluation{Baseline: baseline}

	ev.SpikeMultiplier = spikeMultiplier(q.ChangePct)
	if baselineOK && baseline > 0 && float64(q.Volume) > baseline*float64(ev.SpikeMultiplier) {
		ev.Spike = true
	}

	if math.Abs(q.ChangePct) < th.MinPercentMove {
		return ev
	}

	switch {
	case q.Bid.Equal(th.ExactBidPrice) && q.BidSize == th.ExactBidSize:
		ev.BidMatch = models.KindBidMatchExact
	case q.Bid.GreaterThanOrEqual(th.HighValueBidPrice) && q.BidSize >= th.HighValueBidSize:
		ev.BidMatch = models.KindBidMatchHighValue
	default:
		ev.CheckInsider = true
	}

	return ev
}

// FirstUnusualInsider returns the first trade whose share count meets the
// floor, regardless of direction.
func FirstUnusualInsider(trades []models.InsiderTrade, floor int64) (models.InsiderTrade, bool) {
	for _, t := range trades {
		if t.Shares >= floor {
			return t, true
		}
	}
	return models.InsiderTrade{}, false
}

// FirstLargeSale returns the first SELL trade whose share count meets the
// floor. Used by the watchlist follow-up sweep.
func FirstLargeSale(trades []models.InsiderTrade, floor int64) (models.InsiderTrade, bool) {
	for _, t := range trades {
		if t.Side != models.SideSell {
			continue
		}
		if t.Shares >= floor {
			return t, true
		}
	}
	return models.InsiderTrade{}, false
}

// UnusualOptions returns the contracts whose volume-to-open-interest ratio
// exceeds ratioFloor or whose absolute volume exceeds volumeFloor. The
// caller dedups per underlying symbol via the ledger.
func UnusualOptions(events []models.OptionActivity, ratioFloor float64, volumeFloor int64) []models.OptionActivity {
	var unusual []models.OptionActivity
	for _, o := range events {
		if strings.TrimSpace(o.Symbol) == "" {
			continue
		}
		if o.VolumeOIRatio() > ratioFloor || o.Volume > volumeFloor {
			unusual = append(unusual, o)
		}
	}
	return unusual
}
