package monitor

import (
	"fmt"
	"strings"

	"github.com/ziamudasar52-stack/deep-Bot/internal/models"
)

// Plain-text message bodies. The notifier owns sink-specific markup and
// escaping.

func formatBidMatch(q models.Quote) string {
	return fmt.Sprintf("%s: bid $%s x %d shares (price $%s, %+.1f%%)",
		q.Symbol, q.Bid.String(), q.BidSize, q.Price.StringFixed(2), q.ChangePct)
}

func formatSpike(q models.Quote, baseline float64, multiplier int) string {
	return fmt.Sprintf("%s: volume %d vs %.0f avg (%dx threshold, %+.1f%%)",
		q.Symbol, q.Volume, baseline, multiplier, q.ChangePct)
}

func formatInsider(t models.InsiderTrade) string {
	who := t.Insider
	if who == "" {
		who = "insider"
	}
	return fmt.Sprintf("%s: %s %s %d shares", t.Symbol, who, strings.ToLower(string(t.Side)), t.Shares)
}

func formatLargeSale(t models.InsiderTrade) string {
	who := t.Insider
	if who == "" {
		who = "insider"
	}
	return fmt.Sprintf("%s: %s sold %d shares", t.Symbol, who, t.Shares)
}

func formatOptions(o models.OptionActivity) string {
	if o.OpenInterest > 0 {
		return fmt.Sprintf("%s: %s volume %d, OI %d (%.1fx)",
			o.Symbol, o.Contract, o.Volume, o.OpenInterest, o.VolumeOIRatio())
	}
	return fmt.Sprintf("%s: %s volume %d, no open interest", o.Symbol, o.Contract, o.Volume)
}

func formatSummary(quotes []models.Quote, scans int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d movers (scan #%d)\n", len(quotes), scans)
	for i, q := range quotes {
		fmt.Fprintf(&b, "%d. %s: $%s (%+.1f%%)\n", i+1, q.Symbol, q.Price.StringFixed(2), q.ChangePct)
	}
	return strings.TrimRight(b.String(), "\n")
}
