package rfm

import (
	"math"
	"sort"
	"time"

	"rfm-segments/pkg/models"
)

// AggregateConfig carries the windowing parameters of one run. Reference is
// injectable so runs are reproducible in tests.
type AggregateConfig struct {
	Reference           time.Time
	OlderYears          int     // older window lookback, default 5
	RecentYears         int     // recent window lookback, default 2
	BlendWeight         float64 // weight of the older window, default 0.5
	RecencySentinelDays int     // recency for customers without purchases, default 9999
}

// windowTally accumulates one window's metrics for one customer.
type windowTally struct {
	orders map[string]struct{}
	net    float64
}

func (w *windowTally) add(orderID string, net float64) {
	if w.orders == nil {
		w.orders = make(map[string]struct{})
	}
	w.orders[orderID] = struct{}{}
	w.net += net
}

// Aggregate computes per-customer windowed metrics. Every profiled customer
// yields exactly one record; customers without transactions get zero-valued
// metrics and the sentinel recency, never a missing record. Transactions on
// or after the reference instant are ignored.
func Aggregate(profiles []models.Profile, transactions []models.Transaction, cfg AggregateConfig) []models.CustomerMetrics {
	olderStart, recentStart := WindowBounds(cfg.Reference, cfg.OlderYears, cfg.RecentYears)

	older := make(map[string]*windowTally)
	recent := make(map[string]*windowTally)
	lifetime := make(map[string]float64)
	lastDate := make(map[string]time.Time)

	for _, t := range transactions {
		if t.Date.IsZero() || !t.Date.Before(cfg.Reference) {
			if t.Date.IsZero() {
				// Undated rows still count towards lifetime revenue.
				lifetime[t.CustomerID] += t.Net()
			}
			continue
		}
		lifetime[t.CustomerID] += t.Net()

		switch {
		case !t.Date.Before(recentStart):
			tally := recent[t.CustomerID]
			if tally == nil {
				tally = &windowTally{}
				recent[t.CustomerID] = tally
			}
			tally.add(t.OrderID, t.Net())
		case !t.Date.Before(olderStart):
			tally := older[t.CustomerID]
			if tally == nil {
				tally = &windowTally{}
				older[t.CustomerID] = tally
			}
			tally.add(t.OrderID, t.Net())
		default:
			// Older than both windows: lifetime only.
			continue
		}
		if t.Date.After(lastDate[t.CustomerID]) {
			lastDate[t.CustomerID] = t.Date
		}
	}

	seen := make(map[string]struct{}, len(profiles))
	out := make([]models.CustomerMetrics, 0, len(profiles))
	for _, p := range profiles {
		if _, dup := seen[p.CustomerID]; dup {
			continue
		}
		seen[p.CustomerID] = struct{}{}

		var oFreq, oNet, rFreq, rNet float64
		if tally := older[p.CustomerID]; tally != nil {
			oFreq = float64(len(tally.orders))
			oNet = tally.net
		}
		if tally := recent[p.CustomerID]; tally != nil {
			rFreq = float64(len(tally.orders))
			rNet = tally.net
		}

		recency := cfg.RecencySentinelDays
		if last, hit := lastDate[p.CustomerID]; hit {
			recency = int(cfg.Reference.Sub(last).Hours() / 24)
		}

		out = append(out, models.CustomerMetrics{
			CustomerID:       p.CustomerID,
			FrequencyBlended: blend(oFreq, rFreq, cfg.BlendWeight),
			MonetaryBlended:  blend(oNet, rNet, cfg.BlendWeight),
			RecencyDays:      recency,
			LifetimeMonetary: lifetime[p.CustomerID],
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

// blend discounts the older window against the recent one and rounds half
// away from zero.
func blend(older, recent, weight float64) float64 {
	return math.Round(older*weight + recent)
}
