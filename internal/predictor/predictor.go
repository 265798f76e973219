// Package predictor implements the purchase-pattern prediction engine.
//
// Given a single user's purchase history, it groups purchases by
// (item, category), measures the gaps between consecutive purchases in each
// group, and projects the next expected purchase time from the average gap.
// Each prediction carries a heuristic confidence score blending sample size
// and interval regularity.
//
// The engine is pure: it performs no I/O, keeps no state between calls, and
// is safe for concurrent use.
package predictor

import (
	"math"
	"sort"
	"time"

	"github.com/balanceiq/balanceiq/internal/model"
)

// groupKey identifies one purchase series. An empty category is a valid key;
// the storage layer normalizes NULL categories to "" so that records that
// differ only in NULL-vs-empty land in the same group.
type groupKey struct {
	item     string
	category string
}

// PredictNextPurchases returns up to limit predictions for the given history,
// soonest expected purchase first. The caller is responsible for scoping
// history to one user; input order within the slice does not matter except
// that ties on next_time keep first-seen group order.
//
// Fewer than 2 records total, or a non-positive limit, yields an empty slice.
// Records with an empty item name or zero timestamp are skipped. Groups with
// fewer than 2 timestamps, or no strictly positive gap between consecutive
// timestamps, contribute no prediction. None of these are errors.
func PredictNextPurchases(history []model.PurchaseRecord, limit int) []model.Prediction {
	if len(history) < 2 || limit <= 0 {
		return []model.Prediction{}
	}

	// Group timestamps by (item, category), tracking first-seen key order so
	// the final sort is reproducible across runs despite map iteration.
	series := make(map[groupKey][]time.Time)
	order := make([]groupKey, 0)

	for _, r := range history {
		if r.ItemName == "" || r.Timestamp.IsZero() {
			continue
		}
		key := groupKey{item: r.ItemName, category: r.Category}
		if _, seen := series[key]; !seen {
			order = append(order, key)
		}
		series[key] = append(series[key], r.Timestamp)
	}

	predictions := make([]model.Prediction, 0, len(order))

	for _, key := range order {
		times := series[key]
		if len(times) < 2 {
			continue
		}

		intervals, last := intervalStats(times)
		if len(intervals) == 0 {
			// All timestamps identical or otherwise collapsed; nothing to
			// project for this group.
			continue
		}

		avg := mean(intervals)
		next := last.Add(time.Duration(avg * float64(time.Second)))

		predictions = append(predictions, model.Prediction{
			Item:       key.item,
			Category:   key.category,
			NextTime:   next,
			Confidence: Confidence(len(times), intervals),
			Samples:    len(times),
		})
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].NextTime.Before(predictions[j].NextTime)
	})

	if len(predictions) > limit {
		predictions = predictions[:limit]
	}
	return predictions
}

// intervalStats sorts the group's timestamps ascending and returns the
// strictly positive gaps between consecutive timestamps, in seconds, along
// with the latest timestamp. Zero or negative gaps (duplicate instants) are
// dropped rather than treated as errors.
func intervalStats(times []time.Time) ([]float64, time.Time) {
	sorted := make([]time.Time, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Before(sorted[j])
	})

	intervals := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		if delta := sorted[i].Sub(sorted[i-1]).Seconds(); delta > 0 {
			intervals = append(intervals, delta)
		}
	}

	return intervals, sorted[len(sorted)-1]
}

// Confidence scores how much to trust a prediction, in [0, 1] rounded to
// 3 decimals. It blends two terms on a 0.2 floor: a sample factor that
// saturates at 10 purchases, and a regularity factor derived from the
// coefficient of variation of the intervals (cv 0 is perfectly regular,
// cv >= 1 scores zero).
func Confidence(numPurchases int, intervals []float64) float64 {
	if numPurchases < 2 {
		return 0.0
	}

	sampleFactor := math.Min(float64(numPurchases)/10.0, 1.0)

	regularity := 0.0
	if len(intervals) > 0 {
		m := mean(intervals)
		if m > 0 {
			variance := 0.0
			for _, d := range intervals {
				variance += (d - m) * (d - m)
			}
			variance /= float64(len(intervals))
			cv := math.Sqrt(variance) / m
			regularity = clamp(1.0-cv, 0.0, 1.0)
		}
	}

	confidence := clamp(0.2+0.4*sampleFactor+0.4*regularity, 0.0, 1.0)

	// Rounding is presentation only and must happen after all clamping.
	return math.Round(confidence*1000) / 1000
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
