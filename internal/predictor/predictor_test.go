package predictor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balanceiq/balanceiq/internal/model"
)

var t0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func rec(item, category string, ts time.Time) model.PurchaseRecord {
	return model.PurchaseRecord{ItemName: item, Category: category, Timestamp: ts}
}

func TestPredictNextPurchases_DailyCoffee(t *testing.T) {
	history := []model.PurchaseRecord{
		rec("Coffee", "Drinks", t0),
		rec("Coffee", "Drinks", t0.Add(86400*time.Second)),
		rec("Coffee", "Drinks", t0.Add(172800*time.Second)),
		rec("Milk", "Grocery", t0.Add(50000*time.Second)),
	}

	got := PredictNextPurchases(history, 5)
	require.Len(t, got, 1, "Milk has a single sample and must be excluded")

	p := got[0]
	assert.Equal(t, "Coffee", p.Item)
	assert.Equal(t, "Drinks", p.Category)
	assert.Equal(t, 3, p.Samples)
	// Two perfectly regular daily intervals: next purchase one day after the
	// last one, confidence 0.2 + 0.4*0.3 + 0.4*1.0.
	assert.True(t, p.NextTime.Equal(t0.Add(259200*time.Second)), "next_time = %v", p.NextTime)
	assert.InDelta(t, 0.72, p.Confidence, 1e-9)
	require.NoError(t, p.Validate())
}

func TestPredictNextPurchases_ShortHistory(t *testing.T) {
	tests := []struct {
		name    string
		history []model.PurchaseRecord
	}{
		{name: "empty history", history: nil},
		{name: "single record", history: []model.PurchaseRecord{rec("Coffee", "", t0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, PredictNextPurchases(tt.history, 10))
		})
	}
}

func TestPredictNextPurchases_TwoSingletonGroups(t *testing.T) {
	// Two raw records pass the global gate, but each group has only one
	// timestamp, so both are excluded downstream.
	history := []model.PurchaseRecord{
		rec("Coffee", "Drinks", t0),
		rec("Milk", "Grocery", t0.Add(time.Hour)),
	}
	assert.Empty(t, PredictNextPurchases(history, 10))
}

func TestPredictNextPurchases_NonPositiveLimit(t *testing.T) {
	history := []model.PurchaseRecord{
		rec("Coffee", "", t0),
		rec("Coffee", "", t0.Add(time.Hour)),
	}
	assert.Empty(t, PredictNextPurchases(history, 0))
	assert.Empty(t, PredictNextPurchases(history, -3))
}

func TestPredictNextPurchases_SkipsUnusableRecords(t *testing.T) {
	history := []model.PurchaseRecord{
		{ItemName: "", Category: "Drinks", Timestamp: t0},        // no item name
		{ItemName: "Coffee", Category: "Drinks"},                 // no timestamp
		rec("Coffee", "Drinks", t0.Add(1*time.Hour)),
		rec("Coffee", "Drinks", t0.Add(2*time.Hour)),
	}

	got := PredictNextPurchases(history, 5)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Samples, "unusable records must not count as samples")
}

func TestPredictNextPurchases_EmptyCategoryMergesGroups(t *testing.T) {
	// A NULL category is normalized to "" at the storage boundary, so these
	// two records belong to the same group.
	history := []model.PurchaseRecord{
		rec("Coffee", "", t0),
		rec("Coffee", "", t0.Add(24*time.Hour)),
	}

	got := PredictNextPurchases(history, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "Coffee", got[0].Item)
	assert.Equal(t, "", got[0].Category)
	assert.Equal(t, 2, got[0].Samples)
}

func TestPredictNextPurchases_SortsUnorderedInput(t *testing.T) {
	// Timestamps arrive out of chronological order; intervals must be
	// computed on the sorted sequence.
	history := []model.PurchaseRecord{
		rec("Coffee", "", t0.Add(48*time.Hour)),
		rec("Coffee", "", t0),
		rec("Coffee", "", t0.Add(24*time.Hour)),
	}

	got := PredictNextPurchases(history, 5)
	require.Len(t, got, 1)
	assert.True(t, got[0].NextTime.Equal(t0.Add(72*time.Hour)))
	assert.Equal(t, 3, got[0].Samples)
}

func TestPredictNextPurchases_DuplicateTimestamps(t *testing.T) {
	// [t, t, t+100] yields exactly one interval of 100s; the duplicate must
	// not produce a zero interval or a panic.
	history := []model.PurchaseRecord{
		rec("Gum", "", t0),
		rec("Gum", "", t0),
		rec("Gum", "", t0.Add(100*time.Second)),
	}

	got := PredictNextPurchases(history, 5)
	require.Len(t, got, 1)
	assert.True(t, got[0].NextTime.Equal(t0.Add(200*time.Second)))
	assert.Equal(t, 3, got[0].Samples)
}

func TestPredictNextPurchases_AllIdenticalTimestamps(t *testing.T) {
	history := []model.PurchaseRecord{
		rec("Gum", "", t0),
		rec("Gum", "", t0),
		rec("Gum", "", t0),
	}
	assert.Empty(t, PredictNextPurchases(history, 5))
}

func TestPredictNextPurchases_SingleInterval(t *testing.T) {
	history := []model.PurchaseRecord{
		rec("Shampoo", "Care", t0),
		rec("Shampoo", "Care", t0.Add(30*24*time.Hour)),
	}

	got := PredictNextPurchases(history, 5)
	require.Len(t, got, 1)
	// With exactly one interval, the average is that interval.
	assert.True(t, got[0].NextTime.Equal(t0.Add(60*24*time.Hour)))
	assert.Equal(t, 2, got[0].Samples)
}

func TestPredictNextPurchases_LimitIsPrefix(t *testing.T) {
	// Three groups with distinct next times; a smaller limit must return a
	// prefix of the larger result.
	history := []model.PurchaseRecord{
		rec("Coffee", "Drinks", t0),
		rec("Coffee", "Drinks", t0.Add(24*time.Hour)),
		rec("Milk", "Grocery", t0),
		rec("Milk", "Grocery", t0.Add(72*time.Hour)),
		rec("Bread", "Grocery", t0),
		rec("Bread", "Grocery", t0.Add(48*time.Hour)),
	}

	all := PredictNextPurchases(history, 10)
	require.Len(t, all, 3)

	for limit := 1; limit <= 3; limit++ {
		got := PredictNextPurchases(history, limit)
		require.Len(t, got, limit)
		assert.Equal(t, all[:limit], got)
	}

	// Sorted soonest first.
	assert.Equal(t, "Coffee", all[0].Item)
	assert.Equal(t, "Bread", all[1].Item)
	assert.Equal(t, "Milk", all[2].Item)
}

func TestPredictNextPurchases_TieBreakKeepsInputOrder(t *testing.T) {
	// Both groups project the same next time; first-seen group order wins.
	history := []model.PurchaseRecord{
		rec("Tea", "Drinks", t0),
		rec("Tea", "Drinks", t0.Add(24*time.Hour)),
		rec("Juice", "Drinks", t0),
		rec("Juice", "Drinks", t0.Add(24*time.Hour)),
	}

	got := PredictNextPurchases(history, 5)
	require.Len(t, got, 2)
	assert.Equal(t, "Tea", got[0].Item)
	assert.Equal(t, "Juice", got[1].Item)
}

func TestPredictNextPurchases_RegularBeatsIrregular(t *testing.T) {
	regular := []model.PurchaseRecord{
		rec("Coffee", "", t0),
		rec("Coffee", "", t0.Add(86400*time.Second)),
		rec("Coffee", "", t0.Add(172800*time.Second)),
		rec("Coffee", "", t0.Add(259200*time.Second)),
	}
	irregular := []model.PurchaseRecord{
		rec("Snacks", "", t0),
		rec("Snacks", "", t0.Add(1000*time.Second)),
		rec("Snacks", "", t0.Add(500000*time.Second)),
		rec("Snacks", "", t0.Add(900000*time.Second)),
	}

	regPred := PredictNextPurchases(regular, 1)
	irrPred := PredictNextPurchases(irregular, 1)
	require.Len(t, regPred, 1)
	require.Len(t, irrPred, 1)

	assert.Equal(t, regPred[0].Samples, irrPred[0].Samples)
	assert.Greater(t, regPred[0].Confidence, irrPred[0].Confidence,
		"same sample count, but regular cadence must score higher")
}

func TestConfidence(t *testing.T) {
	day := 86400.0

	tests := []struct {
		name      string
		intervals []float64
		purchases int
		want      float64
	}{
		{name: "below minimum history", purchases: 1, intervals: []float64{day}, want: 0.0},
		{name: "no intervals", purchases: 2, intervals: nil, want: 0.2},
		{name: "perfectly regular pair", purchases: 3, intervals: []float64{day, day}, want: 0.72},
		{name: "saturated samples regular", purchases: 10, intervals: []float64{day, day, day}, want: 1.0},
		{name: "beyond saturation", purchases: 25, intervals: []float64{day, day, day}, want: 1.0},
		{name: "single interval is regular", purchases: 2, intervals: []float64{12345.0}, want: 0.68},
		{name: "highly irregular clamps to sample term", purchases: 4, intervals: []float64{1, 1000000}, want: 0.36},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.purchases, tt.intervals)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestPredictNextPurchases_IsDeterministic(t *testing.T) {
	history := []model.PurchaseRecord{
		rec("Coffee", "Drinks", t0),
		rec("Milk", "Grocery", t0.Add(time.Hour)),
		rec("Coffee", "Drinks", t0.Add(25*time.Hour)),
		rec("Milk", "Grocery", t0.Add(70*time.Hour)),
		rec("Coffee", "Drinks", t0.Add(49*time.Hour)),
	}

	first := PredictNextPurchases(history, 10)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, PredictNextPurchases(history, 10))
	}
}
