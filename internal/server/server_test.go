package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balanceiq/balanceiq/internal/coach"
	"github.com/balanceiq/balanceiq/internal/common"
	"github.com/balanceiq/balanceiq/internal/insights"
	"github.com/balanceiq/balanceiq/internal/knot"
	"github.com/balanceiq/balanceiq/internal/model"
	"github.com/balanceiq/balanceiq/internal/receipt"
)

type fakeStore struct {
	items     []model.PurchaseItem
	history   []model.PurchaseRecord
	catStat   []model.CategoryStat
	merStat   []model.MerchantStat
	saved     []model.PurchaseItem
	recentErr error
}

func (f *fakeStore) SaveItems(_ context.Context, items []model.PurchaseItem) (int, error) {
	f.saved = append(f.saved, items...)
	return len(items), nil
}

func (f *fakeStore) PurchaseHistory(context.Context, string) ([]model.PurchaseRecord, error) {
	return f.history, nil
}

func (f *fakeStore) RecentItems(_ context.Context, _ string, limit int) ([]model.PurchaseItem, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if limit < len(f.items) {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func (f *fakeStore) ItemsSince(context.Context, string, time.Time) ([]model.PurchaseItem, error) {
	return f.items, nil
}

func (f *fakeStore) SearchItems(_ context.Context, _ string, query string, _ int) ([]model.PurchaseItem, error) {
	var out []model.PurchaseItem
	for _, item := range f.items {
		if strings.Contains(strings.ToLower(item.ItemName), strings.ToLower(query)) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStore) CategoryStats(context.Context, string, int) ([]model.CategoryStat, error) {
	return f.catStat, nil
}

func (f *fakeStore) MerchantSummary(context.Context, string, int) ([]model.MerchantStat, error) {
	return f.merStat, nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

type fakeKnot struct {
	result *knot.SyncResult
}

func (f *fakeKnot) SyncUser(context.Context, string) (*knot.SyncResult, error) {
	return f.result, nil
}

type fakeLinker struct{}

func (fakeLinker) ListMerchants(context.Context) ([]knot.Merchant, error) {
	return []knot.Merchant{{ID: 19, Name: "DoorDash"}}, nil
}

func (fakeLinker) CreateSession(_ context.Context, userID string, _ int) (*knot.Session, error) {
	return &knot.Session{SessionID: "sess_" + userID}, nil
}

func seededStore() *fakeStore {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	return &fakeStore{
		items: []model.PurchaseItem{
			{ID: "i1", UserID: "u1", ItemName: "Latte", Merchant: "Starbucks", Category: "Coffee",
				Price: decimal.NewFromFloat(5.25), Time: base.Add(48 * time.Hour)},
			{ID: "i2", UserID: "u1", ItemName: "Latte", Merchant: "Starbucks", Category: "Coffee",
				Price: decimal.NewFromFloat(5.25), Time: base.Add(24 * time.Hour)},
			{ID: "i3", UserID: "u1", ItemName: "Milk", Merchant: "Trader Joe's", Category: "Groceries",
				Price: decimal.NewFromFloat(3.99), Time: base},
		},
		history: []model.PurchaseRecord{
			{ItemName: "Latte", Category: "Coffee", Timestamp: base},
			{ItemName: "Latte", Category: "Coffee", Timestamp: base.Add(24 * time.Hour)},
			{ItemName: "Latte", Category: "Coffee", Timestamp: base.Add(48 * time.Hour)},
		},
		catStat: []model.CategoryStat{
			{Category: "Coffee", PurchaseCount: 2, TotalSpent: decimal.NewFromFloat(10.50), AveragePrice: decimal.NewFromFloat(5.25)},
		},
		merStat: []model.MerchantStat{
			{Merchant: "Starbucks", Category: "Coffee", PurchaseCount: 2, TotalSpent: decimal.NewFromFloat(10.50)},
		},
	}
}

func newTestServer(store *fakeStore, opts ...func(*Deps)) *Server {
	deps := Deps{
		Store:    store,
		Coach:    coach.New(nil),
		Insights: insights.NewGenerator(nil),
		Receipts: receipt.NewProcessor(store),
		Backend:  "sqlite",
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return New(Config{}, deps)
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "sqlite", body["backend"])
}

func TestFeed(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/feed?user_id=u1&limit=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var views []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "Latte", views[0]["item"])

	// Amounts are bare numbers, not strings.
	assert.Contains(t, rec.Body.String(), `"amount":5.25`)
}

func TestFeed_RequiresUser(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/feed", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserTransactions(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/api/user/u1/transactions", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var views []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Len(t, views, 3)
}

func TestCategoryStats(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/stats/category?user_id=u1&days=30", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var stats []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, "Coffee", stats[0]["category"])
}

func TestPredict(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/api/predict?user_id=u1&limit=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var predictions []model.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &predictions))
	require.Len(t, predictions, 1)
	assert.Equal(t, "Latte", predictions[0].Item)
	assert.Equal(t, 3, predictions[0].Samples)
}

func TestCoach(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/api/coach?user_id=u1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var result map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Contains(t, result["message"], "not fully configured")
	assert.NotEmpty(t, result["predictions"])
	assert.NotEmpty(t, result["recent_transactions"])
}

func TestSmartTips(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/api/smart-tips?user_id=u1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "tips endpoint returns a JSON array")
}

func TestBetterDeals(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/api/better-deals?user_id=u1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Starbucks", body[0]["current_store"])
	assert.Equal(t, "Dunkin", body[0]["alternative_store"])
}

func TestPiggyGraph(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/api/piggy-graph?user_id=u1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var graph model.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	assert.NotEmpty(t, graph.Nodes)
	assert.Equal(t, "piggy", graph.Nodes[0].ID)
	assert.Equal(t, 3, graph.Stats.TotalTransactions)
}

func TestSearch(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/api/search?user_id=u1&q=latte", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var views []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Len(t, views, 2)

	rec = doRequest(t, newTestServer(seededStore()), http.MethodGet, "/api/search?user_id=u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAIDeals(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/api/ai-deals?user_id=u1&limit=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var promos []model.PromoDeal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &promos))
	require.Len(t, promos, 2)

	// Seeded stats are coffee-heavy, so a coffee offer leads.
	assert.Equal(t, "Coffee", promos[0].Category)
	assert.Equal(t, "Starbucks Rewards", promos[0].Title)
	assert.NotEmpty(t, promos[0].CTA)
}

func TestAIDeals_DefaultsUser(t *testing.T) {
	// No user_id still returns offers; the demo user fills in.
	rec := doRequest(t, newTestServer(seededStore()), http.MethodGet, "/api/ai-deals", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var promos []model.PromoDeal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &promos))
	assert.Len(t, promos, 2)
}

func TestFeed_UserErrorMapsToBadRequest(t *testing.T) {
	store := seededStore()
	store.recentErr = common.NewUserError("that user id looks malformed", nil)

	rec := doRequest(t, newTestServer(store), http.MethodGet, "/feed?user_id=!!", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "that user id looks malformed")
}

func TestReceiptProcess(t *testing.T) {
	store := seededStore()
	payload := `{
		"user_id": "u1",
		"store": "Trader Joe's",
		"items": [{"name": "Milk", "quantity": 1, "price": 3.99}],
		"total": 3.99
	}`

	rec := doRequest(t, newTestServer(store), http.MethodPost, "/api/receipt/process", payload)

	require.Equal(t, http.StatusOK, rec.Code)
	var result receipt.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "u1", store.saved[0].UserID)
}

func TestReceiptProcess_DefaultsUser(t *testing.T) {
	store := seededStore()
	rec := doRequest(t, newTestServer(store), http.MethodPost, "/api/receipt/process",
		`{"store": "Aldi", "total": 12.50}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.saved, 1)
	assert.Equal(t, defaultDemoUser, store.saved[0].UserID)
}

func TestKnotSync_NotConfigured(t *testing.T) {
	rec := doRequest(t, newTestServer(seededStore()), http.MethodPost, "/api/knot/sync", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestKnotSync(t *testing.T) {
	s := newTestServer(seededStore(), func(d *Deps) {
		d.Knot = &fakeKnot{result: &knot.SyncResult{UserID: "u1", ItemsSaved: 4, Success: true}}
	})

	rec := doRequest(t, s, http.MethodPost, "/api/knot/sync", `{"user_id":"u1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var result knot.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 4, result.ItemsSaved)

	rec = doRequest(t, s, http.MethodPost, "/api/knot/sync", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKnotMerchantsAndSession(t *testing.T) {
	s := newTestServer(seededStore(), func(d *Deps) { d.Linker = fakeLinker{} })

	rec := doRequest(t, s, http.MethodGet, "/api/knot/merchants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "DoorDash")

	rec = doRequest(t, s, http.MethodPost, "/api/knot/session", `{"user_id":"u1","merchant_id":19}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sess_u1")
}
