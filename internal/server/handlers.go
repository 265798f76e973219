package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/balanceiq/balanceiq/internal/common"
	"github.com/balanceiq/balanceiq/internal/deals"
	"github.com/balanceiq/balanceiq/internal/model"
	"github.com/balanceiq/balanceiq/internal/predictor"
	"github.com/balanceiq/balanceiq/internal/receipt"
	"github.com/balanceiq/balanceiq/internal/tips"
)

// defaultDemoUser absorbs demo requests submitted without a user.
const defaultDemoUser = "u_demo_min"

// transactionView is the simplified transaction shape the frontend consumes.
type transactionView struct {
	ID       string          `json:"id"`
	Item     string          `json:"item"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
	Category string          `json:"category"`
}

func toTransactionViews(items []model.PurchaseItem) []transactionView {
	views := make([]transactionView, 0, len(items))
	for _, item := range items {
		name := item.ItemName
		if name == "" {
			name = item.Merchant
		}
		views = append(views, transactionView{
			ID:       item.ID,
			Item:     name,
			Amount:   item.Price,
			Date:     item.Time,
			Category: item.Category,
		})
	}
	return views
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"service": "balanceiq",
		"backend": s.deps.Backend,
	})
}

func (s *Server) handleFeed(c *gin.Context) {
	userID, ok := requireUserQuery(c)
	if !ok {
		return
	}
	limit := clampQueryInt(c, "limit", 20, 1, 100)

	items, err := s.deps.Store.RecentItems(c.Request.Context(), userID, limit)
	if err != nil {
		s.fail(c, "failed to load feed", err)
		return
	}
	c.JSON(http.StatusOK, toTransactionViews(items))
}

func (s *Server) handleUserTransactions(c *gin.Context) {
	userID := c.Param("user_id")
	limit := clampQueryInt(c, "limit", 20, 1, 100)

	items, err := s.deps.Store.RecentItems(c.Request.Context(), userID, limit)
	if err != nil {
		s.fail(c, "failed to load transactions", err)
		return
	}
	c.JSON(http.StatusOK, toTransactionViews(items))
}

func (s *Server) handleCategoryStats(c *gin.Context) {
	userID, ok := requireUserQuery(c)
	if !ok {
		return
	}
	days := clampQueryInt(c, "days", 30, 1, 365)

	stats, err := s.deps.Store.CategoryStats(c.Request.Context(), userID, days)
	if err != nil {
		s.fail(c, "failed to load category stats", err)
		return
	}
	if stats == nil {
		stats = []model.CategoryStat{}
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handlePredict(c *gin.Context) {
	userID, ok := requireUserQuery(c)
	if !ok {
		return
	}
	limit := clampQueryInt(c, "limit", 5, 1, 20)

	history, err := s.deps.Store.PurchaseHistory(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, "prediction failed", err)
		return
	}
	c.JSON(http.StatusOK, predictor.PredictNextPurchases(history, limit))
}

func (s *Server) handleCoach(c *gin.Context) {
	userID, ok := requireUserQuery(c)
	if !ok {
		return
	}
	limit := clampQueryInt(c, "limit", 3, 1, 10)
	ctx := c.Request.Context()

	var predictions []model.Prediction
	if history, err := s.deps.Store.PurchaseHistory(ctx, userID); err != nil {
		s.logger.Warn("coach: prediction inputs unavailable", "error", err)
	} else {
		predictions = predictor.PredictNextPurchases(history, limit)
	}

	recent, err := s.deps.Store.RecentItems(ctx, userID, 20)
	if err != nil {
		s.logger.Warn("coach: recent transactions unavailable", "error", err)
	}

	c.JSON(http.StatusOK, s.deps.Coach.Advise(ctx, predictions, recent))
}

func (s *Server) handleSmartTips(c *gin.Context) {
	userID, ok := requireUserQuery(c)
	if !ok {
		return
	}
	limit := clampQueryInt(c, "limit", tips.DefaultLimit, 1, 20)

	items, err := s.deps.Store.ItemsSince(c.Request.Context(), userID, time.Time{})
	if err != nil {
		s.fail(c, "failed to generate smart tips", err)
		return
	}
	c.JSON(http.StatusOK, tips.Generate(items, limit))
}

func (s *Server) handleBetterDeals(c *gin.Context) {
	userID, ok := requireUserQuery(c)
	if !ok {
		return
	}
	limit := clampQueryInt(c, "limit", deals.DefaultLimit, 1, 20)

	stats, err := s.deps.Store.MerchantSummary(c.Request.Context(), userID, 30)
	if err != nil {
		s.fail(c, "failed to generate better deals", err)
		return
	}
	c.JSON(http.StatusOK, deals.Generate(stats, limit))
}

func (s *Server) handlePiggyGraph(c *gin.Context) {
	userID, ok := requireUserQuery(c)
	if !ok {
		return
	}

	items, err := s.deps.Store.ItemsSince(c.Request.Context(), userID, time.Time{})
	if err != nil {
		s.fail(c, "failed to generate piggy graph", err)
		return
	}
	c.JSON(http.StatusOK, s.deps.Insights.Generate(c.Request.Context(), items))
}

func (s *Server) handleSearch(c *gin.Context) {
	userID, ok := requireUserQuery(c)
	if !ok {
		return
	}
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit := clampQueryInt(c, "limit", 5, 1, 50)

	items, err := s.deps.Store.SearchItems(c.Request.Context(), userID, query, limit)
	if err != nil {
		s.fail(c, "search failed", err)
		return
	}
	c.JSON(http.StatusOK, toTransactionViews(items))
}

func (s *Server) handleReceipt(c *gin.Context) {
	var payload receipt.Receipt
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receipt payload: " + err.Error()})
		return
	}
	if payload.UserID == "" {
		payload.UserID = defaultDemoUser
	}

	result, err := s.deps.Receipts.Process(c.Request.Context(), payload)
	if err != nil {
		s.fail(c, "failed to save receipt", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAIDeals(c *gin.Context) {
	userID := c.DefaultQuery("user_id", defaultDemoUser)
	limit := clampQueryInt(c, "limit", deals.DefaultPromoLimit, 1, 10)

	// Promo selection degrades to popular offers when stats are unavailable.
	stats, err := s.deps.Store.CategoryStats(c.Request.Context(), userID, 365)
	if err != nil {
		s.logger.Warn("ai-deals: category stats unavailable", "error", err)
		stats = nil
	}
	c.JSON(http.StatusOK, deals.Promos(stats, limit))
}

func (s *Server) handleKnotSync(c *gin.Context) {
	if s.deps.Knot == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Knot integration is not configured"})
		return
	}

	var payload struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	result, err := s.deps.Knot.SyncUser(c.Request.Context(), payload.UserID)
	if err != nil {
		s.fail(c, "Knot sync failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleKnotMerchants(c *gin.Context) {
	if s.deps.Linker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Knot integration is not configured"})
		return
	}

	merchants, err := s.deps.Linker.ListMerchants(c.Request.Context())
	if err != nil {
		s.fail(c, "failed to list merchants", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"merchants": merchants})
}

func (s *Server) handleKnotSession(c *gin.Context) {
	if s.deps.Linker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Knot integration is not configured"})
		return
	}

	var payload struct {
		UserID     string `json:"user_id"`
		MerchantID int    `json:"merchant_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	session, err := s.deps.Linker.CreateSession(c.Request.Context(), payload.UserID, payload.MerchantID)
	if err != nil {
		s.fail(c, "failed to create session", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// fail reports a handler error. Input problems surface as 400 with the
// user-facing message; everything else logs the cause and returns an opaque
// 500 so upstream details never leak.
func (s *Server) fail(c *gin.Context, message string, err error) {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": userErr.UserMessage})
		return
	}

	s.logger.Error(message, "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

func requireUserQuery(c *gin.Context) (string, bool) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return "", false
	}
	return userID, true
}

// clampQueryInt reads an integer query parameter and clamps it into
// [minVal, maxVal]; unparseable values fall back to the default.
func clampQueryInt(c *gin.Context, name string, def, minVal, maxVal int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}
