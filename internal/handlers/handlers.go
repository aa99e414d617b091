package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/pricing"
	"wallet-settlement-go/internal/settlement"
	"wallet-settlement-go/internal/stats"
	"wallet-settlement-go/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handler struct {
	engine   *settlement.Engine
	statsSvc *stats.Service
	store    store.SettlementStore
	prices   *pricing.Cache
}

func NewHandler(engine *settlement.Engine, statsSvc *stats.Service, st store.SettlementStore, prices *pricing.Cache) *Handler {
	return &Handler{engine: engine, statsSvc: statsSvc, store: st, prices: prices}
}

// RegisterRoutes wires the exposed API onto a gin router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST("/transfer", h.PostTransfer)
	r.POST("/trades", h.PostTrade)
	r.GET("/stats/:userId", h.GetStats)
	r.GET("/portfolio/:userId", h.GetPortfolio)
	r.GET("/transactions/:userId", h.GetTransactions)
	r.POST("/admin/adjust", h.PostAdminAdjust)
	r.POST("/admin/prices", h.PostAdminPrices)
	r.POST("/admin/users/:userId/status", h.PostUserStatus)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type TransferBody struct {
	SenderId         string `json:"sender_id" binding:"required"`
	RecipientAddress string `json:"recipient_address" binding:"required"`
	Asset            string `json:"asset" binding:"required"`
	Amount           string `json:"amount" binding:"required"`
	Notes            string `json:"notes"`
	RequestId        string `json:"request_id"`
}

func (h *Handler) PostTransfer(c *gin.Context) {
	var body TransferBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount format"})
		return
	}

	result, err := h.engine.Transfer(c.Request.Context(), settlement.TransferRequest{
		SenderId:         body.SenderId,
		RecipientAddress: body.RecipientAddress,
		Asset:            body.Asset,
		Amount:           amount,
		Notes:            body.Notes,
		RequestId:        body.RequestId,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type TradeBody struct {
	UserId    string `json:"user_id" binding:"required"`
	Side      string `json:"side" binding:"required"`
	Asset     string `json:"asset" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Notes     string `json:"notes"`
	RequestId string `json:"request_id"`
}

func (h *Handler) PostTrade(c *gin.Context) {
	var body TradeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount format"})
		return
	}

	entry, err := h.engine.RecordTrade(c.Request.Context(), settlement.TradeRequest{
		UserId:    body.UserId,
		Side:      store.TradeSide(body.Side),
		Asset:     body.Asset,
		Amount:    amount,
		Notes:     body.Notes,
		RequestId: body.RequestId,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry_id": entry.Id, "group_id": entry.GroupId})
}

// GetStats recalculates before answering so a read immediately after a
// write never observes a stale cache.
func (h *Handler) GetStats(c *gin.Context) {
	result, err := h.statsSvc.Recalculate(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	userId := c.Param("userId")
	holdings, err := h.store.GetHoldings(c.Request.Context(), userId)
	if err != nil {
		h.renderError(c, err)
		return
	}

	items := []gin.H{}
	total := decimal.Zero
	for _, holding := range holdings {
		if holding.Quantity.Sign() <= 0 {
			continue
		}
		item := gin.H{
			"symbol":         holding.Symbol,
			"quantity":       holding.Quantity.String(),
			"avg_cost_basis": holding.AvgCostBasis.String(),
		}
		if price, err := h.prices.CurrentPrice(holding.Symbol); err == nil {
			value := holding.Quantity.Mul(price)
			item["current_price"] = price.String()
			item["current_value"] = value.String()
			total = total.Add(value)
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total_usd": total.String()})
}

func (h *Handler) GetTransactions(c *gin.Context) {
	userId := c.Param("userId")
	filter := store.LedgerFilter{
		Asset:  c.Query("asset"),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}

	entries, err := h.store.GetLedgerHistory(c.Request.Context(), userId, filter)
	if err != nil {
		h.renderError(c, err)
		return
	}

	records := []gin.H{}
	for _, entry := range entries {
		records = append(records, gin.H{
			"id":                   entry.Id,
			"type":                 entry.Type,
			"asset":                entry.Asset,
			"amount":               entry.Amount.String(),
			"usd_value":            entry.UsdValue.String(),
			"fee":                  entry.Fee.String(),
			"status":               entry.Status,
			"counterparty_address": entry.CounterpartyAddress,
			"group_id":             entry.GroupId,
			"created_at":           entry.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, records)
}

type AdjustBody struct {
	UserId string `json:"user_id" binding:"required"`
	Asset  string `json:"asset" binding:"required"`
	Delta  string `json:"delta" binding:"required"`
	Note   string `json:"note"`
}

func (h *Handler) PostAdminAdjust(c *gin.Context) {
	var body AdjustBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	delta, err := decimal.NewFromString(body.Delta)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delta format"})
		return
	}

	holding, err := h.engine.AdminAdjust(c.Request.Context(), body.UserId, body.Asset, delta, body.Note)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":   holding.Symbol,
		"quantity": holding.Quantity.String(),
	})
}

type PriceBody struct {
	Prices map[string]string `json:"prices" binding:"required"`
}

func (h *Handler) PostAdminPrices(c *gin.Context) {
	var body PriceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated := 0
	for symbol, priceStr := range body.Prices {
		price, err := decimal.NewFromString(priceStr)
		if err != nil || price.Sign() < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price for " + symbol})
			return
		}
		h.prices.SetPrice(symbol, price)
		updated++
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

type StatusBody struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) PostUserStatus(c *gin.Context) {
	var body StatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.UserStatus(body.Status)
	switch status {
	case models.UserActive, models.UserSuspended, models.UserDeleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + body.Status})
		return
	}

	user, err := h.store.SetUserStatus(c.Request.Context(), c.Param("userId"), status)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": user.Id, "status": user.Status})
}

// renderError maps error kinds onto HTTP statuses. Insufficient balance and
// unresolvable recipients are expected in normal operation; anything
// unclassified is logged with full context for operator follow-up.
func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidAmount),
		errors.Is(err, store.ErrUnsupportedAsset),
		errors.Is(err, store.ErrSelfTransfer):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrRecipientNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrStatsNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrRecipientInactive):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInsufficientBalance),
		errors.Is(err, store.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		zap.L().Error("Unexpected settlement error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func intQuery(c *gin.Context, key string, defaultValue int) int {
	value := c.Query(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
