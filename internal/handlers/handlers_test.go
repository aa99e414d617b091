package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wallet-settlement-go/internal/assets"
	"wallet-settlement-go/internal/database"
	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/notify"
	"wallet-settlement-go/internal/pricing"
	"wallet-settlement-go/internal/settlement"
	"wallet-settlement-go/internal/stats"
	"wallet-settlement-go/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *database.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	dbService, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(dbService.Close)

	registry, err := assets.NewRegistry([]assets.Asset{
		{Symbol: "BTC", Network: "bitcoin"},
	})
	require.NoError(t, err)

	prices := pricing.NewCache()
	prices.SetPrice("BTC", decimal.NewFromInt(40000))

	statsSvc := stats.NewService(dbService, prices)
	engine := settlement.NewEngine(dbService, registry, prices, statsSvc, notify.ZapSink{}, nil)

	_, err = dbService.CreateUser(ctx, "alice", "Alice", "alice@example.com")
	require.NoError(t, err)
	_, err = dbService.CreateUser(ctx, "bob", "Bob", "bob@example.com")
	require.NoError(t, err)
	_, err = dbService.StoreAddress(ctx, store.StoreAddressParams{
		UserId: "bob", Asset: "BTC", Network: "bitcoin", Address: "bc1qbob",
	})
	require.NoError(t, err)
	_, err = dbService.AdjustHolding(ctx, store.AdjustHoldingParams{
		UserId: "alice", Asset: "BTC", Delta: decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	router := gin.New()
	NewHandler(engine, statsSvc, dbService, prices).RegisterRoutes(router)
	return router, dbService
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPostTransfer(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/transfer",
		`{"sender_id":"alice","recipient_address":"bc1qbob","asset":"BTC","amount":"0.5"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.NotEmpty(t, result["send_entry_id"])
	assert.NotEmpty(t, result["receive_entry_id"])
}

func TestPostTransferErrorMapping(t *testing.T) {
	router, dbService := setupRouter(t)

	_, err := dbService.StoreAddress(context.Background(), store.StoreAddressParams{
		UserId: "alice", Asset: "BTC", Network: "bitcoin", Address: "bc1qalice",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"missing fields", `{"sender_id":"alice"}`, http.StatusBadRequest},
		{"bad amount format", `{"sender_id":"alice","recipient_address":"bc1qbob","asset":"BTC","amount":"abc"}`, http.StatusBadRequest},
		{"zero amount", `{"sender_id":"alice","recipient_address":"bc1qbob","asset":"BTC","amount":"0"}`, http.StatusBadRequest},
		{"unsupported asset", `{"sender_id":"alice","recipient_address":"bc1qbob","asset":"XRP","amount":"1"}`, http.StatusBadRequest},
		{"self transfer", `{"sender_id":"alice","recipient_address":"bc1qalice","asset":"BTC","amount":"1"}`, http.StatusBadRequest},
		{"unknown recipient", `{"sender_id":"alice","recipient_address":"bc1qnobody","asset":"BTC","amount":"1"}`, http.StatusNotFound},
		{"insufficient balance", `{"sender_id":"alice","recipient_address":"bc1qbob","asset":"BTC","amount":"50"}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/transfer", tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestPostTransferInactiveRecipient(t *testing.T) {
	router, dbService := setupRouter(t)

	_, err := dbService.SetUserStatus(context.Background(), "bob", models.UserSuspended)
	require.NoError(t, err)

	w := doJSON(router, http.MethodPost, "/transfer",
		`{"sender_id":"alice","recipient_address":"bc1qbob","asset":"BTC","amount":"0.5"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestGetStatsAndTransactions(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/transfer",
		`{"sender_id":"alice","recipient_address":"bc1qbob","asset":"BTC","amount":"0.5"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, http.MethodGet, "/stats/alice", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.EqualValues(t, 1, result["send_count"])

	w = doJSON(router, http.MethodGet, "/transactions/alice?asset=BTC", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "send", entries[0]["type"])
}

func TestGetTransactionsPagingFallback(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/transfer",
		`{"sender_id":"alice","recipient_address":"bc1qbob","asset":"BTC","amount":"0.5"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Unparseable or out-of-range paging values fall back to defaults
	for _, query := range []string{
		"limit=abc",
		"limit=99999999999999999999",
		"limit=abc&offset=99999999999999999999",
	} {
		w = doJSON(router, http.MethodGet, "/transactions/alice?"+query, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var entries []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
		assert.Len(t, entries, 1, query)
	}
}

func TestGetPortfolio(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/portfolio/alice", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Items    []map[string]any `json:"items"`
		TotalUsd string           `json:"total_usd"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Items, 1)
	assert.Equal(t, "BTC", result.Items[0]["symbol"])
	assert.Equal(t, "80000", result.TotalUsd)
}

func TestAdminEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/admin/adjust",
		`{"user_id":"alice","asset":"BTC","delta":"-0.5","note":"ops"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/admin/adjust",
		`{"user_id":"alice","asset":"BTC","delta":"-10","note":"ops"}`)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/admin/prices", `{"prices":{"BTC":"41000"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/admin/prices", `{"prices":{"BTC":"-1"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/admin/users/bob/status", `{"status":"suspended"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/admin/users/bob/status", `{"status":"frozen"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = doJSON(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
