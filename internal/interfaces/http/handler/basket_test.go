package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/marketday/backend/internal/domain/basket"
	"github.com/marketday/backend/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupBasketRouter(store *basket.Store) *gin.Engine {
	h := NewBasketHandler(store)
	engine := gin.New()
	engine.GET("/basket", h.Get)
	engine.DELETE("/basket", h.Discard)
	engine.POST("/basket/items", h.AddItem)
	engine.PUT("/basket/items/:productId/quantity", h.SetQuantity)
	engine.DELETE("/basket/items/:productId", h.RemoveItem)
	engine.GET("/basket/changes", h.Changes)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doJSONWithHeaders(t, engine, method, path, body, nil)
}

func doJSONWithHeaders(t *testing.T, engine *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func storeWithItem(t *testing.T) *basket.Store {
	t.Helper()
	store := basket.NewStore()
	item, err := order.NewLineItem("apples", "Apples",
		decimal.RequireFromString("3.50"), order.UnitKindWeight, decimal.RequireFromString("2"))
	require.NoError(t, err)
	require.NoError(t, store.Add(item))
	return store
}

// ============================================
// GET /basket
// ============================================

func TestBasketHandler_Get(t *testing.T) {
	engine := setupBasketRouter(storeWithItem(t))

	w := doJSON(t, engine, http.MethodGet, "/basket", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	var dto BasketDTO
	raw, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(raw, &dto))
	require.Len(t, dto.Items, 1)
	assert.Equal(t, "apples", dto.Items[0].ProductID)
	assert.Equal(t, "7", dto.TotalAmount)
}

// ============================================
// POST /basket/items
// ============================================

func TestBasketHandler_AddItem(t *testing.T) {
	store := basket.NewStore()
	engine := setupBasketRouter(store)

	body := AddItemRequest{
		ProductID:   "eggs",
		ProductName: "Eggs",
		UnitPrice:   "0.50",
		UnitKind:    "COUNT",
		Quantity:    "12",
	}
	w := doJSON(t, engine, http.MethodPost, "/basket/items", body)
	require.Equal(t, http.StatusOK, w.Code)

	snap := store.Current()
	require.Len(t, snap, 1)
	assert.True(t, snap[0].Quantity.Equal(decimal.NewFromInt(12)))

	// same product again accumulates
	w = doJSON(t, engine, http.MethodPost, "/basket/items", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.Current()[0].Quantity.Equal(decimal.NewFromInt(24)))
}

func TestBasketHandler_AddItem_Invalid(t *testing.T) {
	engine := setupBasketRouter(basket.NewStore())

	tests := []struct {
		name     string
		body     AddItemRequest
		wantCode int
	}{
		{"missing fields", AddItemRequest{ProductID: "x"}, http.StatusBadRequest},
		{"bad unit kind", AddItemRequest{ProductID: "x", ProductName: "X", UnitPrice: "1", UnitKind: "CRATE", Quantity: "1"}, http.StatusBadRequest},
		{"malformed price", AddItemRequest{ProductID: "x", ProductName: "X", UnitPrice: "abc", UnitKind: "COUNT", Quantity: "1"}, http.StatusBadRequest},
		{"fractional count", AddItemRequest{ProductID: "x", ProductName: "X", UnitPrice: "1", UnitKind: "COUNT", Quantity: "1.5"}, http.StatusBadRequest},
		{"negative quantity", AddItemRequest{ProductID: "x", ProductName: "X", UnitPrice: "1", UnitKind: "WEIGHT", Quantity: "-1"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, engine, http.MethodPost, "/basket/items", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestBasketHandler_AddItem_MismatchedUnitKind(t *testing.T) {
	// "apples" is already in the basket as a weight item
	engine := setupBasketRouter(storeWithItem(t))

	w := doJSON(t, engine, http.MethodPost, "/basket/items", AddItemRequest{
		ProductID:   "apples",
		ProductName: "Apples",
		UnitPrice:   "3.50",
		UnitKind:    "COUNT",
		Quantity:    "1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_UNIT_KIND", resp.Error.Code)
}

// ============================================
// PUT /basket/items/:productId/quantity
// ============================================

func TestBasketHandler_SetQuantity(t *testing.T) {
	store := storeWithItem(t)
	engine := setupBasketRouter(store)

	w := doJSON(t, engine, http.MethodPut, "/basket/items/apples/quantity", SetQuantityRequest{Quantity: "5"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.Current()[0].Quantity.Equal(decimal.NewFromInt(5)), "set replaces, never accumulates")
}

func TestBasketHandler_SetQuantity_ZeroRemoves(t *testing.T) {
	store := storeWithItem(t)
	engine := setupBasketRouter(store)

	w := doJSON(t, engine, http.MethodPut, "/basket/items/apples/quantity", SetQuantityRequest{Quantity: "0"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.Current().IsEmpty())
}

func TestBasketHandler_SetQuantity_AbsentProduct(t *testing.T) {
	engine := setupBasketRouter(basket.NewStore())

	w := doJSON(t, engine, http.MethodPut, "/basket/items/ghost/quantity", SetQuantityRequest{Quantity: "2"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// ============================================
// DELETE endpoints
// ============================================

func TestBasketHandler_RemoveItem(t *testing.T) {
	store := storeWithItem(t)
	engine := setupBasketRouter(store)

	w := doJSON(t, engine, http.MethodDelete, "/basket/items/apples", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.Current().IsEmpty())

	// absent item removal still succeeds
	w = doJSON(t, engine, http.MethodDelete, "/basket/items/apples", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBasketHandler_Discard(t *testing.T) {
	store := storeWithItem(t)
	engine := setupBasketRouter(store)

	w := doJSON(t, engine, http.MethodDelete, "/basket", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.Current().IsEmpty())
	assert.Empty(t, store.Origin())
}

// ============================================
// GET /basket/changes
// ============================================

func TestBasketHandler_Changes(t *testing.T) {
	store := basket.NewStore()
	item, err := order.NewLineItem("apples", "Apples",
		decimal.RequireFromString("3.50"), order.UnitKindWeight, decimal.RequireFromString("2"))
	require.NoError(t, err)
	require.NoError(t, store.LoadFrom([]order.LineItem{item}, "order-1"))
	require.NoError(t, store.SetQuantity("apples", decimal.NewFromInt(5)))

	engine := setupBasketRouter(store)
	w := doJSON(t, engine, http.MethodGet, "/basket/changes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var dto ChangeSetDTO
	resp := decodeResponse(t, w)
	raw, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(raw, &dto))

	assert.True(t, dto.HasChanges)
	require.Len(t, dto.Modified, 1)
	assert.Equal(t, "apples", dto.Modified[0].ProductID)
	assert.Equal(t, "2", dto.Modified[0].OldQuantity)
	assert.Equal(t, "5", dto.Modified[0].NewQuantity)
}
