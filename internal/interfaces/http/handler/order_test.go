package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apporder "github.com/marketday/backend/internal/application/order"
	"github.com/marketday/backend/internal/domain/basket"
	"github.com/marketday/backend/internal/domain/order"
	"github.com/marketday/backend/internal/domain/schedule"
	"github.com/marketday/backend/internal/domain/shared"
	"github.com/marketday/backend/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock reports a settable instant
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time           { return c.now }
func (c *fixedClock) Location() *time.Location { return c.now.Location() }

// fakeRepository is an in-memory order store shared with the registry
type fakeRepository struct {
	orders map[uuid.UUID]*order.Order
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *o
	copied.Items = order.CloneItems(o.Items)
	return &copied, nil
}

func (r *fakeRepository) Save(ctx context.Context, o *order.Order) error {
	copied := *o
	copied.Items = order.CloneItems(o.Items)
	r.orders[o.ID] = &copied
	return nil
}

func (r *fakeRepository) PlacedOrderIDs(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, o := range r.orders {
		if o.BuyerID == buyerID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// monday 2026-03-02; pickup Thursday 2026-03-05 09:00, cutoff Tuesday
// 2026-03-03 23:59:59.999
var (
	handlerTestNow    = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	handlerTestCutoff = time.Date(2026, 3, 3, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	handlerTestPickup = time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
)

type orderTestEnv struct {
	engine      *gin.Engine
	repo        *fakeRepository
	store       *basket.Store
	coordinator *apporder.Coordinator
	clock       *fixedClock
}

func setupOrderRouter(t *testing.T) *orderTestEnv {
	t.Helper()
	repo := newFakeRepository()
	store := basket.NewStore()
	clock := &fixedClock{now: handlerTestNow}
	calc := schedule.NewCalculator(time.Thursday, 9, 0, schedule.DefaultThresholds())
	coordinator := apporder.NewCoordinator(repo, store, calc, clock, nil)

	idem := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idem.Close() })

	h := NewOrderHandler(coordinator, repo, idem, time.Hour, nil)
	engine := gin.New()
	engine.POST("/orders/load-open", h.LoadOpen)
	engine.POST("/orders/commit", h.Commit)
	engine.POST("/orders/cancel", h.Cancel)
	engine.GET("/schedule", h.Schedule)

	return &orderTestEnv{engine: engine, repo: repo, store: store, coordinator: coordinator, clock: clock}
}

func (e *orderTestEnv) addBasketItem(t *testing.T, productID, quantity string) {
	t.Helper()
	item, err := order.NewLineItem(productID, "Item "+productID,
		decimal.RequireFromString("2.00"), order.UnitKindWeight, decimal.RequireFromString(quantity))
	require.NoError(t, err)
	require.NoError(t, e.store.Add(item))
}

// ============================================
// POST /orders/commit
// ============================================

func TestOrderHandler_Commit(t *testing.T) {
	env := setupOrderRouter(t)
	env.addBasketItem(t, "apples", "2")

	w := doJSON(t, env.engine, http.MethodPost, "/orders/commit", CommitRequest{BuyerID: uuid.New().String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.Len(t, env.repo.orders, 1)
	assert.False(t, env.store.Changes().HasChanges(), "basket must be rebased after commit")
}

func TestOrderHandler_Commit_EmptyBasket(t *testing.T) {
	env := setupOrderRouter(t)

	w := doJSON(t, env.engine, http.MethodPost, "/orders/commit", CommitRequest{BuyerID: uuid.New().String()})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EMPTY_BASKET", resp.Error.Code)
}

func TestOrderHandler_Commit_PastCutoff(t *testing.T) {
	env := setupOrderRouter(t)
	env.addBasketItem(t, "apples", "2")

	// commit once to have a loaded order bound to this week's pickup
	w := doJSON(t, env.engine, http.MethodPost, "/orders/commit", CommitRequest{BuyerID: uuid.New().String()})
	require.Equal(t, http.StatusOK, w.Code)

	env.clock.now = handlerTestCutoff.Add(time.Millisecond)
	require.NoError(t, env.store.SetQuantity("apples", decimal.NewFromInt(5)))

	w = doJSON(t, env.engine, http.MethodPost, "/orders/commit", CommitRequest{BuyerID: uuid.New().String()})
	require.Equal(t, http.StatusConflict, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EDIT_WINDOW_CLOSED", resp.Error.Code)
}

func TestOrderHandler_Commit_InvalidBuyer(t *testing.T) {
	env := setupOrderRouter(t)

	w := doJSON(t, env.engine, http.MethodPost, "/orders/commit", CommitRequest{BuyerID: "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Commit_IdempotencyKeyReplay(t *testing.T) {
	env := setupOrderRouter(t)
	env.addBasketItem(t, "apples", "2")
	buyerID := uuid.New().String()

	w := doJSONWithHeaders(t, env.engine, http.MethodPost, "/orders/commit",
		CommitRequest{BuyerID: buyerID}, map[string]string{"Idempotency-Key": "key-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSONWithHeaders(t, env.engine, http.MethodPost, "/orders/commit",
		CommitRequest{BuyerID: buyerID}, map[string]string{"Idempotency-Key": "key-1"})
	require.Equal(t, http.StatusConflict, w.Code)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DUPLICATE_REQUEST", resp.Error.Code)

	// a new key goes through
	w = doJSONWithHeaders(t, env.engine, http.MethodPost, "/orders/commit",
		CommitRequest{BuyerID: buyerID}, map[string]string{"Idempotency-Key": "key-2"})
	assert.Equal(t, http.StatusOK, w.Code)
}

// ============================================
// POST /orders/load-open
// ============================================

func TestOrderHandler_LoadOpen(t *testing.T) {
	env := setupOrderRouter(t)
	env.addBasketItem(t, "apples", "2")
	buyerID := uuid.New().String()

	w := doJSON(t, env.engine, http.MethodPost, "/orders/commit", CommitRequest{BuyerID: buyerID})
	require.Equal(t, http.StatusOK, w.Code)

	// a fresh session loads the committed order back
	env.store.Discard()
	w = doJSON(t, env.engine, http.MethodPost, "/orders/load-open", LoadOpenRequest{BuyerID: buyerID})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["loaded"])

	snap := env.store.Current()
	require.Len(t, snap, 1)
	assert.Equal(t, "apples", snap[0].ProductID)
}

func TestOrderHandler_LoadOpen_PastCutoffReportsLocked(t *testing.T) {
	env := setupOrderRouter(t)
	env.addBasketItem(t, "apples", "2")
	buyerID := uuid.New().String()

	w := doJSON(t, env.engine, http.MethodPost, "/orders/commit", CommitRequest{BuyerID: buyerID})
	require.Equal(t, http.StatusOK, w.Code)

	// the stored status stays PLACED; the response derives LOCKED from time
	env.clock.now = handlerTestCutoff.Add(time.Millisecond)
	env.store.Discard()
	w = doJSON(t, env.engine, http.MethodPost, "/orders/load-open", LoadOpenRequest{BuyerID: buyerID})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, data["loaded"])

	rawOrder, err := json.Marshal(data["order"])
	require.NoError(t, err)
	var dto OrderDTO
	require.NoError(t, json.Unmarshal(rawOrder, &dto))
	assert.Equal(t, "LOCKED", dto.Status)

	for _, o := range env.repo.orders {
		assert.Equal(t, order.StatusPlaced, o.Status, "derived status must never be persisted")
	}
}

func TestOrderHandler_LoadOpen_NoOpenOrder(t *testing.T) {
	env := setupOrderRouter(t)

	w := doJSON(t, env.engine, http.MethodPost, "/orders/load-open", LoadOpenRequest{BuyerID: uuid.New().String()})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["loaded"])
}

// ============================================
// POST /orders/cancel
// ============================================

func TestOrderHandler_Cancel(t *testing.T) {
	env := setupOrderRouter(t)
	env.addBasketItem(t, "apples", "2")

	w := doJSON(t, env.engine, http.MethodPost, "/orders/commit", CommitRequest{BuyerID: uuid.New().String()})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.engine, http.MethodPost, "/orders/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.store.Current().IsEmpty())

	// nothing left to cancel
	w = doJSON(t, env.engine, http.MethodPost, "/orders/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

// ============================================
// GET /schedule
// ============================================

func TestOrderHandler_Schedule(t *testing.T) {
	env := setupOrderRouter(t)

	w := doJSON(t, env.engine, http.MethodGet, "/schedule", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var dto DeadlineDTO
	resp := decodeResponse(t, w)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &dto))

	assert.True(t, dto.PickupAt.Equal(handlerTestPickup))
	assert.True(t, dto.EditCutoffAt.Equal(handlerTestCutoff))
	assert.True(t, dto.CanEdit)
	assert.Equal(t, "info", dto.WarningLevel)
	assert.False(t, dto.CutoffPassed)
}
