package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apporder "github.com/marketday/backend/internal/application/order"
	"github.com/marketday/backend/internal/domain/order"
	"github.com/marketday/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderHandler exposes the order lifecycle over HTTP
type OrderHandler struct {
	BaseHandler
	coordinator *apporder.Coordinator
	registry    order.ProfileRegistry
	idempotency shared.IdempotencyStore
	idemTTL     time.Duration
	logger      *zap.Logger
}

// NewOrderHandler creates an order handler
func NewOrderHandler(
	coordinator *apporder.Coordinator,
	registry order.ProfileRegistry,
	idempotency shared.IdempotencyStore,
	idemTTL time.Duration,
	logger *zap.Logger,
) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{
		coordinator: coordinator,
		registry:    registry,
		idempotency: idempotency,
		idemTTL:     idemTTL,
		logger:      logger,
	}
}

// OrderDTO is the wire representation of a persisted order
type OrderDTO struct {
	ID          string        `json:"id"`
	BuyerID     string        `json:"buyer_id"`
	Status      string        `json:"status"`
	PickupAt    time.Time     `json:"pickup_at"`
	Items       []LineItemDTO `json:"items"`
	TotalAmount string        `json:"total_amount"`
	PlacedAt    *time.Time    `json:"placed_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// toOrderDTO serializes an order, reporting the time-derived status so
// clients see LOCKED and COMPLETED without those ever being written back
func toOrderDTO(o *order.Order, effective order.Status) OrderDTO {
	return OrderDTO{
		ID:          o.ID.String(),
		BuyerID:     o.BuyerID.String(),
		Status:      effective.String(),
		PickupAt:    o.PickupAt,
		Items:       toLineItemDTOs(o.Items),
		TotalAmount: o.TotalAmount().String(),
		PlacedAt:    o.PlacedAt,
		CompletedAt: o.CompletedAt,
		CancelledAt: o.CancelledAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// DeadlineDTO is the wire representation of the active cycle's schedule state
type DeadlineDTO struct {
	PickupAt         time.Time `json:"pickup_at"`
	EditCutoffAt     time.Time `json:"edit_cutoff_at"`
	CanEdit          bool      `json:"can_edit"`
	WarningLevel     string    `json:"warning_level"`
	RemainingDays    int       `json:"remaining_days"`
	RemainingHours   int       `json:"remaining_hours"`
	RemainingMinutes int       `json:"remaining_minutes"`
	CutoffPassed     bool      `json:"cutoff_passed"`
}

func toDeadlineDTO(d apporder.Deadline) DeadlineDTO {
	return DeadlineDTO{
		PickupAt:         d.Cycle.PickupAt,
		EditCutoffAt:     d.Cycle.EditCutoffAt,
		CanEdit:          d.CanEdit,
		WarningLevel:     d.Warning.String(),
		RemainingDays:    d.Remaining.Days,
		RemainingHours:   d.Remaining.Hours,
		RemainingMinutes: d.Remaining.Minutes,
		CutoffPassed:     d.Remaining.Passed,
	}
}

// LoadOpenRequest identifies the buyer whose open order should be loaded
type LoadOpenRequest struct {
	BuyerID string `json:"buyer_id" binding:"required,uuid"`
}

// LoadOpen finds the buyer's most recent open order and loads its line items
// into the basket as the reconciliation baseline. An empty response means no
// open order exists and the session composes a fresh one.
// POST /api/v1/orders/load-open
func (h *OrderHandler) LoadOpen(c *gin.Context) {
	var req LoadOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondBindError(c, err)
		return
	}
	buyerID, err := uuid.Parse(req.BuyerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, Fail("INVALID_BUYER", "Buyer ID is not a valid UUID"))
		return
	}

	ids, err := h.registry.PlacedOrderIDs(c.Request.Context(), buyerID)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	loaded, err := h.coordinator.LoadOpenOrder(c.Request.Context(), ids)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	if loaded == nil {
		c.JSON(http.StatusOK, OK(gin.H{"loaded": false}))
		return
	}
	effective, err := h.coordinator.EffectiveStatus(loaded)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OK(gin.H{"loaded": true, "order": toOrderDTO(loaded, effective)}))
}

// CommitRequest is the payload for committing the basket as an order
type CommitRequest struct {
	BuyerID string `json:"buyer_id" binding:"required,uuid"`
}

// CommitResponse carries the committed order, its cycle and the changes that
// were applied relative to the baseline
type CommitResponse struct {
	Order    OrderDTO     `json:"order"`
	Deadline DeadlineDTO  `json:"deadline"`
	Changes  ChangeSetDTO `json:"changes"`
}

// Commit persists the current basket as a placed order, gated by the edit
// cutoff. An Idempotency-Key header makes retries safe: a replayed key is
// rejected instead of committing twice.
// POST /api/v1/orders/commit
func (h *OrderHandler) Commit(c *gin.Context) {
	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondBindError(c, err)
		return
	}
	buyerID, err := uuid.Parse(req.BuyerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, Fail("INVALID_BUYER", "Buyer ID is not a valid UUID"))
		return
	}

	if key := c.GetHeader("Idempotency-Key"); key != "" {
		fresh, err := h.idempotency.MarkProcessed(c.Request.Context(), key, h.idemTTL)
		if err != nil {
			h.logger.Warn("idempotency check failed, allowing commit", zap.Error(err))
		} else if !fresh {
			c.JSON(http.StatusConflict, Fail("DUPLICATE_REQUEST", "This commit was already processed"))
			return
		}
	}

	result, err := h.coordinator.AttemptCommit(c.Request.Context(), buyerID)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	effective, err := h.coordinator.EffectiveStatus(result.Order)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	deadline, err := h.coordinator.CurrentDeadline()
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OK(CommitResponse{
		Order:    toOrderDTO(result.Order, effective),
		Deadline: toDeadlineDTO(deadline),
		Changes:  toChangeSetDTO(result.Changes),
	}))
}

// Cancel cancels the loaded order and clears the basket
// POST /api/v1/orders/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	if err := h.coordinator.Cancel(c.Request.Context()); err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OK(gin.H{"cancelled": true}))
}

// Schedule surfaces the active cycle's pickup instant, edit cutoff,
// editability and warning level
// GET /api/v1/schedule
func (h *OrderHandler) Schedule(c *gin.Context) {
	deadline, err := h.coordinator.CurrentDeadline()
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OK(toDeadlineDTO(deadline)))
}
