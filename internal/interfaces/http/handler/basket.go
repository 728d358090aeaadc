package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketday/backend/internal/domain/basket"
	"github.com/marketday/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// BasketHandler exposes the live basket over HTTP
type BasketHandler struct {
	BaseHandler
	store *basket.Store
}

// NewBasketHandler creates a basket handler
func NewBasketHandler(store *basket.Store) *BasketHandler {
	return &BasketHandler{store: store}
}

// LineItemDTO is the wire representation of a line item
type LineItemDTO struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	UnitKind    string `json:"unit_kind"`
	Quantity    string `json:"quantity"`
	Amount      string `json:"amount"`
}

// BasketDTO is the wire representation of a basket snapshot
type BasketDTO struct {
	Items         []LineItemDTO `json:"items"`
	TotalQuantity string        `json:"total_quantity"`
	TotalAmount   string        `json:"total_amount"`
	OriginOrderID string        `json:"origin_order_id,omitempty"`
}

// ChangeSetDTO is the wire representation of a reconciliation report
type ChangeSetDTO struct {
	Added      []LineItemDTO       `json:"added"`
	Removed    []string            `json:"removed"`
	Modified   []QuantityChangeDTO `json:"modified"`
	HasChanges bool                `json:"has_changes"`
}

// QuantityChangeDTO describes one quantity modification
type QuantityChangeDTO struct {
	ProductID   string `json:"product_id"`
	OldQuantity string `json:"old_quantity"`
	NewQuantity string `json:"new_quantity"`
}

func toLineItemDTO(item order.LineItem) LineItemDTO {
	return LineItemDTO{
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		UnitPrice:   item.UnitPrice.String(),
		UnitKind:    item.UnitKind.String(),
		Quantity:    item.Quantity.String(),
		Amount:      item.Amount().String(),
	}
}

func toLineItemDTOs(items []order.LineItem) []LineItemDTO {
	dtos := make([]LineItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, toLineItemDTO(item))
	}
	return dtos
}

func toBasketDTO(snap basket.Snapshot, origin string) BasketDTO {
	return BasketDTO{
		Items:         toLineItemDTOs(snap),
		TotalQuantity: snap.TotalQuantity().String(),
		TotalAmount:   snap.TotalAmount().String(),
		OriginOrderID: origin,
	}
}

func toChangeSetDTO(cs order.ChangeSet) ChangeSetDTO {
	dto := ChangeSetDTO{
		Added:      toLineItemDTOs(cs.Added),
		Removed:    cs.Removed,
		Modified:   make([]QuantityChangeDTO, 0, len(cs.Modified)),
		HasChanges: cs.HasChanges(),
	}
	if dto.Removed == nil {
		dto.Removed = []string{}
	}
	for _, m := range cs.Modified {
		dto.Modified = append(dto.Modified, QuantityChangeDTO{
			ProductID:   m.ProductID,
			OldQuantity: m.OldQuantity.String(),
			NewQuantity: m.NewQuantity.String(),
		})
	}
	return dto
}

// Get returns the current basket snapshot
// GET /api/v1/basket
func (h *BasketHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, OK(toBasketDTO(h.store.Current(), h.store.Origin())))
}

// AddItemRequest is the payload for adding an item to the basket
type AddItemRequest struct {
	ProductID   string `json:"product_id" binding:"required"`
	ProductName string `json:"product_name" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	UnitKind    string `json:"unit_kind" binding:"required,oneof=WEIGHT COUNT"`
	Quantity    string `json:"quantity" binding:"required"`
}

// AddItem adds a line item to the basket, accumulating quantity when the
// product is already present
// POST /api/v1/basket/items
func (h *BasketHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondBindError(c, err)
		return
	}

	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, Fail("INVALID_PRICE", "Unit price is not a valid decimal"))
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, Fail("INVALID_QUANTITY", "Quantity is not a valid decimal"))
		return
	}

	item, err := order.NewLineItem(req.ProductID, req.ProductName, price, order.UnitKind(req.UnitKind), quantity)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	if err := h.store.Add(item); err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OK(toBasketDTO(h.store.Current(), h.store.Origin())))
}

// SetQuantityRequest is the payload for replacing an item's quantity
type SetQuantityRequest struct {
	Quantity string `json:"quantity" binding:"required"`
}

// SetQuantity replaces the quantity of an existing item. Zero removes it.
// PUT /api/v1/basket/items/:productId/quantity
func (h *BasketHandler) SetQuantity(c *gin.Context) {
	productID := c.Param("productId")

	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondBindError(c, err)
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, Fail("INVALID_QUANTITY", "Quantity is not a valid decimal"))
		return
	}

	if err := h.store.SetQuantity(productID, quantity); err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OK(toBasketDTO(h.store.Current(), h.store.Origin())))
}

// RemoveItem removes an item from the basket. Removing an absent item
// succeeds.
// DELETE /api/v1/basket/items/:productId
func (h *BasketHandler) RemoveItem(c *gin.Context) {
	h.store.Remove(c.Param("productId"))
	c.JSON(http.StatusOK, OK(toBasketDTO(h.store.Current(), h.store.Origin())))
}

// Discard empties the basket and forgets the loaded origin
// DELETE /api/v1/basket
func (h *BasketHandler) Discard(c *gin.Context) {
	h.store.Discard()
	c.JSON(http.StatusOK, OK(toBasketDTO(h.store.Current(), "")))
}

// Changes reconciles the basket against the loaded order's baseline
// GET /api/v1/basket/changes
func (h *BasketHandler) Changes(c *gin.Context) {
	c.JSON(http.StatusOK, OK(toChangeSetDTO(h.store.Changes())))
}
