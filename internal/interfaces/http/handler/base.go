package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketday/backend/internal/domain/shared"
)

// BaseHandler provides shared response helpers for all handlers
type BaseHandler struct{}

// statusForCode maps domain error codes to HTTP statuses. Each expected
// error kind gets a distinct, actionable response rather than a generic
// failure.
var statusForCode = map[string]int{
	"NOT_FOUND":              http.StatusNotFound,
	"INVALID_INPUT":          http.StatusBadRequest,
	"INVALID_PRODUCT":        http.StatusBadRequest,
	"INVALID_PRODUCT_NAME":   http.StatusBadRequest,
	"INVALID_UNIT_KIND":      http.StatusBadRequest,
	"INVALID_PRICE":          http.StatusBadRequest,
	"INVALID_QUANTITY":       http.StatusBadRequest,
	"INVALID_BUYER":          http.StatusBadRequest,
	"INVALID_STATE":          http.StatusConflict,
	"EDIT_WINDOW_CLOSED":     http.StatusConflict,
	"EMPTY_BASKET":           http.StatusUnprocessableEntity,
	"CONFLICTING_ORDER_LOAD": http.StatusConflict,
	"STORE_UNAVAILABLE":      http.StatusServiceUnavailable,
	"SCHEDULE_INTEGRITY":     http.StatusInternalServerError,
	"DUPLICATE_REQUEST":      http.StatusConflict,
}

// RespondError writes a domain error as a structured failure response
func (h *BaseHandler) RespondError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status, ok := statusForCode[domainErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		c.JSON(status, Fail(domainErr.Code, domainErr.Message))
		return
	}
	c.JSON(http.StatusInternalServerError, Fail("INTERNAL_ERROR", "An unexpected error occurred"))
}

// RespondBindError writes a request binding failure
func (h *BaseHandler) RespondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Fail("INVALID_INPUT", err.Error()))
}
