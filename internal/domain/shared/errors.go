package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Order lifecycle errors. Expected conditions are returned as values, never
// panicked; only ScheduleIntegrity indicates a programming defect.
var (
	ErrScheduleIntegrity    = NewDomainError("SCHEDULE_INTEGRITY", "Pickup instant does not fall on the configured pickup weekday")
	ErrEditWindowClosed     = NewDomainError("EDIT_WINDOW_CLOSED", "The edit window for this pickup cycle has closed")
	ErrEmptyBasket          = NewDomainError("EMPTY_BASKET", "Cannot commit an order without line items")
	ErrConflictingOrderLoad = NewDomainError("CONFLICTING_ORDER_LOAD", "A different order with unsaved edits is already loaded")
	ErrStoreUnavailable     = NewDomainError("STORE_UNAVAILABLE", "Order store is unavailable")
)
