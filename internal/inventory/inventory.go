// Package inventory wraps the stock reservation backend.
package inventory

import (
	"context"

	"github.com/lprior-repo/orderflow/internal/order"
)

// Status is the availability verdict for a reservation attempt.
type Status string

const (
	StatusAvailable  Status = "AVAILABLE"
	StatusOutOfStock Status = "OUT_OF_STOCK"
	StatusError      Status = "ERROR"
)

// Request identifies the order lines to reserve. Reservations are
// idempotent per order id.
type Request struct {
	OrderID string           `json:"orderId"`
	Items   []order.LineItem `json:"items"`
}

// Result is the terminal outcome of the inventory branch. Out-of-stock is
// a first-class business outcome, not an error.
type Result struct {
	Status        Status `json:"availabilityStatus"`
	ReservationID string `json:"reservationId,omitempty"`
	StockLevel    int    `json:"stockLevel,omitempty"`
	Reason        string `json:"unavailabilityReason,omitempty"`
}

func (r Result) Available() bool  { return r.Status == StatusAvailable }
func (r Result) OutOfStock() bool { return r.Status == StatusOutOfStock }

// Errored produces the branch-local error outcome used when the retry
// budget is exhausted.
func Errored(reason string) Result {
	return Result{Status: StatusError, Reason: reason}
}

// Checker reserves stock for an order. Implementations return an error
// only for transient infrastructure failures; business verdicts
// (out of stock) come back as a Result.
type Checker interface {
	Check(ctx context.Context, req Request) (Result, error)
}
