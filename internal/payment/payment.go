// Package payment wraps the payment authorization backend.
package payment

import "context"

// Status is the authorization verdict for a payment attempt.
type Status string

const (
	StatusApproved Status = "APPROVED"
	StatusDeclined Status = "DECLINED"
	StatusError    Status = "ERROR"
)

// Request carries what the processor needs to authorize one order.
// Authorization is idempotent per order id.
type Request struct {
	OrderID       string  `json:"orderId"`
	CustomerID    string  `json:"customerId"`
	TotalAmount   float64 `json:"totalAmount"`
	PaymentMethod string  `json:"paymentMethod"`
}

// Result is the terminal outcome of the payment branch. A decline is a
// first-class business outcome, not an error.
type Result struct {
	Status        Status `json:"paymentStatus"`
	TransactionID string `json:"transactionId,omitempty"`
	ErrorCode     string `json:"errorCode,omitempty"`
	ErrorMessage  string `json:"paymentError,omitempty"`
}

func (r Result) Approved() bool { return r.Status == StatusApproved }
func (r Result) Declined() bool { return r.Status == StatusDeclined }

// Errored produces the branch-local error outcome used when the retry
// budget is exhausted.
func Errored(reason string) Result {
	return Result{Status: StatusError, ErrorMessage: reason}
}

// Processor authorizes a payment. Implementations return an error only for
// transient infrastructure failures; declines come back as a Result.
type Processor interface {
	Authorize(ctx context.Context, req Request) (Result, error)
}
