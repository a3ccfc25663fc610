// Package notification wraps the customer messaging backend.
package notification

import (
	"context"
	"fmt"
)

// Type identifies the customer-facing message template.
type Type string

const (
	TypeOrderConfirmation    Type = "ORDER_CONFIRMATION"
	TypeOrderFailed          Type = "ORDER_FAILED"
	TypePaymentFailed        Type = "PAYMENT_FAILED"
	TypeInventoryUnavailable Type = "INVENTORY_UNAVAILABLE"
)

// Status reports whether the message left the building.
type Status string

const (
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

// Request describes one customer notification.
type Request struct {
	OrderID    string `json:"orderId"`
	CustomerID string `json:"customerId"`
	Type       Type   `json:"notificationType"`
	// Detail carries outcome-specific context: validation errors, the
	// unavailability reason, or the payment error.
	Detail string `json:"detail,omitempty"`
	// Confirmation ids, set on ORDER_CONFIRMATION messages.
	TransactionID string `json:"transactionId,omitempty"`
	ReservationID string `json:"reservationId,omitempty"`
}

// Result is the dispatch outcome recorded on the execution.
type Result struct {
	Status         Status `json:"notificationStatus"`
	Type           Type   `json:"notificationType"`
	NotificationID string `json:"notificationId,omitempty"`
	Message        string `json:"messagePreview,omitempty"`
	Error          string `json:"notificationError,omitempty"`
}

// Dispatcher sends one customer-facing message. Implementations return an
// error only for transient delivery failures.
type Dispatcher interface {
	Send(ctx context.Context, req Request) (Result, error)
}

// MessageFor renders the customer-facing text for a notification type.
func MessageFor(t Type, orderID string) string {
	switch t {
	case TypeOrderConfirmation:
		return fmt.Sprintf("Your order %s has been confirmed and is being processed.", orderID)
	case TypePaymentFailed:
		return fmt.Sprintf("Payment for order %s failed. Please update your payment method.", orderID)
	case TypeInventoryUnavailable:
		return fmt.Sprintf("Some items in order %s are temporarily out of stock. We'll notify you when available.", orderID)
	case TypeOrderFailed:
		return fmt.Sprintf("We encountered an issue processing your order %s. Please try again later.", orderID)
	default:
		return fmt.Sprintf("Update regarding your order %s.", orderID)
	}
}
