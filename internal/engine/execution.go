package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/lprior-repo/orderflow/internal/inventory"
	"github.com/lprior-repo/orderflow/internal/notification"
	"github.com/lprior-repo/orderflow/internal/order"
	"github.com/lprior-repo/orderflow/internal/payment"
)

// Transition records one state change with its entry timestamp.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// Execution is the engine-owned record of one order submission. Each
// context slot is written exactly once by the state that produces it and
// read-only afterwards; once a terminal state is reached the whole record
// is frozen.
type Execution struct {
	ID          string       `json:"executionId"`
	Order       order.Order  `json:"order"`
	State       State        `json:"state"`
	StartedAt   time.Time    `json:"startedAt"`
	CompletedAt time.Time    `json:"completedAt,omitempty"`
	Transitions []Transition `json:"transitions,omitempty"`

	Validation   *order.ValidationResult `json:"validation,omitempty"`
	Inventory    *inventory.Result       `json:"inventory,omitempty"`
	Payment      *payment.Result         `json:"payment,omitempty"`
	Notification *notification.Result    `json:"notificationResult,omitempty"`

	FinalStatus FinalStatus `json:"finalStatus,omitempty"`

	// RedriveCandidate marks executions whose top-level retries were
	// exhausted; operators may replay them from the persisted input.
	RedriveCandidate bool   `json:"isRedriveCandidate,omitempty"`
	FailedState      State  `json:"failedState,omitempty"`
	Error            string `json:"error,omitempty"`

	// escalated guards the one-alert-per-execution invariant.
	escalated bool
}

func newExecution(o order.Order, now time.Time) *Execution {
	return &Execution{
		ID:        uuid.New().String(),
		Order:     o,
		State:     StateInit,
		StartedAt: now,
	}
}

// transition advances the execution. Completed states are never re-entered;
// reaching a terminal state stamps the completion time.
func (e *Execution) transition(to State, now time.Time) {
	e.Transitions = append(e.Transitions, Transition{From: e.State, To: to, At: now})
	e.State = to
	if to.Terminal() {
		e.CompletedAt = now
	}
}

// Terminal reports whether this execution is finished.
func (e *Execution) Terminal() bool {
	return e.State.Terminal()
}

// Result is the caller-visible terminal context.
type Result struct {
	OrderID      string               `json:"orderId"`
	CustomerID   string               `json:"customerId"`
	FinalStatus  FinalStatus          `json:"finalStatus"`
	Notification *notification.Result `json:"notificationResult,omitempty"`
	CompletedAt  time.Time            `json:"completedAt"`

	Payment   *paymentSummary   `json:"payment,omitempty"`
	Inventory *inventorySummary `json:"inventory,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

type paymentSummary struct {
	TransactionID string `json:"transactionId"`
}

type inventorySummary struct {
	ReservationID string `json:"reservationId"`
}

// Result projects the terminal execution context into the output shape.
func (e *Execution) Result() Result {
	res := Result{
		OrderID:      e.Order.OrderID,
		CustomerID:   e.Order.CustomerID,
		FinalStatus:  e.FinalStatus,
		Notification: e.Notification,
		CompletedAt:  e.CompletedAt,
	}
	if e.FinalStatus == StatusSuccess {
		if e.Payment != nil {
			res.Payment = &paymentSummary{TransactionID: e.Payment.TransactionID}
		}
		if e.Inventory != nil {
			res.Inventory = &inventorySummary{ReservationID: e.Inventory.ReservationID}
		}
	}
	if e.Validation != nil && !e.Validation.IsValid() {
		res.Errors = e.Validation.Errors
	}
	return res
}
