package engine

import "github.com/lprior-repo/orderflow/internal/notification"

// State names one node of the workflow DAG. Transitions are strictly
// sequential except for the fork/join inside ParallelProcessing.
type State string

const (
	StateInit               State = "INIT"
	StateValidate           State = "VALIDATE"
	StateParallelProcessing State = "PARALLEL_PROCESSING"
	StateReconcile          State = "RECONCILE"
	StateNotify             State = "NOTIFY"

	// Business terminals. Reaching one of these is a successful workflow
	// completion, even when the business result is negative.
	StateSuccess              State = "SUCCESS"
	StateInventoryUnavailable State = "INVENTORY_UNAVAILABLE"
	StatePaymentDeclined      State = "PAYMENT_DECLINED"
	StateValidationFailed     State = "VALIDATION_FAILED"
	StateProcessingFailed     State = "PROCESSING_FAILED"

	// StateFailed is the escalation terminal: a top-level state exhausted
	// its retries. Executions landing here are redrive candidates.
	StateFailed State = "FAILED"
)

// Terminal reports whether the state has no outgoing transitions.
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StateInventoryUnavailable, StatePaymentDeclined,
		StateValidationFailed, StateProcessingFailed, StateFailed:
		return true
	}
	return false
}

// FinalStatus is the caller-visible outcome classification.
type FinalStatus string

const (
	StatusSuccess              FinalStatus = "SUCCESS"
	StatusInventoryUnavailable FinalStatus = "INVENTORY_UNAVAILABLE"
	StatusPaymentDeclined      FinalStatus = "PAYMENT_DECLINED"
	StatusValidationFailed     FinalStatus = "VALIDATION_FAILED"
	StatusProcessingFailed     FinalStatus = "PROCESSING_FAILED"
)

// terminalStateFor maps an outcome classification to its terminal state.
func terminalStateFor(status FinalStatus) State {
	switch status {
	case StatusSuccess:
		return StateSuccess
	case StatusInventoryUnavailable:
		return StateInventoryUnavailable
	case StatusPaymentDeclined:
		return StatePaymentDeclined
	case StatusValidationFailed:
		return StateValidationFailed
	default:
		return StateProcessingFailed
	}
}

// notificationTypeFor maps an outcome classification to the customer
// message template sent from the Notify leaf.
func notificationTypeFor(status FinalStatus) notification.Type {
	switch status {
	case StatusSuccess:
		return notification.TypeOrderConfirmation
	case StatusInventoryUnavailable:
		return notification.TypeInventoryUnavailable
	case StatusPaymentDeclined:
		return notification.TypePaymentFailed
	default:
		// Validation failures and processing failures both surface the
		// generic order-failed message; processing failures carry no
		// customer-facing detail beyond "try again later".
		return notification.TypeOrderFailed
	}
}
