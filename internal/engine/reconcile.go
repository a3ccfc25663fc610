package engine

import (
	"github.com/lprior-repo/orderflow/internal/inventory"
	"github.com/lprior-repo/orderflow/internal/payment"
)

// Reconcile is the pure decision over both settled branch outcomes.
//
// Inventory unavailability takes priority over a declined payment: both
// verdicts abort the order, so the declined payment is not separately
// surfaced when stock was unavailable. Either branch settling to its error
// outcome collapses to PROCESSING_FAILED.
func Reconcile(inv inventory.Result, pay payment.Result) FinalStatus {
	switch {
	case inv.OutOfStock():
		return StatusInventoryUnavailable
	case inv.Available() && pay.Approved():
		return StatusSuccess
	case inv.Available() && pay.Declined():
		return StatusPaymentDeclined
	default:
		return StatusProcessingFailed
	}
}
