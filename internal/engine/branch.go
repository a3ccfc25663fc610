package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lprior-repo/orderflow/internal/inventory"
	"github.com/lprior-repo/orderflow/internal/payment"
)

// Branch state names, used for logging and alert payloads.
const (
	StateInventoryBranch State = "INVENTORY_BRANCH"
	StatePaymentBranch   State = "PAYMENT_BRANCH"
)

// runParallel forks the inventory and payment branches and waits for both
// to settle (barrier, not race). Each branch writes only its own slot, so
// there is no shared mutable state between them. A branch whose slot is
// already populated (redrive reuse) is not forked again: a payment that
// authorized on the original run must never be re-charged by a replay.
// A branch exhausting its retries resolves to its own error outcome and
// never aborts the sibling: every goroutine returns nil to the group.
func (e *Engine) runParallel(ctx context.Context, exec *Execution, pol policies) {
	g, gctx := errgroup.WithContext(ctx)
	if exec.Inventory == nil {
		g.Go(func() error {
			res := e.runInventoryBranch(gctx, exec, pol.Inventory)
			exec.Inventory = &res
			return nil
		})
	}
	if exec.Payment == nil {
		g.Go(func() error {
			res := e.runPaymentBranch(gctx, exec, pol.Payment)
			exec.Payment = &res
			return nil
		})
	}
	// Branches never return errors, so Wait is purely the join point.
	_ = g.Wait()
}

// runInventoryBranch drives the inventory attempt loop. Transient errors
// are retried per policy; exhaustion is absorbed into the branch-local
// ERROR outcome.
func (e *Engine) runInventoryBranch(ctx context.Context, exec *Execution, pol Policy) inventory.Result {
	req := inventory.Request{
		OrderID: exec.Order.OrderID,
		Items:   exec.Order.Items,
	}

	var res inventory.Result
	err := pol.Do(ctx, e.log, StateInventoryBranch, func(ctx context.Context) error {
		r, err := e.inventory.Check(ctx, req)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		e.log.WarnContext(ctx, "inventory branch settled to error",
			"execution_id", exec.ID,
			"order_id", exec.Order.OrderID,
			"error", err.Error())
		return inventory.Errored(err.Error())
	}
	return res
}

// runPaymentBranch mirrors the inventory branch for payment authorization.
func (e *Engine) runPaymentBranch(ctx context.Context, exec *Execution, pol Policy) payment.Result {
	req := payment.Request{
		OrderID:       exec.Order.OrderID,
		CustomerID:    exec.Order.CustomerID,
		TotalAmount:   exec.Order.TotalAmount,
		PaymentMethod: exec.Order.PaymentMethod,
	}

	var res payment.Result
	err := pol.Do(ctx, e.log, StatePaymentBranch, func(ctx context.Context) error {
		r, err := e.payment.Authorize(ctx, req)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		e.log.WarnContext(ctx, "payment branch settled to error",
			"execution_id", exec.ID,
			"order_id", exec.Order.OrderID,
			"error", err.Error())
		return payment.Errored(err.Error())
	}
	return res
}
