// Package engine implements the order-processing workflow: a finite state
// machine that validates an order, runs the inventory and payment branches
// concurrently, reconciles their outcomes, and drives the execution to a
// terminal notification state. Retry policies, timeout budgets, and failure
// escalation are attached per state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lprior-repo/orderflow/internal/escalate"
	"github.com/lprior-repo/orderflow/internal/inventory"
	"github.com/lprior-repo/orderflow/internal/notification"
	"github.com/lprior-repo/orderflow/internal/order"
	"github.com/lprior-repo/orderflow/internal/payment"
)

// Validator produces the validity verdict for an order. The error return
// exists for implementations backed by an external rule service; the
// default validator is pure and never errors.
type Validator interface {
	Validate(ctx context.Context, o order.Order) (order.ValidationResult, error)
}

// ExecutionStore persists execution snapshots at every state transition so
// failed executions can be redriven.
type ExecutionStore interface {
	Save(ctx context.Context, exec *Execution) error
	Get(ctx context.Context, executionID string) (*Execution, error)
}

// Escalator publishes operator alerts when a top-level retry budget is
// exhausted. Implementations must not fail the workflow.
type Escalator interface {
	Escalate(ctx context.Context, alert escalate.Alert)
}

// policies bundles the per-state retry configuration.
type policies struct {
	Validate  Policy
	Inventory Policy
	Payment   Policy
	Notify    Policy
}

// defaultPolicies implements the design defaults: business branches get
// full jitter; notification gets a smaller budget because the order outcome
// is already decided by the time it runs.
func defaultPolicies() policies {
	return policies{
		Validate: Policy{
			MaxAttempts: 3,
			Delay:       time.Second,
			Backoff:     BackoffExponential,
			Jitter:      true,
			Timeout:     30 * time.Second,
		},
		Inventory: Policy{
			MaxAttempts: 3,
			Delay:       time.Second,
			Backoff:     BackoffExponential,
			Jitter:      true,
			Timeout:     60 * time.Second,
		},
		Payment: Policy{
			MaxAttempts: 2,
			Delay:       time.Second,
			Backoff:     BackoffExponential,
			Jitter:      true,
			Timeout:     45 * time.Second,
		},
		Notify: Policy{
			MaxAttempts: 2,
			Delay:       500 * time.Millisecond,
			Backoff:     BackoffExponential,
			Timeout:     30 * time.Second,
		},
	}
}

// withOverrides applies caller-supplied per-state timeout settings.
func (p policies) withOverrides(ts *order.TimeoutSettings) policies {
	if ts == nil {
		return p
	}
	if ts.Validation > 0 {
		p.Validate = p.Validate.WithTimeout(time.Duration(ts.Validation) * time.Second)
	}
	if ts.Inventory > 0 {
		p.Inventory = p.Inventory.WithTimeout(time.Duration(ts.Inventory) * time.Second)
	}
	if ts.Payment > 0 {
		p.Payment = p.Payment.WithTimeout(time.Duration(ts.Payment) * time.Second)
	}
	if ts.Notification > 0 {
		p.Notify = p.Notify.WithTimeout(time.Duration(ts.Notification) * time.Second)
	}
	return p
}

// Engine runs workflow executions. It is safe for concurrent use: all
// per-order state lives on the Execution, never on the Engine.
type Engine struct {
	log       *slog.Logger
	tracer    trace.Tracer
	validator Validator
	inventory inventory.Checker
	payment   payment.Processor
	notifier  notification.Dispatcher
	escalator Escalator
	store     ExecutionStore
	policies  policies
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithValidator replaces the default pure validator.
func WithValidator(v Validator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithStore enables execution snapshot persistence (required for redrive).
func WithStore(s ExecutionStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithEscalator sets the operator alert path.
func WithEscalator(esc Escalator) Option {
	return func(e *Engine) { e.escalator = esc }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithPolicies overrides the per-state retry policies.
func WithPolicies(validate, inventory, payment, notify Policy) Option {
	return func(e *Engine) {
		e.policies = policies{Validate: validate, Inventory: inventory, Payment: payment, Notify: notify}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(inv inventory.Checker, pay payment.Processor, notifier notification.Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		log:       slog.Default(),
		tracer:    otel.Tracer("orderflow/engine"),
		validator: pureValidator{rules: order.DefaultRules},
		inventory: inv,
		payment:   pay,
		notifier:  notifier,
		policies:  defaultPolicies(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pureValidator adapts the side-effect-free rule set to the Validator
// contract.
type pureValidator struct {
	rules order.Rules
}

func (v pureValidator) Validate(_ context.Context, o order.Order) (order.ValidationResult, error) {
	return v.rules.Validate(o), nil
}

// Start runs one workflow execution to a terminal state. It never returns
// nil and never propagates branch errors: every path ends in one of the
// terminal classifications.
func (e *Engine) Start(ctx context.Context, in order.Input) *Execution {
	exec := newExecution(in.Order, e.now())
	return e.run(ctx, exec, in.TimeoutSettings)
}

// Redrive replays a failed execution from its persisted snapshot, reusing
// the same execution id and any context slots that had already settled.
func (e *Engine) Redrive(ctx context.Context, executionID string) (*Execution, error) {
	if e.store == nil {
		return nil, errors.New("redrive requires an execution store")
	}
	prev, err := e.store.Get(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("loading execution %s: %w", executionID, err)
	}
	if !prev.RedriveCandidate {
		return nil, fmt.Errorf("execution %s is not a redrive candidate", executionID)
	}

	exec := &Execution{
		ID:        prev.ID,
		Order:     prev.Order,
		State:     StateInit,
		StartedAt: e.now(),
	}
	// Reuse settled context: a valid verdict and non-errored branch
	// outcomes survive the replay; the failed pieces run again.
	if prev.Validation != nil && prev.Validation.IsValid() {
		exec.Validation = prev.Validation
	}
	if prev.Inventory != nil && prev.Inventory.Status != "" && prev.Inventory.Status != inventory.StatusError {
		exec.Inventory = prev.Inventory
	}
	if prev.Payment != nil && prev.Payment.Status != "" && prev.Payment.Status != payment.StatusError {
		exec.Payment = prev.Payment
	}

	return e.run(ctx, exec, nil), nil
}

// run drives the state machine. Slots already populated on the execution
// (redrive) are not recomputed.
func (e *Engine) run(ctx context.Context, exec *Execution, ts *order.TimeoutSettings) *Execution {
	ctx, span := e.tracer.Start(ctx, "workflow.execute",
		trace.WithAttributes(
			attribute.String("workflow.execution_id", exec.ID),
			attribute.String("workflow.order_id", exec.Order.OrderID),
		))
	defer span.End()

	pol := e.policies.withOverrides(ts)

	// Validate.
	if exec.Validation == nil {
		e.enter(ctx, exec, StateValidate)
		var verdict order.ValidationResult
		err := pol.Validate.Do(ctx, e.log, StateValidate, func(ctx context.Context) error {
			v, err := e.validator.Validate(ctx, exec.Order)
			if err != nil {
				return err
			}
			verdict = v
			return nil
		})
		if err != nil {
			return e.fail(ctx, exec, StateValidate, err, pol)
		}
		exec.Validation = &verdict
	}
	if !exec.Validation.IsValid() {
		e.log.InfoContext(ctx, "order failed validation",
			"execution_id", exec.ID,
			"order_id", exec.Order.OrderID,
			"errors", exec.Validation.Errors)
		return e.finish(ctx, exec, StatusValidationFailed, pol)
	}

	// Fork inventory and payment; the barrier waits for both. Settled
	// slots are left alone.
	if exec.Inventory == nil || exec.Payment == nil {
		e.enter(ctx, exec, StateParallelProcessing)
		e.runParallel(ctx, exec, pol)
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, exec, StateParallelProcessing, err, pol)
		}
	}

	// Reconcile both settled outcomes.
	e.enter(ctx, exec, StateReconcile)
	status := Reconcile(*exec.Inventory, *exec.Payment)
	e.log.InfoContext(ctx, "reconciled branch outcomes",
		"execution_id", exec.ID,
		"order_id", exec.Order.OrderID,
		"inventory_status", string(exec.Inventory.Status),
		"payment_status", string(exec.Payment.Status),
		"final_status", string(status))

	return e.finish(ctx, exec, status, pol)
}

// finish records the outcome, dispatches the terminal notification, and
// freezes the execution in its business terminal state. A notification
// failure never changes the already-decided outcome; it escalates instead.
func (e *Engine) finish(ctx context.Context, exec *Execution, status FinalStatus, pol policies) *Execution {
	exec.FinalStatus = status

	if err := e.notify(ctx, exec, status, pol); err != nil {
		exec.RedriveCandidate = true
		exec.FailedState = StateNotify
		e.escalateOnce(ctx, exec, StateNotify, err)
	}

	exec.transition(terminalStateFor(status), e.now())
	e.persist(ctx, exec)
	e.log.InfoContext(ctx, "workflow completed",
		"execution_id", exec.ID,
		"order_id", exec.Order.OrderID,
		"final_status", string(status))
	return exec
}

// fail is the escalation terminal: a top-level state exhausted its retry
// budget. The customer still gets a dispatch attempt, the operator gets
// exactly one alert, and the execution is marked for redrive.
func (e *Engine) fail(ctx context.Context, exec *Execution, failedState State, cause error, pol policies) *Execution {
	wfErr := classify(cause, failedState)
	exec.FinalStatus = StatusProcessingFailed
	exec.FailedState = failedState
	exec.Error = wfErr.Error()
	exec.RedriveCandidate = true

	// Best effort: the alert below already covers this failure, so a
	// notification error here is only logged.
	_ = e.notify(ctx, exec, StatusProcessingFailed, pol)

	exec.transition(StateFailed, e.now())
	e.persist(ctx, exec)
	e.escalateOnce(ctx, exec, failedState, wfErr)
	return exec
}

// notify invokes the dispatcher exactly once per execution, under the
// notification retry policy.
func (e *Engine) notify(ctx context.Context, exec *Execution, status FinalStatus, pol policies) error {
	e.enter(ctx, exec, StateNotify)

	req := notification.Request{
		OrderID:    exec.Order.OrderID,
		CustomerID: exec.Order.CustomerID,
		Type:       notificationTypeFor(status),
		Detail:     e.notificationDetail(exec, status),
	}
	if status == StatusSuccess {
		if exec.Payment != nil {
			req.TransactionID = exec.Payment.TransactionID
		}
		if exec.Inventory != nil {
			req.ReservationID = exec.Inventory.ReservationID
		}
	}

	var res notification.Result
	err := pol.Notify.Do(ctx, e.log, StateNotify, func(ctx context.Context) error {
		r, err := e.notifier.Send(ctx, req)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		exec.Notification = &notification.Result{
			Status: notification.StatusFailed,
			Type:   req.Type,
			Error:  err.Error(),
		}
		e.log.ErrorContext(ctx, "notification dispatch failed",
			"execution_id", exec.ID,
			"order_id", exec.Order.OrderID,
			"notification_type", string(req.Type),
			"error", err.Error())
		return err
	}
	exec.Notification = &res
	return nil
}

func (e *Engine) notificationDetail(exec *Execution, status FinalStatus) string {
	switch status {
	case StatusValidationFailed:
		if exec.Validation != nil {
			return strings.Join(exec.Validation.Errors, "; ")
		}
	case StatusInventoryUnavailable:
		if exec.Inventory != nil {
			return exec.Inventory.Reason
		}
	case StatusPaymentDeclined:
		if exec.Payment != nil {
			return exec.Payment.ErrorMessage
		}
	case StatusProcessingFailed:
		// No customer-facing detail beyond "try again later".
		return ""
	}
	return ""
}

// enter advances the execution into a state, persisting the snapshot so a
// crash mid-flight leaves a redrivable record.
func (e *Engine) enter(ctx context.Context, exec *Execution, s State) {
	exec.transition(s, e.now())
	e.persist(ctx, exec)
	e.log.InfoContext(ctx, "entering state",
		"execution_id", exec.ID,
		"order_id", exec.Order.OrderID,
		"state", string(s))
}

func (e *Engine) persist(ctx context.Context, exec *Execution) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(ctx, exec); err != nil {
		e.log.ErrorContext(ctx, "persisting execution snapshot failed",
			"execution_id", exec.ID,
			"error", err.Error())
	}
}

// escalateOnce publishes a single operator alert for this execution.
func (e *Engine) escalateOnce(ctx context.Context, exec *Execution, failedState State, cause error) {
	if e.escalator == nil || exec.escalated {
		return
	}
	exec.escalated = true

	wfErr := classify(cause, failedState)
	e.escalator.Escalate(ctx, escalate.Alert{
		ExecutionID:  exec.ID,
		FailedState:  string(failedState),
		ErrorCode:    wfErr.Code,
		ErrorMessage: wfErr.Message,
		OrderID:      exec.Order.OrderID,
	})
}
