// Package escalate publishes operator alerts for executions whose
// top-level retry budget was exhausted.
package escalate

import (
	"context"
	"log/slog"
)

// Alert is the payload published to operators. It carries enough context
// to locate and redrive the failed execution.
type Alert struct {
	ExecutionID  string `json:"executionId"`
	FailedState  string `json:"failedState"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	OrderID      string `json:"orderId"`
}

// Sink delivers alerts. Sinks must tolerate concurrent publishes from
// unrelated executions without coordination.
type Sink interface {
	Publish(ctx context.Context, alert Alert) error
}

// Escalator is the fire-and-forget alert path. A failure to publish is
// logged and swallowed: the workflow has already reached its terminal
// state by the time escalation runs, so nothing may abort it.
type Escalator struct {
	sink Sink
	log  *slog.Logger
}

func New(sink Sink, log *slog.Logger) *Escalator {
	if log == nil {
		log = slog.Default()
	}
	return &Escalator{sink: sink, log: log}
}

func (e *Escalator) Escalate(ctx context.Context, alert Alert) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, alert); err != nil {
		e.log.ErrorContext(ctx, "failed to publish operator alert",
			"execution_id", alert.ExecutionID,
			"failed_state", alert.FailedState,
			"order_id", alert.OrderID,
			"error", err.Error())
		return
	}
	e.log.WarnContext(ctx, "operator alert published",
		"execution_id", alert.ExecutionID,
		"failed_state", alert.FailedState,
		"error_code", alert.ErrorCode,
		"order_id", alert.OrderID)
}
