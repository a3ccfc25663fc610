package inventory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// Simulator is a local stand-in for the stock backend. Outcome rates are
// configurable so failure paths can be exercised without a real service.
type Simulator struct {
	OutOfStockRate float64
	ErrorRate      float64

	mu           sync.Mutex
	reservations map[string]Result
	rand         *rand.Rand
}

func NewSimulator(outOfStockRate, errorRate float64, seed int64) *Simulator {
	return &Simulator{
		OutOfStockRate: outOfStockRate,
		ErrorRate:      errorRate,
		reservations:   make(map[string]Result),
		rand:           rand.New(rand.NewSource(seed)),
	}
}

// Check reserves stock for the order. Repeated calls for the same order id
// return the recorded verdict, keeping the branch idempotent across retries.
func (s *Simulator) Check(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.reservations[req.OrderID]; ok {
		return prev, nil
	}

	roll := s.rand.Float64()
	if roll < s.ErrorRate {
		return Result{}, fmt.Errorf("inventory system temporarily unavailable")
	}
	if roll < s.ErrorRate+s.OutOfStockRate {
		res := Result{Status: StatusOutOfStock, Reason: "product temporarily out of stock"}
		s.reservations[req.OrderID] = res
		return res, nil
	}

	res := Result{
		Status:        StatusAvailable,
		ReservationID: "rsv_" + uuid.New().String()[:8],
	}
	s.reservations[req.OrderID] = res
	return res, nil
}
