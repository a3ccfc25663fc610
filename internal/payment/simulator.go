package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// DefaultDailyLimit mirrors the card network limit enforced upstream.
const DefaultDailyLimit = 5000

// Simulator is a local stand-in for the payment gateway.
type Simulator struct {
	DailyLimit  float64
	DeclineRate float64
	ErrorRate   float64

	mu             sync.Mutex
	authorizations map[string]Result
	rand           *rand.Rand
}

func NewSimulator(declineRate, errorRate float64, seed int64) *Simulator {
	return &Simulator{
		DailyLimit:     DefaultDailyLimit,
		DeclineRate:    declineRate,
		ErrorRate:      errorRate,
		authorizations: make(map[string]Result),
		rand:           rand.New(rand.NewSource(seed)),
	}
}

// Authorize decides the payment verdict. Repeated calls for the same order
// id return the recorded verdict, keeping the branch idempotent across
// retries.
func (s *Simulator) Authorize(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.authorizations[req.OrderID]; ok {
		return prev, nil
	}

	if s.DailyLimit > 0 && req.TotalAmount > s.DailyLimit {
		res := Result{
			Status:       StatusDeclined,
			ErrorCode:    "DECLINED_LIMIT_EXCEEDED",
			ErrorMessage: "amount exceeds daily limit",
		}
		s.authorizations[req.OrderID] = res
		return res, nil
	}

	roll := s.rand.Float64()
	if roll < s.ErrorRate {
		return Result{}, fmt.Errorf("payment gateway timeout")
	}
	if roll < s.ErrorRate+s.DeclineRate {
		res := Result{
			Status:       StatusDeclined,
			ErrorCode:    "CARD_DECLINED",
			ErrorMessage: "card declined by issuer",
		}
		s.authorizations[req.OrderID] = res
		return res, nil
	}

	res := Result{
		Status:        StatusApproved,
		TransactionID: "txn_" + uuid.New().String()[:8],
	}
	s.authorizations[req.OrderID] = res
	return res, nil
}
