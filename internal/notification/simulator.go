package notification

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// Simulator is a local stand-in for the messaging backend.
type Simulator struct {
	FailureRate float64

	mu   sync.Mutex
	rand *rand.Rand
}

func NewSimulator(failureRate float64, seed int64) *Simulator {
	return &Simulator{
		FailureRate: failureRate,
		rand:        rand.New(rand.NewSource(seed)),
	}
}

func (s *Simulator) Send(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	roll := s.rand.Float64()
	s.mu.Unlock()

	if roll < s.FailureRate {
		return Result{}, fmt.Errorf("notification delivery failed")
	}

	return Result{
		Status:         StatusSent,
		Type:           req.Type,
		NotificationID: "ntf_" + uuid.New().String()[:8],
		Message:        MessageFor(req.Type, req.OrderID),
	}, nil
}
