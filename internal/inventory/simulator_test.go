package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulator_HappyPath(t *testing.T) {
	sim := NewSimulator(0, 0, 1)
	res, err := sim.Check(context.Background(), Request{OrderID: "ord-1"})
	require.NoError(t, err)
	assert.True(t, res.Available())
	assert.True(t, strings.HasPrefix(res.ReservationID, "rsv_"))
}

func TestSimulator_IdempotentPerOrder(t *testing.T) {
	sim := NewSimulator(0, 0, 1)
	first, err := sim.Check(context.Background(), Request{OrderID: "ord-1"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := sim.Check(context.Background(), Request{OrderID: "ord-1"})
		require.NoError(t, err)
		assert.Equal(t, first.ReservationID, again.ReservationID)
	}

	other, err := sim.Check(context.Background(), Request{OrderID: "ord-2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ReservationID, other.ReservationID)
}

func TestSimulator_OutOfStockVerdictSticks(t *testing.T) {
	sim := NewSimulator(1, 0, 1)
	res, err := sim.Check(context.Background(), Request{OrderID: "ord-1"})
	require.NoError(t, err)
	assert.True(t, res.OutOfStock())
	assert.NotEmpty(t, res.Reason)

	again, err := sim.Check(context.Background(), Request{OrderID: "ord-1"})
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestSimulator_ErrorsAreNotRecorded(t *testing.T) {
	sim := NewSimulator(0, 1, 1)
	_, err := sim.Check(context.Background(), Request{OrderID: "ord-1"})
	require.Error(t, err)

	// A transient error leaves no verdict: the retry rolls again.
	sim.ErrorRate = 0
	res, err := sim.Check(context.Background(), Request{OrderID: "ord-1"})
	require.NoError(t, err)
	assert.True(t, res.Available())
}

func TestSimulator_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSimulator(0, 0, 1).Check(ctx, Request{OrderID: "ord-1"})
	assert.ErrorIs(t, err, context.Canceled)
}
