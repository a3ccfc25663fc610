package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() Order {
	return Order{
		OrderID:    "o1",
		CustomerID: "c1",
		Items: []LineItem{
			{ProductID: "p1", Quantity: 2, Price: 10.00},
		},
		TotalAmount:   20.00,
		PaymentMethod: "card",
	}
}

func TestValidate_ValidOrder(t *testing.T) {
	result := Validate(validOrder())
	assert.True(t, result.IsValid())
	assert.Empty(t, result.Errors)
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Order)
		wantCount int
	}{
		{
			name:      "missing order id",
			mutate:    func(o *Order) { o.OrderID = "" },
			wantCount: 1,
		},
		{
			name:      "missing customer id",
			mutate:    func(o *Order) { o.CustomerID = "" },
			wantCount: 1,
		},
		{
			name:      "missing payment method",
			mutate:    func(o *Order) { o.PaymentMethod = "" },
			wantCount: 1,
		},
		{
			name: "empty items and negative total",
			mutate: func(o *Order) {
				o.Items = nil
				o.TotalAmount = -5
			},
			wantCount: 2,
		},
		{
			name: "bad item quantity and price",
			mutate: func(o *Order) {
				o.Items = []LineItem{{ProductID: "p1", Quantity: 0, Price: -1}}
			},
			wantCount: 2,
		},
		{
			name: "every rule violated at once",
			mutate: func(o *Order) {
				*o = Order{Items: []LineItem{{}}}
			},
			// order id, customer id, payment method, item product id,
			// item quantity, total amount. Item price zero is legal.
			wantCount: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(&o)
			result := Validate(o)
			assert.False(t, result.IsValid())
			assert.Len(t, result.Errors, tt.wantCount)
		})
	}
}

func TestValidate_ZeroPriceItemIsLegal(t *testing.T) {
	o := validOrder()
	o.Items = append(o.Items, LineItem{ProductID: "freebie", Quantity: 1, Price: 0})
	assert.True(t, Validate(o).IsValid())
}

func TestValidate_ItemErrorsCarryPosition(t *testing.T) {
	o := validOrder()
	o.Items = []LineItem{
		{ProductID: "p1", Quantity: 1, Price: 1},
		{ProductID: "", Quantity: 1, Price: 1},
	}
	result := Validate(o)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "item 2")
}

func TestValidate_MaxTotalAmount(t *testing.T) {
	o := validOrder()
	o.TotalAmount = DefaultMaxTotalAmount + 1

	result := Validate(o)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "maximum limit")

	// A zero cap disables the rule.
	uncapped := Rules{MaxTotalAmount: 0}
	assert.True(t, uncapped.Validate(o).IsValid())
}
