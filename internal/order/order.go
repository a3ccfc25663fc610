// Package order holds the order model and its validation rules.
package order

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// LineItem is a single product position within an order.
type LineItem struct {
	ProductID string  `json:"productId" mapstructure:"productId"`
	Quantity  int     `json:"quantity" mapstructure:"quantity"`
	Price     float64 `json:"price" mapstructure:"price"`
}

// Order is the caller-supplied input entity. The engine never mutates it;
// everything derived from it lives on the execution.
type Order struct {
	OrderID       string     `json:"orderId" mapstructure:"orderId"`
	CustomerID    string     `json:"customerId" mapstructure:"customerId"`
	Items         []LineItem `json:"items" mapstructure:"items"`
	TotalAmount   float64    `json:"totalAmount" mapstructure:"totalAmount"`
	PaymentMethod string     `json:"paymentMethod" mapstructure:"paymentMethod"`
}

// TimeoutSettings carries optional per-state timeout overrides, in seconds.
type TimeoutSettings struct {
	Validation   int `json:"validation" mapstructure:"validation"`
	Inventory    int `json:"inventory" mapstructure:"inventory"`
	Payment      int `json:"payment" mapstructure:"payment"`
	Notification int `json:"notification" mapstructure:"notification"`
}

// Input is the full workflow submission payload.
type Input struct {
	Order           Order            `json:"-"`
	TimeoutSettings *TimeoutSettings `json:"timeoutSettings,omitempty" mapstructure:"timeoutSettings"`
}

// DecodeInput converts a raw JSON-shaped map into a typed Input.
// Numbers arrive as float64 from JSON, so decoding is weakly typed.
func DecodeInput(raw map[string]any) (Input, error) {
	var in Input

	orderDecoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &in.Order,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return Input{}, fmt.Errorf("building input decoder: %w", err)
	}
	if err := orderDecoder.Decode(raw); err != nil {
		return Input{}, fmt.Errorf("decoding order input: %w", err)
	}

	if ts, ok := raw["timeoutSettings"]; ok {
		var settings TimeoutSettings
		tsDecoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &settings,
			WeaklyTypedInput: true,
			TagName:          "mapstructure",
		})
		if err != nil {
			return Input{}, fmt.Errorf("building timeout decoder: %w", err)
		}
		if err := tsDecoder.Decode(ts); err != nil {
			return Input{}, fmt.Errorf("decoding timeoutSettings: %w", err)
		}
		in.TimeoutSettings = &settings
	}

	return in, nil
}
