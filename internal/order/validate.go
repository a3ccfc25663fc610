package order

import "fmt"

// DefaultMaxTotalAmount caps the accepted order total.
const DefaultMaxTotalAmount = 10000

// ValidationResult collects every violated rule. Valid orders carry an
// empty error list.
type ValidationResult struct {
	Errors []string `json:"errors,omitempty"`
}

func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Rules parameterizes validation thresholds.
type Rules struct {
	MaxTotalAmount float64
}

// DefaultRules is what the engine uses unless configured otherwise.
var DefaultRules = Rules{MaxTotalAmount: DefaultMaxTotalAmount}

// Validate checks the order against every rule and reports all violations
// in one pass. It never short-circuits, performs no I/O, and has no side
// effects.
func (r Rules) Validate(o Order) ValidationResult {
	var result ValidationResult

	if o.OrderID == "" {
		result.addError("order id is required")
	}
	if o.CustomerID == "" {
		result.addError("customer id is required")
	}
	if o.PaymentMethod == "" {
		result.addError("payment method is required")
	}

	if len(o.Items) == 0 {
		result.addError("at least one item is required")
	}
	for i, item := range o.Items {
		prefix := fmt.Sprintf("item %d: ", i+1)
		if item.ProductID == "" {
			result.addError(prefix + "product id is required")
		}
		if item.Quantity <= 0 {
			result.addError(prefix + "quantity must be positive")
		}
		if item.Price < 0 {
			result.addError(prefix + "price must not be negative")
		}
	}

	if o.TotalAmount <= 0 {
		result.addError("total amount must be positive")
	} else if r.MaxTotalAmount > 0 && o.TotalAmount > r.MaxTotalAmount {
		result.addError(fmt.Sprintf("total amount exceeds maximum limit of %.2f", r.MaxTotalAmount))
	}

	return result
}

// Validate applies DefaultRules.
func Validate(o Order) ValidationResult {
	return DefaultRules.Validate(o)
}
