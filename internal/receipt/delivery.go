package receipt

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DeliveryKind tags the DeliverySpec variants.
type DeliveryKind int

const (
	// DeliveryFOC carries no charge and renders as "FOC".
	DeliveryFOC DeliveryKind = iota
	// DeliveryCharged carries a positive amount.
	DeliveryCharged
)

// DeliverySpec is the delivery method chosen for an order and what it costs.
// Build it with FreeDelivery, ChargedDelivery or ParseDeliveryCharge so the
// amount is never negative.
type DeliverySpec struct {
	Method string
	Kind   DeliveryKind
	Amount decimal.Decimal
}

// FreeDelivery returns a no-charge delivery for method.
func FreeDelivery(method string) DeliverySpec {
	return DeliverySpec{Method: method, Kind: DeliveryFOC, Amount: decimal.Zero}
}

// ChargedDelivery returns a delivery costing amount. Zero collapses to FOC.
func ChargedDelivery(method string, amount decimal.Decimal) (DeliverySpec, error) {
	if amount.IsNegative() {
		return FreeDelivery(method), fmt.Errorf("delivery charge %s is negative", amount.StringFixed(2))
	}
	if amount.IsZero() {
		return FreeDelivery(method), nil
	}
	return DeliverySpec{Method: method, Kind: DeliveryCharged, Amount: amount}, nil
}

// Cost is the amount added to the order total.
func (d DeliverySpec) Cost() decimal.Decimal {
	if d.Kind == DeliveryFOC {
		return decimal.Zero
	}
	return d.Amount
}

// ChargeWarning reports a delivery charge that was coerced to FOC.
type ChargeWarning struct {
	Input  string
	Reason string
}

func (w *ChargeWarning) Error() string {
	return fmt.Sprintf("invalid delivery charge %q (%s), treating as FOC", w.Input, w.Reason)
}

// ParseDeliveryCharge turns a user-entered charge into a DeliverySpec.
// Empty input and "FOC" mean no charge. Input ParseAmount refuses is
// coerced to FOC and reported through a *ChargeWarning; the returned spec is
// always usable.
func ParseDeliveryCharge(method, raw string) (DeliverySpec, error) {
	input := strings.TrimSpace(raw)
	if input == "" || strings.EqualFold(input, "FOC") {
		return FreeDelivery(method), nil
	}
	amount, err := ParseAmount(input)
	if err != nil {
		return FreeDelivery(method), &ChargeWarning{Input: raw, Reason: err.Error()}
	}
	spec, _ := ChargedDelivery(method, amount)
	return spec, nil
}
