package receipt

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is one purchased product. RawPrice keeps the text as entered so
// an unparsable price can still be shown on the receipt.
type LineItem struct {
	Description string
	RawPrice    string
	Price       decimal.Decimal
	Valid       bool
}

// NewLineItem parses rawPrice once with ParseAmount. Rejected prices
// produce an invalid item rather than an error.
func NewLineItem(description, rawPrice string) LineItem {
	item := LineItem{Description: strings.TrimSpace(description), RawPrice: rawPrice}
	price, err := ParseAmount(rawPrice)
	if err != nil {
		return item
	}
	item.Price = price
	item.Valid = true
	return item
}

// Totals is the money summary of one receipt.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Delivery decimal.Decimal `json:"delivery"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals sums valid item prices and adds the delivery cost.
func ComputeTotals(items []LineItem, delivery DeliverySpec) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		if item.Valid {
			subtotal = subtotal.Add(item.Price)
		}
	}
	cost := delivery.Cost()
	return Totals{Subtotal: subtotal, Delivery: cost, Total: subtotal.Add(cost)}
}
