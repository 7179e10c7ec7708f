package receipt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const longDateLayout = "January 02, 2006"

// Layout holds the shop-specific text around the receipt body.
type Layout struct {
	ShopName string
	Currency string
	Closing  string
}

// DefaultLayout matches the Bloomelein WhatsApp receipt.
var DefaultLayout = Layout{
	ShopName: "Bloomelein",
	Currency: "RM",
	Closing:  "Thank you for your purchase! 🌷",
}

// Receipt is a composed receipt. It is immutable once returned.
type Receipt struct {
	Number   string    `json:"receipt_no"`
	Text     string    `json:"text"`
	Totals   Totals    `json:"totals"`
	IssuedAt time.Time `json:"issued_at"`
}

// Composer validates orders, numbers them and renders receipt text.
type Composer struct {
	counter *Counter
	layout  Layout
}

// NewComposer returns a composer drawing numbers from counter.
func NewComposer(counter *Counter, layout Layout) *Composer {
	return &Composer{counter: counter, layout: layout}
}

// Counter exposes the underlying counter for inspection.
func (c *Composer) Counter() *Counter {
	return c.counter
}

// Compose validates order, allocates the next receipt number for now and
// renders the receipt. A rejected order never consumes a number.
func (c *Composer) Compose(ctx context.Context, order Order, now time.Time) (*Receipt, error) {
	if err := Validate(order); err != nil {
		return nil, err
	}
	number, err := c.counter.Allocate(ctx, now)
	if err != nil {
		return nil, err
	}
	issued := now.In(c.counter.Location())
	return &Receipt{
		Number:   number.String(),
		Text:     Render(c.layout, order, number, issued),
		Totals:   ComputeTotals(order.Items, order.Delivery),
		IssuedAt: issued,
	}, nil
}

// Render assembles the receipt text. Section labels are wrapped in single
// asterisks for WhatsApp bold; values are written as given.
func Render(layout Layout, order Order, number Number, now time.Time) string {
	var b strings.Builder
	money := func(d decimal.Decimal) string { return layout.Currency + d.StringFixed(2) }

	fmt.Fprintf(&b, "*🌸 %s Receipt 🌸*\n\n", layout.ShopName)
	fmt.Fprintf(&b, "*Date:* %s\n", now.Format(longDateLayout))
	fmt.Fprintf(&b, "*Receipt No:* #%s\n\n", number)

	b.WriteString("*Sold to:*\n")
	fmt.Fprintf(&b, "Name: %s\n", order.Customer.Name)
	if address := strings.TrimSpace(order.Customer.Address); address != "" {
		fmt.Fprintf(&b, "Address: %s\n", address)
	}
	phone := order.Customer.Phone
	if phone.Valid() {
		fmt.Fprintf(&b, "Phone: %s\n", phone.Raw)
		fmt.Fprintf(&b, "WhatsApp Contact: %s\n", phone.Link())
	} else {
		fmt.Fprintf(&b, "Phone: %s (Link generation failed - check format)\n", phone.Raw)
	}

	b.WriteString("\n*Item(s) Purchased:*\n")
	if len(order.Items) == 0 {
		b.WriteString("(No items added)\n")
	}
	for _, item := range order.Items {
		fmt.Fprintf(&b, "•  %s\n", item.Description)
		if item.Valid {
			fmt.Fprintf(&b, "   Price: %s\n", money(item.Price))
		} else {
			fmt.Fprintf(&b, "   Price: Error - Invalid Price (%s)\n", item.RawPrice)
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "*Delivery Method:* %s\n", order.Delivery.Method)
	if order.Delivery.Kind == DeliveryCharged {
		fmt.Fprintf(&b, "Delivery Charges: %s\n\n", money(order.Delivery.Amount))
	} else {
		b.WriteString("Delivery Charges: FOC\n\n")
	}

	totals := ComputeTotals(order.Items, order.Delivery)
	fmt.Fprintf(&b, "*Total:* %s %s\n", layout.Currency, totals.Total.StringFixed(2))
	if order.Payment != "" {
		fmt.Fprintf(&b, "*Payment Method:* %s\n", order.Payment)
	}
	if order.PIC != "" {
		fmt.Fprintf(&b, "*Paid to:* %s\n", order.PIC)
	}
	b.WriteString("\n")
	b.WriteString(layout.Closing)
	return b.String()
}
