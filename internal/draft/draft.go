package draft

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloomelein/m/internal/receipt"
)

var (
	ErrNotFound        = errors.New("draft not found")
	ErrEmptyItem       = errors.New("item description is required")
	ErrInvalidPrice    = errors.New("invalid item price")
	ErrNoItemsToRemove = errors.New("draft has no items")
)

// Item is a line item as entered on the form.
type Item struct {
	Description string `json:"description"`
	Price       string `json:"price"`
}

// Draft is an order being assembled before its receipt is composed.
type Draft struct {
	ID              uuid.UUID `json:"id"`
	Owner           string    `json:"owner"`
	CustomerName    string    `json:"customer_name"`
	CustomerAddress string    `json:"customer_address"`
	CustomerPhone   string    `json:"customer_phone"`
	Delivery        string    `json:"delivery"`
	DeliveryCharge  string    `json:"delivery_charge"`
	Payment         string    `json:"payment"`
	PaymentOther    string    `json:"payment_other,omitempty"`
	PIC             string    `json:"pic,omitempty"`
	Items           []Item    `json:"items"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AddItem appends an item after checking it the way the form does: a
// description and a non-negative numeric price.
func (d *Draft) AddItem(description, price string) (Item, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Item{}, ErrEmptyItem
	}
	amount, err := receipt.ParseAmount(price)
	if err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	item := Item{Description: description, Price: amount.StringFixed(2)}
	d.Items = append(d.Items, item)
	return item, nil
}

// RemoveLast drops the most recently added item.
func (d *Draft) RemoveLast() (Item, error) {
	if len(d.Items) == 0 {
		return Item{}, ErrNoItemsToRemove
	}
	last := d.Items[len(d.Items)-1]
	d.Items = d.Items[:len(d.Items)-1]
	return last, nil
}

// ClearItems drops every item and keeps the customer details.
func (d *Draft) ClearItems() {
	d.Items = nil
}

func (d Draft) clone() Draft {
	if d.Items != nil {
		d.Items = append([]Item(nil), d.Items...)
	}
	return d
}
