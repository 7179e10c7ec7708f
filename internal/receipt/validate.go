package receipt

import "strings"

// Customer identifies who the receipt is sold to.
type Customer struct {
	Name    string
	Address string
	Phone   Phone
}

// Order is everything the composer needs for one receipt.
type Order struct {
	Customer        Customer
	Items           []LineItem
	Delivery        DeliverySpec
	AddressRequired bool
	Payment         string
	PIC             string
}

// ValidationError lists every reason an order was rejected before a receipt
// number was allocated.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid order: " + strings.Join(e.Problems, "; ")
}

// Validate checks the required fields of an order.
func Validate(order Order) error {
	var problems []string
	if strings.TrimSpace(order.Customer.Name) == "" {
		problems = append(problems, "customer name is required")
	}
	if err := CheckPhoneShape(order.Customer.Phone.Raw); err != nil {
		problems = append(problems, err.Error())
	}
	if order.AddressRequired && strings.TrimSpace(order.Customer.Address) == "" {
		method := order.Delivery.Method
		if method == "" {
			method = "delivery"
		}
		problems = append(problems, "customer address is required for "+method)
	}
	if len(order.Items) == 0 {
		problems = append(problems, "at least one item is required")
	}
	for _, item := range order.Items {
		if item.Description == "" {
			problems = append(problems, "every item needs a description")
			break
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
