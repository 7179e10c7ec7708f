package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"bloomelein/m/internal/receipt"
)

//go:embed default.yaml
var defaultProfile []byte

// DeliveryOption is one selectable delivery method.
type DeliveryOption struct {
	Label           string `yaml:"label" json:"label"`
	ChargeInput     bool   `yaml:"charge_input" json:"charge_input"`
	RequiresAddress bool   `yaml:"requires_address" json:"requires_address"`
}

// PaymentMethod is one selectable payment method. FreeText methods take the
// customer-specified text instead of their name.
type PaymentMethod struct {
	Name     string `yaml:"name" json:"name"`
	Details  string `yaml:"details,omitempty" json:"details,omitempty"`
	FreeText bool   `yaml:"free_text,omitempty" json:"free_text,omitempty"`
}

// Profile is the shop configuration a receipt form offers.
type Profile struct {
	ShopName        string           `yaml:"shop_name" json:"shop_name"`
	Currency        string           `yaml:"currency" json:"currency"`
	Closing         string           `yaml:"closing" json:"closing"`
	DefaultDelivery string           `yaml:"default_delivery" json:"default_delivery"`
	DeliveryOptions []DeliveryOption `yaml:"delivery_options" json:"delivery_options"`
	PICs            []string         `yaml:"pics" json:"pics"`
	DefaultPayment  string           `yaml:"default_payment" json:"default_payment"`
	PaymentMethods  []PaymentMethod  `yaml:"payment_methods" json:"payment_methods"`
}

var (
	ErrUnknownDelivery = errors.New("unknown delivery option")
	ErrUnknownPayment  = errors.New("unknown payment method")
	ErrUnknownPIC      = errors.New("unknown person in charge")
)

// Load reads a profile from path, or the built-in profile when path is empty.
func Load(path string) (*Profile, error) {
	data := defaultProfile
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read shop profile: %w", err)
		}
		data = raw
	}
	return Parse(data)
}

// Parse decodes and checks a YAML profile.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode shop profile: %w", err)
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) check() error {
	if strings.TrimSpace(p.ShopName) == "" {
		return errors.New("shop profile: shop_name is required")
	}
	if p.Currency == "" {
		p.Currency = receipt.DefaultLayout.Currency
	}
	if p.Closing == "" {
		p.Closing = receipt.DefaultLayout.Closing
	}
	if len(p.DeliveryOptions) == 0 {
		return errors.New("shop profile: at least one delivery option is required")
	}
	if len(p.PaymentMethods) == 0 {
		return errors.New("shop profile: at least one payment method is required")
	}
	if p.DefaultDelivery == "" {
		p.DefaultDelivery = p.DeliveryOptions[0].Label
	}
	if _, ok := p.Delivery(p.DefaultDelivery); !ok {
		return fmt.Errorf("shop profile: default_delivery %q is not listed", p.DefaultDelivery)
	}
	if p.DefaultPayment == "" {
		p.DefaultPayment = p.PaymentMethods[0].Name
	}
	if _, ok := p.payment(p.DefaultPayment); !ok {
		return fmt.Errorf("shop profile: default_payment %q is not listed", p.DefaultPayment)
	}
	return nil
}

// Layout returns the receipt text frame for this shop.
func (p *Profile) Layout() receipt.Layout {
	return receipt.Layout{ShopName: p.ShopName, Currency: p.Currency, Closing: p.Closing}
}

// Delivery looks up a delivery option by label.
func (p *Profile) Delivery(label string) (DeliveryOption, bool) {
	for _, opt := range p.DeliveryOptions {
		if opt.Label == label {
			return opt, true
		}
	}
	return DeliveryOption{}, false
}

// ResolveDelivery builds the DeliverySpec for the chosen option. Options
// without a charge input are always FOC and ignore rawCharge. A returned
// *receipt.ChargeWarning still comes with a usable spec.
func (p *Profile) ResolveDelivery(label, rawCharge string) (receipt.DeliverySpec, DeliveryOption, error) {
	if label == "" {
		label = p.DefaultDelivery
	}
	opt, ok := p.Delivery(label)
	if !ok {
		return receipt.DeliverySpec{}, DeliveryOption{}, fmt.Errorf("%w: %q", ErrUnknownDelivery, label)
	}
	if !opt.ChargeInput {
		return receipt.FreeDelivery(opt.Label), opt, nil
	}
	spec, err := receipt.ParseDeliveryCharge(opt.Label, rawCharge)
	return spec, opt, err
}

func (p *Profile) payment(name string) (PaymentMethod, bool) {
	for _, m := range p.PaymentMethods {
		if m.Name == name {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

// PaymentLabel renders the payment line value for method. Free-text methods
// use other and fall back to the method name when other is blank.
func (p *Profile) PaymentLabel(method, other string) (string, error) {
	if method == "" {
		method = p.DefaultPayment
	}
	m, ok := p.payment(method)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPayment, method)
	}
	switch {
	case m.FreeText && strings.TrimSpace(other) != "":
		return strings.TrimSpace(other), nil
	case m.Details != "":
		return m.Name + " (" + m.Details + ")", nil
	default:
		return m.Name, nil
	}
}

// CheckPIC confirms name is a listed person in charge. An empty PIC list
// accepts any name.
func (p *Profile) CheckPIC(name string) error {
	if len(p.PICs) == 0 {
		return nil
	}
	for _, pic := range p.PICs {
		if strings.EqualFold(pic, name) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPIC, name)
}
