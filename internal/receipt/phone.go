package receipt

import (
	"errors"
	"strings"
)

const whatsAppBase = "https://wa.me/"

// Phone is a customer phone number as typed plus its Malaysian
// international-format digits.
type Phone struct {
	Raw        string
	Normalized string
}

// NormalizePhone strips every non-digit from raw and rewrites domestic
// numbers to the 60 country prefix. It never fails; numbers that still do
// not start with 60 are reported invalid by Valid.
func NormalizePhone(raw string) Phone {
	digits := digitsOnly(raw)
	switch {
	case strings.HasPrefix(digits, "0"):
		digits = "60" + digits[1:]
	case strings.HasPrefix(digits, "6") && !strings.HasPrefix(digits, "60"):
		digits = "60" + digits[1:]
	}
	return Phone{Raw: raw, Normalized: digits}
}

// Valid reports whether a WhatsApp contact link can be derived.
func (p Phone) Valid() bool {
	return strings.HasPrefix(p.Normalized, "60")
}

// Link returns the wa.me contact link, or "" for invalid numbers.
func (p Phone) Link() string {
	if !p.Valid() {
		return ""
	}
	return whatsAppBase + p.Normalized
}

var (
	errPhoneRequired = errors.New("customer phone is required")
	errPhoneShape    = errors.New("customer phone must be a Malaysian number such as 012-3456789 or 60123456789")
)

// CheckPhoneShape is the collector-side check run before composition.
// Accepted: a domestic number of at least 10 digits starting with 0, or an
// international one of at least 11 digits starting with 60.
func CheckPhoneShape(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errPhoneRequired
	}
	digits := digitsOnly(raw)
	if strings.HasPrefix(digits, "0") && len(digits) >= 10 {
		return nil
	}
	if strings.HasPrefix(digits, "60") && len(digits) >= 11 {
		return nil
	}
	return errPhoneShape
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
