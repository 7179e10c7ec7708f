package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"bloomelein/m/internal/catalog"
	"bloomelein/m/internal/receipt"
)

// amountText accepts a JSON number or string and keeps it as entered, so an
// unparsable price can still be echoed on the receipt.
type amountText string

func (a *amountText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountText(s)
		return nil
	}
	*a = amountText(data)
	return nil
}

type itemRequest struct {
	Description string     `json:"description"`
	Price       amountText `json:"price"`
}

type orderRequest struct {
	CustomerName    string        `json:"customer_name"`
	CustomerAddress string        `json:"customer_address"`
	CustomerPhone   string        `json:"customer_phone"`
	Items           []itemRequest `json:"items"`
	Delivery        string        `json:"delivery"`
	DeliveryCharge  amountText    `json:"delivery_charge"`
	Payment         string        `json:"payment"`
	PaymentOther    string        `json:"payment_other"`
	PIC             string        `json:"pic"`
}

type totalsResponse struct {
	Subtotal string `json:"subtotal"`
	Delivery string `json:"delivery"`
	Total    string `json:"total"`
}

type receiptResponse struct {
	ReceiptNo string         `json:"receipt_no"`
	Text      string         `json:"text"`
	Totals    totalsResponse `json:"totals"`
	IssuedAt  time.Time      `json:"issued_at"`
	Warnings  []string       `json:"warnings"`
}

// buildOrder resolves an order request against the shop profile. Warnings
// describe inputs that were corrected rather than rejected.
func buildOrder(profile *catalog.Profile, req orderRequest, staffName string) (receipt.Order, []string, error) {
	warnings := []string{}

	delivery, option, err := profile.ResolveDelivery(req.Delivery, string(req.DeliveryCharge))
	var chargeWarning *receipt.ChargeWarning
	switch {
	case errors.As(err, &chargeWarning):
		warnings = append(warnings, chargeWarning.Error())
	case err != nil:
		return receipt.Order{}, nil, err
	}

	payment, err := profile.PaymentLabel(req.Payment, req.PaymentOther)
	if err != nil {
		return receipt.Order{}, nil, err
	}

	pic := strings.TrimSpace(req.PIC)
	if pic == "" {
		pic = staffName
	} else if err := profile.CheckPIC(pic); err != nil {
		return receipt.Order{}, nil, err
	}

	items := make([]receipt.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		line := receipt.NewLineItem(item.Description, string(item.Price))
		if !line.Valid {
			warnings = append(warnings, "invalid price for "+line.Description+", excluded from total")
		}
		items = append(items, line)
	}

	order := receipt.Order{
		Customer: receipt.Customer{
			Name:    strings.TrimSpace(req.CustomerName),
			Address: strings.TrimSpace(req.CustomerAddress),
			Phone:   receipt.NormalizePhone(strings.TrimSpace(req.CustomerPhone)),
		},
		Items:           items,
		Delivery:        delivery,
		AddressRequired: option.RequiresAddress,
		Payment:         payment,
		PIC:             pic,
	}
	return order, warnings, nil
}

func (h *Handler) createReceipt(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.compose(w, r, req)
}

func (h *Handler) compose(w http.ResponseWriter, r *http.Request, req orderRequest) {
	order, warnings, err := buildOrder(h.profile, req, currentStaffName(r))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.composer.Compose(r.Context(), order, h.now())
	var verr *receipt.ValidationError
	if errors.As(err, &verr) {
		respondValidation(w, verr)
		return
	}
	if err != nil {
		log.Printf("compose receipt: %v", err)
		respondError(w, http.StatusInternalServerError, "unable to compose receipt")
		return
	}

	respondJSON(w, http.StatusCreated, receiptResponse{
		ReceiptNo: rec.Number,
		Text:      rec.Text,
		Totals: totalsResponse{
			Subtotal: rec.Totals.Subtotal.StringFixed(2),
			Delivery: rec.Totals.Delivery.StringFixed(2),
			Total:    rec.Totals.Total.StringFixed(2),
		},
		IssuedAt: rec.IssuedAt,
		Warnings: warnings,
	})
}
