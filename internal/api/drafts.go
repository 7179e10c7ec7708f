package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bloomelein/m/internal/draft"
)

type draftRequest struct {
	CustomerName    string     `json:"customer_name"`
	CustomerAddress string     `json:"customer_address"`
	CustomerPhone   string     `json:"customer_phone"`
	Delivery        string     `json:"delivery"`
	DeliveryCharge  amountText `json:"delivery_charge"`
	Payment         string     `json:"payment"`
	PaymentOther    string     `json:"payment_other"`
	PIC             string     `json:"pic"`
}

func (req draftRequest) apply(d *draft.Draft) {
	d.CustomerName = req.CustomerName
	d.CustomerAddress = req.CustomerAddress
	d.CustomerPhone = req.CustomerPhone
	d.Delivery = req.Delivery
	d.DeliveryCharge = string(req.DeliveryCharge)
	d.Payment = req.Payment
	d.PaymentOther = req.PaymentOther
	d.PIC = req.PIC
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	owner := currentUsername(r)
	d := h.drafts.Create(owner, func(d *draft.Draft) {
		d.Delivery = h.profile.DefaultDelivery
		d.Payment = h.profile.DefaultPayment
		d.PIC = currentStaffName(r)
	})
	respondJSON(w, http.StatusCreated, d)
}

// loadDraft fetches the draft named in the URL. Drafts belong to the staff
// member who created them; anyone else gets a 404.
func (h *Handler) loadDraft(w http.ResponseWriter, r *http.Request) (draft.Draft, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid draft id")
		return draft.Draft{}, false
	}
	d, err := h.drafts.Get(id)
	if err != nil || d.Owner != currentUsername(r) {
		respondError(w, http.StatusNotFound, draft.ErrNotFound.Error())
		return draft.Draft{}, false
	}
	return d, true
}

func (h *Handler) showDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.drafts.Update(d.ID, func(d *draft.Draft) error {
		req.apply(d)
		return nil
	})
	if err != nil {
		respondDraftError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	if err := h.drafts.Delete(d.ID); err != nil {
		respondDraftError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) addDraftItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.drafts.Update(d.ID, func(d *draft.Draft) error {
		_, err := d.AddItem(req.Description, string(req.Price))
		return err
	})
	if err != nil {
		respondDraftError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, updated)
}

func (h *Handler) removeLastDraftItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	updated, err := h.drafts.Update(d.ID, func(d *draft.Draft) error {
		_, err := d.RemoveLast()
		return err
	})
	if err != nil {
		respondDraftError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) clearDraftItems(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	updated, err := h.drafts.Update(d.ID, func(d *draft.Draft) error {
		d.ClearItems()
		return nil
	})
	if err != nil {
		respondDraftError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) composeDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	req := orderRequest{
		CustomerName:    d.CustomerName,
		CustomerAddress: d.CustomerAddress,
		CustomerPhone:   d.CustomerPhone,
		Delivery:        d.Delivery,
		DeliveryCharge:  amountText(d.DeliveryCharge),
		Payment:         d.Payment,
		PaymentOther:    d.PaymentOther,
		PIC:             d.PIC,
	}
	for _, item := range d.Items {
		req.Items = append(req.Items, itemRequest{Description: item.Description, Price: amountText(item.Price)})
	}
	h.compose(w, r, req)
}

func respondDraftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, draft.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, draft.ErrEmptyItem), errors.Is(err, draft.ErrInvalidPrice), errors.Is(err, draft.ErrNoItemsToRemove):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "unable to update draft")
	}
}
