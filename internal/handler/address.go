package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/ovenfresh/bakery-api/internal/domain/address"
)

type addressPayload struct {
	Name       string `json:"name"`
	HouseNo    string `json:"houseNo"`
	StreetMark string `json:"streetMark"`
	Place      string `json:"place"`
	State      string `json:"state"`
	Pincode    string `json:"pincode"`
	Phone      string `json:"phone"`
}

func (p addressPayload) validate() string {
	switch {
	case p.Name == "":
		return "name is required"
	case p.HouseNo == "":
		return "houseNo is required"
	case p.Place == "":
		return "place is required"
	case p.State == "":
		return "state is required"
	case p.Pincode == "":
		return "pincode is required"
	case p.Phone == "":
		return "phone is required"
	}
	return ""
}

type addressResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	HouseNo    string    `json:"houseNo"`
	StreetMark string    `json:"streetMark,omitempty"`
	Place      string    `json:"place"`
	State      string    `json:"state"`
	Pincode    string    `json:"pincode"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toAddressResponse(a address.Address) addressResponse {
	return addressResponse{
		ID:         a.ID,
		Name:       a.Name,
		HouseNo:    a.HouseNo,
		StreetMark: a.StreetMark,
		Place:      a.Place,
		State:      a.State,
		Pincode:    a.Pincode,
		Phone:      a.Phone,
		CreatedAt:  a.CreatedAt,
	}
}

// ListAddresses returns the user's saved delivery addresses.
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.addresses.ListByUser(r.Context(), userID(r))
	if err != nil {
		internalError(w, r, err)
		return
	}
	out := make([]addressResponse, len(addrs))
	for i, a := range addrs {
		out[i] = toAddressResponse(a)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateAddress saves a new delivery address for the user.
func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var req addressPayload
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	a := &address.Address{
		UserID:     userID(r),
		Name:       req.Name,
		HouseNo:    req.HouseNo,
		StreetMark: req.StreetMark,
		Place:      req.Place,
		State:      req.State,
		Pincode:    req.Pincode,
		Phone:      req.Phone,
	}
	if err := h.addresses.Create(r.Context(), a); err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAddressResponse(*a))
}

// UpdateAddress rewrites one of the user's addresses. Orders reference
// addresses by id, so edits show up in past order views too.
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var req addressPayload
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	a := &address.Address{
		ID:         r.PathValue("id"),
		UserID:     userID(r),
		Name:       req.Name,
		HouseNo:    req.HouseNo,
		StreetMark: req.StreetMark,
		Place:      req.Place,
		State:      req.State,
		Pincode:    req.Pincode,
		Phone:      req.Phone,
	}
	if err := h.addresses.Update(r.Context(), a); err != nil {
		if errors.Is(err, address.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Address not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Address updated"})
}

// DeleteAddress removes one of the user's addresses.
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.addresses.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		if errors.Is(err, address.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Address not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Address deleted"})
}
