package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"careconnect.org/internal/audit"
	"careconnect.org/internal/auth"
	"careconnect.org/internal/donations"
)

func (a *API) listDonations(w http.ResponseWriter, r *http.Request) {
	filter := donations.DonationFilter{}
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" {
		status := donations.DonationStatus(s)
		if !status.Valid() {
			writeError(w, r, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}

	list, err := a.store.ListDonations(r.Context(), filter)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if list == nil {
		list = []donations.Donation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) myDonations(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	list, err := a.store.ListDonations(r.Context(), donations.DonationFilter{DonorID: principal.UserID})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if list == nil {
		list = []donations.Donation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) getDonation(w http.ResponseWriter, r *http.Request) {
	d, err := a.store.GetDonation(r.Context(), pathID(r))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) createDonation(w http.ResponseWriter, r *http.Request) {
	var req donations.NewDonation
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	principal, _ := auth.PrincipalFromContext(r.Context())
	d, err := a.store.CreateDonation(r.Context(), principal.UserID, req)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "donation.create",
		zap.String("donation_id", d.ID), zap.String("category", d.Category))

	w.Header().Set("Location", "/api/donations/"+d.ID)
	writeJSON(w, http.StatusCreated, d)
}

// updateDonation merges a partial update. Only the owning donor or a
// coordinator may touch a donation.
func (a *API) updateDonation(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	existing, err := a.store.GetDonation(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	principal, _ := auth.PrincipalFromContext(r.Context())
	if existing.DonorID != principal.UserID && !principal.Role.AtLeast(auth.RoleCoordinator) {
		writeError(w, r, http.StatusForbidden, "not your donation")
		return
	}

	var patch donations.DonationPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	d, err := a.store.UpdateDonation(r.Context(), id, patch)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "donation.update", zap.String("donation_id", d.ID))
	writeJSON(w, http.StatusOK, d)
}
