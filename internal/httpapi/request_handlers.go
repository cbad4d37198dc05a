package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"careconnect.org/internal/audit"
	"careconnect.org/internal/auth"
	"careconnect.org/internal/donations"
)

func (a *API) listRequests(w http.ResponseWriter, r *http.Request) {
	filter := donations.RequestFilter{
		DonationID: strings.TrimSpace(r.URL.Query().Get("donationId")),
	}
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" {
		status := donations.RequestStatus(s)
		if !status.Valid() {
			writeError(w, r, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}

	list, err := a.store.ListRequests(r.Context(), filter)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if list == nil {
		list = []donations.Request{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createRequest(w http.ResponseWriter, r *http.Request) {
	var req donations.NewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	principal, _ := auth.PrincipalFromContext(r.Context())
	created, err := a.store.CreateRequest(r.Context(), principal.UserID, req)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "request.create",
		zap.String("request_id", created.ID), zap.String("donation_id", created.DonationID))

	w.Header().Set("Location", "/api/requests/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// myRequests returns the caller's requests joined with their donations for
// display.
func (a *API) myRequests(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	a.joinedRequests(w, r, donations.RequestFilter{RequesterID: principal.UserID})
}

// acceptedRequests is the coordinator pickup queue.
func (a *API) acceptedRequests(w http.ResponseWriter, r *http.Request) {
	a.joinedRequests(w, r, donations.RequestFilter{Status: donations.RequestAccepted})
}

func (a *API) joinedRequests(w http.ResponseWriter, r *http.Request, filter donations.RequestFilter) {
	reqs, err := a.store.ListRequests(r.Context(), filter)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	dons, err := a.store.ListDonations(r.Context(), donations.DonationFilter{})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	joined := donations.Join(reqs, dons)
	if joined == nil {
		joined = []donations.JoinedRequest{}
	}
	writeJSON(w, http.StatusOK, joined)
}

func (a *API) updateRequest(w http.ResponseWriter, r *http.Request) {
	var patch donations.RequestPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := a.store.UpdateRequest(r.Context(), pathID(r), patch)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "request.update",
		zap.String("request_id", updated.ID), zap.String("status", string(updated.Status)))
	writeJSON(w, http.StatusOK, updated)
}
