package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"careconnect.org/internal/auth"
	"careconnect.org/internal/donations"
	"careconnect.org/internal/ids"
)

// ListRequests returns requests, optionally narrowed by donation and status.
func (c *Client) ListRequests(ctx context.Context, donationID string, status donations.RequestStatus) ([]donations.Request, error) {
	query := url.Values{}
	if donationID != "" {
		query.Set("donationId", donationID)
	}
	if status != "" {
		query.Set("status", string(status))
	}
	return attempt(ctx, c, "list_requests",
		func() ([]donations.Request, error) {
			var out []donations.Request
			err := c.doJSON(ctx, http.MethodGet, "/api/requests", query, nil, &out)
			return out, err
		},
		func() ([]donations.Request, error) {
			f := donations.RequestFilter{DonationID: donationID, Status: status}
			return c.filterRequestsLocked(f), nil
		})
}

// CreateRequest files a request against a donation on behalf of the current
// user. The local fallback also flips the referenced donation to RESERVED
// when the donation is present; the two table writes are independent, so a
// crash between them can leave the request recorded against an unreserved
// donation. Last write wins across processes.
func (c *Client) CreateRequest(ctx context.Context, in donations.NewRequest) (donations.Request, error) {
	return attempt(ctx, c, "create_request",
		func() (donations.Request, error) {
			var out donations.Request
			err := c.doJSON(ctx, http.MethodPost, "/api/requests", nil, in, &out)
			return out, err
		},
		func() (donations.Request, error) {
			sess := c.session.Current()
			if sess.Anonymous() {
				return donations.Request{}, auth.ErrUnauthorized
			}
			if err := in.Validate(); err != nil {
				return donations.Request{}, err
			}
			r := donations.Request{
				ID:                ids.New(),
				DonationID:        in.DonationID,
				RequesterID:       sess.User.ID,
				QuantityRequested: in.QuantityRequested,
				Message:           in.Message,
				Status:            donations.RequestPending,
				CreatedAt:         time.Now().UTC(),
			}
			reqs := c.local.Requests()
			c.local.SaveRequests(append([]donations.Request{r}, reqs...))

			dons := c.local.Donations()
			for i := range dons {
				if dons[i].ID == in.DonationID {
					dons[i].Status = donations.DonationReserved
					c.local.SaveDonations(dons)
					break
				}
			}
			return r, nil
		})
}

// MyRequests returns the current user's requests joined with their donations
// for display. With no session the view is empty.
func (c *Client) MyRequests(ctx context.Context) ([]donations.JoinedRequest, error) {
	return attempt(ctx, c, "my_requests",
		func() ([]donations.JoinedRequest, error) {
			var out []donations.JoinedRequest
			err := c.doJSON(ctx, http.MethodGet, "/api/requests/my", nil, nil, &out)
			return out, err
		},
		func() ([]donations.JoinedRequest, error) {
			sess := c.session.Current()
			if sess.Anonymous() {
				return nil, nil
			}
			f := donations.RequestFilter{RequesterID: sess.User.ID}
			return donations.Join(c.filterRequestsLocked(f), c.local.Donations()), nil
		})
}

// AcceptedRequests is the coordinator view of requests awaiting pickup.
func (c *Client) AcceptedRequests(ctx context.Context) ([]donations.JoinedRequest, error) {
	return attempt(ctx, c, "accepted_requests",
		func() ([]donations.JoinedRequest, error) {
			var out []donations.JoinedRequest
			err := c.doJSON(ctx, http.MethodGet, "/api/requests/accepted", nil, nil, &out)
			return out, err
		},
		func() ([]donations.JoinedRequest, error) {
			f := donations.RequestFilter{Status: donations.RequestAccepted}
			return donations.Join(c.filterRequestsLocked(f), c.local.Donations()), nil
		})
}

// UpdateRequest merges a partial update into one request. Accepting a request
// that has no pickup state yet starts pickup tracking at PENDING.
func (c *Client) UpdateRequest(ctx context.Context, id string, patch donations.RequestPatch) (donations.Request, error) {
	return attempt(ctx, c, "update_request",
		func() (donations.Request, error) {
			var out donations.Request
			err := c.doJSON(ctx, http.MethodPatch, "/api/requests/"+url.PathEscape(id), nil, patch, &out)
			return out, err
		},
		func() (donations.Request, error) {
			list := c.local.Requests()
			for i := range list {
				if list[i].ID != id {
					continue
				}
				if err := patch.Apply(&list[i]); err != nil {
					return donations.Request{}, err
				}
				if list[i].Status == donations.RequestAccepted && list[i].PickupStatus == "" {
					list[i].PickupStatus = donations.PickupPending
				}
				c.local.SaveRequests(list)
				return list[i], nil
			}
			return donations.Request{}, donations.ErrNotFound
		})
}

// filterRequestsLocked reads and filters the local request table. Callers
// hold localMu via attempt.
func (c *Client) filterRequestsLocked(f donations.RequestFilter) []donations.Request {
	var out []donations.Request
	for _, r := range c.local.Requests() {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
