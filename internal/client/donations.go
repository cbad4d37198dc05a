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

// ListDonations returns donations, optionally narrowed by status. The
// stored order is newest first, since creation prepends.
func (c *Client) ListDonations(ctx context.Context, status donations.DonationStatus) ([]donations.Donation, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}
	return attempt(ctx, c, "list_donations",
		func() ([]donations.Donation, error) {
			var out []donations.Donation
			err := c.doJSON(ctx, http.MethodGet, "/api/donations", query, nil, &out)
			return out, err
		},
		func() ([]donations.Donation, error) {
			return c.filterDonationsLocked(donations.DonationFilter{Status: status}), nil
		})
}

// MyDonations returns the current user's listings. With no session the view
// is empty rather than everyone's listings.
func (c *Client) MyDonations(ctx context.Context) ([]donations.Donation, error) {
	return attempt(ctx, c, "my_donations",
		func() ([]donations.Donation, error) {
			var out []donations.Donation
			err := c.doJSON(ctx, http.MethodGet, "/api/donations/my", nil, nil, &out)
			return out, err
		},
		func() ([]donations.Donation, error) {
			sess := c.session.Current()
			if sess.Anonymous() {
				return nil, nil
			}
			return c.filterDonationsLocked(donations.DonationFilter{DonorID: sess.User.ID}), nil
		})
}

// GetDonation returns one donation with its requests attached.
func (c *Client) GetDonation(ctx context.Context, id string) (donations.Donation, error) {
	return attempt(ctx, c, "get_donation",
		func() (donations.Donation, error) {
			var out donations.Donation
			err := c.doJSON(ctx, http.MethodGet, "/api/donations/"+url.PathEscape(id), nil, nil, &out)
			return out, err
		},
		func() (donations.Donation, error) {
			for _, d := range c.local.Donations() {
				if d.ID == id {
					return c.attachRequestsLocked(d), nil
				}
			}
			return donations.Donation{}, donations.ErrNotFound
		})
}

// CreateDonation lists a new donation owned by the current user. The local
// fallback mints a time-ordered identifier and prepends the record so
// listings stay newest first.
func (c *Client) CreateDonation(ctx context.Context, in donations.NewDonation) (donations.Donation, error) {
	return attempt(ctx, c, "create_donation",
		func() (donations.Donation, error) {
			var out donations.Donation
			err := c.doJSON(ctx, http.MethodPost, "/api/donations", nil, in, &out)
			return out, err
		},
		func() (donations.Donation, error) {
			sess := c.session.Current()
			if sess.Anonymous() {
				return donations.Donation{}, auth.ErrUnauthorized
			}
			if err := in.Validate(); err != nil {
				return donations.Donation{}, err
			}
			d := donations.Donation{
				ID:          ids.New(),
				Title:       in.Title,
				Category:    in.Category,
				Description: in.Description,
				Quantity:    in.Quantity,
				Location:    in.Location,
				DonorID:     sess.User.ID,
				Status:      donations.DonationAvailable,
				CreatedAt:   time.Now().UTC(),
			}
			list := c.local.Donations()
			c.local.SaveDonations(append([]donations.Donation{d}, list...))
			return d, nil
		})
}

// UpdateDonation merges a partial update into one donation, last write wins.
func (c *Client) UpdateDonation(ctx context.Context, id string, patch donations.DonationPatch) (donations.Donation, error) {
	return attempt(ctx, c, "update_donation",
		func() (donations.Donation, error) {
			var out donations.Donation
			err := c.doJSON(ctx, http.MethodPatch, "/api/donations/"+url.PathEscape(id), nil, patch, &out)
			return out, err
		},
		func() (donations.Donation, error) {
			list := c.local.Donations()
			for i := range list {
				if list[i].ID != id {
					continue
				}
				if err := patch.Apply(&list[i]); err != nil {
					return donations.Donation{}, err
				}
				c.local.SaveDonations(list)
				return list[i], nil
			}
			return donations.Donation{}, donations.ErrNotFound
		})
}

// filterDonationsLocked reads and filters the local donation table. Callers
// hold localMu via attempt.
func (c *Client) filterDonationsLocked(f donations.DonationFilter) []donations.Donation {
	var out []donations.Donation
	for _, d := range c.local.Donations() {
		if f.Matches(d) {
			out = append(out, c.attachRequestsLocked(d))
		}
	}
	return out
}

// attachRequestsLocked embeds the requests filed against d, mirroring the
// shape the server returns.
func (c *Client) attachRequestsLocked(d donations.Donation) donations.Donation {
	d.Requests = nil
	for _, r := range c.local.Requests() {
		if r.DonationID == d.ID {
			d.Requests = append(d.Requests, r)
		}
	}
	return d
}
