package donations

import (
	"context"
	"sync"
	"time"

	"careconnect.org/internal/ids"
)

// Store defines the operations of the system of record. The HTTP API serves
// it; PostgreSQL and the in-memory implementation back it.
type Store interface {
	ListDonations(ctx context.Context, f DonationFilter) ([]Donation, error)
	CreateDonation(ctx context.Context, donorID string, in NewDonation) (Donation, error)
	GetDonation(ctx context.Context, id string) (Donation, error)
	UpdateDonation(ctx context.Context, id string, p DonationPatch) (Donation, error)
	ListRequests(ctx context.Context, f RequestFilter) ([]Request, error)
	CreateRequest(ctx context.Context, requesterID string, in NewRequest) (Request, error)
	UpdateRequest(ctx context.Context, id string, p RequestPatch) (Request, error)
}

// InMemory implements Store with in-process concurrency safety. Listings are
// newest-first: creation prepends.
type InMemory struct {
	mu        sync.RWMutex
	donations []Donation
	requests  []Request
	now       func() time.Time
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{now: func() time.Time { return time.Now().UTC() }}
}

// SeedDemoData loads the built-in sample dataset. Intended for demo runs and
// tests; no-op when the store already has donations.
func (s *InMemory) SeedDemoData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.donations) > 0 {
		return
	}
	s.donations = DemoDonations()
	s.requests = DemoRequests()
}

func (s *InMemory) ListDonations(ctx context.Context, f DonationFilter) ([]Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Donation
	for _, d := range s.donations {
		if f.Matches(d) {
			out = append(out, s.withRequests(d))
		}
	}
	return out, nil
}

func (s *InMemory) CreateDonation(ctx context.Context, donorID string, in NewDonation) (Donation, error) {
	if donorID == "" {
		return Donation{}, ErrInvalidInput
	}
	if err := in.Validate(); err != nil {
		return Donation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := Donation{
		ID:          ids.New(),
		Title:       in.Title,
		Category:    in.Category,
		Description: in.Description,
		Quantity:    in.Quantity,
		Location:    in.Location,
		DonorID:     donorID,
		Status:      DonationAvailable,
		CreatedAt:   s.now(),
	}
	s.donations = append([]Donation{d}, s.donations...)
	return d, nil
}

func (s *InMemory) GetDonation(ctx context.Context, id string) (Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.donations {
		if d.ID == id {
			return s.withRequests(d), nil
		}
	}
	return Donation{}, ErrNotFound
}

func (s *InMemory) UpdateDonation(ctx context.Context, id string, p DonationPatch) (Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.donations {
		if s.donations[i].ID != id {
			continue
		}
		if err := p.Apply(&s.donations[i]); err != nil {
			return Donation{}, err
		}
		return s.withRequests(s.donations[i]), nil
	}
	return Donation{}, ErrNotFound
}

func (s *InMemory) ListRequests(ctx context.Context, f RequestFilter) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Request
	for _, r := range s.requests {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// CreateRequest records the request and marks the referenced donation
// RESERVED. The flip happens on any request regardless of remaining quantity;
// availability stays a derived number (see ComputeAvailability). Both writes
// happen under one lock.
func (s *InMemory) CreateRequest(ctx context.Context, requesterID string, in NewRequest) (Request, error) {
	if requesterID == "" {
		return Request{}, ErrInvalidInput
	}
	if err := in.Validate(); err != nil {
		return Request{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	donation := -1
	for i := range s.donations {
		if s.donations[i].ID == in.DonationID {
			donation = i
			break
		}
	}
	if donation < 0 {
		return Request{}, ErrNotFound
	}

	r := Request{
		ID:                ids.New(),
		DonationID:        in.DonationID,
		RequesterID:       requesterID,
		QuantityRequested: in.QuantityRequested,
		Message:           in.Message,
		Status:            RequestPending,
		CreatedAt:         s.now(),
	}
	s.requests = append([]Request{r}, s.requests...)
	s.donations[donation].Status = DonationReserved
	return r, nil
}

func (s *InMemory) UpdateRequest(ctx context.Context, id string, p RequestPatch) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.requests {
		if s.requests[i].ID != id {
			continue
		}
		if err := p.Apply(&s.requests[i]); err != nil {
			return Request{}, err
		}
		if s.requests[i].Status == RequestAccepted && s.requests[i].PickupStatus == "" {
			s.requests[i].PickupStatus = PickupPending
		}
		return s.requests[i], nil
	}
	return Request{}, ErrNotFound
}

// withRequests returns a copy of the donation with its request collection
// attached. Callers must hold at least the read lock.
func (s *InMemory) withRequests(d Donation) Donation {
	out := d
	out.Requests = nil
	for _, r := range s.requests {
		if r.DonationID == d.ID {
			out.Requests = append(out.Requests, r)
		}
	}
	return out
}
