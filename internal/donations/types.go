// Package donations holds the data model of the coordination system:
// donations listed by donors, requests filed against them, the derived
// availability numbers, and the Store interface the system of record
// implements.
package donations

import (
	"errors"
	"strings"
	"time"
)

// DonationStatus is the lifecycle state of a listed donation.
type DonationStatus string

const (
	DonationAvailable DonationStatus = "AVAILABLE"
	DonationReserved  DonationStatus = "RESERVED"
	DonationPickedUp  DonationStatus = "PICKED_UP"
)

func (s DonationStatus) Valid() bool {
	switch s {
	case DonationAvailable, DonationReserved, DonationPickedUp:
		return true
	}
	return false
}

// RequestStatus is the coordinator-managed state of a request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestRejected RequestStatus = "REJECTED"
	RequestPickedUp RequestStatus = "PICKED_UP"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestRejected, RequestPickedUp:
		return true
	}
	return false
}

// PickupStatus tracks pickup progress of an accepted request, separate from
// the request status itself.
type PickupStatus string

const (
	PickupPending   PickupStatus = "PENDING"
	PickupScheduled PickupStatus = "SCHEDULED"
	PickupDone      PickupStatus = "PICKED_UP"
)

func (s PickupStatus) Valid() bool {
	switch s {
	case PickupPending, PickupScheduled, PickupDone:
		return true
	}
	return false
}

// Donation is an item (or batch of items) a donor has listed. Requests holds
// the requests filed against it; ordering of that collection is irrelevant.
type Donation struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	Description string         `json:"description,omitempty"`
	Quantity    int            `json:"quantity"`
	DonorID     string         `json:"donorId"`
	Location    string         `json:"location,omitempty"`
	Status      DonationStatus `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	Requests    []Request      `json:"requests,omitempty"`
}

// Request is a claim on some quantity of a donation.
type Request struct {
	ID                string        `json:"id"`
	DonationID        string        `json:"donationId"`
	RequesterID       string        `json:"requesterId"`
	QuantityRequested int           `json:"quantityRequested"`
	Message           string        `json:"message,omitempty"`
	Status            RequestStatus `json:"status"`
	PickupStatus      PickupStatus  `json:"pickupStatus,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// NewDonation carries the caller-supplied fields of a donation to be created.
type NewDonation struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
	Location    string `json:"location,omitempty"`
}

// Validate checks the creation payload. A zero quantity defaults to 1.
func (n *NewDonation) Validate() error {
	if strings.TrimSpace(n.Title) == "" || strings.TrimSpace(n.Category) == "" {
		return ErrInvalidInput
	}
	if n.Quantity == 0 {
		n.Quantity = 1
	}
	if n.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// NewRequest carries the caller-supplied fields of a request to be created.
type NewRequest struct {
	DonationID        string `json:"donationId"`
	QuantityRequested int    `json:"quantityRequested"`
	Message           string `json:"message,omitempty"`
}

// Validate checks the creation payload. A zero quantity defaults to 1.
func (n *NewRequest) Validate() error {
	if strings.TrimSpace(n.DonationID) == "" {
		return ErrInvalidInput
	}
	if n.QuantityRequested == 0 {
		n.QuantityRequested = 1
	}
	if n.QuantityRequested < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// DonationPatch lists the fields an update may touch. Nil fields are left
// unchanged; unknown fields are rejected at the decoding layer.
type DonationPatch struct {
	Title       *string         `json:"title,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Description *string         `json:"description,omitempty"`
	Quantity    *int            `json:"quantity,omitempty"`
	Location    *string         `json:"location,omitempty"`
	Status      *DonationStatus `json:"status,omitempty"`
}

// Apply merges the patch into the donation, last write wins.
func (p DonationPatch) Apply(d *Donation) error {
	if p.Quantity != nil && *p.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Quantity != nil {
		d.Quantity = *p.Quantity
	}
	if p.Location != nil {
		d.Location = *p.Location
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	return nil
}

// RequestPatch lists the fields a request update may touch.
type RequestPatch struct {
	QuantityRequested *int           `json:"quantityRequested,omitempty"`
	Message           *string        `json:"message,omitempty"`
	Status            *RequestStatus `json:"status,omitempty"`
	PickupStatus      *PickupStatus  `json:"pickupStatus,omitempty"`
}

// Apply merges the patch into the request, last write wins.
func (p RequestPatch) Apply(r *Request) error {
	if p.QuantityRequested != nil && *p.QuantityRequested < 1 {
		return ErrInvalidQuantity
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.PickupStatus != nil && !p.PickupStatus.Valid() {
		return ErrInvalidStatus
	}
	if p.QuantityRequested != nil {
		r.QuantityRequested = *p.QuantityRequested
	}
	if p.Message != nil {
		r.Message = *p.Message
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.PickupStatus != nil {
		r.PickupStatus = *p.PickupStatus
	}
	return nil
}

// DonationFilter narrows a donation listing. Zero fields match everything.
type DonationFilter struct {
	Status  DonationStatus
	DonorID string
}

func (f DonationFilter) Matches(d Donation) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.DonorID != "" && d.DonorID != f.DonorID {
		return false
	}
	return true
}

// RequestFilter narrows a request listing. Zero fields match everything.
type RequestFilter struct {
	DonationID  string
	Status      RequestStatus
	RequesterID string
}

func (f RequestFilter) Matches(r Request) bool {
	if f.DonationID != "" && r.DonationID != f.DonationID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.RequesterID != "" && r.RequesterID != f.RequesterID {
		return false
	}
	return true
}

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidStatus   = errors.New("invalid status")
)
