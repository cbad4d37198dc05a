package donations

import "testing"

func TestComputeAvailability(t *testing.T) {
	cases := []struct {
		name          string
		donation      Donation
		wantRequested int
		wantAvailable int
	}{
		{
			name:          "no requests",
			donation:      Donation{Quantity: 5},
			wantRequested: 0,
			wantAvailable: 5,
		},
		{
			name: "partially requested",
			donation: Donation{Quantity: 5, Requests: []Request{
				{QuantityRequested: 2},
				{QuantityRequested: 1},
			}},
			wantRequested: 3,
			wantAvailable: 2,
		},
		{
			name: "over-requested clamps to zero",
			donation: Donation{Quantity: 2, Requests: []Request{
				{QuantityRequested: 3},
			}},
			wantRequested: 3,
			wantAvailable: 0,
		},
		{
			name:          "missing quantity defaults to one",
			donation:      Donation{},
			wantRequested: 0,
			wantAvailable: 1,
		},
		{
			name: "non-positive requested quantities ignored",
			donation: Donation{Quantity: 4, Requests: []Request{
				{QuantityRequested: -2},
				{QuantityRequested: 1},
			}},
			wantRequested: 1,
			wantAvailable: 3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeAvailability(tc.donation)
			if got.TotalRequested != tc.wantRequested {
				t.Fatalf("TotalRequested = %d, want %d", got.TotalRequested, tc.wantRequested)
			}
			if got.Available != tc.wantAvailable {
				t.Fatalf("Available = %d, want %d", got.Available, tc.wantAvailable)
			}
			if got.Available < 0 {
				t.Fatalf("Available must never be negative, got %d", got.Available)
			}
		})
	}
}

func TestRequestedBy(t *testing.T) {
	d := Donation{Requests: []Request{
		{RequesterID: "7"},
		{RequesterID: "9"},
	}}
	if !d.RequestedBy("7") {
		t.Fatal("expected user 7 to have an outstanding request")
	}
	if d.RequestedBy("8") {
		t.Fatal("user 8 has no request")
	}
	if d.RequestedBy("") {
		t.Fatal("empty user id never matches")
	}
}

func TestJoinUsesPlaceholderForDanglingReference(t *testing.T) {
	dons := []Donation{{ID: "1", Title: "Rice & Lentils", Category: "Food"}}
	reqs := []Request{
		{ID: "a", DonationID: "1"},
		{ID: "b", DonationID: "missing"},
	}
	joined := Join(reqs, dons)
	if len(joined) != 2 {
		t.Fatalf("expected 2 joined requests, got %d", len(joined))
	}
	if joined[0].Donation.Title != "Rice & Lentils" {
		t.Fatalf("unexpected join: %+v", joined[0].Donation)
	}
	if joined[1].Donation.Title != "Unknown" || joined[1].Donation.Category != "-" {
		t.Fatalf("expected placeholder, got %+v", joined[1].Donation)
	}
}
