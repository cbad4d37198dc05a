package donations

import "time"

// DemoDonations returns the built-in sample listings used to seed demo
// deployments and the client-side local store on first touch.
func DemoDonations() []Donation {
	return []Donation{
		{
			ID:          "1",
			Title:       "Rice & Lentils",
			Category:    "Food",
			Description: "Unopened bags",
			Quantity:    2,
			DonorID:     "1",
			Status:      DonationAvailable,
			CreatedAt:   time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:          "2",
			Title:       "Winter Jackets",
			Category:    "Clothes",
			Description: "Adult sizes",
			Quantity:    5,
			DonorID:     "1",
			Status:      DonationAvailable,
			CreatedAt:   time.Date(2025, 2, 19, 14, 0, 0, 0, time.UTC),
		},
		{
			ID:          "3",
			Title:       "Canned Goods",
			Category:    "Food",
			Description: "Various cans",
			Quantity:    10,
			DonorID:     "2",
			Status:      DonationReserved,
			CreatedAt:   time.Date(2025, 2, 18, 9, 0, 0, 0, time.UTC),
		},
	}
}

// DemoRequests returns the sample requests matching DemoDonations.
func DemoRequests() []Request {
	return []Request{
		{
			ID:                "1",
			DonationID:        "1",
			RequesterID:       "2",
			QuantityRequested: 1,
			Message:           "Need for family",
			Status:            RequestPending,
			CreatedAt:         time.Date(2025, 2, 20, 11, 0, 0, 0, time.UTC),
		},
		{
			ID:                "2",
			DonationID:        "3",
			RequesterID:       "1",
			QuantityRequested: 1,
			Message:           "Shelter need",
			Status:            RequestAccepted,
			CreatedAt:         time.Date(2025, 2, 19, 12, 0, 0, 0, time.UTC),
		},
	}
}
