package donations

// DonationRef is the slice of a donation that travels with a joined request
// for display.
type DonationRef struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// JoinedRequest is a request paired with its referenced donation.
type JoinedRequest struct {
	Request
	Donation DonationRef `json:"donation"`
}

// Join pairs each request with its donation. A dangling reference joins
// against a fixed placeholder instead of failing the whole listing.
func Join(reqs []Request, dons []Donation) []JoinedRequest {
	byID := make(map[string]Donation, len(dons))
	for _, d := range dons {
		byID[d.ID] = d
	}
	out := make([]JoinedRequest, 0, len(reqs))
	for _, r := range reqs {
		ref := DonationRef{Title: "Unknown", Category: "-"}
		if d, ok := byID[r.DonationID]; ok {
			ref = DonationRef{ID: d.ID, Title: d.Title, Category: d.Category}
		}
		out = append(out, JoinedRequest{Request: r, Donation: ref})
	}
	return out
}
