package donations

// Availability is the derived, display-ready quantity state of a donation.
// It is never stored.
type Availability struct {
	TotalRequested int `json:"totalRequested"`
	Available      int `json:"available"`
}

// ComputeAvailability derives the remaining available quantity from the
// donation's embedded requests: available = max(0, quantity - sum(requested)).
// A quantity below 1 counts as 1 and a missing request collection as empty,
// so the result is defined for any input.
func ComputeAvailability(d Donation) Availability {
	quantity := d.Quantity
	if quantity < 1 {
		quantity = 1
	}
	total := 0
	for _, r := range d.Requests {
		if r.QuantityRequested > 0 {
			total += r.QuantityRequested
		}
	}
	available := quantity - total
	if available < 0 {
		available = 0
	}
	return Availability{TotalRequested: total, Available: available}
}

// RequestedBy reports whether the given user has an outstanding request on
// the donation.
func (d Donation) RequestedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, r := range d.Requests {
		if r.RequesterID == userID {
			return true
		}
	}
	return false
}
