// smoke-client drives the client façade end to end against a backend, or
// against the local fallback store when no backend is reachable.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"careconnect.org/internal/auth"
	"careconnect.org/internal/client"
	"careconnect.org/internal/donations"
	"careconnect.org/internal/localstore"
	"careconnect.org/internal/session"
)

func main() {
	baseURL := os.Getenv("CARECONNECT_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	storePath := os.Getenv("CARECONNECT_STORE_PATH")
	if storePath == "" {
		storePath = "careconnect-smoke.db"
	}

	local, err := localstore.Open(storePath)
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	defer local.Close()

	sess := session.New(local)
	c := client.New(baseURL, local, sess, client.WithFallbackDelay(200*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	authed, err := c.Login(ctx, "user@careconnect.com", auth.DemoPassword)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	fmt.Printf("logged in as %s (%s)\n", authed.User.Name, authed.User.Role)

	created, err := c.CreateDonation(ctx, donations.NewDonation{
		Title:    fmt.Sprintf("Smoke Donation %d", time.Now().Unix()),
		Category: "Other",
		Quantity: 3,
	})
	if err != nil {
		log.Fatalf("create donation: %v", err)
	}
	fmt.Printf("created donation %s\n", created.ID)

	list, err := c.ListDonations(ctx, "")
	if err != nil {
		log.Fatalf("list donations: %v", err)
	}
	if len(list) == 0 || list[0].ID != created.ID {
		log.Fatalf("new donation should list first, got %d entries", len(list))
	}

	request, err := c.CreateRequest(ctx, donations.NewRequest{
		DonationID:        created.ID,
		QuantityRequested: 1,
		Message:           "smoke run",
	})
	if err != nil {
		log.Fatalf("create request: %v", err)
	}

	got, err := c.GetDonation(ctx, created.ID)
	if err != nil {
		log.Fatalf("get donation: %v", err)
	}
	if got.Status != donations.DonationReserved {
		log.Fatalf("expected RESERVED after request, got %s", got.Status)
	}

	avail := donations.ComputeAvailability(got)
	fmt.Printf("request %s filed, %d of %d units still available\n",
		request.ID, avail.Available, got.Quantity)

	c.Logout()
	if !sess.Current().Anonymous() {
		log.Fatal("session should be anonymous after logout")
	}

	fmt.Println("smoke run passed")
}
