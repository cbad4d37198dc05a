package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careconnect.org/internal/auth"
	"careconnect.org/internal/donations"
	"careconnect.org/internal/localstore"
	"careconnect.org/internal/session"
)

type fixture struct {
	client  *Client
	local   *localstore.Store
	session *session.Store
}

// newFixture wires a client against handler. A nil handler yields a dead
// backend: the server is closed immediately so every call fails at the
// transport.
func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()
	local, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	sess := session.New(local)

	var srv *httptest.Server
	if handler == nil {
		srv = httptest.NewServer(http.NotFoundHandler())
		srv.Close()
	} else {
		srv = httptest.NewServer(handler)
		t.Cleanup(srv.Close)
	}

	return &fixture{
		client:  New(srv.URL, local, sess),
		local:   local,
		session: sess,
	}
}

func (f *fixture) signIn(id string, role auth.Role) {
	f.session.Establish("tok-"+id, auth.User{ID: id, Email: id + "@x.test", Name: "U" + id, Role: role})
}

func errorWith(status int, msg string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if msg != "" {
			w.Write([]byte(`{"error":` + `"` + msg + `"}`))
		}
	})
}

func TestClassification(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"no response", &transportError{err: errors.New("dial tcp: refused")}, true},
		{"404", &statusError{status: 404, message: genericMessage}, true},
		{"500", &statusError{status: 500, message: genericMessage}, true},
		{"503", &statusError{status: 503, message: genericMessage}, true},
		{"400", &statusError{status: 400, message: "bad"}, false},
		{"401", &statusError{status: 401, message: "no"}, false},
		{"403", &statusError{status: 403, message: "no"}, false},
		{"422", &statusError{status: 422, message: "bad"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.unavailable, unavailable(tc.err))
		})
	}
}

func TestTransportErrorNeverLeaksRawString(t *testing.T) {
	err := &transportError{err: errors.New("read tcp 10.0.0.1:443: connection reset by peer")}
	assert.Equal(t, genericMessage, err.Error())
}

func TestCreateDonationFallsBackOn503(t *testing.T) {
	f := newFixture(t, errorWith(http.StatusServiceUnavailable, ""))
	f.signIn("1", auth.RoleUser)
	ctx := context.Background()

	created, err := f.client.CreateDonation(ctx, donations.NewDonation{
		Title: "Blankets", Category: "Other", Quantity: 3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, donations.DonationAvailable, created.Status)
	assert.Equal(t, "1", created.DonorID)

	list, err := f.client.ListDonations(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, created.ID, list[0].ID, "new record lists first")
}

func TestListDonationsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a, err := f.client.ListDonations(ctx, "")
	require.NoError(t, err)
	b, err := f.client.ListDonations(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestApplicationErrorPropagatesVerbatim(t *testing.T) {
	f := newFixture(t, errorWith(http.StatusBadRequest, "quantity must be at least 1"))
	ctx := context.Background()

	stored := f.local.Requests()

	_, err := f.client.CreateRequest(ctx, donations.NewRequest{DonationID: "1"})
	require.Error(t, err)
	assert.Equal(t, "quantity must be at least 1", err.Error())
	assert.Equal(t, http.StatusBadRequest, Status(err))
	assert.Equal(t, stored, f.local.Requests(), "a rejected call must not write locally")
}

func TestUnauthorizedClearsSession(t *testing.T) {
	f := newFixture(t, errorWith(http.StatusUnauthorized, "invalid token"))
	f.signIn("1", auth.RoleUser)

	_, err := f.client.MyDonations(context.Background())
	require.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
	assert.True(t, f.session.Current().Anonymous(), "401 forces a logout")
}

func TestCreateRequestReservesDonation(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn("2", auth.RoleUser)
	ctx := context.Background()

	// Seeded donation "1" has quantity 2 and no requests of ours.
	created, err := f.client.CreateRequest(ctx, donations.NewRequest{
		DonationID: "1", QuantityRequested: 1, Message: "please",
	})
	require.NoError(t, err)
	assert.Equal(t, donations.RequestPending, created.Status)
	assert.Equal(t, 1, created.QuantityRequested)

	got, err := f.client.GetDonation(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, donations.DonationReserved, got.Status)

	reqs := f.local.Requests()
	require.NotEmpty(t, reqs)
	assert.Equal(t, created.ID, reqs[0].ID, "new request lists first")
}

func TestCreateRequestDefaultsQuantity(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn("2", auth.RoleUser)

	created, err := f.client.CreateRequest(context.Background(), donations.NewRequest{DonationID: "2"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.QuantityRequested)
}

func TestMyRequestsJoinsPlaceholderForDangling(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn("2", auth.RoleUser)
	ctx := context.Background()

	_, err := f.client.CreateRequest(ctx, donations.NewRequest{DonationID: "no-such"})
	require.NoError(t, err)

	joined, err := f.client.MyRequests(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, joined)
	assert.Equal(t, "Unknown", joined[0].Donation.Title)
	assert.Equal(t, "-", joined[0].Donation.Category)
}

func TestUpdateRequestAcceptStartsPickup(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn("3", auth.RoleCoordinator)
	ctx := context.Background()

	status := donations.RequestAccepted
	updated, err := f.client.UpdateRequest(ctx, "1", donations.RequestPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, donations.RequestAccepted, updated.Status)
	assert.Equal(t, donations.PickupPending, updated.PickupStatus)

	accepted, err := f.client.AcceptedRequests(ctx)
	require.NoError(t, err)
	found := false
	for _, r := range accepted {
		if r.ID == "1" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestUpdateDonationNotFound(t *testing.T) {
	f := newFixture(t, nil)
	title := "x"
	_, err := f.client.UpdateDonation(context.Background(), "no-such", donations.DonationPatch{Title: &title})
	assert.ErrorIs(t, err, donations.ErrNotFound)
}

func TestLoginFallbackDemoAccounts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	got, err := f.client.Login(ctx, "admin@careconnect.com", auth.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, got.User.Role)
	assert.Equal(t, "local-2", got.Token)
	assert.Equal(t, got.Token, f.session.Current().Token, "session established")
}

func TestLoginFallbackSynthesizesUser(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.client.Login(context.Background(), "casey@example.org", "whatever")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, got.User.Role)
	assert.Equal(t, "casey", got.User.Name)
	assert.NotEmpty(t, got.User.ID)
	assert.Equal(t, "local-"+got.User.ID, got.Token)
}

func TestSignupFallback(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.client.Signup(context.Background(), SignupParams{
		Name: "Casey", Email: "casey@example.org", Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "Casey", got.User.Name)
	assert.Equal(t, auth.RoleUser, got.User.Role)
	assert.False(t, f.session.Current().Anonymous())
}

func TestCurrentUserFallsBackToSession(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn("7", auth.RoleUser)

	u, err := f.client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7", u.ID)

	f.client.Logout()
	_, err = f.client.CurrentUser(context.Background())
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestRemoteSuccessIsAuthoritative(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"srv-1","title":"From Server","category":"Food","quantity":4,"donorId":"9","status":"AVAILABLE"}]`))
	})
	f := newFixture(t, handler)

	list, err := f.client.ListDonations(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "srv-1", list[0].ID)
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})
	f := newFixture(t, handler)
	f.signIn("1", auth.RoleUser)

	_, err := f.client.ListDonations(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestAnonymousSessionScopesFallbacks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// The seeded tables are not empty, so an unscoped filter would show here.
	all, err := f.client.ListDonations(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, all)

	mine, err := f.client.MyDonations(ctx)
	require.NoError(t, err)
	assert.Empty(t, mine, "no session means no listings of mine")

	reqs, err := f.client.MyRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, reqs, "no session means no requests of mine")

	_, err = f.client.CreateDonation(ctx, donations.NewDonation{
		Title: "Blankets", Category: "Other", Quantity: 1,
	})
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = f.client.CreateRequest(ctx, donations.NewRequest{DonationID: "1"})
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	before := len(f.local.Requests())
	f.signIn("2", auth.RoleUser)
	created, err := f.client.CreateRequest(ctx, donations.NewRequest{DonationID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "2", created.RequesterID)
	assert.Len(t, f.local.Requests(), before+1)
}
