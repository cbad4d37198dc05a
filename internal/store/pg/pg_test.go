package pg

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"careconnect.org/internal/auth"
	"careconnect.org/internal/donations"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func donationRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "category", "description", "quantity", "donor_id", "location", "status", "created_at"})
	for _, id := range ids {
		rows.AddRow(id, "Rice", "Food", "", 2, "1", "", "AVAILABLE", time.Now().UTC())
	}
	return rows
}

func emptyRequestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "donation_id", "requester_id", "quantity_requested", "message", "status", "pickup_status", "created_at"})
}

func TestListDonationsFiltersByStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select .* from donations where status=\\$1 order by created_at desc").
		WithArgs("AVAILABLE").
		WillReturnRows(donationRows("d-1"))
	mock.ExpectQuery("select .* from requests order by created_at desc").
		WillReturnRows(emptyRequestRows())

	list, err := store.ListDonations(context.Background(), donations.DonationFilter{Status: donations.DonationAvailable})
	if err != nil {
		t.Fatalf("ListDonations: %v", err)
	}
	if len(list) != 1 || list[0].ID != "d-1" {
		t.Fatalf("unexpected listing: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetDonationNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select .* from donations where id=\\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetDonation(context.Background(), "missing")
	if err != donations.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRequestIsTransactional(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select 1 from donations where id=\\$1 for update").
		WithArgs("d-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec("insert into requests").
		WithArgs(sqlmock.AnyArg(), "d-1", "u-2", 1, "please", "PENDING", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("update donations set status=\\$2 where id=\\$1").
		WithArgs("d-1", "RESERVED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r, err := store.CreateRequest(context.Background(), "u-2", donations.NewRequest{
		DonationID: "d-1", QuantityRequested: 1, Message: "please",
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if r.Status != donations.RequestPending {
		t.Fatalf("unexpected status: %s", r.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateRequestRollsBackOnMissingDonation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select 1 from donations where id=\\$1 for update").
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.CreateRequest(context.Background(), "u-2", donations.NewRequest{DonationID: "gone"})
	if err != donations.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateRequestStartsPickupOnAccept(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select .* from requests where id=\\$1 for update").
		WithArgs("r-1").
		WillReturnRows(emptyRequestRows().
			AddRow("r-1", "d-1", "u-2", 1, "", "PENDING", "", time.Now().UTC()))
	mock.ExpectExec("update requests").
		WithArgs("r-1", 1, "", "ACCEPTED", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status := donations.RequestAccepted
	r, err := store.UpdateRequest(context.Background(), "r-1", donations.RequestPatch{Status: &status})
	if err != nil {
		t.Fatalf("UpdateRequest: %v", err)
	}
	if r.PickupStatus != donations.PickupPending {
		t.Fatalf("expected pickup PENDING, got %s", r.PickupStatus)
	}
}

func TestCreateUserUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("insert into users").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	_, err := store.CreateUser(context.Background(), auth.User{
		Email: "dup@example.org", Name: "Dup", Role: auth.RoleUser, PasswordHash: "x",
	})
	if err != auth.ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUserByEmailNormalizes(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select id, email, name, role, password_hash, created_at.*from users where email=\\$1").
		WithArgs("user@careconnect.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "password_hash", "created_at"}).
			AddRow("1", "user@careconnect.com", "Demo User", "USER", "hash", time.Now().UTC()))

	u, err := store.UserByEmail(context.Background(), "  User@CareConnect.com ")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if u.Role != auth.RoleUser {
		t.Fatalf("unexpected role: %s", u.Role)
	}
}
