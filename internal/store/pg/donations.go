package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"careconnect.org/internal/donations"
	"careconnect.org/internal/ids"
)

var _ donations.Store = (*Store)(nil)

const donationColumns = `id, title, category, description, quantity, donor_id, location, status, created_at`
const requestColumns = `id, donation_id, requester_id, quantity_requested, message, status, pickup_status, created_at`

func (s *Store) ListDonations(ctx context.Context, f donations.DonationFilter) ([]donations.Donation, error) {
	query := `select ` + donationColumns + ` from donations`
	var args []any
	var conds []string
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf(`status=$%d`, len(args)))
	}
	if f.DonorID != "" {
		args = append(args, f.DonorID)
		conds = append(conds, fmt.Sprintf(`donor_id=$%d`, len(args)))
	}
	if len(conds) > 0 {
		query += ` where ` + strings.Join(conds, ` and `)
	}
	query += ` order by created_at desc, id desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []donations.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.attachRequests(ctx, list)
}

func (s *Store) GetDonation(ctx context.Context, id string) (donations.Donation, error) {
	row := s.db.QueryRowContext(ctx, `select `+donationColumns+` from donations where id=$1`, id)
	d, err := scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return donations.Donation{}, donations.ErrNotFound
	}
	if err != nil {
		return donations.Donation{}, err
	}
	list, err := s.attachRequests(ctx, []donations.Donation{d})
	if err != nil {
		return donations.Donation{}, err
	}
	return list[0], nil
}

func (s *Store) CreateDonation(ctx context.Context, donorID string, in donations.NewDonation) (donations.Donation, error) {
	if err := in.Validate(); err != nil {
		return donations.Donation{}, err
	}
	d := donations.Donation{
		ID:          ids.New(),
		Title:       in.Title,
		Category:    in.Category,
		Description: in.Description,
		Quantity:    in.Quantity,
		DonorID:     donorID,
		Location:    in.Location,
		Status:      donations.DonationAvailable,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		insert into donations(id, title, category, description, quantity, donor_id, location, status, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, d.ID, d.Title, d.Category, d.Description, d.Quantity, d.DonorID, d.Location, string(d.Status), d.CreatedAt)
	if err != nil {
		return donations.Donation{}, err
	}
	return d, nil
}

func (s *Store) UpdateDonation(ctx context.Context, id string, p donations.DonationPatch) (donations.Donation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return donations.Donation{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `select `+donationColumns+` from donations where id=$1 for update`, id)
	d, err := scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return donations.Donation{}, donations.ErrNotFound
	}
	if err != nil {
		return donations.Donation{}, err
	}

	if err := p.Apply(&d); err != nil {
		return donations.Donation{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		update donations
		set title=$2, category=$3, description=$4, quantity=$5, location=$6, status=$7
		where id=$1
	`, d.ID, d.Title, d.Category, d.Description, d.Quantity, d.Location, string(d.Status)); err != nil {
		return donations.Donation{}, err
	}
	if err := tx.Commit(); err != nil {
		return donations.Donation{}, err
	}
	return d, nil
}

func (s *Store) ListRequests(ctx context.Context, f donations.RequestFilter) ([]donations.Request, error) {
	query := `select ` + requestColumns + ` from requests`
	var args []any
	var conds []string
	if f.DonationID != "" {
		args = append(args, f.DonationID)
		conds = append(conds, fmt.Sprintf(`donation_id=$%d`, len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf(`status=$%d`, len(args)))
	}
	if f.RequesterID != "" {
		args = append(args, f.RequesterID)
		conds = append(conds, fmt.Sprintf(`requester_id=$%d`, len(args)))
	}
	if len(conds) > 0 {
		query += ` where ` + strings.Join(conds, ` and `)
	}
	query += ` order by created_at desc, id desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []donations.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// CreateRequest inserts the request and reserves the donation in one
// transaction. The client's local fallback keeps the looser two-write
// behavior; the system of record is stricter.
func (s *Store) CreateRequest(ctx context.Context, requesterID string, in donations.NewRequest) (donations.Request, error) {
	if err := in.Validate(); err != nil {
		return donations.Request{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return donations.Request{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, `select 1 from donations where id=$1 for update`, in.DonationID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return donations.Request{}, donations.ErrNotFound
	}
	if err != nil {
		return donations.Request{}, err
	}

	r := donations.Request{
		ID:                ids.New(),
		DonationID:        in.DonationID,
		RequesterID:       requesterID,
		QuantityRequested: in.QuantityRequested,
		Message:           in.Message,
		Status:            donations.RequestPending,
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx, `
		insert into requests(id, donation_id, requester_id, quantity_requested, message, status, pickup_status, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, r.ID, r.DonationID, r.RequesterID, r.QuantityRequested, r.Message, string(r.Status), string(r.PickupStatus), r.CreatedAt); err != nil {
		return donations.Request{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`update donations set status=$2 where id=$1`,
		in.DonationID, string(donations.DonationReserved)); err != nil {
		return donations.Request{}, err
	}
	if err := tx.Commit(); err != nil {
		return donations.Request{}, err
	}
	return r, nil
}

func (s *Store) UpdateRequest(ctx context.Context, id string, p donations.RequestPatch) (donations.Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return donations.Request{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `select `+requestColumns+` from requests where id=$1 for update`, id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return donations.Request{}, donations.ErrNotFound
	}
	if err != nil {
		return donations.Request{}, err
	}

	if err := p.Apply(&r); err != nil {
		return donations.Request{}, err
	}
	if r.Status == donations.RequestAccepted && r.PickupStatus == "" {
		r.PickupStatus = donations.PickupPending
	}

	if _, err := tx.ExecContext(ctx, `
		update requests
		set quantity_requested=$2, message=$3, status=$4, pickup_status=$5
		where id=$1
	`, r.ID, r.QuantityRequested, r.Message, string(r.Status), string(r.PickupStatus)); err != nil {
		return donations.Request{}, err
	}
	if err := tx.Commit(); err != nil {
		return donations.Request{}, err
	}
	return r, nil
}

// attachRequests embeds each donation's requests, mirroring the in-memory
// store's listings.
func (s *Store) attachRequests(ctx context.Context, list []donations.Donation) ([]donations.Donation, error) {
	if len(list) == 0 {
		return list, nil
	}
	byDonation := make(map[string][]donations.Request, len(list))

	rows, err := s.db.QueryContext(ctx, `select `+requestColumns+` from requests order by created_at desc, id desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		byDonation[r.DonationID] = append(byDonation[r.DonationID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range list {
		list[i].Requests = byDonation[list[i].ID]
	}
	return list, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (donations.Donation, error) {
	var d donations.Donation
	var status string
	err := row.Scan(&d.ID, &d.Title, &d.Category, &d.Description, &d.Quantity,
		&d.DonorID, &d.Location, &status, &d.CreatedAt)
	if err != nil {
		return donations.Donation{}, err
	}
	d.Status = donations.DonationStatus(status)
	return d, nil
}

func scanRequest(row rowScanner) (donations.Request, error) {
	var r donations.Request
	var status, pickup string
	err := row.Scan(&r.ID, &r.DonationID, &r.RequesterID, &r.QuantityRequested,
		&r.Message, &status, &pickup, &r.CreatedAt)
	if err != nil {
		return donations.Request{}, err
	}
	r.Status = donations.RequestStatus(status)
	r.PickupStatus = donations.PickupStatus(pickup)
	return r, nil
}
