package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"arabon-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PageSize is the fixed page size for every cursor-paginated listing.
const PageSize = 25

type OfferFilter struct {
	Status  *domain.OfferStatus
	OwnerID *uuid.UUID
	Cursor  *uuid.UUID
}

// OfferUpdate is a partial field merge; nil fields are left untouched.
type OfferUpdate struct {
	Title               *string
	Description         *string
	DepositCents        *int64
	ScheduledAt         *time.Time
	Metadata            map[string]string
	Status              *domain.OfferStatus
	MediaURLs           []string
	ContactInfo         *string
	Category            *string
	FullPriceCents      *int64
	BillingPeriod       *domain.BillingPeriod
	PricePerPeriodCents *int64
}

type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error)
	List(ctx context.Context, filter OfferFilter, limit int) ([]domain.Offer, error)
	Search(ctx context.Context, query string, filter OfferFilter, limit int) ([]domain.Offer, error)
	// UpdateStatus swaps the offer status and appends a status-log entry in
	// one transaction, returning the pre-image status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OfferStatus, actorID *uuid.UUID) (domain.OfferStatus, error)
	Update(ctx context.Context, id uuid.UUID, upd OfferUpdate, actorID *uuid.UUID) (*domain.Offer, error)
	// Delete removes the offer with its slots, log and applications. It fails
	// while any booking still references the offer.
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, ownerID *uuid.UUID) (*domain.OfferStats, error)
	ListStatusLog(ctx context.Context, offerID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.StatusLogEntry, error)
	CreateApplication(ctx context.Context, app *domain.Application) error
	ListApplications(ctx context.Context, offerID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Application, error)
}

type PGOfferRepository struct {
	db *pgxpool.Pool
}

func NewOfferRepository(db *pgxpool.Pool) OfferRepository {
	return &PGOfferRepository{db: db}
}

const offerColumns = `id, owner_id, title, description, deposit_cents, scheduled_at, metadata, status, media_urls, contact_info, category, full_price_cents, billing_period, price_per_period_cents, created_at, updated_at`

func (r *PGOfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	metadata, mediaURLs, err := encodeOfferJSON(offer.Metadata, offer.MediaURLs)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `INSERT INTO offers (id, owner_id, title, description, deposit_cents, scheduled_at, metadata, status, media_urls, contact_info, category, full_price_cents, billing_period, price_per_period_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		offer.ID, offer.OwnerID, offer.Title, offer.Description, offer.DepositCents, offer.ScheduledAt, metadata, offer.Status, mediaURLs, offer.ContactInfo, offer.Category, offer.FullPriceCents, offer.BillingPeriod, offer.PricePerPeriodCents).
		Scan(&offer.CreatedAt, &offer.UpdatedAt)
}

func (r *PGOfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id=$1`, id)
	offer, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("offer %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return offer, nil
}

func (r *PGOfferRepository) List(ctx context.Context, filter OfferFilter, limit int) ([]domain.Offer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+offerColumns+` FROM offers
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::uuid IS NULL OR owner_id = $2)
		  AND ($3::uuid IS NULL OR (created_at, id) < (SELECT o.created_at, o.id FROM offers o WHERE o.id = $3))
		ORDER BY created_at DESC, id DESC
		LIMIT $4`, filter.Status, filter.OwnerID, filter.Cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

func (r *PGOfferRepository) Search(ctx context.Context, query string, filter OfferFilter, limit int) ([]domain.Offer, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.Query(ctx, `SELECT `+offerColumns+` FROM offers
		WHERE (title ILIKE $1 OR description ILIKE $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::uuid IS NULL OR owner_id = $3)
		  AND ($4::uuid IS NULL OR (created_at, id) < (SELECT o.created_at, o.id FROM offers o WHERE o.id = $4))
		ORDER BY created_at DESC, id DESC
		LIMIT $5`, pattern, filter.Status, filter.OwnerID, filter.Cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

func (r *PGOfferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OfferStatus, actorID *uuid.UUID) (domain.OfferStatus, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var old domain.OfferStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM offers WHERE id=$1 FOR UPDATE`, id).Scan(&old); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("offer %s: %w", id, domain.ErrNotFound)
		}
		return "", err
	}
	if old == status {
		return old, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `UPDATE offers SET status=$1, updated_at=now() WHERE id=$2`, status, id); err != nil {
		return "", err
	}
	if err := appendStatusLog(ctx, tx, id, &old, status, actorID); err != nil {
		return "", err
	}
	return old, tx.Commit(ctx)
}

func (r *PGOfferRepository) Update(ctx context.Context, id uuid.UUID, upd OfferUpdate, actorID *uuid.UUID) (*domain.Offer, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var old domain.OfferStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM offers WHERE id=$1 FOR UPDATE`, id).Scan(&old); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("offer %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	set := []string{"updated_at=now()"}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.DepositCents != nil {
		add("deposit_cents", *upd.DepositCents)
	}
	if upd.ScheduledAt != nil {
		add("scheduled_at", *upd.ScheduledAt)
	}
	if upd.Metadata != nil {
		metadata, err := json.Marshal(upd.Metadata)
		if err != nil {
			return nil, err
		}
		add("metadata", metadata)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.MediaURLs != nil {
		mediaURLs, err := json.Marshal(upd.MediaURLs)
		if err != nil {
			return nil, err
		}
		add("media_urls", mediaURLs)
	}
	if upd.ContactInfo != nil {
		add("contact_info", *upd.ContactInfo)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.FullPriceCents != nil {
		add("full_price_cents", *upd.FullPriceCents)
	}
	if upd.BillingPeriod != nil {
		add("billing_period", *upd.BillingPeriod)
	}
	if upd.PricePerPeriodCents != nil {
		add("price_per_period_cents", *upd.PricePerPeriodCents)
	}

	row := tx.QueryRow(ctx, `UPDATE offers SET `+strings.Join(set, ", ")+` WHERE id=$1 RETURNING `+offerColumns, args...)
	offer, err := scanOffer(row)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil && *upd.Status != old {
		if err := appendStatusLog(ctx, tx, id, &old, *upd.Status, actorID); err != nil {
			return nil, err
		}
	}
	return offer, tx.Commit(ctx)
}

func (r *PGOfferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var ownerID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT owner_id FROM offers WHERE id=$1 FOR UPDATE`, id).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("offer %s: %w", id, domain.ErrNotFound)
		}
		return err
	}

	var referenced bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE offer_id=$1)`, id).Scan(&referenced); err != nil {
		return err
	}
	if referenced {
		return domain.Validationf("offer has bookings and cannot be deleted")
	}

	for _, q := range []string{
		`DELETE FROM applications WHERE offer_id=$1`,
		`DELETE FROM offer_status_log WHERE offer_id=$1`,
		`DELETE FROM slots WHERE offer_id=$1`,
		`DELETE FROM offers WHERE id=$1`,
	} {
		if _, err := tx.Exec(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGOfferRepository) Stats(ctx context.Context, ownerID *uuid.UUID) (*domain.OfferStats, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*), COALESCE(SUM(deposit_cents), 0) FROM offers
		WHERE ($1::uuid IS NULL OR owner_id = $1)
		GROUP BY status`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &domain.OfferStats{CountByStatus: make(map[domain.OfferStatus]int64)}
	for rows.Next() {
		var status domain.OfferStatus
		var count, deposits int64
		if err := rows.Scan(&status, &count, &deposits); err != nil {
			return nil, err
		}
		stats.CountByStatus[status] = count
		stats.TotalOffers += count
		stats.TotalDepositCents += deposits
	}
	return stats, rows.Err()
}

func (r *PGOfferRepository) ListStatusLog(ctx context.Context, offerID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.StatusLogEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, offer_id, old_status, new_status, actor_id, created_at FROM offer_status_log
		WHERE offer_id = $1
		  AND ($2::uuid IS NULL OR (created_at, id) < (SELECT l.created_at, l.id FROM offer_status_log l WHERE l.id = $2))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`, offerID, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.StatusLogEntry, 0)
	for rows.Next() {
		var e domain.StatusLogEntry
		if err := rows.Scan(&e.ID, &e.OfferID, &e.OldStatus, &e.NewStatus, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PGOfferRepository) CreateApplication(ctx context.Context, app *domain.Application) error {
	return r.db.QueryRow(ctx, `INSERT INTO applications (id, offer_id, applicant_id, message)
		VALUES ($1, $2, $3, $4) RETURNING created_at`,
		app.ID, app.OfferID, app.ApplicantID, app.Message).Scan(&app.CreatedAt)
}

func (r *PGOfferRepository) ListApplications(ctx context.Context, offerID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Application, error) {
	rows, err := r.db.Query(ctx, `SELECT id, offer_id, applicant_id, message, created_at FROM applications
		WHERE offer_id = $1
		  AND ($2::uuid IS NULL OR (created_at, id) < (SELECT a.created_at, a.id FROM applications a WHERE a.id = $2))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`, offerID, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]domain.Application, 0)
	for rows.Next() {
		var a domain.Application
		if err := rows.Scan(&a.ID, &a.OfferID, &a.ApplicantID, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func appendStatusLog(ctx context.Context, tx pgx.Tx, offerID uuid.UUID, old *domain.OfferStatus, status domain.OfferStatus, actorID *uuid.UUID) error {
	_, err := tx.Exec(ctx, `INSERT INTO offer_status_log (id, offer_id, old_status, new_status, actor_id)
		VALUES ($1, $2, $3, $4, $5)`, uuid.New(), offerID, old, status, actorID)
	return err
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var o domain.Offer
	var metadata, mediaURLs []byte
	if err := row.Scan(&o.ID, &o.OwnerID, &o.Title, &o.Description, &o.DepositCents, &o.ScheduledAt, &metadata, &o.Status, &mediaURLs, &o.ContactInfo, &o.Category, &o.FullPriceCents, &o.BillingPeriod, &o.PricePerPeriodCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadata, &o.Metadata); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(mediaURLs, &o.MediaURLs); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOffers(rows pgx.Rows) ([]domain.Offer, error) {
	offers := make([]domain.Offer, 0)
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *offer)
	}
	return offers, rows.Err()
}

func encodeOfferJSON(metadata map[string]string, mediaURLs []string) ([]byte, []byte, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	if mediaURLs == nil {
		mediaURLs = []string{}
	}
	m, err := json.Marshal(metadata)
	if err != nil {
		return nil, nil, err
	}
	u, err := json.Marshal(mediaURLs)
	if err != nil {
		return nil, nil, err
	}
	return m, u, nil
}

var _ OfferRepository = (*PGOfferRepository)(nil)
