package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arabon-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository interface {
	// CreateBatch inserts the candidate slots, silently dropping any whose
	// (offer_id, starts_at) already exists. Only the inserted slots are
	// returned.
	CreateBatch(ctx context.Context, slots []domain.Slot) ([]domain.Slot, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Slot, error)
	ListAvailable(ctx context.Context, offerID uuid.UUID, from, to *time.Time) ([]domain.Slot, error)
	// Reserve flips is_booked false→true as a single conditional update.
	// Exactly one concurrent caller succeeds; the rest get a validation error.
	Reserve(ctx context.Context, slotID, userID uuid.UUID) error
	// Release clears the booked flag. Idempotent for an unbooked slot.
	Release(ctx context.Context, slotID uuid.UUID) error
}

type PGSlotRepository struct {
	db *pgxpool.Pool
}

func NewSlotRepository(db *pgxpool.Pool) SlotRepository {
	return &PGSlotRepository{db: db}
}

const slotColumns = `id, offer_id, starts_at, duration_minutes, is_booked, booked_by, created_at`

func (r *PGSlotRepository) CreateBatch(ctx context.Context, slots []domain.Slot) ([]domain.Slot, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	inserted := make([]domain.Slot, 0, len(slots))
	for _, s := range slots {
		row := tx.QueryRow(ctx, `INSERT INTO slots (id, offer_id, starts_at, duration_minutes)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (offer_id, starts_at) DO NOTHING
			RETURNING `+slotColumns, s.ID, s.OfferID, s.StartsAt, s.DurationMinutes)

		var out domain.Slot
		if err := row.Scan(&out.ID, &out.OfferID, &out.StartsAt, &out.DurationMinutes, &out.IsBooked, &out.BookedBy, &out.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue // duplicate start time, dropped
			}
			return nil, err
		}
		inserted = append(inserted, out)
	}
	return inserted, tx.Commit(ctx)
}

func (r *PGSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Slot, error) {
	row := r.db.QueryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id=$1`, id)
	var s domain.Slot
	if err := row.Scan(&s.ID, &s.OfferID, &s.StartsAt, &s.DurationMinutes, &s.IsBooked, &s.BookedBy, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("slot %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGSlotRepository) ListAvailable(ctx context.Context, offerID uuid.UUID, from, to *time.Time) ([]domain.Slot, error) {
	rows, err := r.db.Query(ctx, `SELECT `+slotColumns+` FROM slots
		WHERE offer_id = $1 AND is_booked = FALSE
		  AND ($2::timestamptz IS NULL OR starts_at >= $2)
		  AND ($3::timestamptz IS NULL OR starts_at <= $3)
		ORDER BY starts_at`, offerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]domain.Slot, 0)
	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(&s.ID, &s.OfferID, &s.StartsAt, &s.DurationMinutes, &s.IsBooked, &s.BookedBy, &s.CreatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *PGSlotRepository) Reserve(ctx context.Context, slotID, userID uuid.UUID) error {
	res, err := r.db.Exec(ctx, `UPDATE slots SET is_booked = TRUE, booked_by = $2 WHERE id = $1 AND is_booked = FALSE`, slotID, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, slotID); err != nil {
			return err
		}
		return domain.Validationf("slot already booked")
	}
	return nil
}

func (r *PGSlotRepository) Release(ctx context.Context, slotID uuid.UUID) error {
	res, err := r.db.Exec(ctx, `UPDATE slots SET is_booked = FALSE, booked_by = NULL WHERE id = $1`, slotID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("slot %s: %w", slotID, domain.ErrNotFound)
	}
	return nil
}

var _ SlotRepository = (*PGSlotRepository)(nil)
