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

type BookingFilter struct {
	Status *domain.BookingStatus
	From   *time.Time
	To     *time.Time
	Cursor *uuid.UUID
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// Delete removes a booking record; used only by the confirmation
	// compensation path.
	Delete(ctx context.Context, id uuid.UUID) error
	SetWalletTx(ctx context.Context, id uuid.UUID, walletTxID string) error
	// UpdateStatusIfConfirmed moves the booking to a terminal status only if
	// it is still confirmed, so two concurrent settlements cannot both
	// commit.
	UpdateStatusIfConfirmed(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (*domain.Booking, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter BookingFilter, limit int) ([]domain.Booking, error)
	ListByOffer(ctx context.Context, offerID uuid.UUID, filter BookingFilter, limit int) ([]domain.Booking, error)
	CountByStatus(ctx context.Context, offerID *uuid.UUID) (map[domain.BookingStatus]int64, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, offer_id, slot_id, status, deposit_cents, wallet_tx_id, coupon_id, coupon_code, discount_cents, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.db.QueryRow(ctx, `INSERT INTO bookings (id, user_id, offer_id, slot_id, status, deposit_cents, coupon_id, coupon_code, discount_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		booking.ID, booking.UserID, booking.OfferID, booking.SlotID, booking.Status, booking.DepositCents, booking.CouponID, booking.CouponCode, booking.DiscountCents).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return booking, nil
}

func (r *PGBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	return err
}

func (r *PGBookingRepository) SetWalletTx(ctx context.Context, id uuid.UUID, walletTxID string) error {
	res, err := r.db.Exec(ctx, `UPDATE bookings SET wallet_tx_id=$1, updated_at=now() WHERE id=$2`, walletTxID, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *PGBookingRepository) UpdateStatusIfConfirmed(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3
		RETURNING `+bookingColumns, status, id, domain.BookingStatusConfirmed)
	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, err := r.GetByID(ctx, id); err != nil {
				return nil, err
			}
			return nil, domain.Validationf("cannot change status of a non-confirmed booking")
		}
		return nil, err
	}
	return booking, nil
}

func (r *PGBookingRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id=$1`, userID).Scan(&count)
	return count, err
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter BookingFilter, limit int) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE user_id = $1`+bookingFilterSQL+`
		ORDER BY created_at DESC, id DESC
		LIMIT $6`, userID, filter.Status, filter.From, filter.To, filter.Cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *PGBookingRepository) ListByOffer(ctx context.Context, offerID uuid.UUID, filter BookingFilter, limit int) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE offer_id = $1`+bookingFilterSQL+`
		ORDER BY created_at DESC, id DESC
		LIMIT $6`, offerID, filter.Status, filter.From, filter.To, filter.Cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

const bookingFilterSQL = `
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
		  AND ($5::uuid IS NULL OR (created_at, id) < (SELECT b.created_at, b.id FROM bookings b WHERE b.id = $5))`

func (r *PGBookingRepository) CountByStatus(ctx context.Context, offerID *uuid.UUID) (map[domain.BookingStatus]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM bookings
		WHERE ($1::uuid IS NULL OR offer_id = $1)
		GROUP BY status`, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.BookingStatus]int64)
	for rows.Next() {
		var status domain.BookingStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.OfferID, &b.SlotID, &b.Status, &b.DepositCents, &b.WalletTxID, &b.CouponID, &b.CouponCode, &b.DiscountCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
