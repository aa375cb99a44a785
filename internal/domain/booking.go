package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// TerminalBookingStatus reports whether s ends the booking state machine.
func TerminalBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

// Booking is a user's reservation of one slot, linked to a wallet hold.
// It starts confirmed and moves exactly once to a terminal status.
type Booking struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	OfferID       uuid.UUID
	SlotID        uuid.UUID
	Status        BookingStatus
	DepositCents  int64
	WalletTxID    string
	CouponID      string
	CouponCode    string
	DiscountCents int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BookingKpis aggregates booking outcomes, optionally for one offer.
// Rates are percentages rounded to two decimals, zero when the denominator
// is zero.
type BookingKpis struct {
	CountByStatus     map[BookingStatus]int64 `json:"count_by_status"`
	TotalBookings     int64                   `json:"total_bookings"`
	PaidBookingsCount int64                   `json:"paid_bookings_count"`
	ConversionRate    float64                 `json:"conversion_rate"`
	NoShowRate        float64                 `json:"no_show_rate"`
	CalendarAccuracy  float64                 `json:"calendar_accuracy"`
}
