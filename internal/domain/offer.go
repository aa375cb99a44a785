package domain

import (
	"time"

	"github.com/google/uuid"
)

type OfferStatus string

const (
	OfferStatusDraft     OfferStatus = "draft"
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusConfirmed OfferStatus = "confirmed"
	OfferStatusCompleted OfferStatus = "completed"
	OfferStatusCancelled OfferStatus = "cancelled"
)

func ValidOfferStatus(s OfferStatus) bool {
	switch s {
	case OfferStatusDraft, OfferStatusPending, OfferStatusConfirmed, OfferStatusCompleted, OfferStatusCancelled:
		return true
	}
	return false
}

type BillingPeriod string

const (
	BillingPeriodHour BillingPeriod = "hour"
	BillingPeriodDay  BillingPeriod = "day"
	BillingPeriodWeek BillingPeriod = "week"
)

func ValidBillingPeriod(p BillingPeriod) bool {
	switch p {
	case BillingPeriodHour, BillingPeriodDay, BillingPeriodWeek:
		return true
	}
	return false
}

// Offer is a bookable listing with a deposit price. The owner receives
// settled funds when a booking completes.
type Offer struct {
	ID                  uuid.UUID
	OwnerID             uuid.UUID
	Title               string
	Description         string
	DepositCents        int64
	ScheduledAt         *time.Time
	Metadata            map[string]string
	Status              OfferStatus
	MediaURLs           []string
	ContactInfo         string
	Category            string
	FullPriceCents      int64
	BillingPeriod       BillingPeriod
	PricePerPeriodCents int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// StatusLogEntry records one accepted offer status transition. Entries are
// append-only.
type StatusLogEntry struct {
	ID        uuid.UUID
	OfferID   uuid.UUID
	OldStatus *OfferStatus
	NewStatus OfferStatus
	ActorID   *uuid.UUID
	CreatedAt time.Time
}

// Application is a free-form request submitted by a user against an offer.
type Application struct {
	ID          uuid.UUID
	OfferID     uuid.UUID
	ApplicantID uuid.UUID
	Message     string
	CreatedAt   time.Time
}

// OfferStats aggregates offers per status.
type OfferStats struct {
	CountByStatus     map[OfferStatus]int64 `json:"count_by_status"`
	TotalOffers       int64                 `json:"total_offers"`
	TotalDepositCents int64                 `json:"total_deposit_cents"`
}
