package domain

import (
	"time"

	"github.com/google/uuid"
)

const DefaultSlotDurationMinutes = 60

// Slot is a discrete bookable time window belonging to one offer.
// (offer_id, starts_at) is unique; BookedBy is set iff IsBooked is true.
type Slot struct {
	ID              uuid.UUID
	OfferID         uuid.UUID
	StartsAt        time.Time
	DurationMinutes int
	IsBooked        bool
	BookedBy        *uuid.UUID
	CreatedAt       time.Time
}
