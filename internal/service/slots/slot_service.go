package slots

import (
	"context"
	"time"

	"arabon-backend/internal/domain"
	"arabon-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jinzhu/now"
)

type SlotUseCase interface {
	CreateSlots(ctx context.Context, offerID, actorID uuid.UUID, input CreateSlotsInput) (*CreateSlotsResult, error)
	GetAvailableSlots(ctx context.Context, offerID uuid.UUID, from, to *time.Time) ([]domain.Slot, error)
	ReserveSlot(ctx context.Context, slotID, userID uuid.UUID) error
	ReleaseSlot(ctx context.Context, slotID, actorID uuid.UUID, actorRole string) error
}

// SlotEntry is one explicit slot in a creation request.
type SlotEntry struct {
	Datetime        string `json:"datetime"`
	DurationMinutes int    `json:"duration_minutes"`
}

// RangeSpec expands into discrete slots every IntervalMinutes from Start
// (inclusive) up to End (exclusive).
type RangeSpec struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	IntervalMinutes int    `json:"interval_minutes"`
	DurationMinutes int    `json:"duration_minutes"`
}

// CreateSlotsInput carries exactly one of an explicit slot list or a range.
type CreateSlotsInput struct {
	Slots []SlotEntry `json:"slots"`
	Range *RangeSpec  `json:"range"`
}

type CreateSlotsResult struct {
	Created int           `json:"created"`
	Slots   []domain.Slot `json:"slots"`
}

type SlotService struct {
	slots  repository.SlotRepository
	offers repository.OfferRepository
}

func NewSlotService(slots repository.SlotRepository, offers repository.OfferRepository) *SlotService {
	return &SlotService{slots: slots, offers: offers}
}

// CreateSlots builds the candidate set from the request and inserts it.
// Candidates colliding with an existing (offer, start time) pair are dropped
// silently; only the offer owner may create slots.
func (s *SlotService) CreateSlots(ctx context.Context, offerID, actorID uuid.UUID, input CreateSlotsInput) (*CreateSlotsResult, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.OwnerID != actorID {
		return nil, domain.ErrForbidden
	}

	candidates, err := expand(offerID, input)
	if err != nil {
		return nil, err
	}

	inserted, err := s.slots.CreateBatch(ctx, candidates)
	if err != nil {
		return nil, err
	}
	return &CreateSlotsResult{Created: len(inserted), Slots: inserted}, nil
}

func expand(offerID uuid.UUID, input CreateSlotsInput) ([]domain.Slot, error) {
	hasList := len(input.Slots) > 0
	hasRange := input.Range != nil
	if hasList == hasRange {
		return nil, domain.Validationf("exactly one of slots or range must be provided")
	}

	if hasList {
		candidates := make([]domain.Slot, 0, len(input.Slots))
		for _, entry := range input.Slots {
			startsAt, err := now.Parse(entry.Datetime)
			if err != nil {
				return nil, domain.Validationf("invalid datetime %q", entry.Datetime)
			}
			duration := entry.DurationMinutes
			if duration <= 0 {
				duration = domain.DefaultSlotDurationMinutes
			}
			candidates = append(candidates, domain.Slot{
				ID:              uuid.New(),
				OfferID:         offerID,
				StartsAt:        startsAt,
				DurationMinutes: duration,
			})
		}
		return candidates, nil
	}

	r := input.Range
	if r.IntervalMinutes <= 0 {
		return nil, domain.Validationf("interval must be positive")
	}
	start, err := now.Parse(r.Start)
	if err != nil {
		return nil, domain.Validationf("invalid datetime %q", r.Start)
	}
	end, err := now.Parse(r.End)
	if err != nil {
		return nil, domain.Validationf("invalid datetime %q", r.End)
	}
	if !start.Before(end) {
		return nil, domain.Validationf("start must be before end")
	}

	duration := r.DurationMinutes
	if duration <= 0 {
		duration = r.IntervalMinutes
	}
	interval := time.Duration(r.IntervalMinutes) * time.Minute

	candidates := make([]domain.Slot, 0)
	for t := start; t.Before(end); t = t.Add(interval) {
		candidates = append(candidates, domain.Slot{
			ID:              uuid.New(),
			OfferID:         offerID,
			StartsAt:        t,
			DurationMinutes: duration,
		})
	}
	return candidates, nil
}

func (s *SlotService) GetAvailableSlots(ctx context.Context, offerID uuid.UUID, from, to *time.Time) ([]domain.Slot, error) {
	if _, err := s.offers.GetByID(ctx, offerID); err != nil {
		return nil, err
	}
	return s.slots.ListAvailable(ctx, offerID, from, to)
}

func (s *SlotService) ReserveSlot(ctx context.Context, slotID, userID uuid.UUID) error {
	return s.slots.Reserve(ctx, slotID, userID)
}

// ReleaseSlot makes a booked slot available again. Only the offer owner or
// an admin may do this, same actor gate as booking status changes.
func (s *SlotService) ReleaseSlot(ctx context.Context, slotID, actorID uuid.UUID, actorRole string) error {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return err
	}
	if actorRole != "admin" {
		offer, err := s.offers.GetByID(ctx, slot.OfferID)
		if err != nil {
			return err
		}
		if offer.OwnerID != actorID {
			return domain.ErrForbidden
		}
	}
	return s.slots.Release(ctx, slotID)
}

var _ SlotUseCase = (*SlotService)(nil)
