package offers

import (
	"context"
	"time"

	"arabon-backend/internal/domain"
	"arabon-backend/internal/kafka"
	"arabon-backend/internal/repository"
	"github.com/google/uuid"
)

const roleAdmin = "admin"

type OfferUseCase interface {
	Create(ctx context.Context, input CreateOfferInput) (*domain.Offer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error)
	List(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, bool, error)
	Search(ctx context.Context, query string, filter repository.OfferFilter) ([]domain.Offer, bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OfferStatus, actorID uuid.UUID, actorRole string) (*domain.Offer, error)
	Update(ctx context.Context, id uuid.UUID, upd repository.OfferUpdate, actorID uuid.UUID, actorRole string) (*domain.Offer, error)
	Delete(ctx context.Context, id, actorID uuid.UUID, actorRole string) error
	Stats(ctx context.Context, ownerID *uuid.UUID) (*domain.OfferStats, error)
	ActivityLog(ctx context.Context, offerID uuid.UUID, cursor *uuid.UUID) ([]domain.StatusLogEntry, bool, error)
	SubmitApplication(ctx context.Context, offerID, applicantID uuid.UUID, message string) (*domain.Application, error)
	ListApplications(ctx context.Context, offerID, actorID uuid.UUID, actorRole string, cursor *uuid.UUID) ([]domain.Application, bool, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type OfferService struct {
	offers   repository.OfferRepository
	producer Producer
	topic    string
}

type CreateOfferInput struct {
	OwnerID             uuid.UUID
	Title               string
	Description         string
	DepositCents        int64
	ScheduledAt         *time.Time
	Metadata            map[string]string
	MediaURLs           []string
	ContactInfo         string
	Category            string
	FullPriceCents      int64
	BillingPeriod       domain.BillingPeriod
	PricePerPeriodCents int64
}

func NewOfferService(offers repository.OfferRepository, producer Producer, topic string) *OfferService {
	return &OfferService{offers: offers, producer: producer, topic: topic}
}

func (s *OfferService) Create(ctx context.Context, input CreateOfferInput) (*domain.Offer, error) {
	if input.Title == "" {
		return nil, domain.Validationf("title is required")
	}
	if input.OwnerID == uuid.Nil {
		return nil, domain.Validationf("owner is required")
	}
	if input.DepositCents < 0 {
		return nil, domain.Validationf("deposit amount cannot be negative")
	}
	billingPeriod := input.BillingPeriod
	if billingPeriod == "" {
		billingPeriod = domain.BillingPeriodHour
	}
	if !domain.ValidBillingPeriod(billingPeriod) {
		return nil, domain.Validationf("invalid billing period %q", billingPeriod)
	}

	offer := &domain.Offer{
		ID:                  uuid.New(),
		OwnerID:             input.OwnerID,
		Title:               input.Title,
		Description:         input.Description,
		DepositCents:        input.DepositCents,
		ScheduledAt:         input.ScheduledAt,
		Metadata:            input.Metadata,
		Status:              domain.OfferStatusDraft,
		MediaURLs:           input.MediaURLs,
		ContactInfo:         input.ContactInfo,
		Category:            input.Category,
		FullPriceCents:      input.FullPriceCents,
		BillingPeriod:       billingPeriod,
		PricePerPeriodCents: input.PricePerPeriodCents,
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *OfferService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	return s.offers.GetByID(ctx, id)
}

func (s *OfferService) List(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, bool, error) {
	if filter.Status != nil && !domain.ValidOfferStatus(*filter.Status) {
		return nil, false, domain.Validationf("invalid status %q", *filter.Status)
	}
	offers, err := s.offers.List(ctx, filter, repository.PageSize+1)
	if err != nil {
		return nil, false, err
	}
	return trimOfferPage(offers)
}

func (s *OfferService) Search(ctx context.Context, query string, filter repository.OfferFilter) ([]domain.Offer, bool, error) {
	if query == "" {
		return nil, false, domain.Validationf("query is required")
	}
	offers, err := s.offers.Search(ctx, query, filter, repository.PageSize+1)
	if err != nil {
		return nil, false, err
	}
	return trimOfferPage(offers)
}

// UpdateStatus validates the target status and swaps it, appending one
// status-log entry for every accepted change. Setting the current status
// again is a successful no-op with no log entry.
func (s *OfferService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OfferStatus, actorID uuid.UUID, actorRole string) (*domain.Offer, error) {
	if !domain.ValidOfferStatus(status) {
		return nil, domain.Validationf("invalid status %q", status)
	}
	offer, err := s.authorizeOwner(ctx, id, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	old, err := s.offers.UpdateStatus(ctx, id, status, &actorID)
	if err != nil {
		return nil, err
	}
	if old != status {
		s.publishStatusChange(ctx, offer, old, status)
	}
	return s.offers.GetByID(ctx, id)
}

func (s *OfferService) Update(ctx context.Context, id uuid.UUID, upd repository.OfferUpdate, actorID uuid.UUID, actorRole string) (*domain.Offer, error) {
	if upd.Status != nil && !domain.ValidOfferStatus(*upd.Status) {
		return nil, domain.Validationf("invalid status %q", *upd.Status)
	}
	if upd.DepositCents != nil && *upd.DepositCents < 0 {
		return nil, domain.Validationf("deposit amount cannot be negative")
	}
	if upd.BillingPeriod != nil && !domain.ValidBillingPeriod(*upd.BillingPeriod) {
		return nil, domain.Validationf("invalid billing period %q", *upd.BillingPeriod)
	}
	offer, err := s.authorizeOwner(ctx, id, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	updated, err := s.offers.Update(ctx, id, upd, &actorID)
	if err != nil {
		return nil, err
	}
	if upd.Status != nil && *upd.Status != offer.Status {
		s.publishStatusChange(ctx, offer, offer.Status, *upd.Status)
	}
	return updated, nil
}

func (s *OfferService) Delete(ctx context.Context, id, actorID uuid.UUID, actorRole string) error {
	if _, err := s.authorizeOwner(ctx, id, actorID, actorRole); err != nil {
		return err
	}
	return s.offers.Delete(ctx, id)
}

func (s *OfferService) Stats(ctx context.Context, ownerID *uuid.UUID) (*domain.OfferStats, error) {
	return s.offers.Stats(ctx, ownerID)
}

func (s *OfferService) ActivityLog(ctx context.Context, offerID uuid.UUID, cursor *uuid.UUID) ([]domain.StatusLogEntry, bool, error) {
	if _, err := s.offers.GetByID(ctx, offerID); err != nil {
		return nil, false, err
	}
	entries, err := s.offers.ListStatusLog(ctx, offerID, cursor, repository.PageSize+1)
	if err != nil {
		return nil, false, err
	}
	if len(entries) > repository.PageSize {
		return entries[:repository.PageSize], true, nil
	}
	return entries, false, nil
}

func (s *OfferService) SubmitApplication(ctx context.Context, offerID, applicantID uuid.UUID, message string) (*domain.Application, error) {
	if _, err := s.offers.GetByID(ctx, offerID); err != nil {
		return nil, err
	}
	app := &domain.Application{
		ID:          uuid.New(),
		OfferID:     offerID,
		ApplicantID: applicantID,
		Message:     message,
	}
	if err := s.offers.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *OfferService) ListApplications(ctx context.Context, offerID, actorID uuid.UUID, actorRole string, cursor *uuid.UUID) ([]domain.Application, bool, error) {
	if _, err := s.authorizeOwner(ctx, offerID, actorID, actorRole); err != nil {
		return nil, false, err
	}
	apps, err := s.offers.ListApplications(ctx, offerID, cursor, repository.PageSize+1)
	if err != nil {
		return nil, false, err
	}
	if len(apps) > repository.PageSize {
		return apps[:repository.PageSize], true, nil
	}
	return apps, false, nil
}

func (s *OfferService) authorizeOwner(ctx context.Context, offerID, actorID uuid.UUID, actorRole string) (*domain.Offer, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actorRole != roleAdmin && offer.OwnerID != actorID {
		return nil, domain.ErrForbidden
	}
	return offer, nil
}

func (s *OfferService) publishStatusChange(ctx context.Context, offer *domain.Offer, old, status domain.OfferStatus) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.ReservationEvent{
		Type:       "offer_status_changed",
		OfferID:    offer.ID.String(),
		OwnerID:    offer.OwnerID.String(),
		OldStatus:  string(old),
		Status:     string(status),
		OccurredAt: time.Now(),
	}
	_ = s.producer.Publish(ctx, s.topic, offer.ID.String(), event)
}

func trimOfferPage(offers []domain.Offer) ([]domain.Offer, bool, error) {
	if len(offers) > repository.PageSize {
		return offers[:repository.PageSize], true, nil
	}
	return offers, false, nil
}

var _ OfferUseCase = (*OfferService)(nil)
