package offers

import (
	"context"
	"testing"

	"arabon-backend/internal/domain"
	"arabon-backend/internal/kafka"
	"arabon-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockOfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

func (m *MockOfferRepository) List(ctx context.Context, filter repository.OfferFilter, limit int) ([]domain.Offer, error) {
	args := m.Called(ctx, filter, limit)
	return args.Get(0).([]domain.Offer), args.Error(1)
}

func (m *MockOfferRepository) Search(ctx context.Context, query string, filter repository.OfferFilter, limit int) ([]domain.Offer, error) {
	args := m.Called(ctx, query, filter, limit)
	return args.Get(0).([]domain.Offer), args.Error(1)
}

func (m *MockOfferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OfferStatus, actorID *uuid.UUID) (domain.OfferStatus, error) {
	args := m.Called(ctx, id, status, actorID)
	return args.Get(0).(domain.OfferStatus), args.Error(1)
}

func (m *MockOfferRepository) Update(ctx context.Context, id uuid.UUID, upd repository.OfferUpdate, actorID *uuid.UUID) (*domain.Offer, error) {
	args := m.Called(ctx, id, upd, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

func (m *MockOfferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOfferRepository) Stats(ctx context.Context, ownerID *uuid.UUID) (*domain.OfferStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OfferStats), args.Error(1)
}

func (m *MockOfferRepository) ListStatusLog(ctx context.Context, offerID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.StatusLogEntry, error) {
	args := m.Called(ctx, offerID, cursor, limit)
	return args.Get(0).([]domain.StatusLogEntry), args.Error(1)
}

func (m *MockOfferRepository) CreateApplication(ctx context.Context, app *domain.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockOfferRepository) ListApplications(ctx context.Context, offerID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Application, error) {
	args := m.Called(ctx, offerID, cursor, limit)
	return args.Get(0).([]domain.Application), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func TestCreateOffer_Defaults(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, nil, "")

	repo.On("Create", mock.Anything, mock.MatchedBy(func(o *domain.Offer) bool {
		return o.Status == domain.OfferStatusDraft && o.BillingPeriod == domain.BillingPeriodHour
	})).Return(nil)

	offer, err := svc.Create(context.Background(), CreateOfferInput{
		OwnerID:      uuid.New(),
		Title:        "Rehearsal room",
		DepositCents: 1500,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.OfferStatusDraft, offer.Status)
	assert.Equal(t, domain.BillingPeriodHour, offer.BillingPeriod)
	repo.AssertExpectations(t)
}

func TestCreateOffer_Validation(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, nil, "")

	_, err := svc.Create(context.Background(), CreateOfferInput{OwnerID: uuid.New()})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(context.Background(), CreateOfferInput{Title: "no owner"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(context.Background(), CreateOfferInput{
		OwnerID: uuid.New(), Title: "bad deposit", DepositCents: -1,
	})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(context.Background(), CreateOfferInput{
		OwnerID: uuid.New(), Title: "bad period", BillingPeriod: "month",
	})
	assert.True(t, domain.IsValidation(err))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, nil, "")

	bad := domain.OfferStatus("archived")
	_, _, err := svc.List(context.Background(), repository.OfferFilter{Status: &bad})

	assert.True(t, domain.IsValidation(err))
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_RequiresQuery(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, nil, "")

	_, _, err := svc.Search(context.Background(), "", repository.OfferFilter{})

	assert.True(t, domain.IsValidation(err))
}

func TestUpdateStatus_PublishesOnChange(t *testing.T) {
	repo := new(MockOfferRepository)
	producer := new(MockProducer)
	svc := NewOfferService(repo, producer, "reservation-events")

	ownerID := uuid.New()
	offerID := uuid.New()
	offer := &domain.Offer{ID: offerID, OwnerID: ownerID, Status: domain.OfferStatusDraft}

	repo.On("GetByID", mock.Anything, offerID).Return(offer, nil)
	repo.On("UpdateStatus", mock.Anything, offerID, domain.OfferStatusPending, &ownerID).Return(domain.OfferStatusDraft, nil)
	producer.On("Publish", mock.Anything, "reservation-events", offerID.String(), mock.MatchedBy(func(v interface{}) bool {
		event, ok := v.(kafka.ReservationEvent)
		return ok && event.Type == "offer_status_changed" &&
			event.OldStatus == "draft" && event.Status == "pending"
	})).Return(nil)

	_, err := svc.UpdateStatus(context.Background(), offerID, domain.OfferStatusPending, ownerID, "")

	assert.NoError(t, err)
	producer.AssertExpectations(t)
}

func TestUpdateStatus_NoOpDoesNotPublish(t *testing.T) {
	repo := new(MockOfferRepository)
	producer := new(MockProducer)
	svc := NewOfferService(repo, producer, "reservation-events")

	ownerID := uuid.New()
	offerID := uuid.New()
	offer := &domain.Offer{ID: offerID, OwnerID: ownerID, Status: domain.OfferStatusPending}

	repo.On("GetByID", mock.Anything, offerID).Return(offer, nil)
	repo.On("UpdateStatus", mock.Anything, offerID, domain.OfferStatusPending, &ownerID).Return(domain.OfferStatusPending, nil)

	_, err := svc.UpdateStatus(context.Background(), offerID, domain.OfferStatusPending, ownerID, "")

	assert.NoError(t, err)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, nil, "")

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), "frozen", uuid.New(), roleAdmin)

	assert.True(t, domain.IsValidation(err))
}

func TestUpdateStatus_ForbiddenForStranger(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, nil, "")

	offerID := uuid.New()
	repo.On("GetByID", mock.Anything, offerID).Return(&domain.Offer{ID: offerID, OwnerID: uuid.New()}, nil)

	_, err := svc.UpdateStatus(context.Background(), offerID, domain.OfferStatusConfirmed, uuid.New(), "")

	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_AdminBypassesOwnership(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, nil, "")

	offerID := uuid.New()
	adminID := uuid.New()
	title := "renamed"
	offer := &domain.Offer{ID: offerID, OwnerID: uuid.New(), Status: domain.OfferStatusDraft}

	repo.On("GetByID", mock.Anything, offerID).Return(offer, nil)
	repo.On("Update", mock.Anything, offerID, repository.OfferUpdate{Title: &title}, &adminID).Return(offer, nil)

	_, err := svc.Update(context.Background(), offerID, repository.OfferUpdate{Title: &title}, adminID, roleAdmin)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDelete_BlockedWhileBooked(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, nil, "")

	ownerID := uuid.New()
	offerID := uuid.New()
	repo.On("GetByID", mock.Anything, offerID).Return(&domain.Offer{ID: offerID, OwnerID: ownerID}, nil)
	repo.On("Delete", mock.Anything, offerID).Return(domain.Validationf("offer has bookings and cannot be deleted"))

	err := svc.Delete(context.Background(), offerID, ownerID, "")

	assert.True(t, domain.IsValidation(err))
}

func TestActivityLog_Pagination(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, nil, "")

	offerID := uuid.New()
	repo.On("GetByID", mock.Anything, offerID).Return(&domain.Offer{ID: offerID}, nil)

	entries := make([]domain.StatusLogEntry, repository.PageSize+1)
	for i := range entries {
		entries[i] = domain.StatusLogEntry{ID: uuid.New()}
	}
	repo.On("ListStatusLog", mock.Anything, offerID, (*uuid.UUID)(nil), repository.PageSize+1).Return(entries, nil)

	items, hasMore, err := svc.ActivityLog(context.Background(), offerID, nil)

	assert.NoError(t, err)
	assert.True(t, hasMore)
	assert.Len(t, items, repository.PageSize)
}

func TestSubmitApplication(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, nil, "")

	offerID := uuid.New()
	applicantID := uuid.New()
	repo.On("GetByID", mock.Anything, offerID).Return(&domain.Offer{ID: offerID}, nil)
	repo.On("CreateApplication", mock.Anything, mock.MatchedBy(func(a *domain.Application) bool {
		return a.OfferID == offerID && a.ApplicantID == applicantID && a.Message == "interested"
	})).Return(nil)

	app, err := svc.SubmitApplication(context.Background(), offerID, applicantID, "interested")

	assert.NoError(t, err)
	assert.Equal(t, offerID, app.OfferID)
	repo.AssertExpectations(t)
}

func TestListApplications_OwnerOnly(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, nil, "")

	offerID := uuid.New()
	repo.On("GetByID", mock.Anything, offerID).Return(&domain.Offer{ID: offerID, OwnerID: uuid.New()}, nil)

	_, _, err := svc.ListApplications(context.Background(), offerID, uuid.New(), "", nil)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}
