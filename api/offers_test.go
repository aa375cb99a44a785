package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"arabon-backend/internal/domain"
	"arabon-backend/internal/repository"
	"arabon-backend/internal/service/offers"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockOfferUseCase struct {
	mock.Mock
}

func (m *MockOfferUseCase) Create(ctx context.Context, input offers.CreateOfferInput) (*domain.Offer, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

func (m *MockOfferUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

func (m *MockOfferUseCase) List(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, bool, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Offer), args.Bool(1), args.Error(2)
}

func (m *MockOfferUseCase) Search(ctx context.Context, query string, filter repository.OfferFilter) ([]domain.Offer, bool, error) {
	args := m.Called(ctx, query, filter)
	return args.Get(0).([]domain.Offer), args.Bool(1), args.Error(2)
}

func (m *MockOfferUseCase) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OfferStatus, actorID uuid.UUID, actorRole string) (*domain.Offer, error) {
	args := m.Called(ctx, id, status, actorID, actorRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

func (m *MockOfferUseCase) Update(ctx context.Context, id uuid.UUID, upd repository.OfferUpdate, actorID uuid.UUID, actorRole string) (*domain.Offer, error) {
	args := m.Called(ctx, id, upd, actorID, actorRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

func (m *MockOfferUseCase) Delete(ctx context.Context, id, actorID uuid.UUID, actorRole string) error {
	args := m.Called(ctx, id, actorID, actorRole)
	return args.Error(0)
}

func (m *MockOfferUseCase) Stats(ctx context.Context, ownerID *uuid.UUID) (*domain.OfferStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OfferStats), args.Error(1)
}

func (m *MockOfferUseCase) ActivityLog(ctx context.Context, offerID uuid.UUID, cursor *uuid.UUID) ([]domain.StatusLogEntry, bool, error) {
	args := m.Called(ctx, offerID, cursor)
	return args.Get(0).([]domain.StatusLogEntry), args.Bool(1), args.Error(2)
}

func (m *MockOfferUseCase) SubmitApplication(ctx context.Context, offerID, applicantID uuid.UUID, message string) (*domain.Application, error) {
	args := m.Called(ctx, offerID, applicantID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockOfferUseCase) ListApplications(ctx context.Context, offerID, actorID uuid.UUID, actorRole string, cursor *uuid.UUID) ([]domain.Application, bool, error) {
	args := m.Called(ctx, offerID, actorID, actorRole, cursor)
	return args.Get(0).([]domain.Application), args.Bool(1), args.Error(2)
}

func TestOfferHandler_create(t *testing.T) {
	mockService := &MockOfferUseCase{}
	handler := NewOfferHandler(mockService)

	ownerID := uuid.New()
	c, w := authedTestContext(t, ownerID, "")
	body, _ := json.Marshal(map[string]any{
		"title":         "Rehearsal room",
		"deposit_cents": 1500,
	})
	c.Request = httptest.NewRequest("POST", "/offers", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	created := &domain.Offer{
		ID: uuid.New(), OwnerID: ownerID, Title: "Rehearsal room",
		DepositCents: 1500, Status: domain.OfferStatusDraft, BillingPeriod: domain.BillingPeriodHour,
	}
	mockService.On("Create", c.Request.Context(), mock.MatchedBy(func(input offers.CreateOfferInput) bool {
		return input.OwnerID == ownerID && input.Title == "Rehearsal room" && input.DepositCents == 1500
	})).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp offerResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "draft", resp.Status)
	mockService.AssertExpectations(t)
}

func TestOfferHandler_get_notFound(t *testing.T) {
	mockService := &MockOfferUseCase{}
	handler := NewOfferHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	id := uuid.New()
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	c.Request = httptest.NewRequest("GET", "/offers/"+id.String(), nil)

	mockService.On("GetByID", c.Request.Context(), id).Return(nil, domain.ErrNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOfferHandler_list_withFilter(t *testing.T) {
	mockService := &MockOfferUseCase{}
	handler := NewOfferHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/offers?status=confirmed", nil)

	status := domain.OfferStatusConfirmed
	items := []domain.Offer{{ID: uuid.New(), Status: status}}
	mockService.On("List", c.Request.Context(), repository.OfferFilter{Status: &status}).
		Return(items, false, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data    []offerResponse `json:"data"`
		HasMore bool            `json:"has_more"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.False(t, resp.HasMore)
}

func TestOfferHandler_list_badCursor(t *testing.T) {
	mockService := &MockOfferUseCase{}
	handler := NewOfferHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/offers?cursor=not-a-uuid", nil)

	handler.list(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestOfferHandler_updateStatus(t *testing.T) {
	mockService := &MockOfferUseCase{}
	handler := NewOfferHandler(mockService)

	ownerID := uuid.New()
	offerID := uuid.New()
	c, w := authedTestContext(t, ownerID, "")
	c.Params = gin.Params{{Key: "id", Value: offerID.String()}}
	c.Request = httptest.NewRequest("PATCH", "/offers/"+offerID.String()+"/status", bytes.NewReader([]byte(`{"status":"confirmed"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	updated := &domain.Offer{ID: offerID, OwnerID: ownerID, Status: domain.OfferStatusConfirmed}
	mockService.On("UpdateStatus", c.Request.Context(), offerID, domain.OfferStatusConfirmed, ownerID, "").
		Return(updated, nil)

	handler.updateStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp offerResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Status)
}

func TestOfferHandler_delete_blocked(t *testing.T) {
	mockService := &MockOfferUseCase{}
	handler := NewOfferHandler(mockService)

	ownerID := uuid.New()
	offerID := uuid.New()
	c, w := authedTestContext(t, ownerID, "")
	c.Params = gin.Params{{Key: "id", Value: offerID.String()}}
	c.Request = httptest.NewRequest("DELETE", "/offers/"+offerID.String(), nil)

	mockService.On("Delete", c.Request.Context(), offerID, ownerID, "").
		Return(domain.Validationf("offer has bookings and cannot be deleted"))

	handler.delete(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot be deleted")
}

func TestOfferHandler_submitApplication(t *testing.T) {
	mockService := &MockOfferUseCase{}
	handler := NewOfferHandler(mockService)

	applicantID := uuid.New()
	offerID := uuid.New()
	c, w := authedTestContext(t, applicantID, "")
	c.Params = gin.Params{{Key: "id", Value: offerID.String()}}
	c.Request = httptest.NewRequest("POST", "/offers/"+offerID.String()+"/applications", bytes.NewReader([]byte(`{"message":"interested"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	app := &domain.Application{ID: uuid.New(), OfferID: offerID, ApplicantID: applicantID, Message: "interested"}
	mockService.On("SubmitApplication", c.Request.Context(), offerID, applicantID, "interested").Return(app, nil)

	handler.submitApplication(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "interested")
}
