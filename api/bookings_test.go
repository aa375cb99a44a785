package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"arabon-backend/internal/domain"
	"arabon-backend/internal/repository"
	"arabon-backend/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) ConfirmBooking(ctx context.Context, input booking.ConfirmBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status domain.BookingStatus, actorID uuid.UUID, actorRole string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, status, actorID, actorRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, id, actorID uuid.UUID, actorRole string) (*domain.Booking, error) {
	args := m.Called(ctx, id, actorID, actorRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListUserBookings(ctx context.Context, userID uuid.UUID, filter repository.BookingFilter) ([]domain.Booking, bool, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]domain.Booking), args.Bool(1), args.Error(2)
}

func (m *MockBookingUseCase) ListOfferBookings(ctx context.Context, offerID, actorID uuid.UUID, actorRole string, filter repository.BookingFilter) ([]domain.Booking, bool, error) {
	args := m.Called(ctx, offerID, actorID, actorRole, filter)
	return args.Get(0).([]domain.Booking), args.Bool(1), args.Error(2)
}

func (m *MockBookingUseCase) ValidateCoupon(ctx context.Context, userID uuid.UUID, code string, orderAmountCents int64) (*booking.CouponPreview, error) {
	args := m.Called(ctx, userID, code, orderAmountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CouponPreview), args.Error(1)
}

func (m *MockBookingUseCase) Kpis(ctx context.Context, offerID *uuid.UUID) (*domain.BookingKpis, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingKpis), args.Error(1)
}

func authedTestContext(t *testing.T, userID uuid.UUID, role string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("userID", userID)
	c.Set("role", role)
	return c, w
}

func TestBookingHandler_confirm(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	userID := uuid.New()
	offerID := uuid.New()
	slotID := uuid.New()
	c, w := authedTestContext(t, userID, "")

	body, _ := json.Marshal(map[string]string{
		"offer_id": offerID.String(),
		"slot_id":  slotID.String(),
	})
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	created := &domain.Booking{
		ID: uuid.New(), UserID: userID, OfferID: offerID, SlotID: slotID,
		Status: domain.BookingStatusConfirmed, DepositCents: 200,
	}
	mockService.On("ConfirmBooking", c.Request.Context(), booking.ConfirmBookingInput{
		OfferID: offerID,
		UserID:  userID,
		SlotID:  slotID,
	}).Return(created, nil)

	handler.confirm(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, int64(200), resp.DepositCents)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_confirm_badOfferID(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := authedTestContext(t, uuid.New(), "")
	body, _ := json.Marshal(map[string]string{"offer_id": "nope", "slot_id": uuid.New().String()})
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.confirm(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ConfirmBooking", mock.Anything, mock.Anything)
}

func TestBookingHandler_confirm_validationError(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	userID := uuid.New()
	c, w := authedTestContext(t, userID, "")
	body, _ := json.Marshal(map[string]string{
		"offer_id": uuid.New().String(),
		"slot_id":  uuid.New().String(),
	})
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("ConfirmBooking", c.Request.Context(), mock.Anything).
		Return(nil, domain.Validationf("slot already booked"))

	handler.confirm(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "slot already booked")
}

func TestBookingHandler_get_forbidden(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	userID := uuid.New()
	bookingID := uuid.New()
	c, w := authedTestContext(t, userID, "")
	c.Params = gin.Params{{Key: "id", Value: bookingID.String()}}
	c.Request = httptest.NewRequest("GET", "/bookings/"+bookingID.String(), nil)

	mockService.On("GetBooking", c.Request.Context(), bookingID, userID, "").
		Return(nil, domain.ErrForbidden)

	handler.get(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookingHandler_listMine(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	userID := uuid.New()
	c, w := authedTestContext(t, userID, "")
	c.Request = httptest.NewRequest("GET", "/bookings?status=confirmed", nil)

	status := domain.BookingStatusConfirmed
	items := []domain.Booking{{ID: uuid.New(), Status: status}, {ID: uuid.New(), Status: status}}
	mockService.On("ListUserBookings", c.Request.Context(), userID, repository.BookingFilter{Status: &status}).
		Return(items, true, nil)

	handler.listMine(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data       []bookingResponse `json:"data"`
		NextCursor string            `json:"next_cursor"`
		HasMore    bool              `json:"has_more"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.True(t, resp.HasMore)
	assert.Equal(t, items[1].ID.String(), resp.NextCursor)
}

func TestBookingHandler_listMine_badFrom(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := authedTestContext(t, uuid.New(), "")
	c.Request = httptest.NewRequest("GET", "/bookings?from=yesterdayish", nil)

	handler.listMine(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ListUserBookings", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_updateStatus(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	ownerID := uuid.New()
	bookingID := uuid.New()
	c, w := authedTestContext(t, ownerID, "")
	c.Params = gin.Params{{Key: "id", Value: bookingID.String()}}
	body := bytes.NewReader([]byte(`{"status":"completed"}`))
	c.Request = httptest.NewRequest("PATCH", fmt.Sprintf("/bookings/%s/status", bookingID), body)
	c.Request.Header.Set("Content-Type", "application/json")

	updated := &domain.Booking{ID: bookingID, Status: domain.BookingStatusCompleted}
	mockService.On("UpdateStatus", c.Request.Context(), bookingID, domain.BookingStatusCompleted, ownerID, "").
		Return(updated, nil)

	handler.updateStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
}

func TestBookingHandler_couponPreview(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	userID := uuid.New()
	c, w := authedTestContext(t, userID, "")
	body := bytes.NewReader([]byte(`{"code":"SAVE50","order_amount_cents":200}`))
	c.Request = httptest.NewRequest("POST", "/bookings/coupon-preview", body)
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("ValidateCoupon", c.Request.Context(), userID, "SAVE50", int64(200)).
		Return(&booking.CouponPreview{Valid: true, DiscountCents: 50, FinalAmountCents: 150}, nil)

	handler.couponPreview(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"final_amount_cents":150`)
}

func TestBookingHandler_kpis(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := authedTestContext(t, uuid.New(), "")
	c.Request = httptest.NewRequest("GET", "/bookings/kpis", nil)

	mockService.On("Kpis", c.Request.Context(), (*uuid.UUID)(nil)).Return(&domain.BookingKpis{
		TotalBookings:  10,
		ConversionRate: 70,
	}, nil)

	handler.kpis(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_bookings":10`)
}
