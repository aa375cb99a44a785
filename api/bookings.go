package api

import (
	"net/http"
	"time"

	"arabon-backend/internal/domain"
	"arabon-backend/internal/mw"
	"arabon-backend/internal/repository"
	"arabon-backend/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/now"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(authed *gin.RouterGroup, confirm gin.HandlerFunc) {
	authed.POST("/bookings", confirm, h.confirm)
	authed.GET("/bookings", h.listMine)
	authed.GET("/bookings/kpis", h.kpis)
	authed.POST("/bookings/coupon-preview", h.couponPreview)
	authed.GET("/bookings/:id", h.get)
	authed.PATCH("/bookings/:id/status", h.updateStatus)
	authed.GET("/offers/:id/bookings", h.listForOffer)
}

type confirmBookingRequest struct {
	OfferID      string `json:"offer_id"`
	SlotID       string `json:"slot_id"`
	DepositCents *int64 `json:"deposit_cents"`
	CouponCode   string `json:"coupon_code"`
	CouponID     string `json:"coupon_id"`
}

type bookingResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	OfferID       string `json:"offer_id"`
	SlotID        string `json:"slot_id"`
	Status        string `json:"status"`
	DepositCents  int64  `json:"deposit_cents"`
	WalletTxID    string `json:"wallet_tx_id,omitempty"`
	CouponID      string `json:"coupon_id,omitempty"`
	CouponCode    string `json:"coupon_code,omitempty"`
	DiscountCents int64  `json:"discount_cents,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:            b.ID.String(),
		UserID:        b.UserID.String(),
		OfferID:       b.OfferID.String(),
		SlotID:        b.SlotID.String(),
		Status:        string(b.Status),
		DepositCents:  b.DepositCents,
		WalletTxID:    b.WalletTxID,
		CouponID:      b.CouponID,
		CouponCode:    b.CouponCode,
		DiscountCents: b.DiscountCents,
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
}

func (h *BookingHandler) confirm(c *gin.Context) {
	var req confirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	offerID, err := uuid.Parse(req.OfferID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer_id"})
		return
	}
	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slot_id"})
		return
	}

	created, err := h.service.ConfirmBooking(c.Request.Context(), booking.ConfirmBookingInput{
		OfferID:      offerID,
		UserID:       mw.UserID(c),
		SlotID:       slotID,
		DepositCents: req.DepositCents,
		CouponCode:   req.CouponCode,
		CouponID:     req.CouponID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id, mw.UserID(c), mw.Role(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) listMine(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}
	items, hasMore, err := h.service.ListUserBookings(c.Request.Context(), mw.UserID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondList(c, items, hasMore)
}

func (h *BookingHandler) listForOffer(c *gin.Context) {
	offerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}
	items, hasMore, err := h.service.ListOfferBookings(c.Request.Context(), offerID, mw.UserID(c), mw.Role(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondList(c, items, hasMore)
}

func (h *BookingHandler) respondList(c *gin.Context, items []domain.Booking, hasMore bool) {
	data := make([]bookingResponse, 0, len(items))
	for i := range items {
		data = append(data, toBookingResponse(&items[i]))
	}
	var nextCursor string
	if len(data) > 0 {
		nextCursor = data[len(data)-1].ID
	}
	c.JSON(http.StatusOK, listPayload(data, nextCursor, hasMore))
}

func (h *BookingHandler) parseFilter(c *gin.Context) (repository.BookingFilter, bool) {
	var filter repository.BookingFilter
	if s := c.Query("status"); s != "" {
		status := domain.BookingStatus(s)
		filter.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		t, err := now.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return filter, false
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := now.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return filter, false
		}
		filter.To = &t
	}
	cursor, ok := parseCursor(c)
	if !ok {
		return filter, false
	}
	filter.Cursor = cursor
	return filter, true
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), id, domain.BookingStatus(req.Status), mw.UserID(c), mw.Role(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) couponPreview(c *gin.Context) {
	var req struct {
		Code             string `json:"code"`
		OrderAmountCents int64  `json:"order_amount_cents"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	preview, err := h.service.ValidateCoupon(c.Request.Context(), mw.UserID(c), req.Code, req.OrderAmountCents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *BookingHandler) kpis(c *gin.Context) {
	var offerID *uuid.UUID
	if raw := c.Query("offer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer_id"})
			return
		}
		offerID = &id
	}
	kpis, err := h.service.Kpis(c.Request.Context(), offerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}
