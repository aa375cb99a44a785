package api

import (
	"net/http"
	"time"

	"arabon-backend/internal/domain"
	"arabon-backend/internal/mw"
	"arabon-backend/internal/service/slots"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/now"
)

type SlotHandler struct {
	service slots.SlotUseCase
}

func NewSlotHandler(service slots.SlotUseCase) *SlotHandler {
	return &SlotHandler{service: service}
}

func (h *SlotHandler) Register(public, authed *gin.RouterGroup) {
	public.GET("/offers/:id/slots", h.listAvailable)

	authed.POST("/offers/:id/slots", h.create)
	authed.POST("/slots/:id/release", h.release)
}

type slotResponse struct {
	ID              string  `json:"id"`
	OfferID         string  `json:"offer_id"`
	StartsAt        string  `json:"starts_at"`
	DurationMinutes int     `json:"duration_minutes"`
	IsBooked        bool    `json:"is_booked"`
	BookedBy        *string `json:"booked_by,omitempty"`
}

func toSlotResponse(s *domain.Slot) slotResponse {
	resp := slotResponse{
		ID:              s.ID.String(),
		OfferID:         s.OfferID.String(),
		StartsAt:        s.StartsAt.Format(time.RFC3339),
		DurationMinutes: s.DurationMinutes,
		IsBooked:        s.IsBooked,
	}
	if s.BookedBy != nil {
		bookedBy := s.BookedBy.String()
		resp.BookedBy = &bookedBy
	}
	return resp
}

func (h *SlotHandler) create(c *gin.Context) {
	offerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input slots.CreateSlotsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CreateSlots(c.Request.Context(), offerID, mw.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]slotResponse, 0, len(result.Slots))
	for i := range result.Slots {
		data = append(data, toSlotResponse(&result.Slots[i]))
	}
	c.JSON(http.StatusCreated, gin.H{"created": result.Created, "slots": data})
}

func (h *SlotHandler) listAvailable(c *gin.Context) {
	offerID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := now.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := now.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		to = &t
	}

	available, err := h.service.GetAvailableSlots(c.Request.Context(), offerID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]slotResponse, 0, len(available))
	for i := range available {
		data = append(data, toSlotResponse(&available[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (h *SlotHandler) release(c *gin.Context) {
	slotID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.ReleaseSlot(c.Request.Context(), slotID, mw.UserID(c), mw.Role(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
