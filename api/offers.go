package api

import (
	"net/http"
	"time"

	"arabon-backend/internal/domain"
	"arabon-backend/internal/mw"
	"arabon-backend/internal/repository"
	"arabon-backend/internal/service/offers"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OfferHandler struct {
	service offers.OfferUseCase
}

func NewOfferHandler(service offers.OfferUseCase) *OfferHandler {
	return &OfferHandler{service: service}
}

// Register wires the public (read) and authenticated (write) offer routes.
func (h *OfferHandler) Register(public, authed *gin.RouterGroup) {
	public.GET("/offers", h.list)
	public.GET("/offers/search", h.search)
	public.GET("/offers/stats", h.stats)
	public.GET("/offers/:id", h.get)
	public.GET("/offers/:id/activity", h.activity)

	authed.POST("/offers", h.create)
	authed.PATCH("/offers/:id", h.update)
	authed.PATCH("/offers/:id/status", h.updateStatus)
	authed.DELETE("/offers/:id", h.delete)
	authed.POST("/offers/:id/applications", h.submitApplication)
	authed.GET("/offers/:id/applications", h.listApplications)
}

type createOfferRequest struct {
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	DepositCents        int64             `json:"deposit_cents"`
	ScheduledAt         *time.Time        `json:"scheduled_at"`
	Metadata            map[string]string `json:"metadata"`
	MediaURLs           []string          `json:"media_urls"`
	ContactInfo         string            `json:"contact_info"`
	Category            string            `json:"category"`
	FullPriceCents      int64             `json:"full_price_cents"`
	BillingPeriod       string            `json:"billing_period"`
	PricePerPeriodCents int64             `json:"price_per_period_cents"`
}

type updateOfferRequest struct {
	Title               *string           `json:"title"`
	Description         *string           `json:"description"`
	DepositCents        *int64            `json:"deposit_cents"`
	ScheduledAt         *time.Time        `json:"scheduled_at"`
	Metadata            map[string]string `json:"metadata"`
	Status              *string           `json:"status"`
	MediaURLs           []string          `json:"media_urls"`
	ContactInfo         *string           `json:"contact_info"`
	Category            *string           `json:"category"`
	FullPriceCents      *int64            `json:"full_price_cents"`
	BillingPeriod       *string           `json:"billing_period"`
	PricePerPeriodCents *int64            `json:"price_per_period_cents"`
}

type offerResponse struct {
	ID                  string            `json:"id"`
	OwnerID             string            `json:"owner_id"`
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	DepositCents        int64             `json:"deposit_cents"`
	ScheduledAt         *time.Time        `json:"scheduled_at,omitempty"`
	Metadata            map[string]string `json:"metadata"`
	Status              string            `json:"status"`
	MediaURLs           []string          `json:"media_urls"`
	ContactInfo         string            `json:"contact_info"`
	Category            string            `json:"category"`
	FullPriceCents      int64             `json:"full_price_cents"`
	BillingPeriod       string            `json:"billing_period"`
	PricePerPeriodCents int64             `json:"price_per_period_cents"`
	CreatedAt           string            `json:"created_at"`
	UpdatedAt           string            `json:"updated_at"`
}

func toOfferResponse(o *domain.Offer) offerResponse {
	return offerResponse{
		ID:                  o.ID.String(),
		OwnerID:             o.OwnerID.String(),
		Title:               o.Title,
		Description:         o.Description,
		DepositCents:        o.DepositCents,
		ScheduledAt:         o.ScheduledAt,
		Metadata:            o.Metadata,
		Status:              string(o.Status),
		MediaURLs:           o.MediaURLs,
		ContactInfo:         o.ContactInfo,
		Category:            o.Category,
		FullPriceCents:      o.FullPriceCents,
		BillingPeriod:       string(o.BillingPeriod),
		PricePerPeriodCents: o.PricePerPeriodCents,
		CreatedAt:           o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           o.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *OfferHandler) create(c *gin.Context) {
	var req createOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offer, err := h.service.Create(c.Request.Context(), offers.CreateOfferInput{
		OwnerID:             mw.UserID(c),
		Title:               req.Title,
		Description:         req.Description,
		DepositCents:        req.DepositCents,
		ScheduledAt:         req.ScheduledAt,
		Metadata:            req.Metadata,
		MediaURLs:           req.MediaURLs,
		ContactInfo:         req.ContactInfo,
		Category:            req.Category,
		FullPriceCents:      req.FullPriceCents,
		BillingPeriod:       domain.BillingPeriod(req.BillingPeriod),
		PricePerPeriodCents: req.PricePerPeriodCents,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOfferResponse(offer))
}

func (h *OfferHandler) get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	offer, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

func (h *OfferHandler) list(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}
	items, hasMore, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondList(c, items, hasMore)
}

func (h *OfferHandler) search(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}
	items, hasMore, err := h.service.Search(c.Request.Context(), c.Query("q"), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondList(c, items, hasMore)
}

func (h *OfferHandler) respondList(c *gin.Context, items []domain.Offer, hasMore bool) {
	data := make([]offerResponse, 0, len(items))
	for i := range items {
		data = append(data, toOfferResponse(&items[i]))
	}
	var nextCursor string
	if len(data) > 0 {
		nextCursor = data[len(data)-1].ID
	}
	c.JSON(http.StatusOK, listPayload(data, nextCursor, hasMore))
}

func (h *OfferHandler) parseFilter(c *gin.Context) (repository.OfferFilter, bool) {
	var filter repository.OfferFilter
	if s := c.Query("status"); s != "" {
		status := domain.OfferStatus(s)
		filter.Status = &status
	}
	if o := c.Query("owner_id"); o != "" {
		ownerID, err := uuid.Parse(o)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner_id"})
			return filter, false
		}
		filter.OwnerID = &ownerID
	}
	cursor, ok := parseCursor(c)
	if !ok {
		return filter, false
	}
	filter.Cursor = cursor
	return filter, true
}

func (h *OfferHandler) updateStatus(c *gin.Context) {
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

	offer, err := h.service.UpdateStatus(c.Request.Context(), id, domain.OfferStatus(req.Status), mw.UserID(c), mw.Role(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

func (h *OfferHandler) update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := repository.OfferUpdate{
		Title:               req.Title,
		Description:         req.Description,
		DepositCents:        req.DepositCents,
		ScheduledAt:         req.ScheduledAt,
		Metadata:            req.Metadata,
		MediaURLs:           req.MediaURLs,
		ContactInfo:         req.ContactInfo,
		Category:            req.Category,
		FullPriceCents:      req.FullPriceCents,
		PricePerPeriodCents: req.PricePerPeriodCents,
	}
	if req.Status != nil {
		status := domain.OfferStatus(*req.Status)
		upd.Status = &status
	}
	if req.BillingPeriod != nil {
		period := domain.BillingPeriod(*req.BillingPeriod)
		upd.BillingPeriod = &period
	}

	offer, err := h.service.Update(c.Request.Context(), id, upd, mw.UserID(c), mw.Role(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

func (h *OfferHandler) delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, mw.UserID(c), mw.Role(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OfferHandler) stats(c *gin.Context) {
	var ownerID *uuid.UUID
	if o := c.Query("owner_id"); o != "" {
		id, err := uuid.Parse(o)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner_id"})
			return
		}
		ownerID = &id
	}
	stats, err := h.service.Stats(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type statusLogResponse struct {
	ID        string  `json:"id"`
	OfferID   string  `json:"offer_id"`
	OldStatus *string `json:"old_status,omitempty"`
	NewStatus string  `json:"new_status"`
	ActorID   *string `json:"actor_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func (h *OfferHandler) activity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cursor, ok := parseCursor(c)
	if !ok {
		return
	}

	entries, hasMore, err := h.service.ActivityLog(c.Request.Context(), id, cursor)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]statusLogResponse, 0, len(entries))
	for _, e := range entries {
		resp := statusLogResponse{
			ID:        e.ID.String(),
			OfferID:   e.OfferID.String(),
			NewStatus: string(e.NewStatus),
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
		if e.OldStatus != nil {
			old := string(*e.OldStatus)
			resp.OldStatus = &old
		}
		if e.ActorID != nil {
			actor := e.ActorID.String()
			resp.ActorID = &actor
		}
		data = append(data, resp)
	}
	var nextCursor string
	if len(data) > 0 {
		nextCursor = data[len(data)-1].ID
	}
	c.JSON(http.StatusOK, listPayload(data, nextCursor, hasMore))
}

type applicationResponse struct {
	ID          string `json:"id"`
	OfferID     string `json:"offer_id"`
	ApplicantID string `json:"applicant_id"`
	Message     string `json:"message"`
	CreatedAt   string `json:"created_at"`
}

func (h *OfferHandler) submitApplication(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.service.SubmitApplication(c.Request.Context(), id, mw.UserID(c), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, applicationResponse{
		ID:          app.ID.String(),
		OfferID:     app.OfferID.String(),
		ApplicantID: app.ApplicantID.String(),
		Message:     app.Message,
		CreatedAt:   app.CreatedAt.Format(time.RFC3339),
	})
}

func (h *OfferHandler) listApplications(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cursor, ok := parseCursor(c)
	if !ok {
		return
	}

	apps, hasMore, err := h.service.ListApplications(c.Request.Context(), id, mw.UserID(c), mw.Role(c), cursor)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		data = append(data, applicationResponse{
			ID:          a.ID.String(),
			OfferID:     a.OfferID.String(),
			ApplicantID: a.ApplicantID.String(),
			Message:     a.Message,
			CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		})
	}
	var nextCursor string
	if len(data) > 0 {
		nextCursor = data[len(data)-1].ID
	}
	c.JSON(http.StatusOK, listPayload(data, nextCursor, hasMore))
}
