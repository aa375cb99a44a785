package booking

import (
	"context"
	"math"
	"time"

	"arabon-backend/internal/coupon"
	"arabon-backend/internal/domain"
	"arabon-backend/internal/kafka"
	"arabon-backend/internal/repository"
	"github.com/google/uuid"
)

const (
	reasonBookingDeposit  = "booking_deposit"
	reasonBookingRefund   = "booking_refund"
	reasonBookingComplete = "booking_complete"
)

// RoleAdmin satisfies every owner check.
const RoleAdmin = "admin"

type BookingUseCase interface {
	ConfirmBooking(ctx context.Context, input ConfirmBookingInput) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status domain.BookingStatus, actorID uuid.UUID, actorRole string) (*domain.Booking, error)
	GetBooking(ctx context.Context, id, actorID uuid.UUID, actorRole string) (*domain.Booking, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID, filter repository.BookingFilter) ([]domain.Booking, bool, error)
	ListOfferBookings(ctx context.Context, offerID, actorID uuid.UUID, actorRole string, filter repository.BookingFilter) ([]domain.Booking, bool, error)
	ValidateCoupon(ctx context.Context, userID uuid.UUID, code string, orderAmountCents int64) (*CouponPreview, error)
	Kpis(ctx context.Context, offerID *uuid.UUID) (*domain.BookingKpis, error)
}

// Wallet is the external ledger. Every settlement is one call against it.
type Wallet interface {
	HoldFunds(ctx context.Context, userID uuid.UUID, amountCents int64, referenceID, reason string) (string, error)
	RefundHeldFunds(ctx context.Context, userID uuid.UUID, amountCents int64, referenceID, reason string) error
	CompleteEscrowTransfer(ctx context.Context, fromUserID, toUserID uuid.UUID, amountCents int64, referenceID, reason string) error
}

// CouponService is the external discount service.
type CouponService interface {
	FindByID(ctx context.Context, couponID string) (*coupon.Coupon, error)
	Validate(ctx context.Context, code string, orderAmountCents int64, userID uuid.UUID, hasPreviousBooking bool) (*coupon.ValidationResult, error)
	Apply(ctx context.Context, couponID string, userID uuid.UUID) error
}

type Cache interface {
	AcquireSlotLock(ctx context.Context, slotID uuid.UUID, ttl time.Duration) (bool, error)
	ReleaseSlotLock(ctx context.Context, slotID uuid.UUID) error
	GetKpis(ctx context.Context, offerID *uuid.UUID) (*domain.BookingKpis, error)
	SetKpis(ctx context.Context, offerID *uuid.UUID, kpis *domain.BookingKpis) error
	InvalidateKpis(ctx context.Context, offerID uuid.UUID) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings    repository.BookingRepository
	offers      repository.OfferRepository
	slots       repository.SlotRepository
	wallet      Wallet
	coupons     CouponService
	cache       Cache
	producer    Producer
	topic       string
	slotLockTTL time.Duration
}

type ConfirmBookingInput struct {
	OfferID      uuid.UUID
	UserID       uuid.UUID
	SlotID       uuid.UUID
	DepositCents *int64
	CouponCode   string
	CouponID     string
}

// CouponPreview is the read-only result of validating a code against an
// order amount.
type CouponPreview struct {
	Valid            bool   `json:"valid"`
	Message          string `json:"message,omitempty"`
	DiscountCents    int64  `json:"discount_cents,omitempty"`
	FinalAmountCents int64  `json:"final_amount_cents,omitempty"`
}

func NewBookingService(
	bookings repository.BookingRepository,
	offers repository.OfferRepository,
	slots repository.SlotRepository,
	wallet Wallet,
	coupons CouponService,
	cache Cache,
	producer Producer,
	topic string,
	slotLockTTL time.Duration,
) *BookingService {
	return &BookingService{
		bookings:    bookings,
		offers:      offers,
		slots:       slots,
		wallet:      wallet,
		coupons:     coupons,
		cache:       cache,
		producer:    producer,
		topic:       topic,
		slotLockTTL: slotLockTTL,
	}
}

// ConfirmBooking reserves a slot and opens a wallet hold as one logical
// operation. The booking record is written first so its id can reference the
// hold; any downstream failure deletes it again and releases whatever was
// already taken. The slot reservation itself is a conditional update, so two
// concurrent confirmations of the same slot cannot both succeed.
func (s *BookingService) ConfirmBooking(ctx context.Context, input ConfirmBookingInput) (*domain.Booking, error) {
	offer, err := s.offers.GetByID(ctx, input.OfferID)
	if err != nil {
		return nil, err
	}
	if offer.OwnerID == input.UserID {
		return nil, domain.Validationf("owner cannot book their own offer")
	}

	amount := offer.DepositCents
	if input.DepositCents != nil {
		amount = *input.DepositCents
	}
	if amount < 0 {
		return nil, domain.Validationf("deposit amount cannot be negative")
	}

	slot, err := s.slots.GetByID(ctx, input.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.OfferID != input.OfferID {
		return nil, domain.Validationf("slot does not belong to offer")
	}
	if slot.IsBooked {
		return nil, domain.Validationf("slot already booked")
	}

	var couponID, couponCode string
	var discount int64
	if input.CouponCode != "" || input.CouponID != "" {
		couponID = input.CouponID
		couponCode = input.CouponCode
		if couponCode == "" {
			c, err := s.coupons.FindByID(ctx, couponID)
			if err != nil {
				return nil, err
			}
			if c == nil {
				return nil, domain.Validationf("coupon not found")
			}
			couponCode = c.Code
		}

		prior, err := s.bookings.CountByUser(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		result, err := s.coupons.Validate(ctx, couponCode, amount, input.UserID, prior > 0)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, domain.Validationf("%s", result.Message)
		}
		if result.CouponID != "" {
			couponID = result.CouponID
		}
		discount = result.DiscountCents
		amount -= discount
		if amount < 0 {
			amount = 0
		}
	}

	locked := false
	if s.cache != nil {
		ok, err := s.cache.AcquireSlotLock(ctx, input.SlotID, s.slotLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.Validationf("slot already booked")
		}
		locked = true
	}
	unlock := func() {
		if locked {
			_ = s.cache.ReleaseSlotLock(ctx, input.SlotID)
		}
	}

	booking := &domain.Booking{
		ID:            uuid.New(),
		UserID:        input.UserID,
		OfferID:       input.OfferID,
		SlotID:        input.SlotID,
		Status:        domain.BookingStatusConfirmed,
		DepositCents:  amount,
		CouponID:      couponID,
		CouponCode:    couponCode,
		DiscountCents: discount,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		unlock()
		return nil, err
	}

	held := false
	compensate := func(cause error) (*domain.Booking, error) {
		if held {
			_ = s.wallet.RefundHeldFunds(ctx, input.UserID, amount, booking.ID.String(), reasonBookingRefund)
		}
		_ = s.bookings.Delete(ctx, booking.ID)
		unlock()
		return nil, cause
	}

	if amount > 0 {
		txID, err := s.wallet.HoldFunds(ctx, input.UserID, amount, booking.ID.String(), reasonBookingDeposit)
		if err != nil {
			return compensate(err)
		}
		held = true
		if err := s.bookings.SetWalletTx(ctx, booking.ID, txID); err != nil {
			return compensate(err)
		}
	}

	if couponID != "" {
		if err := s.coupons.Apply(ctx, couponID, input.UserID); err != nil {
			return compensate(err)
		}
	}

	if err := s.slots.Reserve(ctx, input.SlotID, input.UserID); err != nil {
		return compensate(err)
	}
	unlock()

	if s.cache != nil {
		_ = s.cache.InvalidateKpis(ctx, input.OfferID)
	}
	s.publish(ctx, "booking_confirmed", booking, offer.OwnerID)

	return s.bookings.GetByID(ctx, booking.ID)
}

// UpdateStatus moves a confirmed booking to a terminal status. The wallet
// settlement runs first; the status is persisted only once it succeeded, via
// a conditional update keyed on the confirmed pre-image.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status domain.BookingStatus, actorID uuid.UUID, actorRole string) (*domain.Booking, error) {
	if !domain.TerminalBookingStatus(status) {
		return nil, domain.Validationf("invalid booking status %q", status)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	offer, err := s.offers.GetByID(ctx, booking.OfferID)
	if err != nil {
		return nil, err
	}
	if actorRole != RoleAdmin && actorID != offer.OwnerID {
		return nil, domain.ErrForbidden
	}
	if booking.Status != domain.BookingStatusConfirmed {
		return nil, domain.Validationf("cannot change status of a non-confirmed booking")
	}

	if booking.DepositCents > 0 {
		ref := booking.ID.String()
		switch status {
		case domain.BookingStatusCancelled:
			err = s.wallet.RefundHeldFunds(ctx, booking.UserID, booking.DepositCents, ref, reasonBookingRefund)
		case domain.BookingStatusCompleted, domain.BookingStatusNoShow:
			err = s.wallet.CompleteEscrowTransfer(ctx, booking.UserID, offer.OwnerID, booking.DepositCents, ref, reasonBookingComplete)
		}
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.bookings.UpdateStatusIfConfirmed(ctx, bookingID, status)
	if err != nil {
		return nil, err
	}

	// completed keeps the slot: the service was rendered. Cancellation and
	// no-show make the window bookable again.
	if status == domain.BookingStatusCancelled || status == domain.BookingStatusNoShow {
		_ = s.slots.Release(ctx, booking.SlotID)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateKpis(ctx, booking.OfferID)
	}
	s.publish(ctx, "booking_settled", updated, offer.OwnerID)
	return updated, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id, actorID uuid.UUID, actorRole string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorRole == RoleAdmin || booking.UserID == actorID {
		return booking, nil
	}
	offer, err := s.offers.GetByID(ctx, booking.OfferID)
	if err != nil {
		return nil, err
	}
	if offer.OwnerID != actorID {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID uuid.UUID, filter repository.BookingFilter) ([]domain.Booking, bool, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID, filter, repository.PageSize+1)
	if err != nil {
		return nil, false, err
	}
	return trimPage(bookings)
}

func (s *BookingService) ListOfferBookings(ctx context.Context, offerID, actorID uuid.UUID, actorRole string, filter repository.BookingFilter) ([]domain.Booking, bool, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, false, err
	}
	if actorRole != RoleAdmin && offer.OwnerID != actorID {
		return nil, false, domain.ErrForbidden
	}

	bookings, err := s.bookings.ListByOffer(ctx, offerID, filter, repository.PageSize+1)
	if err != nil {
		return nil, false, err
	}
	return trimPage(bookings)
}

// ValidateCoupon previews a discount without creating or consuming anything.
func (s *BookingService) ValidateCoupon(ctx context.Context, userID uuid.UUID, code string, orderAmountCents int64) (*CouponPreview, error) {
	prior, err := s.bookings.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result, err := s.coupons.Validate(ctx, code, orderAmountCents, userID, prior > 0)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return &CouponPreview{Valid: false, Message: result.Message}, nil
	}

	final := orderAmountCents - result.DiscountCents
	if final < 0 {
		final = 0
	}
	return &CouponPreview{
		Valid:            true,
		DiscountCents:    result.DiscountCents,
		FinalAmountCents: final,
	}, nil
}

func (s *BookingService) Kpis(ctx context.Context, offerID *uuid.UUID) (*domain.BookingKpis, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetKpis(ctx, offerID); err == nil && cached != nil {
			return cached, nil
		}
	}

	counts, err := s.bookings.CountByStatus(ctx, offerID)
	if err != nil {
		return nil, err
	}

	kpis := computeKpis(counts)
	if s.cache != nil {
		_ = s.cache.SetKpis(ctx, offerID, kpis)
	}
	return kpis, nil
}

func computeKpis(counts map[domain.BookingStatus]int64) *domain.BookingKpis {
	confirmed := counts[domain.BookingStatusConfirmed]
	completed := counts[domain.BookingStatusCompleted]
	noShow := counts[domain.BookingStatusNoShow]
	var total int64
	for _, c := range counts {
		total += c
	}
	attended := completed + noShow

	return &domain.BookingKpis{
		CountByStatus:     counts,
		TotalBookings:     total,
		PaidBookingsCount: confirmed + completed + noShow,
		ConversionRate:    percentage(attended, total),
		NoShowRate:        percentage(noShow, attended),
		CalendarAccuracy:  percentage(completed, attended),
	}
}

func percentage(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return math.Round(float64(numerator)/float64(denominator)*100*100) / 100
}

func trimPage(bookings []domain.Booking) ([]domain.Booking, bool, error) {
	if len(bookings) > repository.PageSize {
		return bookings[:repository.PageSize], true, nil
	}
	return bookings, false, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, ownerID uuid.UUID) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.ReservationEvent{
		Type:         eventType,
		OfferID:      booking.OfferID.String(),
		BookingID:    booking.ID.String(),
		SlotID:       booking.SlotID.String(),
		UserID:       booking.UserID.String(),
		OwnerID:      ownerID.String(),
		Status:       string(booking.Status),
		DepositCents: booking.DepositCents,
		OccurredAt:   time.Now(),
	}
	_ = s.producer.Publish(ctx, s.topic, booking.ID.String(), event)
}

var _ BookingUseCase = (*BookingService)(nil)
