package email

import (
	"context"
	"fmt"

	"arabon-backend/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

// Send notifies the parties of a reservation event. The transport is a stub;
// deliveries go to stdout.
func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	switch event.Type {
	case "booking_confirmed":
		fmt.Printf("notify user %s and owner %s: booking %s confirmed, deposit %d cents held\n",
			event.UserID, event.OwnerID, event.BookingID, event.DepositCents)
	case "booking_settled":
		fmt.Printf("notify user %s and owner %s: booking %s settled as %s\n",
			event.UserID, event.OwnerID, event.BookingID, event.Status)
	case "offer_status_changed":
		fmt.Printf("notify owner %s: offer %s moved %s -> %s\n",
			event.OwnerID, event.OfferID, event.OldStatus, event.Status)
	default:
		fmt.Printf("notify: unhandled event %s for offer %s\n", event.Type, event.OfferID)
	}
	return nil
}
