package model

import (
	"fmt"
	"time"
)

// PaymentStatus is the status of a payment.  Cancellation is a soft flip.
type PaymentStatus string

const (
	PaymentActive    PaymentStatus = "active"
	PaymentCancelled PaymentStatus = "cancelled"
)

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
)

// ParsePaymentMethod validates a raw method; empty defaults to card.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case "":
		return MethodCard, nil
	case MethodCash, MethodCard, MethodTransfer:
		return PaymentMethod(s), nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, s)
}

// Payment records money received for a ticket or a food order.  In the
// purchase flow exactly one of TicketID and ReservationID is set; food
// order payments carry only OrderID.
type Payment struct {
	ID            uint64        `json:"id"`
	UserID        uint64        `json:"user_id"`
	TicketID      *uint64       `json:"ticket_id,omitempty"`
	ReservationID *uint64       `json:"reservation_id,omitempty"`
	OrderID       *uint64       `json:"order_id,omitempty"`
	Amount        int           `json:"amount"`
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}
