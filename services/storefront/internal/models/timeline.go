package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated   = "order_created"
	EventOrderPaid      = "order_paid"
	EventStatusChanged  = "status_changed"
	EventOrderCancelled = "order_cancelled"
	EventPaymentExpired = "payment_expired"
)

type TimelineEvent struct {
	OrderID uuid.UUID   `json:"order_id"`
	Type    string      `json:"type"`
	From    OrderStatus `json:"from,omitempty"`
	To      OrderStatus `json:"to"`
	Note    string      `json:"note,omitempty"`
	At      time.Time   `json:"at"`
}
