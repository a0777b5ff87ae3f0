package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

var (
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrReasonRequired    = errors.New("cancellation reason is required when cancelling an order")
	ErrNotPermitted      = errors.New("role is not permitted to issue this transition")
)

// transitions is the forward-only status graph. CANCELLED is reachable only
// before the order is handed to a rider.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusReadyForPickup, StatusCancelled},
	StatusReadyForPickup: {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

func (s OrderStatus) String() string { return string(s) }

var statusLabels = map[OrderStatus]string{
	StatusPending:        "Pending",
	StatusPreparing:      "Preparing",
	StatusReadyForPickup: "Ready for Pickup",
	StatusOutForDelivery: "Out for Delivery",
	StatusDelivered:      "Delivered",
	StatusCancelled:      "Cancelled",
}

// Display returns the human-readable label of s.
func (s OrderStatus) Display() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether next is a direct successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// CheckTransition validates moving from one status to another, including the
// cancellation reason requirement.
func CheckTransition(from, to OrderStatus, reason string) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}
	if to == StatusCancelled && strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

// CanIssue reports whether role may request the from→to edge. It does not
// check the edge itself; combine with CheckTransition.
func CanIssue(role Role, from, to OrderStatus) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleRestaurantOwner:
		return to == StatusPreparing || to == StatusReadyForPickup || to == StatusCancelled
	case RoleRider:
		return to == StatusOutForDelivery || to == StatusDelivered
	case RoleCustomer:
		return to == StatusCancelled && from == StatusPending
	}
	return false
}

// OrderLineItem is a purchased menu item with its price frozen at order time.
type OrderLineItem struct {
	ID           int64           `json:"id,omitempty" gorm:"primaryKey"`
	OrderID      int64           `json:"-" gorm:"index;not null"`
	MenuItem     int64           `json:"menu_item" gorm:"not null"`
	MenuItemName string          `json:"menu_item_name,omitempty"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order" gorm:"type:decimal(10,2)"`
	Subtotal     decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2)"`
}

// Order is a submitted, backend-tracked purchase.
type Order struct {
	ID                 int64           `json:"id" gorm:"primaryKey"`
	Customer           int64           `json:"customer" gorm:"index;not null"`
	CustomerName       string          `json:"customer_name,omitempty" gorm:"-"`
	CustomerEmail      string          `json:"customer_email,omitempty" gorm:"-"`
	Restaurant         int64           `json:"restaurant" gorm:"index;not null"`
	RestaurantName     string          `json:"restaurant_name,omitempty" gorm:"-"`
	Rider              *int64          `json:"rider" gorm:"index"`
	RiderName          *string         `json:"rider_name" gorm:"-"`
	Status             OrderStatus     `json:"status" gorm:"type:varchar(20);index;not null"`
	TotalAmount        decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2)"`
	DeliveryAddress    string          `json:"delivery_address"`
	Items              []OrderLineItem `json:"items" gorm:"foreignKey:OrderID"`
	ItemCount          int             `json:"item_count" gorm:"-"`
	CreatedAt          time.Time       `json:"created_at"`
	PreparedAt         *time.Time      `json:"prepared_at"`
	PickedUpAt         *time.Time      `json:"picked_up_at"`
	DeliveredAt        *time.Time      `json:"delivered_at"`
	CancelledAt        *time.Time      `json:"cancelled_at"`
	CancellationReason string          `json:"cancellation_reason"`
}

// Unassigned reports whether no rider has claimed the order.
func (o Order) Unassigned() bool { return o.Rider == nil }

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	MenuItem int64 `json:"menu_item" validate:"required"`
	Quantity int   `json:"quantity" validate:"required,min=1"`
}

// CreateOrderInput is the checkout submission.
type CreateOrderInput struct {
	Restaurant      int64            `json:"restaurant" validate:"required"`
	DeliveryAddress string           `json:"delivery_address" validate:"required"`
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// StatusUpdate is the transition request body.
type StatusUpdate struct {
	Status             OrderStatus `json:"status" validate:"required"`
	CancellationReason string      `json:"cancellation_reason,omitempty"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Restaurant int64
	Status     OrderStatus
}

// OrderTracking is the tracking summary for one order.
type OrderTracking struct {
	OrderID         int64          `json:"order_id"`
	Status          OrderStatus    `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	PreparedAt      *time.Time     `json:"prepared_at"`
	PickedUpAt      *time.Time     `json:"picked_up_at"`
	DeliveredAt     *time.Time     `json:"delivered_at"`
	CancelledAt     *time.Time     `json:"cancelled_at"`
	DeliveryAddress string         `json:"delivery_address"`
	Restaurant      TrackingPlace  `json:"restaurant"`
	Rider           *TrackingRider `json:"rider,omitempty"`
}

type TrackingPlace struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type TrackingRider struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
