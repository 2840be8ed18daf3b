package order

import (
	"time"

	"storefront-be/internal/catalog"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
)

// statusRank orders the lifecycle; transitions only ever move up.
var statusRank = map[OrderStatus]int{
	StatusPending:   0,
	StatusPaid:      1,
	StatusShipped:   2,
	StatusDelivered: 3,
}

func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether from → to is a forward move. Reverse and
// same-state transitions are rejected.
func CanTransition(from, to OrderStatus) bool {
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	return tr > fr
}

type Order struct {
	ID                uint        `json:"id"`
	ExternalID        string      `json:"externalId"`
	UserID            uint        `json:"userId"`
	Items             []OrderItem `json:"products"`
	TotalAmount       float64     `json:"totalAmount"`
	Currency          string      `json:"currency"`
	CheckoutSessionID string      `json:"sessionId,omitempty"`
	Status            OrderStatus `json:"status"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// OrderItem stores the snapshot taken at order time. Product is the live
// catalog record joined on read; display prefers the stored Price.
type OrderItem struct {
	ID        uint             `json:"id"`
	OrderID   uint             `json:"-"`
	ProductID string           `json:"productId"`
	Title     string           `json:"title"`
	Quantity  int              `json:"quantity"`
	Price     float64          `json:"price"`
	Thumbnail string           `json:"thumbnail"`
	Product   *catalog.Product `json:"product,omitempty"`
}

type ProductSnapshot struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Thumbnail string  `json:"thumbnail"`
}

type CheckoutLine struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
	Price    float64         `json:"price"`
}

type CheckoutInput struct {
	Products    []CheckoutLine `json:"products"`
	TotalAmount float64        `json:"totalAmount"`
}

// Transition is the outcome of a webhook-driven status change.
// Transitioned is false when the order had already left pending.
type Transition struct {
	OrderID      uint
	UserID       uint
	Transitioned bool
}
