package payment

import (
	"encoding/json"
	"time"
)

type Payment struct {
	ID        int64
	OrderID   uint
	SessionID string
	Amount    int64 // minor currency units
	Currency  string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
)

// LineItem is one priced unit of a checkout session request. UnitAmount is
// in minor currency units.
type LineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int
}

// CheckoutSession is the hosted-payment-page handle returned by the
// processor.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Event is the decoded webhook notification.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

const EventCheckoutSessionCompleted = "checkout.session.completed"

func ParseEvent(payload []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
