package payment

import "context"

// Gateway abstracts the external payment processor.
type Gateway interface {
	// CreateCheckoutSession requests a hosted payment session describing
	// each line item as a priced unit.
	CreateCheckoutSession(ctx context.Context, referenceID string, items []LineItem) (*CheckoutSession, error)

	// VerifySignature checks the webhook payload against the signature
	// header using the shared secret. A nil return means the payload may be
	// trusted.
	VerifySignature(payload []byte, sigHeader string) error
}
