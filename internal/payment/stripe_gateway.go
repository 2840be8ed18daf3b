package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

const (
	stripeBaseURL = "https://api.stripe.com"

	// Webhook timestamps older than this are rejected to blunt replay.
	signatureTolerance = 5 * time.Minute
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrSignatureExpired = errors.New("webhook signature timestamp outside tolerance")
)

type stripeGateway struct {
	apiKey        string
	webhookSecret string
	successURL    string
	cancelURL     string
	baseURL       string
	httpClient    *http.Client
	now           func() time.Time
}

type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

func NewStripeGateway(cfg StripeConfig) Gateway {
	if cfg.APIKey == "" {
		logger.L().Warn("Stripe API key is empty")
	}
	if cfg.WebhookSecret == "" {
		logger.L().Warn("Stripe webhook secret is empty")
	}

	return &stripeGateway{
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		baseURL:       stripeBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
}

// CreateCheckoutSession posts a form-encoded session request to the hosted
// checkout endpoint and returns the opaque session handle.
func (g *stripeGateway) CreateCheckoutSession(
	ctx context.Context,
	referenceID string,
	items []LineItem,
) (*CheckoutSession, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("reference_id", referenceID),
		zap.Int("item_count", len(items)),
	)

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("client_reference_id", referenceID)
	form.Set("success_url", g.successURL+"?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", g.cancelURL)

	for i, item := range items {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[price_data][currency]", "usd")
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.ImageURL != "" {
			form.Set(prefix+"[price_data][product_data][images][0]", item.ImageURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(g.apiKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log.Info("creating checkout session with processor")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("processor request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read processor response", zap.Error(err))
		return nil, fmt.Errorf("failed to read processor response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("processor returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body),
		)
		return nil, fmt.Errorf("processor error: status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		log.Error("failed to decode processor response", zap.Error(err))
		return nil, err
	}

	log.Info("checkout session created", zap.String("session_id", session.ID))
	return &session, nil
}

// VerifySignature validates the "t=<unix>,v1=<hex>" signature scheme: the
// HMAC-SHA256 of "<t>.<payload>" under the shared secret, with a bounded
// timestamp to blunt replay. Fails closed on any malformed input.
func (g *stripeGateway) VerifySignature(payload []byte, sigHeader string) error {
	if g.webhookSecret == "" {
		return errors.New("webhook secret is not configured")
	}
	if sigHeader == "" {
		return ErrInvalidSignature
	}

	var timestamp int64 = -1
	var candidates []string

	for _, part := range strings.Split(sigHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			candidates = append(candidates, v)
		}
	}

	if timestamp < 0 || len(candidates) == 0 {
		return ErrInvalidSignature
	}

	if d := g.now().Sub(time.Unix(timestamp, 0)); d > signatureTolerance || d < -signatureTolerance {
		return ErrSignatureExpired
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		sig, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, sig) {
			return nil
		}
	}

	return ErrInvalidSignature
}
