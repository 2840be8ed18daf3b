package webhook

import (
	"errors"
	"io"
	"net/http"

	"storefront-be/internal/cart"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

const (
	signatureHeader = "Stripe-Signature"
	provider        = "stripe"

	// Hosted checkout payloads are small; anything larger is garbage.
	maxPayloadBytes = 1 << 20
)

// Handler receives payment processor notifications. It is the only write
// path that moves an order from pending to paid, and it must stay
// idempotent because the processor retries until it sees a 2xx.
type Handler struct {
	orders  order.Service
	gateway payment.Gateway
	repo    payment.Repository
	carts   cart.Service
}

func NewHandler(orders order.Service, gateway payment.Gateway, repo payment.Repository, carts cart.Service) *Handler {
	return &Handler{orders: orders, gateway: gateway, repo: repo, carts: carts}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "StripeWebhook"))

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		log.Warn("failed to read webhook body", zap.Error(err))
		utils.WriteJSONError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// Nothing is recorded or mutated until the signature checks out.
	if err := h.gateway.VerifySignature(payload, r.Header.Get(signatureHeader)); err != nil {
		log.Warn("webhook signature rejected", zap.Error(err))
		utils.WriteJSONError(w, "invalid signature", http.StatusBadRequest)
		return
	}

	event, err := payment.ParseEvent(payload)
	if err != nil {
		log.Warn("failed to decode webhook event", zap.Error(err))
		utils.WriteJSONError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	log = log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
	)

	// A redelivery of an event that failed processing comes back with
	// alreadyProcessed false and runs again; only fully processed events
	// short-circuit here.
	webhookID, alreadyProcessed, err := h.repo.SaveWebhookEvent(
		ctx, provider, event.ID, event.Type, event.Data.Object.ID, payload,
	)
	if err != nil {
		log.Error("failed to record webhook event", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if alreadyProcessed {
		log.Info("webhook event already processed, acknowledging")
		h.ack(w)
		return
	}

	if event.Type != payment.EventCheckoutSessionCompleted {
		log.Debug("ignoring unhandled event type")
		h.markProcessed(r, webhookID, log)
		h.ack(w)
		return
	}

	sessionID := event.Data.Object.ID
	t, err := h.orders.MarkPaidBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			// A session we never issued (or a test-mode event). Acknowledge
			// so the processor stops retrying.
			log.Warn("webhook for unknown session", zap.String("session_id", sessionID))
			h.markProcessed(r, webhookID, log)
			h.ack(w)
			return
		}

		log.Error("failed to process webhook", zap.Error(err))
		if mErr := h.repo.MarkWebhookFailed(ctx, webhookID, err.Error()); mErr != nil {
			log.Error("failed to mark webhook as failed", zap.Error(mErr))
		}
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if t.Transitioned {
		// The purchase went through, so the cart it came from is stale.
		if err := h.carts.Clear(ctx, t.UserID); err != nil {
			log.Warn("failed to clear cart after payment",
				zap.Uint("user_id", t.UserID),
				zap.Error(err),
			)
		}
	}

	h.markProcessed(r, webhookID, log)
	h.ack(w)
}

func (h *Handler) markProcessed(r *http.Request, webhookID int64, log *zap.Logger) {
	if err := h.repo.MarkWebhookProcessed(r.Context(), webhookID); err != nil {
		log.Error("failed to mark webhook as processed", zap.Error(err))
	}
}

func (h *Handler) ack(w http.ResponseWriter) {
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
