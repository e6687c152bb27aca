package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"designkit/internal/core"
	"designkit/internal/external"
	"designkit/internal/types"
)

// maxWebhookBodySize caps the accepted Stripe webhook payload (64 KB).
const maxWebhookBodySize = 64 * 1024

// PlanAssigner links billing customers to users and stores plan changes.
// Implemented by the database user repository.
type PlanAssigner interface {
	GetByCustomerID(ctx context.Context, customerID string) (*types.User, error)
	UpdatePlan(ctx context.Context, userID string, plan types.PlanID) error
}

// SubscriptionFetcher re-reads the authoritative subscription state from the
// billing provider. May be nil in local mode, in which case the webhook
// payload itself is trusted.
type SubscriptionFetcher interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*external.Subscription, error)
}

// StripeWebhookHandler handles asynchronous subscription lifecycle events
// from Stripe. The endpoint is not behind user resolution; security comes
// from verifying the Stripe-Signature header.
type StripeWebhookHandler struct {
	verifier external.WebhookVerifier
	users    PlanAssigner
	billing  SubscriptionFetcher
	mapper   *external.PlanMapper
	secret   string
	logger   *slog.Logger
}

// NewStripeWebhookHandler creates a StripeWebhookHandler.
func NewStripeWebhookHandler(
	verifier external.WebhookVerifier,
	users PlanAssigner,
	billing SubscriptionFetcher,
	mapper *external.PlanMapper,
	secret string,
	logger *slog.Logger,
) *StripeWebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeWebhookHandler{
		verifier: verifier,
		users:    users,
		billing:  billing,
		mapper:   mapper,
		secret:   secret,
		logger:   logger,
	}
}

// RegisterRoutes mounts the webhook endpoint. Separate from the other
// handlers because webhook routes carry no caller identity.
func (h *StripeWebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/stripe", h.Handle)
}

// stripeWebhookEvent is the envelope Stripe posts. Only the fields the plan
// assignment logic reads are decoded.
type stripeWebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// eventObject covers the union of checkout session and subscription fields
// this handler reads from data.object.
type eventObject struct {
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Status       string `json:"status"`
	Items        struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// Handle processes an incoming webhook event: verify the signature, parse,
// route by event type, and acknowledge with 200. Internal processing
// failures are logged but still acknowledged, so the provider does not
// retry forever against a bug on our side.
func (h *StripeWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to read webhook body", "error", err)
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidJSON,
			"failed to read request body",
			err,
		))
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		h.logger.WarnContext(r.Context(), "missing Stripe-Signature header")
		core.Error(w, r, types.NewAppError(
			types.ErrCodeAuthTokenMissing,
			"missing Stripe-Signature header",
			nil,
		))
		return
	}

	if err := h.verifier.Verify(payload, sigHeader, h.secret); err != nil {
		h.logger.WarnContext(r.Context(), "webhook signature verification failed", "error", err)
		core.Error(w, r, types.NewAppError(
			types.ErrCodeAuthTokenInvalid,
			"webhook signature verification failed",
			err,
		))
		return
	}

	var event stripeWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to parse webhook event", "error", err)
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidJSON,
			"invalid webhook event JSON",
			err,
		))
		return
	}

	h.logger.InfoContext(r.Context(), "processing stripe webhook event",
		"event_id", event.ID,
		"event_type", event.Type,
	)

	if err := h.routeEvent(r.Context(), &event); err != nil {
		h.logger.ErrorContext(r.Context(), "webhook event processing failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err,
		)
	}

	w.WriteHeader(http.StatusOK)
}

// routeEvent dispatches by event type. Unhandled types are acknowledged
// without action.
func (h *StripeWebhookHandler) routeEvent(ctx context.Context, event *stripeWebhookEvent) error {
	var obj eventObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return fmt.Errorf("decoding event object for %s: %w", event.ID, err)
	}

	switch event.Type {
	case external.EventStripeCheckoutCompleted:
		return h.handleCheckoutCompleted(ctx, event.ID, &obj)

	case external.EventStripeSubUpdated:
		return h.handleSubscriptionUpdated(ctx, event.ID, &obj)

	case external.EventStripeSubDeleted:
		return h.applyPlan(ctx, obj.Customer, types.PlanFree)

	case external.EventStripePaymentFailed:
		h.logger.WarnContext(ctx, "payment failed for customer; awaiting provider dunning",
			"event_id", event.ID,
			"customer_id", obj.Customer,
		)
		return nil

	default:
		h.logger.InfoContext(ctx, "ignoring unhandled webhook event type",
			"event_type", event.Type,
		)
		return nil
	}
}

// handleCheckoutCompleted confirms a new subscription after the user
// completes the checkout flow. When a billing client is configured, the
// subscription is re-read from the API rather than trusting the session
// payload, which omits price detail.
func (h *StripeWebhookHandler) handleCheckoutCompleted(ctx context.Context, eventID string, obj *eventObject) error {
	if obj.Customer == "" {
		return fmt.Errorf("checkout.session.completed: missing customer in event %s", eventID)
	}

	plan := types.PlanFree
	if h.billing != nil && obj.Subscription != "" {
		sub, err := h.billing.GetSubscription(ctx, obj.Subscription)
		if err != nil {
			return fmt.Errorf("fetching subscription %s: %w", obj.Subscription, err)
		}
		if subscriptionGrantsPlan(sub.Status) {
			plan = h.mapper.PlanForPrice(sub.PriceID)
		}
	} else if len(obj.Items.Data) > 0 {
		plan = h.mapper.PlanForPrice(obj.Items.Data[0].Price.ID)
	}

	return h.applyPlan(ctx, obj.Customer, plan)
}

// handleSubscriptionUpdated applies upgrades and downgrades. A subscription
// that is no longer in good standing reverts the user to free.
func (h *StripeWebhookHandler) handleSubscriptionUpdated(ctx context.Context, eventID string, obj *eventObject) error {
	if obj.Customer == "" {
		return fmt.Errorf("customer.subscription.updated: missing customer in event %s", eventID)
	}

	plan := types.PlanFree
	if subscriptionGrantsPlan(types.SubscriptionStatus(obj.Status)) && len(obj.Items.Data) > 0 {
		plan = h.mapper.PlanForPrice(obj.Items.Data[0].Price.ID)
	}

	return h.applyPlan(ctx, obj.Customer, plan)
}

// subscriptionGrantsPlan reports whether the subscription status entitles
// the customer to the paid plan.
func subscriptionGrantsPlan(status types.SubscriptionStatus) bool {
	return status == types.SubStatusActive || status == types.SubStatusTrialing
}

// applyPlan resolves the customer to a local user and stores the new plan.
func (h *StripeWebhookHandler) applyPlan(ctx context.Context, customerID string, plan types.PlanID) error {
	user, err := h.users.GetByCustomerID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("resolving customer %s: %w", customerID, err)
	}

	if err := h.users.UpdatePlan(ctx, user.ID, plan); err != nil {
		return fmt.Errorf("updating plan for user %s: %w", user.ID, err)
	}

	h.logger.InfoContext(ctx, "plan assignment applied",
		"user_id", user.ID,
		"customer_id", customerID,
		"plan", plan,
	)
	return nil
}
