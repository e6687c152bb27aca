package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"designkit/internal/types"
)

// stripeAPIBase is the default Stripe API base URL. Overridable in tests.
const stripeAPIBase = "https://api.stripe.com"

// Stripe event type constants prevent magic strings in webhook handlers.
const (
	EventStripeCheckoutCompleted = "checkout.session.completed"
	EventStripeSubUpdated        = "customer.subscription.updated"
	EventStripeSubDeleted        = "customer.subscription.deleted"
	EventStripePaymentFailed     = "invoice.payment_failed"
)

// WebhookVerifier abstracts Stripe webhook signature checking so the handler
// can be tested without real HMAC signatures.
type WebhookVerifier interface {
	// Verify validates a webhook payload against the provided signature
	// header using the signing secret.
	Verify(payload []byte, header string, secret string) error
}

// StripeVerifier implements WebhookVerifier using stripe-go's payload
// validation, which checks the HMAC-SHA256 signature and the timestamp
// tolerance.
type StripeVerifier struct{}

func (v *StripeVerifier) Verify(payload []byte, header string, secret string) error {
	return stripe.ValidatePayload(payload, header, secret)
}

// StubWebhookVerifier accepts every payload. Used in local development when
// no webhook secret is configured.
type StubWebhookVerifier struct {
	Logger *slog.Logger
}

func (v *StubWebhookVerifier) Verify(payload []byte, header string, secret string) error {
	if v.Logger != nil {
		v.Logger.Info("stub: webhook signature verification skipped",
			slog.Int("payload_bytes", len(payload)),
		)
	}
	return nil
}

var (
	_ WebhookVerifier = (*StripeVerifier)(nil)
	_ WebhookVerifier = (*StubWebhookVerifier)(nil)
)

// PlanMapper translates billing provider price IDs into plan IDs. Unknown
// prices map to the free plan so a misconfigured price never grants paid
// entitlements.
type PlanMapper struct {
	priceToPlan map[string]types.PlanID
}

// NewPlanMapper builds the mapping from configured price IDs. Empty price
// IDs are skipped.
func NewPlanMapper(priceStarter, pricePro string) *PlanMapper {
	m := make(map[string]types.PlanID, 2)
	if priceStarter != "" {
		m[priceStarter] = types.PlanStarter
	}
	if pricePro != "" {
		m[pricePro] = types.PlanPro
	}
	return &PlanMapper{priceToPlan: m}
}

// PlanForPrice returns the plan for the given price ID, or the free plan
// when the price is not recognized.
func (m *PlanMapper) PlanForPrice(priceID string) types.PlanID {
	if plan, ok := m.priceToPlan[priceID]; ok {
		return plan
	}
	return types.PlanFree
}

// Subscription is the subset of the Stripe subscription object the
// entitlement engine cares about.
type Subscription struct {
	ID         string
	CustomerID string
	Status     types.SubscriptionStatus
	PriceID    string
}

// StripeClient fetches subscription state from the Stripe REST API through
// the BaseClient resilience layer. Webhook payloads are treated as hints;
// the authoritative state is re-read from the API before mutating local
// plan assignments.
type StripeClient struct {
	base      *BaseClient
	secretKey string
	baseURL   string
	logger    *slog.Logger
}

// StripeClientConfig holds the configuration for creating a StripeClient.
type StripeClientConfig struct {
	SecretKey string
	BaseURL   string // override for tests; defaults to stripeAPIBase
	Logger    *slog.Logger
}

// NewStripeClient creates a StripeClient with a 20 second HTTP timeout and
// the default retry policy.
func NewStripeClient(cfg StripeClientConfig) *StripeClient {
	return NewStripeClientWithBase(
		NewBaseClient(
			&http.Client{Timeout: 20 * time.Second},
			"stripe",
			DefaultRetryPolicy(),
			"DesignKit/1.0",
		),
		cfg,
	)
}

// NewStripeClientWithBase creates a StripeClient with a pre-configured
// BaseClient, for tests that control breaker and retry behavior.
func NewStripeClientWithBase(base *BaseClient, cfg StripeClientConfig) *StripeClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = stripeAPIBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeClient{
		base:      base,
		secretKey: cfg.SecretKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		logger:    logger,
	}
}

// stripeSubscription mirrors the fields of the Stripe API response we decode.
type stripeSubscription struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Customer string `json:"customer"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// GetSubscription fetches the current state of a subscription.
func (c *StripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to build subscription request",
			err,
		)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamBilling,
			"subscription not found at billing provider",
			nil,
		)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamBilling,
			fmt.Sprintf("billing provider returned %d for subscription lookup", resp.StatusCode),
			nil,
		)
	}

	var sub stripeSubscription
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamBilling,
			"failed to decode subscription response",
			err,
		)
	}

	out := &Subscription{
		ID:         sub.ID,
		CustomerID: sub.Customer,
		Status:     types.SubscriptionStatus(sub.Status),
	}
	if len(sub.Items.Data) > 0 {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out, nil
}
