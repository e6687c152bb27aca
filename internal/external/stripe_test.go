package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designkit/internal/types"
)

func TestPlanMapper_KnownPrices(t *testing.T) {
	m := NewPlanMapper("price_starter_123", "price_pro_456")

	assert.Equal(t, types.PlanStarter, m.PlanForPrice("price_starter_123"))
	assert.Equal(t, types.PlanPro, m.PlanForPrice("price_pro_456"))
}

func TestPlanMapper_UnknownPriceFallsBackToFree(t *testing.T) {
	m := NewPlanMapper("price_starter_123", "price_pro_456")
	assert.Equal(t, types.PlanFree, m.PlanForPrice("price_legacy_999"))
}

func TestPlanMapper_EmptyConfig(t *testing.T) {
	m := NewPlanMapper("", "")
	assert.Equal(t, types.PlanFree, m.PlanForPrice("anything"))
}

func TestStripeVerifier_RejectsBadSignature(t *testing.T) {
	v := &StripeVerifier{}
	err := v.Verify([]byte(`{"id":"evt_1"}`), "t=123,v1=deadbeef", "whsec_test")
	assert.Error(t, err)
}

func TestStubWebhookVerifier_AcceptsEverything(t *testing.T) {
	v := &StubWebhookVerifier{}
	assert.NoError(t, v.Verify([]byte("anything"), "", ""))
}

func newStripeTestClient(t *testing.T, srvURL string) *StripeClient {
	t.Helper()
	base := NewBaseClient(
		&http.Client{Timeout: 5 * time.Second},
		"stripe-"+t.Name(),
		RetryPolicy{MaxRetries: 0, MinWait: time.Millisecond, MaxWait: time.Millisecond},
		"DesignKit/test",
		WithSleepFunc(func(time.Duration) {}),
	)
	return NewStripeClientWithBase(base, StripeClientConfig{
		SecretKey: "sk_test_123",
		BaseURL:   srvURL,
	})
}

func TestStripeClient_GetSubscription_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscriptions/sub_123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "sub_123",
			"status": "active",
			"customer": "cus_789",
			"items": {"data": [{"price": {"id": "price_pro_456"}}]}
		}`))
	}))
	defer srv.Close()

	c := newStripeTestClient(t, srv.URL)
	sub, err := c.GetSubscription(context.Background(), "sub_123")
	require.NoError(t, err)

	assert.Equal(t, "sub_123", sub.ID)
	assert.Equal(t, "cus_789", sub.CustomerID)
	assert.Equal(t, types.SubStatusActive, sub.Status)
	assert.Equal(t, "price_pro_456", sub.PriceID)
}

func TestStripeClient_GetSubscription_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newStripeTestClient(t, srv.URL)
	_, err := c.GetSubscription(context.Background(), "sub_missing")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamBilling, appErr.Code)
}

func TestStripeClient_GetSubscription_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newStripeTestClient(t, srv.URL)
	_, err := c.GetSubscription(context.Background(), "sub_123")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamBilling, appErr.Code)
}

func TestStripeClient_GetSubscription_NoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"sub_123","status":"canceled","customer":"cus_789","items":{"data":[]}}`))
	}))
	defer srv.Close()

	c := newStripeTestClient(t, srv.URL)
	sub, err := c.GetSubscription(context.Background(), "sub_123")
	require.NoError(t, err)
	assert.Empty(t, sub.PriceID)
	assert.Equal(t, types.SubStatusCanceled, sub.Status)
}
