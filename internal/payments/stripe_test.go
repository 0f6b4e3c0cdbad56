package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bemyrider/internal/config"
	"bemyrider/internal/domain"
	"bemyrider/internal/service"
)

const testWebhookSecret = "whsec_test"

func testConfig() config.StripeConfig {
	return config.StripeConfig{
		SecretKey:      "sk_test_123",
		WebhookSecret:  testWebhookSecret,
		Currency:       "eur",
		AccountCountry: "IT",
		Timeout:        5 * time.Second,
	}
}

// newTestGateway points every Stripe backend at handler.
func newTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backendConfig := &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	return newStripeGateway(testConfig(), &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig),
	})
}

func sign(payload string, ts time.Time, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestCreatePaymentIntent_DestinationCharge(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "service-request:abc", r.Header.Get("Idempotency-Key"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "1955", r.PostForm.Get("amount"))
		assert.Equal(t, "255", r.PostForm.Get("application_fee_amount"))
		assert.Equal(t, "eur", r.PostForm.Get("currency"))
		assert.Equal(t, "acct_rider1", r.PostForm.Get("transfer_data[destination]"))
		assert.Equal(t, "abc", r.PostForm.Get("metadata[service_request_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret_456"}`))
	})

	pi, err := g.CreatePaymentIntent(context.Background(), service.PaymentIntentParams{
		AmountMinor:          1955,
		ApplicationFeeMinor:  255,
		DestinationAccountID: "acct_rider1",
		Metadata:             map[string]string{"service_request_id": "abc"},
		IdempotencyKey:       "service-request:abc",
	})
	require.NoError(t, err)
	require.Equal(t, "pi_123", pi.ID)
	require.Equal(t, "pi_123_secret_456", pi.ClientSecret)
}

func TestCreatePaymentIntent_ProviderError(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such destination: 'acct_gone'"}}`))
	})

	_, err := g.CreatePaymentIntent(context.Background(), service.PaymentIntentParams{
		AmountMinor:          1955,
		ApplicationFeeMinor:  255,
		DestinationAccountID: "acct_gone",
	})
	require.Error(t, err)

	var stripeErr *stripe.Error
	require.ErrorAs(t, err, &stripeErr)
	require.Equal(t, http.StatusBadRequest, stripeErr.HTTPStatusCode)
}

func TestGetAccount(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/acct_rider1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"acct_rider1","object":"account","details_submitted":true,"charges_enabled":false}`))
	})

	account, err := g.GetAccount(context.Background(), "acct_rider1")
	require.NoError(t, err)
	require.Equal(t, "acct_rider1", account.ID)
	require.True(t, account.DetailsSubmitted)
	require.False(t, account.ChargesEnabled)
	require.False(t, account.ReadyForPayments())
}

func TestVerifyWebhook(t *testing.T) {
	t.Parallel()

	g := newStripeGateway(testConfig(), nil)
	now := time.Now()

	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, event *service.WebhookEvent)
	}{
		{
			name:    "account updated",
			payload: `{"id":"evt_1","object":"event","type":"account.updated","data":{"object":{"id":"acct_rider1","object":"account","details_submitted":true,"charges_enabled":true}}}`,
			check: func(t *testing.T, event *service.WebhookEvent) {
				require.NotNil(t, event.Account)
				require.Equal(t, "acct_rider1", event.Account.ID)
				require.True(t, event.Account.ReadyForPayments())
			},
		},
		{
			name:    "payment intent succeeded",
			payload: `{"id":"evt_2","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","object":"payment_intent"}}}`,
			check: func(t *testing.T, event *service.WebhookEvent) {
				require.Equal(t, "pi_123", event.PaymentIntentID)
			},
		},
		{
			name:    "charge refunded",
			payload: `{"id":"evt_3","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge","payment_intent":"pi_123"}}}`,
			check: func(t *testing.T, event *service.WebhookEvent) {
				require.Equal(t, "pi_123", event.PaymentIntentID)
			},
		},
		{
			name:    "other type",
			payload: `{"id":"evt_4","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`,
			check: func(t *testing.T, event *service.WebhookEvent) {
				require.Nil(t, event.Account)
				require.Empty(t, event.PaymentIntentID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := g.VerifyWebhook([]byte(tt.payload), sign(tt.payload, now, testWebhookSecret))
			require.NoError(t, err)
			tt.check(t, event)
		})
	}
}

func TestVerifyWebhook_RejectsBadSignatures(t *testing.T) {
	t.Parallel()

	g := newStripeGateway(testConfig(), nil)
	payload := `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`

	tests := map[string]string{
		"wrong secret": sign(payload, time.Now(), "whsec_other"),
		"stale":        sign(payload, time.Now().Add(-time.Hour), testWebhookSecret),
		"tampered":     sign(`{"id":"evt_9"}`, time.Now(), testWebhookSecret),
		"empty":        "",
	}

	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := g.VerifyWebhook([]byte(payload), header)
			require.Error(t, err)
		})
	}
}

func TestVerifyWebhook_UndecodableObject_ReturnsEvent(t *testing.T) {
	t.Parallel()

	g := newStripeGateway(testConfig(), nil)
	payload := `{"id":"evt_5","object":"event","type":"account.updated","data":{"object":{"id":"acct_rider1","object":"account","details_submitted":"yes"}}}`

	event, err := g.VerifyWebhook([]byte(payload), sign(payload, time.Now(), testWebhookSecret))
	require.NoError(t, err)
	require.Equal(t, "evt_5", event.ID)
	require.Error(t, event.DecodeError)
	require.Nil(t, event.Account)
}

func TestGetPaymentIntent_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want domain.PaymentStatus
	}{
		{"succeeded", `{"id":"pi_1","object":"payment_intent","status":"succeeded","latest_charge":{"id":"ch_1","object":"charge","refunded":false}}`, domain.PaymentPaid},
		{"refunded", `{"id":"pi_1","object":"payment_intent","status":"succeeded","latest_charge":{"id":"ch_1","object":"charge","refunded":true}}`, domain.PaymentRefunded},
		{"awaiting payment", `{"id":"pi_1","object":"payment_intent","status":"requires_payment_method"}`, domain.PaymentPending},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/v1/payment_intents/pi_1", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})

			pi, err := g.GetPaymentIntent(context.Background(), "pi_1")
			require.NoError(t, err)
			require.Equal(t, tt.want, pi.Status)
		})
	}
}

func TestStripeBackends_EachKeepsItsOwnURL(t *testing.T) {
	t.Parallel()

	backends := stripeBackends(testConfig(), nil)

	tests := map[string]struct {
		backend stripe.Backend
		want    string
	}{
		"api":     {backends.API, stripe.APIURL},
		"connect": {backends.Connect, stripe.ConnectURL},
		"uploads": {backends.Uploads, stripe.UploadsURL},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			impl, ok := tt.backend.(*stripe.BackendImplementation)
			require.True(t, ok)
			require.Equal(t, tt.want, impl.URL)
		})
	}
}
