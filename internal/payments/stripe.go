package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
	"go.uber.org/zap"

	"bemyrider/internal/config"
	"bemyrider/internal/domain"
	"bemyrider/internal/service"
)

// StripeGateway implements service.PaymentGateway on top of Stripe Connect.
// It owns its own API client, so nothing depends on stripe.Key.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
	country       string
}

// NewStripeGateway builds a Stripe client with a bounded HTTP timeout and no automatic retries.
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger) *StripeGateway {
	return newStripeGateway(cfg, stripeBackends(cfg, logger))
}

// stripeBackends gives every backend its own config, since GetBackendWithConfig fills in the URL.
func stripeBackends(cfg config.StripeConfig, logger *zap.Logger) *stripe.Backends {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	backendConfig := func() *stripe.BackendConfig {
		c := &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(0),
		}
		if logger != nil {
			c.LeveledLogger = logger.Named("stripe").Sugar()
		}
		return c
	}
	return &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig()),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig()),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig()),
	}
}

func newStripeGateway(cfg config.StripeConfig, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
		country:       cfg.AccountCountry,
	}
}

// CreateConnectedAccount opens an express account for an individual rider.
func (g *StripeGateway) CreateConnectedAccount(ctx context.Context, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		Country:      stripe.String(g.country),
		BusinessType: stripe.String(string(stripe.AccountBusinessTypeIndividual)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.Context = ctx

	account, err := g.api.Accounts.New(params)
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

// CreateOnboardingLink returns a hosted onboarding URL for the account.
func (g *StripeGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
	}
	params.Context = ctx

	link, err := g.api.AccountLinks.New(params)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

// CreateLoginLink returns a single-use express dashboard URL.
func (g *StripeGateway) CreateLoginLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.LoginLinkParams{Account: stripe.String(accountID)}
	params.Context = ctx

	link, err := g.api.LoginLinks.New(params)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

// GetAccount reads the onboarding flags of a connected account.
func (g *StripeGateway) GetAccount(ctx context.Context, accountID string) (*service.ConnectedAccount, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	account, err := g.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, err
	}
	return toConnectedAccount(account), nil
}

// CreatePaymentIntent creates a destination charge that routes everything but the fee to the rider.
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, p service.PaymentIntentParams) (*service.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:               stripe.Int64(p.AmountMinor),
		Currency:             stripe.String(g.currency),
		ApplicationFeeAmount: stripe.Int64(p.ApplicationFeeMinor),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(p.DestinationAccountID),
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return &service.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: domain.PaymentPending}, nil
}

// GetPaymentIntent reads the settlement state of an intent. A refunded latest charge wins over success.
func (g *StripeGateway) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*service.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.AddExpand("latest_charge")
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return nil, err
	}

	status := domain.PaymentPending
	switch {
	case pi.LatestCharge != nil && pi.LatestCharge.Refunded:
		status = domain.PaymentRefunded
	case pi.Status == stripe.PaymentIntentStatusSucceeded:
		status = domain.PaymentPaid
	}
	return &service.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: status}, nil
}

// VerifyWebhook checks the Stripe-Signature header and decodes the objects reconciliation uses.
func (g *StripeGateway) VerifyWebhook(payload []byte, signatureHeader string) (*service.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}

	out := &service.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	// A verified event whose object cannot be decoded is still returned, so it is acknowledged.
	switch out.Type {
	case service.EventAccountUpdated:
		var account stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
			out.DecodeError = fmt.Errorf("decode account: %w", err)
			return out, nil
		}
		out.Account = toConnectedAccount(&account)
	case service.EventPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			out.DecodeError = fmt.Errorf("decode payment intent: %w", err)
			return out, nil
		}
		out.PaymentIntentID = pi.ID
	case service.EventChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			out.DecodeError = fmt.Errorf("decode charge: %w", err)
			return out, nil
		}
		if charge.PaymentIntent != nil {
			out.PaymentIntentID = charge.PaymentIntent.ID
		}
	}
	return out, nil
}

func toConnectedAccount(a *stripe.Account) *service.ConnectedAccount {
	return &service.ConnectedAccount{
		ID:               a.ID,
		DetailsSubmitted: a.DetailsSubmitted,
		ChargesEnabled:   a.ChargesEnabled,
	}
}

var _ service.PaymentGateway = (*StripeGateway)(nil)
