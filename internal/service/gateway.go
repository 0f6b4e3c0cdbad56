package service

import (
	"context"

	"bemyrider/internal/domain"
)

// ConnectedAccount is the processor-side state of a rider's payout account.
type ConnectedAccount struct {
	ID               string
	DetailsSubmitted bool
	ChargesEnabled   bool
}

// ReadyForPayments reports whether destination charges may target the account.
func (a *ConnectedAccount) ReadyForPayments() bool {
	return a.DetailsSubmitted && a.ChargesEnabled
}

// PaymentIntentParams describes a destination charge in minor units.
type PaymentIntentParams struct {
	AmountMinor          int64
	ApplicationFeeMinor  int64
	DestinationAccountID string
	Metadata             map[string]string
	IdempotencyKey       string
}

// PaymentIntent is the processor's handle for a created charge.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       domain.PaymentStatus
}

// WebhookEvent is a verified processor event reduced to the fields reconciliation needs.
type WebhookEvent struct {
	ID              string
	Type            string
	Account         *ConnectedAccount
	PaymentIntentID string

	// DecodeError is set when the signature verified but the event object could not be read.
	DecodeError error
}

// Processor event types handled by reconciliation.
const (
	EventAccountUpdated         = "account.updated"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventChargeRefunded         = "charge.refunded"
)

// PaymentGateway is the payment processor capability consumed by the core.
type PaymentGateway interface {
	CreateConnectedAccount(ctx context.Context, email string) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	CreateLoginLink(ctx context.Context, accountID string) (string, error)
	GetAccount(ctx context.Context, accountID string) (*ConnectedAccount, error)
	CreatePaymentIntent(ctx context.Context, params PaymentIntentParams) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)
	VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)
}
