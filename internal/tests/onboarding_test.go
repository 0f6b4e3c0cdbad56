package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"bemyrider/internal/service"
)

func newRider() *service.Principal {
	p := rider()
	p.ID = newRiderID
	return p
}

func TestOnboardingStart_CreatesAccountOnce(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.AddRider(newRiderID, "Nuovo Rider", "9.00", "", false)
	ctx := context.Background()

	first, err := f.onboarding.Start(ctx, newRider())
	require.NoError(t, err)
	require.Equal(t, service.OnboardingCreated, first.Status)
	require.NotEmpty(t, first.URL)

	details, _ := f.store.Rider(newRiderID)
	require.Equal(t, first.StripeAccountID, details.StripeAccountID)

	second, err := f.onboarding.Start(ctx, newRider())
	require.NoError(t, err)
	require.Equal(t, service.OnboardingPending, second.Status)
	require.Equal(t, first.StripeAccountID, second.StripeAccountID)
	require.Equal(t, int32(1), f.gateway.CreateAccountCalls)
}

func TestOnboardingStart_ReadyUpstream_MarksComplete(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.AddRider(newRiderID, "Nuovo Rider", "9.00", "acct_ready", false)
	f.gateway.SetAccount(&service.ConnectedAccount{ID: "acct_ready", DetailsSubmitted: true, ChargesEnabled: true})

	result, err := f.onboarding.Start(context.Background(), newRider())
	require.NoError(t, err)
	require.Equal(t, service.OnboardingAlreadyComplete, result.Status)
	require.True(t, result.Complete)

	details, _ := f.store.Rider(newRiderID)
	require.True(t, details.StripeOnboardingComplete)
}

func TestOnboardingStart_AccountNotStored_PartialFailure(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.AddRider(newRiderID, "Nuovo Rider", "9.00", "", false)
	f.store.SetStripeAccountError = errors.New("connection reset")

	_, err := f.onboarding.Start(context.Background(), newRider())
	require.ErrorIs(t, err, service.ErrPartialFailure)

	var partial *service.PartialFailureError
	require.True(t, errors.As(err, &partial))
	require.Equal(t, "start_onboarding", partial.Operation)
	require.NotEmpty(t, partial.ExternalID)
}

func TestOnboardingStatusAndLoginLink(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.AddRider(newRiderID, "Nuovo Rider", "9.00", "", false)
	ctx := context.Background()

	status, err := f.onboarding.Status(ctx, newRider())
	require.NoError(t, err)
	require.Equal(t, service.OnboardingNoAccount, status.Status)

	_, err = f.onboarding.LoginLink(ctx, newRider())
	require.ErrorIs(t, err, service.ErrOnboardingIncomplete)

	url, err := f.onboarding.LoginLink(ctx, rider())
	require.NoError(t, err)
	require.Contains(t, url, riderAccountID)

	_, err = f.onboarding.Start(ctx, merchant())
	require.ErrorIs(t, err, service.ErrForbidden)
}
