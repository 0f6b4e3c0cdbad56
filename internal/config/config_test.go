package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	t.Setenv("STRIPE_TIMEOUT", "3s")
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	require.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	require.Equal(t, 3*time.Second, cfg.Stripe.Timeout)
	require.Equal(t, "eur", cfg.Stripe.Currency)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, 0, cfg.Redis.DB)
	require.NoError(t, cfg.Validate())
}

func TestValidateReportsEveryMissingSecret(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{DBName: "bemyrider"},
		Stripe:   StripeConfig{Timeout: time.Second},
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, key := range []string{"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "AUTH_JWT_SECRET"} {
		require.True(t, strings.Contains(err.Error(), key), "missing %s in %q", key, err.Error())
	}
}
