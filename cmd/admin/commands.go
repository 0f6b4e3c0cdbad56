package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bemyrider/internal/app"
	"bemyrider/internal/auth"
	"bemyrider/internal/config"
	"bemyrider/internal/logging"
	"bemyrider/internal/payments"
	internalRedis "bemyrider/internal/redis"
	"bemyrider/internal/repository/postgres"
	"bemyrider/internal/service"
)

const commandTimeout = 30 * time.Second

// env is what every command needs: configuration and a logger.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadEnv() (*env, error) {
	cfg := config.Load()
	logger, err := logging.NewLogger(cfg.App.LogLevel)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) database(ctx context.Context) (*sql.DB, error) {
	return app.NewDatabase(ctx, e.cfg.Database, nil, e.logger)
}

func (e *env) redis(ctx context.Context) (*redis.Client, error) {
	return app.NewRedisClient(ctx, e.cfg.Redis, nil)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			db, err := e.database(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			return app.Migrate(ctx, db, e.logger)
		},
	}
}

func orphansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Inspect and reconcile payment intents that have no booking",
	}
	cmd.AddCommand(orphansListCmd())
	cmd.AddCommand(orphansResolveCmd())
	return cmd
}

// paymentService builds a PaymentService for reconciliation. The processor is only read, to learn
// whether an orphaned intent was paid or refunded.
func (e *env) paymentService(db *sql.DB, client *redis.Client) *service.PaymentService {
	return service.NewPaymentService(
		postgres.NewRepositories(db),
		payments.NewStripeGateway(e.cfg.Stripe, e.logger),
		internalRedis.NewOrphanLedger(client),
		nil,
		nil,
		e.logger,
	)
}

func orphansListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List orphaned payment intents, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			client, err := e.redis(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			orphans, err := internalRedis.NewOrphanLedger(client).List(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(orphans)
		},
	}
}

func orphansResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [payment-intent-id]",
		Short: "Write the missing booking for an orphaned payment intent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			db, err := e.database(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			client, err := e.redis(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			booking, err := e.paymentService(db, client).ResolveOrphan(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "booking %s created for %s\n", booking.ID, args[0])
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Session token utilities",
	}

	issue := &cobra.Command{
		Use:   "issue [profile-id]",
		Short: "Issue a session token for a profile, for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uuid.Parse(args[0]); err != nil {
				return fmt.Errorf("profile id must be a uuid: %w", err)
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if e.cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("AUTH_JWT_SECRET is required")
			}

			email, _ := cmd.Flags().GetString("email")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			tokens := auth.NewTokenManager(e.cfg.Auth.JWTSecret, e.cfg.Auth.JWTIssuer, ttl)

			token, err := tokens.Issue(args[0], email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().String("email", "", "Email claim")
	issue.Flags().Duration("ttl", time.Hour, "Token lifetime")

	cmd.AddCommand(issue)
	return cmd
}
