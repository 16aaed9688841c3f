package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// PostgresSubscriptionStore implements the store.SubscriptionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSubscriptionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubscriptionStore creates a new PostgreSQL implementation of the
// SubscriptionStore interface.
func NewPostgresSubscriptionStore(db store.DBTX, logger *slog.Logger) *PostgresSubscriptionStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSubscriptionStore{
		db:     db,
		logger: logger.With(slog.String("component", "subscription_store")),
	}
}

// Ensure PostgresSubscriptionStore implements store.SubscriptionStore interface
var _ store.SubscriptionStore = (*PostgresSubscriptionStore)(nil)

const subscriptionColumns = `id, owner_id, channel, active, endpoint, p256dh_key, auth_key, topic, created_at`

// Upsert implements store.SubscriptionStore.Upsert
// Push subscriptions conflict on (owner_id, endpoint), relay subscriptions on
// (owner_id, topic); in both cases the existing row is reactivated with fresh
// credentials so a returning device never accumulates duplicate rows. On
// conflict the row keeps its original id, which is written back into sub.ID.
func (s *PostgresSubscriptionStore) Upsert(ctx context.Context, sub *domain.Subscription) error {
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var query string
	switch sub.Channel {
	case domain.ChannelPush:
		query = `
			INSERT INTO notification_subscriptions
				(id, owner_id, channel, active, endpoint, p256dh_key, auth_key, topic, created_at)
			VALUES ($1, $2, $3, TRUE, $4, $5, $6, $7, $8)
			ON CONFLICT (owner_id, endpoint) WHERE channel = 'push'
			DO UPDATE SET active = TRUE, p256dh_key = EXCLUDED.p256dh_key, auth_key = EXCLUDED.auth_key
			RETURNING id
		`
	case domain.ChannelRelay:
		query = `
			INSERT INTO notification_subscriptions
				(id, owner_id, channel, active, endpoint, p256dh_key, auth_key, topic, created_at)
			VALUES ($1, $2, $3, TRUE, $4, $5, $6, $7, $8)
			ON CONFLICT (owner_id, topic) WHERE channel = 'relay'
			DO UPDATE SET active = TRUE
			RETURNING id
		`
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidChannel, sub.Channel)
	}

	err := s.db.QueryRowContext(ctx, query,
		sub.ID,
		sub.OwnerID,
		sub.Channel,
		nullIfEmpty(sub.Endpoint),
		nullIfEmpty(sub.P256dhKey),
		nullIfEmpty(sub.AuthKey),
		nullIfEmpty(sub.Topic),
		sub.CreatedAt,
	).Scan(&sub.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return nil
}

// GetByID implements store.SubscriptionStore.GetByID
func (s *PostgresSubscriptionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM notification_subscriptions WHERE id = $1`

	sub, err := scanSubscription(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}

	return sub, nil
}

// ListActive implements store.SubscriptionStore.ListActive
func (s *PostgresSubscriptionStore) ListActive(ctx context.Context) ([]*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM notification_subscriptions WHERE active = TRUE`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active subscriptions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn("failed to close rows", "error", closeErr)
		}
	}()

	var subs []*domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}

	return subs, nil
}

// Deactivate implements store.SubscriptionStore.Deactivate
func (s *PostgresSubscriptionStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notification_subscriptions SET active = FALSE WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate subscription: %w", err)
	}

	return requireRow(result, store.ErrSubscriptionNotFound)
}

// DeactivateByEndpoint implements store.SubscriptionStore.DeactivateByEndpoint
func (s *PostgresSubscriptionStore) DeactivateByEndpoint(
	ctx context.Context,
	ownerID uuid.UUID,
	endpoint string,
) error {
	query := `
		UPDATE notification_subscriptions
		SET active = FALSE
		WHERE owner_id = $1 AND endpoint = $2
	`

	result, err := s.db.ExecContext(ctx, query, ownerID, endpoint)
	if err != nil {
		return fmt.Errorf("failed to deactivate subscription by endpoint: %w", err)
	}

	return requireRow(result, store.ErrSubscriptionNotFound)
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*domain.Subscription, error) {
	var sub domain.Subscription
	var endpoint, p256dh, authKey, topic sql.NullString

	if err := row.Scan(
		&sub.ID,
		&sub.OwnerID,
		&sub.Channel,
		&sub.Active,
		&endpoint,
		&p256dh,
		&authKey,
		&topic,
		&sub.CreatedAt,
	); err != nil {
		return nil, err
	}

	sub.Endpoint = endpoint.String
	sub.P256dhKey = p256dh.String
	sub.AuthKey = authKey.String
	sub.Topic = topic.String

	return &sub, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
