package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.BillingEventRepository = (*billingEventRepo)(nil)

type billingEventRepo struct {
	pool *pgxpool.Pool
}

func NewBillingEventRepo(pool *pgxpool.Pool) *billingEventRepo {
	return &billingEventRepo{pool: pool}
}

// MarkProcessed inserts the provider event id into the processed log. The
// unique index on provider_event_id makes the insert a no-op on replay, which
// the caller observes as alreadyProcessed=true.
func (r *billingEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, providerEventID, eventType string) (bool, error) {
	const q = `
INSERT INTO billing_events (id, provider_event_id, event_type, processed_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (provider_event_id) DO NOTHING;`

	tag, err := execSQL(ctx, r.pool, tx, q, ulid.Make().String(), providerEventID, eventType)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return false, err
		default:
			return false, domain.ErrOperationFailed
		}
	}
	return tag.RowsAffected() == 0, nil
}
