package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

const subscriptionCols = `id, user_id, plan_id, provider_subscription_id, status, start_date, end_date, credits_allocated, credits_used, created_at, updated_at`

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) UpsertByProviderPeriod(ctx context.Context, tx repository.Tx, s *model.Subscription) (*model.Subscription, error) {
	// Conflicts on (provider_subscription_id, start_date) converge replayed
	// and sibling events of the same billing period onto one row. credits_used
	// is deliberately absent from the update list: a replay must never reset
	// the ledger.
	const q = `
INSERT INTO subscriptions (
  ` + subscriptionCols + `
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,NOW(),NOW())
ON CONFLICT (provider_subscription_id, start_date) DO UPDATE SET
  plan_id=EXCLUDED.plan_id,
  status=EXCLUDED.status,
  end_date=EXCLUDED.end_date,
  credits_allocated=EXCLUDED.credits_allocated,
  updated_at=NOW()
RETURNING ` + subscriptionCols + `;`

	row, err := pickRow(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.PlanID, s.ProviderSubscriptionID, string(s.Status),
		s.StartDate, s.EndDate, s.CreditsAllocated)
	if err != nil {
		return nil, err
	}
	out, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOperationFailed
		}
		return nil, err
	}
	return out, nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionCols + ` FROM subscriptions WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *subscriptionRepo) FindLatestByProviderID(ctx context.Context, tx repository.Tx, providerSubID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions
 WHERE provider_subscription_id=$1
 ORDER BY start_date DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, providerSubID)
}

func (r *subscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions
 WHERE user_id=$1 AND status='active'
 ORDER BY start_date DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID)
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions
 WHERE user_id=$1
 ORDER BY start_date DESC;`
	return r.queryMany(ctx, tx, q, userID)
}

// DeductCredits is the only mutation path for the ledger: one conditional
// UPDATE that checks status, expiry, and balance in the same statement, so
// concurrent callers can never overdraw regardless of interleaving.
func (r *subscriptionRepo) DeductCredits(ctx context.Context, tx repository.Tx, subscriptionID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidArgument
	}
	const q = `
UPDATE subscriptions
   SET credits_used = credits_used + $2,
       updated_at = NOW()
 WHERE id = $1
   AND status = 'active'
   AND end_date > NOW()
   AND credits_used + $2 <= credits_allocated
RETURNING credits_allocated - credits_used;`

	row, err := pickRow(ctx, r.pool, tx, q, subscriptionID, amount)
	if err != nil {
		return 0, err
	}
	var remaining int64
	if err := row.Scan(&remaining); err == nil {
		return remaining, nil
	} else if err != pgx.ErrNoRows {
		return 0, domain.ErrReadDatabaseRow
	}

	// The guard rejected the update; look at the row to tell the caller why.
	const probe = `
SELECT status, (end_date > NOW()) FROM subscriptions WHERE id=$1;`
	probeRow, err := pickRow(ctx, r.pool, tx, probe, subscriptionID)
	if err != nil {
		return 0, err
	}
	var status string
	var unexpired bool
	if err := probeRow.Scan(&status, &unexpired); err != nil {
		if err == pgx.ErrNoRows {
			return 0, domain.ErrNoActiveSubscription
		}
		return 0, domain.ErrReadDatabaseRow
	}
	if status == string(model.SubscriptionStatusActive) && unexpired {
		return 0, domain.ErrInsufficientCredits
	}
	return 0, domain.ErrNoActiveSubscription
}

func (r *subscriptionRepo) MarkExpired(ctx context.Context, tx repository.Tx, id string) error {
	return r.transition(ctx, tx, id, model.SubscriptionStatusExpired)
}

func (r *subscriptionRepo) MarkCancelled(ctx context.Context, tx repository.Tx, id string) error {
	return r.transition(ctx, tx, id, model.SubscriptionStatusCancelled)
}

// transition performs a one-way move into a terminal status. Rows already
// terminal are left untouched and reported as ErrNotFound.
func (r *subscriptionRepo) transition(ctx context.Context, tx repository.Tx, id string, to model.SubscriptionStatus) error {
	const q = `
UPDATE subscriptions
   SET status=$2, updated_at=NOW()
 WHERE id=$1 AND status IN ('pending','active');`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(to))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) FindExpired(ctx context.Context, tx repository.Tx, limit int) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions
 WHERE status='active' AND end_date <= NOW()
 ORDER BY end_date ASC
 LIMIT $1;`
	return r.queryMany(ctx, tx, q, limit)
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM subscriptions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	counts := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.SubscriptionStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return counts, nil
}

func (r *subscriptionRepo) TotalRemainingCredits(ctx context.Context, tx repository.Tx) (int64, error) {
	const q = `
SELECT COALESCE(SUM(credits_allocated - credits_used),0)
  FROM subscriptions
 WHERE status='active' AND end_date > NOW();`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.Subscription, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, sql, args...)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	var status string
	err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.ProviderSubscriptionID, &status,
		&s.StartDate, &s.EndDate, &s.CreditsAllocated, &s.CreditsUsed, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.Status = model.SubscriptionStatus(status)
	return s, nil
}
