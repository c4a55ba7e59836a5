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

// Ensure interface compliance
var _ repository.PlanRepository = (*planRepo)(nil)

const planCols = `id, name, description, price_cents, credits, duration_days, provider_price_id, is_active, created_at, updated_at`

type planRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	const q = `
INSERT INTO plans (` + planCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name,
  description=EXCLUDED.description,
  price_cents=EXCLUDED.price_cents,
  credits=EXCLUDED.credits,
  duration_days=EXCLUDED.duration_days,
  provider_price_id=EXCLUDED.provider_price_id,
  is_active=EXCLUDED.is_active,
  updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		plan.ID, plan.Name, plan.Description, plan.PriceCents, plan.Credits,
		plan.DurationDays, plan.ProviderPriceID, plan.IsActive)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		case isUniqueViolation(err):
			return domain.ErrAlreadyExists
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	const q = `SELECT ` + planCols + ` FROM plans WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *planRepo) FindByProviderPriceID(ctx context.Context, tx repository.Tx, priceID string) (*model.Plan, error) {
	const q = `SELECT ` + planCols + ` FROM plans WHERE provider_price_id=$1 LIMIT 1;`
	return r.queryOne(ctx, tx, q, priceID)
}

func (r *planRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	const q = `SELECT ` + planCols + ` FROM plans WHERE is_active ORDER BY price_cents ASC;`
	return r.queryMany(ctx, tx, q)
}

func (r *planRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	const q = `SELECT ` + planCols + ` FROM plans ORDER BY created_at ASC;`
	return r.queryMany(ctx, tx, q)
}

func (r *planRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	// Plans referenced by live subscriptions stay.
	const countQ = `SELECT COUNT(1) FROM subscriptions WHERE plan_id=$1 AND status='active';`
	row, err := pickRow(ctx, r.pool, tx, countQ, id)
	if err != nil {
		return err
	}
	var cnt int
	if err := row.Scan(&cnt); err != nil {
		return domain.ErrReadDatabaseRow
	}
	if cnt > 0 {
		return domain.ErrOperationFailed
	}

	const delQ = `DELETE FROM plans WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, delQ, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *planRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.Plan, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) ([]*model.Plan, error) {
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
	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPlan(row pgx.Row) (*model.Plan, error) {
	p := &model.Plan{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Credits,
		&p.DurationDays, &p.ProviderPriceID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
