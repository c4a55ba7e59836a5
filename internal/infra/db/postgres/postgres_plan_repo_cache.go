package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/repository"
	"quiz-ai-platform/internal/infra/metrics"
	red "quiz-ai-platform/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches catalog reads in Redis. Writes invalidate
// both the per-plan key and the list keys.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient, ttl time.Duration) repository.PlanRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	key := fmt.Sprintf("plan:%s", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		metrics.IncCacheRequest("plan", "hit")
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) == nil {
			return &plan, nil
		}
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(plan); err == nil {
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plan, nil
}

// FindByProviderPriceID is only hit from the webhook path; it goes straight
// to the database so a freshly remapped price never resolves stale.
func (d *planRepoCacheDecorator) FindByProviderPriceID(ctx context.Context, tx repository.Tx, priceID string) (*model.Plan, error) {
	return d.inner.FindByProviderPriceID(ctx, tx, priceID)
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	return d.cachedList(ctx, tx, "plans:active", d.inner.ListActive)
}

func (d *planRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	return d.cachedList(ctx, tx, "plans:all", d.inner.ListAll)
}

func (d *planRepoCacheDecorator) cachedList(ctx context.Context, tx repository.Tx, key string, load func(context.Context, repository.Tx) ([]*model.Plan, error)) ([]*model.Plan, error) {
	if val, err := d.cache.Get(ctx, key); err == nil {
		metrics.IncCacheRequest("plan_list", "hit")
		var plans []*model.Plan
		if json.Unmarshal([]byte(val), &plans) == nil {
			return plans, nil
		}
	} else if err != redis.Nil {
		// Redis unavailable; fall through to the database.
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := load(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		if bytes, err := json.Marshal(plans); err == nil {
			d.cache.Set(ctx, key, bytes, d.ttl)
		}
	}
	return plans, nil
}

func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	d.invalidate(ctx, plan.ID)
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	d.invalidate(ctx, id)
	return d.inner.Delete(ctx, tx, id)
}

func (d *planRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	d.cache.Del(ctx, fmt.Sprintf("plan:%s", id))
	d.cache.Del(ctx, "plans:active")
	d.cache.Del(ctx, "plans:all")
}
