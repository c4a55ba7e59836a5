// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookUseCase turns verified, at-least-once-delivered billing events into
// subscription and ledger state, exactly-once in effect.
//
// Error contract: a nil return means the provider should receive a success
// acknowledgement — including unrecoverable data issues (unknown price,
// missing metadata), which are logged and swallowed so the provider does not
// retry forever. A non-nil return means processing should be retried; every
// write path here is idempotent, so retries are safe.
type WebhookUseCase interface {
	HandleEvent(ctx context.Context, ev *model.BillingEvent) error
}

type webhookUC struct {
	plans  repository.PlanRepository
	subs   repository.SubscriptionRepository
	users  repository.UserRepository
	events repository.BillingEventRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewWebhookUseCase(
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	events repository.BillingEventRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *webhookUC {
	l := logger.With().Str("component", "WebhookUC").Logger()
	return &webhookUC{plans: plans, subs: subs, users: users, events: events, tm: tm, log: &l}
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

// lockProviderSub serializes all processing for one provider subscription id
// within the surrounding transaction. Multiple service instances contend on
// the database, not on in-process state. In-memory test repos pass a non-pgx
// handle and skip the lock.
func lockProviderSub(ctx context.Context, tx repository.Tx, providerSubID string) error {
	if px, ok := tx.(pgx.Tx); ok {
		_, err := px.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", hashToInt64(providerSubID))
		return err
	}
	return nil
}

func (uc *webhookUC) HandleEvent(ctx context.Context, ev *model.BillingEvent) error {
	if ev == nil || ev.ProviderEventID == "" {
		return domain.ErrInvalidArgument
	}

	switch ev.Type {
	case model.BillingEventSubscriptionCreated, model.BillingEventPaymentSucceeded:
		return uc.activate(ctx, ev)
	case model.BillingEventSubscriptionDeleted:
		return uc.cancel(ctx, ev)
	default:
		// Forward compatibility: acknowledge and ignore.
		uc.log.Debug().Str("event_id", ev.ProviderEventID).Str("type", string(ev.Type)).Msg("ignoring unhandled event type")
		return nil
	}
}

// activate upserts the subscription period for a created/payment_succeeded
// event and repoints the user's current subscription. created and
// payment_succeeded for the same period carry distinct event ids, so both
// reach the upsert — which converges them onto one row without re-granting
// credits.
func (uc *webhookUC) activate(ctx context.Context, ev *model.BillingEvent) error {
	if ev.UserID == "" {
		uc.log.Error().Str("event_id", ev.ProviderEventID).Str("provider_sub_id", ev.ProviderSubscriptionID).
			Msg("event carries no user id metadata; ignoring")
		return nil
	}

	plan, err := uc.plans.FindByProviderPriceID(ctx, repository.NoTX, ev.PriceID)
	if errors.Is(err, domain.ErrNotFound) {
		// Data-integrity problem, not a transient one: retrying would never
		// succeed, so acknowledge the event instead of poisoning the queue.
		uc.log.Error().Str("event_id", ev.ProviderEventID).Str("price_id", ev.PriceID).
			Msg("no plan provisioned for provider price; ignoring event")
		return nil
	}
	if err != nil {
		return err
	}

	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockProviderSub(ctx, tx, ev.ProviderSubscriptionID); err != nil {
			return err
		}

		replay, err := uc.events.MarkProcessed(ctx, tx, ev.ProviderEventID, string(ev.Type))
		if err != nil {
			return err
		}
		if replay {
			uc.log.Info().Str("event_id", ev.ProviderEventID).Msg("replayed event; already processed")
			return nil
		}

		sub, err := model.NewSubscription(uuid.NewString(), ev.UserID, plan, ev.ProviderSubscriptionID, ev.PeriodStart, ev.PeriodEnd)
		if err != nil {
			return err
		}
		saved, err := uc.subs.UpsertByProviderPeriod(ctx, tx, sub)
		if err != nil {
			return err
		}
		if err := uc.users.SetCurrentSubscription(ctx, tx, ev.UserID, &saved.ID); err != nil {
			return err
		}

		uc.log.Info().Str("event_id", ev.ProviderEventID).Str("subscription_id", saved.ID).
			Str("plan_id", plan.ID).Int64("credits", saved.CreditsAllocated).
			Msg("subscription activated")
		return nil
	})
}

// cancel transitions the period to cancelled and clears the user's pointer.
// Unknown or already-terminal subscriptions are acknowledged as no-ops.
func (uc *webhookUC) cancel(ctx context.Context, ev *model.BillingEvent) error {
	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockProviderSub(ctx, tx, ev.ProviderSubscriptionID); err != nil {
			return err
		}

		replay, err := uc.events.MarkProcessed(ctx, tx, ev.ProviderEventID, string(ev.Type))
		if err != nil {
			return err
		}
		if replay {
			return nil
		}

		sub, err := uc.subs.FindLatestByProviderID(ctx, tx, ev.ProviderSubscriptionID)
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Warn().Str("event_id", ev.ProviderEventID).Str("provider_sub_id", ev.ProviderSubscriptionID).
				Msg("deletion event for unknown subscription; ignoring")
			return nil
		}
		if err != nil {
			return err
		}
		if sub.IsTerminal() {
			return nil
		}

		if err := uc.subs.MarkCancelled(ctx, tx, sub.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err := uc.users.SetCurrentSubscription(ctx, tx, sub.UserID, nil); err != nil {
			return err
		}

		uc.log.Info().Str("event_id", ev.ProviderEventID).Str("subscription_id", sub.ID).Msg("subscription cancelled")
		return nil
	})
}
