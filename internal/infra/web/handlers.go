package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/infra/logging"
	"quiz-ai-platform/internal/infra/metrics"
	red "quiz-ai-platform/internal/infra/redis"
	"quiz-ai-platform/internal/usecase"
)

const maxWebhookBody = 1 << 20 // 1 MiB

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
	case errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already exists"})
	case errors.Is(err, domain.ErrPlanMisconfigured):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "plan is not purchasable"})
	case errors.Is(err, domain.ErrInsufficientCredits):
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": "insufficient credits", "reason": string(usecase.DenialInsufficientCredits)})
	case errors.Is(err, domain.ErrNoActiveSubscription):
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": "no active subscription", "reason": string(usecase.DenialNoActiveSubscription)})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// ===== Public handlers =====

func (s *Server) registerHandler() http.HandlerFunc {
	type request struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		user, err := s.userUC.Register(r.Context(), req.Email, req.DisplayName)
		if err != nil {
			writeError(w, err)
			return
		}
		token, err := s.auth.Mint(user.ID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, struct {
			User  *model.User `json:"user"`
			Token string      `json:"token"`
		}{User: user, Token: token})
	}
}

func (s *Server) plansListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := s.planUC.ListActive(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.Plan `json:"data"`
		}{Data: plans})
	}
}

// webhookHandler authenticates and dispatches provider webhook deliveries.
// Status codes drive the provider's retry behavior: 400 for events that can
// never verify, 200 for everything handled or deliberately ignored, 500 for
// transient failures worth redelivering.
func (s *Server) webhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
			return
		}

		sig := r.Header.Get("Stripe-Signature")
		ev, err := s.gateway.VerifyEvent(r.Context(), body, sig)
		if err != nil {
			metrics.IncWebhookEvent("unknown", "unverified")
			l := logging.With(r.Context(), s.log)
			l.Warn().Err(err).Msg("webhook verification failed")
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "signature verification failed"})
			return
		}

		ctx := logging.WithEventID(r.Context(), ev.ProviderEventID)
		if err := s.webhookUC.HandleEvent(ctx, ev); err != nil {
			metrics.IncWebhookEvent(string(ev.Type), "failed")
			l := logging.With(ctx, s.log)
			l.Error().Err(err).Str("type", string(ev.Type)).Msg("webhook processing failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "processing failed"})
			return
		}

		metrics.IncWebhookEvent(string(ev.Type), "processed")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}

// ===== User handlers =====

func (s *Server) checkoutHandler() http.HandlerFunc {
	type request struct {
		PlanID string `json:"plan_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "plan_id is required"})
			return
		}

		url, err := s.billingUC.CreateCheckoutSession(r.Context(), UserID(r.Context()), req.PlanID)
		if err != nil {
			metrics.IncCheckoutSession("failed")
			writeError(w, err)
			return
		}
		metrics.IncCheckoutSession("created")
		writeJSON(w, http.StatusOK, map[string]string{"checkout_url": url})
	}
}

func (s *Server) currentSubscriptionHandler() http.HandlerFunc {
	type response struct {
		Subscription     *model.Subscription `json:"subscription"`
		CreditsRemaining int64               `json:"credits_remaining"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := s.subUC.GetCurrent(r.Context(), UserID(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, response{Subscription: sub, CreditsRemaining: sub.CreditsRemaining()})
	}
}

func (s *Server) subscriptionsListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := s.subUC.ListByUser(r.Context(), UserID(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.Subscription `json:"data"`
		}{Data: subs})
	}
}

func (s *Server) chatModelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models, err := s.chatUC.ListModels(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []string `json:"data"`
		}{Data: models})
	}
}

func (s *Server) chatStartHandler() http.HandlerFunc {
	type request struct {
		Model string `json:"model"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		session, err := s.chatUC.StartChat(r.Context(), UserID(r.Context()), req.Model)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	}
}

func (s *Server) chatMessageHandler() http.HandlerFunc {
	type request struct {
		Message string `json:"message"`
	}
	type response struct {
		Reply string `json:"reply"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uid := UserID(r.Context())

		if s.limiter != nil {
			key := red.UserActionKey(uid, "chat")
			allowed, err := s.limiter.Allow(r.Context(), key, s.chatPerMin, time.Minute)
			if err != nil {
				// Redis outage must not take chat down with it.
				l := logging.With(r.Context(), s.log)
				l.Warn().Err(err).Msg("rate limiter unavailable")
			} else if !allowed {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		reply, err := s.chatUC.SendMessage(r.Context(), uid, chi.URLParam(r, "id"), req.Message)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, response{Reply: reply})
	}
}

func (s *Server) chatEndHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.chatUC.EndChat(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ended": true})
	}
}

// ===== Admin handlers =====

func (s *Server) statsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		users, err := s.userUC.Count(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		byStatus, err := s.subUC.CountByStatus(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		remaining, err := s.subUC.TotalRemainingCredits(ctx)
		if err != nil {
			writeError(w, err)
			return
		}

		metrics.SetSubscriptionsTotal(byStatus)
		metrics.SetCreditsRemainingTotal(remaining)

		counts := make(map[string]int, len(byStatus))
		for status, n := range byStatus {
			counts[string(status)] = n
		}
		writeJSON(w, http.StatusOK, struct {
			TotalUsers            int            `json:"total_users"`
			SubscriptionsByStatus map[string]int `json:"subscriptions_by_status"`
			TotalCredits          int64          `json:"total_remaining_credits"`
		}{
			TotalUsers:            users,
			SubscriptionsByStatus: counts,
			TotalCredits:          remaining,
		})
	}
}

func (s *Server) usersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		users, err := s.userUC.List(ctx, offset, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		total, err := s.userUC.Count(ctx)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Data   []*model.User `json:"data"`
			Total  int           `json:"total"`
			Limit  int           `json:"limit"`
			Offset int           `json:"offset"`
		}{Data: users, Total: total, Limit: limit, Offset: offset})
	}
}

func (s *Server) userGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		user, err := s.userUC.FindByID(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		subs, err := s.subUC.ListByUser(ctx, user.ID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, struct {
			User          *model.User           `json:"user"`
			Subscriptions []*model.Subscription `json:"subscriptions"`
		}{User: user, Subscriptions: subs})
	}
}

func (s *Server) adminPlansListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := s.planUC.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.Plan `json:"data"`
		}{Data: plans})
	}
}

type planCreateRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	PriceCents      int64  `json:"price_cents"`
	Credits         int64  `json:"credits"`
	DurationDays    int    `json:"duration_days"`
	ProviderPriceID string `json:"provider_price_id"`
}

func (s *Server) planCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		plan, err := s.planUC.Create(r.Context(), req.Name, req.Description, req.PriceCents, req.Credits, req.DurationDays, req.ProviderPriceID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, plan)
	}
}

type planUpdateRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	PriceCents      *int64  `json:"price_cents"`
	Credits         *int64  `json:"credits"`
	DurationDays    *int    `json:"duration_days"`
	ProviderPriceID *string `json:"provider_price_id"`
	IsActive        *bool   `json:"is_active"`
}

func (s *Server) planUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		plan, err := s.planUC.Update(r.Context(), chi.URLParam(r, "id"), usecase.PlanUpdate{
			Name:            req.Name,
			Description:     req.Description,
			PriceCents:      req.PriceCents,
			Credits:         req.Credits,
			DurationDays:    req.DurationDays,
			ProviderPriceID: req.ProviderPriceID,
			IsActive:        req.IsActive,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	}
}

func (s *Server) planDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.planUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
