package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wish-machine/internal/quota"
	"wish-machine/internal/simulation"
	"wish-machine/internal/store"
	"wish-machine/internal/visuals"
)

const (
	apiKeyHeader     = "X-API-Key"
	trialCookieName  = "wm_trial"
	defaultIntensity = 50
	wishesPerPage    = 20
	maxBodyBytes     = 16 << 10
)

type wishRequest struct {
	Wish      string `json:"wish"`
	Intensity *int   `json:"intensity"`
	Model     string `json:"model"`
}

type wishResponse struct {
	simulation.Result
	Chart string `json:"chart,omitempty"`

	WishesRemaining  *int   `json:"wishes_remaining,omitempty"`
	WishesUsed       *int   `json:"wishes_used,omitempty"`
	WishLimit        *int   `json:"wish_limit,omitempty"`
	BonusWishes      *int   `json:"bonus_wishes,omitempty"`
	SubscriptionTier string `json:"subscription_tier,omitempty"`
	FreeTrial        bool   `json:"free_trial,omitempty"`
}

func (s *Server) handleWish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req wishRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}

	intensity := defaultIntensity
	if req.Intensity != nil {
		intensity = *req.Intensity
	}
	if err := simulation.ValidateRequest(req.Wish, intensity); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	model := s.cfg.SimulationModel()
	if req.Model != "" {
		m, ok := simulation.ParseModel(req.Model)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown model %q", req.Model), nil)
			return
		}
		model = m
	}

	now := s.now()

	var user *store.User
	if key := r.Header.Get(apiKeyHeader); key != "" {
		u, err := s.userForKey(r, key)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid API key", nil)
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to load user")
			writeError(w, http.StatusInternalServerError, "an error occurred processing your wish", nil)
			return
		}
		usage := u.Usage
		if err := quota.Check(&usage, now); err != nil {
			writeLimitReached(w, usage.Tier)
			return
		}
		user = u
	} else if _, err := r.Cookie(trialCookieName); err == nil {
		writeError(w, http.StatusPaymentRequired, "your free trial wish has been used, create an account to keep wishing",
			map[string]any{"signup_required": true})
		return
	}

	res := s.newEngine().Run(model, req.Wish, intensity)
	record := store.WishFromResult(res, s.ips.clientIP(r), now)
	resp := wishResponse{Result: res}
	if s.cfg.EnableMermaidCharts {
		resp.Chart = visuals.GenerateOutcomeChart(res)
	}

	if user == nil {
		if _, err := s.db.RecordWish(r.Context(), record); err != nil {
			log.Error().Err(err).Msg("Failed to store trial wish")
			writeError(w, http.StatusInternalServerError, "an error occurred processing your wish", nil)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     trialCookieName,
			Value:    uuid.NewString(),
			Path:     "/",
			Expires:  now.Add(365 * 24 * time.Hour),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		resp.FreeTrial = true
		writeJSON(w, http.StatusOK, resp)
		return
	}

	usage, err := s.db.ConsumeAndRecord(r.Context(), user.ID, record, now)
	if errors.Is(err, quota.ErrLimitReached) {
		writeLimitReached(w, usage.Tier)
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("user", user.ID).Msg("Failed to record wish")
		writeError(w, http.StatusInternalServerError, "an error occurred processing your wish", nil)
		return
	}

	limit := quota.Limit(usage.Tier)
	remaining := quota.Remaining(usage)
	resp.WishesRemaining = &remaining
	resp.WishesUsed = &usage.WishesThisMonth
	resp.WishLimit = &limit
	resp.BonusWishes = &usage.BonusWishes
	resp.SubscriptionTier = string(usage.Tier)

	log.Info().
		Int64("user", user.ID).
		Int("intensity", intensity).
		Str("model", string(model)).
		Float64("favorable_percent", res.FavorablePercent).
		Msg("Wish simulated")
	writeJSON(w, http.StatusOK, resp)
}

func writeLimitReached(w http.ResponseWriter, tier quota.Tier) {
	msg := fmt.Sprintf("You've reached your monthly limit of %d wishes. Please upgrade your plan.", quota.Limit(tier))
	writeError(w, http.StatusTooManyRequests, msg, map[string]any{
		"limit_reached": true,
		"current_tier":  string(tier),
	})
}

// userForKey resolves an API key, caching the key to id mapping. Usage is always
// read fresh from the store.
func (s *Server) userForKey(r *http.Request, key string) (*store.User, error) {
	if id, ok := s.keyCache.Get(key); ok {
		u, err := s.db.UserByID(r.Context(), id)
		if err == nil {
			return u, nil
		}
		s.keyCache.Remove(key)
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	u, err := s.db.UserByAPIKey(r.Context(), key)
	if err != nil {
		return nil, err
	}
	s.keyCache.Add(key, u.ID)
	return u, nil
}

func (s *Server) handleWishHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	key := r.Header.Get(apiKeyHeader)
	if key == "" {
		writeError(w, http.StatusUnauthorized, "API key required", nil)
		return
	}
	u, err := s.userForKey(r, key)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid API key", nil)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load user")
		writeError(w, http.StatusInternalServerError, "failed to load wishes", nil)
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}

	wishes, total, err := s.db.ListWishes(r.Context(), u.ID, page, wishesPerPage)
	if err != nil {
		log.Error().Err(err).Int64("user", u.ID).Msg("Failed to list wishes")
		writeError(w, http.StatusInternalServerError, "failed to load wishes", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":     page,
		"per_page": wishesPerPage,
		"total":    total,
		"pages":    (total + wishesPerPage - 1) / wishesPerPage,
		"wishes":   wishes,
	})
}

type subscribeRequest struct {
	Email          string `json:"email"`
	Source         string `json:"source"`
	WantsWishMates *bool  `json:"wants_wish_mates"`
	WantsTips      *bool  `json:"wants_tips"`
	WantsEducation *bool  `json:"wants_education"`
}

func boolOr(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}
	addr, err := mail.ParseAddress(req.Email)
	if err != nil || addr.Address != req.Email {
		writeError(w, http.StatusBadRequest, "a valid email address is required", nil)
		return
	}

	id, err := s.db.AddSubscriber(r.Context(), store.Subscriber{
		Email:          addr.Address,
		WantsWishMates: boolOr(req.WantsWishMates, true),
		WantsTips:      boolOr(req.WantsTips, true),
		WantsEducation: boolOr(req.WantsEducation, true),
		Source:         req.Source,
		IPAddress:      s.ips.clientIP(r),
		CreatedAt:      s.now(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusConflict, "this email is already subscribed", nil)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to add subscriber")
		writeError(w, http.StatusInternalServerError, "failed to subscribe", nil)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "email": addr.Address})
}
