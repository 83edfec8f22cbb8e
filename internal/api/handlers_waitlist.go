package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"wish-machine/internal/store"
)

type waitlistRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Source       string `json:"source"`
	ReferralCode string `json:"referral_code"`
}

func (s *Server) handleWaitlist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req waitlistRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		writeError(w, http.StatusBadRequest, "a valid email address is required", nil)
		return
	}

	// Accounts take precedence over the waitlist.
	_, err := s.db.UserByEmail(r.Context(), email)
	if err == nil {
		writeError(w, http.StatusBadRequest, "email already has an account", nil)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Msg("Failed to look up account")
		writeError(w, http.StatusInternalServerError, "failed to join waitlist", nil)
		return
	}

	source := req.Source
	if source == "" {
		source = "api"
	}
	id, err := s.db.AddWaitlist(r.Context(), store.WaitlistEntry{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Source:       source,
		ReferralCode: strings.TrimSpace(req.ReferralCode),
		CreatedAt:    s.now(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "already on waitlist", "email": email})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to add waitlist entry")
		writeError(w, http.StatusInternalServerError, "failed to join waitlist", nil)
		return
	}

	log.Info().Int64("id", id).Str("source", source).Msg("Waitlist entry added")
	writeJSON(w, http.StatusCreated, map[string]any{"message": "added to waitlist", "id": id, "email": email})
}

// handleAdminSignups lists email subscribers and waitlist entries, newest first.
func (s *Server) handleAdminSignups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var (
		subs    []store.Subscriber
		waiting []store.WaitlistEntry
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		subs, err = s.db.ListSubscribers(ctx)
		return err
	})
	g.Go(func() (err error) {
		waiting, err = s.db.ListWaitlist(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Failed to list signups")
		writeError(w, http.StatusInternalServerError, "failed to list signups", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscribers": subs,
		"waitlist":    waiting,
	})
}
