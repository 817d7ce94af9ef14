package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
	"github.com/chonlathan-cloud/lineoa-public-mirror/onboarding"
	"github.com/chonlathan-cloud/lineoa-public-mirror/webhook"
)

const signatureHeader = "X-Line-Signature"

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// WebhookHandler is the per-shop inbound gate. Verification runs before any
// event is dispatched; a request that fails it touches no session state.
func (s *Server) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID := r.PathValue("shopID")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		signature := r.Header.Get(signatureHeader)
		if err := s.deps.Authenticator.Verify(r.Context(), shopID, body, signature); err != nil {
			switch {
			case errors.Is(err, interrors.ErrSignatureMissing):
				http.Error(w, "signature missing", http.StatusBadRequest)
			case errors.Is(err, interrors.ErrSignatureMismatch):
				http.Error(w, "invalid signature", http.StatusBadRequest)
			default:
				// Credential resolution failed. Reject rather than skip
				// verification; log for operator attention.
				s.log.Error().Err(err).Str("shop_id", shopID).Msg("webhook credential resolution failed")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			}
			return
		}

		_, events, err := webhook.ParseEvents(body)
		if err != nil {
			http.Error(w, "malformed body", http.StatusBadRequest)
			return
		}

		for _, ev := range events {
			s.dispatchEvent(r, shopID, ev)
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func (s *Server) dispatchEvent(r *http.Request, shopID string, ev webhook.Event) {
	if ev.UserID == "" {
		return
	}
	if s.deps.Deduper != nil && s.deps.Deduper.Seen(r.Context(), shopID, ev.EventID) {
		s.log.Debug().Str("shop_id", shopID).Str("event_id", ev.EventID).Msg("duplicate webhook event dropped")
		return
	}

	var obEvent onboarding.Event
	switch {
	case ev.IsText():
		obEvent = onboarding.TextEvent(ev.Message.Text)
	case ev.IsLocation():
		obEvent = onboarding.LocationEvent(ev.Message.Latitude, ev.Message.Longitude, ev.Message.Address)
	default:
		obEvent = onboarding.Event{Kind: onboarding.EventOther}
	}

	reply, err := s.deps.Machine.Handle(r.Context(), ev.UserID, obEvent)
	if err != nil {
		s.log.Error().Err(err).Str("shop_id", shopID).Str("user_id", ev.UserID).Msg("onboarding event failed")
	}
	if reply.Text == "" {
		return
	}

	if s.deps.Replier != nil && ev.ReplyToken != "" {
		if err := s.deps.Replier.Reply(r.Context(), shopID, ev.ReplyToken, reply.Text); err != nil {
			s.log.Warn().Err(err).Str("shop_id", shopID).Msg("reply delivery failed")
		}
		return
	}
	s.log.Debug().Str("shop_id", shopID).Str("user_id", ev.UserID).Str("reply", reply.Text).Msg("reply (no transport)")
}

// HandoffHandler issues a signed handoff token for a consumer-side user so
// the admin service can later verify who they are.
func (s *Server) HandoffHandler() http.HandlerFunc {
	type request struct {
		UserID string `json:"user_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		shopID := r.PathValue("shopID")

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}

		ttl := s.config.GetHandoffTTL()
		token, err := s.deps.Issuer.Issue(req.UserID, shopID, ttl)
		if err != nil {
			s.log.Error().Err(err).Str("shop_id", shopID).Msg("handoff issue failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"token":      token,
			"expires_in": int(ttl.Seconds()),
		})
	}
}

// BindHandler verifies a handoff token, resolves the caller's global
// identity, and writes the owner binding. Identity comes from a bearer ID
// token, or from an authorization code when the caller lands here straight
// off a login redirect.
func (s *Server) BindHandler() http.HandlerFunc {
	type request struct {
		HandoffToken string `json:"handoff_token"`
		DisplayName  string `json:"display_name"`
		Code         string `json:"code"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HandoffToken == "" {
			http.Error(w, "handoff_token is required", http.StatusBadRequest)
			return
		}

		globalID, err := s.resolveGlobalID(r, req.Code)
		if err != nil {
			http.Error(w, "invalid identity token", http.StatusUnauthorized)
			return
		}

		claims, err := s.deps.Issuer.Verify(req.HandoffToken)
		if err != nil {
			// Generic rejection only; internal detail stays in the log.
			s.log.Warn().Err(err).Str("global_id", globalID).Msg("handoff verification failed")
			switch {
			case errors.Is(err, interrors.ErrTokenExpired):
				http.Error(w, "handoff expired", http.StatusUnauthorized)
			default:
				http.Error(w, "handoff rejected", http.StatusUnauthorized)
			}
			return
		}

		if err := s.deps.Binder.Bind(r.Context(), globalID, claims, req.DisplayName); err != nil {
			switch {
			case errors.Is(err, interrors.ErrBindingConflict):
				http.Error(w, "binding conflict", http.StatusConflict)
			default:
				s.log.Error().Err(err).Str("global_id", globalID).Str("shop_id", claims.ShopID).Msg("binding write failed")
				http.Error(w, "binding failed", http.StatusServiceUnavailable)
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"shop_id": claims.ShopID,
		})
	}
}

// resolveGlobalID prefers a bearer ID token; an authorization code is
// accepted when the resolver supports the exchange.
func (s *Server) resolveGlobalID(r *http.Request, code string) (string, error) {
	if rawIDToken := bearerToken(r); rawIDToken != "" {
		return s.deps.Identities.Resolve(r.Context(), rawIDToken)
	}
	if code != "" {
		if cr, ok := s.deps.Identities.(CodeResolver); ok {
			return cr.ResolveCode(r.Context(), code)
		}
	}
	return "", errors.Wrap(interrors.ErrTokenInvalid, "no identity credential presented")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
