package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/eventcoordinator/services/event-service/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

func validResponse(v string) bool {
	return v == "yes" || v == "no" || v == "maybe"
}

// Respond records a subscriber's yes/no/maybe answer to an event. Repeat
// answers replace the previous one. Only subscribers of the organization
// may respond; anonymous subscribers authenticate with their manage token.
func (h *EventHandler) Respond(w http.ResponseWriter, r *http.Request) {
	organizationID := organizationIDFromHeader(r)
	if organizationID == "" {
		http.Error(w, "missing X-Organization-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		EventID  string `json:"event_id"`
		Response string `json:"response"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.EventID = strings.TrimSpace(req.EventID)
	if req.EventID == "" {
		http.Error(w, "event_id is required", http.StatusBadRequest)
		return
	}
	if !validResponse(req.Response) {
		http.Error(w, "response must be yes, no or maybe", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	anonymousID := strings.TrimSpace(r.Header.Get("X-Anonymous-Id"))

	switch {
	case userID != "":
		subscribed, err := h.repo.IsSubscriber(ctx, organizationID, userID)
		if err != nil {
			h.logger.Error("subscription check failed", "organization_id", organizationID, "err", err)
			http.Error(w, "failed to record response", http.StatusInternalServerError)
			return
		}
		if !subscribed {
			http.Error(w, "must be subscribed to respond", http.StatusForbidden)
			return
		}
	case anonymousID != "":
		token := strings.TrimSpace(r.Header.Get("X-Manage-Token"))
		if token == "" {
			http.Error(w, "missing X-Manage-Token", http.StatusUnauthorized)
			return
		}
		hash, err := h.repo.AnonymousTokenHash(ctx, organizationID, anonymousID)
		if err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "unknown anonymous subscriber", http.StatusUnauthorized)
				return
			}
			h.logger.Error("anonymous lookup failed", "organization_id", organizationID, "err", err)
			http.Error(w, "failed to record response", http.StatusInternalServerError)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) != nil {
			http.Error(w, "invalid manage token", http.StatusUnauthorized)
			return
		}
	default:
		http.Error(w, "missing X-User-Id or X-Anonymous-Id", http.StatusUnauthorized)
		return
	}

	active, err := h.repo.ActiveEventExists(ctx, organizationID, req.EventID)
	if err != nil {
		h.logger.Error("event lookup failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to record response", http.StatusInternalServerError)
		return
	}
	if !active {
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}

	if err := h.repo.SaveResponse(ctx, req.EventID, userID, anonymousID, req.Response); err != nil {
		h.logger.Error("response save failed", "event_id", req.EventID, "err", err)
		http.Error(w, "failed to record response", http.StatusInternalServerError)
		return
	}

	stats, err := h.repo.ResponseStats(ctx, req.EventID)
	if err != nil {
		h.logger.Error("response stats failed", "event_id", req.EventID, "err", err)
		http.Error(w, "failed to record response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"response":  req.Response,
		"responses": stats,
	})
}
