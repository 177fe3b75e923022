package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/eventcoordinator/libs/schedule"
	"github.com/md-rashed-zaman/eventcoordinator/services/availability-service/internal/rules"
	"github.com/md-rashed-zaman/eventcoordinator/services/availability-service/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// Store interfaces cover just the repository methods the handlers call, so
// tests can substitute in-memory fakes for the pgx-backed repositories.
type organizationStore interface {
	Create(ctx context.Context, name, description, website, channel string) (storage.Organization, error)
}

type subscriptionStore interface {
	Create(ctx context.Context, sub storage.Subscription) (storage.Subscription, error)
	CreateAnonymous(ctx context.Context, sub storage.AnonymousSubscription) (storage.AnonymousSubscription, error)
	GetAnonymous(ctx context.Context, organizationID, anonymousID string) (storage.AnonymousSubscription, error)
	ResolveIdentities(ctx context.Context, organizationID string) (map[string]storage.Identity, error)
}

type ruleStore interface {
	ReplaceForOwner(ctx context.Context, organizationID string, owner schedule.Subscriber, rules []schedule.Rule) error
	ListForOwner(ctx context.Context, organizationID string, owner schedule.Subscriber) ([]storage.StoredRule, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]schedule.Rule, error)
}

type Handler struct {
	orgs   organizationStore
	subs   subscriptionStore
	rules  ruleStore
	logger *slog.Logger
}

func New(orgs organizationStore, subs subscriptionStore, ruleRepo ruleStore, logger *slog.Logger) *Handler {
	return &Handler{orgs: orgs, subs: subs, rules: ruleRepo, logger: logger}
}

func organizationIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Organization-Id"))
}

// ownerFromRequest resolves the caller to a subscriber identity. Registered
// users are identified by X-User-Id (validated upstream by the auth
// gateway); anonymous subscribers present the id and manage token they were
// handed at subscription time.
func (h *Handler) ownerFromRequest(r *http.Request, organizationID string) (schedule.Subscriber, int, error) {
	if userID := strings.TrimSpace(r.Header.Get("X-User-Id")); userID != "" {
		return schedule.RegisteredUser(userID), 0, nil
	}

	anonymousID := strings.TrimSpace(r.Header.Get("X-Anonymous-Id"))
	token := strings.TrimSpace(r.Header.Get("X-Manage-Token"))
	if anonymousID == "" || token == "" {
		return schedule.Subscriber{}, http.StatusUnauthorized, errors.New("missing X-User-Id or X-Anonymous-Id with X-Manage-Token")
	}

	sub, err := h.subs.GetAnonymous(r.Context(), organizationID, anonymousID)
	if err != nil {
		if storage.IsNotFound(err) {
			return schedule.Subscriber{}, http.StatusUnauthorized, errors.New("unknown anonymous subscriber")
		}
		return schedule.Subscriber{}, http.StatusInternalServerError, errors.New("failed to load subscriber")
	}
	if bcrypt.CompareHashAndPassword([]byte(sub.ManageTokenHash), []byte(token)) != nil {
		return schedule.Subscriber{}, http.StatusUnauthorized, errors.New("invalid manage token")
	}
	return schedule.AnonymousSubscriber(sub.ID), 0, nil
}

func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	organizationID := organizationIDFromHeader(r)
	if organizationID == "" {
		http.Error(w, "missing X-Organization-Id", http.StatusBadRequest)
		return
	}
	owner, status, err := h.ownerFromRequest(r, organizationID)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	var req struct {
		Rules []rules.RulePayload `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	parsed, err := rules.Parse(owner, req.Rules)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.rules.ReplaceForOwner(r.Context(), organizationID, owner, parsed); err != nil {
		h.logger.Error("availability update failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to store availability", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"rules_stored": len(parsed),
	})
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	organizationID := organizationIDFromHeader(r)
	if organizationID == "" {
		http.Error(w, "missing X-Organization-Id", http.StatusBadRequest)
		return
	}
	owner, status, err := h.ownerFromRequest(r, organizationID)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	stored, err := h.rules.ListForOwner(r.Context(), organizationID, owner)
	if err != nil {
		h.logger.Error("availability read failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}
	if stored == nil {
		stored = []storage.StoredRule{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"rules": stored,
	})
}
