package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/eventcoordinator/services/availability-service/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

func validChannel(c string) bool {
	return c == "email" || c == "sms" || c == "whatsapp"
}

func validPreference(p string) bool {
	return p == "all" || p == "matching"
}

func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                string `json:"name"`
		Description         string `json:"description"`
		Website             string `json:"website"`
		NotificationChannel string `json:"notification_channel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.NotificationChannel == "" {
		req.NotificationChannel = "email"
	}
	if !validChannel(req.NotificationChannel) {
		http.Error(w, "notification_channel must be email, sms or whatsapp", http.StatusBadRequest)
		return
	}

	org, err := h.orgs.Create(r.Context(), req.Name, strings.TrimSpace(req.Description), strings.TrimSpace(req.Website), req.NotificationChannel)
	if err != nil {
		h.logger.Error("organization create failed", "err", err)
		http.Error(w, "failed to create organization", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":                   org.ID,
		"name":                 org.Name,
		"notification_channel": org.NotificationChannel,
	})
}

func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	organizationID := organizationIDFromHeader(r)
	if organizationID == "" {
		http.Error(w, "missing X-Organization-Id", http.StatusBadRequest)
		return
	}
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		http.Error(w, "missing X-User-Id", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name                   string `json:"name"`
		Email                  string `json:"email"`
		PhoneNumber            string `json:"phone_number"`
		WhatsAppNumber         string `json:"whatsapp_number"`
		NotificationPreference string `json:"notification_preference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.NotificationPreference == "" {
		req.NotificationPreference = "all"
	}
	if !validPreference(req.NotificationPreference) {
		http.Error(w, "notification_preference must be all or matching", http.StatusBadRequest)
		return
	}

	sub, err := h.subs.Create(r.Context(), storage.Subscription{
		OrganizationID:         organizationID,
		UserID:                 userID,
		UserName:               strings.TrimSpace(req.Name),
		UserEmail:              strings.TrimSpace(req.Email),
		PhoneNumber:            strings.TrimSpace(req.PhoneNumber),
		WhatsAppNumber:         strings.TrimSpace(req.WhatsAppNumber),
		NotificationPreference: req.NotificationPreference,
	})
	if err != nil {
		if storage.IsDuplicate(err) {
			http.Error(w, "already subscribed", http.StatusConflict)
			return
		}
		h.logger.Error("subscription create failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to create subscription", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":                      sub.ID,
		"notification_preference": sub.NotificationPreference,
	})
}

// CreateAnonymousSubscription registers a subscriber without an account.
// The manage token is generated server side, returned exactly once and only
// its bcrypt hash is stored.
func (h *Handler) CreateAnonymousSubscription(w http.ResponseWriter, r *http.Request) {
	organizationID := organizationIDFromHeader(r)
	if organizationID == "" {
		http.Error(w, "missing X-Organization-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name                   string `json:"name"`
		Email                  string `json:"email"`
		PhoneNumber            string `json:"phone_number"`
		WhatsAppNumber         string `json:"whatsapp_number"`
		NotificationPreference string `json:"notification_preference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		http.Error(w, "valid email is required", http.StatusBadRequest)
		return
	}
	if req.NotificationPreference == "" {
		req.NotificationPreference = "all"
	}
	if !validPreference(req.NotificationPreference) {
		http.Error(w, "notification_preference must be all or matching", http.StatusBadRequest)
		return
	}

	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to create subscription", http.StatusInternalServerError)
		return
	}

	sub, err := h.subs.CreateAnonymous(r.Context(), storage.AnonymousSubscription{
		OrganizationID:         organizationID,
		Name:                   req.Name,
		Email:                  req.Email,
		PhoneNumber:            strings.TrimSpace(req.PhoneNumber),
		WhatsAppNumber:         strings.TrimSpace(req.WhatsAppNumber),
		NotificationPreference: req.NotificationPreference,
		ManageTokenHash:        string(hash),
	})
	if err != nil {
		if storage.IsDuplicate(err) {
			http.Error(w, "email already subscribed", http.StatusConflict)
			return
		}
		h.logger.Error("anonymous subscription create failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to create subscription", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":           sub.ID,
		"manage_token": token,
	})
}
