package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/eventcoordinator/services/event-service/internal/outbox"
	"github.com/md-rashed-zaman/eventcoordinator/services/event-service/internal/storage"
)

type EventHandler struct {
	repo       *storage.EventRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewEventHandler(repo *storage.EventRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *EventHandler {
	return &EventHandler{repo: repo, outboxRepo: outboxRepo, logger: logger}
}

type createEventRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Location         string `json:"location"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	NotifyOnCreation *bool  `json:"notify_on_creation"`
	NotifyOnDeletion *bool  `json:"notify_on_deletion"`
}

// eventNotice is the payload published on event.created.v1 and
// event.deleted.v1. The notification service decodes the same shape.
type eventNotice struct {
	EventID        string `json:"event_id"`
	OrganizationID string `json:"organization_id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Location       string `json:"location,omitempty"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
}

func organizationIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Organization-Id"))
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	organizationID := organizationIDFromHeader(r)
	if organizationID == "" {
		http.Error(w, "missing X-Organization-Id", http.StatusBadRequest)
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "start_time must be RFC3339", http.StatusBadRequest)
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		http.Error(w, "end_time must be RFC3339", http.StatusBadRequest)
		return
	}
	if !endTime.After(startTime) {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}

	ev := storage.Event{
		OrganizationID:   organizationID,
		Title:            req.Title,
		Description:      strings.TrimSpace(req.Description),
		Location:         strings.TrimSpace(req.Location),
		StartTime:        startTime.UTC(),
		EndTime:          endTime.UTC(),
		NotifyOnCreation: req.NotifyOnCreation == nil || *req.NotifyOnCreation,
		NotifyOnDeletion: req.NotifyOnDeletion == nil || *req.NotifyOnDeletion,
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "failed to create event", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ev, err = h.repo.Create(ctx, tx, ev)
	if err != nil {
		h.logger.Error("event insert failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to create event", http.StatusInternalServerError)
		return
	}

	if ev.NotifyOnCreation {
		payload, err := json.Marshal(eventNotice{
			EventID:        ev.ID,
			OrganizationID: ev.OrganizationID,
			Title:          ev.Title,
			Description:    ev.Description,
			Location:       ev.Location,
			StartTime:      ev.StartTime.Format(time.RFC3339),
			EndTime:        ev.EndTime.Format(time.RFC3339),
		})
		if err != nil {
			http.Error(w, "failed to create event", http.StatusInternalServerError)
			return
		}
		if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
			AggregateType: "event",
			AggregateID:   ev.ID,
			EventType:     outbox.TopicEventCreated,
			Payload:       payload,
		}); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to create event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(eventJSON(ev))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	organizationID := organizationIDFromHeader(r)
	if organizationID == "" {
		http.Error(w, "missing X-Organization-Id", http.StatusBadRequest)
		return
	}
	eventID := strings.TrimSpace(r.URL.Query().Get("id"))
	if eventID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "failed to delete event", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ev, err := h.repo.Deactivate(ctx, tx, organizationID, eventID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		h.logger.Error("event delete failed", "organization_id", organizationID, "event_id", eventID, "err", err)
		http.Error(w, "failed to delete event", http.StatusInternalServerError)
		return
	}

	if ev.NotifyOnDeletion {
		payload, err := json.Marshal(eventNotice{
			EventID:        ev.ID,
			OrganizationID: ev.OrganizationID,
			Title:          ev.Title,
			Location:       ev.Location,
			StartTime:      ev.StartTime.Format(time.RFC3339),
			EndTime:        ev.EndTime.Format(time.RFC3339),
		})
		if err != nil {
			http.Error(w, "failed to delete event", http.StatusInternalServerError)
			return
		}
		if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
			AggregateType: "event",
			AggregateID:   ev.ID,
			EventType:     outbox.TopicEventDeleted,
			Payload:       payload,
		}); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to delete event", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	organizationID := organizationIDFromHeader(r)
	if organizationID == "" {
		http.Error(w, "missing X-Organization-Id", http.StatusBadRequest)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	events, err := h.repo.ListByOrganization(r.Context(), organizationID, limit)
	if err != nil {
		h.logger.Error("event list failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}

	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	stats, err := h.repo.ResponseStatsForEvents(r.Context(), ids)
	if err != nil {
		h.logger.Error("response stats failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(events))
	for _, ev := range events {
		entry := eventJSON(ev)
		entry["responses"] = stats[ev.ID]
		out = append(out, entry)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func eventJSON(ev storage.Event) map[string]any {
	return map[string]any{
		"id":                 ev.ID,
		"organization_id":    ev.OrganizationID,
		"title":              ev.Title,
		"description":        ev.Description,
		"location":           ev.Location,
		"start_time":         ev.StartTime.UTC().Format(time.RFC3339),
		"end_time":           ev.EndTime.UTC().Format(time.RFC3339),
		"notify_on_creation": ev.NotifyOnCreation,
		"notify_on_deletion": ev.NotifyOnDeletion,
	}
}
