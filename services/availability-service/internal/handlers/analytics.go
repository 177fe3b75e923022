package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/eventcoordinator/libs/schedule"
	"github.com/md-rashed-zaman/eventcoordinator/services/availability-service/internal/storage"
)

const (
	defaultRangeDays = 14
	defaultSlotLimit = 10
	maxRangeDays     = 92
)

var (
	errInvalidRange = errors.New("end must not be before start")
	errRangeTooWide = errors.New("date range too wide")
	errBadLimit     = errors.New("limit must be 1..100")
	errBadWindow    = errors.New("window must be HH:MM-HH:MM with start before end")
)

type memberJSON struct {
	Key        string `json:"key"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Confidence string `json:"confidence,omitempty"`
}

type slotJSON struct {
	Date       string       `json:"date"`
	Weekday    string       `json:"weekday"`
	Start      string       `json:"start"`
	End        string       `json:"end"`
	Display    string       `json:"display"`
	Score      int          `json:"score"`
	SureCount  int          `json:"sure_count"`
	MaybeCount int          `json:"maybe_count"`
	Sure       []memberJSON `json:"sure"`
	Maybe      []memberJSON `json:"maybe"`
}

type weekdayJSON struct {
	Weekday    string       `json:"weekday"`
	SureCount  int          `json:"sure_count"`
	MaybeCount int          `json:"maybe_count"`
	Members    []memberJSON `json:"members"`
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	organizationID := organizationIDFromHeader(r)
	if organizationID == "" {
		http.Error(w, "missing X-Organization-Id", http.StatusBadRequest)
		return
	}

	from, to, limit, err := rangeParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	orgRules, err := h.rules.ListByOrganization(r.Context(), organizationID)
	if err != nil {
		h.logger.Error("analytics rule load failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}
	identities, err := h.subs.ResolveIdentities(r.Context(), organizationID)
	if err != nil {
		h.logger.Error("analytics identity load failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to load subscribers", http.StatusInternalServerError)
		return
	}

	report := schedule.Analytics(orgRules, from, to, limit)

	slots := make([]slotJSON, 0, len(report.Slots))
	for _, s := range report.Slots {
		slots = append(slots, candidateJSON(s, identities))
	}

	weekly := make([]weekdayJSON, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		bucket := report.Weekly[d]
		wj := weekdayJSON{
			Weekday:    d.String(),
			SureCount:  bucket.SureCount,
			MaybeCount: bucket.MaybeCount,
			Members:    []memberJSON{},
		}
		for _, m := range bucket.Members {
			mj := subscriberJSON(m.Subscriber, identities)
			mj.Confidence = string(m.Confidence)
			wj.Members = append(wj.Members, mj)
		}
		weekly = append(weekly, wj)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"start":             from.Format("2006-01-02"),
		"end":               to.Format("2006-01-02"),
		"total_subscribers": report.TotalSubscribers,
		"slots":             slots,
		"weekly":            weekly,
	})
}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	organizationID := organizationIDFromHeader(r)
	if organizationID == "" {
		http.Error(w, "missing X-Organization-Id", http.StatusBadRequest)
		return
	}

	from, to, limit, err := rangeParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	orgRules, err := h.rules.ListByOrganization(r.Context(), organizationID)
	if err != nil {
		h.logger.Error("suggestions rule load failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}
	identities, err := h.subs.ResolveIdentities(r.Context(), organizationID)
	if err != nil {
		h.logger.Error("suggestions identity load failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to load subscribers", http.StatusInternalServerError)
		return
	}

	ranked := schedule.Rank(schedule.Decompose(orgRules, from, to), limit)
	slots := make([]slotJSON, 0, len(ranked))
	for _, s := range ranked {
		slots = append(slots, candidateJSON(s, identities))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"start":       from.Format("2006-01-02"),
		"end":         to.Format("2006-01-02"),
		"suggestions": slots,
	})
}

// SlotAvailability answers "who can attend this exact window on this date".
// A subscriber counts only when one declared slot covers the whole window;
// partial coverage is not attendance.
func (h *Handler) SlotAvailability(w http.ResponseWriter, r *http.Request) {
	organizationID := organizationIDFromHeader(r)
	if organizationID == "" {
		http.Error(w, "missing X-Organization-Id", http.StatusBadRequest)
		return
	}

	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	window, err := parseWindow(r.URL.Query().Get("window"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	orgRules, err := h.rules.ListByOrganization(r.Context(), organizationID)
	if err != nil {
		h.logger.Error("slot lookup rule load failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}
	identities, err := h.subs.ResolveIdentities(r.Context(), organizationID)
	if err != nil {
		h.logger.Error("slot lookup identity load failed", "organization_id", organizationID, "err", err)
		http.Error(w, "failed to load subscribers", http.StatusInternalServerError)
		return
	}

	sure, maybe := coveringSubscribers(orgRules, date, window)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"date":        date.Format("2006-01-02"),
		"window":      window.String(),
		"sure_count":  len(sure),
		"maybe_count": len(maybe),
		"sure":        membersJSON(sure, identities),
		"maybe":       membersJSON(maybe, identities),
	})
}

// coveringSubscribers collects the distinct subscribers whose rules apply
// on the date with a slot covering the whole window. A subscriber with both
// a sure and a maybe rule counts once, as sure.
func coveringSubscribers(orgRules []schedule.Rule, date time.Time, window schedule.Slot) (sure, maybe []schedule.Subscriber) {
	confidence := map[string]schedule.Confidence{}
	order := []schedule.Subscriber{}
	for _, rule := range orgRules {
		if rule.Owner.IsZero() || !rule.Recurrence.AppliesOn(date) {
			continue
		}
		covers := false
		for _, s := range rule.Slots {
			if s.Valid() && s.Covers(window) {
				covers = true
				break
			}
		}
		if !covers {
			continue
		}
		conf := rule.Confidence
		if conf == "" {
			conf = schedule.Sure
		}
		key := rule.Owner.Key()
		prev, seen := confidence[key]
		if !seen {
			order = append(order, rule.Owner)
			confidence[key] = conf
		} else if prev == schedule.Maybe && conf == schedule.Sure {
			confidence[key] = schedule.Sure
		}
	}
	for _, sub := range order {
		if confidence[sub.Key()] == schedule.Sure {
			sure = append(sure, sub)
		} else {
			maybe = append(maybe, sub)
		}
	}
	return sure, maybe
}

func candidateJSON(s schedule.CandidateSlot, identities map[string]storage.Identity) slotJSON {
	return slotJSON{
		Date:       s.Date.Format("2006-01-02"),
		Weekday:    s.Weekday,
		Start:      schedule.FormatClock(s.Slot.Start),
		End:        schedule.FormatClock(s.Slot.End),
		Display:    s.Display,
		Score:      s.Score,
		SureCount:  s.SureCount,
		MaybeCount: s.MaybeCount,
		Sure:       membersJSON(s.Sure, identities),
		Maybe:      membersJSON(s.Maybe, identities),
	}
}

func membersJSON(subs []schedule.Subscriber, identities map[string]storage.Identity) []memberJSON {
	out := make([]memberJSON, 0, len(subs))
	for _, s := range subs {
		out = append(out, subscriberJSON(s, identities))
	}
	return out
}

func subscriberJSON(s schedule.Subscriber, identities map[string]storage.Identity) memberJSON {
	m := memberJSON{Key: s.Key()}
	if id, ok := identities[s.Key()]; ok {
		m.Name = id.Name
		m.Email = id.Email
	}
	return m
}

func rangeParams(r *http.Request) (from, to time.Time, limit int, err error) {
	q := r.URL.Query()

	from = schedule.DateOf(time.Now().UTC())
	if v := q.Get("start"); v != "" {
		from, err = time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, 0, err
		}
	}
	to = from.AddDate(0, 0, defaultRangeDays-1)
	if v := q.Get("end"); v != "" {
		to, err = time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, 0, err
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, 0, errInvalidRange
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, 0, errRangeTooWide
	}

	limit = defaultSlotLimit
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > 100 {
			return time.Time{}, time.Time{}, 0, errBadLimit
		}
	}
	return from, to, limit, nil
}

func parseWindow(s string) (schedule.Slot, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return schedule.Slot{}, errBadWindow
	}
	slot, err := schedule.ParseSlot(parts[0], parts[1])
	if err != nil {
		return schedule.Slot{}, errBadWindow
	}
	return slot, nil
}
