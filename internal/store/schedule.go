package store

import (
	log "github.com/sirupsen/logrus"

	"careline-be/internal/models"
)

// Preferences returns the current user preferences.
func (s *Store) Preferences() models.UserPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.prefs
	p.FavoriteTemplates = append([]string(nil), s.prefs.FavoriteTemplates...)
	return p
}

// PreferencesPatch updates preference fields; nil fields are untouched.
type PreferencesPatch struct {
	DefaultTemplate   *string
	FavoriteTemplates *[]string
	AutoScribe        *bool
}

// UpdatePreferences applies patch and writes the result to durable local
// storage. A failed write logs and keeps the in-memory value.
func (s *Store) UpdatePreferences(patch PreferencesPatch) {
	s.mu.Lock()
	if patch.DefaultTemplate != nil {
		s.prefs.DefaultTemplate = *patch.DefaultTemplate
	}
	if patch.FavoriteTemplates != nil {
		s.prefs.FavoriteTemplates = append([]string(nil), (*patch.FavoriteTemplates)...)
	}
	if patch.AutoScribe != nil {
		s.prefs.AutoScribe = *patch.AutoScribe
	}
	prefs := s.prefs
	s.mu.Unlock()

	if s.kv != nil {
		if err := s.kv.PutJSON(prefsKey, prefs); err != nil {
			log.WithError(err).Warn("failed to persist preferences")
		}
	}
}

// AddScheduleItem records a schedule entry and returns its id.
func (s *Store) AddScheduleItem(item models.ScheduleItem) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.newID()
	cp := item
	s.schedule = append(s.schedule, &cp)
	return item.ID
}

// ScheduleItems returns all schedule entries in creation order.
func (s *Store) ScheduleItems() []models.ScheduleItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScheduleItem, 0, len(s.schedule))
	for _, it := range s.schedule {
		out = append(out, *it)
	}
	return out
}

// ScheduleItem returns the entry with the given id.
func (s *Store) ScheduleItem(id string) (models.ScheduleItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.schedule {
		if it.ID == id {
			return *it, true
		}
	}
	return models.ScheduleItem{}, false
}

// MarkExportedToCalendar records that the schedule item was handed to the
// external calendar, persisting the id list.
func (s *Store) MarkExportedToCalendar(id string) {
	s.mu.Lock()
	s.exported[id] = true
	ids := make([]string, 0, len(s.exported))
	for k := range s.exported {
		ids = append(ids, k)
	}
	s.mu.Unlock()

	if s.kv != nil {
		if err := s.kv.PutJSON(calendarExportedKey, ids); err != nil {
			log.WithError(err).Warn("failed to persist exported calendar ids")
		}
	}
}

// ExportedToCalendar reports whether the schedule item was already
// exported.
func (s *Store) ExportedToCalendar(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exported[id]
}
