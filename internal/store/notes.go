package store

import (
	"strings"

	"careline-be/internal/metrics"
	"careline-be/internal/models"
)

// Note returns a copy of the clinical note for chatID (or
// models.GlobalScribeKey for a chat-less scribe session).
func (s *Store) Note(chatID string) (models.ClinicalNote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[chatID]
	if !ok {
		return models.ClinicalNote{}, false
	}
	return copyNote(n), true
}

// ensureNote creates the note record lazily on first write. Caller holds
// the lock.
func (s *Store) ensureNote(chatID string) *models.ClinicalNote {
	if n, ok := s.notes[chatID]; ok {
		return n
	}
	now := s.now()
	n := &models.ClinicalNote{
		ID:           s.newID(),
		ChatID:       chatID,
		TemplateType: models.DefaultTemplate,
		Sections:     map[string]string{},
		Suggestions:  []models.Suggestion{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.notes[chatID] = n
	return n
}

// UpdateClinicalNote writes text into one section, creating the note on
// first call for the chat. UpdatedAt is always stamped.
func (s *Store) UpdateClinicalNote(chatID, sectionID, text string) {
	s.mu.Lock()
	n := s.ensureNote(chatID)
	n.Sections[sectionID] = text
	n.UpdatedAt = s.now()
	metrics.NotesUpdated.Inc()
	ev := s.noteEvent(chatID, n)
	s.mu.Unlock()
	s.emit(ev)
}

// SetNoteTemplate switches the note's template. Sections for ids the new
// template also defines are kept; the rest are dropped.
func (s *Store) SetNoteTemplate(chatID, templateType string) {
	s.mu.Lock()
	n := s.ensureNote(chatID)
	tpl := models.TemplateByID(templateType)
	kept := map[string]string{}
	for _, sec := range tpl.Sections {
		if v, ok := n.Sections[sec.ID]; ok {
			kept[sec.ID] = v
		}
	}
	n.TemplateType = tpl.ID
	n.Sections = kept
	n.UpdatedAt = s.now()
	ev := s.noteEvent(chatID, n)
	s.mu.Unlock()
	s.emit(ev)
}

// NoteDetailsPatch updates note context fields; nil fields are untouched.
type NoteDetailsPatch struct {
	PatientID        *string
	ConsultationType *string
	VisitReason      *string
}

// UpdateNoteDetails applies patch to the note's context fields.
func (s *Store) UpdateNoteDetails(chatID string, patch NoteDetailsPatch) {
	s.mu.Lock()
	n := s.ensureNote(chatID)
	if patch.PatientID != nil {
		n.PatientID = *patch.PatientID
	}
	if patch.ConsultationType != nil {
		n.ConsultationType = *patch.ConsultationType
	}
	if patch.VisitReason != nil {
		n.VisitReason = *patch.VisitReason
	}
	n.UpdatedAt = s.now()
	ev := s.noteEvent(chatID, n)
	s.mu.Unlock()
	s.emit(ev)
}

// AddSuggestions appends AI-proposed snippets to the note's pending list.
func (s *Store) AddSuggestions(chatID string, suggestions []models.Suggestion) {
	if len(suggestions) == 0 {
		return
	}
	s.mu.Lock()
	n := s.ensureNote(chatID)
	n.Suggestions = append(n.Suggestions, suggestions...)
	n.UpdatedAt = s.now()
	ev := s.noteEvent(chatID, n)
	s.mu.Unlock()
	s.emit(ev)
}

// AcceptSuggestion appends the suggestion's text (or editedText when given)
// onto the target section, newline-joined, and removes it from the pending
// list. Unknown note or suggestion id is a no-op.
func (s *Store) AcceptSuggestion(chatID, suggestionID, editedText string) {
	s.mu.Lock()
	n, ok := s.notes[chatID]
	if !ok {
		s.mu.Unlock()
		return
	}
	idx := -1
	for i, sg := range n.Suggestions {
		if sg.ID == suggestionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	sg := n.Suggestions[idx]
	text := sg.Text
	if editedText != "" {
		text = editedText
	}
	existing := n.Sections[sg.Section]
	if strings.TrimSpace(existing) == "" {
		n.Sections[sg.Section] = text
	} else {
		n.Sections[sg.Section] = existing + "\n" + text
	}
	n.Suggestions = append(n.Suggestions[:idx], n.Suggestions[idx+1:]...)
	n.UpdatedAt = s.now()
	ev := s.noteEvent(chatID, n)
	s.mu.Unlock()
	s.emit(ev)
}

// DismissSuggestion removes the suggestion without touching any section.
// Dismissing an already-dismissed id is a safe no-op.
func (s *Store) DismissSuggestion(chatID, suggestionID string) {
	s.mu.Lock()
	n, ok := s.notes[chatID]
	if !ok {
		s.mu.Unlock()
		return
	}
	idx := -1
	for i, sg := range n.Suggestions {
		if sg.ID == suggestionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	n.Suggestions = append(n.Suggestions[:idx], n.Suggestions[idx+1:]...)
	n.UpdatedAt = s.now()
	ev := s.noteEvent(chatID, n)
	s.mu.Unlock()
	s.emit(ev)
}

// SetNoteSections bulk-writes generated section content onto the note.
// Used after structured note generation; sections outside the mapping are
// untouched.
func (s *Store) SetNoteSections(chatID string, sections map[string]string, callID string) {
	if len(sections) == 0 {
		return
	}
	s.mu.Lock()
	n := s.ensureNote(chatID)
	for id, text := range sections {
		n.Sections[id] = text
	}
	if callID != "" {
		n.CallID = callID
	}
	n.UpdatedAt = s.now()
	metrics.NotesUpdated.Inc()
	ev := s.noteEvent(chatID, n)
	s.mu.Unlock()
	s.emit(ev)
}

// noteEvent builds the note:updated event. Caller holds the lock. For the
// global scribe key there is no chat, so the event targets nobody.
func (s *Store) noteEvent(chatID string, n *models.ClinicalNote) Event {
	var targets []string
	if chat, ok := s.chatIndex[chatID]; ok {
		targets = append([]string(nil), chat.Participants...)
	}
	return Event{Type: EventNoteUpdated, ChatID: chatID, UserIDs: targets, Data: copyNote(n)}
}

func copyNote(n *models.ClinicalNote) models.ClinicalNote {
	out := *n
	out.Sections = make(map[string]string, len(n.Sections))
	for k, v := range n.Sections {
		out.Sections[k] = v
	}
	out.Suggestions = append([]models.Suggestion(nil), n.Suggestions...)
	return out
}
