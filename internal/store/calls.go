package store

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"careline-be/internal/metrics"
	"careline-be/internal/models"
)

// StartCall opens a call session for userID. chatID may be empty for a
// chat-less scribe session. Starting while another call is active is
// rejected.
func (s *Store) StartCall(userID, chatID string, ctype models.CallType) (models.CallSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.call != nil {
		return models.CallSession{}, false
	}
	s.call = &models.CallSession{
		ID:        s.newID(),
		UserID:    userID,
		ChatID:    chatID,
		Type:      ctype,
		StartTime: s.now(),
	}
	return *s.call, true
}

// ActiveCall returns the in-progress call session, if any.
func (s *Store) ActiveCall() (models.CallSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.call == nil {
		return models.CallSession{}, false
	}
	c := *s.call
	c.Transcript = append([]string(nil), s.call.Transcript...)
	return c, true
}

// AppendTranscript adds a line to the active call's accumulated transcript.
// No-op when no call is active.
func (s *Store) AppendTranscript(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.call == nil || strings.TrimSpace(line) == "" {
		return
	}
	s.call.Transcript = append(s.call.Transcript, line)
}

// EndCall tears down the active call. The session and its transcript are
// cleared unconditionally up front, so a failed AI call can never leave a
// call stuck. Duration is computed from the session start to now. On a
// chat-backed call a call_log message is appended, plus a second text
// message carrying the structured note when one was produced. Returns the
// call_log message id, or "" when no call was active.
func (s *Store) EndCall(ctx context.Context) string {
	s.mu.Lock()
	if s.call == nil {
		s.mu.Unlock()
		return ""
	}
	call := *s.call
	call.Transcript = append([]string(nil), s.call.Transcript...)
	s.call = nil
	duration := int(s.now().Sub(call.StartTime).Seconds())
	template := models.TemplateByID(s.prefs.DefaultTemplate)
	s.mu.Unlock()

	transcript := strings.Join(call.Transcript, "\n")

	summary := FallbackCallSummary
	if s.scribe != nil {
		if out := s.scribe.SummarizeCall(ctx, duration, transcript); out != "" {
			summary = out
		}
	}

	noteKey := call.ChatID
	if noteKey == "" {
		noteKey = models.GlobalScribeKey
	}

	var note *models.ClinicalNote
	if s.scribe != nil && len(call.Transcript) > 0 {
		sections := s.scribe.GenerateStructuredNote(ctx, call.Transcript, template, "", "")
		if sections != nil {
			s.SetNoteSections(noteKey, sections, call.ID)
			if n, ok := s.Note(noteKey); ok {
				note = &n
			}
		} else {
			log.WithField("call_id", call.ID).Warn("structured note unavailable for call")
		}
	}

	metrics.CallsEnded.Inc()

	if call.ChatID == "" {
		s.emit(Event{Type: EventCallEnded, Data: call})
		return ""
	}

	msgID := s.SendMessage(call.ChatID, Draft{
		SenderID: call.UserID,
		Type:     models.MessageCallLog,
		Call: &models.CallMeta{
			CallID:          call.ID,
			CallType:        call.Type,
			DurationSeconds: duration,
			Summary:         summary,
			Transcript:      transcript,
			Note:            note,
		},
	})
	if note != nil {
		s.SendMessage(call.ChatID, Draft{
			SenderID:   call.UserID,
			Content:    "Clinical note from call",
			Type:       models.MessageText,
			Note:       note,
			IsCallNote: true,
		})
	}

	s.emit(Event{Type: EventCallEnded, ChatID: call.ChatID, UserIDs: s.participantsOf(call.ChatID), Data: call})
	return msgID
}

func (s *Store) participantsOf(chatID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chat, ok := s.chatIndex[chatID]; ok {
		return append([]string(nil), chat.Participants...)
	}
	return nil
}
