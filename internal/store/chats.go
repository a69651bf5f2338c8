package store

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"careline-be/internal/metrics"
	"careline-be/internal/models"
)

// StartChat creates a direct (or SMS) chat between creator and the contact
// named by identifier. identifier is a user id or a phone number; a phone
// number that matches no user synthesizes a new directory user. No
// deduplication happens here: two calls with the same identifier create two
// independent chats. Callers wanting dedup check FindDirectChat first.
func (s *Store) StartChat(creatorID, identifier string, sms bool) string {
	s.mu.Lock()

	other, ok := s.lookupOrSynthesize(identifier)
	if !ok {
		s.mu.Unlock()
		return ""
	}

	ctype := models.ChatDirect
	if sms {
		ctype = models.ChatSMS
	}
	chat := &models.Chat{
		ID:           s.newID(),
		Name:         other.Name,
		Type:         ctype,
		Participants: []string{creatorID, other.ID},
		Messages:     []models.Message{},
		Avatar:       other.Avatar,
		CreatedAt:    s.now(),
	}
	s.chats = append(s.chats, chat)
	s.chatIndex[chat.ID] = chat

	ev := Event{Type: EventChatCreated, ChatID: chat.ID, UserIDs: chat.Participants, Data: copyChat(chat)}
	s.mu.Unlock()
	s.emit(ev)
	return chat.ID
}

// lookupOrSynthesize resolves identifier to a user, creating one from a
// phone number when nothing matches. Caller holds the lock.
func (s *Store) lookupOrSynthesize(identifier string) (models.User, bool) {
	if i, ok := s.userIndex[identifier]; ok {
		return s.users[i], true
	}
	if u, ok := s.userByPhone(identifier); ok {
		return u, true
	}
	if normalizePhone(identifier) == "" {
		return models.User{}, false
	}
	u := models.User{
		ID:    s.newID(),
		Name:  identifier,
		Role:  models.RolePatient,
		Phone: identifier,
	}
	s.userIndex[u.ID] = len(s.users)
	s.users = append(s.users, u)
	return u, true
}

// FindDirectChat returns the id of an existing direct chat whose
// participants are exactly a and b.
func (s *Store) FindDirectChat(a, b string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.Type != models.ChatDirect || len(c.Participants) != 2 {
			continue
		}
		if (c.Participants[0] == a && c.Participants[1] == b) ||
			(c.Participants[0] == b && c.Participants[1] == a) {
			return c.ID, true
		}
	}
	return "", false
}

// CreateGroupChat builds a group chat administered by the creator.
// Participant ids that resolve to no user are dropped; the creator is always
// a member. Name and member-count validation is the caller's concern.
func (s *Store) CreateGroupChat(creatorID, name string, ctype models.ChatType, participantIDs []string) string {
	s.mu.Lock()

	participants := []string{creatorID}
	seen := map[string]bool{creatorID: true}
	for _, id := range participantIDs {
		if seen[id] {
			continue
		}
		if _, ok := s.userIndex[id]; !ok {
			continue
		}
		seen[id] = true
		participants = append(participants, id)
	}

	chat := &models.Chat{
		ID:           s.newID(),
		Name:         name,
		Type:         ctype,
		Participants: participants,
		Messages:     []models.Message{},
		AdminID:      creatorID,
		CreatedAt:    s.now(),
	}
	s.chats = append(s.chats, chat)
	s.chatIndex[chat.ID] = chat

	ev := Event{Type: EventChatCreated, ChatID: chat.ID, UserIDs: chat.Participants, Data: copyChat(chat)}
	s.mu.Unlock()
	s.emit(ev)
	return chat.ID
}

// Chat returns a copy of the chat with the given id. Reads always derive
// from the canonical list; there is no cached "active chat" to diverge.
func (s *Store) Chat(id string) (models.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chatIndex[id]
	if !ok {
		return models.Chat{}, false
	}
	return copyChat(c), true
}

// Chats returns copies of the chats the user participates in, pinned chats
// first, then most recent activity.
func (s *Store) Chats(userID string) []models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Chat
	for _, c := range s.chats {
		if containsID(c.Participants, userID) {
			out = append(out, copyChat(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].LastMessageTime.After(out[j].LastMessageTime)
	})
	return out
}

// Draft describes a message to append. A zero Type means text.
type Draft struct {
	SenderID   string
	Content    string
	Type       models.MessageType
	File       *models.FileMeta
	Voice      *models.VoiceMeta
	Call       *models.CallMeta
	Note       *models.ClinicalNote
	IsCallNote bool
}

// SendMessage appends a new message to the chat and recomputes the chat's
// last-message preview and time. Unknown chat id returns "" without
// mutating anything. Ordering is by call sequence, not wall clock.
func (s *Store) SendMessage(chatID string, d Draft) string {
	s.mu.Lock()
	chat, ok := s.chatIndex[chatID]
	if !ok {
		s.mu.Unlock()
		log.WithField("chat_id", chatID).Debug("send to unknown chat ignored")
		return ""
	}

	if d.Type == "" {
		d.Type = models.MessageText
	}
	msg := models.Message{
		ID:         s.newID(),
		SenderID:   d.SenderID,
		Content:    d.Content,
		Timestamp:  s.now(),
		Type:       d.Type,
		File:       d.File,
		Voice:      d.Voice,
		Call:       d.Call,
		Note:       d.Note,
		IsCallNote: d.IsCallNote,
	}
	chat.Messages = append(chat.Messages, msg)
	chat.LastMessage = preview(msg)
	chat.LastMessageTime = msg.Timestamp

	metrics.MessagesSent.WithLabelValues(string(d.Type)).Inc()
	ev := Event{Type: EventMessageNew, ChatID: chatID, UserIDs: append([]string(nil), chat.Participants...), Data: msg}
	s.mu.Unlock()
	s.emit(ev)
	return msg.ID
}

func preview(m models.Message) string {
	switch m.Type {
	case models.MessageImage:
		return "📷 Photo"
	case models.MessageVoice:
		return "🎤 Voice message"
	case models.MessageFile:
		if m.File != nil {
			return "📎 " + m.File.FileName
		}
		return "📎 File"
	case models.MessageCallLog:
		return "📞 Call"
	default:
		return m.Content
	}
}

// VoicePatch is a partial update to a voice message's metadata. Nil fields
// are left untouched, so flipping IsTranscribing never clobbers an existing
// transcription and vice versa.
type VoicePatch struct {
	DurationSeconds *int
	IsTranscribing  *bool
	Transcription   *string
}

// CallPatch is a partial update to a call_log message's metadata.
type CallPatch struct {
	Summary    *string
	Transcript *string
}

// MetadataPatch is merged into a message's typed metadata.
type MetadataPatch struct {
	Voice VoicePatch
	Call  CallPatch
}

// UpdateMessageMetadata merges patch into the target message's metadata,
// preserving fields the patch does not set. Unknown chat or message id is a
// no-op. The mutation is keyed by id, so a slow caller applying a result
// after the UI moved on is safe.
func (s *Store) UpdateMessageMetadata(chatID, messageID string, patch MetadataPatch) {
	s.mu.Lock()
	chat, ok := s.chatIndex[chatID]
	if !ok {
		s.mu.Unlock()
		return
	}
	var updated *models.Message
	for i := range chat.Messages {
		if chat.Messages[i].ID != messageID {
			continue
		}
		m := &chat.Messages[i]
		if patch.Voice.DurationSeconds != nil || patch.Voice.IsTranscribing != nil || patch.Voice.Transcription != nil {
			if m.Voice == nil {
				m.Voice = &models.VoiceMeta{}
			}
			if patch.Voice.DurationSeconds != nil {
				m.Voice.DurationSeconds = *patch.Voice.DurationSeconds
			}
			if patch.Voice.IsTranscribing != nil {
				m.Voice.IsTranscribing = *patch.Voice.IsTranscribing
			}
			if patch.Voice.Transcription != nil {
				m.Voice.Transcription = *patch.Voice.Transcription
			}
		}
		if m.Call != nil {
			if patch.Call.Summary != nil {
				m.Call.Summary = *patch.Call.Summary
			}
			if patch.Call.Transcript != nil {
				m.Call.Transcript = *patch.Call.Transcript
			}
		}
		updated = m
		break
	}
	if updated == nil {
		s.mu.Unlock()
		return
	}
	ev := Event{Type: EventMessageUpdated, ChatID: chatID, UserIDs: append([]string(nil), chat.Participants...), Data: *updated}
	s.mu.Unlock()
	s.emit(ev)
}

// DeleteMessage soft-deletes: content is cleared and DeletedAt stamped once.
// The record itself is never removed, so ordering and id references hold.
// Repeated calls are no-ops.
func (s *Store) DeleteMessage(chatID, messageID string) {
	s.mu.Lock()
	chat, ok := s.chatIndex[chatID]
	if !ok {
		s.mu.Unlock()
		return
	}
	var deleted *models.Message
	for i := range chat.Messages {
		if chat.Messages[i].ID != messageID {
			continue
		}
		m := &chat.Messages[i]
		if m.DeletedAt == nil {
			now := s.now()
			m.Content = ""
			m.DeletedAt = &now
			deleted = m
		}
		break
	}
	if deleted == nil {
		s.mu.Unlock()
		return
	}
	ev := Event{Type: EventMessageUpdated, ChatID: chatID, UserIDs: append([]string(nil), chat.Participants...), Data: *deleted}
	s.mu.Unlock()
	s.emit(ev)
}

// MarkRead marks every message not sent by reader as read.
func (s *Store) MarkRead(chatID, readerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chatIndex[chatID]
	if !ok {
		return
	}
	for i := range chat.Messages {
		if chat.Messages[i].SenderID != readerID {
			chat.Messages[i].IsRead = true
		}
	}
}

// UnreadCount counts messages in the chat not sent by reader and not read.
func (s *Store) UnreadCount(chatID, readerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chatIndex[chatID]
	if !ok {
		return 0
	}
	n := 0
	for i := range chat.Messages {
		if chat.Messages[i].SenderID != readerID && !chat.Messages[i].IsRead {
			n++
		}
	}
	return n
}

// AddGroupMembers unions userIDs into the chat's participants, keeping
// order and dropping duplicates and unknown users.
func (s *Store) AddGroupMembers(chatID string, userIDs []string) {
	s.mu.Lock()
	chat, ok := s.chatIndex[chatID]
	if !ok {
		s.mu.Unlock()
		return
	}
	for _, id := range userIDs {
		if containsID(chat.Participants, id) {
			continue
		}
		if _, known := s.userIndex[id]; !known {
			continue
		}
		chat.Participants = append(chat.Participants, id)
	}
	ev := Event{Type: EventChatUpdated, ChatID: chatID, UserIDs: append([]string(nil), chat.Participants...), Data: copyChat(chat)}
	s.mu.Unlock()
	s.emit(ev)
}

// RemoveGroupMember removes userID from the chat. The admin can never be
// removed; that call is a no-op.
func (s *Store) RemoveGroupMember(chatID, userID string) {
	s.mu.Lock()
	chat, ok := s.chatIndex[chatID]
	if !ok || userID == chat.AdminID {
		s.mu.Unlock()
		return
	}
	chat.Participants = removeID(chat.Participants, userID)
	ev := Event{Type: EventChatUpdated, ChatID: chatID, UserIDs: append([]string(nil), chat.Participants...), Data: copyChat(chat)}
	s.mu.Unlock()
	s.emit(ev)
}

// TogglePinChat flips the chat's pinned flag.
func (s *Store) TogglePinChat(chatID string) {
	s.toggle(chatID, func(c *models.Chat) { c.Pinned = !c.Pinned })
}

// ToggleMuteChat flips the chat's muted flag. Mute lives on the chat record
// like every other chat-scoped flag.
func (s *Store) ToggleMuteChat(chatID string) {
	s.toggle(chatID, func(c *models.Chat) { c.Muted = !c.Muted })
}

// TogglePatientNotes flips whether the patient can see clinical notes for
// this chat.
func (s *Store) TogglePatientNotes(chatID string) {
	s.toggle(chatID, func(c *models.Chat) { c.PatientNotesVisible = !c.PatientNotesVisible })
}

func (s *Store) toggle(chatID string, fn func(*models.Chat)) {
	s.mu.Lock()
	chat, ok := s.chatIndex[chatID]
	if !ok {
		s.mu.Unlock()
		return
	}
	fn(chat)
	ev := Event{Type: EventChatUpdated, ChatID: chatID, UserIDs: append([]string(nil), chat.Participants...), Data: copyChat(chat)}
	s.mu.Unlock()
	s.emit(ev)
}

// LeaveGroup removes the user from the chat and appends a system message
// announcing the departure. The chat record itself persists.
func (s *Store) LeaveGroup(chatID, userID string) {
	s.mu.Lock()
	chat, ok := s.chatIndex[chatID]
	if !ok || !containsID(chat.Participants, userID) {
		s.mu.Unlock()
		return
	}
	name := userID
	if i, known := s.userIndex[userID]; known {
		name = s.users[i].Name
	}
	chat.Participants = removeID(chat.Participants, userID)

	msg := models.Message{
		ID:        s.newID(),
		Content:   fmt.Sprintf("%s left the group", name),
		Timestamp: s.now(),
		Type:      models.MessageSystem,
	}
	chat.Messages = append(chat.Messages, msg)
	chat.LastMessage = msg.Content
	chat.LastMessageTime = msg.Timestamp

	ev := Event{Type: EventChatUpdated, ChatID: chatID, UserIDs: append([]string(nil), chat.Participants...), Data: copyChat(chat)}
	s.mu.Unlock()
	s.emit(ev)
}

func copyChat(c *models.Chat) models.Chat {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.Messages = append([]models.Message(nil), c.Messages...)
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
