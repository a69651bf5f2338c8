package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careline-be/internal/models"
	"careline-be/internal/store"
)

type fakeKV struct {
	m map[string][]byte
}

func newFakeKV() *fakeKV { return &fakeKV{m: map[string][]byte{}} }

func (f *fakeKV) PutJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.m[key] = data
	return nil
}

func (f *fakeKV) GetJSON(key string, out any) (bool, error) {
	data, ok := f.m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, out)
}

type fakeScribe struct {
	summary  string
	sections map[string]string
}

func (f *fakeScribe) SummarizeCall(ctx context.Context, durationSeconds int, transcript string) string {
	return f.summary
}

func (f *fakeScribe) GenerateStructuredNote(ctx context.Context, transcript []string, template models.Template, consultationType, visitReason string) map[string]string {
	return f.sections
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newStore(t *testing.T, scribe store.Summarizer, kv store.KV) (*store.Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	s := store.New(scribe, kv, store.WithClock(clock.Now))
	s.UpsertUser(models.User{ID: "u1", Name: "Dr. Chen", Role: models.RoleDoctor})
	s.UpsertUser(models.User{ID: "u2", Name: "Nina Okafor", Role: models.RoleNurse})
	s.UpsertUser(models.User{ID: "u3", Name: "Sam Reyes", Role: models.RolePatient})
	return s, clock
}

func TestSendMessageGrowsChatAndRecomputesDerivedFields(t *testing.T) {
	s, clock := newStore(t, nil, nil)
	chatID := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2", "u3"})

	before, _ := s.Chat(chatID)
	require.Empty(t, before.Messages)

	clock.Advance(time.Minute)
	msgID := s.SendMessage(chatID, store.Draft{SenderID: "u1", Content: "BP stable overnight"})
	require.NotEmpty(t, msgID)

	chat, ok := s.Chat(chatID)
	require.True(t, ok)
	require.Len(t, chat.Messages, 1)
	msg := chat.Messages[0]
	assert.Equal(t, msgID, msg.ID)
	assert.Equal(t, "BP stable overnight", msg.Content)
	assert.False(t, msg.IsRead)
	assert.Equal(t, msg.Content, chat.LastMessage)
	assert.Equal(t, msg.Timestamp, chat.LastMessageTime)
}

func TestSendMessageUnknownChatIsSilentNoop(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	assert.Empty(t, s.SendMessage("nope", store.Draft{SenderID: "u1", Content: "hi"}))
}

func TestCreateGroupChatScenario(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	id := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2", "u3"})
	require.NotEmpty(t, id)

	chat, ok := s.Chat(id)
	require.True(t, ok)
	assert.Equal(t, []string{"u1", "u2", "u3"}, chat.Participants)
	assert.Equal(t, "u1", chat.AdminID)
	assert.Empty(t, chat.Messages)
	assert.Equal(t, models.ChatCareTeam, chat.Type)
}

func TestRemoveGroupMemberAdminIsUnremovable(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	id := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2", "u3"})

	s.RemoveGroupMember(id, "u1")

	chat, _ := s.Chat(id)
	assert.Equal(t, []string{"u1", "u2", "u3"}, chat.Participants)
	assert.Equal(t, "u1", chat.AdminID)

	s.RemoveGroupMember(id, "u2")
	chat, _ = s.Chat(id)
	assert.Equal(t, []string{"u1", "u3"}, chat.Participants)
}

func TestAddGroupMembersDeduplicates(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	id := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})

	s.AddGroupMembers(id, []string{"u2", "u3", "u3", "ghost"})

	chat, _ := s.Chat(id)
	assert.Equal(t, []string{"u1", "u2", "u3"}, chat.Participants)
}

func TestStartChatDoesNotDeduplicate(t *testing.T) {
	s, _ := newStore(t, nil, nil)

	first := s.StartChat("u1", "+15551234567", false)
	second := s.StartChat("u1", "+15551234567", false)
	require.NotEmpty(t, first)
	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second)

	c1, _ := s.Chat(first)
	c2, _ := s.Chat(second)
	assert.Len(t, c1.Participants, 2)
	assert.Len(t, c2.Participants, 2)
	assert.Empty(t, c1.Messages)
	assert.Empty(t, c2.Messages)
	// the synthesized contact is reused, only the chat is duplicated
	assert.Equal(t, c1.Participants[1], c2.Participants[1])
}

func TestFindDirectChat(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	id := s.StartChat("u1", "u2", false)

	found, ok := s.FindDirectChat("u2", "u1")
	require.True(t, ok)
	assert.Equal(t, id, found)

	_, ok = s.FindDirectChat("u1", "u3")
	assert.False(t, ok)
}

func TestDeleteMessageIsIdempotentSoftDelete(t *testing.T) {
	s, clock := newStore(t, nil, nil)
	chatID := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})
	msgID := s.SendMessage(chatID, store.Draft{SenderID: "u1", Content: "wrong patient, ignore"})

	clock.Advance(time.Second)
	s.DeleteMessage(chatID, msgID)

	chat, _ := s.Chat(chatID)
	require.Len(t, chat.Messages, 1)
	first := chat.Messages[0]
	assert.Empty(t, first.Content)
	require.NotNil(t, first.DeletedAt)

	clock.Advance(time.Hour)
	s.DeleteMessage(chatID, msgID)

	chat, _ = s.Chat(chatID)
	second := chat.Messages[0]
	assert.Empty(t, second.Content)
	require.NotNil(t, second.DeletedAt)
	assert.Equal(t, *first.DeletedAt, *second.DeletedAt)
}

func TestMetadataPatchPreservesUnrelatedFields(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	chatID := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})
	msgID := s.SendMessage(chatID, store.Draft{
		SenderID: "u1",
		Type:     models.MessageVoice,
		Voice:    &models.VoiceMeta{DurationSeconds: 12},
	})

	on := true
	s.UpdateMessageMetadata(chatID, msgID, store.MetadataPatch{
		Voice: store.VoicePatch{IsTranscribing: &on},
	})

	chat, _ := s.Chat(chatID)
	require.NotNil(t, chat.Messages[0].Voice)
	assert.Equal(t, 12, chat.Messages[0].Voice.DurationSeconds)
	assert.True(t, chat.Messages[0].Voice.IsTranscribing)

	off := false
	text := "patient reports less pain today"
	s.UpdateMessageMetadata(chatID, msgID, store.MetadataPatch{
		Voice: store.VoicePatch{IsTranscribing: &off, Transcription: &text},
	})

	chat, _ = s.Chat(chatID)
	voice := chat.Messages[0].Voice
	assert.Equal(t, 12, voice.DurationSeconds)
	assert.False(t, voice.IsTranscribing)
	assert.Equal(t, text, voice.Transcription)
}

func TestLeaveGroupAppendsSystemMessage(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	chatID := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2", "u3"})

	s.LeaveGroup(chatID, "u2")

	chat, _ := s.Chat(chatID)
	assert.Equal(t, []string{"u1", "u3"}, chat.Participants)
	require.Len(t, chat.Messages, 1)
	msg := chat.Messages[0]
	assert.Equal(t, models.MessageSystem, msg.Type)
	assert.Contains(t, msg.Content, "Nina Okafor")
	assert.Equal(t, msg.Content, chat.LastMessage)
}

func TestTogglesFlipChatFlags(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	chatID := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})

	s.TogglePinChat(chatID)
	s.ToggleMuteChat(chatID)
	s.TogglePatientNotes(chatID)

	chat, _ := s.Chat(chatID)
	assert.True(t, chat.Pinned)
	assert.True(t, chat.Muted)
	assert.True(t, chat.PatientNotesVisible)

	s.ToggleMuteChat(chatID)
	chat, _ = s.Chat(chatID)
	assert.False(t, chat.Muted)
	assert.True(t, chat.Pinned)
}

func TestChatsListPinnedFirst(t *testing.T) {
	s, clock := newStore(t, nil, nil)
	a := s.CreateGroupChat("u1", "A", models.ChatCareTeam, []string{"u2"})
	b := s.CreateGroupChat("u1", "B", models.ChatCareTeam, []string{"u2"})

	clock.Advance(time.Minute)
	s.SendMessage(a, store.Draft{SenderID: "u1", Content: "newer activity"})
	s.TogglePinChat(b)

	chats := s.Chats("u1")
	require.Len(t, chats, 2)
	assert.Equal(t, b, chats[0].ID)
	assert.Equal(t, a, chats[1].ID)
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	chatID := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})
	s.SendMessage(chatID, store.Draft{SenderID: "u2", Content: "one"})
	s.SendMessage(chatID, store.Draft{SenderID: "u2", Content: "two"})
	s.SendMessage(chatID, store.Draft{SenderID: "u1", Content: "mine"})

	assert.Equal(t, 2, s.UnreadCount(chatID, "u1"))

	s.MarkRead(chatID, "u1")
	assert.Equal(t, 0, s.UnreadCount(chatID, "u1"))
}

func TestEventsReachSubscribers(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	var got []store.Event
	s.Subscribe(func(ev store.Event) { got = append(got, ev) })

	chatID := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})
	s.SendMessage(chatID, store.Draft{SenderID: "u1", Content: "hello"})

	require.Len(t, got, 2)
	assert.Equal(t, store.EventChatCreated, got[0].Type)
	assert.Equal(t, store.EventMessageNew, got[1].Type)
	assert.ElementsMatch(t, []string{"u1", "u2"}, got[1].UserIDs)
}
