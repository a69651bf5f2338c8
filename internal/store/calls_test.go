package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careline-be/internal/models"
	"careline-be/internal/store"
)

func TestEndCallComputesDurationEvenWhenSummarizationFails(t *testing.T) {
	// a scribe returning "" stands in for a failed summarization call
	s, clock := newStore(t, &fakeScribe{summary: ""}, nil)
	chatID := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})

	_, ok := s.StartCall("u1", chatID, models.CallVoice)
	require.True(t, ok)

	clock.Advance(75 * time.Second)
	msgID := s.EndCall(context.Background())
	require.NotEmpty(t, msgID)

	chat, _ := s.Chat(chatID)
	require.Len(t, chat.Messages, 1)
	msg := chat.Messages[0]
	assert.Equal(t, models.MessageCallLog, msg.Type)
	require.NotNil(t, msg.Call)
	assert.Equal(t, 75, msg.Call.DurationSeconds)
	assert.Equal(t, store.FallbackCallSummary, msg.Call.Summary)
	assert.Nil(t, msg.Call.Note)

	// teardown is unconditional
	_, active := s.ActiveCall()
	assert.False(t, active)
}

func TestEndCallWithTranscriptProducesNoteAndSecondMessage(t *testing.T) {
	sc := &fakeScribe{
		summary:  "Discussed medication adjustment.",
		sections: map[string]string{"subjective": "Pain improved.", "plan": "Continue current dose."},
	}
	s, clock := newStore(t, sc, nil)
	chatID := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})

	_, ok := s.StartCall("u1", chatID, models.CallVideo)
	require.True(t, ok)
	s.AppendTranscript("Doctor: how is the pain today?")
	s.AppendTranscript("Patient: much better.")

	clock.Advance(3 * time.Minute)
	msgID := s.EndCall(context.Background())
	require.NotEmpty(t, msgID)

	chat, _ := s.Chat(chatID)
	require.Len(t, chat.Messages, 2)

	callLog := chat.Messages[0]
	assert.Equal(t, models.MessageCallLog, callLog.Type)
	require.NotNil(t, callLog.Call)
	assert.Equal(t, 180, callLog.Call.DurationSeconds)
	assert.Equal(t, "Discussed medication adjustment.", callLog.Call.Summary)
	assert.Contains(t, callLog.Call.Transcript, "much better")
	require.NotNil(t, callLog.Call.Note)
	assert.Equal(t, "Pain improved.", callLog.Call.Note.Sections["subjective"])

	noteMsg := chat.Messages[1]
	assert.Equal(t, models.MessageText, noteMsg.Type)
	assert.True(t, noteMsg.IsCallNote)
	require.NotNil(t, noteMsg.Note)
	assert.Equal(t, "Continue current dose.", noteMsg.Note.Sections["plan"])

	// the note is also stored under the chat key
	note, ok := s.Note(chatID)
	require.True(t, ok)
	assert.Equal(t, "Pain improved.", note.Sections["subjective"])
}

func TestEndCallNoteGenerationFailureStillTearsDown(t *testing.T) {
	sc := &fakeScribe{summary: "Short call.", sections: nil}
	s, clock := newStore(t, sc, nil)
	chatID := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})

	s.StartCall("u1", chatID, models.CallVoice)
	s.AppendTranscript("line one")
	clock.Advance(time.Minute)
	s.EndCall(context.Background())

	chat, _ := s.Chat(chatID)
	require.Len(t, chat.Messages, 1)
	assert.Nil(t, chat.Messages[0].Call.Note)

	_, active := s.ActiveCall()
	assert.False(t, active)
}

func TestEndCallWithoutChatStoresGlobalScribeNote(t *testing.T) {
	sc := &fakeScribe{
		summary:  "Scribe session.",
		sections: map[string]string{"notes": "Dictated content."},
	}
	s, clock := newStore(t, sc, nil)

	s.StartCall("u1", "", models.CallVoice)
	s.AppendTranscript("dictation line")
	clock.Advance(time.Minute)

	msgID := s.EndCall(context.Background())
	assert.Empty(t, msgID)

	note, ok := s.Note(models.GlobalScribeKey)
	require.True(t, ok)
	assert.Equal(t, "Dictated content.", note.Sections["notes"])
}

func TestStartCallWhileActiveIsRejected(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	_, ok := s.StartCall("u1", "", models.CallVoice)
	require.True(t, ok)
	_, ok = s.StartCall("u2", "", models.CallVideo)
	assert.False(t, ok)
}

func TestEndCallWithoutActiveCallIsNoop(t *testing.T) {
	s, _ := newStore(t, nil, nil)
	assert.Empty(t, s.EndCall(context.Background()))
}

func TestEndCallWithNilScribeUsesFallback(t *testing.T) {
	s, clock := newStore(t, nil, nil)
	chatID := s.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})

	s.StartCall("u1", chatID, models.CallVoice)
	clock.Advance(30 * time.Second)
	s.EndCall(context.Background())

	chat, _ := s.Chat(chatID)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, store.FallbackCallSummary, chat.Messages[0].Call.Summary)
	assert.Equal(t, 30, chat.Messages[0].Call.DurationSeconds)
}
