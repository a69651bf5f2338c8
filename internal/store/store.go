// Package store is the single source of truth for chats, messages, calls,
// clinical notes, patients, schedule items, and preferences. Every action is
// an atomic, synchronous, in-memory mutation; unknown-id lookups are silent
// no-ops. Only preferences and the exported-calendar id list are persisted.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"careline-be/internal/models"
)

// Summarizer is the AI collaborator the store depends on when a call ends.
// Implementations never return errors: a failed summarization yields the
// fallback string, a failed note generation yields nil.
type Summarizer interface {
	SummarizeCall(ctx context.Context, durationSeconds int, transcript string) string
	GenerateStructuredNote(ctx context.Context, transcript []string, template models.Template, consultationType, visitReason string) map[string]string
}

// KV is the durable local storage the store writes preferences and the
// exported-calendar id list to. A nil KV disables persistence.
type KV interface {
	PutJSON(key string, v any) error
	GetJSON(key string, out any) (bool, error)
}

const (
	prefsKey            = "prefs:user"
	calendarExportedKey = "calendar:exported"
)

// FallbackCallSummary is used whenever summarization is unavailable.
const FallbackCallSummary = "Call ended."

type EventType string

const (
	EventChatCreated    EventType = "chat:created"
	EventChatUpdated    EventType = "chat:updated"
	EventMessageNew     EventType = "message:new"
	EventMessageUpdated EventType = "message:updated"
	EventNoteUpdated    EventType = "note:updated"
	EventCallEnded      EventType = "call:ended"
)

// Event describes a completed mutation. UserIDs are the participants the
// event should be fanned out to.
type Event struct {
	Type    EventType `json:"type"`
	ChatID  string    `json:"chat_id,omitempty"`
	UserIDs []string  `json:"-"`
	Data    any       `json:"data,omitempty"`
}

type Store struct {
	mu sync.Mutex

	users     []models.User
	userIndex map[string]int

	chats     []*models.Chat
	chatIndex map[string]*models.Chat

	notes    map[string]*models.ClinicalNote
	patients []*models.PatientProfile
	schedule []*models.ScheduleItem
	exported map[string]bool
	prefs    models.UserPreferences
	call     *models.CallSession

	scribe Summarizer
	kv     KV

	now   func() time.Time
	newID func() string

	lmu       sync.RWMutex
	listeners []func(Event)
}

type Option func(*Store)

// WithClock overrides the store's clock, for tests.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// WithIDGenerator overrides id generation, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New builds a store. scribe and kv may be nil: calls then end with the
// fallback summary and nothing survives a restart.
func New(scribe Summarizer, kv KV, opts ...Option) *Store {
	s := &Store{
		userIndex: map[string]int{},
		chatIndex: map[string]*models.Chat{},
		notes:     map[string]*models.ClinicalNote{},
		exported:  map[string]bool{},
		prefs: models.UserPreferences{
			DefaultTemplate:   models.DefaultTemplate,
			FavoriteTemplates: []string{},
		},
		scribe: scribe,
		kv:     kv,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.loadPersisted()
	return s
}

func (s *Store) loadPersisted() {
	if s.kv == nil {
		return
	}
	var prefs models.UserPreferences
	if ok, err := s.kv.GetJSON(prefsKey, &prefs); err != nil {
		log.WithError(err).Warn("failed to load preferences")
	} else if ok {
		s.prefs = prefs
	}
	var ids []string
	if ok, err := s.kv.GetJSON(calendarExportedKey, &ids); err != nil {
		log.WithError(err).Warn("failed to load exported calendar ids")
	} else if ok {
		for _, id := range ids {
			s.exported[id] = true
		}
	}
}

// Subscribe registers a listener invoked after every mutation that emits an
// event. Listeners run outside the store lock and may call back into the
// store.
func (s *Store) Subscribe(fn func(Event)) {
	s.lmu.Lock()
	s.listeners = append(s.listeners, fn)
	s.lmu.Unlock()
}

func (s *Store) emit(ev Event) {
	s.lmu.RLock()
	listeners := s.listeners
	s.lmu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
