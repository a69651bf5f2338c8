package models

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RoleNurse   Role = "nurse"
	RolePatient Role = "patient"
	RoleFamily  Role = "family"
)

// User is a directory entry, not a login account (see Account). Users are
// seeded, created on registration, or synthesized when a new contact is
// messaged by phone number for the first time.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Role   Role   `json:"role"`
	Title  string `json:"title,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

type ChatType string

const (
	ChatDirect        ChatType = "direct"
	ChatCareTeam      ChatType = "care_team"
	ChatFamilyUpdate  ChatType = "family_update"
	ChatInternalStaff ChatType = "internal_staff"
	ChatBroadcast     ChatType = "broadcast"
	ChatSMS           ChatType = "sms"
)

// Chat is a conversation thread. Participants is an ordered, deduplicated
// list of user ids. LastMessage/LastMessageTime are derived from the most
// recently appended message and recomputed on every send.
type Chat struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Type                ChatType  `json:"type"`
	Participants        []string  `json:"participants"`
	Messages            []Message `json:"messages"`
	LastMessage         string    `json:"last_message"`
	LastMessageTime     time.Time `json:"last_message_time"`
	Avatar              string    `json:"avatar,omitempty"`
	Pinned              bool      `json:"pinned"`
	Muted               bool      `json:"muted"`
	AdminID             string    `json:"admin_id,omitempty"`
	PatientNotesVisible bool      `json:"patient_notes_visible"`
	CreatedAt           time.Time `json:"created_at"`
}

type MessageType string

const (
	MessageText    MessageType = "text"
	MessageImage   MessageType = "image"
	MessageVoice   MessageType = "voice"
	MessageFile    MessageType = "file"
	MessageSystem  MessageType = "system"
	MessageCallLog MessageType = "call_log"
)

// FileMeta describes a file or image attachment.
type FileMeta struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type,omitempty"`
}

// VoiceMeta describes a voice message and its transcription state.
// IsTranscribing is flipped on when transcription starts and cleared when
// Transcription is filled in.
type VoiceMeta struct {
	DurationSeconds int    `json:"duration_seconds"`
	IsTranscribing  bool   `json:"is_transcribing"`
	Transcription   string `json:"transcription,omitempty"`
}

type CallType string

const (
	CallVoice CallType = "voice"
	CallVideo CallType = "video"
)

// CallMeta is carried by call_log messages.
type CallMeta struct {
	CallID          string        `json:"call_id"`
	CallType        CallType      `json:"call_type"`
	DurationSeconds int           `json:"duration_seconds"`
	Summary         string        `json:"summary"`
	Transcript      string        `json:"transcript,omitempty"`
	Note            *ClinicalNote `json:"note,omitempty"`
}

// Message is append-only. Deleting is soft: Content is cleared and DeletedAt
// stamped, so ordering and id references (e.g. a call log referencing a call
// id) stay stable. At most one of File/Voice/Call/Note is set, matching Type.
type Message struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"sender_id"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
	IsRead    bool        `json:"is_read"`
	DeletedAt *time.Time  `json:"deleted_at,omitempty"`

	File       *FileMeta     `json:"file,omitempty"`
	Voice      *VoiceMeta    `json:"voice,omitempty"`
	Call       *CallMeta     `json:"call,omitempty"`
	Note       *ClinicalNote `json:"note,omitempty"`
	IsCallNote bool          `json:"is_call_note,omitempty"`
}

// CallSession is transient state for an in-progress call. It is never
// persisted; ending the call converts it into messages on the owning chat.
type CallSession struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ChatID     string    `json:"chat_id,omitempty"`
	Type       CallType  `json:"type"`
	StartTime  time.Time `json:"start_time"`
	Transcript []string  `json:"transcript,omitempty"`
}

// Suggestion is an AI-proposed snippet of note text pending accept/dismiss.
type Suggestion struct {
	ID       string `json:"id"`
	Section  string `json:"section"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

// GlobalScribeKey is the note key used for a scribe session with no chat.
const GlobalScribeKey = "global_scribe"

// ClinicalNote is keyed by chat id (or GlobalScribeKey). Sections keys are
// determined by the template's section list.
type ClinicalNote struct {
	ID               string            `json:"id"`
	ChatID           string            `json:"chat_id"`
	PatientID        string            `json:"patient_id,omitempty"`
	ConsultationType string            `json:"consultation_type,omitempty"`
	VisitReason      string            `json:"visit_reason,omitempty"`
	TemplateType     string            `json:"template_type"`
	Sections         map[string]string `json:"sections"`
	Suggestions      []Suggestion      `json:"suggestions"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	CallID           string            `json:"call_id,omitempty"`
}

// UserPreferences is the only state persisted beyond the in-memory session
// (plus the exported-calendar id list).
type UserPreferences struct {
	DefaultTemplate   string   `json:"default_template"`
	FavoriteTemplates []string `json:"favorite_templates"`
	AutoScribe        bool     `json:"auto_scribe"`
}

// VitalsEntry is one reading in a patient's vitals history.
type VitalsEntry struct {
	RecordedAt  time.Time `json:"recorded_at"`
	SystolicBP  int       `json:"systolic_bp,omitempty"`
	DiastolicBP int       `json:"diastolic_bp,omitempty"`
	PulseRate   int       `json:"pulse_rate,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type PatientProfile struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	MRN           string        `json:"mrn"`
	DOB           string        `json:"dob"`
	Address       string        `json:"address,omitempty"`
	Diagnosis     []string      `json:"diagnosis,omitempty"`
	Medications   []string      `json:"medications,omitempty"`
	Allergies     []string      `json:"allergies,omitempty"`
	VitalsHistory []VitalsEntry `json:"vitals_history,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

type ScheduleItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Details   string    `json:"details,omitempty"`
	Location  string    `json:"location,omitempty"`
	PatientID string    `json:"patient_id,omitempty"`
}
