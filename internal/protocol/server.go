package protocol

import (
	"encoding/json"

	"github.com/chamlab/lobby/internal/domain"
)

// Server → client frame types. Forwarded voice signaling reuses the
// inbound voice_offer/voice_answer/voice_ice discriminators.
const (
	TypeJoinAck    = "join_ack"
	TypeUsers      = "users"
	TypeLogs       = "logs"
	TypeMusicState = "music_state"
	TypeVoiceState = "voice_state"
	TypeError      = "error"
)

// UserInfo is one row of the presence listing.
type UserInfo struct {
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

// MusicSnapshot is the full playback state. Position is the effective
// position computed at send time; ServerTime is unix milliseconds so
// clients can compensate for transfer latency.
type MusicSnapshot struct {
	Queue          []domain.Track  `json:"queue"`
	CurrentTrackID *domain.TrackID `json:"currentTrackId"`
	IsPlaying      bool            `json:"isPlaying"`
	Position       float64         `json:"position"`
	ServerTime     int64           `json:"serverTime"`
}

// VoiceSnapshot maps every configured channel to its sorted member list
// (empty channels included) plus the talking flags of current members.
type VoiceSnapshot struct {
	Channels map[string][]string `json:"channels"`
	Talking  map[string]bool     `json:"talking"`
}

// JoinAck is the handshake reply. The new client receives the full
// lobby state, not deltas.
type JoinAck struct {
	Type    string            `json:"type"`
	Success bool              `json:"success"`
	Role    domain.Role       `json:"role"`
	Users   []UserInfo        `json:"users"`
	Logs    []domain.LogEntry `json:"logs"`
	Music   MusicSnapshot     `json:"music"`
	Voice   VoiceSnapshot     `json:"voice"`
}

type Users struct {
	Type  string     `json:"type"`
	Users []UserInfo `json:"users"`
}

// Logs is broadcast to admin sessions only.
type Logs struct {
	Type string            `json:"type"`
	Logs []domain.LogEntry `json:"logs"`
}

type MusicState struct {
	Type string `json:"type"`
	MusicSnapshot
}

type VoiceState struct {
	Type string `json:"type"`
	VoiceSnapshot
}

// ChatBroadcast fans a chat message out to every session. For encrypted
// messages Ciphertext/IV are relayed untouched and Message stays empty.
type ChatBroadcast struct {
	Type       string      `json:"type"`
	Name       string      `json:"name"`
	Role       domain.Role `json:"role"`
	Message    string      `json:"message,omitempty"`
	Encrypted  bool        `json:"encrypted,omitempty"`
	Ciphertext string      `json:"ciphertext,omitempty"`
	IV         string      `json:"iv,omitempty"`
	ReplyTo    string      `json:"reply_to,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

// VoiceSignalForward is the unicast envelope delivered to the target of
// an offer/answer/ice frame.
type VoiceSignalForward struct {
	Type string          `json:"type"`
	From string          `json:"from"`
	Data json.RawMessage `json:"data"`
}

// Error is terminal during the handshake; after it the server closes
// the connection. Post-handshake malformed frames get a non-terminal one.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
