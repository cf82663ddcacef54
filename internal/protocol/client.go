// Package protocol defines the typed wire frames exchanged over the
// lobby WebSocket. Every frame is a JSON object carrying a "type"
// discriminator; inbound frames are decoded in two passes, first the
// Envelope and then the per-type payload.
package protocol

import (
	"encoding/json"

	"github.com/chamlab/lobby/internal/domain"
)

// Client → server frame types.
const (
	TypeJoin         = "join"
	TypeChat         = "chat"
	TypeVoiceJoin    = "voice_join"
	TypeVoiceLeave   = "voice_leave"
	TypeVoiceTalking = "voice_talking"
	TypeVoiceOffer   = "voice_offer"
	TypeVoiceAnswer  = "voice_answer"
	TypeVoiceICE     = "voice_ice"
	TypeMusicAdd     = "music_add"
	TypeMusicDelete  = "music_delete"
	TypeMusicSelect  = "music_select"
	TypeMusicPlay    = "music_play"
	TypeMusicPause   = "music_pause"
	TypeMusicSeek    = "music_seek"
)

// Envelope carries only the discriminator.
type Envelope struct {
	Type string `json:"type"`
}

// Join must be the first frame on a new connection. Password is only
// consulted when the requested role is admin.
type Join struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Chat is either a plaintext message or, when Encrypted is set, an
// opaque ciphertext+iv pair the server relays without inspecting.
// ReplyTo is passed through unvalidated.
type Chat struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Encrypted  bool   `json:"encrypted"`
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	ReplyTo    string `json:"reply_to"`
}

type VoiceJoin struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

type VoiceTalking struct {
	Type      string `json:"type"`
	IsTalking bool   `json:"is_talking"`
}

// VoiceSignal is a call-setup payload (offer/answer/ice) addressed to a
// channel-mate. Data is opaque to the server.
type VoiceSignal struct {
	Type   string          `json:"type"`
	Target string          `json:"target"`
	Data   json.RawMessage `json:"data"`
}

type MusicAdd struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// MusicTrack addresses an existing queue entry (music_delete, music_select).
type MusicTrack struct {
	Type    string         `json:"type"`
	TrackID domain.TrackID `json:"track_id"`
}

type MusicSeek struct {
	Type     string  `json:"type"`
	Position float64 `json:"position"`
}
