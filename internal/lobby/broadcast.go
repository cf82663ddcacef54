package lobby

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/chamlab/lobby/internal/core"
	"github.com/chamlab/lobby/internal/domain"
	"github.com/chamlab/lobby/internal/protocol"
)

// Broadcasts are fire-and-forget: the payload is marshalled once and
// handed to each session's non-blocking send queue. A failed send never
// aborts delivery to the others; the failing session is cancelled and
// flows through the regular Disconnect cleanup from its own pump
// teardown. Callers must hold l.mu.

func (l *Lobby) broadcastAll(v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "lobby").Msg("broadcast marshal")
		return
	}
	for _, s := range l.sessions {
		l.sendFrame(s, frame)
	}
}

func (l *Lobby) broadcastAdmins(v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "lobby").Msg("broadcast marshal")
		return
	}
	for _, s := range l.sessions {
		if s.meta.Role == domain.RoleAdmin {
			l.sendFrame(s, frame)
		}
	}
}

func (l *Lobby) sendTo(s *session, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "lobby").Msg("send marshal")
		return
	}
	l.sendFrame(s, frame)
}

// sendFrame treats a send failure (full buffer or closed connection) as
// a disconnect: the slow consumer is cancelled rather than stalling the
// fan-out.
func (l *Lobby) sendFrame(s *session, frame core.Frame) {
	if err := s.conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "lobby").Str("name", s.meta.Name).Msg("send failed, kicking consumer")
		if s.cancel != nil {
			s.cancel()
		}
	}
}

func (l *Lobby) broadcastUsers() {
	l.broadcastAll(protocol.Users{Type: protocol.TypeUsers, Users: l.listUsers()})
}

func (l *Lobby) broadcastLogs() {
	l.broadcastAdmins(protocol.Logs{Type: protocol.TypeLogs, Logs: l.copyLogs()})
}

func (l *Lobby) broadcastMusic() {
	l.broadcastAll(protocol.MusicState{Type: protocol.TypeMusicState, MusicSnapshot: l.playback.Snapshot()})
}

func (l *Lobby) broadcastVoice() {
	l.broadcastAll(protocol.VoiceState{Type: protocol.TypeVoiceState, VoiceSnapshot: l.voice.Snapshot()})
}
