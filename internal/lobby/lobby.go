// Package lobby is the stateful coordination engine of the server: the
// session registry, the shared playback clock, the voice channel relay
// and the broadcast fan-out. Every mutate-and-broadcast runs as one
// atomic unit under a single mutex; outbound sends are non-blocking, so
// the lock is never held across network I/O.
package lobby

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/chamlab/lobby/internal/domain"
	"github.com/chamlab/lobby/internal/protocol"
)

// Lobby is the process-wide aggregate. One instance is created at
// startup and lives for the process lifetime; there is no persistence.
type Lobby struct {
	mu            sync.Mutex
	clock         clockwork.Clock
	adminPassword string

	sessions map[string]*session
	logs     []domain.LogEntry
	playback *PlaybackClock
	voice    *VoiceRelay
}

func New(adminPassword string, voiceChannels []string, clock clockwork.Clock) *Lobby {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Lobby{
		clock:         clock,
		adminPassword: adminPassword,
		sessions:      make(map[string]*session),
		playback:      NewPlaybackClock(clock),
		voice:         NewVoiceRelay(voiceChannels),
	}
}

// Stats reports connected session and queued track counts.
func (l *Lobby) Stats() (clients, tracks int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions), len(l.playback.queue)
}

// Chat fans a chat message out to every session. Field validation is
// the dispatcher's job; the lobby only stamps identity and time.
func (l *Lobby) Chat(name string, msg protocol.Chat) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[name]
	if !ok {
		return
	}
	out := protocol.ChatBroadcast{
		Type:      protocol.TypeChat,
		Name:      name,
		Role:      s.meta.Role,
		ReplyTo:   msg.ReplyTo,
		Timestamp: l.timeLabel(),
	}
	if msg.Encrypted {
		out.Encrypted = true
		out.Ciphertext = msg.Ciphertext
		out.IV = msg.IV
	} else {
		out.Message = msg.Message
	}
	l.broadcastAll(out)
}

// timeLabel formats the wall clock as a display label like "3:04PM".
func (l *Lobby) timeLabel() string {
	return l.clock.Now().Format("3:04PM")
}

// appendLog records an admin-visible activity line. The log is
// append-only and unbounded.
func (l *Lobby) appendLog(message string) {
	l.logs = append(l.logs, domain.LogEntry{Message: message, Timestamp: l.timeLabel()})
	log.Debug().Str("module", "lobby").Str("entry", message).Msg("log appended")
}

func (l *Lobby) systemChat(message string) {
	l.broadcastAll(protocol.ChatBroadcast{
		Type:      protocol.TypeChat,
		Name:      "System",
		Role:      domain.RoleSystem,
		Message:   message,
		Timestamp: l.timeLabel(),
	})
}

func (l *Lobby) copyLogs() []domain.LogEntry {
	return append([]domain.LogEntry(nil), l.logs...)
}
