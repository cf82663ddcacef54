package lobby

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/chamlab/lobby/internal/core"
	"github.com/chamlab/lobby/internal/domain"
	"github.com/chamlab/lobby/internal/protocol"
)

var (
	ErrBadPassword = errors.New("invalid admin password")
	ErrNameTaken   = errors.New("name already taken")
)

// session pairs a connected identity with its transport endpoint.
// cancel tears the connection down; the pump teardown then re-enters
// the lobby through Disconnect.
type session struct {
	meta   domain.Session
	conn   core.SignalConnection
	cancel context.CancelFunc
}

// Join performs the handshake against the registry. On success the new
// session receives a join_ack with the full lobby state before any
// broadcast, then presence and logs go out along with a system chat
// announcement. The returned role is the normalized one.
func (l *Lobby) Join(req protocol.Join, conn core.SignalConnection, cancel context.CancelFunc) (domain.Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", domain.ErrNameEmpty
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if role == domain.RoleAdmin && strings.TrimSpace(req.Password) != l.adminPassword {
		return "", ErrBadPassword
	}
	if _, taken := l.sessions[name]; taken {
		return "", ErrNameTaken
	}

	s := &session{
		meta:   domain.Session{Name: name, Role: role},
		conn:   conn,
		cancel: cancel,
	}
	l.sessions[name] = s
	l.appendLog(fmt.Sprintf("%s connected as %s.", name, role))
	log.Info().Str("module", "lobby").Str("name", name).Str("role", string(role)).Msg("session joined")

	l.sendTo(s, protocol.JoinAck{
		Type:    protocol.TypeJoinAck,
		Success: true,
		Role:    role,
		Users:   l.listUsers(),
		Logs:    l.copyLogs(),
		Music:   l.playback.Snapshot(),
		Voice:   l.voice.Snapshot(),
	})
	l.broadcastUsers()
	l.broadcastLogs()
	l.systemChat(fmt.Sprintf("%s joined as %s.", name, role))
	return role, nil
}

// Disconnect runs the uniform cleanup path for every kind of session
// termination: clean close, read error, abrupt drop or a backpressure
// kick. The name becomes reusable immediately. Calling it twice, or for
// a name that never joined, is a no-op.
func (l *Lobby) Disconnect(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[name]
	if !ok {
		return
	}
	delete(l.sessions, name)
	l.voice.Leave(name)
	if s.cancel != nil {
		s.cancel()
	}
	l.appendLog(fmt.Sprintf("%s disconnected.", name))
	log.Info().Str("module", "lobby").Str("name", name).Msg("session disconnected")

	l.broadcastUsers()
	l.broadcastVoice()
	l.broadcastLogs()
	l.systemChat(fmt.Sprintf("%s left the lobby.", name))
}

// listUsers is the presence listing, sorted case-insensitively by name.
func (l *Lobby) listUsers() []protocol.UserInfo {
	out := make([]protocol.UserInfo, 0, len(l.sessions))
	for _, s := range l.sessions {
		out = append(out, protocol.UserInfo{Name: s.meta.Name, Role: s.meta.Role})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
