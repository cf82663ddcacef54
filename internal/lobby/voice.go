package lobby

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/chamlab/lobby/internal/protocol"
)

// VoiceRelay owns membership in a fixed set of named channels. A user
// holds at most one membership; talking flags exist only for members.
// Not safe for concurrent use; the Lobby mutex guards it.
type VoiceRelay struct {
	channels []string
	members  map[string]string // user -> channel
	talking  map[string]bool
}

func NewVoiceRelay(channels []string) *VoiceRelay {
	return &VoiceRelay{
		channels: append([]string(nil), channels...),
		members:  make(map[string]string),
		talking:  make(map[string]bool),
	}
}

func (v *VoiceRelay) has(channel string) bool {
	for _, ch := range v.channels {
		if ch == channel {
			return true
		}
	}
	return false
}

// Join moves the user into channel, force-leaving any previous one so
// the at-most-one-channel invariant holds. Unknown channels are a no-op.
// A stale talking flag never survives the move.
func (v *VoiceRelay) Join(user, channel string) bool {
	if !v.has(channel) {
		return false
	}
	v.members[user] = channel
	delete(v.talking, user)
	return true
}

// Leave drops membership and talking flag. No-op for non-members.
func (v *VoiceRelay) Leave(user string) bool {
	if _, ok := v.members[user]; !ok {
		return false
	}
	delete(v.members, user)
	delete(v.talking, user)
	return true
}

// SetTalking records the flag for a current member. No-op otherwise.
func (v *VoiceRelay) SetTalking(user string, talking bool) bool {
	if _, ok := v.members[user]; !ok {
		return false
	}
	v.talking[user] = talking
	return true
}

func (v *VoiceRelay) ChannelOf(user string) (string, bool) {
	ch, ok := v.members[user]
	return ch, ok
}

// SameChannel reports whether both users hold a membership and it is
// the same channel.
func (v *VoiceRelay) SameChannel(a, b string) bool {
	ca, ok := v.members[a]
	if !ok {
		return false
	}
	cb, ok := v.members[b]
	return ok && ca == cb
}

// Snapshot maps every configured channel to its sorted member list,
// empty channels included, plus a copy of the talking map.
func (v *VoiceRelay) Snapshot() protocol.VoiceSnapshot {
	channels := make(map[string][]string, len(v.channels))
	for _, ch := range v.channels {
		channels[ch] = []string{}
	}
	for user, ch := range v.members {
		channels[ch] = append(channels[ch], user)
	}
	for _, users := range channels {
		sort.Strings(users)
	}
	talking := make(map[string]bool, len(v.talking))
	for user, flag := range v.talking {
		talking[user] = flag
	}
	return protocol.VoiceSnapshot{Channels: channels, Talking: talking}
}

func (l *Lobby) VoiceJoin(name, channel string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sessions[name]; !ok {
		return
	}
	if !l.voice.Join(name, channel) {
		log.Warn().Str("module", "lobby").Str("name", name).Str("channel", channel).Msg("join to unknown voice channel ignored")
		return
	}
	l.appendLog(fmt.Sprintf("%s joined voice channel %s.", name, channel))
	l.broadcastVoice()
	l.broadcastLogs()
}

func (l *Lobby) VoiceLeave(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	channel, _ := l.voice.ChannelOf(name)
	if !l.voice.Leave(name) {
		return
	}
	l.appendLog(fmt.Sprintf("%s left voice channel %s.", name, channel))
	l.broadcastVoice()
	l.broadcastLogs()
}

func (l *Lobby) VoiceTalking(name string, talking bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.voice.SetTalking(name, talking) {
		return
	}
	l.broadcastVoice()
}

// VoiceSignal forwards an opaque offer/answer/ice payload to target.
// Delivery happens only when the target exists, is not the sender and
// shares the sender's channel; otherwise the frame is dropped silently,
// so a probing sender learns nothing about channel membership.
func (l *Lobby) VoiceSignal(kind, from, target string, data json.RawMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if target == from {
		return
	}
	t, ok := l.sessions[target]
	if !ok {
		return
	}
	if !l.voice.SameChannel(from, target) {
		return
	}
	l.sendTo(t, protocol.VoiceSignalForward{Type: kind, From: from, Data: data})
}
