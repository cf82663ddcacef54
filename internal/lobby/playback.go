package lobby

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chamlab/lobby/internal/domain"
	"github.com/chamlab/lobby/internal/protocol"
)

// PlaybackClock is the server-authoritative play/pause/seek state
// machine over an ordered track queue. The effective position is always
// derived from the wall clock at read time, never cached, which is what
// keeps independently-polling clients in sync. Not safe for concurrent
// use; the Lobby mutex guards it.
type PlaybackClock struct {
	clock clockwork.Clock

	queue   []domain.Track
	current domain.TrackID // 0 means no track selected
	playing bool
	started time.Time // zero while paused
	// position holds the paused position; while playing it is stale
	// and the effective position comes from started.
	position float64
	nextID   domain.TrackID
}

func NewPlaybackClock(clock clockwork.Clock) *PlaybackClock {
	return &PlaybackClock{clock: clock, nextID: 1}
}

// Add appends a track with a fresh id. If nothing is selected yet the
// new track becomes current, still paused at position zero.
func (p *PlaybackClock) Add(title, url string) domain.Track {
	t := domain.Track{ID: p.nextID, Title: title, URL: url}
	p.nextID++
	p.queue = append(p.queue, t)
	if p.current == 0 {
		p.current = t.ID
		p.playing = false
		p.position = 0
		p.started = time.Time{}
	}
	return t
}

// Delete removes the track from the queue. Deleting the current track
// selects the first remaining one (or none) and resets playback to
// paused at position zero.
func (p *PlaybackClock) Delete(id domain.TrackID) (domain.Track, bool) {
	idx := p.indexOf(id)
	if idx < 0 {
		return domain.Track{}, false
	}
	removed := p.queue[idx]
	p.queue = append(p.queue[:idx], p.queue[idx+1:]...)
	if p.current == id {
		p.playing = false
		p.position = 0
		p.started = time.Time{}
		p.current = 0
		if len(p.queue) > 0 {
			p.current = p.queue[0].ID
		}
	}
	return removed, true
}

// Select makes an existing track current and resets playback to paused
// at position zero. Unknown ids are a no-op.
func (p *PlaybackClock) Select(id domain.TrackID) bool {
	if p.indexOf(id) < 0 {
		return false
	}
	p.current = id
	p.playing = false
	p.position = 0
	p.started = time.Time{}
	return true
}

// Play resumes from the stored position by back-dating the start time,
// so a play after pause is continuous. No-op without a current track or
// when already playing.
func (p *PlaybackClock) Play() bool {
	if p.current == 0 || p.playing {
		return false
	}
	p.started = p.clock.Now().Add(-secondsToDuration(p.position))
	p.playing = true
	return true
}

// Pause captures the effective position and stops the clock.
func (p *PlaybackClock) Pause() bool {
	if !p.playing {
		return false
	}
	p.position = p.Position()
	p.playing = false
	p.started = time.Time{}
	return true
}

// Seek clamps to zero and stores the new position. While playing the
// start time is rebased so playback continues from the new point
// without a pause/resume cycle. Returns the clamped position.
func (p *PlaybackClock) Seek(pos float64) float64 {
	if pos < 0 {
		pos = 0
	}
	p.position = pos
	if p.playing {
		p.started = p.clock.Now().Add(-secondsToDuration(pos))
	}
	return pos
}

// Position is the effective position in seconds, computed at read time.
func (p *PlaybackClock) Position() float64 {
	if p.playing {
		if s := p.clock.Now().Sub(p.started).Seconds(); s > 0 {
			return s
		}
		return 0
	}
	if p.position > 0 {
		return p.position
	}
	return 0
}

// Snapshot is the full playback state as sent to clients.
func (p *PlaybackClock) Snapshot() protocol.MusicSnapshot {
	snap := protocol.MusicSnapshot{
		Queue:      make([]domain.Track, len(p.queue)),
		IsPlaying:  p.playing,
		Position:   p.Position(),
		ServerTime: p.clock.Now().UnixMilli(),
	}
	copy(snap.Queue, p.queue)
	if p.current != 0 {
		id := p.current
		snap.CurrentTrackID = &id
	}
	return snap
}

func (p *PlaybackClock) indexOf(id domain.TrackID) int {
	for i, t := range p.queue {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// musicSession is the single authorization point for playback commands.
// Commands from non-admin senders are dropped silently with no error
// frame; change the policy here if explicit rejection is ever wanted.
func (l *Lobby) musicSession(name string) (*session, bool) {
	s, ok := l.sessions[name]
	if !ok || s.meta.Role != domain.RoleAdmin {
		return nil, false
	}
	return s, true
}

func (l *Lobby) MusicAdd(name, title, url string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.musicSession(name); !ok {
		return
	}
	if title == "" {
		title = "Untitled"
	}
	track := l.playback.Add(title, url)
	l.appendLog(fmt.Sprintf("%s added track %q.", name, track.Title))
	l.broadcastMusic()
	l.broadcastLogs()
}

func (l *Lobby) MusicDelete(name string, id domain.TrackID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.musicSession(name); !ok {
		return
	}
	if removed, ok := l.playback.Delete(id); ok {
		l.appendLog(fmt.Sprintf("%s removed track %q.", name, removed.Title))
		l.broadcastLogs()
	}
	l.broadcastMusic()
}

func (l *Lobby) MusicSelect(name string, id domain.TrackID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.musicSession(name); !ok {
		return
	}
	if l.playback.Select(id) {
		l.appendLog(fmt.Sprintf("%s selected track %d.", name, id))
		l.broadcastLogs()
	}
	l.broadcastMusic()
}

func (l *Lobby) MusicPlay(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.musicSession(name); !ok {
		return
	}
	if l.playback.Play() {
		l.appendLog(fmt.Sprintf("%s started playback.", name))
		l.broadcastLogs()
	}
	l.broadcastMusic()
}

func (l *Lobby) MusicPause(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.musicSession(name); !ok {
		return
	}
	if l.playback.Pause() {
		l.appendLog(fmt.Sprintf("%s paused playback.", name))
		l.broadcastLogs()
	}
	l.broadcastMusic()
}

func (l *Lobby) MusicSeek(name string, pos float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.musicSession(name); !ok {
		return
	}
	clamped := l.playback.Seek(pos)
	l.appendLog(fmt.Sprintf("%s seeked to %.1fs.", name, clamped))
	l.broadcastMusic()
	l.broadcastLogs()
}
