package signal

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/chamlab/lobby/internal/protocol"
)

// dispatch routes one post-handshake frame by its type discriminator.
// A frame that does not decode gets a non-terminal error frame and the
// loop keeps reading; unknown types are ignored. Playback commands are
// forwarded regardless of sender role — authorization lives in the
// lobby, which drops non-admin commands silently.
func (ctl *Controller) dispatch(name string, c *wsConn, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("name", name).Msg("bad json")
		ctl.sendError(c, "Malformed message.")
		return
	}

	switch env.Type {
	case protocol.TypeChat:
		ctl.handleChat(name, c, data)
	case protocol.TypeVoiceJoin:
		ctl.handleVoiceJoin(name, c, data)
	case protocol.TypeVoiceLeave:
		ctl.lobby.VoiceLeave(name)
	case protocol.TypeVoiceTalking:
		ctl.handleVoiceTalking(name, c, data)
	case protocol.TypeVoiceOffer, protocol.TypeVoiceAnswer, protocol.TypeVoiceICE:
		ctl.handleVoiceSignal(env.Type, name, c, data)
	case protocol.TypeMusicAdd:
		ctl.handleMusicAdd(name, c, data)
	case protocol.TypeMusicDelete, protocol.TypeMusicSelect:
		ctl.handleMusicTrack(env.Type, name, c, data)
	case protocol.TypeMusicPlay:
		ctl.lobby.MusicPlay(name)
	case protocol.TypeMusicPause:
		ctl.lobby.MusicPause(name)
	case protocol.TypeMusicSeek:
		ctl.handleMusicSeek(name, c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown frame type")
	}
}

func (ctl *Controller) sendError(c *wsConn, message string) {
	ctl.sendJSON(c, protocol.Error{Type: protocol.TypeError, Message: message})
}

// handleChat validates the two chat shapes. Encrypted messages need a
// non-empty ciphertext and iv and stay opaque to the server; plaintext
// needs non-empty trimmed text. Invalid chats are skipped silently.
func (ctl *Controller) handleChat(name string, c *wsConn, data []byte) {
	var msg protocol.Chat
	if err := json.Unmarshal(data, &msg); err != nil {
		ctl.sendError(c, "Malformed message.")
		return
	}
	if msg.Encrypted {
		if msg.Ciphertext == "" || msg.IV == "" {
			return
		}
	} else {
		msg.Message = strings.TrimSpace(msg.Message)
		if msg.Message == "" {
			return
		}
	}
	ctl.lobby.Chat(name, msg)
}

func (ctl *Controller) handleVoiceJoin(name string, c *wsConn, data []byte) {
	var p protocol.VoiceJoin
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "Malformed message.")
		return
	}
	ctl.lobby.VoiceJoin(name, p.Channel)
}

func (ctl *Controller) handleVoiceTalking(name string, c *wsConn, data []byte) {
	var p protocol.VoiceTalking
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "Malformed message.")
		return
	}
	ctl.lobby.VoiceTalking(name, p.IsTalking)
}

func (ctl *Controller) handleVoiceSignal(kind, name string, c *wsConn, data []byte) {
	var p protocol.VoiceSignal
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "Malformed message.")
		return
	}
	ctl.lobby.VoiceSignal(kind, name, p.Target, p.Data)
}

func (ctl *Controller) handleMusicAdd(name string, c *wsConn, data []byte) {
	var p protocol.MusicAdd
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "Malformed message.")
		return
	}
	ctl.lobby.MusicAdd(name, p.Title, p.URL)
}

func (ctl *Controller) handleMusicTrack(kind, name string, c *wsConn, data []byte) {
	var p protocol.MusicTrack
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "Malformed message.")
		return
	}
	if kind == protocol.TypeMusicDelete {
		ctl.lobby.MusicDelete(name, p.TrackID)
		return
	}
	ctl.lobby.MusicSelect(name, p.TrackID)
}

func (ctl *Controller) handleMusicSeek(name string, c *wsConn, data []byte) {
	var p protocol.MusicSeek
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "Malformed message.")
		return
	}
	ctl.lobby.MusicSeek(name, p.Position)
}
