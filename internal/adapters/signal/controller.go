package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/chamlab/lobby/internal/config"
	"github.com/chamlab/lobby/internal/domain"
	"github.com/chamlab/lobby/internal/lobby"
	"github.com/chamlab/lobby/internal/protocol"
)

const (
	writeWait        = 5 * time.Second
	handshakeTimeout = 30 * time.Second
)

var errNotJoin = errors.New("first frame is not join")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	lobby *lobby.Lobby
	cfg   *config.Config
}

func NewController(l *lobby.Lobby, cfg *config.Config) *Controller {
	return &Controller{lobby: l, cfg: cfg}
}

// HandleLobby upgrades the connection, runs the join handshake
// synchronously on the raw socket, and only then starts the pumps. A
// handshake failure is answered with a terminal error frame and the
// connection is closed; no session is ever registered for it.
func (ctl *Controller) HandleLobby(ctx context.Context, c *gin.Context) {
	sid := c.GetString("client_token")
	log.Info().Str("module", "signal").Str("sid", sid).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)

	req, err := ctl.readJoin(ws)
	if err != nil {
		ctl.writeTerminalError(ws, "Expected join message first.")
		_ = ws.Close()
		return
	}

	conn := newWSConn(ws, ctl.cfg.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	// kick both cancels the pumps and closes the socket, so a blocked
	// ReadMessage unblocks and the cleanup path runs.
	kick := func() {
		cancel()
		conn.Close()
	}

	role, err := ctl.lobby.Join(*req, conn, kick)
	if err != nil {
		ctl.writeTerminalError(ws, handshakeErrorMessage(err))
		_ = ws.Close()
		return
	}
	name := strings.TrimSpace(req.Name)
	log.Info().Str("module", "signal").Str("sid", sid).Str("name", name).Str("role", string(role)).Msg("handshake complete")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, name, conn)
}

// readJoin reads and decodes the mandatory first frame.
func (ctl *Controller) readJoin(ws *websocket.Conn) (*protocol.Join, error) {
	_ = ws.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	var req protocol.Join
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errNotJoin
	}
	if req.Type != protocol.TypeJoin {
		return nil, errNotJoin
	}
	return &req, nil
}

func (ctl *Controller) writeTerminalError(ws *websocket.Conn, message string) {
	b, err := json.Marshal(protocol.Error{Type: protocol.TypeError, Message: message})
	if err != nil {
		return
	}
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("terminal error write")
	}
}

// handshakeErrorMessage maps registry errors to client-facing wording.
func handshakeErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNameEmpty):
		return "Name cannot be empty."
	case errors.Is(err, domain.ErrBadRole):
		return "Role must be user or admin."
	case errors.Is(err, lobby.ErrBadPassword):
		return "Invalid admin password."
	case errors.Is(err, lobby.ErrNameTaken):
		return "Name already taken. Choose another."
	default:
		return "Unable to join."
	}
}
