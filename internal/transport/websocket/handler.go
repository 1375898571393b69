package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Replies queued per connection before it is dropped.
	sendBuffer = 16
)

// Message types.
const (
	TypeNew   = "new"
	TypeMove  = "move"
	TypeState = "state"
	TypeError = "error"
)

// ClientMessage is a request from the browser.
type ClientMessage struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
}

// ServerMessage is a reply to the browser. State replies carry the move
// result; error replies carry only Error.
type ServerMessage struct {
	Type string `json:"type"`
	*engine.MoveResult
	Error string `json:"error,omitempty"`
}

// ResultSaver records finished games. *storage.Store implements it.
type ResultSaver interface {
	SaveResult(r storage.Result) (int64, error)
}

// Handler upgrades HTTP requests and runs one game per connection.
type Handler struct {
	saver      ResultSaver
	logger     *log.Logger
	engineOpts []engine.Option
	upgrader   websocket.Upgrader
}

// NewHandler creates a handler. saver and logger may be nil.
func NewHandler(saver ResultSaver, logger *log.Logger, opts ...engine.Option) *Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Handler{
		saver:      saver,
		logger:     logger,
		engineOpts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	player := r.URL.Query().Get("player")
	c := &client{
		handler: h,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		engine:  engine.New(h.engineOpts...),
		player:  player,
		logger:  h.logger.With("remote", r.RemoteAddr, "player", player),
	}

	c.logger.Info("connection opened")

	go c.writePump()
	go c.readPump()
}

// client is one connection and the game it is playing.
type client struct {
	handler *Handler
	conn    *websocket.Conn
	send    chan []byte
	logger  *log.Logger

	engine *engine.Engine
	state  engine.State
	player string
	saved  bool
}

// readPump reads requests and applies them in order. It owns the game
// state and is the only sender on c.send.
func (c *client) readPump() {
	defer func() {
		close(c.send)
		c.conn.Close()
		c.logger.Info("connection closed", "score", c.state.Score, "status", c.state.Status)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	if !c.reply(c.newGame()) {
		return
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket error", "error", err)
			}
			return
		}

		if !c.reply(c.handle(data)) {
			return
		}
	}
}

// handle decodes one request and produces its reply.
func (c *client) handle(data []byte) ServerMessage {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errorMessage(fmt.Errorf("malformed message: %w", err))
	}

	switch msg.Type {
	case TypeNew:
		return c.newGame()
	case TypeMove:
		dir, err := engine.ParseDirection(msg.Direction)
		if err != nil {
			return errorMessage(err)
		}
		return c.move(dir)
	default:
		return errorMessage(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// newGame deals a fresh board, abandoning the current one.
func (c *client) newGame() ServerMessage {
	state, err := c.engine.NewGame()
	if err != nil {
		return errorMessage(err)
	}
	c.state = state
	c.saved = false
	c.logger.Debug("game started", "seed", c.engine.Seed())
	return ServerMessage{
		Type:       TypeState,
		MoveResult: &engine.MoveResult{State: state, Changed: true},
	}
}

// move applies dir to the current game.
func (c *client) move(dir engine.Direction) ServerMessage {
	if c.state.Terminal() {
		return errorMessage(fmt.Errorf("game is %s; send %q to play again", c.state.Status, TypeNew))
	}

	res, err := c.engine.ApplyMove(c.state, dir)
	if err != nil {
		if !errors.Is(err, engine.ErrNoEmptyCell) {
			c.logger.Error("move failed", "direction", dir, "error", err)
		}
		return errorMessage(err)
	}

	c.state = res.State
	if c.state.Terminal() {
		c.recordResult()
	}
	return ServerMessage{Type: TypeState, MoveResult: &res}
}

// recordResult saves the finished game once.
func (c *client) recordResult() {
	if c.saved {
		return
	}
	c.saved = true

	c.logger.Info("game finished",
		"status", c.state.Status,
		"score", c.state.Score,
		"max_tile", c.state.Grid.MaxTile(),
		"moves", c.state.Moves,
	)

	if c.handler.saver == nil {
		return
	}
	result := storage.ResultFromState(c.player, c.engine.Seed(), c.state)
	if _, err := c.handler.saver.SaveResult(result); err != nil {
		c.logger.Warn("could not save result", "error", err)
	}
}

// reply queues msg for the write loop. It returns false when the
// connection should be dropped.
func (c *client) reply(msg ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("cannot marshal reply", "error", err)
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn("send buffer full, dropping connection")
		return false
	}
}

// writePump writes queued replies and keepalive pings to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The read loop closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorMessage(err error) ServerMessage {
	return ServerMessage{Type: TypeError, Error: err.Error()}
}
