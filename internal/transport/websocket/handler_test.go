package websocket

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

// firstCellSource always picks the first empty cell and spawns a 2.
type firstCellSource struct{}

func (firstCellSource) Intn(int) int     { return 0 }
func (firstCellSource) Float64() float64 { return 0.5 }

type recordingSaver struct {
	mu      sync.Mutex
	results []storage.Result
}

func (s *recordingSaver) SaveResult(r storage.Result) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return int64(len(s.results)), nil
}

func (s *recordingSaver) saved() []storage.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.Result(nil), s.results...)
}

func dial(t *testing.T, h *Handler, query string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
}

func TestHandlerDealsGameOnConnect(t *testing.T) {
	conn := dial(t, NewHandler(nil, nil, engine.WithSeed(3)), "")

	msg := readMessage(t, conn)
	if msg.Type != TypeState {
		t.Fatalf("Type = %q, want %q (error %q)", msg.Type, TypeState, msg.Error)
	}
	if msg.MoveResult == nil {
		t.Fatal("state message without result")
	}
	if got := len(msg.State.Grid.EmptyCells()); got != engine.Size*engine.Size-2 {
		t.Errorf("initial board has %d empty cells, want %d", got, engine.Size*engine.Size-2)
	}
	if msg.State.Status != engine.InProgress || msg.State.Score != 0 {
		t.Errorf("initial state = %+v", msg.State)
	}
}

func TestHandlerMove(t *testing.T) {
	conn := dial(t, NewHandler(nil, nil, engine.WithRand(firstCellSource{})), "")

	start := readMessage(t, conn)
	want := engine.Grid{{2, 2, 0, 0}}
	if start.State.Grid != want {
		t.Fatalf("initial grid = %v, want %v", start.State.Grid, want)
	}

	send(t, conn, ClientMessage{Type: TypeMove, Direction: "left"})
	msg := readMessage(t, conn)

	if msg.Type != TypeState {
		t.Fatalf("Type = %q, want %q (error %q)", msg.Type, TypeState, msg.Error)
	}
	if !msg.Changed || msg.Gained != 4 {
		t.Errorf("Changed = %v, Gained = %d; want true, 4", msg.Changed, msg.Gained)
	}
	if msg.Spawned == nil || msg.Spawned.Row != 0 || msg.Spawned.Col != 1 || msg.Spawned.Value != 2 {
		t.Errorf("Spawned = %+v, want 2 at (0,1)", msg.Spawned)
	}
	if got := (engine.Grid{{4, 2, 0, 0}}); msg.State.Grid != got {
		t.Errorf("grid = %v, want %v", msg.State.Grid, got)
	}
	if msg.State.Score != 4 || msg.State.Moves != 1 {
		t.Errorf("Score = %d, Moves = %d; want 4, 1", msg.State.Score, msg.State.Moves)
	}
}

func TestHandlerErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bad direction", `{"type":"move","direction":"sideways"}`, "invalid direction"},
		{"unknown type", `{"type":"undo"}`, "unknown message type"},
		{"malformed", `{"type":`, "malformed message"},
	}

	conn := dial(t, NewHandler(nil, nil, engine.WithSeed(1)), "")
	start := readMessage(t, conn)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.raw)); err != nil {
				t.Fatalf("WriteMessage() error: %v", err)
			}
			msg := readMessage(t, conn)
			if msg.Type != TypeError {
				t.Fatalf("Type = %q, want %q", msg.Type, TypeError)
			}
			if !strings.Contains(msg.Error, tt.want) {
				t.Errorf("Error = %q, want mention of %q", msg.Error, tt.want)
			}
			if msg.MoveResult != nil {
				t.Error("error message should not carry a state")
			}
		})
	}

	// The game is untouched by rejected requests.
	send(t, conn, ClientMessage{Type: TypeMove, Direction: "up"})
	msg := readMessage(t, conn)
	if msg.Type != TypeState || msg.State.Moves != start.State.Moves+1 {
		t.Errorf("move after errors = %+v", msg)
	}
}

func TestHandlerSavesFinishedGame(t *testing.T) {
	saver := &recordingSaver{}
	h := NewHandler(saver, nil, engine.WithRand(firstCellSource{}), engine.WithWinTile(4))
	conn := dial(t, h, "?player=dana")

	readMessage(t, conn)
	send(t, conn, ClientMessage{Type: TypeMove, Direction: "left"})

	msg := readMessage(t, conn)
	if msg.Type != TypeState || msg.State.Status != engine.Won {
		t.Fatalf("expected won state, got %+v", msg)
	}

	results := saver.saved()
	if len(results) != 1 {
		t.Fatalf("saved %d results, want 1", len(results))
	}
	if r := results[0]; r.Player != "dana" || r.Score != 4 || r.MaxTile != 4 || r.Status != engine.Won || r.Moves != 1 {
		t.Errorf("saved result = %+v", r)
	}

	// No moves on a finished game.
	send(t, conn, ClientMessage{Type: TypeMove, Direction: "right"})
	if msg := readMessage(t, conn); msg.Type != TypeError {
		t.Errorf("Type = %q, want %q", msg.Type, TypeError)
	}

	// A new game starts clean.
	send(t, conn, ClientMessage{Type: TypeNew})
	msg = readMessage(t, conn)
	if msg.Type != TypeState || msg.State.Status != engine.InProgress || msg.State.Moves != 0 {
		t.Errorf("new game = %+v", msg)
	}
	if len(saver.saved()) != 1 {
		t.Errorf("saved %d results, want 1", len(saver.saved()))
	}
}
