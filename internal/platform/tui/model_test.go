package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

type fakeStore struct {
	results []storage.Result
	high    int
	saveErr error
}

func (f *fakeStore) SaveResult(r storage.Result) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.results = append(f.results, r)
	return int64(len(f.results)), nil
}

func (f *fakeStore) HighScore() (int, error) {
	return f.high, nil
}

func (f *fakeStore) TopResults(limit int) ([]storage.Result, error) {
	if limit < len(f.results) {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, store ResultStore) GameModel {
	t.Helper()
	m, err := NewGameModel(engine.New(engine.WithSeed(7)), store, nil, "tester")
	if err != nil {
		t.Fatalf("NewGameModel() error: %v", err)
	}
	return m
}

func update(t *testing.T, m GameModel, msg tea.Msg) (GameModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	gm, ok := next.(GameModel)
	if !ok {
		t.Fatalf("Update returned %T, want GameModel", next)
	}
	return gm, cmd
}

func TestNewGameModel(t *testing.T) {
	store := &fakeStore{high: 5000}
	m := newTestModel(t, store)

	if got := len(m.State().Grid.EmptyCells()); got != engine.Size*engine.Size-2 {
		t.Errorf("new game has %d empty cells, want %d", got, engine.Size*engine.Size-2)
	}
	if m.State().Status != engine.InProgress {
		t.Errorf("Status = %q, want in_progress", m.State().Status)
	}
	if m.Best() != 5000 {
		t.Errorf("Best() = %d, want 5000", m.Best())
	}
}

func TestGameModelMove(t *testing.T) {
	m := newTestModel(t, &fakeStore{})
	m.state = engine.State{Grid: engine.Grid{{2, 2, 0, 0}}, Status: engine.InProgress}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})

	s := m.State()
	if s.Score != 4 {
		t.Errorf("Score = %d, want 4", s.Score)
	}
	if s.Grid[0][0] != 4 {
		t.Errorf("Grid[0][0] = %d, want 4", s.Grid[0][0])
	}
	if s.Moves != 1 {
		t.Errorf("Moves = %d, want 1", s.Moves)
	}
	if m.Best() != 4 {
		t.Errorf("Best() = %d, want 4", m.Best())
	}
	if m.spawned == nil {
		t.Error("expected a spawned tile")
	}
}

func TestGameModelMoveKeys(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want engine.Grid
	}{
		{"arrow right", tea.KeyMsg{Type: tea.KeyRight}, engine.Grid{{0, 0, 0, 4}}},
		{"d", keyRunes("d"), engine.Grid{{0, 0, 0, 4}}},
		{"l", keyRunes("l"), engine.Grid{{0, 0, 0, 4}}},
		{"a", keyRunes("a"), engine.Grid{{4, 0, 0, 0}}},
		{"h", keyRunes("h"), engine.Grid{{4, 0, 0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, nil)
			m.engine = engine.New(engine.WithSeed(1), engine.WithSpawnPolicy(engine.SpawnOnChange))
			m.state = engine.State{Grid: engine.Grid{{2, 0, 2, 0}}, Status: engine.InProgress}

			m, _ = update(t, m, tt.msg)

			// Only the merged row matters; the spawn lands elsewhere or beside it.
			got := m.State().Grid
			for c := range engine.Size {
				if tt.want[0][c] != 0 && got[0][c] != tt.want[0][c] {
					t.Errorf("row 0 = %v, want merged tile at %v", got[0], tt.want[0])
				}
			}
			if m.State().Score != 4 {
				t.Errorf("Score = %d, want 4", m.State().Score)
			}
		})
	}
}

func TestGameModelRecordsWinOnce(t *testing.T) {
	store := &fakeStore{}
	m := newTestModel(t, store)
	m.state = engine.State{Grid: engine.Grid{{1024, 1024, 0, 0}}, Score: 100, Status: engine.InProgress}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})

	if m.State().Status != engine.Won {
		t.Fatalf("Status = %q, want won", m.State().Status)
	}
	if !m.Saved() {
		t.Error("Saved() = false after win")
	}
	if len(store.results) != 1 {
		t.Fatalf("saved %d results, want 1", len(store.results))
	}
	r := store.results[0]
	if r.Player != "tester" || r.Score != 2148 || r.MaxTile != 2048 || r.Status != engine.Won || r.Seed != 7 {
		t.Errorf("saved result = %+v", r)
	}

	// Further moves are refused and nothing more is saved.
	before := m.State()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.State() != before {
		t.Error("move after win changed the state")
	}
	if m.Notice() == "" {
		t.Error("expected a notice after moving on a finished game")
	}
	if len(store.results) != 1 {
		t.Errorf("saved %d results, want 1", len(store.results))
	}
}

func TestGameModelSaveFailureKeepsPlaying(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	m := newTestModel(t, store)
	m.state = engine.State{Grid: engine.Grid{{1024, 1024, 0, 0}}, Status: engine.InProgress}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})

	if m.State().Status != engine.Won {
		t.Fatalf("Status = %q, want won", m.State().Status)
	}
	if m.Notice() == "" {
		t.Error("expected a notice when saving fails")
	}
}

func TestGameModelFullBoardNoOpMove(t *testing.T) {
	m := newTestModel(t, nil)
	full := engine.Grid{
		{2, 4, 2, 4},
		{2, 4, 2, 4},
		{8, 16, 8, 16},
		{32, 64, 32, 64},
	}
	m.state = engine.State{Grid: full, Score: 12, Status: engine.Evaluate(full, engine.DefaultWinTile)}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})

	if m.State().Grid != full || m.State().Score != 12 {
		t.Errorf("state changed on a blocked move: %+v", m.State())
	}
	if !strings.Contains(m.Notice(), "full") {
		t.Errorf("Notice() = %q, want board-full notice", m.Notice())
	}

	// A move that merges still works.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.State().Score != 12+4+8+4+8 {
		t.Errorf("Score = %d, want %d", m.State().Score, 12+4+8+4+8)
	}
	if m.Notice() != "" {
		t.Errorf("Notice() = %q, want cleared", m.Notice())
	}
}

func TestGameModelNewGame(t *testing.T) {
	store := &fakeStore{}
	m := newTestModel(t, store)
	m.state = engine.State{Grid: engine.Grid{{1024, 1024, 0, 0}}, Status: engine.InProgress}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if !m.Saved() {
		t.Fatal("expected saved result")
	}

	m, _ = update(t, m, keyRunes("n"))

	s := m.State()
	if s.Score != 0 || s.Moves != 0 || s.Status != engine.InProgress {
		t.Errorf("new game state = %+v", s)
	}
	if m.Saved() {
		t.Error("Saved() should reset for a new game")
	}
	if m.Best() != 2048 {
		t.Errorf("Best() = %d, want 2048 kept across games", m.Best())
	}
}

func TestGameModelQuit(t *testing.T) {
	m := newTestModel(t, nil)

	m, cmd := update(t, m, keyRunes("q"))

	if !m.IsQuitting() {
		t.Error("IsQuitting() = false after q")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("command did not quit")
	}
	if m.View() != "" {
		t.Error("View() should be empty when quitting")
	}
}

func TestGameModelScoreboardToggle(t *testing.T) {
	store := &fakeStore{results: []storage.Result{{Player: "a", Score: 10, Status: engine.Lost}}}
	m := newTestModel(t, store)

	m, _ = update(t, m, keyRunes("t"))
	if m.scoreboard == nil {
		t.Fatal("scoreboard not shown")
	}
	if !strings.Contains(m.View(), "HIGH SCORES") {
		t.Error("View() should render the scoreboard")
	}

	// Arrow keys scroll the table instead of moving tiles.
	before := m.State()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.State() != before {
		t.Error("key on scoreboard changed the game")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.scoreboard != nil {
		t.Error("esc should return to the game")
	}
	if cmd != nil {
		t.Error("returning to the game should not quit")
	}
	if m.IsQuitting() {
		t.Error("IsQuitting() = true after back")
	}
}

func TestGameModelView(t *testing.T) {
	m := newTestModel(t, nil)
	m.state = engine.State{Grid: engine.Grid{{2048, 0, 0, 0}}, Score: 300, Status: engine.Won}

	view := m.View()
	for _, want := range []string{"Score 300", "2048", "You win!"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestGameKeyMapDirection(t *testing.T) {
	keys := DefaultGameKeyMap()
	tests := []struct {
		msg  tea.KeyMsg
		want engine.Direction
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, engine.Up},
		{tea.KeyMsg{Type: tea.KeyDown}, engine.Down},
		{tea.KeyMsg{Type: tea.KeyLeft}, engine.Left},
		{tea.KeyMsg{Type: tea.KeyRight}, engine.Right},
		{keyRunes("w"), engine.Up},
		{keyRunes("s"), engine.Down},
		{keyRunes("a"), engine.Left},
		{keyRunes("d"), engine.Right},
		{keyRunes("k"), engine.Up},
		{keyRunes("j"), engine.Down},
		{keyRunes("h"), engine.Left},
		{keyRunes("l"), engine.Right},
	}

	for _, tt := range tests {
		got, ok := keys.Direction(tt.msg)
		if !ok || got != tt.want {
			t.Errorf("Direction(%q) = %v, %v; want %v", tt.msg.String(), got, ok, tt.want)
		}
	}

	if _, ok := keys.Direction(keyRunes("x")); ok {
		t.Error("Direction(x) should not map to a move")
	}
}
