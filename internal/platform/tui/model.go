package tui

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

// ResultStore is the subset of *storage.Store the screens use.
// A nil ResultStore disables persistence.
type ResultStore interface {
	SaveResult(r storage.Result) (int64, error)
	HighScore() (int, error)
	TopResults(limit int) ([]storage.Result, error)
}

// GameModel is the Bubble Tea model for one 2048 game screen.
type GameModel struct {
	engine  *engine.Engine
	state   engine.State
	spawned *engine.Tile
	store   ResultStore
	logger  *log.Logger
	player  string
	best    int
	saved   bool // result for the current game already recorded
	notice  string

	keys GameKeyMap
	help help.Model

	scoreboard *ScoreboardModel
	width      int
	height     int
	quitting   bool
}

// NewGameModel starts a new game on eng. store and logger may be nil.
func NewGameModel(eng *engine.Engine, store ResultStore, logger *log.Logger, player string) (GameModel, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	state, err := eng.NewGame()
	if err != nil {
		return GameModel{}, err
	}

	m := GameModel{
		engine: eng,
		state:  state,
		store:  store,
		logger: logger,
		player: player,
		keys:   DefaultGameKeyMap(),
		help:   help.New(),
	}

	if store != nil {
		best, err := store.HighScore()
		if err != nil {
			logger.Warn("could not load high score", "error", err)
		}
		m.best = best
	}

	logger.Debug("game started", "player", player, "seed", eng.Seed())
	return m, nil
}

// State returns the current game state.
func (m GameModel) State() engine.State {
	return m.state
}

// Best returns the best score seen, including the current game.
func (m GameModel) Best() int {
	return m.best
}

// Notice returns the transient message shown under the board.
func (m GameModel) Notice() string {
	return m.notice
}

// Saved reports whether the current game's result has been recorded.
func (m GameModel) Saved() bool {
	return m.saved
}

// IsQuitting returns true if the user requested to quit.
func (m GameModel) IsQuitting() bool {
	return m.quitting
}

// Init implements tea.Model.
func (m GameModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m GameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.scoreboard != nil {
			sb, cmd := m.scoreboard.Update(msg)
			m.setScoreboard(sb)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.scoreboard != nil {
			return m.updateScoreboard(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

// updateScoreboard forwards input to the embedded scoreboard.
func (m GameModel) updateScoreboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sb, cmd := m.scoreboard.Update(msg)
	m.setScoreboard(sb)

	switch {
	case m.scoreboard.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case m.scoreboard.IsGoingBack():
		m.scoreboard = nil
		return m, nil
	}
	return m, cmd
}

func (m *GameModel) setScoreboard(model tea.Model) {
	if sb, ok := model.(ScoreboardModel); ok {
		m.scoreboard = &sb
	}
}

// handleKey processes keyboard input on the game screen.
func (m GameModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.NewGame):
		m.newGame()
		return m, nil

	case key.Matches(msg, m.keys.Scores):
		sb := NewScoreboardModel(m.store, m.width, m.height)
		sb.embedded = true
		m.scoreboard = &sb
		return m, nil
	}

	if dir, ok := m.keys.Direction(msg); ok {
		m.move(dir)
	}
	return m, nil
}

// newGame abandons the current board and deals a fresh one.
// An unfinished game is not recorded.
func (m *GameModel) newGame() {
	state, err := m.engine.NewGame()
	if err != nil {
		m.logger.Error("new game failed", "error", err)
		m.notice = "Could not start a new game."
		return
	}
	m.state = state
	m.spawned = nil
	m.saved = false
	m.notice = ""
	m.logger.Debug("game restarted", "player", m.player)
}

// move applies one move and records the result if the game ended.
func (m *GameModel) move(dir engine.Direction) {
	if m.state.Terminal() {
		m.notice = "Game finished. Press n for a new game."
		return
	}

	res, err := m.engine.ApplyMove(m.state, dir)
	switch {
	case errors.Is(err, engine.ErrNoEmptyCell):
		m.notice = fmt.Sprintf("Nothing moves %s and the board is full.", dir)
		return
	case err != nil:
		m.logger.Error("move failed", "direction", dir, "error", err)
		m.notice = err.Error()
		return
	}

	m.state = res.State
	m.spawned = res.Spawned
	m.notice = ""
	if m.state.Score > m.best {
		m.best = m.state.Score
	}

	if m.state.Terminal() {
		m.recordResult()
	}
}

// recordResult saves the finished game once.
func (m *GameModel) recordResult() {
	if m.saved {
		return
	}
	m.saved = true

	m.logger.Info("game finished",
		"player", m.player,
		"status", m.state.Status,
		"score", m.state.Score,
		"max_tile", m.state.Grid.MaxTile(),
		"moves", m.state.Moves,
	)

	if m.store == nil {
		return
	}
	result := storage.ResultFromState(m.player, m.engine.Seed(), m.state)
	if _, err := m.store.SaveResult(result); err != nil {
		m.logger.Warn("could not save result", "error", err)
		m.notice = "Result not saved."
	}
}

// View renders the current state to a string for display.
func (m GameModel) View() string {
	if m.quitting {
		return ""
	}
	if m.scoreboard != nil {
		return m.scoreboard.View()
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("2048"),
		"   ",
		scoreStyle.Render(fmt.Sprintf("Score %d", m.state.Score)),
		"   ",
		scoreStyle.Render(fmt.Sprintf("Best %d", m.best)),
	)

	lines := []string{header, "", RenderBoard(m.state.Grid, m.spawned)}
	if banner := RenderStatus(m.state.Status); banner != "" {
		lines = append(lines, "", banner)
	}
	if m.notice != "" {
		lines = append(lines, "", noticeStyle.Render(m.notice))
	}
	lines = append(lines, "", helpStyle.Render(m.help.View(m.keys)))

	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if m.width > 0 {
		content = centerText(content, m.width)
	}
	return content
}

// Run starts the Bubble Tea program for a local game.
func Run(eng *engine.Engine, store ResultStore, logger *log.Logger, player string) error {
	model, err := NewGameModel(eng, store, logger, player)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}
