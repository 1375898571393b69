// Package engine implements the rules of the 2048 sliding-tile puzzle:
// the board, the move and merge transform, tile spawning, scoring and
// win/loss detection. It has no I/O; presentation layers call NewGame and
// ApplyMove and render the returned State.
package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	// ErrNoEmptyCell is returned when a tile must be placed on a full board.
	ErrNoEmptyCell = errors.New("engine: no empty cell to place a tile")

	// ErrInvalidDirection is returned for a value outside the four directions.
	ErrInvalidDirection = errors.New("engine: invalid direction")
)

// Source is the random source used for tile placement.
// *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// SpawnPolicy decides whether a move that changed nothing still spawns a tile.
type SpawnPolicy string

const (
	// SpawnAlways places a tile after every move, including no-op moves.
	SpawnAlways SpawnPolicy = "always"
	// SpawnOnChange places a tile only when the move changed the board.
	SpawnOnChange SpawnPolicy = "on_change"
)

// DefaultSpawnFourProbability is the chance that a spawned tile is a 4.
const DefaultSpawnFourProbability = 0.1

// State is an immutable snapshot of a game.
type State struct {
	Grid   Grid   `json:"grid"`
	Score  int    `json:"score"`
	Status Status `json:"status"`
	Moves  int    `json:"moves"`
}

// Terminal reports whether the game has been won or lost.
func (s State) Terminal() bool {
	return s.Status.Terminal()
}

// Tile is a placed tile.
type Tile struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value int `json:"value"`
}

// MoveResult is returned by ApplyMove.
type MoveResult struct {
	State   State `json:"state"`
	Changed bool  `json:"changed"` // slide or merge altered the grid
	Gained  int   `json:"gained"`  // score added by merges
	Spawned *Tile `json:"spawned,omitempty"`
}

// Engine applies moves and spawns tiles. An Engine is not safe for
// concurrent use; give each game session its own.
type Engine struct {
	rng       Source
	spawnFour float64
	winTile   int
	policy    SpawnPolicy
	seed      int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed seeds the default random source.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
		e.seed = seed
	}
}

// WithRand replaces the random source.
func WithRand(src Source) Option {
	return func(e *Engine) {
		e.rng = src
		e.seed = 0
	}
}

// WithSpawnFourProbability sets the chance that a spawned tile is a 4.
func WithSpawnFourProbability(p float64) Option {
	return func(e *Engine) { e.spawnFour = p }
}

// WithWinTile sets the tile value that wins the game.
func WithWinTile(v int) Option {
	return func(e *Engine) { e.winTile = v }
}

// WithSpawnPolicy sets the no-op move spawn behaviour.
func WithSpawnPolicy(p SpawnPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// New creates an engine. Without WithSeed or WithRand it seeds from the clock.
func New(opts ...Option) *Engine {
	seed := time.Now().UnixNano()
	e := &Engine{
		rng:       rand.New(rand.NewSource(seed)),
		spawnFour: DefaultSpawnFourProbability,
		winTile:   DefaultWinTile,
		policy:    SpawnAlways,
		seed:      seed,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Seed returns the seed of the default source, or 0 when WithRand replaced it.
func (e *Engine) Seed() int64 {
	return e.seed
}

// WinTile returns the winning tile value.
func (e *Engine) WinTile() int {
	return e.winTile
}

// Policy returns the spawn policy.
func (e *Engine) Policy() SpawnPolicy {
	return e.policy
}

// NewGame returns a fresh state with two random tiles.
func (e *Engine) NewGame() (State, error) {
	var g Grid
	for range 2 {
		var err error
		if g, _, err = e.spawn(g); err != nil {
			return State{}, fmt.Errorf("new game: %w", err)
		}
	}
	return State{Grid: g, Status: Evaluate(g, e.winTile)}, nil
}

// ApplyMove slides s in dir, spawns a tile and re-evaluates the status.
// Moves on a terminal state are not rejected; callers should stop asking.
// When a tile must be spawned but the board is full, s is returned unchanged
// together with an error wrapping ErrNoEmptyCell.
func (e *Engine) ApplyMove(s State, dir Direction) (MoveResult, error) {
	moved, gained, err := slide(s.Grid, dir)
	if err != nil {
		return MoveResult{State: s}, err
	}
	changed := moved != s.Grid

	next := State{
		Grid:  moved,
		Score: s.Score + gained,
		Moves: s.Moves + 1,
	}

	var spawned *Tile
	if changed || e.policy != SpawnOnChange {
		var tile Tile
		next.Grid, tile, err = e.spawn(next.Grid)
		if err != nil {
			return MoveResult{State: s}, fmt.Errorf("move %s: %w", dir, err)
		}
		spawned = &tile
	}

	next.Status = Evaluate(next.Grid, e.winTile)
	return MoveResult{
		State:   next,
		Changed: changed,
		Gained:  gained,
		Spawned: spawned,
	}, nil
}

// spawn places a 2 or a 4 in a uniformly chosen empty cell.
func (e *Engine) spawn(g Grid) (Grid, Tile, error) {
	cells := g.EmptyCells()
	if len(cells) == 0 {
		return g, Tile{}, ErrNoEmptyCell
	}
	cell := cells[e.rng.Intn(len(cells))]

	value := 2
	if e.rng.Float64() < e.spawnFour {
		value = 4
	}

	g[cell.Row][cell.Col] = value
	return g, Tile{Row: cell.Row, Col: cell.Col, Value: value}, nil
}
