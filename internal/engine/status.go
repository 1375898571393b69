package engine

// Status classifies a game as running or finished.
type Status string

const (
	InProgress Status = "in_progress"
	Won        Status = "won"
	Lost       Status = "lost"
)

// Terminal reports whether the status ends the game.
func (s Status) Terminal() bool {
	return s == Won || s == Lost
}

// DefaultWinTile is the tile value that wins the game.
const DefaultWinTile = 2048

// Evaluate classifies g. Win is checked before loss, so a full, stuck board
// holding the win tile reports Won.
func Evaluate(g Grid, winTile int) Status {
	if g.MaxTile() >= winTile {
		return Won
	}
	if !g.HasEmpty() && !hasHorizontalPair(g) && !hasVerticalPair(g) {
		return Lost
	}
	return InProgress
}

// hasHorizontalPair scans the whole board for equal left/right neighbours.
func hasHorizontalPair(g Grid) bool {
	for r := range Size {
		for c := range Size - 1 {
			if g[r][c] == g[r][c+1] {
				return true
			}
		}
	}
	return false
}

// hasVerticalPair scans the whole board for equal up/down neighbours.
func hasVerticalPair(g Grid) bool {
	for r := range Size - 1 {
		for c := range Size {
			if g[r][c] == g[r+1][c] {
				return true
			}
		}
	}
	return false
}
