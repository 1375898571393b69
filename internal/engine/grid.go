package engine

import (
	"fmt"
	"strings"
)

// Size is the board dimension.
const Size = 4

// Empty marks a cell without a tile.
const Empty = 0

// Row is a single line of the board, ordered from the leading edge.
type Row [Size]int

// Grid is a 4x4 board. Grid is a value type: every transform returns a new Grid.
type Grid [Size]Row

// Cell identifies a board position.
type Cell struct {
	Row, Col int
}

// At returns the value at (row, col). Empty cells return 0.
func (g Grid) At(row, col int) int {
	return g[row][col]
}

// EmptyCells returns the positions of all empty cells in row-major order.
func (g Grid) EmptyCells() []Cell {
	var cells []Cell
	for r := range Size {
		for c := range Size {
			if g[r][c] == Empty {
				cells = append(cells, Cell{Row: r, Col: c})
			}
		}
	}
	return cells
}

// HasEmpty reports whether at least one cell is empty.
func (g Grid) HasEmpty() bool {
	for r := range Size {
		for c := range Size {
			if g[r][c] == Empty {
				return true
			}
		}
	}
	return false
}

// MaxTile returns the highest tile on the board.
func (g Grid) MaxTile() int {
	maxVal := 0
	for r := range Size {
		for c := range Size {
			maxVal = max(maxVal, g[r][c])
		}
	}
	return maxVal
}

// String renders the grid as a plain-text table.
func (g Grid) String() string {
	line := "+------+------+------+------+"
	var sb strings.Builder
	sb.WriteString(line)
	sb.WriteByte('\n')
	for r := range Size {
		sb.WriteByte('|')
		for c := range Size {
			if g[r][c] == Empty {
				sb.WriteString("      |")
			} else {
				fmt.Fprintf(&sb, "%5d |", g[r][c])
			}
		}
		sb.WriteByte('\n')
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// compressRow slides non-empty values toward index 0, keeping their order.
func compressRow(row Row) Row {
	var out Row
	fill := 0
	for _, v := range row {
		if v != Empty {
			out[fill] = v
			fill++
		}
	}
	return out
}

// mergeRow combines equal neighbours in a single left-to-right pass.
// A merged cell is not re-examined, so [2,2,2,2] yields [4,0,4,0].
// Returns the row and the sum of merged values.
func mergeRow(row Row) (Row, int) {
	gained := 0
	for j := 0; j < Size-1; j++ {
		if row[j] != Empty && row[j] == row[j+1] {
			row[j] *= 2
			row[j+1] = Empty
			gained += row[j]
			j++
		}
	}
	return row, gained
}

// compress applies compressRow to every row.
func compress(g Grid) Grid {
	for r := range Size {
		g[r] = compressRow(g[r])
	}
	return g
}

// merge applies mergeRow to every row.
func merge(g Grid) (Grid, int) {
	total := 0
	for r := range Size {
		var gained int
		g[r], gained = mergeRow(g[r])
		total += gained
	}
	return g, total
}

// reverse mirrors every row end to end.
func reverse(g Grid) Grid {
	var out Grid
	for r := range Size {
		for c := range Size {
			out[r][c] = g[r][Size-1-c]
		}
	}
	return out
}

// transpose swaps rows and columns.
func transpose(g Grid) Grid {
	var out Grid
	for r := range Size {
		for c := range Size {
			out[r][c] = g[c][r]
		}
	}
	return out
}

// slideLeft runs compress, merge, compress.
func slideLeft(g Grid) (Grid, int) {
	g = compress(g)
	g, gained := merge(g)
	return compress(g), gained
}

// slide moves the grid in dir by reducing it to a left move.
func slide(g Grid, dir Direction) (Grid, int, error) {
	var gained int
	switch dir {
	case Left:
		g, gained = slideLeft(g)
	case Right:
		g, gained = slideLeft(reverse(g))
		g = reverse(g)
	case Up:
		g, gained = slideLeft(transpose(g))
		g = transpose(g)
	case Down:
		g, gained = slideLeft(reverse(transpose(g)))
		g = transpose(reverse(g))
	default:
		return g, 0, fmt.Errorf("%w: %d", ErrInvalidDirection, int(dir))
	}
	return g, gained, nil
}
