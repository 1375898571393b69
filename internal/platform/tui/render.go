package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-2048/internal/engine"
)

const (
	tileWidth  = 7
	tileHeight = 3
)

// tilePalette maps tile values to background colors (ANSI 256).
var tilePalette = map[int]lipgloss.Color{
	2:    lipgloss.Color("255"),
	4:    lipgloss.Color("230"),
	8:    lipgloss.Color("215"),
	16:   lipgloss.Color("209"),
	32:   lipgloss.Color("203"),
	64:   lipgloss.Color("196"),
	128:  lipgloss.Color("228"),
	256:  lipgloss.Color("227"),
	512:  lipgloss.Color("220"),
	1024: lipgloss.Color("214"),
	2048: lipgloss.Color("178"),
}

var (
	emptyTileStyle = lipgloss.NewStyle().
			Width(tileWidth).
			Height(tileHeight).
			Background(lipgloss.Color("238"))

	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	wonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("28")).
			Padding(0, 2)

	lostStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("124")).
			Padding(0, 2)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// tileStyle returns the style for a non-empty tile.
func tileStyle(value int) lipgloss.Style {
	bg, ok := tilePalette[value]
	if !ok {
		bg = lipgloss.Color("93") // beyond 2048
	}
	fg := lipgloss.Color("235")
	if value >= 64 && value != 128 && value != 256 {
		fg = lipgloss.Color("255")
	}
	return lipgloss.NewStyle().
		Width(tileWidth).
		Height(tileHeight).
		Align(lipgloss.Center, lipgloss.Center).
		Bold(true).
		Foreground(fg).
		Background(bg)
}

// RenderBoard draws the grid. The spawned tile, if any, is underlined.
func RenderBoard(g engine.Grid, spawned *engine.Tile) string {
	rows := make([]string, 0, engine.Size)
	for r := range engine.Size {
		cells := make([]string, 0, engine.Size*2)
		for c := range engine.Size {
			if c > 0 {
				cells = append(cells, " ")
			}
			v := g.At(r, c)
			if v == engine.Empty {
				cells = append(cells, emptyTileStyle.Render(""))
				continue
			}
			style := tileStyle(v)
			if spawned != nil && spawned.Row == r && spawned.Col == c {
				style = style.Underline(true)
			}
			cells = append(cells, style.Render(strconv.Itoa(v)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return boardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// RenderStatus returns the win/lose banner, or an empty string while playing.
func RenderStatus(s engine.Status) string {
	switch s {
	case engine.Won:
		return wonStyle.Render("You win!")
	case engine.Lost:
		return lostStyle.Render("Game over!")
	default:
		return ""
	}
}

// centerText centers text horizontally within the given width.
func centerText(text string, width int) string {
	var b strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		pad := (width - lipgloss.Width(line)) / 2
		if pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(line)
	}
	return b.String()
}
