package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/greedysnake/engine"
	"github.com/brensch/greedysnake/game"
)

// Board glyphs. Every cell is two columns wide so the board looks square.
const (
	glyphEmpty  = "· "
	glyphHead   = "@ "
	glyphBody   = "o "
	glyphNormal = "* "
	glyphSpeed  = "> "
	glyphDouble = "$ "
	glyphShield = "+ "
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7CFC00"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
	headStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF87"))
	bodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AF5F"))
	shieldBody  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7FF"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	bestStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700"))
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFAF00"))

	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444"))
	panelStyle = lipgloss.NewStyle().
			Padding(0, 2)
	overStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FF5F5F")).
			Padding(0, 2)

	foodStyles = map[game.FoodKind]lipgloss.Style{
		game.FoodNormal: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
		game.FoodSpeed:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFF00")),
		game.FoodDouble: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF87FF")),
		game.FoodShield: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FD7FF")),
	}
)

func foodGlyph(k game.FoodKind) string {
	switch k {
	case game.FoodSpeed:
		return glyphSpeed
	case game.FoodDouble:
		return glyphDouble
	case game.FoodShield:
		return glyphShield
	default:
		return glyphNormal
	}
}

func (m Model) View() string {
	s := m.snap

	header := m.header(s)
	board := boardStyle.Render(renderBoard(s))
	panel := panelStyle.Render(m.panel(s))
	body := lipgloss.JoinHorizontal(lipgloss.Top, board, panel)

	parts := []string{header, body}
	switch s.Status {
	case game.Paused:
		parts = append(parts, pausedStyle.Render("PAUSED  (p to resume)"))
	case game.Over:
		parts = append(parts, m.gameOver())
	}
	parts = append(parts, helpStyle.Render("w/a/s/d or arrows: steer · p/space: pause · r: restart · q: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m Model) header(s engine.Snapshot) string {
	title := "GREEDY SNAKE"
	if m.autopilot {
		title += " (autopilot)"
	}
	fields := []string{
		titleStyle.Render(title),
		labelStyle.Render("Score ") + m.scoreValue(s),
		labelStyle.Render("Lv ") + valueStyle.Render(fmt.Sprint(s.Level)),
		labelStyle.Render("Len ") + valueStyle.Render(fmt.Sprint(s.Len())),
	}
	if s.ShieldActive {
		fields = append(fields, foodStyles[game.FoodShield].Render("Shield "+formatRemaining(s.ShieldRemaining)))
	}
	return strings.Join(fields, "   ")
}

// scoreValue marks the running score once it is above every stored score.
func (m Model) scoreValue(s engine.Snapshot) string {
	v := fmt.Sprint(s.Score)
	if s.Status != game.Over && m.scores != nil && m.scores.IsHighlight(s.Score) {
		return bestStyle.Render(v + " ★")
	}
	return valueStyle.Render(v)
}

// formatRemaining shows whole tenths, rounded up so the counter never reads
// 0.0s while the shield still holds.
func formatRemaining(d time.Duration) string {
	tenths := (d + 100*time.Millisecond - 1) / (100 * time.Millisecond)
	return fmt.Sprintf("%d.%ds", tenths/10, tenths%10)
}

func renderBoard(s engine.Snapshot) string {
	cols, rows := int(s.Grid.Columns), int(s.Grid.Rows)
	cells := make([][]string, rows)
	for y := range cells {
		cells[y] = make([]string, cols)
		for x := range cells[y] {
			cells[y][x] = emptyStyle.Render(glyphEmpty)
		}
	}
	put := func(p game.Point, v string) {
		if s.Grid.Contains(p) {
			cells[p.Y][p.X] = v
		}
	}

	put(s.Food.Pos, foodStyles[s.Food.Kind].Render(foodGlyph(s.Food.Kind)))
	bs := bodyStyle
	if s.ShieldActive {
		bs = shieldBody
	}
	for _, p := range s.Body {
		put(p, bs.Render(glyphBody))
	}
	put(s.Head, headStyle.Render(glyphHead))

	var sb strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			sb.WriteString(cells[y][x])
		}
		if y < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (m Model) panel(s engine.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("TOP SCORES"))
	sb.WriteByte('\n')

	var top []int
	if m.scores != nil {
		top = m.scores.Top()
	}
	if len(top) == 0 {
		sb.WriteString(labelStyle.Render("no scores yet"))
		sb.WriteByte('\n')
	}
	// After a game over the entry it set is marked.
	marked := s.Status != game.Over || m.finalScore <= 0
	for i, v := range top {
		line := fmt.Sprintf("%d. %d", i+1, v)
		if !marked && v == m.finalScore {
			line = bestStyle.Render(line + " ★")
			marked = true
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')
	sb.WriteString(labelStyle.Render("Food"))
	sb.WriteByte('\n')
	for _, k := range []game.FoodKind{game.FoodNormal, game.FoodSpeed, game.FoodDouble, game.FoodShield} {
		sb.WriteString(foodStyles[k].Render(foodGlyph(k)))
		sb.WriteString(labelStyle.Render(foodHelp(k)))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(labelStyle.Render(fmt.Sprintf("Game %d · turn %d · %s", s.Game, s.Turn, s.Interval.Round(time.Millisecond))))
	return sb.String()
}

func foodHelp(k game.FoodKind) string {
	switch k {
	case game.FoodSpeed:
		return "+2, faster"
	case game.FoodDouble:
		return "+2, grow 2"
	case game.FoodShield:
		return "+2, shield"
	default:
		return "+1"
	}
}

func (m Model) gameOver() string {
	lines := []string{
		"GAME OVER",
		fmt.Sprintf("Final score: %d", m.finalScore),
	}
	if m.newBest() {
		lines = append(lines, bestStyle.Render("New best!"))
	}
	lines = append(lines, "r to restart · q to quit")
	return overStyle.Render(strings.Join(lines, "\n"))
}
