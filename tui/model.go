// Package tui is the terminal frontend: it turns key presses and mouse drags
// into engine commands and renders engine snapshots with lipgloss.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/greedysnake/engine"
	"github.com/brensch/greedysnake/game"
)

// Controller is the part of the engine the frontend drives.
type Controller interface {
	SetDirection(d game.Direction) bool
	TogglePause() bool
	Reset()
	Snapshot() engine.Snapshot
}

// ScoreBoard is read on every frame to draw the top scores.
type ScoreBoard interface {
	Top() []int
	Best() int
	IsHighlight(score int) bool
}

// FrameMsg carries one engine event into the bubbletea loop.
type FrameMsg engine.Event

// RefreshMsg redraws from a fresh snapshot so the shield countdown keeps moving
// between ticks.
type RefreshMsg time.Time

const refreshEvery = 100 * time.Millisecond

// FrameListener forwards engine events into frames without ever blocking the
// engine. A dropped frame is made up for by the next refresh.
func FrameListener(frames chan<- engine.Event) engine.Listener {
	return func(ev engine.Event) {
		select {
		case frames <- ev:
		default:
		}
	}
}

type Model struct {
	ctl    Controller
	scores ScoreBoard
	frames <-chan engine.Event

	snap       engine.Snapshot
	finalScore int
	bestBefore int // best stored score when the current game started
	autopilot  bool

	dragging bool
	dragX    int
	dragY    int
	width    int
	height   int
}

// NewModel builds the frontend. scores may be nil.
func NewModel(ctl Controller, scores ScoreBoard, frames <-chan engine.Event) Model {
	m := Model{
		ctl:    ctl,
		scores: scores,
		frames: frames,
	}
	m.setSnapshot(ctl.Snapshot())
	return m
}

// WithAutopilot marks the game as steered by the autopilot in the header.
func (m Model) WithAutopilot(on bool) Model {
	m.autopilot = on
	return m
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return RefreshMsg(t)
	})
}

func waitForFrame(frames <-chan engine.Event) tea.Cmd {
	if frames == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-frames
		if !ok {
			return nil
		}
		return FrameMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForFrame(m.frames), refreshCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case FrameMsg:
		m.apply(engine.Event(msg))
		return m, waitForFrame(m.frames)
	case RefreshMsg:
		m.apply(engine.Event{Kind: engine.EventTick, Snapshot: m.ctl.Snapshot()})
		return m, refreshCmd()
	}
	return m, nil
}

func (m *Model) apply(ev engine.Event) {
	// Events may arrive late; never move back to an earlier game or turn.
	if ev.Snapshot.Game < m.snap.Game {
		return
	}
	if ev.Snapshot.Game == m.snap.Game && ev.Snapshot.Turn < m.snap.Turn {
		return
	}
	m.setSnapshot(ev.Snapshot)
	if ev.Kind == engine.EventGameOver {
		m.finalScore = ev.FinalScore
	}
	if m.snap.Status == game.Over {
		m.finalScore = m.snap.Score
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "p", " ":
		m.ctl.TogglePause()
	case "r":
		m.ctl.Reset()
	default:
		d, ok := engine.DirectionForKey(key)
		if !ok {
			return m, nil
		}
		m.ctl.SetDirection(d)
	}
	m.setSnapshot(m.ctl.Snapshot())
	return m, nil
}

func (m *Model) setSnapshot(s engine.Snapshot) {
	if s.Game != m.snap.Game {
		m.finalScore = 0
		if m.scores != nil {
			m.bestBefore = m.scores.Best()
		}
	}
	m.snap = s
}

// newBest reports whether the finished game beat every score stored before it.
func (m Model) newBest() bool {
	return m.scores != nil && m.finalScore > m.bestBefore
}

// handleMouse turns a drag started with the left button into a swipe. Cells
// are drawn two columns wide, so horizontal travel is halved.
func (m Model) handleMouse(msg tea.MouseMsg) Model {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m
		}
		m.dragging = true
		m.dragX, m.dragY = msg.X, msg.Y
	case tea.MouseActionRelease:
		if !m.dragging {
			return m
		}
		m.dragging = false
		dx := float64(msg.X-m.dragX) / 2
		dy := float64(msg.Y - m.dragY)
		if d, ok := engine.SwipeDirection(dx, dy); ok {
			m.ctl.SetDirection(d)
			m.snap = m.ctl.Snapshot()
		}
	}
	return m
}

// Snapshot is the frame currently on screen.
func (m Model) Snapshot() engine.Snapshot {
	return m.snap
}
