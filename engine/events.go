package engine

import (
	"time"

	"github.com/brensch/greedysnake/game"
	"github.com/brensch/greedysnake/rules"
)

type EventKind uint8

const (
	EventTick EventKind = iota
	EventFoodEaten
	EventShieldExpired
	EventGameOver
	EventReset
	EventPaused
	EventResumed
)

func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventFoodEaten:
		return "food_eaten"
	case EventShieldExpired:
		return "shield_expired"
	case EventGameOver:
		return "game_over"
	case EventReset:
		return "reset"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners after the engine lock is released, so a
// listener may call back into the engine.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot

	// Food is the item consumed (EventFoodEaten).
	Food game.Food
	// Cause and FinalScore are set on EventGameOver.
	Cause      rules.Cause
	FinalScore int
}

// Listener receives engine events in the order they happened.
type Listener func(Event)

// Snapshot is a read-only copy of everything a renderer or score board needs.
// Coordinates are grid cells.
type Snapshot struct {
	Game      int // 1 for the first game, incremented by every reset
	Turn      int64
	Grid      game.Grid
	Head      game.Point
	Body      []game.Point
	Direction game.Direction
	Food      game.Food
	Score     int
	BaseSpeed int
	Level     int
	Interval  time.Duration
	Status    game.Status

	ShieldActive    bool
	ShieldRemaining time.Duration
}

// Len is the number of cells covered by the snake.
func (s Snapshot) Len() int {
	return len(s.Body) + 1
}
