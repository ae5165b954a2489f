package engine

import (
	"math"

	"github.com/brensch/greedysnake/game"
)

// DirectionForKey maps an input key name to a heading. Terminal key names
// ("w", "up"), browser key codes ("KeyW", "ArrowUp") and swipe names are accepted.
// Anything else is reported as not a direction.
func DirectionForKey(key string) (game.Direction, bool) {
	switch key {
	case "w", "W", "up", "KeyW", "ArrowUp", "swipe-up":
		return game.Up, true
	case "s", "S", "down", "KeyS", "ArrowDown", "swipe-down":
		return game.Down, true
	case "a", "A", "left", "KeyA", "ArrowLeft", "swipe-left":
		return game.Left, true
	case "d", "D", "right", "KeyD", "ArrowRight", "swipe-right":
		return game.Right, true
	default:
		return game.None, false
	}
}

// SwipeDirection turns a drag delta into a heading along its dominant axis.
// Screen coordinates are assumed: positive dy points down. A zero delta is no swipe.
func SwipeDirection(dx, dy float64) (game.Direction, bool) {
	if dx == 0 && dy == 0 {
		return game.None, false
	}
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return game.Right, true
		}
		return game.Left, true
	}
	if dy > 0 {
		return game.Down, true
	}
	return game.Up, true
}

