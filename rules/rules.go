package rules

import (
	"math/rand"
	"time"

	"github.com/brensch/greedysnake/game"
)

const (
	NormalPoints  = 1
	SpecialPoints = 2

	// SpeedBoost is added to the base speed, permanently, by speed food.
	SpeedBoost = 2

	// ScorePerLevel is the number of points between speed levels.
	ScorePerLevel = 5
)

// Cause explains why a tick ended the game.
type Cause uint8

const (
	CauseNone Cause = iota
	CauseWall
	CauseSelf
)

func (c Cause) String() string {
	switch c {
	case CauseWall:
		return "wall"
	case CauseSelf:
		return "self"
	default:
		return "none"
	}
}

// CanTurn reports whether requested may replace the pending heading.
// heading is the direction used by the last advance. A request is rejected if it
// is not a unit step or if it reverses either the pending or the last heading.
func CanTurn(heading, pending, requested game.Direction) bool {
	if !requested.Valid() {
		return false
	}
	if pending != game.None && requested == pending.Opposite() {
		return false
	}
	if heading != game.None && requested == heading.Opposite() {
		return false
	}
	return true
}

// Advance shifts every body segment into its predecessor's cell, then moves the
// head one step along the snake's direction. It returns the cell the tail left
// behind, which is where grown segments are stacked.
func Advance(s *game.Snake) game.Point {
	vacated := s.Head
	if n := len(s.Body); n > 0 {
		vacated = s.Body[n-1]
		for i := n - 1; i > 0; i-- {
			s.Body[i] = s.Body[i-1]
		}
		s.Body[0] = s.Head
	}
	s.Head = s.Head.Add(s.Direction)
	return vacated
}

// Grow appends n segments stacked on at. Each later advance unfolds one of them.
func Grow(s *game.Snake, at game.Point, n int) {
	for i := 0; i < n; i++ {
		s.Body = append(s.Body, at)
	}
}

// CheckCollision reports whether the head is outside the grid or on the body.
// Shield handling belongs to the caller: the rules only describe the board.
func CheckCollision(state *game.GameState) Cause {
	head := state.Snake.Head
	if !state.Grid.Contains(head) {
		return CauseWall
	}
	for _, p := range state.Snake.Body {
		if p == head {
			return CauseSelf
		}
	}
	return CauseNone
}

// SafeMoves returns the headings that neither reverse the snake nor put the head
// outside the grid or onto a body segment that will still be there after the move.
func SafeMoves(state *game.GameState) []game.Direction {
	s := &state.Snake
	moves := make([]game.Direction, 0, 4)
	for _, d := range game.Directions {
		if s.Direction != game.None && d == s.Direction.Opposite() {
			continue
		}
		if isSafe(state, s.Head.Add(d)) {
			moves = append(moves, d)
		}
	}
	return moves
}

func isSafe(state *game.GameState, p game.Point) bool {
	// 1. Check Bounds
	if !state.Grid.Contains(p) {
		return false
	}

	// 2. Check body. The tail moves away this tick unless segments are stacked on it.
	body := state.Snake.Body
	n := len(body)
	for i, bp := range body {
		if bp != p {
			continue
		}
		if i == n-1 && (n < 2 || body[n-2] != bp) {
			continue
		}
		return false
	}
	return true
}

// SpeedLevel is the tick rate, in ticks per second, for the given base speed and score.
func SpeedLevel(baseSpeed, score int) int {
	level := baseSpeed + score/ScorePerLevel
	if level < 1 {
		return 1
	}
	return level
}

// TickInterval converts the speed level into the period of the tick clock.
func TickInterval(baseSpeed, score int) time.Duration {
	return time.Second / time.Duration(SpeedLevel(baseSpeed, score))
}

// StepResult describes what a single tick did to the board.
type StepResult struct {
	Ate     bool
	Eaten   game.Food
	Vacated game.Point
	Cause   Cause
}

// Step advances the state by one tick in place: move, resolve food, detect
// collisions. The collision is reported, not acted on, because only the owner of
// the shield timer can decide whether it is fatal.
func Step(state *game.GameState, rng *rand.Rand, settings FoodSettings) StepResult {
	state.Turn++

	res := StepResult{Vacated: Advance(&state.Snake)}

	if state.Snake.Head == state.Food.Pos {
		res.Ate = true
		res.Eaten = state.Food
		Consume(state, state.Food, res.Vacated)
		SpawnFood(state, rng, settings)
	}

	res.Cause = CheckCollision(state)
	return res
}

// Consume applies the score and growth effects of eating f. The shield effect is
// timed, so it is left to the caller.
func Consume(state *game.GameState, f game.Food, vacated game.Point) {
	switch f.Kind {
	case game.FoodNormal:
		state.Score += NormalPoints
		Grow(&state.Snake, vacated, 1)
	case game.FoodSpeed:
		state.Score += SpecialPoints
		state.BaseSpeed += SpeedBoost
	case game.FoodDouble:
		state.Score += SpecialPoints
		Grow(&state.Snake, vacated, 2)
	case game.FoodShield:
		state.Score += SpecialPoints
	}
}
