// Package game defines the core state types for a single-player grid snake game.
//
// These types carry no behaviour beyond small geometric helpers; the rules that
// advance them live in package rules and the simulation instance that owns them
// lives in package engine. The state is designed to be cheaply clonable so that
// snapshots handed to collaborators never alias the live simulation.
package game

import "fmt"

// Point is a board coordinate in cell units.
// (0,0) is the top-left cell; X grows to the right and Y grows downward.
type Point struct {
	X int32
	Y int32
}

// Add returns p moved one step along d.
func (p Point) Add(d Direction) Point {
	return Point{X: p.X + d.DX, Y: p.Y + d.DY}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is a unit step on the grid. The zero value is None, the heading of a
// snake that has not been given a command yet.
type Direction struct {
	DX int32
	DY int32
}

var (
	None  = Direction{}
	Up    = Direction{DX: 0, DY: -1}
	Down  = Direction{DX: 0, DY: 1}
	Left  = Direction{DX: -1, DY: 0}
	Right = Direction{DX: 1, DY: 0}
)

// Directions lists the four steerable headings in a stable order.
var Directions = [4]Direction{Up, Down, Left, Right}

// Opposite returns the 180° reversal of d. None is its own opposite.
func (d Direction) Opposite() Direction {
	return Direction{DX: -d.DX, DY: -d.DY}
}

// Valid reports whether d is one of the four unit headings.
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	default:
		return false
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case None:
		return "none"
	default:
		return fmt.Sprintf("dir(%d,%d)", d.DX, d.DY)
	}
}

// Grid is the fixed playing field.
type Grid struct {
	Columns int32
	Rows    int32
}

// Contains reports whether p lies inside [0,Columns) x [0,Rows).
func (g Grid) Contains(p Point) bool {
	return p.X >= 0 && p.X < g.Columns && p.Y >= 0 && p.Y < g.Rows
}

// Cells is the number of cells on the grid.
func (g Grid) Cells() int {
	return int(g.Columns) * int(g.Rows)
}

// FoodKind tags the single food entity on the board.
type FoodKind uint8

const (
	FoodNormal FoodKind = iota
	FoodSpeed
	FoodDouble
	FoodShield
)

// SpecialKinds are the bonus variants, in the order the spawner draws from.
var SpecialKinds = [3]FoodKind{FoodSpeed, FoodDouble, FoodShield}

// Special reports whether k is one of the bonus variants.
func (k FoodKind) Special() bool {
	return k != FoodNormal
}

func (k FoodKind) String() string {
	switch k {
	case FoodNormal:
		return "normal"
	case FoodSpeed:
		return "speed"
	case FoodDouble:
		return "double"
	case FoodShield:
		return "shield"
	default:
		return fmt.Sprintf("food(%d)", uint8(k))
	}
}

// Food is the one consumable on the board. Normal and special food share the
// slot, so there is never more than one of them.
type Food struct {
	Kind FoodKind
	Pos  Point
}

// Snake is the player's body. Body[0] is the segment directly behind Head and the
// last element is the tail. Direction is the heading that the next advance uses.
type Snake struct {
	Head      Point
	Body      []Point
	Direction Direction
}

// Len is the number of cells the snake covers, head included.
func (s *Snake) Len() int {
	return len(s.Body) + 1
}

// Occupies reports whether p is the head or any body segment.
func (s *Snake) Occupies(p Point) bool {
	if s.Head == p {
		return true
	}
	for _, b := range s.Body {
		if b == p {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a game.
type Status uint8

const (
	Running Status = iota
	Paused
	Over
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Over:
		return "over"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// GameState is the mutable board state advanced by the rules each tick.
// BaseSpeed is the ticks-per-second floor before score levels are added; speed
// food raises it for the rest of the game.
type GameState struct {
	Grid      Grid
	Snake     Snake
	Food      Food
	Score     int
	BaseSpeed int
	Turn      int64
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := *s
	if len(s.Snake.Body) > 0 {
		out.Snake.Body = make([]Point, len(s.Snake.Body))
		copy(out.Snake.Body, s.Snake.Body)
	} else {
		out.Snake.Body = nil
	}
	return &out
}
