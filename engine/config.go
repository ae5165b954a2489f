package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/brensch/greedysnake/game"
	"github.com/brensch/greedysnake/rules"
)

// Config holds the creation-time values of a game. Reset restores exactly these.
type Config struct {
	Columns        int32
	Rows           int32
	Start          game.Point
	BaseSpeed      int           // ticks per second at score 0
	ShieldDuration time.Duration // how long shield food protects the snake
	Food           rules.FoodSettings

	// Seed fixes the food sequence. Zero seeds from the clock once at creation;
	// any other value also reseeds on every reset so each game replays the same food.
	Seed int64
}

// DefaultConfig returns the classic 17x17 board.
func DefaultConfig() Config {
	return Config{
		Columns:        17,
		Rows:           17,
		Start:          game.Point{X: 5, Y: 5},
		BaseSpeed:      8,
		ShieldDuration: 5 * time.Second,
		Food:           rules.DefaultFoodSettings,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Columns <= 0 || c.Rows <= 0 {
		errs = append(errs, fmt.Errorf("grid must be positive, got %dx%d", c.Columns, c.Rows))
	}
	grid := game.Grid{Columns: c.Columns, Rows: c.Rows}
	if !grid.Contains(c.Start) {
		errs = append(errs, fmt.Errorf("start %v is outside the %dx%d grid", c.Start, c.Columns, c.Rows))
	}
	if c.BaseSpeed <= 0 {
		errs = append(errs, fmt.Errorf("base speed must be positive, got %d", c.BaseSpeed))
	}
	if c.ShieldDuration <= 0 {
		errs = append(errs, fmt.Errorf("shield duration must be positive, got %s", c.ShieldDuration))
	}
	if c.Food.SpecialChance < 0 || c.Food.SpecialChance > 100 {
		errs = append(errs, fmt.Errorf("special food chance must be in [0,100], got %d", c.Food.SpecialChance))
	}
	return errors.Join(errs...)
}
