package engine

import (
	"context"

	"github.com/brensch/greedysnake/game"
)

// Runner is the single scheduled task that ticks an Engine. Its timer is re-armed
// after every tick with the interval read back from the engine, so speed changes
// take effect on the very next period and ticks can never overlap.
type Runner struct {
	eng *Engine
}

func NewRunner(eng *Engine) *Runner {
	return &Runner{eng: eng}
}

// Run ticks the engine until ctx is cancelled. While the game is over the timer
// stays disarmed; a reset wakes the runner and restarts it at the initial interval.
func (r *Runner) Run(ctx context.Context) error {
	clock := r.eng.Clock()
	timer := clock.NewTimer(r.eng.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-r.eng.Wake():
			timer.Stop()
			if r.eng.Status() != game.Over {
				timer.Reset(r.eng.Interval())
			}

		case <-timer.Chan():
			r.eng.Tick()
			// Our own tick already re-reads the interval below.
			select {
			case <-r.eng.Wake():
			default:
			}
			if r.eng.Status() != game.Over {
				timer.Reset(r.eng.Interval())
			}
		}
	}
}
