// Package engine owns a running snake game: the board state, its lifecycle, the
// timed shield effect and the tick clock that drives it.
//
// An Engine is safe for concurrent use. Commands from input goroutines and ticks
// from the Runner are serialised by one mutex, so every command is applied
// atomically before the next tick observes it.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/brensch/greedysnake/game"
	"github.com/brensch/greedysnake/rules"
)

type Engine struct {
	mu sync.Mutex

	cfg   Config
	clock clockwork.Clock
	log   *slog.Logger
	rng   *rand.Rand

	game    int
	state   *game.GameState
	status  game.Status
	heading game.Direction // direction used by the last advance

	shieldOn    bool
	shieldUntil time.Time
	shieldGen   uint64
	shieldTimer clockwork.Timer

	listeners []Listener
	wake      chan struct{}
}

type Option func(*Engine)

// WithClock replaces the wall clock used for shield expiry and by the Runner.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates a game in the Running state with one food item placed.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	e := &Engine{
		cfg:   cfg,
		clock: clockwork.NewRealClock(),
		log:   slog.New(slog.DiscardHandler),
		wake:  make(chan struct{}, 1),
		game:  1,
	}
	for _, opt := range opts {
		opt(e)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = e.clock.Now().UnixNano()
	}
	e.rng = rand.New(rand.NewSource(seed))

	e.resetLocked()
	e.log.Info("game created",
		"grid", fmt.Sprintf("%dx%d", cfg.Columns, cfg.Rows),
		"base_speed", cfg.BaseSpeed,
		"seed", seed,
	)
	return e, nil
}

// OnEvent registers a listener. Listeners run on the goroutine that caused the
// event: the Runner for ticks, the shield timer for expiry, the caller for commands.
func (e *Engine) OnEvent(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Wake is signalled whenever the tick clock must be re-armed outside a tick:
// after a reset, or when a tick driven by someone else changed the interval.
func (e *Engine) Wake() <-chan struct{} {
	return e.wake
}

func (e *Engine) Clock() clockwork.Clock {
	return e.clock
}

// SetDirection steers the snake for the next tick. It reports whether the pending
// heading changed. Reversals, malformed vectors and commands while the game is
// not running are ignored.
func (e *Engine) SetDirection(d game.Direction) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != game.Running {
		return false
	}
	if d == e.state.Snake.Direction || !rules.CanTurn(e.heading, e.state.Snake.Direction, d) {
		return false
	}
	e.state.Snake.Direction = d
	return true
}

// TogglePause switches between Running and Paused. It is ignored once the game is over.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	var ev Event
	switch e.status {
	case game.Running:
		e.status = game.Paused
		ev.Kind = EventPaused
	case game.Paused:
		e.status = game.Running
		ev.Kind = EventResumed
	default:
		e.mu.Unlock()
		return false
	}
	ev.Snapshot = e.snapshotLocked(e.clock.Now())
	listeners := e.listeners
	e.mu.Unlock()

	e.log.Info("pause toggled", "status", ev.Snapshot.Status.String(), "turn", ev.Snapshot.Turn)
	emit(listeners, ev)
	return true
}

// Reset starts a new game from the creation-time values. It is accepted in any
// state and cancels a pending shield expiry.
func (e *Engine) Reset() {
	e.mu.Lock()
	prevScore := e.state.Score
	e.game++
	e.resetLocked()
	snap := e.snapshotLocked(e.clock.Now())
	listeners := e.listeners
	e.mu.Unlock()

	e.signalWake()
	e.log.Info("game reset", "game", snap.Game, "previous_score", prevScore, "interval", snap.Interval)
	emit(listeners, Event{Kind: EventReset, Snapshot: snap})
}

func (e *Engine) resetLocked() {
	e.stopShieldLocked()
	if e.cfg.Seed != 0 {
		e.rng.Seed(e.cfg.Seed)
	}

	e.state = &game.GameState{
		Grid:      game.Grid{Columns: e.cfg.Columns, Rows: e.cfg.Rows},
		Snake:     game.Snake{Head: e.cfg.Start},
		BaseSpeed: e.cfg.BaseSpeed,
	}
	rules.SpawnFood(e.state, e.rng, e.cfg.Food)
	e.status = game.Running
	e.heading = game.None
}

// Tick advances a running game by one step: move, resolve food, check
// collisions. Paused and finished games are left untouched. It returns the
// status after the step.
func (e *Engine) Tick() game.Status {
	e.mu.Lock()
	if e.status != game.Running {
		st := e.status
		e.mu.Unlock()
		return st
	}

	now := e.clock.Now()
	intervalBefore := rules.TickInterval(e.state.BaseSpeed, e.state.Score)

	res := rules.Step(e.state, e.rng, e.cfg.Food)
	e.heading = e.state.Snake.Direction

	if res.Ate && res.Eaten.Kind == game.FoodShield {
		e.activateShieldLocked(now)
	}

	over := false
	if res.Cause != rules.CauseNone && !e.shieldActiveLocked(now) {
		e.status = game.Over
		e.stopShieldLocked()
		over = true
	}

	snap := e.snapshotLocked(now)
	listeners := e.listeners
	e.mu.Unlock()

	events := make([]Event, 0, 3)
	if res.Ate {
		e.log.Info("food eaten",
			"kind", res.Eaten.Kind.String(),
			"score", snap.Score,
			"level", snap.Level,
			"len", snap.Len(),
		)
		events = append(events, Event{Kind: EventFoodEaten, Snapshot: snap, Food: res.Eaten})
	}
	if snap.Interval != intervalBefore {
		e.log.Debug("tick interval changed", "from", intervalBefore, "to", snap.Interval)
		e.signalWake()
	}
	events = append(events, Event{Kind: EventTick, Snapshot: snap})
	if over {
		e.log.Info("game over", "cause", res.Cause.String(), "final_score", snap.Score, "turn", snap.Turn)
		events = append(events, Event{Kind: EventGameOver, Snapshot: snap, Cause: res.Cause, FinalScore: snap.Score})
	} else if res.Cause != rules.CauseNone {
		e.log.Debug("collision absorbed by shield", "cause", res.Cause.String(), "head", snap.Head.String())
	}

	emit(listeners, events...)
	return snap.Status
}

func (e *Engine) activateShieldLocked(now time.Time) {
	e.stopShieldLocked()
	gen := e.shieldGen
	e.shieldOn = true
	e.shieldUntil = now.Add(e.cfg.ShieldDuration)
	e.shieldTimer = e.clock.AfterFunc(e.cfg.ShieldDuration, func() { e.expireShield(gen) })
}

// stopShieldLocked clears the shield and invalidates any timer already in flight.
func (e *Engine) stopShieldLocked() {
	if e.shieldTimer != nil {
		e.shieldTimer.Stop()
		e.shieldTimer = nil
	}
	e.shieldGen++
	e.shieldOn = false
}

func (e *Engine) expireShield(gen uint64) {
	e.mu.Lock()
	if gen != e.shieldGen || !e.shieldOn {
		e.mu.Unlock()
		return
	}
	e.shieldOn = false
	e.shieldTimer = nil
	e.shieldGen++
	snap := e.snapshotLocked(e.shieldUntil)
	listeners := e.listeners
	e.mu.Unlock()

	e.log.Info("shield expired", "turn", snap.Turn)
	emit(listeners, Event{Kind: EventShieldExpired, Snapshot: snap})
}

func (e *Engine) shieldActiveLocked(now time.Time) bool {
	return e.shieldOn && now.Before(e.shieldUntil)
}

func (e *Engine) signalWake() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(e.clock.Now())
}

func (e *Engine) snapshotLocked(now time.Time) Snapshot {
	s := e.state
	snap := Snapshot{
		Game:      e.game,
		Turn:      s.Turn,
		Grid:      s.Grid,
		Head:      s.Snake.Head,
		Direction: s.Snake.Direction,
		Food:      s.Food,
		Score:     s.Score,
		BaseSpeed: s.BaseSpeed,
		Level:     rules.SpeedLevel(s.BaseSpeed, s.Score),
		Interval:  rules.TickInterval(s.BaseSpeed, s.Score),
		Status:    e.status,
	}
	if len(s.Snake.Body) > 0 {
		snap.Body = make([]game.Point, len(s.Snake.Body))
		copy(snap.Body, s.Snake.Body)
	}
	if e.shieldActiveLocked(now) {
		snap.ShieldActive = true
		snap.ShieldRemaining = e.shieldUntil.Sub(now)
	}
	return snap
}

// Interval is the current tick period derived from base speed and score.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return rules.TickInterval(e.state.BaseSpeed, e.state.Score)
}

func (e *Engine) Status() game.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Score
}

// SpeedLevel is the current tick rate in ticks per second.
func (e *Engine) SpeedLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return rules.SpeedLevel(e.state.BaseSpeed, e.state.Score)
}

func (e *Engine) ShieldActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shieldActiveLocked(e.clock.Now())
}

// State returns a deep copy of the board for planners such as the autopilot.
func (e *Engine) State() *game.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func emit(listeners []Listener, events ...Event) {
	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}
