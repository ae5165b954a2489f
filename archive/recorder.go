package archive

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/brensch/greedysnake/engine"
	"github.com/brensch/greedysnake/game"
)

// Recorder buffers the rows of the game in progress and writes them to outDir
// when the game ends. A game abandoned by a reset is written too, as long as it
// advanced at least once.
//
// Writes happen on the goroutine that delivered the ending event, normally the
// Runner. Games are short, so one file per game stays small.
type Recorder struct {
	mu     sync.Mutex
	outDir string
	log    *slog.Logger

	game   int
	gameID string
	rows   []TurnRow
	paths  []string

	newID func() string
}

func NewRecorder(outDir string, log *slog.Logger) (*Recorder, error) {
	if outDir == "" {
		return nil, fmt.Errorf("archive dir is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Recorder{
		outDir: outDir,
		log:    log,
		newID:  uuid.NewString,
	}, nil
}

// Attach records the current board of e as turn 0 and subscribes to its events.
// Call it before the engine starts ticking.
func (r *Recorder) Attach(e *engine.Engine) {
	r.mu.Lock()
	r.beginLocked(e.Snapshot())
	r.mu.Unlock()
	e.OnEvent(r.Handle)
}

// Handle is the engine listener.
func (r *Recorder) Handle(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Listeners run after the engine unlocks, so a tick of the previous game can
	// arrive after the reset that ended it.
	if ev.Snapshot.Game < r.game {
		return
	}

	switch ev.Kind {
	case engine.EventTick:
		if ev.Snapshot.Game != r.game {
			return
		}
		if r.gameID == "" {
			r.gameID = r.newID()
		}
		r.rows = append(r.rows, RowFromSnapshot(r.gameID, ev.Snapshot))
	case engine.EventGameOver:
		if ev.Snapshot.Game != r.game {
			return
		}
		r.flushLocked()
	case engine.EventReset:
		r.flushLocked()
		r.beginLocked(ev.Snapshot)
	}
}

// Flush writes the game in progress, if it has advanced. Use it on shutdown.
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

// GameID is the archive ID of the game being recorded.
func (r *Recorder) GameID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameID
}

// Written lists the files written so far, oldest first.
func (r *Recorder) Written() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *Recorder) beginLocked(s engine.Snapshot) {
	r.game = s.Game
	r.gameID = r.newID()
	r.rows = r.rows[:0]
	r.rows = append(r.rows, RowFromSnapshot(r.gameID, s))
}

func (r *Recorder) flushLocked() {
	if !r.advancedLocked() {
		r.rows = r.rows[:0]
		return
	}

	path, err := WriteGameParquetAtomic(r.outDir, r.rows)
	switch {
	case errors.Is(err, ErrNoRows):
	case err != nil:
		r.log.Error("archive game", "game_id", r.gameID, "error", err)
	default:
		last := r.rows[len(r.rows)-1]
		r.log.Info("game archived",
			"game_id", r.gameID,
			"path", path,
			"turns", last.Turn,
			"score", last.Score,
		)
		r.paths = append(r.paths, path)
	}

	// The ID is spent; a later tick without a reset starts a fresh one.
	r.rows = nil
	r.gameID = ""
}

func (r *Recorder) advancedLocked() bool {
	for _, row := range r.rows {
		if row.Turn > 0 {
			return true
		}
	}
	return false
}

// Replay feeds every stored board to visit in turn order, stopping early when
// visit returns false.
func Replay(rows []TurnRow, visit func(row TurnRow, st *game.GameState) bool) {
	for _, row := range rows {
		if !visit(row, row.State()) {
			return
		}
	}
}
