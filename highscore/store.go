// Package highscore keeps the best finished-game scores on disk.
package highscore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/brensch/greedysnake/engine"
)

// MaxEntries is the size of the score board.
const MaxEntries = 5

var ErrEmptyPath = errors.New("highscore path is required")

// Store is a top-N score list backed by a small JSON file.
//
// The whole file is rewritten on every accepted score through a temp file and a
// rename, so a reader never sees a half-written board. A missing file is an empty
// board. A corrupt file is reported by Open rather than silently replaced.
//
// Format: {"scores":[12,9,4]}
type Store struct {
	mu     sync.RWMutex
	path   string
	scores []int
}

type fileFormat struct {
	Scores []int `json:"scores"`
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	s := &Store{path: path}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read highscores: %w", err)
	}

	var f fileFormat
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode highscores %s: %w", path, err)
	}
	for _, v := range f.Scores {
		if v > 0 {
			s.scores = append(s.scores, v)
		}
	}
	slices.SortFunc(s.scores, descending)
	if len(s.scores) > MaxEntries {
		s.scores = s.scores[:MaxEntries]
	}
	return s, nil
}

func descending(a, b int) int { return b - a }

func (s *Store) Path() string { return s.path }

// Qualifies reports whether Save would accept score.
func (s *Store) Qualifies(score int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.qualifiesLocked(score)
}

func (s *Store) qualifiesLocked(score int) bool {
	if score <= 0 {
		return false
	}
	if len(s.scores) < MaxEntries {
		return true
	}
	return score > s.scores[len(s.scores)-1]
}

// Save records score if it makes the board and persists the board. It reports
// whether the score was accepted.
func (s *Store) Save(score int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.qualifiesLocked(score) {
		return false, nil
	}

	next := append(slices.Clone(s.scores), score)
	slices.SortFunc(next, descending)
	if len(next) > MaxEntries {
		next = next[:MaxEntries]
	}
	if err := writeAtomic(s.path, next); err != nil {
		return false, err
	}
	s.scores = next
	return true, nil
}

// Top returns the board, best first.
func (s *Store) Top() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.scores)
}

// Best is the highest stored score, or 0 for an empty board.
func (s *Store) Best() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.scores) == 0 {
		return 0
	}
	return s.scores[0]
}

// IsHighlight reports whether score is above every stored score, so a frontend
// can mark a running score that is on its way to a new best.
func (s *Store) IsHighlight(score int) bool {
	return score > s.Best()
}

// Listener saves the final score of every finished game. Failures are passed to
// onErr, which may be nil.
func (s *Store) Listener(onErr func(error)) engine.Listener {
	return func(ev engine.Event) {
		if ev.Kind != engine.EventGameOver {
			return
		}
		if _, err := s.Save(ev.FinalScore); err != nil && onErr != nil {
			onErr(err)
		}
	}
}

func writeAtomic(path string, scores []int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create highscore dir: %w", err)
	}

	b, err := json.Marshal(fileFormat{Scores: scores})
	if err != nil {
		return fmt.Errorf("encode highscores: %w", err)
	}

	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)
	if err := os.WriteFile(tmpPath, b, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write highscores: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename highscores: %w", err)
	}
	return nil
}
