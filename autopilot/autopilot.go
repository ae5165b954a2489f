// Package autopilot steers a snake without a player: greedy toward the food,
// never into a wall or its own body when a safe move exists.
package autopilot

import (
	"github.com/brensch/greedysnake/engine"
	"github.com/brensch/greedysnake/game"
	"github.com/brensch/greedysnake/rules"
)

// Choose picks the next heading for state.
//
// Candidates are the safe moves. A move that leaves at least as much open room as
// the snake is long is preferred over one that walls the snake in; among those the
// move closest to the food (Manhattan distance) wins, ties keep game.Directions
// order. With no safe move the pending heading is kept, unless a shielded head
// is outside the grid, in which case the snake turns back toward it.
func Choose(state *game.GameState) game.Direction {
	moves := rules.SafeMoves(state)
	if len(moves) == 0 && !state.Grid.Contains(state.Snake.Head) {
		return towardGrid(state)
	}
	if len(moves) == 0 {
		if state.Snake.Direction == game.None {
			return game.Up
		}
		return state.Snake.Direction
	}

	need := state.Snake.Len()
	best := moves[0]
	bestRoomy := false
	bestDist := -1
	for _, d := range moves {
		next := state.Snake.Head.Add(d)
		roomy := openArea(state, next, need) >= need
		dist := manhattan(next, state.Food.Pos)

		switch {
		case bestDist < 0:
		case roomy && !bestRoomy:
		case roomy == bestRoomy && dist < bestDist:
		default:
			continue
		}
		best, bestRoomy, bestDist = d, roomy, dist
	}
	return best
}

// towardGrid picks the heading, reversal excluded, that brings an off-grid head
// closest to the board.
func towardGrid(state *game.GameState) game.Direction {
	s := state.Snake
	best, bestDist := s.Direction, -1
	for _, d := range game.Directions {
		if s.Direction != game.None && d == s.Direction.Opposite() {
			continue
		}
		next := s.Head.Add(d)
		dist := manhattan(next, clamp(state.Grid, next))
		if bestDist < 0 || dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

func clamp(g game.Grid, p game.Point) game.Point {
	return game.Point{X: max(0, min(p.X, g.Columns-1)), Y: max(0, min(p.Y, g.Rows-1))}
}

func manhattan(a, b game.Point) int {
	dx := int(a.X - b.X)
	dy := int(a.Y - b.Y)
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// openArea counts the cells reachable from start without crossing the body,
// stopping once limit cells were found.
func openArea(state *game.GameState, start game.Point, limit int) int {
	g := state.Grid
	blocked := make([]bool, g.Cells())
	idx := func(p game.Point) int { return int(p.Y)*int(g.Columns) + int(p.X) }

	// The head and all but the tail stay put for the next move.
	if g.Contains(state.Snake.Head) {
		blocked[idx(state.Snake.Head)] = true
	}
	body := state.Snake.Body
	for i, p := range body {
		if i == len(body)-1 && !(len(body) > 1 && body[i-1] == p) {
			break
		}
		if g.Contains(p) {
			blocked[idx(p)] = true
		}
	}

	if !g.Contains(start) || blocked[idx(start)] {
		return 0
	}

	queue := []game.Point{start}
	blocked[idx(start)] = true
	count := 0
	for len(queue) > 0 && count < limit {
		p := queue[0]
		queue = queue[1:]
		count++
		for _, d := range game.Directions {
			n := p.Add(d)
			if !g.Contains(n) || blocked[idx(n)] {
				continue
			}
			blocked[idx(n)] = true
			queue = append(queue, n)
		}
	}
	return count
}

// Pilot drives an engine on every tick and after every reset.
type Pilot struct {
	eng *engine.Engine
}

// Attach steers e once now and then after each tick and reset.
func Attach(e *engine.Engine) *Pilot {
	p := &Pilot{eng: e}
	p.steer()
	e.OnEvent(p.handle)
	return p
}

func (p *Pilot) handle(ev engine.Event) {
	switch ev.Kind {
	case engine.EventTick, engine.EventReset, engine.EventResumed:
		if ev.Snapshot.Status == game.Running {
			p.steer()
		}
	}
}

func (p *Pilot) steer() {
	p.eng.SetDirection(Choose(p.eng.State()))
}
