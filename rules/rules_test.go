package rules

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brensch/greedysnake/game"
)

func dumpState(state *game.GameState) string {
	if state == nil {
		return "<nil state>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Turn=%d Size=%dx%d Score=%d BaseSpeed=%d\n", state.Turn, state.Grid.Columns, state.Grid.Rows, state.Score, state.BaseSpeed)
	fmt.Fprintf(&b, "Food: %s %v\n", state.Food.Kind, state.Food.Pos)
	fmt.Fprintf(&b, "Snake Dir=%s Head=%v Len=%d Body:", state.Snake.Direction, state.Snake.Head, state.Snake.Len())
	for _, p := range state.Snake.Body {
		fmt.Fprintf(&b, " %v", p)
	}
	b.WriteString("\n")

	// Simple board view, row 0 first.
	w, h := int(state.Grid.Columns), int(state.Grid.Rows)
	if w > 0 && h > 0 && w <= 40 && h <= 40 {
		occ := make(map[game.Point]int, len(state.Snake.Body))
		for _, p := range state.Snake.Body {
			occ[p]++
		}

		b.WriteString("Board:\n")
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p := game.Point{X: int32(x), Y: int32(y)}
				switch {
				case p == state.Snake.Head:
					b.WriteByte('H')
				case p == state.Food.Pos && occ[p] > 0:
					b.WriteByte('*')
				case p == state.Food.Pos && state.Food.Kind.Special():
					b.WriteByte('S')
				case p == state.Food.Pos:
					b.WriteByte('F')
				case occ[p] > 0:
					c := occ[p]
					if c > 9 {
						c = 9
					}
					b.WriteByte(byte('0' + c))
				default:
					b.WriteByte('.')
				}
			}
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func logStep(t *testing.T, name string, before *game.GameState, after *game.GameState, res StepResult) {
	t.Helper()
	t.Logf("=== %s ===\nBefore:\n%sResult: ate=%v eaten=%s cause=%s\nAfter:\n%s", name, dumpState(before), res.Ate, res.Eaten.Kind, res.Cause, dumpState(after))
}

var noSpecials = FoodSettings{SpecialChance: 0}

func assertBody(t *testing.T, got, want []game.Point) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("body len=%d want=%d (got %v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("body[%d]=%v want=%v", i, got[i], want[i])
		}
	}
}

func TestCanTurn_RejectsReversal(t *testing.T) {
	for _, d := range game.Directions {
		if CanTurn(d, d, d.Opposite()) {
			t.Errorf("reversal %s -> %s accepted", d, d.Opposite())
		}
		// Reversal of the last advanced heading is rejected even if another turn is pending.
		for _, pending := range game.Directions {
			if pending == d.Opposite() {
				continue
			}
			if CanTurn(d, pending, d.Opposite()) {
				t.Errorf("heading=%s pending=%s: reversal accepted", d, pending)
			}
		}
	}
}

func TestCanTurn_FromRestAcceptsAnyHeading(t *testing.T) {
	for _, d := range game.Directions {
		if !CanTurn(game.None, game.None, d) {
			t.Errorf("from rest: %s rejected", d)
		}
	}
}

func TestCanTurn_RejectsMalformedVectors(t *testing.T) {
	bad := []game.Direction{game.None, {DX: 1, DY: 1}, {DX: 2, DY: 0}, {DX: 0, DY: -3}}
	for _, d := range bad {
		if CanTurn(game.Right, game.Right, d) {
			t.Errorf("malformed %v accepted", d)
		}
	}
}

func TestAdvance_ShiftsBodyAndMovesHead(t *testing.T) {
	s := game.Snake{
		Head:      game.Point{X: 3, Y: 3},
		Body:      []game.Point{{X: 3, Y: 4}, {X: 3, Y: 5}},
		Direction: game.Up,
	}

	vacated := Advance(&s)

	if s.Head != (game.Point{X: 3, Y: 2}) {
		t.Fatalf("head=%v want=(3,2)", s.Head)
	}
	assertBody(t, s.Body, []game.Point{{X: 3, Y: 3}, {X: 3, Y: 4}})
	if vacated != (game.Point{X: 3, Y: 5}) {
		t.Fatalf("vacated=%v want=(3,5)", vacated)
	}
}

func TestAdvance_HeadOnlyVacatesHeadCell(t *testing.T) {
	s := game.Snake{Head: game.Point{X: 5, Y: 5}, Direction: game.Right}
	vacated := Advance(&s)
	if vacated != (game.Point{X: 5, Y: 5}) || s.Head != (game.Point{X: 6, Y: 5}) {
		t.Fatalf("vacated=%v head=%v", vacated, s.Head)
	}
	if len(s.Body) != 0 {
		t.Fatalf("body=%v want empty", s.Body)
	}
}

func TestStep_NormalMove_NoFood(t *testing.T) {
	before := &game.GameState{
		Grid: game.Grid{Columns: 7, Rows: 7},
		Snake: game.Snake{
			Head:      game.Point{X: 3, Y: 3},
			Body:      []game.Point{{X: 3, Y: 4}, {X: 3, Y: 5}},
			Direction: game.Up,
		},
		Food:      game.Food{Pos: game.Point{X: 0, Y: 0}},
		BaseSpeed: 8,
	}

	after := before.Clone()
	res := Step(after, nil, noSpecials)
	logStep(t, "Step normal move", before, after, res)

	if res.Ate || res.Cause != CauseNone {
		t.Fatalf("ate=%v cause=%s", res.Ate, res.Cause)
	}
	assertBody(t, after.Snake.Body, []game.Point{{X: 3, Y: 3}, {X: 3, Y: 4}})
	if after.Score != 0 || after.Turn != 1 {
		t.Fatalf("score=%d turn=%d", after.Score, after.Turn)
	}
	// The clone must not alias the original body.
	assertBody(t, before.Snake.Body, []game.Point{{X: 3, Y: 4}, {X: 3, Y: 5}})
}

func TestStep_EatNormal_GrowsOnVacatedTail(t *testing.T) {
	before := &game.GameState{
		Grid: game.Grid{Columns: 7, Rows: 7},
		Snake: game.Snake{
			Head:      game.Point{X: 3, Y: 3},
			Body:      []game.Point{{X: 3, Y: 4}, {X: 3, Y: 5}},
			Direction: game.Up,
		},
		Food:      game.Food{Kind: game.FoodNormal, Pos: game.Point{X: 3, Y: 2}},
		BaseSpeed: 8,
	}

	after := before.Clone()
	res := Step(after, nil, noSpecials)
	logStep(t, "Step eat normal", before, after, res)

	if !res.Ate || res.Eaten.Kind != game.FoodNormal {
		t.Fatalf("ate=%v eaten=%s", res.Ate, res.Eaten.Kind)
	}
	if res.Cause != CauseNone {
		t.Fatalf("cause=%s want none", res.Cause)
	}
	assertBody(t, after.Snake.Body, []game.Point{{X: 3, Y: 3}, {X: 3, Y: 4}, {X: 3, Y: 5}})
	if after.Score != 1 {
		t.Fatalf("score=%d want=1", after.Score)
	}
	if after.Snake.Occupies(after.Food.Pos) {
		t.Fatalf("respawned food %v on snake", after.Food.Pos)
	}
}

func TestStep_DoubleFood_UnfoldsOnePerTick(t *testing.T) {
	state := &game.GameState{
		Grid: game.Grid{Columns: 7, Rows: 7},
		Snake: game.Snake{
			Head:      game.Point{X: 3, Y: 3},
			Body:      []game.Point{{X: 3, Y: 4}, {X: 3, Y: 5}},
			Direction: game.Up,
		},
		Food:      game.Food{Kind: game.FoodDouble, Pos: game.Point{X: 3, Y: 2}},
		BaseSpeed: 8,
	}

	res := Step(state, nil, noSpecials)
	if !res.Ate || state.Score != SpecialPoints {
		t.Fatalf("ate=%v score=%d", res.Ate, state.Score)
	}
	assertBody(t, state.Snake.Body, []game.Point{{X: 3, Y: 3}, {X: 3, Y: 4}, {X: 3, Y: 5}, {X: 3, Y: 5}})

	state.Food = game.Food{Pos: game.Point{X: 0, Y: 6}}
	before := state.Clone()
	res = Step(state, nil, noSpecials)
	logStep(t, "Step stacked tail unfolds", before, state, res)

	assertBody(t, state.Snake.Body, []game.Point{{X: 3, Y: 2}, {X: 3, Y: 3}, {X: 3, Y: 4}, {X: 3, Y: 5}})
}

func TestStep_SpeedFood_RaisesBaseSpeedPermanently(t *testing.T) {
	state := &game.GameState{
		Grid:      game.Grid{Columns: 7, Rows: 7},
		Snake:     game.Snake{Head: game.Point{X: 1, Y: 1}, Direction: game.Right},
		Food:      game.Food{Kind: game.FoodSpeed, Pos: game.Point{X: 2, Y: 1}},
		BaseSpeed: 8,
	}

	Step(state, nil, noSpecials)

	if state.BaseSpeed != 8+SpeedBoost {
		t.Fatalf("base speed=%d want=%d", state.BaseSpeed, 8+SpeedBoost)
	}
	if len(state.Snake.Body) != 0 {
		t.Fatalf("speed food must not grow the snake, body=%v", state.Snake.Body)
	}
	if got, want := TickInterval(state.BaseSpeed, state.Score), time.Second/10; got != want {
		t.Fatalf("interval=%v want=%v", got, want)
	}
}

func TestStep_ShieldFood_OnlyScores(t *testing.T) {
	state := &game.GameState{
		Grid:      game.Grid{Columns: 7, Rows: 7},
		Snake:     game.Snake{Head: game.Point{X: 1, Y: 1}, Direction: game.Right},
		Food:      game.Food{Kind: game.FoodShield, Pos: game.Point{X: 2, Y: 1}},
		BaseSpeed: 8,
	}

	res := Step(state, nil, noSpecials)

	if !res.Ate || res.Eaten.Kind != game.FoodShield {
		t.Fatalf("ate=%v eaten=%s", res.Ate, res.Eaten.Kind)
	}
	if state.Score != 2 || state.BaseSpeed != 8 || len(state.Snake.Body) != 0 {
		t.Fatalf("score=%d base=%d body=%v", state.Score, state.BaseSpeed, state.Snake.Body)
	}
}

func TestStep_GrowthMatchesFoodCount(t *testing.T) {
	state := &game.GameState{
		Grid:      game.Grid{Columns: 30, Rows: 3},
		Snake:     game.Snake{Head: game.Point{X: 0, Y: 1}, Direction: game.Right},
		BaseSpeed: 8,
	}

	kinds := []game.FoodKind{game.FoodNormal, game.FoodDouble, game.FoodNormal, game.FoodDouble, game.FoodNormal}
	normals, doubles := 0, 0
	for i, k := range kinds {
		state.Food = game.Food{Kind: k, Pos: state.Snake.Head.Add(game.Right)}
		res := Step(state, nil, noSpecials)
		if !res.Ate || res.Cause != CauseNone {
			t.Fatalf("step %d: ate=%v cause=%s\n%s", i, res.Ate, res.Cause, dumpState(state))
		}
		if k == game.FoodDouble {
			doubles++
		} else {
			normals++
		}
		if want := normals + 2*doubles; len(state.Snake.Body) != want {
			t.Fatalf("step %d: body len=%d want=%d", i, len(state.Snake.Body), want)
		}
	}
	if state.Score != 3*NormalPoints+2*SpecialPoints {
		t.Fatalf("score=%d want=7", state.Score)
	}
}

func TestCheckCollision_Wall(t *testing.T) {
	state := &game.GameState{
		Grid:  game.Grid{Columns: 7, Rows: 7},
		Snake: game.Snake{Head: game.Point{X: 6, Y: 3}, Direction: game.Right},
		Food:  game.Food{Pos: game.Point{X: 0, Y: 0}},
	}
	res := Step(state, nil, noSpecials)
	if res.Cause != CauseWall {
		t.Fatalf("cause=%s want wall\n%s", res.Cause, dumpState(state))
	}

	for _, head := range []game.Point{{X: -1, Y: 0}, {X: 0, Y: -1}, {X: 7, Y: 0}, {X: 0, Y: 7}} {
		s := &game.GameState{Grid: game.Grid{Columns: 7, Rows: 7}, Snake: game.Snake{Head: head}}
		if got := CheckCollision(s); got != CauseWall {
			t.Errorf("head=%v cause=%s want wall", head, got)
		}
	}
}

func TestCheckCollision_Self(t *testing.T) {
	before := &game.GameState{
		Grid: game.Grid{Columns: 7, Rows: 7},
		Snake: game.Snake{
			Head:      game.Point{X: 2, Y: 2},
			Body:      []game.Point{{X: 2, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}},
			Direction: game.Right,
		},
		Food: game.Food{Pos: game.Point{X: 0, Y: 0}},
	}

	after := before.Clone()
	res := Step(after, nil, noSpecials)
	logStep(t, "Step into own body", before, after, res)

	if res.Cause != CauseSelf {
		t.Fatalf("cause=%s want self", res.Cause)
	}
}

func TestSafeMoves_TailMovesAwayUnlessStacked(t *testing.T) {
	state := &game.GameState{
		Grid: game.Grid{Columns: 5, Rows: 5},
		Snake: game.Snake{
			Head:      game.Point{X: 1, Y: 1},
			Body:      []game.Point{{X: 1, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 1}},
			Direction: game.Up,
		},
	}
	t.Logf("Testing tail:\n%s", dumpState(state))

	moves := SafeMoves(state)
	if !containsDir(moves, game.Right) {
		t.Errorf("moves=%v: right into a moving tail should be safe", moves)
	}
	if containsDir(moves, game.Down) {
		t.Errorf("moves=%v: down reverses the snake", moves)
	}

	state.Snake.Body = append(state.Snake.Body, game.Point{X: 2, Y: 1})
	t.Logf("Testing stacked tail:\n%s", dumpState(state))
	moves = SafeMoves(state)
	if containsDir(moves, game.Right) {
		t.Errorf("moves=%v: right into a stacked tail should be unsafe", moves)
	}
	if !containsDir(moves, game.Up) || !containsDir(moves, game.Left) {
		t.Errorf("moves=%v: want up and left", moves)
	}
}

func TestSafeMoves_Corner(t *testing.T) {
	state := &game.GameState{
		Grid:  game.Grid{Columns: 5, Rows: 5},
		Snake: game.Snake{Head: game.Point{X: 0, Y: 0}, Direction: game.Left},
	}
	moves := SafeMoves(state)
	if len(moves) != 1 || moves[0] != game.Down {
		t.Fatalf("moves=%v want [down]", moves)
	}
}

func containsDir(ds []game.Direction, d game.Direction) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}

func TestSpeedLevel(t *testing.T) {
	cases := []struct {
		score int
		want  int
	}{
		{0, 8}, {4, 8}, {5, 9}, {9, 9}, {10, 10},
	}
	for _, c := range cases {
		if got := SpeedLevel(8, c.score); got != c.want {
			t.Errorf("SpeedLevel(8,%d)=%d want=%d", c.score, got, c.want)
		}
	}
	if got := SpeedLevel(0, 0); got != 1 {
		t.Errorf("SpeedLevel(0,0)=%d want clamp to 1", got)
	}
}

func TestTickInterval(t *testing.T) {
	if got := TickInterval(8, 1); got != 125*time.Millisecond {
		t.Fatalf("interval=%v want=125ms", got)
	}
	if got, want := TickInterval(8, 5), time.Second/9; got != want {
		t.Fatalf("interval=%v want=%v", got, want)
	}
}

func TestSpawnFood_NeverOnSnake(t *testing.T) {
	state := &game.GameState{
		Grid: game.Grid{Columns: 4, Rows: 4},
		Snake: game.Snake{
			Head: game.Point{X: 0, Y: 0},
			Body: []game.Point{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		},
	}
	for turn := int64(0); turn < 200; turn++ {
		state.Turn = turn
		SpawnFood(state, nil, DefaultFoodSettings)
		if state.Snake.Occupies(state.Food.Pos) {
			t.Fatalf("turn %d: food %v on snake\n%s", turn, state.Food.Pos, dumpState(state))
		}
		if !state.Grid.Contains(state.Food.Pos) {
			t.Fatalf("turn %d: food %v off grid", turn, state.Food.Pos)
		}
	}
}

func TestSpawnFood_SpecialChance(t *testing.T) {
	state := &game.GameState{Grid: game.Grid{Columns: 5, Rows: 5}}

	seen := map[game.FoodKind]bool{}
	for turn := int64(0); turn < 300; turn++ {
		state.Turn = turn
		SpawnFood(state, nil, FoodSettings{SpecialChance: 100, Kinds: game.SpecialKinds[:]})
		if !state.Food.Kind.Special() {
			t.Fatalf("turn %d: kind=%s want special", turn, state.Food.Kind)
		}
		seen[state.Food.Kind] = true
	}
	for _, k := range game.SpecialKinds {
		if !seen[k] {
			t.Errorf("kind %s never spawned", k)
		}
	}

	for turn := int64(0); turn < 100; turn++ {
		state.Turn = turn
		SpawnFood(state, nil, noSpecials)
		if state.Food.Kind != game.FoodNormal {
			t.Fatalf("turn %d: kind=%s want normal", turn, state.Food.Kind)
		}
	}
}

func TestSpawnFood_FullGridFallsBackToAnyCell(t *testing.T) {
	state := &game.GameState{
		Grid: game.Grid{Columns: 2, Rows: 1},
		Snake: game.Snake{
			Head: game.Point{X: 0, Y: 0},
			Body: []game.Point{{X: 1, Y: 0}},
		},
	}
	SpawnFood(state, nil, noSpecials)
	if !state.Grid.Contains(state.Food.Pos) {
		t.Fatalf("food %v off grid", state.Food.Pos)
	}
}
