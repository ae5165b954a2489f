package rules

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/brensch/greedysnake/game"
)

// FoodSettings controls what SpawnFood places.
//
// SpecialChance is the percentage chance (0-100) that the next food is a special
// kind instead of normal food. The kind itself is drawn uniformly from Kinds.
//
// Note: SpawnFood takes an RNG parameter so callers can choose:
// - true randomness for interactive play, or
// - deterministic pseudo-randomness for tests and replays (rng == nil).
type FoodSettings struct {
	SpecialChance int
	Kinds         []game.FoodKind
}

var DefaultFoodSettings = FoodSettings{
	SpecialChance: 20,
	Kinds:         game.SpecialKinds[:],
}

// SpawnFood replaces the food slot. Special and normal food share the slot, so
// placing one always discards the other.
//
// The cell is drawn uniformly from the cells not covered by the snake. If the
// snake fills the grid the food lands on a uniformly random cell instead.
func SpawnFood(state *game.GameState, rng *rand.Rand, settings FoodSettings) {
	if state == nil || state.Grid.Columns <= 0 || state.Grid.Rows <= 0 {
		return
	}
	if settings.SpecialChance < 0 {
		settings.SpecialChance = 0
	}
	if settings.SpecialChance > 100 {
		settings.SpecialChance = 100
	}

	if rng == nil {
		seed := int64(deterministicU64Fast(state, 0x464F4F445F535057)) // "FOOD_SPW" salt
		if seed == 0 {
			seed = 1
		}
		rng = rand.New(rand.NewSource(seed))
	}

	kind := game.FoodNormal
	if settings.SpecialChance > 0 && len(settings.Kinds) > 0 && rng.Intn(100) < settings.SpecialChance {
		kind = settings.Kinds[rng.Intn(len(settings.Kinds))]
	}

	state.Food = game.Food{Kind: kind, Pos: randomFreeCell(state, rng)}
}

func randomFreeCell(state *game.GameState, rng *rand.Rand) game.Point {
	grid := state.Grid
	key := func(p game.Point) uint64 {
		return (uint64(uint32(p.X)) << 32) | uint64(uint32(p.Y))
	}

	occupied := make(map[uint64]struct{}, state.Snake.Len())
	occupied[key(state.Snake.Head)] = struct{}{}
	for _, p := range state.Snake.Body {
		occupied[key(p)] = struct{}{}
	}

	available := make([]game.Point, 0, grid.Cells())
	for y := int32(0); y < grid.Rows; y++ {
		for x := int32(0); x < grid.Columns; x++ {
			p := game.Point{X: x, Y: y}
			if _, ok := occupied[key(p)]; ok {
				continue
			}
			available = append(available, p)
		}
	}

	if len(available) == 0 {
		return game.Point{X: int32(rng.Intn(int(grid.Columns))), Y: int32(rng.Intn(int(grid.Rows)))}
	}
	return available[rng.Intn(len(available))]
}

func deterministicU64Fast(state *game.GameState, salt uint64) uint64 {
	// Mix turn + board size + head + score; cheap enough to run every spawn.
	h := fnv.New64a()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(uint32(state.Grid.Columns))|(uint64(uint32(state.Grid.Rows))<<32))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(state.Turn))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], salt)
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(state.Score))
	_, _ = h.Write(buf[:])

	head := state.Snake.Head
	binary.LittleEndian.PutUint64(buf[:], (uint64(uint32(head.X))<<32)|uint64(uint32(head.Y)))
	_, _ = h.Write(buf[:])

	return h.Sum64()
}
