// Package archive stores finished games as Parquet files, one row per tick, so
// they can be replayed or analysed later.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/greedysnake/engine"
	"github.com/brensch/greedysnake/game"
)

const schemaName = "snake_turn_v1"

var ErrNoRows = errors.New("archive: no rows")

// TurnRow is the board after one tick. Turn 0 is the board as the game started.
//
// The body is stored as two parallel coordinate columns, head excluded, first
// element adjacent to the head.
type TurnRow struct {
	GameID string `parquet:"game_id,dict"`
	Game   int32  `parquet:"game"`
	Turn   int64  `parquet:"turn"`
	Width  int32  `parquet:"width"`
	Height int32  `parquet:"height"`

	HeadX int32   `parquet:"head_x"`
	HeadY int32   `parquet:"head_y"`
	BodyX []int32 `parquet:"body_x"`
	BodyY []int32 `parquet:"body_y"`
	DirX  int32   `parquet:"dir_x"`
	DirY  int32   `parquet:"dir_y"`

	FoodX    int32  `parquet:"food_x"`
	FoodY    int32  `parquet:"food_y"`
	FoodKind string `parquet:"food_kind,dict"`

	Score      int32  `parquet:"score"`
	BaseSpeed  int32  `parquet:"base_speed"`
	Level      int32  `parquet:"level"`
	IntervalMS int32  `parquet:"interval_ms"`
	Shield     bool   `parquet:"shield"`
	ShieldMS   int32  `parquet:"shield_ms"`
	Status     string `parquet:"status,dict"`
}

// RowFromSnapshot flattens an engine snapshot into a row of game gameID.
func RowFromSnapshot(gameID string, s engine.Snapshot) TurnRow {
	row := TurnRow{
		GameID:     gameID,
		Game:       int32(s.Game),
		Turn:       s.Turn,
		Width:      s.Grid.Columns,
		Height:     s.Grid.Rows,
		HeadX:      s.Head.X,
		HeadY:      s.Head.Y,
		BodyX:      make([]int32, len(s.Body)),
		BodyY:      make([]int32, len(s.Body)),
		DirX:       s.Direction.DX,
		DirY:       s.Direction.DY,
		FoodX:      s.Food.Pos.X,
		FoodY:      s.Food.Pos.Y,
		FoodKind:   s.Food.Kind.String(),
		Score:      int32(s.Score),
		BaseSpeed:  int32(s.BaseSpeed),
		Level:      int32(s.Level),
		IntervalMS: int32(s.Interval / time.Millisecond),
		Shield:     s.ShieldActive,
		ShieldMS:   int32(s.ShieldRemaining / time.Millisecond),
		Status:     s.Status.String(),
	}
	for i, p := range s.Body {
		row.BodyX[i] = p.X
		row.BodyY[i] = p.Y
	}
	return row
}

// State rebuilds the board stored in the row.
func (r TurnRow) State() *game.GameState {
	st := &game.GameState{
		Grid: game.Grid{Columns: r.Width, Rows: r.Height},
		Snake: game.Snake{
			Head:      game.Point{X: r.HeadX, Y: r.HeadY},
			Direction: game.Direction{DX: r.DirX, DY: r.DirY},
		},
		Food: game.Food{
			Kind: parseFoodKind(r.FoodKind),
			Pos:  game.Point{X: r.FoodX, Y: r.FoodY},
		},
		Score:     int(r.Score),
		BaseSpeed: int(r.BaseSpeed),
		Turn:      r.Turn,
	}
	n := min(len(r.BodyX), len(r.BodyY))
	if n > 0 {
		st.Snake.Body = make([]game.Point, n)
		for i := 0; i < n; i++ {
			st.Snake.Body[i] = game.Point{X: r.BodyX[i], Y: r.BodyY[i]}
		}
	}
	return st
}

func parseFoodKind(s string) game.FoodKind {
	for _, k := range game.SpecialKinds {
		if k.String() == s {
			return k
		}
	}
	return game.FoodNormal
}

// FileName is the archive file name for a game ID.
func FileName(gameID string) string {
	return "game_" + gameID + ".parquet"
}

// WriteGameParquetAtomic writes rows into outDir/tmp and then moves the file into
// outDir, so readers never observe a partially written game.
func WriteGameParquetAtomic(outDir string, rows []TurnRow) (string, error) {
	if len(rows) == 0 {
		return "", ErrNoRows
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := FileName(rows[0].GameID)
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaName),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadGame loads every row of an archived game in turn order.
func ReadGame(path string) ([]TurnRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[TurnRow](pf)
	defer reader.Close()

	rows := make([]TurnRow, 0, int(reader.NumRows()))
	buf := make([]TurnRow, 256)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			rows = append(rows, buf[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet %s: %w", path, err)
		}
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Turn < rows[j].Turn })
	return rows, nil
}

// Summary describes one archived game.
type Summary struct {
	Path       string
	GameID     string
	Turns      int
	FinalScore int
	Status     string
	ModTime    time.Time
}

// ListGames summarises every archived game in dir, oldest file first.
func ListGames(dir string) ([]Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var games []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".parquet") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		rows, err := ReadGame(path)
		if err != nil {
			// Skip unreadable files.
			continue
		}
		last := rows[len(rows)-1]
		s := Summary{
			Path:       path,
			GameID:     last.GameID,
			Turns:      int(last.Turn),
			FinalScore: int(last.Score),
			Status:     last.Status,
		}
		if info, err := entry.Info(); err == nil {
			s.ModTime = info.ModTime()
		}
		games = append(games, s)
	}

	sort.SliceStable(games, func(i, j int) bool { return games[i].ModTime.Before(games[j].ModTime) })
	return games, nil
}
