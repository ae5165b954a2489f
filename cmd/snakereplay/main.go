package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brensch/greedysnake/archive"
	"github.com/brensch/greedysnake/game"
)

func main() {
	dir := flag.String("dir", getEnvOrDefault("SNAKE_ARCHIVE_DIR", "data/games"), "Directory of archived games")
	gameRef := flag.String("game", "", "Game ID or parquet path to replay; empty lists all games")
	turn := flag.Int64("turn", -1, "Print only this turn")
	play := flag.Bool("play", false, "Animate the replay at the recorded speed")
	flag.Parse()

	if *gameRef == "" {
		listGames(*dir)
		return
	}

	path := *gameRef
	if !strings.HasSuffix(path, ".parquet") {
		path = filepath.Join(*dir, archive.FileName(*gameRef))
	}
	rows, err := archive.ReadGame(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	last := rows[len(rows)-1]
	log.Printf("Game %s: %d turns, final score %d, status %s", last.GameID, last.Turn, last.Score, last.Status)

	archive.Replay(rows, func(row archive.TurnRow, st *game.GameState) bool {
		if *turn >= 0 && row.Turn != *turn {
			return row.Turn < *turn
		}
		if *play {
			// Clear screen and home the cursor.
			fmt.Print("\033[H\033[2J")
		}
		fmt.Print(formatTurn(row, st))
		if *play && row.IntervalMS > 0 {
			time.Sleep(time.Duration(row.IntervalMS) * time.Millisecond)
		}
		return true
	})
}

func listGames(dir string) {
	games, err := archive.ListGames(dir)
	if err != nil {
		log.Fatalf("Failed to list %s: %v", dir, err)
	}
	if len(games) == 0 {
		fmt.Printf("no games in %s\n", dir)
		return
	}
	fmt.Printf("%-36s  %6s  %5s  %-7s  %s\n", "GAME", "TURNS", "SCORE", "STATUS", "WRITTEN")
	for _, g := range games {
		fmt.Printf("%-36s  %6d  %5d  %-7s  %s\n", g.GameID, g.Turns, g.FinalScore, g.Status, g.ModTime.Format(time.DateTime))
	}
}

func formatTurn(row archive.TurnRow, st *game.GameState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Turn %d  score=%d  lv=%d  %s", row.Turn, row.Score, row.Level, row.Status)
	if row.Shield {
		fmt.Fprintf(&sb, "  shield=%dms", row.ShieldMS)
	}
	sb.WriteString(" ===\n")
	sb.WriteString(formatBoard(st))
	return sb.String()
}

func formatBoard(st *game.GameState) string {
	grid := make([][]byte, st.Grid.Rows)
	for y := range grid {
		grid[y] = make([]byte, st.Grid.Columns)
		for x := range grid[y] {
			grid[y][x] = '.'
		}
	}
	put := func(p game.Point, c byte) {
		if st.Grid.Contains(p) {
			grid[p.Y][p.X] = c
		}
	}

	put(st.Food.Pos, foodChar(st.Food.Kind))
	for _, p := range st.Snake.Body {
		put(p, 'o')
	}
	put(st.Snake.Head, 'O')

	var sb strings.Builder
	for y := range grid {
		for x := range grid[y] {
			sb.WriteByte(grid[y][x])
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func foodChar(k game.FoodKind) byte {
	switch k {
	case game.FoodSpeed:
		return 'S'
	case game.FoodDouble:
		return 'D'
	case game.FoodShield:
		return 'H'
	default:
		return 'F'
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
