package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/greedysnake/archive"
	"github.com/brensch/greedysnake/autopilot"
	"github.com/brensch/greedysnake/engine"
	"github.com/brensch/greedysnake/game"
	"github.com/brensch/greedysnake/highscore"
	"github.com/brensch/greedysnake/logging"
	"github.com/brensch/greedysnake/tui"
)

func main() {
	def := engine.DefaultConfig()

	columns := flag.Int("columns", getEnvIntOrDefault("SNAKE_COLUMNS", int(def.Columns)), "Board width in cells")
	rows := flag.Int("rows", getEnvIntOrDefault("SNAKE_ROWS", int(def.Rows)), "Board height in cells")
	baseSpeed := flag.Int("base-speed", getEnvIntOrDefault("SNAKE_BASE_SPEED", def.BaseSpeed), "Starting speed in ticks per second")
	shield := flag.Duration("shield", getEnvDurationOrDefault("SNAKE_SHIELD", def.ShieldDuration), "How long shield food protects the snake")
	specialChance := flag.Int("special-chance", getEnvIntOrDefault("SNAKE_SPECIAL_CHANCE", def.Food.SpecialChance), "Percent chance that new food is a special kind")
	seed := flag.Int64("seed", int64(getEnvIntOrDefault("SNAKE_SEED", 0)), "RNG seed for food placement (0 = random per run)")
	scoresPath := flag.String("scores", getEnvOrDefault("SNAKE_SCORES", "data/highscores.json"), "High score file")
	archiveDir := flag.String("archive-dir", getEnvOrDefault("SNAKE_ARCHIVE_DIR", ""), "If set, write every game to this directory as parquet")
	logPath := flag.String("log-path", getEnvOrDefault("SNAKE_LOG", "data/greedysnake.log"), "Log file (the terminal belongs to the game)")
	logLevel := flag.String("log-level", getEnvOrDefault("SNAKE_LOG_LEVEL", "info"), "debug, info, warn or error")
	prettyLog := flag.Bool("pretty-log", getEnvBoolOrDefault("SNAKE_PRETTY_LOG", false), "Indent JSON log records")
	usePilot := flag.Bool("autopilot", getEnvBoolOrDefault("SNAKE_AUTOPILOT", false), "Let the greedy autopilot steer")
	headless := flag.Bool("headless", false, "Run one autopilot game without the UI and print the result")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid -log-level: %v", err)
	}

	var logOut io.Writer = os.Stderr
	if !*headless {
		f, err := logging.OpenFile(*logPath)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
		log.SetOutput(f)
	}
	opts := &slog.HandlerOptions{Level: level}
	var logger *slog.Logger
	if *prettyLog {
		logger = slog.New(logging.NewPrettyJSONHandler(logOut, opts))
	} else {
		logger = slog.New(logging.NewLineJSONHandler(logOut, opts))
	}

	cfg := def
	cfg.Columns = int32(*columns)
	cfg.Rows = int32(*rows)
	cfg.BaseSpeed = *baseSpeed
	cfg.ShieldDuration = *shield
	cfg.Food.SpecialChance = *specialChance
	cfg.Seed = *seed
	if cfg.Start.X >= cfg.Columns || cfg.Start.Y >= cfg.Rows {
		cfg.Start = game.Point{X: cfg.Columns / 2, Y: cfg.Rows / 2}
	}

	e, err := engine.New(cfg, engine.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create game: %v", err)
	}

	scores, err := highscore.Open(*scoresPath)
	if err != nil {
		log.Fatalf("Failed to open high scores: %v", err)
	}
	e.OnEvent(scores.Listener(func(err error) {
		logger.Error("save high score", "error", err)
	}))

	var rec *archive.Recorder
	if *archiveDir != "" {
		rec, err = archive.NewRecorder(*archiveDir, logger.With("component", "archive"))
		if err != nil {
			log.Fatalf("Failed to create archive recorder: %v", err)
		}
		rec.Attach(e)
	}

	if *usePilot || *headless {
		autopilot.Attach(e)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	log.Printf("Starting greedysnake")
	log.Printf("  Board: %dx%d", cfg.Columns, cfg.Rows)
	log.Printf("  Base speed: %d", cfg.BaseSpeed)
	log.Printf("  High scores: %s (best %d)", scores.Path(), scores.Best())
	if rec != nil {
		log.Printf("  Archive: %s", *archiveDir)
	}

	if *headless {
		runHeadless(ctx, cancel, e, scores)
	} else {
		runUI(ctx, e, scores, *usePilot)
	}

	if rec != nil {
		rec.Flush()
	}
}

func runUI(ctx context.Context, e *engine.Engine, scores *highscore.Store, pilot bool) {
	frames := make(chan engine.Event, 64)
	e.OnEvent(tui.FrameListener(frames))

	runCtx, cancel := context.WithCancel(ctx)
	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		if err := engine.NewRunner(e).Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Runner stopped: %v", err)
		}
	}()

	m := tui.NewModel(e, scores, frames).WithAutopilot(pilot)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	cancel()
	<-runnerDone
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Fatalf("UI failed: %v", err)
	}
}

func runHeadless(ctx context.Context, cancel context.CancelFunc, e *engine.Engine, scores *highscore.Store) {
	var final engine.Event
	e.OnEvent(func(ev engine.Event) {
		if ev.Kind == engine.EventGameOver {
			final = ev
			cancel()
		}
	})

	start := time.Now()
	err := engine.NewRunner(e).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Runner stopped: %v", err)
	}

	if final.Kind != engine.EventGameOver {
		fmt.Printf("interrupted at turn %d with score %d\n", e.Snapshot().Turn, e.Score())
		return
	}
	fmt.Printf("game over (%s) after %d turns in %s: score %d, length %d, best %d\n",
		final.Cause, final.Snapshot.Turn, time.Since(start).Round(time.Millisecond),
		final.FinalScore, final.Snapshot.Len(), scores.Best())
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var i int
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
