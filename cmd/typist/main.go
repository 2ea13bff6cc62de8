// Command typist is the CLI entrypoint: it loads configuration, spawns
// the keystroke-helper subprocess, and replays a target text into
// whatever window currently holds OS keyboard focus.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/typist/humantype/config"
	"github.com/typist/humantype/internal/core"
	"github.com/typist/humantype/internal/engine"
	"github.com/typist/humantype/internal/history"
	"github.com/typist/humantype/internal/sysclipboard"
	"github.com/typist/humantype/pkg/utils"
)

var (
	configPath = flag.String("config", "config/config.yaml", "Path to configuration file")
	textFlag   = flag.String("text", "", "Text to type (required unless -file is set)")
	fileFlag   = flag.String("file", "", "Path to a file whose contents should be typed")
	profile    = flag.String("profile", "", "Named preset overriding config typing options: careful, average, fast")
	startDelay = flag.Duration("start-delay", 3*time.Second, "Delay before typing begins, so the user can focus the target window")
	seed       = flag.Int64("seed", 0, "Deterministic RNG seed (0 means seed from process entropy)")
)

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("humantype typist - starting")

	text, err := resolveText()
	if err != nil {
		logger.Fatal("no input text", zap.Error(err))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	logger.Info("configuration loaded", zap.String("config_path", *configPath))

	options := cfg.Typing
	if *profile != "" {
		options = config.ProfileByName(*profile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received, cancelling run")
		cancel()
	}()

	var historyPort core.HistoryPort = core.NoopHistory{}
	if cfg.History.Enabled {
		h, err := history.NewSQLiteHistory(cfg.History.DBPath)
		if err != nil {
			logger.Warn("history disabled: failed to open database", zap.Error(err))
		} else {
			defer h.Close()
			historyPort = h
		}
	}

	eng := engine.New(cfg.EngineConfig(), logger, sysclipboard.New(), historyPort)

	logger.Info("waiting for user to focus target window", zap.Duration("delay", *startDelay))
	if !sleepCancellable(ctx, *startDelay) {
		logger.Info("cancelled before start")
		return
	}

	runSeed := *seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}

	stats, err := eng.Start(ctx, text, options, runSeed)
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}

	logger.Info("run completed",
		zap.Int("total_steps", stats.TotalSteps),
		zap.Int("char_typed", stats.CharTyped),
		zap.Int("backspaces", stats.BackspaceCount),
		zap.String("elapsed", utils.FormatDuration(time.Duration(stats.TotalTimeMs)*time.Millisecond)),
		zap.Int("warnings", stats.WarningsCount),
	)
}

func resolveText() (string, error) {
	if *fileFlag != "" {
		data, err := os.ReadFile(*fileFlag)
		if err != nil {
			return "", fmt.Errorf("read -file: %w", err)
		}
		return string(data), nil
	}
	if *textFlag != "" {
		return *textFlag, nil
	}
	return "", fmt.Errorf("one of -text or -file is required")
}

func sleepCancellable(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
