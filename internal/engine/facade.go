// Package engine owns the keystroke-helper subprocess lifecycle and
// exposes the single external surface spec §4.5 describes: start,
// stop, and an optional pause/resume latch, publishing state changes
// on an event channel.
//
// Grounded on the teacher's cmd/bot/main.go orchestration (context
// cancellation via signal channel driving a long-running workflow)
// and internal/browser's Initialize/Close lifecycle pairing, adapted
// from "own a browser instance" to "own a helper subprocess".
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/typist/humantype/internal/core"
	"github.com/typist/humantype/internal/executor"
	"github.com/typist/humantype/internal/helper"
	"github.com/typist/humantype/internal/planner"
)

const resumeCountdownSeconds = 3

// Config bundles what an Engine needs to spawn a run.
type Config struct {
	HelperPath    string
	HelperArgs    []string
	ExecutorCfg   executor.Config
	ClientCfg     helper.ClientConfig
}

// Engine is the single external-facing typing-engine instance. Per
// spec §5 "Access policy: one engine instance at a time", a second
// Start while a run is active fails with core.ErrAlreadyRunning.
type Engine struct {
	cfg       Config
	logger    *zap.Logger
	clipboard core.ClipboardPort
	history   core.HistoryPort
	events    *broadcaster

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	options core.TypingOptions

	pauseMu      sync.Mutex
	paused       bool
	resumeSignal chan struct{}
}

// New constructs an Engine. A nil history defaults to core.NoopHistory{}.
func New(cfg Config, logger *zap.Logger, clipboard core.ClipboardPort, history core.HistoryPort) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if history == nil {
		history = core.NoopHistory{}
	}
	return &Engine{
		cfg:       cfg,
		logger:    logger,
		clipboard: clipboard,
		history:   history,
		events:    newBroadcaster(),
	}
}

// Events returns the channel an overlay or CLI should range over for
// pause-state, resume-countdown, and debug-log events.
func (e *Engine) Events() <-chan Event { return e.events.ch }

// Start implements spec §4.5: spawn → await ready → execute → optional
// verify-and-fix → kill helper. It blocks until the run finishes,
// fails, or is cancelled via Stop.
func (e *Engine) Start(ctx context.Context, text string, options core.TypingOptions, seed int64) (core.Statistics, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return core.Statistics{}, core.ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.running = true
	e.cancel = cancel
	e.options = options
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.cancel = nil
		e.mu.Unlock()
	}()

	startedAt := time.Now()
	stats, runErr := e.run(runCtx, text, options, seed)

	e.history.RecordRun(ctx, core.RunRecord{
		ID:          uuid.New().String(),
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
		TextLength:  len([]rune(text)),
		WPM:         options.WPM,
		Stats:       stats,
		Cancelled:   runErr == core.ErrCancelled,
		FailureKind: failureKind(runErr),
	})

	return stats, runErr
}

func (e *Engine) run(ctx context.Context, text string, options core.TypingOptions, seed int64) (core.Statistics, error) {
	p := planner.New(seed)
	plan, err := p.Plan(text, options)
	if err != nil {
		return core.Statistics{}, fmt.Errorf("plan: %w", err)
	}

	client, err := helper.Spawn(ctx, e.cfg.HelperPath, e.cfg.HelperArgs, e.cfg.ClientCfg, e.logger)
	if err != nil {
		return core.Statistics{}, err
	}
	defer client.Close()

	if err := client.Ready(ctx); err != nil {
		return core.Statistics{}, err
	}

	exec := executor.New(e.cfg.ExecutorCfg, e.logger, e.waitIfPaused)
	_, stats, err := exec.Execute(ctx, plan, client)
	if err != nil {
		return stats, err
	}

	if verr := e.verifyAndFix(ctx, client, plan.NormalizedText); verr != nil {
		e.logger.Warn("clipboard verify-and-fix failed", zap.Error(verr))
	}

	return stats, nil
}

// Stop triggers the cancellation token for the active run, if any.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Pause sets the pause latch and broadcasts the transition.
func (e *Engine) Pause() {
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()
	if e.paused {
		return
	}
	e.paused = true
	e.resumeSignal = make(chan struct{})
	e.events.publish(Event{Kind: EventPauseStateChanged, Paused: true})
}

// Resume starts the 3-second cancellable countdown of spec §4.5.
// Cancelling ctx during the countdown leaves the engine paused rather
// than resuming. The countdown watches only ctx; Stop does not end it.
func (e *Engine) Resume(ctx context.Context) {
	e.pauseMu.Lock()
	if !e.paused {
		e.pauseMu.Unlock()
		return
	}
	signal := e.resumeSignal
	e.pauseMu.Unlock()

	go func() {
		for left := resumeCountdownSeconds; left > 0; left-- {
			e.events.publish(Event{Kind: EventResumeCountdown, CountdownSecondsLeft: left})
			select {
			case <-ctx.Done():
				e.events.publish(Event{Kind: EventResumeCountdown, CountdownCancelled: true})
				return
			case <-time.After(time.Second):
			}
		}
		e.pauseMu.Lock()
		e.paused = false
		e.pauseMu.Unlock()
		close(signal)
		e.events.publish(Event{Kind: EventPauseStateChanged, Paused: false})
	}()
}

// waitIfPaused blocks the caller while the pause latch is held. It is
// the hook the executor consults at every suspension point.
func (e *Engine) waitIfPaused(ctx context.Context) error {
	e.pauseMu.Lock()
	if !e.paused {
		e.pauseMu.Unlock()
		return nil
	}
	signal := e.resumeSignal
	e.pauseMu.Unlock()

	select {
	case <-signal:
		return nil
	case <-ctx.Done():
		return core.ErrCancelled
	}
}

func failureKind(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
