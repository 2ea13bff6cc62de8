// Package executor drives a core.TypingPlan step by step against a
// HelperClientPort, maintaining a core.ShadowBuffer and a
// core.SequenceContext exactly as spec §4.4 describes, with every
// sleep and every send→ack await a cancellation point.
//
// Grounded on the teacher's internal/stealth execution loop (one
// action at a time, settle delays between actions, context-cancellable
// sleeps) generalized from "click/scroll/type one field" to "replay a
// TypingPlan against a keystroke helper".
package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/typist/humantype/internal/core"
	"github.com/typist/humantype/internal/helper"
)

// Config holds the millisecond timing constants of spec §4.4, all
// overridable so tests can run at zero delay.
type Config struct {
	MinKeyDelayMs             int64
	BackspaceSettleMs         int64
	NavigationSettleMs        int64
	PreSequenceSettleMs       int64
	PostSequenceSettleMs      int64
	CtrlNavSettleMs           int64
	MaxBackspacesBeforePause  int
	BackspaceBurstPauseMs     int64
	DoubleCharBackspaceSettleMs int64
	CorrectionMinDelayMs      int64
}

// DefaultConfig returns the calibration named in spec §4.4.
func DefaultConfig() Config {
	return Config{
		MinKeyDelayMs:                8,
		BackspaceSettleMs:            30,
		NavigationSettleMs:           25,
		PreSequenceSettleMs:          60,
		PostSequenceSettleMs:         50,
		CtrlNavSettleMs:              80,
		MaxBackspacesBeforePause:     8,
		BackspaceBurstPauseMs:        40,
		DoubleCharBackspaceSettleMs: 80,
		CorrectionMinDelayMs:         40,
	}
}

// Executor replays a core.TypingPlan against a core.HelperClientPort.
type Executor struct {
	cfg         Config
	logger      *zap.Logger
	waitIfPaused func(ctx context.Context) error
}

// New returns an Executor. A nil logger is replaced with zap.NewNop().
// waitIfPaused, if non-nil, is consulted at every suspension point
// (spec §4.5's "the executor consults the latch at each suspension
// point"); it blocks until resumed or returns an error on cancellation.
func New(cfg Config, logger *zap.Logger, waitIfPaused func(ctx context.Context) error) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{cfg: cfg, logger: logger, waitIfPaused: waitIfPaused}
}

// Execute implements core.ExecutorPort and spec §4.4's per-step
// handling, sequence-end detection, and shadow-buffer validation.
func (e *Executor) Execute(ctx context.Context, plan core.TypingPlan, h core.HelperClientPort) (string, core.Statistics, error) {
	buf := core.NewShadowBuffer()
	seq := &core.SequenceContext{}
	stats := core.Statistics{}
	start := time.Now()

	for i, step := range plan.Steps {
		if err := e.sleep(ctx, 0); err != nil {
			return buf.Text(), e.finish(stats, buf, start), err
		}

		prevWarnings := buf.Warnings

		var err error
		switch step.Kind {
		case core.StepPause:
			err = e.handlePause(ctx, step, seq)
			stats.PauseCount++
		case core.StepChar:
			err = e.handleChar(ctx, step, h, buf, seq)
			stats.CharTyped++
		case core.StepKey:
			err = e.handleKey(ctx, step, h, buf, seq)
			if step.Key == core.KeyBackspace {
				stats.BackspaceCount++
			} else {
				stats.NavigationCount++
			}
		}
		stats.TotalSteps++

		buf.AssertValid()
		if buf.Warnings != prevWarnings {
			e.logger.Debug("shadow buffer warning", zap.Int("warnings", buf.Warnings))
		}

		if err != nil {
			stats.WarningsCount = buf.Warnings
			stats.TotalTimeMs = time.Since(start).Milliseconds()
			return buf.Text(), stats, err
		}

		if err := e.detectSequenceEnd(ctx, step, plan.Steps, i, seq); err != nil {
			stats.WarningsCount = buf.Warnings
			stats.TotalTimeMs = time.Since(start).Milliseconds()
			return buf.Text(), stats, err
		}
	}

	return buf.Text(), e.finish(stats, buf, start), nil
}

func (e *Executor) finish(stats core.Statistics, buf *core.ShadowBuffer, start time.Time) core.Statistics {
	stats.WarningsCount = buf.Warnings
	stats.TotalTimeMs = time.Since(start).Milliseconds()
	return stats
}

func (e *Executor) handlePause(ctx context.Context, step core.TypingStep, seq *core.SequenceContext) error {
	if err := e.sleep(ctx, time.Duration(step.PauseSeconds*float64(time.Second))); err != nil {
		return err
	}
	if step.IsCorrectionReason() {
		firstEntry := !seq.InCorrectionSequence
		seq.InCorrectionSequence = true
		if step.IsFixSessionReason() {
			seq.InFixSession = true
		}
		e.logger.Info("entering correction sequence", zap.String("reason", step.Reason))
		if firstEntry {
			if err := e.sleepMs(ctx, e.cfg.PreSequenceSettleMs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Executor) handleChar(ctx context.Context, step core.TypingStep, h core.HelperClientPort, buf *core.ShadowBuffer, seq *core.SequenceContext) error {
	if seq.LastWasNavigation {
		if err := e.sleepMs(ctx, e.cfg.NavigationSettleMs); err != nil {
			return err
		}
	} else if seq.LastWasBackspace {
		if err := e.sleepMs(ctx, e.cfg.BackspaceSettleMs); err != nil {
			return err
		}
	}

	if err := e.send(ctx, h, helper.EncodeChar(step.Char)); err != nil {
		return err
	}
	buf.InsertChar(step.Char)

	if err := e.sleep(ctx, time.Duration(step.DelayAfterSeconds*float64(time.Second))+time.Duration(e.cfg.MinKeyDelayMs)*time.Millisecond); err != nil {
		return err
	}

	seq.PushTypedChar(step.Char)
	seq.CharsSinceLastNonChar++
	seq.LastWasNavigation = false
	seq.LastWasBackspace = false
	seq.ConsecutiveBackspaces = 0
	return nil
}

func (e *Executor) handleKey(ctx context.Context, step core.TypingStep, h core.HelperClientPort, buf *core.ShadowBuffer, seq *core.SequenceContext) error {
	isNavLike := step.Key != core.KeyEnter && step.Key != core.KeyBackspace

	if seq.InCorrectionSequence && (step.Key == core.KeyBackspace || step.Key == core.KeyLeft || step.Key == core.KeyRight) {
		if err := e.sleepMs(ctx, 2*e.cfg.MinKeyDelayMs); err != nil {
			return err
		}
	}

	if step.Key == core.KeyBackspace {
		if seq.LastTwoIdentical() && seq.CharsSinceLastNonChar >= 2 {
			if err := e.sleepMs(ctx, e.cfg.DoubleCharBackspaceSettleMs); err != nil {
				return err
			}
		}
		if seq.ConsecutiveBackspaces >= e.cfg.MaxBackspacesBeforePause {
			if err := e.sleepMs(ctx, e.cfg.BackspaceBurstPauseMs); err != nil {
				return err
			}
			seq.ConsecutiveBackspaces = 0
		}
	}

	if err := e.send(ctx, h, helper.EncodeKey(step.Key)); err != nil {
		return err
	}

	switch step.Key {
	case core.KeyEnter:
		buf.Enter()
		seq.ResetCharRun()
	case core.KeyBackspace:
		buf.Backspace()
		seq.ConsecutiveBackspaces++
		seq.LastWasBackspace = true
	case core.KeyLeft:
		buf.Left()
	case core.KeyRight:
		buf.Right()
	case core.KeyHome:
		buf.Home()
	case core.KeyEnd:
		buf.End()
	case core.KeyCtrlHome:
		buf.CtrlHome()
	case core.KeyCtrlEnd:
		buf.CtrlEnd()
	}
	if isNavLike {
		seq.LastWasNavigation = true
	}

	delay := time.Duration(step.DelayAfterSeconds * float64(time.Second))
	if seq.InCorrectionSequence {
		minDelay := time.Duration(e.cfg.CorrectionMinDelayMs) * time.Millisecond
		if delay < minDelay {
			delay = minDelay
		}
	}
	if step.Key == core.KeyCtrlHome || step.Key == core.KeyCtrlEnd {
		delay += time.Duration(e.cfg.CtrlNavSettleMs) * time.Millisecond
	}
	return e.sleep(ctx, delay)
}

// detectSequenceEnd implements spec §4.4's "sequence end detection":
// END/CTRL_END followed by absence, a plain Char, or a non-fix Pause
// closes any open correction sequence.
func (e *Executor) detectSequenceEnd(ctx context.Context, step core.TypingStep, steps []core.TypingStep, i int, seq *core.SequenceContext) error {
	if !seq.InCorrectionSequence {
		return nil
	}
	if step.Kind != core.StepKey || (step.Key != core.KeyEnd && step.Key != core.KeyCtrlEnd) {
		return nil
	}

	closes := i+1 >= len(steps)
	if !closes {
		next := steps[i+1]
		closes = next.Kind == core.StepChar || (next.Kind == core.StepPause && !next.IsFixSessionReason())
	}
	if !closes {
		return nil
	}

	seq.EndCorrectionSequence()
	return e.sleepMs(ctx, e.cfg.PostSequenceSettleMs)
}

func (e *Executor) send(ctx context.Context, h core.HelperClientPort, line string) error {
	ack, err := h.Send(ctx, line)
	if err != nil {
		return fmt.Errorf("send %q: %w", line, err)
	}
	if !ack.OK {
		return fmt.Errorf("send %q: %w", line, core.ErrAckError)
	}
	return nil
}

func (e *Executor) sleepMs(ctx context.Context, ms int64) error {
	return e.sleep(ctx, time.Duration(ms)*time.Millisecond)
}

// sleep is the single cancellation point: every suspension in the
// executor routes through here, per spec §5.
func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	if e.waitIfPaused != nil {
		if err := e.waitIfPaused(ctx); err != nil {
			return err
		}
	}
	if d <= 0 {
		select {
		case <-ctx.Done():
			return core.ErrCancelled
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return core.ErrCancelled
	case <-timer.C:
		return nil
	}
}
