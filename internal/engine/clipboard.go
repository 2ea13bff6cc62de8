package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/typist/humantype/internal/core"
	"github.com/typist/humantype/internal/helper"
)

const (
	clipboardPollInterval = 80 * time.Millisecond
	clipboardPollBudget   = 1100 * time.Millisecond
	fastRewriteDelayMs    = 12
)

// verifyAndFix implements spec §4.5's clipboard verify-and-rewrite
// fallback: write a unique sentinel, select-all + copy, poll for a
// value that differs from the sentinel, and compare it against the
// normalized target text. On mismatch it selects-all and retypes the
// target at a fixed fast cadence, retrying up to MaxAttempts times.
// The caller's prior clipboard contents are always restored on exit.
func (e *Engine) verifyAndFix(ctx context.Context, h core.HelperClientPort, normalizedText string) error {
	if !e.options.Advanced.FinalVerifyViaClipboard {
		return nil
	}

	prior, readErr := e.clipboard.Read()
	defer func() {
		if readErr == nil {
			_ = e.clipboard.Write(prior)
		}
	}()

	attempts := e.options.Advanced.FinalVerifyMaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		sentinel := uuid.New().String()
		if err := e.clipboard.Write(sentinel); err != nil {
			e.logger.Warn("clipboard verify: sentinel write failed, skipping verify", zap.Error(err))
			return nil
		}

		if _, err := sendLine(ctx, h, helper.EncodeCtrlLetter('a')); err != nil {
			return err
		}
		if _, err := sendLine(ctx, h, helper.EncodeCtrlLetter('c')); err != nil {
			return err
		}

		value, ok := e.pollClipboard(ctx, sentinel)
		if !ok {
			e.logger.Warn("clipboard verify: poll timed out, skipping verify")
			return nil
		}

		if core.NormalizeLineEndings(value) == normalizedText {
			return nil
		}
		if !e.options.Advanced.FinalRewriteOnMismatch {
			return nil
		}

		e.logger.Info("clipboard verify mismatch, rewriting", zap.Int("attempt", attempt+1))
		if err := e.retype(ctx, h, normalizedText); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pollClipboard(ctx context.Context, sentinel string) (string, bool) {
	deadline := time.Now().Add(clipboardPollBudget)
	for time.Now().Before(deadline) {
		value, err := e.clipboard.Read()
		if err == nil && value != sentinel {
			return value, true
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(clipboardPollInterval):
		}
	}
	return "", false
}

func (e *Engine) retype(ctx context.Context, h core.HelperClientPort, text string) error {
	if _, err := sendLine(ctx, h, helper.EncodeCtrlLetter('a')); err != nil {
		return err
	}
	for _, r := range text {
		var line string
		if r == '\n' {
			line = helper.EncodeKey(core.KeyEnter)
		} else {
			line = helper.EncodeChar(r)
		}
		if _, err := sendLine(ctx, h, line); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return core.ErrCancelled
		case <-time.After(fastRewriteDelayMs * time.Millisecond):
		}
	}
	return nil
}

func sendLine(ctx context.Context, h core.HelperClientPort, line string) (core.Ack, error) {
	ack, err := h.Send(ctx, line)
	if err != nil {
		return ack, fmt.Errorf("clipboard verify: send %q: %w", line, err)
	}
	return ack, nil
}
