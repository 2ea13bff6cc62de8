package core

import (
	"context"
	"time"
)

// Ack is the single OK/ERR response line the helper writes per command.
type Ack struct {
	OK bool
}

// HelperClientPort wraps a keystroke-helper subprocess: lifecycle,
// line framing, and per-command acks with timeout (spec §4.3).
type HelperClientPort interface {
	// Ready blocks until the handshake resolves (READY seen, or the
	// handshake timeout elapses and the client downgrades).
	Ready(ctx context.Context) error

	// Send enqueues one command line and waits for its ack (or the
	// per-command timeout). Sends from a single caller are FIFO.
	Send(ctx context.Context, line string) (Ack, error)

	// IsAlive reports whether the subprocess is still running and the
	// client has not observed a termination condition.
	IsAlive() bool

	// Close signals the helper to exit and releases the subprocess.
	Close() error
}

// PlannerPort produces a TypingPlan from target text and options.
type PlannerPort interface {
	Plan(text string, options TypingOptions) (TypingPlan, error)
}

// ExecutorPort drives a TypingPlan against a HelperClientPort.
type ExecutorPort interface {
	Execute(ctx context.Context, plan TypingPlan, helper HelperClientPort) (localTypedText string, stats Statistics, err error)
}

// ClipboardPort abstracts the system clipboard for the verify-and-rewrite
// fallback (spec §4.5). The verify step Reads the prior contents before
// it starts and Writes them back on exit, so the user's clipboard is
// not lost.
type ClipboardPort interface {
	Read() (string, error)
	Write(text string) error
}

// HistoryPort is an ambient, optional audit sink for completed runs.
// The executor and planner never see this port — only the engine
// facade's caller may wire one in, preserving the "core is stateless
// between runs" invariant of spec §6.
type HistoryPort interface {
	RecordRun(ctx context.Context, entry RunRecord) error
}

// RunRecord is one row of run-history audit data.
type RunRecord struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	TextLength  int
	WPM         float64
	Stats       Statistics
	Cancelled   bool
	FailureKind string
}

// NoopHistory discards every record; used when auditing is disabled.
type NoopHistory struct{}

// RecordRun implements HistoryPort by doing nothing.
func (NoopHistory) RecordRun(ctx context.Context, entry RunRecord) error { return nil }
