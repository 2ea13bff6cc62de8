package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/typist/humantype/internal/core"
)

// fakeHelper acks every send immediately with OK (or ERR for the call
// indexes in fail), recording the lines it was sent.
type fakeHelper struct {
	lines []string
	fail  map[int]bool
	calls int
}

func (f *fakeHelper) Ready(ctx context.Context) error { return nil }

func (f *fakeHelper) Send(ctx context.Context, line string) (core.Ack, error) {
	f.lines = append(f.lines, line)
	idx := f.calls
	f.calls++
	if f.fail[idx] {
		return core.Ack{OK: false}, nil
	}
	return core.Ack{OK: true}, nil
}

func (f *fakeHelper) IsAlive() bool { return true }
func (f *fakeHelper) Close() error  { return nil }

func zeroDelayConfig() Config {
	return Config{
		MinKeyDelayMs:               0,
		BackspaceSettleMs:           0,
		NavigationSettleMs:          0,
		PreSequenceSettleMs:         0,
		PostSequenceSettleMs:        0,
		CtrlNavSettleMs:             0,
		MaxBackspacesBeforePause:    8,
		BackspaceBurstPauseMs:       0,
		DoubleCharBackspaceSettleMs: 0,
		CorrectionMinDelayMs:        0,
	}
}

func TestExecute_PlainTextProducesLocalTypedTextAndStats(t *testing.T) {
	plan := core.TypingPlan{
		NormalizedText: "hi",
		Steps: []core.TypingStep{
			{Kind: core.StepChar, Char: 'h'},
			{Kind: core.StepChar, Char: 'i'},
		},
	}

	exec := New(zeroDelayConfig(), nil, nil)
	h := &fakeHelper{}

	text, stats, err := exec.Execute(context.Background(), plan, h)
	require.NoError(t, err)
	require.Equal(t, "hi", text)
	require.Equal(t, 2, stats.CharTyped)
	require.Equal(t, 2, stats.TotalSteps)
	require.Equal(t, 0, stats.WarningsCount)
}

func TestExecute_BackspaceAtCaretZeroWarnsWithoutAborting(t *testing.T) {
	plan := core.TypingPlan{
		Steps: []core.TypingStep{
			{Kind: core.StepKey, Key: core.KeyBackspace},
			{Kind: core.StepChar, Char: 'x'},
		},
	}

	exec := New(zeroDelayConfig(), nil, nil)
	h := &fakeHelper{}

	text, stats, err := exec.Execute(context.Background(), plan, h)
	require.NoError(t, err)
	require.Equal(t, "x", text)
	require.Equal(t, 1, stats.WarningsCount)
}

func TestExecute_HelperAckErrorAbortsExecution(t *testing.T) {
	plan := core.TypingPlan{
		Steps: []core.TypingStep{
			{Kind: core.StepChar, Char: 'a'},
			{Kind: core.StepChar, Char: 'b'},
		},
	}

	exec := New(zeroDelayConfig(), nil, nil)
	h := &fakeHelper{fail: map[int]bool{0: true}}

	_, _, err := exec.Execute(context.Background(), plan, h)
	require.ErrorIs(t, err, core.ErrAckError)
}

func TestExecute_CancellationDuringPauseFailsWithCancelled(t *testing.T) {
	plan := core.TypingPlan{
		Steps: []core.TypingStep{
			{Kind: core.StepPause, PauseSeconds: 10, Reason: "reflex-word-break"},
		},
	}

	exec := New(zeroDelayConfig(), nil, nil)
	h := &fakeHelper{}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := exec.Execute(ctx, plan, h)
	require.ErrorIs(t, err, core.ErrCancelled)
}

func TestExecute_NavigationMovesCaretAndTracksStats(t *testing.T) {
	plan := core.TypingPlan{
		Steps: []core.TypingStep{
			{Kind: core.StepChar, Char: 'a'},
			{Kind: core.StepChar, Char: 'b'},
			{Kind: core.StepKey, Key: core.KeyLeft},
			{Kind: core.StepChar, Char: 'c'},
		},
	}

	exec := New(zeroDelayConfig(), nil, nil)
	h := &fakeHelper{}

	text, stats, err := exec.Execute(context.Background(), plan, h)
	require.NoError(t, err)
	require.Equal(t, "acb", text)
	require.Equal(t, 1, stats.NavigationCount)
}

func TestExecute_CorrectionThenCtrlEndThenCharTypesExpectedText(t *testing.T) {
	plan := core.TypingPlan{
		Steps: []core.TypingStep{
			{Kind: core.StepChar, Char: 'x'},
			{Kind: core.StepPause, PauseSeconds: 0, Reason: "correction"},
			{Kind: core.StepKey, Key: core.KeyBackspace},
			{Kind: core.StepChar, Char: 'y'},
			{Kind: core.StepKey, Key: core.KeyCtrlEnd},
			{Kind: core.StepChar, Char: 'z'},
		},
	}

	exec := New(zeroDelayConfig(), nil, nil)
	h := &fakeHelper{}

	text, _, err := exec.Execute(context.Background(), plan, h)
	require.NoError(t, err)
	require.Equal(t, "yz", text)
}

func TestExecute_ConsultsPauseGate(t *testing.T) {
	plan := core.TypingPlan{
		Steps: []core.TypingStep{
			{Kind: core.StepChar, Char: 'a'},
		},
	}

	released := make(chan struct{})
	calls := 0
	waitIfPaused := func(ctx context.Context) error {
		calls++
		if calls == 1 {
			close(released)
		}
		return nil
	}

	exec := New(zeroDelayConfig(), nil, waitIfPaused)
	h := &fakeHelper{}

	text, _, err := exec.Execute(context.Background(), plan, h)
	require.NoError(t, err)
	require.Equal(t, "a", text)
	<-released
	require.Greater(t, calls, 0)
}
