package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typist/humantype/internal/core"
)

func defaultOptions() core.TypingOptions {
	return core.TypingOptions{
		WPM:             60,
		Variance:        0.3,
		ErrorRate:       0.0,
		CorrectionDelay: 0.3,
		Advanced: core.AdvancedOptions{
			TypoDoubleWeight:       1,
			TypoTransposeWeight:    1,
			TypoNearbyKeyWeight:    1,
			FixSessionProbability:  0.3,
			FinalVerifyMaxAttempts: 1,
		},
	}
}

// replay drives a TypingPlan's steps through a ShadowBuffer the same
// way the executor would, ignoring timing and helper I/O.
func replay(plan core.TypingPlan) string {
	buf := core.NewShadowBuffer()
	for _, step := range plan.Steps {
		switch step.Kind {
		case core.StepChar:
			buf.InsertChar(step.Char)
		case core.StepKey:
			switch step.Key {
			case core.KeyEnter:
				buf.Enter()
			case core.KeyBackspace:
				buf.Backspace()
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
		}
	}
	return buf.Text()
}

func TestPlan_ReplayInvariant_NoErrors(t *testing.T) {
	p := New(1)
	options := defaultOptions()

	inputs := []string{"hi", "hello world", "the quick brown fox", "a\r\nb", ""}
	for _, in := range inputs {
		plan, err := p.Plan(in, options)
		require.NoError(t, err)
		require.Equal(t, core.NormalizeLineEndings(in), replay(plan))
		require.Equal(t, core.NormalizeLineEndings(in), plan.NormalizedText)
	}
}

func TestPlan_ReplayInvariant_WithErrorsAcrossSeeds(t *testing.T) {
	options := defaultOptions()
	options.ErrorRate = 0.5
	text := "the quick brown fox jumps over the lazy dog"

	for seed := int64(0); seed < 20; seed++ {
		p := New(seed)
		plan, err := p.Plan(text, options)
		require.NoError(t, err)
		require.Equal(t, core.NormalizeLineEndings(text), replay(plan))
	}
}

func TestPlan_NewlineNormalization(t *testing.T) {
	p := New(2)
	plan, err := p.Plan("a\r\nb", defaultOptions())
	require.NoError(t, err)
	require.Equal(t, "a\nb", plan.NormalizedText)
	require.Equal(t, "a\nb", replay(plan))
}

func TestPlan_InvalidOptionsRejectedBeforeAnyStep(t *testing.T) {
	p := New(3)
	bad := defaultOptions()
	bad.WPM = 0

	plan, err := p.Plan("hello", bad)
	require.Error(t, err)
	require.True(t, core.IsInvalidOptions(err))
	require.Empty(t, plan.Steps)
}

func TestPlan_ForcedErrorsAroundWhitespaceReplayToTarget(t *testing.T) {
	options := defaultOptions()
	options.ErrorRate = 1.0 // force an error attempt on every eligible character

	for seed := int64(0); seed < 10; seed++ {
		p := New(seed)
		plan, err := p.Plan("a b", options)
		require.NoError(t, err)
		require.Equal(t, "a b", replay(plan))
	}
}

func TestPlan_TransposeNeverChosenAtFinalCharacter(t *testing.T) {
	options := defaultOptions()
	options.ErrorRate = 1.0
	options.Advanced.TypoDoubleWeight = 0
	options.Advanced.TypoNearbyKeyWeight = 0
	options.Advanced.TypoTransposeWeight = 1

	for seed := int64(0); seed < 10; seed++ {
		p := New(seed)
		// 'a' transposes with 'b'; 'c' is the final character and has
		// no valid error kind left, so it is typed plainly.
		plan, err := p.Plan("abc", options)
		require.NoError(t, err)
		require.Equal(t, "abc", replay(plan))
	}
}

func TestPlan_FixSessionDeferredCorrectionsResolveInOrder(t *testing.T) {
	options := defaultOptions()
	options.ErrorRate = 1.0
	options.Advanced.TypoDoubleWeight = 0
	options.Advanced.TypoTransposeWeight = 0
	options.Advanced.TypoNearbyKeyWeight = 1
	options.Advanced.FixSessionProbability = 1.0

	text := "the quick"
	for seed := int64(0); seed < 25; seed++ {
		p := New(seed)
		plan, err := p.Plan(text, options)
		require.NoError(t, err)
		require.Equal(t, text, replay(plan))
	}
}

func TestPlan_DeterministicUnderFixedSeed(t *testing.T) {
	options := defaultOptions()
	options.ErrorRate = 0.3

	p1 := New(42)
	p2 := New(42)

	plan1, err := p1.Plan("deterministic replay", options)
	require.NoError(t, err)
	plan2, err := p2.Plan("deterministic replay", options)
	require.NoError(t, err)

	require.Equal(t, plan1.Steps, plan2.Steps)
}
