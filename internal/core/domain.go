// Package core holds the typing engine's shared domain types and the
// hexagonal ports that let the planner, executor, helper client, and
// engine facade depend on interfaces instead of each other's concrete
// types.
package core

import "strings"

// AdvancedOptions biases the planner's error-generation and
// fix-session behavior. config.Load fills keys absent from the config
// file and environment with defaults; values set explicitly, zeros
// included, are kept. Plan itself treats zero weights as "never choose
// this error kind".
type AdvancedOptions struct {
	TypoDoubleWeight        float64 `mapstructure:"typo_double_weight"`
	TypoTransposeWeight     float64 `mapstructure:"typo_transpose_weight"`
	TypoNearbyKeyWeight     float64 `mapstructure:"typo_nearby_key_weight"`
	FixSessionProbability   float64 `mapstructure:"fix_session_probability"`
	FinalVerifyViaClipboard bool    `mapstructure:"final_verify_via_clipboard"`
	FinalRewriteOnMismatch  bool    `mapstructure:"final_rewrite_on_mismatch"`
	FinalVerifyMaxAttempts  int     `mapstructure:"final_verify_max_attempts"`
}

// TypingOptions is the behavioral profile that, together with a target
// string, the planner turns into a TypingPlan.
type TypingOptions struct {
	WPM             float64         `mapstructure:"wpm"`
	Variance        float64         `mapstructure:"variance"`
	ErrorRate       float64         `mapstructure:"error_rate"`
	CorrectionDelay float64         `mapstructure:"correction_delay"`
	Advanced        AdvancedOptions `mapstructure:"advanced"`
}

// Validate enforces the InvalidOptions failure mode of spec §4.1: a
// planner never emits a partial plan for bad input.
func (o TypingOptions) Validate() error {
	switch {
	case o.WPM <= 0:
		return NewInvalidOptionsError("wpm must be > 0")
	case o.Variance < 0 || o.Variance > 1:
		return NewInvalidOptionsError("variance must be within [0, 1]")
	case o.ErrorRate < 0 || o.ErrorRate > 1:
		return NewInvalidOptionsError("error_rate must be within [0, 1]")
	case o.CorrectionDelay < 0:
		return NewInvalidOptionsError("correction_delay must be >= 0")
	case o.Advanced.FixSessionProbability < 0 || o.Advanced.FixSessionProbability > 1:
		return NewInvalidOptionsError("advanced.fix_session_probability must be within [0, 1]")
	case o.Advanced.FinalVerifyMaxAttempts < 1:
		return NewInvalidOptionsError("advanced.final_verify_max_attempts must be >= 1")
	}
	return nil
}

// KeyName is the closed enumeration of non-character keys the engine
// can dispatch, per spec §3.
type KeyName string

const (
	KeyEnter    KeyName = "ENTER"
	KeyBackspace KeyName = "BACKSPACE"
	KeyLeft     KeyName = "LEFT"
	KeyRight    KeyName = "RIGHT"
	KeyHome     KeyName = "HOME"
	KeyEnd      KeyName = "END"
	KeyCtrlHome KeyName = "CTRL_HOME"
	KeyCtrlEnd  KeyName = "CTRL_END"
)

// StepKind discriminates the TypingStep tagged variant. Go has no
// sum types, so TypingStep carries one field per kind and Kind says
// which is live — the same shape the teacher uses for
// core.Task.Type/Params.
type StepKind int

const (
	StepChar StepKind = iota
	StepKey
	StepPause
)

// TypingStep is one atomic unit of a TypingPlan.
type TypingStep struct {
	Kind              StepKind
	Char              rune    // valid when Kind == StepChar
	Key               KeyName // valid when Kind == StepKey
	Reason            string  // valid when Kind == StepPause; prefixes: fix-session, correction, realization, reflex
	DelayAfterSeconds float64 // valid when Kind == StepChar or StepKey
	PauseSeconds      float64 // valid when Kind == StepPause
}

// IsCorrectionReason reports whether a Pause step's reason begins with
// a prefix the executor treats as entering a correction sequence.
func (s TypingStep) IsCorrectionReason() bool {
	for _, prefix := range []string{"fix-session", "correction", "realization", "reflex"} {
		if strings.HasPrefix(s.Reason, prefix) {
			return true
		}
	}
	return false
}

// IsFixSessionReason reports whether a Pause step opens or closes a
// fix session specifically (a stricter check than IsCorrectionReason).
func (s TypingStep) IsFixSessionReason() bool {
	return strings.HasPrefix(s.Reason, "fix-session")
}

// TypingPlan is the planner's complete, ordered output for one run.
type TypingPlan struct {
	NormalizedText string
	Steps          []TypingStep
}

// NormalizeLineEndings collapses "\r\n" and "\r" to "\n", per spec §3.
func NormalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}

// ShadowBuffer mirrors what the target application's focused input
// should now contain, as predicted by the executor from acked steps.
type ShadowBuffer struct {
	chars    []rune
	caret    int
	Warnings int
}

// NewShadowBuffer returns an empty buffer with caret at 0.
func NewShadowBuffer() *ShadowBuffer {
	return &ShadowBuffer{}
}

// Text returns the buffer's current contents.
func (b *ShadowBuffer) Text() string { return string(b.chars) }

// Caret returns the current caret index, 0 <= Caret() <= len(Text()).
func (b *ShadowBuffer) Caret() int { return b.caret }

// InsertChar inserts r at the caret and advances the caret by one.
func (b *ShadowBuffer) InsertChar(r rune) {
	b.chars = append(b.chars, 0)
	copy(b.chars[b.caret+1:], b.chars[b.caret:])
	b.chars[b.caret] = r
	b.caret++
}

// Backspace deletes the character behind the caret. A no-op at
// caret == 0 that increments Warnings, per spec §3 and §8 invariant 4.
func (b *ShadowBuffer) Backspace() {
	if b.caret == 0 {
		b.Warnings++
		return
	}
	b.chars = append(b.chars[:b.caret-1], b.chars[b.caret:]...)
	b.caret--
}

// Left moves the caret one position left. A no-op at caret == 0.
func (b *ShadowBuffer) Left() {
	if b.caret == 0 {
		b.Warnings++
		return
	}
	b.caret--
}

// Right moves the caret one position right. A no-op at caret == len.
func (b *ShadowBuffer) Right() {
	if b.caret == len(b.chars) {
		b.Warnings++
		return
	}
	b.caret++
}

// Home moves the caret to 0.
func (b *ShadowBuffer) Home() { b.caret = 0 }

// End moves the caret to len(chars).
func (b *ShadowBuffer) End() { b.caret = len(b.chars) }

// CtrlHome behaves like Home for this single-line-aware buffer (the
// shadow buffer does not model multi-line caret geometry beyond the
// single normalized '\n' separator, which matches spec §3's
// local-semantics definition).
func (b *ShadowBuffer) CtrlHome() { b.Home() }

// CtrlEnd behaves like End.
func (b *ShadowBuffer) CtrlEnd() { b.End() }

// Enter inserts a newline at the caret, same insertion semantics as a
// character.
func (b *ShadowBuffer) Enter() { b.InsertChar('\n') }

// AssertValid checks the caret invariant and increments Warnings
// (never aborts) on violation, per spec §4.4 "shadow-buffer validation".
func (b *ShadowBuffer) AssertValid() {
	if b.caret < 0 || b.caret > len(b.chars) {
		b.Warnings++
		if b.caret < 0 {
			b.caret = 0
		}
		if b.caret > len(b.chars) {
			b.caret = len(b.chars)
		}
	}
}

// SequenceContext is the executor's ephemeral per-run tracking state,
// per spec §3.
type SequenceContext struct {
	InCorrectionSequence bool
	InFixSession         bool
	ConsecutiveBackspaces int
	LastWasNavigation    bool
	LastWasBackspace     bool
	LastTypedChars       [2]rune
	CharsSinceLastNonChar int
}

// PushTypedChar records r as the most recently typed character,
// shifting the 2-element ring.
func (s *SequenceContext) PushTypedChar(r rune) {
	s.LastTypedChars[0] = s.LastTypedChars[1]
	s.LastTypedChars[1] = r
}

// LastTwoIdentical reports whether the last two typed chars are equal
// and non-zero (used by the double-char backspace settle rule).
func (s *SequenceContext) LastTwoIdentical() bool {
	return s.LastTypedChars[0] != 0 && s.LastTypedChars[0] == s.LastTypedChars[1]
}

// ResetCharRun clears char-run tracking, invoked after ENTER per spec §4.4.
func (s *SequenceContext) ResetCharRun() {
	s.LastTypedChars = [2]rune{}
	s.CharsSinceLastNonChar = 0
}

// EndCorrectionSequence clears every correction/fix-session flag.
func (s *SequenceContext) EndCorrectionSequence() {
	s.InCorrectionSequence = false
	s.InFixSession = false
}

// Statistics is returned by Executor.Execute on completion, per spec §4.4.
type Statistics struct {
	TotalSteps      int
	CharTyped       int
	BackspaceCount  int
	NavigationCount int
	PauseCount      int
	TotalTimeMs     int64
	WarningsCount   int
}
