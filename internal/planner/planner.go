// Package planner turns target text and a behavioral profile into an
// ordered TypingPlan: characters, navigation keys, and pauses that,
// replayed through ShadowBuffer's local semantics, reproduce the
// normalized text exactly (spec §4.1).
//
// Grounded on the teacher's internal/stealth/keyboard.go (typo
// generation, WPM-to-delay conversion) and internal/stealth/jitter.go
// (bounded randomized delay), generalized from a single "typo +
// immediate correction" model into the three error kinds, deferred
// fix sessions, and rhythm pauses spec.md requires.
package planner

import (
	"math"
	"math/rand"
	"time"
	"unicode"

	"github.com/typist/humantype/internal/core"
)

// Planner is a deterministic-under-fixed-seed TypingPlan generator.
// The teacher's stealth components each hold their own *rand.Rand
// field seeded from process entropy; here the seed is always
// explicit so production code and tests share one constructor.
type Planner struct {
	rng *rand.Rand
}

// New returns a Planner seeded deterministically — the same seed
// always produces the same plan for the same (text, options).
func New(seed int64) *Planner {
	return &Planner{rng: rand.New(rand.NewSource(seed))}
}

// NewFromEntropy returns a Planner seeded from process entropy, for
// production use where reproducibility is not required.
func NewFromEntropy() *Planner {
	return New(time.Now().UnixNano())
}

type errorKind int

const (
	errNone errorKind = iota
	errDouble
	errTranspose
	errNearbyKey
)

// pendingFix is a deferred nearby-key error awaiting a fix session.
type pendingFix struct {
	streamIndex int  // 0-based position of the wrong char in the output stream
	correct     rune // the character that should have been typed there
}

// Plan implements spec §4.1. It fails with InvalidOptionsError before
// emitting any step when options are out of range (no partial plans).
func (p *Planner) Plan(text string, options core.TypingOptions) (core.TypingPlan, error) {
	if err := options.Validate(); err != nil {
		return core.TypingPlan{}, err
	}

	normalized := core.NormalizeLineEndings(text)
	runes := []rune(normalized)
	baseDelay := 60.0 / (options.WPM * 5)

	steps := make([]core.TypingStep, 0, len(runes)*2)

	var pending []pendingFix
	fixBatchTarget := p.randBatchSize()

	var prevChar rune
	repeatRunHadNonDoubleError := false
	wordCount := 0
	nextWordBreak := 5 + p.rng.Intn(8)

	flushFixSession := func() {
		if len(pending) == 0 {
			return
		}
		steps = append(steps, core.TypingStep{Kind: core.StepPause, PauseSeconds: 0.12, Reason: "fix-session-start"})
		streamLen := len(streamSoFar(steps))
		for _, item := range pending {
			distance := streamLen - 1 - item.streamIndex
			steps = append(steps, core.TypingStep{Kind: core.StepKey, Key: core.KeyCtrlEnd, DelayAfterSeconds: p.delay(baseDelay, options.Variance) * 0.5})
			for i := 0; i < distance; i++ {
				steps = append(steps, core.TypingStep{Kind: core.StepKey, Key: core.KeyLeft, DelayAfterSeconds: p.delay(baseDelay, options.Variance) * 0.3})
			}
			steps = append(steps, core.TypingStep{Kind: core.StepKey, Key: core.KeyBackspace, DelayAfterSeconds: p.delay(baseDelay, options.Variance) * 0.3})
			steps = append(steps, core.TypingStep{Kind: core.StepChar, Char: item.correct, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
		}
		steps = append(steps, core.TypingStep{Kind: core.StepKey, Key: core.KeyCtrlEnd, DelayAfterSeconds: p.delay(baseDelay, options.Variance) * 0.5})
		steps = append(steps, core.TypingStep{Kind: core.StepPause, PauseSeconds: 0.1, Reason: "fix-session-end"})
		pending = nil
		fixBatchTarget = p.randBatchSize()
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch != prevChar {
			repeatRunHadNonDoubleError = false
		}

		kind := errNone
		if p.shouldAttemptError(ch, options.ErrorRate, repeatRunHadNonDoubleError) {
			kind = p.chooseErrorKind(ch, i, len(runes), options.Advanced)
		}

		switch kind {
		case errDouble:
			steps = append(steps, core.TypingStep{Kind: core.StepChar, Char: ch, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
			steps = append(steps, core.TypingStep{Kind: core.StepChar, Char: ch, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
			steps = append(steps, core.TypingStep{Kind: core.StepPause, PauseSeconds: options.CorrectionDelay, Reason: p.correctionReason()})
			steps = append(steps, core.TypingStep{Kind: core.StepKey, Key: core.KeyBackspace, DelayAfterSeconds: p.delay(baseDelay, options.Variance) * 0.4})

		case errTranspose:
			next := runes[i+1]
			steps = append(steps, core.TypingStep{Kind: core.StepChar, Char: next, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
			steps = append(steps, core.TypingStep{Kind: core.StepChar, Char: ch, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
			steps = append(steps, core.TypingStep{Kind: core.StepPause, PauseSeconds: options.CorrectionDelay, Reason: p.correctionReason()})
			steps = append(steps, core.TypingStep{Kind: core.StepKey, Key: core.KeyBackspace, DelayAfterSeconds: p.delay(baseDelay, options.Variance) * 0.4})
			steps = append(steps, core.TypingStep{Kind: core.StepKey, Key: core.KeyBackspace, DelayAfterSeconds: p.delay(baseDelay, options.Variance) * 0.4})
			steps = append(steps, core.TypingStep{Kind: core.StepChar, Char: ch, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
			steps = append(steps, core.TypingStep{Kind: core.StepChar, Char: next, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
			repeatRunHadNonDoubleError = true
			i++ // the next rune was already consumed by the transposition
			prevChar = next
			continue

		case errNearbyKey:
			typo := core.NearbyKey(ch, p.rng.Intn)
			deferred := options.Advanced.FixSessionProbability > 0 &&
				p.rng.Float64() < options.Advanced.FixSessionProbability
			if deferred {
				steps = append(steps, core.TypingStep{Kind: core.StepChar, Char: typo, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
				pending = append(pending, pendingFix{streamIndex: len(streamSoFar(steps)) - 1, correct: ch})
				if len(pending) >= fixBatchTarget {
					flushFixSession()
				}
			} else {
				steps = append(steps, core.TypingStep{Kind: core.StepChar, Char: typo, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
				steps = append(steps, core.TypingStep{Kind: core.StepPause, PauseSeconds: options.CorrectionDelay, Reason: p.correctionReason()})
				steps = append(steps, core.TypingStep{Kind: core.StepKey, Key: core.KeyBackspace, DelayAfterSeconds: p.delay(baseDelay, options.Variance) * 0.4})
				steps = append(steps, core.TypingStep{Kind: core.StepChar, Char: ch, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
			}
			repeatRunHadNonDoubleError = true

		default:
			if ch == '\n' {
				steps = append(steps, core.TypingStep{Kind: core.StepKey, Key: core.KeyEnter, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
			} else {
				steps = append(steps, core.TypingStep{Kind: core.StepChar, Char: ch, DelayAfterSeconds: p.delay(baseDelay, options.Variance)})
			}
		}

		if unicode.IsSpace(ch) {
			wordCount++
		}
		if wordCount >= nextWordBreak {
			steps = append(steps, core.TypingStep{Kind: core.StepPause, PauseSeconds: 0.15 + p.rng.Float64()*0.25, Reason: "reflex-word-break"})
			wordCount = 0
			nextWordBreak = 5 + p.rng.Intn(8)
		} else if (ch == '.' || ch == '!' || ch == '?') && p.rng.Float64() < 0.3 {
			steps = append(steps, core.TypingStep{Kind: core.StepPause, PauseSeconds: 0.3 + p.rng.Float64()*0.4, Reason: "reflex-sentence-end"})
		}

		prevChar = ch
	}

	flushFixSession()

	return core.TypingPlan{NormalizedText: normalized, Steps: steps}, nil
}

// shouldAttemptError applies the structural rules of spec §4.1 step 3:
// never error on whitespace, and at most one non-double error per run
// of identical characters.
func (p *Planner) shouldAttemptError(ch rune, errorRate float64, repeatRunHadNonDoubleError bool) bool {
	if unicode.IsSpace(ch) {
		return false
	}
	if repeatRunHadNonDoubleError {
		return false
	}
	return p.rng.Float64() < errorRate
}

// chooseErrorKind performs the weighted choice of spec §4.1 step 4,
// restricted to kinds that are structurally valid at this position:
// transpose needs a following character (resolving Open Question (a)
// by never transposing the final character of the text), nearby-key
// needs a known QWERTY neighbor.
func (p *Planner) chooseErrorKind(ch rune, i, n int, adv core.AdvancedOptions) errorKind {
	type choice struct {
		kind   errorKind
		weight float64
	}
	choices := []choice{{errDouble, adv.TypoDoubleWeight}}
	if i+1 < n {
		choices = append(choices, choice{errTranspose, adv.TypoTransposeWeight})
	}
	if core.HasNeighbor(ch) {
		choices = append(choices, choice{errNearbyKey, adv.TypoNearbyKeyWeight})
	}

	total := 0.0
	for _, c := range choices {
		total += c.weight
	}
	if total <= 0 {
		return errNone
	}

	r := p.rng.Float64() * total
	acc := 0.0
	for _, c := range choices {
		acc += c.weight
		if r <= acc {
			return c.kind
		}
	}
	return errNone
}

// delay samples a per-character delay as base * jitter, where jitter
// is a Box-Muller normal sample scaled by variance and clamped to
// [0.3, 2.5]x base, per spec §4.1 step 2. Manual Box-Muller matches
// the teacher's internal/stealth/jitter.go GaussianDelay and
// hackathon758 sibling's TimingController.normalRandom.
func (p *Planner) delay(base, variance float64) float64 {
	u1 := p.rng.Float64()
	u2 := p.rng.Float64()
	if u1 <= 0 {
		u1 = 1e-9
	}
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	factor := 1 + z*variance
	if factor < 0.3 {
		factor = 0.3
	}
	if factor > 2.5 {
		factor = 2.5
	}
	return base * factor
}

// randBatchSize picks a fix-session batch size K in [2, 5], per spec
// §4.1 step 5.
func (p *Planner) randBatchSize() int {
	return 2 + p.rng.Intn(4)
}

// correctionReason picks one of the two immediate-correction pause
// reasons spec §3 names at random, with equal odds.
func (p *Planner) correctionReason() string {
	if p.rng.Float64() < 0.5 {
		return "correction"
	}
	return "realization"
}

// streamSoFar returns the characters the steps emitted so far leave
// typed; its length is the planner's notion of "current typed length"
// used to compute fix-session navigation distances. ENTER counts as one
// character (a newline), matching ShadowBuffer's insertion semantics;
// BACKSPACE removes the last character and navigation keys are ignored,
// so the length is exact while the contents after a fix session are not.
func streamSoFar(steps []core.TypingStep) []rune {
	out := make([]rune, 0, len(steps))
	for _, s := range steps {
		switch s.Kind {
		case core.StepChar:
			out = append(out, s.Char)
		case core.StepKey:
			switch s.Key {
			case core.KeyEnter:
				out = append(out, '\n')
			case core.KeyBackspace:
				if len(out) > 0 {
					out = out[:len(out)-1]
				}
			}
		}
	}
	return out
}
