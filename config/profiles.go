package config

import "github.com/typist/humantype/internal/core"

// Named behavioral presets, supplementing the distilled spec with
// quick-start speed/accuracy profiles that sit above the raw
// WPM/variance/error-rate knobs.
var (
	ProfileCareful = core.TypingOptions{
		WPM:             38,
		Variance:        0.18,
		ErrorRate:       0.015,
		CorrectionDelay: 0.45,
		Advanced: core.AdvancedOptions{
			TypoDoubleWeight:      1.0,
			TypoTransposeWeight:   0.5,
			TypoNearbyKeyWeight:   1.5,
			FixSessionProbability: 0.1,
			FinalVerifyMaxAttempts: 2,
		},
	}

	ProfileAverage = core.TypingOptions{
		WPM:             65,
		Variance:        0.3,
		ErrorRate:       0.04,
		CorrectionDelay: 0.35,
		Advanced: core.AdvancedOptions{
			TypoDoubleWeight:      1.0,
			TypoTransposeWeight:   1.0,
			TypoNearbyKeyWeight:   2.0,
			FixSessionProbability: 0.3,
			FinalVerifyMaxAttempts: 2,
		},
	}

	ProfileFast = core.TypingOptions{
		WPM:             95,
		Variance:        0.42,
		ErrorRate:       0.07,
		CorrectionDelay: 0.25,
		Advanced: core.AdvancedOptions{
			TypoDoubleWeight:      1.2,
			TypoTransposeWeight:   1.5,
			TypoNearbyKeyWeight:   2.5,
			FixSessionProbability: 0.5,
			FinalVerifyMaxAttempts: 3,
		},
	}
)

// ProfileByName looks up a named preset, defaulting to ProfileAverage.
func ProfileByName(name string) core.TypingOptions {
	switch name {
	case "careful":
		return ProfileCareful
	case "fast":
		return ProfileFast
	default:
		return ProfileAverage
	}
}
