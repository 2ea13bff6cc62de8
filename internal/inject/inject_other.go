//go:build !windows && !linux

package inject

import "fmt"

// otherInjector is the best-effort fallback for platforms with no
// wired injection backend, per spec's Non-goals: cross-platform
// coverage beyond Windows/Linux is not promised, but the helper must
// still fail each command with ERR rather than panic or silently
// no-op (spec §4.2 "Error surface").
type otherInjector struct{}

// New returns an Injector that reports every operation as unsupported.
func New() (Injector, error) {
	return &otherInjector{}, nil
}

var errUnsupportedPlatform = fmt.Errorf("inject: no keystroke injection backend on this platform")

func (otherInjector) TypeRune(rune) error            { return errUnsupportedPlatform }
func (otherInjector) PressKey(Key, bool) error       { return errUnsupportedPlatform }
func (otherInjector) PressCtrlLetter(rune) error     { return errUnsupportedPlatform }
func (otherInjector) Close() error                   { return nil }
