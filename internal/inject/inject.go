// Package inject synthesizes keyboard input into whichever window
// currently holds OS focus. Every synthesized key is a down event
// immediately followed by an up event with a short settle dwell. The
// Windows backend sends printable codepoints through the OS unicode-key
// mechanism and named keys as virtual-key codes with extended-key flags
// where applicable; the Linux uinput backend maps a fixed ASCII set and
// the named keys to uinput key codes and rejects any other codepoint.
package inject

import "time"

// PostEventDwell is the short sleep after each synthesized key that
// lets the OS input queue drain before the next command, per spec §4.2.
const PostEventDwell = 3 * time.Millisecond

// Key names an injector can press, mirroring the helper mini-language
// tokens rather than core.KeyName so this package stays independent
// of the domain model.
type Key int

const (
	KeyEnter Key = iota
	KeyBackspace
	KeyTab
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
)

// Injector synthesizes keyboard events against the OS-focused window.
type Injector interface {
	// TypeRune sends a single printable codepoint as a unicode key event.
	TypeRune(r rune) error
	// PressKey sends a down+up pair for a named key, optionally with
	// the Control modifier held.
	PressKey(key Key, ctrl bool) error
	// PressCtrlLetter sends Control+letter as a chord.
	PressCtrlLetter(letter rune) error
	// Close releases any OS resources the injector holds open.
	Close() error
}
