// Package sysclipboard adapts the OS clipboard to core.ClipboardPort
// using github.com/atotto/clipboard, for the engine facade's
// verify-and-rewrite fallback (spec §4.5).
package sysclipboard

import "github.com/atotto/clipboard"

// Clipboard implements core.ClipboardPort against the real OS clipboard.
type Clipboard struct{}

// New returns a Clipboard.
func New() Clipboard { return Clipboard{} }

// Read implements core.ClipboardPort.
func (Clipboard) Read() (string, error) { return clipboard.ReadAll() }

// Write implements core.ClipboardPort.
func (Clipboard) Write(text string) error { return clipboard.WriteAll(text) }
