//go:build linux

package inject

import (
	"fmt"
	"time"
	"unicode"

	"github.com/ThomasT75/uinput"
)

// linuxInjector synthesizes input through a uinput virtual keyboard
// device. Printable runes fall back to a best-effort ASCII key-press
// mapping — uinput has no unicode-key primitive, so codepoints outside
// the mapped set are dropped with an error the caller surfaces as an
// injection failure (spec §4.2 "Error surface").
type linuxInjector struct {
	kb uinput.Keyboard
}

// New returns an Injector backed by a uinput virtual keyboard device.
func New() (Injector, error) {
	kb, err := uinput.CreateKeyboard("/dev/uinput", []byte("humantype-keyhelper"))
	if err != nil {
		return nil, fmt.Errorf("create uinput keyboard: %w", err)
	}
	return &linuxInjector{kb: kb}, nil
}

var asciiKeyCodes = buildASCIIKeyCodes()

func buildASCIIKeyCodes() map[rune]int {
	m := map[rune]int{
		'a': uinput.KeyA, 'b': uinput.KeyB, 'c': uinput.KeyC, 'd': uinput.KeyD,
		'e': uinput.KeyE, 'f': uinput.KeyF, 'g': uinput.KeyG, 'h': uinput.KeyH,
		'i': uinput.KeyI, 'j': uinput.KeyJ, 'k': uinput.KeyK, 'l': uinput.KeyL,
		'm': uinput.KeyM, 'n': uinput.KeyN, 'o': uinput.KeyO, 'p': uinput.KeyP,
		'q': uinput.KeyQ, 'r': uinput.KeyR, 's': uinput.KeyS, 't': uinput.KeyT,
		'u': uinput.KeyU, 'v': uinput.KeyV, 'w': uinput.KeyW, 'x': uinput.KeyX,
		'y': uinput.KeyY, 'z': uinput.KeyZ,
		'0': uinput.Key0, '1': uinput.Key1, '2': uinput.Key2, '3': uinput.Key3,
		'4': uinput.Key4, '5': uinput.Key5, '6': uinput.Key6, '7': uinput.Key7,
		'8': uinput.Key8, '9': uinput.Key9,
		' ': uinput.KeySpace, '.': uinput.KeyDot, ',': uinput.KeyComma,
		'-': uinput.KeyMinus, '/': uinput.KeySlash, ';': uinput.KeySemicolon,
		'\'': uinput.KeyApostrophe,
	}
	return m
}

func (l *linuxInjector) TypeRune(r rune) error {
	lower := unicode.ToLower(r)
	code, ok := asciiKeyCodes[lower]
	if !ok {
		return fmt.Errorf("inject: unsupported codepoint %q on uinput backend", r)
	}
	shift := unicode.IsUpper(r)
	if shift {
		if err := l.kb.KeyDown(uinput.KeyLeftshift); err != nil {
			return err
		}
	}
	err := l.kb.KeyPress(code)
	if shift {
		_ = l.kb.KeyUp(uinput.KeyLeftshift)
	}
	time.Sleep(PostEventDwell)
	return err
}

var namedKeyCodes = map[Key]int{
	KeyEnter:     uinput.KeyEnter,
	KeyBackspace: uinput.KeyBackspace,
	KeyTab:       uinput.KeyTab,
	KeyLeft:      uinput.KeyLeft,
	KeyRight:     uinput.KeyRight,
	KeyHome:      uinput.KeyHome,
	KeyEnd:       uinput.KeyEnd,
}

func (l *linuxInjector) PressKey(key Key, ctrl bool) error {
	code, ok := namedKeyCodes[key]
	if !ok {
		return fmt.Errorf("inject: unknown key %d", key)
	}
	if ctrl {
		if err := l.kb.KeyDown(uinput.KeyLeftctrl); err != nil {
			return err
		}
	}
	err := l.kb.KeyPress(code)
	if ctrl {
		_ = l.kb.KeyUp(uinput.KeyLeftctrl)
	}
	time.Sleep(PostEventDwell)
	return err
}

func (l *linuxInjector) PressCtrlLetter(letter rune) error {
	code, ok := asciiKeyCodes[unicode.ToLower(letter)]
	if !ok {
		return fmt.Errorf("inject: unsupported ctrl-letter %q", letter)
	}
	if err := l.kb.KeyDown(uinput.KeyLeftctrl); err != nil {
		return err
	}
	err := l.kb.KeyPress(code)
	_ = l.kb.KeyUp(uinput.KeyLeftctrl)
	time.Sleep(PostEventDwell)
	return err
}

func (l *linuxInjector) Close() error {
	return l.kb.Close()
}
