//go:build windows

package inject

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// windowsInjector synthesizes input via user32.dll's SendInput, the
// OS-supplied unicode-key mechanism spec §4.2 names.
type windowsInjector struct {
	user32       *windows.LazyDLL
	procSendInput *windows.LazyProc
}

const (
	inputKeyboard = 1

	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002
	keyeventfUnicode     = 0x0004

	vkControl   = 0x11
	vkBack      = 0x08
	vkTab       = 0x09
	vkReturn    = 0x0D
	vkLeft      = 0x25
	vkHome      = 0x24
	vkUp        = 0x26
	vkRight     = 0x27
	vkEnd       = 0x23
)

// keyboardInput mirrors the Win32 KEYBDINPUT structure, packed into
// the generic INPUT union layout SendInput expects.
type keyboardInput struct {
	kind        uint32
	wVK         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
	_           uint64 // pad INPUT to its largest union member's size
}

// New returns an Injector backed by SendInput.
func New() (Injector, error) {
	user32 := windows.NewLazySystemDLL("user32.dll")
	proc := user32.NewProc("SendInput")
	if err := proc.Find(); err != nil {
		return nil, fmt.Errorf("resolve SendInput: %w", err)
	}
	return &windowsInjector{user32: user32, procSendInput: proc}, nil
}

func (w *windowsInjector) sendInputs(inputs []keyboardInput) error {
	if len(inputs) == 0 {
		return nil
	}
	n, _, errno := w.procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if n != uintptr(len(inputs)) {
		return fmt.Errorf("SendInput sent %d/%d events: %v", n, len(inputs), errno)
	}
	time.Sleep(PostEventDwell)
	return nil
}

func (w *windowsInjector) TypeRune(r rune) error {
	down := keyboardInput{kind: inputKeyboard, wScan: uint16(r), dwFlags: keyeventfUnicode}
	up := keyboardInput{kind: inputKeyboard, wScan: uint16(r), dwFlags: keyeventfUnicode | keyeventfKeyUp}
	return w.sendInputs([]keyboardInput{down, up})
}

func vkAndExtended(key Key) (vk uint16, extended bool, ok bool) {
	switch key {
	case KeyEnter:
		return vkReturn, false, true
	case KeyBackspace:
		return vkBack, false, true
	case KeyTab:
		return vkTab, false, true
	case KeyLeft:
		return vkLeft, true, true
	case KeyRight:
		return vkRight, true, true
	case KeyHome:
		return vkHome, true, true
	case KeyEnd:
		return vkEnd, true, true
	default:
		return 0, false, false
	}
}

func (w *windowsInjector) PressKey(key Key, ctrl bool) error {
	vk, extended, ok := vkAndExtended(key)
	if !ok {
		return fmt.Errorf("inject: unknown key %d", key)
	}

	flagsDown := uint32(0)
	flagsUp := uint32(keyeventfKeyUp)
	if extended {
		flagsDown |= keyeventfExtendedKey
		flagsUp |= keyeventfExtendedKey
	}

	var seq []keyboardInput
	if ctrl {
		seq = append(seq, keyboardInput{kind: inputKeyboard, wVK: vkControl})
	}
	seq = append(seq,
		keyboardInput{kind: inputKeyboard, wVK: vk, dwFlags: flagsDown},
		keyboardInput{kind: inputKeyboard, wVK: vk, dwFlags: flagsUp},
	)
	if ctrl {
		seq = append(seq, keyboardInput{kind: inputKeyboard, wVK: vkControl, dwFlags: keyeventfKeyUp})
	}
	return w.sendInputs(seq)
}

func (w *windowsInjector) PressCtrlLetter(letter rune) error {
	vk := uint16('A' + (letter - 'a'))
	return w.sendInputs([]keyboardInput{
		{kind: inputKeyboard, wVK: vkControl},
		{kind: inputKeyboard, wVK: vk},
		{kind: inputKeyboard, wVK: vk, dwFlags: keyeventfKeyUp},
		{kind: inputKeyboard, wVK: vkControl, dwFlags: keyeventfKeyUp},
	})
}

func (w *windowsInjector) Close() error { return nil }
