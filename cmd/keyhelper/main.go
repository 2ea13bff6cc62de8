// Command keyhelper is the privileged subprocess of spec §4.2: it owns
// the OS keystroke-injection capability, speaks the line-delimited
// mini-language on stdin/stdout, and never terminates on a single
// failed command.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/typist/humantype/internal/helper"
	"github.com/typist/humantype/internal/inject"
)

func main() {
	injector, err := inject.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "keyhelper: injector init failed:", err)
		os.Exit(1)
	}
	defer injector.Close()

	writer := bufio.NewWriter(os.Stdout)
	fmt.Fprintln(writer, helper.Ready)
	writer.Flush()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		line := scanner.Text()

		switch line {
		case helper.CmdExit:
			return
		case helper.CmdPing:
			writeAck(writer, true)
			continue
		}

		ok := true
		for _, cmd := range helper.ParseLine(line) {
			if err := dispatch(injector, cmd); err != nil {
				ok = false
			}
		}
		writeAck(writer, ok)
	}
}

func dispatch(injector inject.Injector, cmd helper.Command) error {
	switch cmd.Kind {
	case helper.CmdKindChar:
		return injector.TypeRune(cmd.Char)
	case helper.CmdKindKey:
		if len(cmd.Key) == 1 {
			return injector.PressCtrlLetter(rune(cmd.Key[0]))
		}
		key, ok := namedKey(cmd.Key)
		if !ok {
			return fmt.Errorf("keyhelper: unknown key token %q", cmd.Key)
		}
		return injector.PressKey(key, cmd.Ctrl)
	}
	return fmt.Errorf("keyhelper: unrecognized command")
}

func namedKey(token string) (inject.Key, bool) {
	switch token {
	case "ENTER":
		return inject.KeyEnter, true
	case "BACKSPACE":
		return inject.KeyBackspace, true
	case "TAB":
		return inject.KeyTab, true
	case "LEFT":
		return inject.KeyLeft, true
	case "RIGHT":
		return inject.KeyRight, true
	case "HOME":
		return inject.KeyHome, true
	case "END":
		return inject.KeyEnd, true
	default:
		return 0, false
	}
}

func writeAck(w *bufio.Writer, ok bool) {
	if ok {
		fmt.Fprintln(w, helper.AckOK)
	} else {
		fmt.Fprintln(w, helper.AckErr)
	}
	w.Flush()
}
