// Package helper implements both sides of the keystroke-helper wire
// protocol from spec §4.2/§4.3/§6: a line-delimited mini-language for
// encoding commands (used by the executor and engine facade) and a
// parser for that same mini-language (used by cmd/keyhelper).
package helper

import (
	"strings"

	"github.com/typist/humantype/internal/core"
)

// Special control sentinels, per spec §4.2.
const (
	CmdExit = "__EXIT__"
	CmdPing = "__PING__"

	AckOK  = "OK"
	AckErr = "ERR"
	Ready  = "READY"
)

var namedKeyTokens = map[core.KeyName]string{
	core.KeyEnter:     "ENTER",
	core.KeyBackspace: "BACKSPACE",
	core.KeyLeft:      "LEFT",
	core.KeyRight:     "RIGHT",
	core.KeyHome:      "HOME",
	core.KeyEnd:       "END",
}

// escapedLiterals is the set of characters that must be brace-escaped
// because they are mini-language metacharacters, per spec §4.2.
var escapedLiterals = map[rune]string{
	'{': "{{",
	'}': "}}",
	'+': "{+}",
	'^': "{^}",
	'%': "{%}",
	'~': "{~}",
	'(': "{(}",
	')': "{)}",
}

// EncodeChar returns the line that types a single character, escaping
// mini-language metacharacters and special-casing tab per spec §4.4
// ("tab is sent as {TAB}").
func EncodeChar(r rune) string {
	if r == '\t' {
		return "{TAB}"
	}
	if esc, ok := escapedLiterals[r]; ok {
		return esc
	}
	return string(r)
}

// EncodeKey returns the line for a named key, using a "^{...}" chord
// for CTRL_HOME/CTRL_END per spec §4.2.
func EncodeKey(key core.KeyName) string {
	switch key {
	case core.KeyCtrlHome:
		return "^{HOME}"
	case core.KeyCtrlEnd:
		return "^{END}"
	default:
		if tok, ok := namedKeyTokens[key]; ok {
			return "{" + tok + "}"
		}
		return ""
	}
}

// EncodeCtrlLetter returns the "^x" chord line for Control+letter,
// used by the engine facade's clipboard verify step (^a, ^c).
func EncodeCtrlLetter(letter rune) string {
	return "^" + strings.ToLower(string(letter))
}

// CommandKind discriminates a parsed helper command.
type CommandKind int

const (
	CmdKindChar CommandKind = iota
	CmdKindKey
)

// Command is one parsed unit from a helper input line.
type Command struct {
	Kind CommandKind
	Char rune    // valid when Kind == CmdKindChar
	Key  string  // virtual key token, valid when Kind == CmdKindKey: ENTER, BACKSPACE, TAB, LEFT, RIGHT, HOME, END, or a bare lowercase letter
	Ctrl bool    // Control modifier held for this key
}

var namedKeys = map[string]bool{
	"ENTER": true, "BACKSPACE": true, "TAB": true,
	"LEFT": true, "RIGHT": true, "HOME": true, "END": true,
}

// ParseLine implements the helper's mini-language (spec §4.2): brace
// tokens denote named keys or escaped literals, "^x"/"^{HOME}"/"^{END}"
// denote control chords, and any other rune types literally. A
// trailing unclosed '{' types the remainder verbatim.
func ParseLine(line string) []Command {
	runes := []rune(line)
	var cmds []Command

	for i := 0; i < len(runes); {
		r := runes[i]

		if r == '^' && i+1 < len(runes) {
			if runes[i+1] == '{' {
				if end, tok, ok := readBraceToken(runes, i+1); ok {
					if tok == "HOME" || tok == "END" {
						cmds = append(cmds, Command{Kind: CmdKindKey, Key: tok, Ctrl: true})
						i = end
						continue
					}
				}
			} else if isASCIILower(runes[i+1]) {
				cmds = append(cmds, Command{Kind: CmdKindKey, Key: string(runes[i+1]), Ctrl: true})
				i += 2
				continue
			}
		}

		if (r == '{' || r == '}') && i+1 < len(runes) && runes[i+1] == r {
			// {{ and }} -> literal brace
			cmds = append(cmds, Command{Kind: CmdKindChar, Char: r})
			i += 2
			continue
		}

		if r == '{' {
			if end, tok, ok := readBraceToken(runes, i); ok {
				switch {
				case namedKeys[tok]:
					cmds = append(cmds, Command{Kind: CmdKindKey, Key: tok})
					i = end
					continue
				case len(tok) == 1:
					// {+} {^} {%} {~} {(} {)} -> literal char
					cmds = append(cmds, Command{Kind: CmdKindChar, Char: []rune(tok)[0]})
					i = end
					continue
				}
			}
			// Unclosed or unrecognized '{' — type the remainder verbatim.
			for ; i < len(runes); i++ {
				cmds = append(cmds, Command{Kind: CmdKindChar, Char: runes[i]})
			}
			continue
		}

		cmds = append(cmds, Command{Kind: CmdKindChar, Char: r})
		i++
	}

	return cmds
}

// readBraceToken reads a "{TOKEN}" starting at runes[start] == '{'.
// Returns the index just past the closing brace, the token text, and
// whether a closing brace was found at all.
func readBraceToken(runes []rune, start int) (end int, token string, ok bool) {
	for j := start + 1; j < len(runes); j++ {
		if runes[j] == '}' {
			return j + 1, string(runes[start+1 : j]), true
		}
	}
	return 0, "", false
}

func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }
