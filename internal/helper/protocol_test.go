package helper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typist/humantype/internal/core"
)

func TestEncodeChar_EscapesMetacharacters(t *testing.T) {
	cases := map[rune]string{
		'{':  "{{",
		'}':  "}}",
		'+':  "{+}",
		'^':  "{^}",
		'%':  "{%}",
		'~':  "{~}",
		'(':  "{(}",
		')':  "{)}",
		'\t': "{TAB}",
		'a':  "a",
	}
	for r, want := range cases {
		require.Equal(t, want, EncodeChar(r))
	}
}

func TestEncodeKey_NamedAndCtrlChords(t *testing.T) {
	require.Equal(t, "{ENTER}", EncodeKey(core.KeyEnter))
	require.Equal(t, "{BACKSPACE}", EncodeKey(core.KeyBackspace))
	require.Equal(t, "^{HOME}", EncodeKey(core.KeyCtrlHome))
	require.Equal(t, "^{END}", EncodeKey(core.KeyCtrlEnd))
}

func TestEncodeCtrlLetter(t *testing.T) {
	require.Equal(t, "^a", EncodeCtrlLetter('a'))
	require.Equal(t, "^c", EncodeCtrlLetter('c'))
}

func TestParseLine_NamedKeys(t *testing.T) {
	cmds := ParseLine("{ENTER}")
	require.Len(t, cmds, 1)
	require.Equal(t, CmdKindKey, cmds[0].Kind)
	require.Equal(t, "ENTER", cmds[0].Key)
	require.False(t, cmds[0].Ctrl)
}

func TestParseLine_CtrlChords(t *testing.T) {
	cmds := ParseLine("^{END}")
	require.Len(t, cmds, 1)
	require.Equal(t, "END", cmds[0].Key)
	require.True(t, cmds[0].Ctrl)

	cmds = ParseLine("^a")
	require.Len(t, cmds, 1)
	require.Equal(t, "a", cmds[0].Key)
	require.True(t, cmds[0].Ctrl)
}

func TestParseLine_EscapedLiterals(t *testing.T) {
	cmds := ParseLine("{{}}{+}")
	require.Len(t, cmds, 3)
	require.Equal(t, CmdKindChar, cmds[0].Kind)
	require.Equal(t, '{', cmds[0].Char)
	require.Equal(t, '}', cmds[1].Char)
	require.Equal(t, '+', cmds[2].Char)
}

func TestParseLine_PlainTextAndMixedTokens(t *testing.T) {
	cmds := ParseLine("hi{ENTER}bye")
	require.Len(t, cmds, 6)
	require.Equal(t, byte('h'), byte(cmds[0].Char))
	require.Equal(t, byte('i'), byte(cmds[1].Char))
	require.Equal(t, CmdKindKey, cmds[2].Kind)
	require.Equal(t, "ENTER", cmds[2].Key)
	require.Equal(t, byte('b'), byte(cmds[3].Char))
}

func TestParseLine_UnclosedBraceTypesRemainderVerbatim(t *testing.T) {
	cmds := ParseLine("oops{unterminated")
	for _, c := range cmds {
		require.Equal(t, CmdKindChar, c.Kind)
	}
	var out []rune
	for _, c := range cmds {
		out = append(out, c.Char)
	}
	require.Equal(t, "oops{unterminated", string(out))
}

func TestEncodeThenParse_RoundTripsForPrintableChars(t *testing.T) {
	for _, r := range "abcXYZ 123!@#" {
		line := EncodeChar(r)
		cmds := ParseLine(line)
		require.Len(t, cmds, 1)
		require.Equal(t, CmdKindChar, cmds[0].Kind)
		require.Equal(t, r, cmds[0].Char)
	}
}
