package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexStripsCommentsAndStrings(t *testing.T) {
	testCases := []struct {
		line     string
		expected string
	}{
		{`let a = 1`, `let a = 1`},
		{`let a = 1 // .Default`, `let a = 1 `},
		{`let s = "x.Default"`, `let s = ""`},
		{`let s = "a \"quoted\" word" + b`, `let s = "" + b`},
		{`print("v: \(f("x")) done")`, `print("")`},
		{`let a = /* inline */ b`, `let a =   b`},
		{`let url = "http://example.com"`, `let url = ""`},
	}

	for _, tc := range testCases {
		l := lineLexer{}
		result := l.lex(tc.line)
		assert.Equal(t, tc.expected, result.code, tc.line)
		assert.False(t, result.unterminatedString, tc.line)
		assert.False(t, l.inComment(), tc.line)
	}
}

func TestLexTracksBlockCommentsAcrossLines(t *testing.T) {
	l := lineLexer{}

	first := l.lex("let a = 1 /* open")
	assert.Equal(t, "let a = 1 ", first.code)
	assert.True(t, first.insideComment)
	assert.True(t, l.inComment())

	second := l.lex("  /* nested */ .Default")
	assert.Equal(t, "", second.code)
	assert.True(t, second.insideComment)

	third := l.lex("*/ let b = 2")
	assert.Equal(t, "  let b = 2", third.code)
	assert.True(t, third.insideComment)
	assert.False(t, l.inComment())

	fourth := l.lex("let c = 3")
	assert.False(t, fourth.insideComment)
}

func TestLexReportsUnterminatedString(t *testing.T) {
	l := lineLexer{}
	result := l.lex(`let s = "never closed`)
	assert.True(t, result.unterminatedString)
	assert.Equal(t, `let s = ""`, result.code)

	result = l.lex(`let s = "\(open`)
	assert.True(t, result.unterminatedString)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\r\nb"))
	assert.Equal(t, []string{"a", "", "b"}, splitLines("a\n\nb"))
	assert.Equal(t, []string{""}, splitLines("\n"))
}

func TestLexCarriesMultilineStringsAcrossLines(t *testing.T) {
	l := lineLexer{}

	first := l.lex(`let s = """`)
	assert.Equal(t, `let s = ""`, first.code)
	assert.False(t, first.unterminatedString)
	assert.True(t, l.inMultilineString())

	second := l.lex(`hello .Default "quoted" \"""`)
	assert.Equal(t, "", second.code)
	assert.True(t, l.inMultilineString())

	third := l.lex(`    """ + suffix`)
	assert.Equal(t, " + suffix", third.code)
	assert.False(t, l.inMultilineString())
}

func TestLexMultilineStringClosedOnSameLine(t *testing.T) {
	l := lineLexer{}

	result := l.lex(`let s = """inline""" + b`)

	assert.Equal(t, `let s = "" + b`, result.code)
	assert.False(t, l.inMultilineString())
}
