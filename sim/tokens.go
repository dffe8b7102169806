package sim

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes (start at 1 to avoid clash with parsly.EOF).
const (
	separatorCode = iota + 1
	whitespaceCode
	headerCode
	typeCodeCode
	openBraceCode
	closeBraceCode
	nameCode
	cyclesCode
)

var (
	separatorToken  = parsly.NewToken(separatorCode, "Separator", &separatorMatcher{})
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	headerToken     = parsly.NewToken(headerCode, "Header", &headerMatcher{})
	typeCodeToken   = parsly.NewToken(typeCodeCode, "TypeCode", &typeCodeMatcher{})
	openBraceToken  = parsly.NewToken(openBraceCode, "{", matcher.NewByte('{'))
	closeBraceToken = parsly.NewToken(closeBraceCode, "}", matcher.NewByte('}'))
	nameToken       = parsly.NewToken(nameCode, "Name", &nameMatcher{})
	cyclesToken     = parsly.NewToken(cyclesCode, "Cycles", &cyclesMatcher{})
)

// separatorMatcher matches any run of whitespace and ; , . : between tokens.
type separatorMatcher struct{}

func (m *separatorMatcher) Match(cursor *parsly.Cursor) int {
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		if !isSeparator(cursor.Input[i]) {
			break
		}
		matched++
	}
	return matched
}

// headerMatcher matches the leading header line up to and including the
// first ':' or newline. A header sharing its line with operations ends
// before the first type code.
type headerMatcher struct{}

func (m *headerMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		if (i == cursor.Pos || !isLetter(input[i-1])) && typeCodeLen(input[:cursor.InputSize], i) > 0 {
			break
		}
		matched++
		if c := input[i]; c == ':' || c == '\n' {
			break
		}
	}
	return matched
}

// typeCodeMatcher matches the letters of a type code, but only when they are
// directly followed (optionally after blanks) by '{'.
type typeCodeMatcher struct{}

func (m *typeCodeMatcher) Match(cursor *parsly.Cursor) int {
	return typeCodeLen(cursor.Input[:cursor.InputSize], cursor.Pos)
}

// typeCodeLen returns the length of the letter run at pos when a '{'
// follows it, or 0.
func typeCodeLen(input []byte, pos int) int {
	i := pos
	for ; i < len(input) && isLetter(input[i]); i++ {
	}
	n := i - pos
	if n == 0 {
		return 0
	}
	for ; i < len(input) && isBlank(input[i]); i++ {
	}
	if i >= len(input) || input[i] != '{' {
		return 0
	}
	return n
}

// nameMatcher matches a resource name: everything up to the closing brace.
type nameMatcher struct{}

func (m *nameMatcher) Match(cursor *parsly.Cursor) int {
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		if c := cursor.Input[i]; c == '}' || c == '{' || c == '\n' {
			break
		}
		matched++
	}
	return matched
}

// cyclesMatcher matches an optionally signed decimal integer.
type cyclesMatcher struct{}

func (m *cyclesMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	i := cursor.Pos
	if i < cursor.InputSize && input[i] == '-' {
		i++
	}
	digits := 0
	for ; i < cursor.InputSize && isDigit(input[i]); i++ {
		digits++
	}
	if digits == 0 {
		return 0
	}
	return i - cursor.Pos
}

func isSeparator(c byte) bool {
	return isBlank(c) || c == '\n' || c == '\r' || c == ';' || c == ',' || c == '.' || c == ':'
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
