package scanner

import "strings"

// lineLexer strips comments and string literal contents from one line at a
// time. Block comment depth and open multi-line strings carry over between
// lines.
type lineLexer struct {
	commentDepth    int
	multilineString bool
}

const multilineDelimiter = `"""`

type lexedLine struct {
	code               string
	insideComment      bool
	unterminatedString bool
}

func (l *lineLexer) inComment() bool {
	return l.commentDepth > 0
}

func (l *lineLexer) inMultilineString() bool {
	return l.multilineString
}

func (l *lineLexer) lex(text string) lexedLine {
	result := lexedLine{insideComment: l.inComment()}
	var code strings.Builder

	n := len(text)
	for i := 0; i < n; {
		c := text[i]
		next := byte(0)
		if i+1 < n {
			next = text[i+1]
		}

		if l.multilineString {
			end, closed := skipMultilineString(text, i)
			i = end
			if closed {
				l.multilineString = false
			}
			continue
		}

		if l.commentDepth > 0 {
			switch {
			case c == '/' && next == '*':
				l.commentDepth++
				i += 2
			case c == '*' && next == '/':
				l.commentDepth--
				i += 2
				if l.commentDepth == 0 {
					code.WriteByte(' ')
				}
			default:
				i++
			}
			continue
		}

		switch {
		case c == '/' && next == '/':
			i = n
		case c == '/' && next == '*':
			l.commentDepth = 1
			i += 2
		case strings.HasPrefix(text[i:], multilineDelimiter):
			code.WriteString(`""`)
			l.multilineString = true
			i += len(multilineDelimiter)
		case c == '"':
			end, ok := skipString(text, i)
			code.WriteString(`""`)
			if !ok {
				result.unterminatedString = true
			}
			i = end
		default:
			code.WriteByte(c)
			i++
		}
	}

	if l.commentDepth > 0 {
		result.insideComment = true
	}
	result.code = code.String()
	return result
}

// skipString returns the index just past the literal opening at start and
// whether the literal was closed on this line.
func skipString(text string, start int) (int, bool) {
	i := start + 1
	for i < len(text) {
		switch text[i] {
		case '\\':
			if i+1 < len(text) && text[i+1] == '(' {
				end, ok := skipInterpolation(text, i+2)
				if !ok {
					return len(text), false
				}
				i = end
				continue
			}
			i += 2
		case '"':
			return i + 1, true
		default:
			i++
		}
	}
	return len(text), false
}

// skipMultilineString returns the index just past the closing delimiter
// and whether it was found on this line.
func skipMultilineString(text string, start int) (int, bool) {
	i := start
	for i < len(text) {
		switch {
		case text[i] == '\\':
			i += 2
		case strings.HasPrefix(text[i:], multilineDelimiter):
			return i + len(multilineDelimiter), true
		default:
			i++
		}
	}
	return len(text), false
}

func skipInterpolation(text string, start int) (int, bool) {
	depth := 1
	i := start
	for i < len(text) {
		switch text[i] {
		case '(':
			depth++
			i++
		case ')':
			depth--
			i++
			if depth == 0 {
				return i, true
			}
		case '"':
			end, ok := skipString(text, i)
			if !ok {
				return len(text), false
			}
			i = end
		default:
			i++
		}
	}
	return len(text), false
}

// splitLines splits on \n, drops a trailing \r from each line and does not
// produce an extra empty line for a final newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
