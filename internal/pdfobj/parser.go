package pdfobj

import (
	"fmt"
	"strconv"
)

// lexer walks raw PDF bytes token by token. It is shared by the top-level
// object scanner, the content-stream tokenizer's cousin in internal/content,
// and the object-stream sub-parser.
type lexer struct {
	data []byte
	pos  int
}

func newLexer(data []byte) *lexer { return &lexer{data: data} }

func (l *lexer) peek() (byte, bool) {
	if l.pos >= len(l.data) {
		return 0, false
	}
	return l.data[l.pos], true
}

func (l *lexer) peekAt(off int) (byte, bool) {
	i := l.pos + off
	if i < 0 || i >= len(l.data) {
		return 0, false
	}
	return l.data[i], true
}

func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) startsWith(pattern string) bool {
	if l.pos+len(pattern) > len(l.data) {
		return false
	}
	return string(l.data[l.pos:l.pos+len(pattern)]) == pattern
}

func (l *lexer) skipWhitespace() {
	for {
		b, ok := l.peek()
		if !ok || !isWhitespace(b) {
			return
		}
		l.pos++
	}
}

func (l *lexer) skipComment() {
	if b, ok := l.peek(); !ok || b != '%' {
		return
	}
	for {
		b, ok := l.peek()
		l.pos++
		if !ok || b == '\n' || b == '\r' {
			return
		}
	}
}

func (l *lexer) skipWhitespaceAndComments() {
	for {
		l.skipWhitespace()
		if b, ok := l.peek(); ok && b == '%' {
			l.skipComment()
			continue
		}
		return
	}
}

func (l *lexer) checkKeyword(kw string) bool { return l.startsWith(kw) }

// parseNumber reads a decimal literal with optional sign and at most one dot.
func (l *lexer) parseNumber() (Value, error) {
	start := l.pos
	if b, ok := l.peek(); ok && (b == '-' || b == '+') {
		l.pos++
	}
	hasDot := false
	for {
		b, ok := l.peek()
		if !ok {
			break
		}
		if b >= '0' && b <= '9' {
			l.pos++
		} else if b == '.' && !hasDot {
			hasDot = true
			l.pos++
		} else {
			break
		}
	}
	if l.pos == start {
		return Null, fmt.Errorf("pdfobj: expected number at offset %d", start)
	}
	n, err := strconv.ParseFloat(string(l.data[start:l.pos]), 32)
	if err != nil {
		return Null, fmt.Errorf("pdfobj: invalid number %q: %w", l.data[start:l.pos], err)
	}
	return Number(float32(n)), nil
}

func (l *lexer) parseName() (Value, error) {
	b, ok := l.peek()
	if !ok || b != '/' {
		return Null, fmt.Errorf("pdfobj: expected name at offset %d", l.pos)
	}
	l.pos++
	start := l.pos
	for {
		b, ok := l.peek()
		if !ok || isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
	}
	return Name(string(l.data[start:l.pos])), nil
}

var literalEscapes = map[byte]byte{
	'n': '\n', 'r': '\r', 't': '\t', 'b': '\b', 'f': '\f', '(': '(', ')': ')', '\\': '\\',
}

// parseLiteralString reads "(...)" honoring balanced parens, backslash
// escapes (including octal \ddd), and line-continuation backslash-newline.
func (l *lexer) parseLiteralString() (Value, error) {
	if b, ok := l.peek(); !ok || b != '(' {
		return Null, fmt.Errorf("pdfobj: expected literal string at offset %d", l.pos)
	}
	l.pos++

	var out []byte
	depth := 1
	for depth > 0 {
		b, ok := l.peek()
		if !ok {
			return Null, fmt.Errorf("pdfobj: unterminated literal string")
		}
		l.pos++

		if b == '\\' {
			esc, ok := l.peek()
			if !ok {
				return Null, fmt.Errorf("pdfobj: unterminated escape in literal string")
			}
			if esc == '\r' || esc == '\n' {
				l.pos++
				if esc == '\r' {
					if n, ok := l.peek(); ok && n == '\n' {
						l.pos++
					}
				}
				continue
			}
			if esc >= '0' && esc <= '7' {
				val := int(esc - '0')
				l.pos++
				for i := 0; i < 2; i++ {
					d, ok := l.peek()
					if !ok || d < '0' || d > '7' {
						break
					}
					val = val*8 + int(d-'0')
					l.pos++
				}
				if val > 255 {
					val = 255
				}
				out = append(out, byte(val))
				continue
			}
			l.pos++
			if mapped, ok := literalEscapes[esc]; ok {
				out = append(out, mapped)
			} else {
				out = append(out, esc)
			}
			continue
		}

		if b == '(' {
			depth++
			out = append(out, b)
		} else if b == ')' {
			depth--
			if depth > 0 {
				out = append(out, b)
			}
		} else {
			out = append(out, b)
		}
	}

	return String(out), nil
}

func hexDigitValue(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

// parseHexString reads "<hex>"; odd-length input is padded with a trailing
// zero nibble, matching §4.1.
func (l *lexer) parseHexString() (Value, error) {
	if b, ok := l.peek(); !ok || b != '<' {
		return Null, fmt.Errorf("pdfobj: expected hex string at offset %d", l.pos)
	}
	l.pos++

	var digits []byte
	for {
		l.skipWhitespace()
		b, ok := l.peek()
		if !ok {
			return Null, fmt.Errorf("pdfobj: unterminated hex string")
		}
		if b == '>' {
			l.pos++
			break
		}
		if _, ok := hexDigitValue(b); !ok {
			return Null, fmt.Errorf("pdfobj: invalid hex digit %q", b)
		}
		digits = append(digits, b)
		l.pos++
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		hi, _ := hexDigitValue(digits[2*i])
		lo, _ := hexDigitValue(digits[2*i+1])
		out[i] = hi<<4 | lo
	}
	return String(out), nil
}

func (l *lexer) parseArray() (Value, error) {
	if b, ok := l.peek(); !ok || b != '[' {
		return Null, fmt.Errorf("pdfobj: expected array at offset %d", l.pos)
	}
	l.pos++

	var items []Value
	for {
		l.skipWhitespaceAndComments()
		if b, ok := l.peek(); ok && b == ']' {
			l.pos++
			break
		}
		if _, ok := l.peek(); !ok {
			return Null, fmt.Errorf("pdfobj: unterminated array")
		}
		v, err := l.parseObject()
		if err != nil {
			return Null, err
		}
		items = append(items, v)
	}
	return Array(items), nil
}

func (l *lexer) parseDictionary() (map[string]Value, error) {
	l.skipWhitespaceAndComments()
	b0, ok0 := l.peek()
	b1, ok1 := l.peekAt(1)
	if !ok0 || b0 != '<' || !ok1 || b1 != '<' {
		return nil, fmt.Errorf("pdfobj: expected dictionary at offset %d", l.pos)
	}
	l.pos += 2

	dict := make(map[string]Value)
	for {
		l.skipWhitespaceAndComments()
		b0, ok0 := l.peek()
		b1, ok1 := l.peekAt(1)
		if ok0 && b0 == '>' && ok1 && b1 == '>' {
			l.pos += 2
			break
		}
		key, err := l.parseObject()
		if err != nil {
			return nil, err
		}
		if key.Kind() != KindName {
			return nil, fmt.Errorf("pdfobj: dictionary key must be a name")
		}
		l.skipWhitespaceAndComments()
		val, err := l.parseObject()
		if err != nil {
			return nil, err
		}
		dict[key.Name()] = val
	}
	return dict, nil
}

// parseReference attempts "<g> R" after a candidate object number has
// already been consumed; the caller rewinds on failure.
func (l *lexer) parseReference(num uint32) (Value, error) {
	l.skipWhitespace()
	genVal, err := l.parseObject()
	if err != nil {
		return Null, err
	}
	if genVal.Kind() != KindNumber {
		return Null, fmt.Errorf("pdfobj: expected generation number")
	}
	l.skipWhitespace()
	b, ok := l.peek()
	if !ok || b != 'R' {
		return Null, fmt.Errorf("pdfobj: expected R after generation number")
	}
	l.pos++
	return Reference(num, uint16(genVal.Int())), nil
}

// parseObject reads exactly one PDF value: a literal, a name, a string, an
// array, a dictionary, or a numeric literal that might turn out to be the
// "<n> <g> R" prefix of an indirect reference.
func (l *lexer) parseObject() (Value, error) {
	l.skipWhitespaceAndComments()
	b, ok := l.peek()
	if !ok {
		return Null, fmt.Errorf("pdfobj: unexpected end of input")
	}

	switch {
	case b == 'n' && l.checkKeyword("null"):
		l.pos += 4
		return Null, nil
	case b == 't' && l.checkKeyword("true"):
		l.pos += 4
		return Bool(true), nil
	case b == 'f' && l.checkKeyword("false"):
		l.pos += 5
		return Bool(false), nil
	case b == '/':
		return l.parseName()
	case b == '(':
		return l.parseLiteralString()
	case b == '<':
		if next, ok := l.peekAt(1); ok && next == '<' {
			dict, err := l.parseDictionary()
			if err != nil {
				return Null, err
			}
			return Dict(dict), nil
		}
		return l.parseHexString()
	case b == '[':
		return l.parseArray()
	case b == '-' || b == '+' || b == '.' || (b >= '0' && b <= '9'):
		numObj, err := l.parseNumber()
		if err != nil {
			return Null, err
		}
		saved := l.pos
		l.skipWhitespace()
		if nb, ok := l.peek(); ok && nb >= '0' && nb <= '9' {
			ref, err := l.parseReference(uint32(numObj.Int()))
			if err == nil {
				return ref, nil
			}
			l.pos = saved
			return numObj, nil
		}
		l.pos = saved
		return numObj, nil
	default:
		return Null, fmt.Errorf("pdfobj: unexpected character %q at offset %d", b, l.pos)
	}
}
