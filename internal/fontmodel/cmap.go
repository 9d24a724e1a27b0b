package fontmodel

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// parseToUnicodeCMap walks a /ToUnicode stream's bfchar and bfrange
// sections. Array-form bfrange destinations ("<lo> <hi> [<d0> <d1> ...]")
// are recognized syntactically and skipped: no mapping is recorded for the
// codes they cover, which fall through to the caller's normal miss path.
func parseToUnicodeCMap(data []byte) map[uint32]string {
	out := make(map[uint32]string)
	s := string(data)
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })

	mode := ""
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasSuffix(line, "beginbfchar"): // "N beginbfchar" or bare
			mode = "bfchar"
			continue
		case line == "endbfchar":
			mode = ""
			continue
		case strings.HasSuffix(line, "beginbfrange"):
			mode = "bfrange"
			continue
		case line == "endbfrange":
			mode = ""
			continue
		}
		if mode == "" {
			continue
		}

		tokens := hexTokens(line)
		switch mode {
		case "bfchar":
			if len(tokens) < 2 {
				continue
			}
			src := hexToUint32(tokens[0])
			out[src] = decodeUTF16BEHex(tokens[1])
		case "bfrange":
			if len(tokens) < 3 {
				continue
			}
			if strings.Contains(line, "[") {
				// Array-form destination: skipped, per the Open Question
				// decision recorded alongside this parser.
				continue
			}
			lo := hexToUint32(tokens[0])
			hi := hexToUint32(tokens[1])
			if hi < lo || hi-lo > 1<<16 {
				continue
			}
			baseDest := hexBytes(tokens[2])
			for code := lo; code <= hi; code++ {
				dest := append([]byte(nil), baseDest...)
				if n := len(dest); n >= 2 {
					// Only the final two bytes advance across the range,
					// matching the common single-UTF-16-unit case.
					offset := code - lo
					lastUnit := uint32(dest[n-2])<<8 | uint32(dest[n-1])
					lastUnit += offset
					dest[n-2] = byte(lastUnit >> 8)
					dest[n-1] = byte(lastUnit)
				}
				out[code] = decodeUTF16BE(dest)
			}
		}
	}
	return out
}

// hexTokens pulls every "<...>" run out of a line, in order.
func hexTokens(line string) []string {
	var out []string
	i := 0
	for i < len(line) {
		if line[i] != '<' {
			i++
			continue
		}
		j := strings.IndexByte(line[i:], '>')
		if j < 0 {
			break
		}
		out = append(out, line[i+1:i+j])
		i += j + 1
	}
	return out
}

func hexNibble(b byte) (byte, bool) {
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

func hexBytes(hex string) []byte {
	digits := strings.TrimSpace(hex)
	if len(digits)%2 == 1 {
		digits += "0"
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		hi, _ := hexNibble(digits[2*i])
		lo, _ := hexNibble(digits[2*i+1])
		out[i] = hi<<4 | lo
	}
	return out
}

func hexToUint32(hex string) uint32 {
	b := hexBytes(hex)
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

var utf16beDecoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()

// decodeUTF16BEHex decodes a CMap destination hex string as big-endian
// UTF-16: surrogate pairs fold into a single rune, and an unpaired
// surrogate or other malformed unit yields U+FFFD rather than an error.
func decodeUTF16BEHex(hex string) string {
	return decodeUTF16BE(hexBytes(hex))
}

func decodeUTF16BE(b []byte) string {
	out, err := utf16beDecoder.Bytes(b)
	if err != nil || out == nil {
		return "�"
	}
	return string(out)
}
