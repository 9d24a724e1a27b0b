// Package sigregion locates a PDF signature dictionary's /ByteRange and
// /Contents entries directly in the raw file bytes (not through the object
// parser) and reconstructs the exact byte span the signature covers.
package sigregion

import (
	"fmt"
	"strconv"
)

// Region is one parsed "/ByteRange [a b c d]" declaration.
type Region struct {
	A, B, C, D int
}

// SignedBytes returns pdf[A:A+B] ++ pdf[C:C+D], the bytes the signature was
// computed over.
func (r Region) SignedBytes(pdf []byte) ([]byte, error) {
	if r.A < 0 || r.A+r.B > len(pdf) || r.C < 0 || r.C+r.D > len(pdf) {
		return nil, fmt.Errorf("sigregion: byte range out of bounds for a %d-byte file", len(pdf))
	}
	out := make([]byte, 0, r.B+r.D)
	out = append(out, pdf[r.A:r.A+r.B]...)
	out = append(out, pdf[r.C:r.C+r.D]...)
	return out, nil
}

// FindByteRange locates the first "/ByteRange" key in pdf and parses its
// four whitespace-separated decimal integers out of the following
// "[ ... ]" bracket pair.
func FindByteRange(pdf []byte) (Region, int, error) {
	const key = "/ByteRange"
	idx := indexOf(pdf, key, 0)
	if idx < 0 {
		return Region{}, -1, fmt.Errorf("sigregion: no /ByteRange found")
	}

	open := indexOfByte(pdf, '[', idx)
	if open < 0 {
		return Region{}, -1, fmt.Errorf("sigregion: /ByteRange has no opening bracket")
	}
	closeB := indexOfByte(pdf, ']', open)
	if closeB < 0 {
		return Region{}, -1, fmt.Errorf("sigregion: /ByteRange has no closing bracket")
	}

	nums, err := parseFourInts(pdf[open+1 : closeB])
	if err != nil {
		return Region{}, -1, err
	}
	return Region{A: nums[0], B: nums[1], C: nums[2], D: nums[3]}, idx, nil
}

func parseFourInts(data []byte) ([4]int, error) {
	var out [4]int
	pos := 0
	for i := 0; i < 4; i++ {
		for pos < len(data) && isSpace(data[pos]) {
			pos++
		}
		start := pos
		for pos < len(data) && data[pos] >= '0' && data[pos] <= '9' {
			pos++
		}
		if pos == start {
			return out, fmt.Errorf("sigregion: expected 4 integers in /ByteRange, found %d", i)
		}
		n, err := strconv.Atoi(string(data[start:pos]))
		if err != nil {
			return out, fmt.Errorf("sigregion: invalid /ByteRange integer: %w", err)
		}
		out[i] = n
	}
	return out, nil
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// FindContentsHex locates the /Contents hex string belonging to the same
// signature dictionary as the /ByteRange found at byteRangeIdx: it searches
// up to 500 bytes before that position (Contents conventionally precedes
// ByteRange in a signature dict) for the /Contents key itself, then reads
// the hex string between the next "<" and ">" after it.
func FindContentsHex(pdf []byte, byteRangeIdx int) ([]byte, error) {
	const key = "/Contents"
	searchStart := byteRangeIdx - 500
	if searchStart < 0 {
		searchStart = 0
	}
	window := pdf[searchStart:byteRangeIdx]

	keyIdx := lastIndexOfPattern(window, key)
	if keyIdx < 0 {
		return nil, fmt.Errorf("sigregion: no /Contents key found before /ByteRange")
	}

	open := indexOfByte(window, '<', keyIdx+len(key))
	if open < 0 {
		return nil, fmt.Errorf("sigregion: /Contents has no opening hex delimiter")
	}
	closeB := indexOfByte(window, '>', open)
	if closeB < 0 {
		return nil, fmt.Errorf("sigregion: unterminated /Contents hex string")
	}
	return window[open+1 : closeB], nil
}

// DecodeHexPadTrailing pads an odd-length hex digit sequence with a
// trailing zero nibble before decoding, the convention used by general PDF
// hex strings (object parser, content tokenizer).
func DecodeHexPadTrailing(hex []byte) []byte {
	digits := stripWhitespace(hex)
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	return pairsToBytes(digits)
}

// DecodeHexPadLeading pads an odd-length hex digit sequence with a leading
// zero nibble before decoding. The /Contents signature hex string uses
// this convention specifically, which is numerically different from the
// general trailing-pad rule above.
func DecodeHexPadLeading(hex []byte) []byte {
	digits := stripWhitespace(hex)
	if len(digits)%2 == 1 {
		digits = append([]byte{'0'}, digits...)
	}
	return pairsToBytes(digits)
}

func stripWhitespace(hex []byte) []byte {
	out := make([]byte, 0, len(hex))
	for _, b := range hex {
		if !isSpace(b) {
			out = append(out, b)
		}
	}
	return out
}

func pairsToBytes(digits []byte) []byte {
	out := make([]byte, len(digits)/2)
	for i := range out {
		hi, _ := hexVal(digits[2*i])
		lo, _ := hexVal(digits[2*i+1])
		out[i] = hi<<4 | lo
	}
	return out
}

func hexVal(b byte) (byte, bool) {
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

func indexOf(data []byte, pattern string, from int) int {
	n := len(pattern)
	for i := from; i+n <= len(data); i++ {
		if string(data[i:i+n]) == pattern {
			return i
		}
	}
	return -1
}

func indexOfByte(data []byte, b byte, from int) int {
	for i := from; i < len(data); i++ {
		if data[i] == b {
			return i
		}
	}
	return -1
}

// lastIndexOfPattern finds the last occurrence of pattern in data, matching
// how an incrementally-updated signature dictionary's most recent /Contents
// key is the one that actually belongs to the /ByteRange being resolved.
func lastIndexOfPattern(data []byte, pattern string) int {
	n := len(pattern)
	for i := len(data) - n; i >= 0; i-- {
		if string(data[i:i+n]) == pattern {
			return i
		}
	}
	return -1
}
