package fontmodel

// standardGlyphNames maps Adobe Standard Encoding glyph names to the
// character they represent. Only the printable-ASCII subset is covered;
// anything else (accented letters, ligatures, symbol glyphs) falls back to
// "?", matching the original extractor's deliberately partial table.
var standardGlyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+',
	"comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=',
	"greater": '>', "question": '?', "at": '@',
	"bracketleft": '[', "backslash": '\\', "bracketright": ']',
	"asciicircum": '^', "underscore": '_', "grave": '`',
	"braceleft": '{', "bar": '|', "braceright": '}', "asciitilde": '~',
}

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		standardGlyphNames[string(c)] = c
	}
	for c := 'a'; c <= 'z'; c++ {
		standardGlyphNames[string(c)] = c
	}
}

// glyphNameToChar resolves a /Differences glyph name to a character,
// yielding '?' for anything outside the printable-ASCII subset above.
func glyphNameToChar(name string) rune {
	if r, ok := standardGlyphNames[name]; ok {
		return r
	}
	return '?'
}

// winAnsiDecode and macRomanDecode translate a single byte under the
// respective base encoding. Both deliberately pass bytes >= 0xA0 through as
// raw Latin-1 codepoints rather than implementing the full WinAnsi/MacRoman
// mapping tables, and map control bytes (< 0x20) to '?'; this mirrors the
// original extractor's simplified behavior rather than a fully accurate
// glyph table.
func winAnsiDecode(b byte) rune {
	switch {
	case b < 0x20:
		return '?'
	case b < 0x80:
		return rune(b)
	case b >= 0xA0:
		return rune(b)
	default:
		return '?'
	}
}

func macRomanDecode(b byte) rune {
	switch {
	case b < 0x20:
		return '?'
	case b < 0x80:
		return rune(b)
	case b >= 0xA0:
		return rune(b)
	default:
		return '?'
	}
}
