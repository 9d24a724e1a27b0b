package pdfobj

import "strconv"

// Parse rebuilds a Table from raw PDF bytes: a linear scan recovers every
// "<n> <g> obj ... endobj" body it can find, any cross-reference stream's
// type-1 entries backfill objects that scan missed, object streams are
// expanded into their member objects, and the trailer is located by
// searching for an in-place "trailer" keyword, then a startxref-driven xref
// lookup, then falling back to any parsed XRef-stream dictionary.
func Parse(data []byte) (*Table, error) {
	table := &Table{Objects: make(map[Ref]Value)}
	scanObjects(data, table)
	recoverXRefStreamObjects(data, table)
	table.Trailer = findTrailer(data, table)
	expandObjectStreams(table)
	return table, nil
}

// tryParseObjHeader attempts to read "<num> <gen> obj" starting exactly at
// data[i]; i must point at a digit. It never matches inside "endobj" since
// that keyword has no digits immediately before "obj".
func tryParseObjHeader(data []byte, i int) (num uint32, gen uint16, bodyStart int, ok bool) {
	if i >= len(data) || data[i] < '0' || data[i] > '9' {
		return 0, 0, 0, false
	}
	l := newLexer(data)
	l.pos = i

	numStart := l.pos
	for l.pos < len(data) && data[l.pos] >= '0' && data[l.pos] <= '9' {
		l.pos++
	}
	n, err := strconv.ParseUint(string(data[numStart:l.pos]), 10, 32)
	if err != nil {
		return 0, 0, 0, false
	}

	l.skipWhitespace()
	genStart := l.pos
	for l.pos < len(data) && data[l.pos] >= '0' && data[l.pos] <= '9' {
		l.pos++
	}
	if l.pos == genStart {
		return 0, 0, 0, false
	}
	g, err := strconv.ParseUint(string(data[genStart:l.pos]), 10, 16)
	if err != nil {
		return 0, 0, 0, false
	}

	l.skipWhitespace()
	if !l.startsWith("obj") {
		return 0, 0, 0, false
	}
	l.pos += 3

	return uint32(n), uint16(g), l.pos, true
}

func scanObjects(data []byte, table *Table) {
	i := 0
	for i < len(data) {
		num, gen, bodyStart, ok := tryParseObjHeader(data, i)
		if !ok {
			i++
			continue
		}

		l := newLexer(data)
		l.pos = bodyStart
		val, err := l.parseObject()
		if err != nil {
			i = bodyStart
			continue
		}
		l.skipWhitespaceAndComments()

		if l.startsWith("stream") {
			val, i = readStreamBody(data, l.pos+len("stream"), val)
		} else if l.startsWith("endobj") {
			i = l.pos + len("endobj")
		} else {
			i = l.pos
		}

		table.Objects[Ref{Num: num, Gen: gen}] = val
	}
}

// readStreamBody extracts the raw bytes of a stream whose dictionary has
// just been parsed (keywordEnd points right after "stream"). It trusts
// /Length when present and the claimed bounds line up with "endstream";
// otherwise it falls back to a plain search for "endstream".
func readStreamBody(data []byte, keywordEnd int, dictVal Value) (Value, int) {
	dataStart := keywordEnd
	if dataStart < len(data) && data[dataStart] == '\r' {
		dataStart++
	}
	if dataStart < len(data) && data[dataStart] == '\n' {
		dataStart++
	}

	dict := dictVal.Dict()
	length := -1
	if lv, ok := dict["Length"]; ok && lv.Kind() == KindNumber {
		length = lv.Int()
	}

	var streamEnd int
	if length >= 0 && dataStart+length <= len(data) && endstreamFollowsAt(data, dataStart+length) {
		streamEnd = dataStart + length
	} else {
		streamEnd = findEndstream(data, dataStart)
	}

	streamBytes := append([]byte(nil), data[dataStart:streamEnd]...)
	val := Stream(dict, streamBytes)

	next := skipKeyword(data, streamEnd, "endstream")
	next = skipKeyword(data, next, "endobj")
	return val, next
}

func endstreamFollowsAt(data []byte, pos int) bool {
	p := pos
	for p < len(data) && isWhitespace(data[p]) {
		p++
	}
	return p+9 <= len(data) && string(data[p:p+9]) == "endstream"
}

// findEndstream locates the next "endstream" keyword at or after from,
// trimming the single EOL that conventionally precedes it (that EOL is
// stream padding, not stream content).
func findEndstream(data []byte, from int) int {
	idx := indexFrom(data, from, "endstream")
	if idx < 0 {
		return len(data)
	}
	end := idx
	if end > from && data[end-1] == '\n' {
		end--
		if end > from && data[end-1] == '\r' {
			end--
		}
	}
	return end
}

func skipKeyword(data []byte, from int, kw string) int {
	p := from
	for p < len(data) && isWhitespace(data[p]) {
		p++
	}
	if p+len(kw) <= len(data) && string(data[p:p+len(kw)]) == kw {
		return p + len(kw)
	}
	return from
}

func indexFrom(data []byte, from int, pattern string) int {
	if from < 0 || from > len(data) {
		return -1
	}
	hay := data[from:]
	n := len(pattern)
	for i := 0; i+n <= len(hay); i++ {
		if string(hay[i:i+n]) == pattern {
			return from + i
		}
	}
	return -1
}

func lastIndexOf(data []byte, pattern string) int {
	n := len(pattern)
	for i := len(data) - n; i >= 0; i-- {
		if string(data[i:i+n]) == pattern {
			return i
		}
	}
	return -1
}
