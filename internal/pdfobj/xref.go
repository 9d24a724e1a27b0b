package pdfobj

import "strconv"

// findTrailer locates the trailer dictionary in three tiers: an in-place
// "trailer" keyword (the common case, taking the last occurrence so an
// incrementally-updated file resolves to its newest trailer), a
// startxref-driven lookup of the classical xref table or an XRef stream
// object, and finally any XRef-stream object the linear scan already found.
func findTrailer(data []byte, table *Table) Value {
	if idx := lastIndexOf(data, "trailer"); idx >= 0 {
		l := newLexer(data)
		l.pos = idx + len("trailer")
		l.skipWhitespaceAndComments()
		if l.startsWith("<<") {
			if dict, err := l.parseDictionary(); err == nil {
				return Dict(dict)
			}
		}
	}

	if idx := lastIndexOf(data, "startxref"); idx >= 0 {
		l := newLexer(data)
		l.pos = idx + len("startxref")
		l.skipWhitespaceAndComments()
		start := l.pos
		for l.pos < len(data) && data[l.pos] >= '0' && data[l.pos] <= '9' {
			l.pos++
		}
		if l.pos > start {
			if offset, err := strconv.Atoi(string(data[start:l.pos])); err == nil && offset >= 0 && offset < len(data) {
				if t := parseXRefAt(data, offset); !t.IsNull() {
					return t
				}
			}
		}
	}

	for _, v := range table.Objects {
		if v.Kind() == KindStream && v.Key("Type").Name() == "XRef" {
			return Dict(v.Dict())
		}
	}
	return Null
}

// parseXRefAt reads whatever sits at offset: a classical "xref" table
// (returning the trailer dictionary that follows it) or an indirect object
// that is itself an XRef stream (returning its own dictionary, which plays
// the trailer's role in cross-reference-stream files).
func parseXRefAt(data []byte, offset int) Value {
	l := newLexer(data)
	l.pos = offset
	l.skipWhitespaceAndComments()

	if l.startsWith("xref") {
		return parseClassicXRef(data, l.pos+len("xref"))
	}

	if num, _, bodyStart, ok := tryParseObjHeader(data, l.pos); ok {
		_ = num
		l2 := newLexer(data)
		l2.pos = bodyStart
		val, err := l2.parseObject()
		if err != nil {
			return Null
		}
		l2.skipWhitespaceAndComments()
		if l2.startsWith("stream") && val.Key("Type").Name() == "XRef" {
			return Dict(val.Dict())
		}
	}
	return Null
}

// parseClassicXRef reads "n g f"-style subsections (20-byte entries; this
// scanner doesn't rely on the fixed width, only on three whitespace-
// separated fields per line) until it hits "trailer", then returns that
// trailer dictionary. The entries themselves aren't retained: the linear
// object scan already found every object a well-formed classical-xref file
// contains.
func parseClassicXRef(data []byte, pos int) Value {
	l := newLexer(data)
	l.pos = pos

	for {
		l.skipWhitespaceAndComments()
		if l.startsWith("trailer") {
			l.pos += len("trailer")
			l.skipWhitespaceAndComments()
			if l.startsWith("<<") {
				if dict, err := l.parseDictionary(); err == nil {
					return Dict(dict)
				}
			}
			return Null
		}
		if _, ok := l.peek(); !ok {
			return Null
		}
		b, _ := l.peek()
		if b < '0' || b > '9' {
			// Not a subsection header and not "trailer": bail rather than spin.
			return Null
		}

		// Subsection header: "<start> <count>".
		startV, err := l.parseObject()
		if err != nil || startV.Kind() != KindNumber {
			return Null
		}
		l.skipWhitespaceAndComments()
		countV, err := l.parseObject()
		if err != nil || countV.Kind() != KindNumber {
			return Null
		}
		count := countV.Int()
		for i := 0; i < count; i++ {
			l.skipWhitespaceAndComments()
			// Each entry is "nnnnnnnnnn ggggg n/f"; skip the three fields.
			for j := 0; j < 3; j++ {
				l.skipWhitespace()
				for {
					b, ok := l.peek()
					if !ok || isWhitespace(b) {
						break
					}
					l.pos++
				}
			}
		}
	}
}

// xrefStreamEntry describes one record of a cross-reference stream, per the
// W/Index-described field widths. Type 2 (compressed, inside an object
// stream) entries are decoded for completeness but are not used to seed
// additional table entries; the object-stream scan in objstm.go is
// authoritative for those objects. Type 1 entries (Field2 is a byte offset,
// Field3 a generation number) drive recoverXRefStreamObjects below.
type xrefStreamEntry struct {
	Type   int
	Field2 uint64
	Field3 uint64
}

// recoverXRefStreamObjects decodes every /Type /XRef stream the linear scan
// found and, for each type-1 entry whose object the scan didn't already
// recover, re-parses the object at that entry's recorded offset and adds it
// to the table. This backfills objects the byte-level scan can miss (e.g. a
// malformed header elsewhere in the file that throws the scan's position
// off) using the same offset-driven recovery the cross-reference stream
// exists to provide.
func recoverXRefStreamObjects(data []byte, table *Table) {
	for _, v := range table.Objects {
		if v.Kind() != KindStream || v.Key("Type").Name() != "XRef" {
			continue
		}
		recoverOneXRefStream(data, v, table)
	}
}

func recoverOneXRefStream(data []byte, stream Value, table *Table) {
	w := stream.Key("W")
	if w.Kind() != KindArray || w.Len() != 3 {
		return
	}
	widths := [3]int{w.Index(0).Int(), w.Index(1).Int(), w.Index(2).Int()}

	decoded, err := decodeStream(stream)
	if err != nil {
		return
	}
	entries := decodeXRefStreamEntries(decoded, widths)
	nums := xrefIndexNumbers(stream, len(entries))

	for i, e := range entries {
		if i >= len(nums) || e.Type != 1 {
			continue
		}
		ref := Ref{Num: nums[i], Gen: uint16(e.Field3)}
		if _, exists := table.Objects[ref]; exists {
			continue
		}
		offset := int(e.Field2)
		if offset < 0 || offset >= len(data) {
			continue
		}
		num, gen, bodyStart, ok := tryParseObjHeader(data, offset)
		if !ok || num != nums[i] {
			continue
		}
		l := newLexer(data)
		l.pos = bodyStart
		val, err := l.parseObject()
		if err != nil {
			continue
		}
		l.skipWhitespaceAndComments()
		if l.startsWith("stream") {
			val, _ = readStreamBody(data, l.pos+len("stream"), val)
		}
		table.Objects[Ref{Num: num, Gen: gen}] = val
	}
}

// xrefIndexNumbers expands a cross-reference stream's /Index pairs
// (defaulting to a single [0 Size] pair when /Index is absent) into the
// object number each successive decoded entry corresponds to.
func xrefIndexNumbers(stream Value, count int) []uint32 {
	index := stream.Key("Index")
	var pairs [][2]int
	if index.Kind() == KindArray && index.Len() >= 2 {
		for i := 0; i+1 < index.Len(); i += 2 {
			pairs = append(pairs, [2]int{index.Index(i).Int(), index.Index(i + 1).Int()})
		}
	} else {
		pairs = [][2]int{{0, stream.Key("Size").Int()}}
	}

	var nums []uint32
	for _, p := range pairs {
		for i := 0; i < p[1]; i++ {
			nums = append(nums, uint32(p[0]+i))
		}
	}
	if len(nums) > count {
		nums = nums[:count]
	}
	return nums
}

func decodeXRefStreamEntries(data []byte, widths [3]int) []xrefStreamEntry {
	entryLen := widths[0] + widths[1] + widths[2]
	if entryLen == 0 {
		return nil
	}
	var entries []xrefStreamEntry
	for i := 0; i+entryLen <= len(data); i += entryLen {
		e := xrefStreamEntry{Type: 1}
		off := i
		if widths[0] > 0 {
			e.Type = int(beUint(data[off : off+widths[0]]))
			off += widths[0]
		}
		e.Field2 = beUint(data[off : off+widths[1]])
		off += widths[1]
		e.Field3 = beUint(data[off : off+widths[2]])
		entries = append(entries, e)
	}
	return entries
}

func beUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
