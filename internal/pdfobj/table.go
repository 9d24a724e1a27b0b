package pdfobj

// Table is the result of parsing a PDF: every indirect object the scan (and,
// where needed, the xref fallback) could find, plus the trailer dictionary.
type Table struct {
	Objects map[Ref]Value
	Trailer Value
}

// Get returns the object at (num, gen), or Null if it was never seen. Most
// callers want Resolve instead, which also accepts direct values.
func (t *Table) Get(ref Ref) Value {
	if t.Objects == nil {
		return Null
	}
	if v, ok := t.Objects[ref]; ok {
		return v
	}
	// Generation 0 is overwhelmingly the common case; a miss at the
	// requested generation still tries it before giving up, since some
	// producers write inconsistent generation numbers in citations.
	if ref.Gen != 0 {
		if v, ok := t.Objects[Ref{Num: ref.Num, Gen: 0}]; ok {
			return v
		}
	}
	return Null
}

// Resolve follows a single indirect reference to its target. It performs
// exactly one lookup: a reference whose target is itself a reference is
// returned unresolved, matching the non-recursive resolution rule in the
// original extractor (resolve_reference never chases chains).
func (t *Table) Resolve(v Value) Value {
	if v.Kind() != KindRef {
		return v
	}
	return t.Get(v.ref)
}

// Root returns the document catalog (the trailer's /Root entry, resolved).
func (t *Table) Root() Value {
	return t.Resolve(t.Trailer.Key("Root"))
}
