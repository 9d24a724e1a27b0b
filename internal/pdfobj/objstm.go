package pdfobj

import (
	"github.com/digitorus/pdfverify/internal/filters"
)

// expandObjectStreams decodes every /Type /ObjStm stream the linear scan
// found and parses out its member objects, adding them to the table. A
// member already present from the linear scan (an uncompressed copy of the
// same object, or a later generation) is left alone rather than overwritten,
// since the linear scan reflects the file's actual byte layout.
func expandObjectStreams(table *Table) {
	for _, v := range table.Objects {
		if v.Kind() != KindStream || v.Key("Type").Name() != "ObjStm" {
			continue
		}
		expandOne(v, table)
	}
}

func expandOne(stream Value, table *Table) {
	decoded, err := decodeStream(stream)
	if err != nil {
		return
	}

	n := stream.Key("N").Int()
	first := stream.Key("First").Int()
	if n <= 0 || first < 0 || first > len(decoded) {
		return
	}

	header := newLexer(decoded[:first])
	type pair struct {
		num    uint32
		offset int
	}
	pairs := make([]pair, 0, n)
	for i := 0; i < n; i++ {
		numV, err := header.parseObject()
		if err != nil || numV.Kind() != KindNumber {
			return
		}
		offV, err := header.parseObject()
		if err != nil || offV.Kind() != KindNumber {
			return
		}
		pairs = append(pairs, pair{num: uint32(numV.Int()), offset: offV.Int()})
	}

	for _, p := range pairs {
		pos := first + p.offset
		if pos < 0 || pos >= len(decoded) {
			continue
		}
		l := newLexer(decoded)
		l.pos = pos
		val, err := l.parseObject()
		if err != nil {
			continue
		}
		ref := Ref{Num: p.num, Gen: 0}
		if _, exists := table.Objects[ref]; !exists {
			table.Objects[ref] = val
		}
	}
}

// decodeStream applies a stream's /Filter chain (with /DecodeParms) to its
// raw bytes. It's also used by callers outside this package via Table's
// DecodeStream method.
func decodeStream(v Value) ([]byte, error) {
	dict := v.Dict()
	names, parmsList := filterChain(dict)
	return filters.DecodeChain(v.StreamData(), names, parmsList)
}

func filterChain(dict map[string]Value) ([]string, []filters.Params) {
	filterVal, ok := dict["Filter"]
	if !ok {
		return nil, nil
	}
	parmsVal := dict["DecodeParms"]

	var names []string
	var parmsVals []Value
	if filterVal.Kind() == KindArray {
		for _, f := range filterVal.Array() {
			names = append(names, f.Name())
		}
		if parmsVal.Kind() == KindArray {
			parmsVals = parmsVal.Array()
		}
	} else {
		names = []string{filterVal.Name()}
		parmsVals = []Value{parmsVal}
	}

	parms := make([]filters.Params, len(names))
	for i := range names {
		if i < len(parmsVals) {
			parms[i] = toParams(parmsVals[i])
		}
	}
	return names, parms
}

func toParams(v Value) filters.Params {
	if v.Kind() != KindDict {
		return filters.Params{}
	}
	return filters.Params{
		Predictor:        v.Key("Predictor").Int(),
		Columns:          v.Key("Columns").Int(),
		Colors:           v.Key("Colors").Int(),
		BitsPerComponent: v.Key("BitsPerComponent").Int(),
	}
}

// DecodeStream applies a stream value's filter chain and returns the
// resulting bytes, resolving the table for any chain step here that needs
// it (none currently do, but the table is threaded through for symmetry
// with Resolve-based callers).
func (t *Table) DecodeStream(v Value) ([]byte, error) {
	return decodeStream(v)
}
