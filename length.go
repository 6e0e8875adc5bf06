// Copyright (c) 2024 Neomantra Corp
//
// Length estimation (spec.md §4.4 "Estimating length"): a pre-pass that
// walks a Schema and Record together to compute the exact wire size
// Encode needs to pre-allocate its Writer, since the format's
// back-patched offsets require writing into a fully-sized buffer rather
// than growing one incrementally.

package tera

import (
	"fmt"
	"unicode/utf16"
)

// EstimateLength returns the exact number of bytes Encode will write for
// record under schema, not including the 4-byte frame header (that is
// added once, by Encode itself, at the outermost call only).
func EstimateLength(schema Schema, record Record) (int, error) {
	n, err := estimateFields(schema.Fields, record)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func estimateFields(fields []*Field, record Record) (int, error) {
	total := 0
	for _, f := range fields {
		n, err := estimateField(f, record)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func estimateField(f *Field, record Record) (int, error) {
	if size, ok := f.Kind.FixedSize(); ok {
		return size, nil
	}
	switch f.Kind {
	case KindString:
		s := asString(record.Get(f.Name))
		// Missing strings still emit a terminating NUL, so the length
		// estimate always agrees with what Encode actually writes (see
		// spec.md §9 "Absent string field length"). Count UTF-16 code
		// units, not runes: a supplementary-plane rune costs two units.
		units := utf16.Encode([]rune(s))
		return 2*len(units) + 2, nil

	case KindBytes:
		return len(asBytes(record.Get(f.Name))), nil

	case KindObject:
		return estimateFields(f.Fields, asRecord(record.Get(f.Name)))

	case KindArray:
		elems := asRecordSlice(record.Get(f.Name))
		total := 0
		for _, elem := range elems {
			// Each element is prefixed by its own here/next pointer pair
			// (spec.md §3 invariant 3), 2 bytes apiece.
			n, err := estimateFields(f.Fields, elem)
			if err != nil {
				return 0, err
			}
			total += 4 + n
		}
		return total, nil

	default:
		return 0, fmt.Errorf("%w: cannot estimate length of kind %s", ErrUnknownType, f.Kind)
	}
}
