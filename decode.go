// Copyright (c) 2024 Neomantra Corp
//
// Decoder (spec.md §4.6): the symmetric counterpart to encode.go. Walks
// the augmented schema reading count/offset *values* (rather than
// positions) from the wire, tolerating minor cursor drift against a
// recorded offset but treating a corrupt array self-pointer as fatal.
// Grounded on the teacher's structs.go manual little-endian struct
// readers and its tolerant, warning-first error posture in
// json_scanner.go/dbn_scanner.go.

package tera

import (
	"fmt"
	"log/slog"
	"math"
)

// decodeState holds the per-call value tables the Decoder fills in as it
// reads count/offset meta fields off the wire.
type decodeState struct {
	r      *Reader
	count  map[string]int
	offset map[string]int
	logger *slog.Logger
}

// Decode wraps buf (the full frame, header included)
// with a Reader positioned past the 4-byte header, and walks schema to
// produce a Record.
func Decode(reg *Registry, schema Schema, buf []byte) (Record, error) {
	if len(buf) < frameHeaderSize {
		return nil, unexpectedBytesError(len(buf), frameHeaderSize)
	}
	r := NewReader(buf)
	if err := r.Skip(frameHeaderSize); err != nil {
		return nil, err
	}
	st := &decodeState{
		r:      r,
		count:  make(map[string]int),
		offset: make(map[string]int),
		logger: reg.logger,
	}
	record := make(Record, len(schema.Fields))
	if err := st.decodeFields(schema.Fields, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (st *decodeState) decodeFields(fields []*Field, record Record) error {
	for _, f := range fields {
		if err := st.decodeField(f, record); err != nil {
			return err
		}
	}
	return nil
}

func (st *decodeState) decodeField(f *Field, record Record) error {
	switch f.Kind {
	case KindCount:
		v, err := st.r.ReadUint16()
		if err != nil {
			return err
		}
		st.count[f.Path] = int(v)
		return nil
	case KindOffset:
		v, err := st.r.ReadUint16()
		if err != nil {
			return err
		}
		st.offset[f.Path] = int(v)
		return nil
	case KindObject:
		sub := make(Record, len(f.Fields))
		if err := st.decodeFields(f.Fields, sub); err != nil {
			return err
		}
		record[f.Name] = sub
		return nil
	case KindArray:
		return st.decodeArray(f, record)
	case KindString:
		return st.decodeString(f, record)
	case KindBytes:
		return st.decodeBytes(f, record)
	default:
		return st.decodeScalar(f, record)
	}
}

// reconcileOffset implements step 3's drift tolerance: if this field has
// a recorded offset and the cursor disagrees, warn and seek to the
// recorded position rather than trusting positional continuity.
func (st *decodeState) reconcileOffset(f *Field) error {
	want, ok := st.offset[f.Path]
	if !ok {
		return nil
	}
	if st.r.Pos() != want {
		st.logger.Warn("decode: cursor drifted from recorded offset, reconciling",
			"path", f.Path, "cursor", st.r.Pos(), "recorded_offset", want)
		if err := st.r.Seek(want); err != nil {
			return err
		}
	}
	return nil
}

func (st *decodeState) decodeScalar(f *Field, record Record) error {
	if err := st.reconcileOffset(f); err != nil {
		return err
	}
	var (
		v   any
		err error
	)
	switch f.Kind {
	case KindBool:
		v, err = st.r.ReadBool()
	case KindByte:
		v, err = st.r.ReadByte8()
	case KindInt16:
		v, err = st.r.ReadInt16()
	case KindUint16:
		v, err = st.r.ReadUint16()
	case KindInt32:
		v, err = st.r.ReadInt32()
	case KindUint32:
		v, err = st.r.ReadUint32()
	case KindInt64:
		v, err = st.r.ReadInt64()
	case KindUint64:
		v, err = st.r.ReadUint64()
	case KindFloat:
		var bits uint32
		bits, err = st.r.ReadFloat32raw()
		v = math.Float32frombits(bits)
	case KindDouble:
		var bits uint64
		bits, err = st.r.ReadFloat64raw()
		v = math.Float64frombits(bits)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownType, f.Kind)
	}
	if err != nil {
		return fieldErrorf(f.Path, f.Kind, nil, "read scalar: %w", err)
	}
	record[f.Name] = v
	return nil
}

func (st *decodeState) decodeString(f *Field, record Record) error {
	if err := st.reconcileOffset(f); err != nil {
		return err
	}
	s, err := st.r.ReadString()
	if err != nil {
		return fieldErrorf(f.Path, f.Kind, nil, "read string: %w", err)
	}
	record[f.Name] = s
	return nil
}

func (st *decodeState) decodeBytes(f *Field, record Record) error {
	if err := st.reconcileOffset(f); err != nil {
		return err
	}
	n := st.count[f.Path]
	b, err := st.r.ReadRawBytes(n)
	if err != nil {
		return fieldErrorf(f.Path, f.Kind, nil, "read bytes: %w", err)
	}
	record[f.Name] = b
	return nil
}

// decodeArray walks the here/next pointer chain described in spec.md
// §4.6 and §3 invariants 3-4: AwaitingFirst -> Reading -> Done.
func (st *decodeState) decodeArray(f *Field, record Record) error {
	length := st.count[f.Path]
	next := st.offset[f.Path]

	elems := make([]Record, 0, length)
	read := 0
	for next != 0 {
		if st.r.Pos() != next {
			st.logger.Warn("decode: cursor drifted before array element, reconciling",
				"path", f.Path, "cursor", st.r.Pos(), "recorded_next", next)
			if err := st.r.Seek(next); err != nil {
				return err
			}
		}
		elementStart := st.r.Pos()
		here, err := st.r.ReadUint16()
		if err != nil {
			return err
		}
		if int(here) != elementStart {
			return fieldErrorf(f.Path, f.Kind, nil,
				"%w: element self-pointer %d does not match element start %d", ErrSelfPointerMismatch, here, elementStart)
		}
		nextVal, err := st.r.ReadUint16()
		if err != nil {
			return err
		}

		elem := make(Record, len(f.Fields))
		if err := st.decodeFields(f.Fields, elem); err != nil {
			return err
		}
		elems = append(elems, elem)
		read++

		if read >= length && nextVal != 0 {
			st.logger.Warn("decode: array produced more elements than its recorded count",
				"path", f.Path, "recorded_count", length)
		}
		next = int(nextVal)
	}
	record[f.Name] = elems
	return nil
}
