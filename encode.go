// Copyright (c) 2024 Neomantra Corp
//
// Encoder (spec.md §4.5): the two-pass write with back-patched
// count/offset placeholders and the array element here/next pointer
// chain. Grounded on the teacher's structs.go manual little-endian
// struct writers, generalized from fixed struct layouts to a
// schema-driven walk with deferred writes.

package tera

import (
	"fmt"
	"log/slog"
	"math"
	"unicode/utf16"
)

const frameHeaderSize = 4

// encodeState holds the per-call position tables the Encoder uses to
// back-patch count/offset meta placeholders once it knows a
// variable-length field's actual length and position (spec.md §4.5).
type encodeState struct {
	w        *Writer
	countPos map[string]int
	offsetPos map[string]int
	logger   *slog.Logger
}

// Encode resolves schema's message name to an opcode via reg, computes
// the exact wire length, and serializes record into a freshly allocated
// buffer: a 4-byte frame header followed by the schema's fields in
// order.
func Encode(reg *Registry, schema Schema, record Record) ([]byte, error) {
	bodyLen, err := EstimateLength(schema, record)
	if err != nil {
		return nil, err
	}
	opcode, err := reg.Opcode(schema.Name)
	if err != nil {
		return nil, err
	}

	w := NewWriter(frameHeaderSize + bodyLen)
	if err := w.WriteUint16(uint16(frameHeaderSize + bodyLen)); err != nil {
		return nil, err
	}
	if err := w.WriteUint16(uint16(opcode)); err != nil {
		return nil, err
	}

	st := &encodeState{
		w:         w,
		countPos:  make(map[string]int),
		offsetPos: make(map[string]int),
		logger:    reg.logger,
	}
	if err := st.encodeFields(schema.Fields, record); err != nil {
		return nil, err
	}
	if w.Pos() != w.Len() {
		return nil, fmt.Errorf("%w: wrote %d bytes, estimated %d", ErrLengthMismatch, w.Pos(), w.Len())
	}
	return w.Bytes(), nil
}

func (st *encodeState) encodeFields(fields []*Field, record Record) error {
	for _, f := range fields {
		if err := st.encodeField(f, record); err != nil {
			return err
		}
	}
	return nil
}

func (st *encodeState) encodeField(f *Field, record Record) error {
	switch f.Kind {
	case KindCount:
		st.countPos[f.Path] = st.w.Pos()
		return st.w.WriteUint16(0)
	case KindOffset:
		st.offsetPos[f.Path] = st.w.Pos()
		return st.w.WriteUint16(0)
	case KindObject:
		return st.encodeFields(f.Fields, asRecord(record.Get(f.Name)))
	case KindArray:
		return st.encodeArray(f, record.Get(f.Name))
	case KindString:
		return st.encodeString(f, record)
	case KindBytes:
		return st.encodeBytes(f, record)
	default:
		return st.encodeScalar(f, record)
	}
}

// backpatch writes v at pos, restoring the writer's current position
// afterward, per the "temporarily seek there ... seek back" step 3 of
// spec.md §4.5.
func (st *encodeState) backpatch(pos int, v uint16) error {
	cur := st.w.Pos()
	if err := st.w.Seek(pos); err != nil {
		return err
	}
	if err := st.w.WriteUint16(v); err != nil {
		return err
	}
	return st.w.Seek(cur)
}

// backpatchMeta applies step 3's "if count_pos known ... if offset_pos
// known ..." rule uniformly to scalars, strings, and bytes. For plain
// scalars neither map ever has an entry (the Loader never inserts meta
// ahead of a fixed-size field), so this is a no-op for them.
func (st *encodeState) backpatchMeta(path string, length int) error {
	if pos, ok := st.countPos[path]; ok {
		if err := st.backpatch(pos, uint16(length)); err != nil {
			return err
		}
	}
	if pos, ok := st.offsetPos[path]; ok {
		if err := st.backpatch(pos, uint16(st.w.Pos())); err != nil {
			return err
		}
	}
	return nil
}

func (st *encodeState) encodeScalar(f *Field, record Record) error {
	if err := st.backpatchMeta(f.Path, 0); err != nil {
		return err
	}
	v := record.Get(f.Name)
	var err error
	switch f.Kind {
	case KindBool:
		err = st.w.WriteBool(asBool(v))
	case KindByte:
		err = st.w.WriteByte8(uint8(asInt64(v)))
	case KindInt16:
		err = st.w.WriteInt16(int16(asInt64(v)))
	case KindUint16:
		err = st.w.WriteUint16(uint16(asInt64(v)))
	case KindInt32:
		err = st.w.WriteInt32(int32(asInt64(v)))
	case KindUint32:
		err = st.w.WriteUint32(uint32(asInt64(v)))
	case KindInt64:
		st.warnIfUnsafeInteger(f.Path, v)
		err = st.w.WriteInt64(asInt64(v))
	case KindUint64:
		st.warnIfUnsafeInteger(f.Path, v)
		err = st.w.WriteUint64(asUint64(v))
	case KindFloat:
		err = st.w.WriteFloat32(math.Float32bits(float32(asFloat64(v))))
	case KindDouble:
		err = st.w.WriteFloat64(math.Float64bits(asFloat64(v)))
	default:
		return fmt.Errorf("%w: %s", ErrUnknownType, f.Kind)
	}
	if err != nil {
		return fieldErrorf(f.Path, f.Kind, v, "write scalar: %w", err)
	}
	return nil
}

// warnIfUnsafeInteger logs when a 64-bit field is fed a float64 outside
// the ±2^53 range JS numbers can represent exactly -- spec.md §8 requires
// the warning even though Go's own int64 has no such limitation.
func (st *encodeState) warnIfUnsafeInteger(path string, v any) {
	f, ok := v.(float64)
	if !ok {
		return
	}
	const maxSafeInteger = 1 << 53
	if f > maxSafeInteger || f < -maxSafeInteger {
		st.logger.Warn("64-bit field value exceeds the safe-integer range", "path", path, "value", f)
	}
}

func (st *encodeState) encodeString(f *Field, record Record) error {
	s := asString(record.Get(f.Name))
	units := utf16.Encode([]rune(s))
	if err := st.backpatchMeta(f.Path, len(units)); err != nil {
		return err
	}
	if err := st.w.WriteString(s); err != nil {
		return fieldErrorf(f.Path, f.Kind, s, "write string: %w", err)
	}
	return nil
}

func (st *encodeState) encodeBytes(f *Field, record Record) error {
	b := asBytes(record.Get(f.Name))
	if err := st.backpatchMeta(f.Path, len(b)); err != nil {
		return err
	}
	if err := st.w.WriteRawBytes(b); err != nil {
		return fieldErrorf(f.Path, f.Kind, b, "write bytes: %w", err)
	}
	return nil
}

// encodeArray writes an array field's (count, offset) header and, for a
// non-empty array, the here/next pointer chain linking each element in
// turn, recursing into the element schema with the same Writer and
// position maps (spec.md §4.5 step 5, §9 "Recursive re-entry").
func (st *encodeState) encodeArray(f *Field, value any) error {
	elems := asRecordSlice(value)
	if len(elems) == 0 {
		// Placeholders were written as 0 and stay that way.
		return nil
	}
	if pos, ok := st.countPos[f.Path]; ok {
		if err := st.backpatch(pos, uint16(len(elems))); err != nil {
			return err
		}
	}
	last, hasLast := st.offsetPos[f.Path]
	for _, elem := range elems {
		here := st.w.Pos()
		if hasLast {
			if err := st.backpatch(last, uint16(here)); err != nil {
				return err
			}
		}
		if err := st.w.WriteUint16(uint16(here)); err != nil {
			return err
		}
		next := st.w.Pos()
		if err := st.w.WriteUint16(0); err != nil {
			return err
		}
		last, hasLast = next, true
		if err := st.encodeFields(f.Fields, elem); err != nil {
			return err
		}
	}
	return nil
}
