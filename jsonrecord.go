// Copyright (c) 2024 Neomantra Corp
//
// JSON hydration: parses a JSON document into a Record conforming to a
// Schema, for the CLI's "encode" input path and for test fixtures.
// Grounded on the teacher's json_scanner.go, which likewise drives a
// fastjson.Parser over raw bytes and walks the resulting *fastjson.Value
// tree field by field rather than unmarshaling into a Go struct.

package tera

import (
	"encoding/base64"
	"fmt"

	"github.com/valyala/fastjson"
)

// DecodeJSONRecord parses data as a JSON object and hydrates it into a
// Record whose field values Encode accepts for schema: byte, int16,
// uint16, int32 and uint32 fields as int64, int64/uint64 fields as
// int64/uint64, float/double fields as float64, "bytes" fields from
// either a JSON array of byte values or a base64 string, "array" fields
// from a JSON array of objects. Members absent from the JSON are left
// out of the Record.
func DecodeJSONRecord(schema Schema, data []byte) (Record, error) {
	var p fastjson.Parser
	val, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode json record: %w", err)
	}
	return recordFromJSON(schema.Fields, val)
}

func recordFromJSON(fields []*Field, val *fastjson.Value) (Record, error) {
	record := make(Record, len(fields))
	if val == nil {
		return record, nil
	}
	for _, f := range fields {
		if f.Kind.IsMeta() {
			// Meta fields are derived by Encode from the real field's
			// value; a caller-supplied JSON document never carries them.
			continue
		}
		member := val.Get(f.Name)
		if member == nil {
			continue
		}
		v, err := fieldValueFromJSON(f, member)
		if err != nil {
			return nil, fieldErrorf(f.Path, f.Kind, nil, "decode json: %w", err)
		}
		record[f.Name] = v
	}
	return record, nil
}

func fieldValueFromJSON(f *Field, val *fastjson.Value) (any, error) {
	switch f.Kind {
	case KindBool:
		return val.Bool()
	case KindByte, KindInt16, KindUint16, KindInt32, KindUint32:
		n, err := val.Int()
		if err != nil {
			return nil, err
		}
		return int64(n), nil
	case KindInt64:
		return val.Int64()
	case KindUint64:
		return val.Uint64()
	case KindFloat, KindDouble:
		return val.Float64()
	case KindString:
		sb, err := val.StringBytes()
		if err != nil {
			return nil, err
		}
		return string(sb), nil
	case KindBytes:
		return bytesFromJSON(val)
	case KindObject:
		return recordFromJSON(f.Fields, val)
	case KindArray:
		arr, err := val.Array()
		if err != nil {
			return nil, err
		}
		elems := make([]Record, len(arr))
		for i, e := range arr {
			elem, err := recordFromJSON(f.Fields, e)
			if err != nil {
				return nil, err
			}
			elems[i] = elem
		}
		return elems, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, f.Kind)
	}
}

func bytesFromJSON(val *fastjson.Value) ([]byte, error) {
	if val.Type() == fastjson.TypeString {
		sb, err := val.StringBytes()
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(string(sb))
	}
	arr, err := val.Array()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(arr))
	for i, e := range arr {
		n, err := e.Int()
		if err != nil {
			return nil, err
		}
		out[i] = byte(n)
	}
	return out, nil
}
