// Copyright (c) 2024 Neomantra Corp

package tera_test

import (
	"strings"

	tera "github.com/neomantra/tera-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustRegistry(opcodes string, defs map[string]string) *tera.Registry {
	reg := tera.NewRegistry(nil)
	ExpectWithOffset(1, reg.LoadOpcodeMap("protocol.map", strings.NewReader(opcodes))).To(Succeed())
	for filename, body := range defs {
		ExpectWithOffset(1, reg.LoadDefinition(filename, strings.NewReader(body))).To(Succeed())
	}
	return reg
}

var _ = Describe("Encode", func() {
	It("encodes TEST_VERSIONS v2 {int16 x}", func() {
		reg := mustRegistry("TEST_VERSIONS 0\n", map[string]string{
			"TEST_VERSIONS.2.def": "int16 x\n",
		})
		schema, err := reg.Resolve("TEST_VERSIONS", "2")
		Expect(err).To(BeNil())

		buf, err := tera.Encode(reg, schema, tera.Record{"x": int16(2)})
		Expect(err).To(BeNil())
		Expect(buf).To(Equal([]byte{0x06, 0x00, 0x00, 0x00, 0x02, 0x00}))
	})

	It("encodes TEST_VERSIONS v1 {byte b}", func() {
		reg := mustRegistry("TEST_VERSIONS 0\n", map[string]string{
			"TEST_VERSIONS.1.def": "byte b\n",
		})
		schema, err := reg.Resolve("TEST_VERSIONS", "1")
		Expect(err).To(BeNil())

		buf, err := tera.Encode(reg, schema, tera.Record{"b": uint8(1)})
		Expect(err).To(BeNil())
		Expect(buf).To(Equal([]byte{0x05, 0x00, 0x00, 0x00, 0x01}))
	})

	It("picks the numerically greatest version for desired version \"*\"", func() {
		reg := mustRegistry("TEST_VERSIONS 0\n", map[string]string{
			"TEST_VERSIONS.1.def": "byte b\n",
			"TEST_VERSIONS.2.def": "int16 x\n",
		})
		schema, err := reg.Resolve("TEST_VERSIONS", "*")
		Expect(err).To(BeNil())
		Expect(schema.FieldByName("x")).ToNot(BeNil())
		Expect(schema.FieldByName("b")).To(BeNil())
	})

	It("encodes TEST_STRING v1 {string s1; string s2}", func() {
		reg := mustRegistry("TEST_STRING 3\n", map[string]string{
			"TEST_STRING.1.def": "string s1\nstring s2\n",
		})
		schema, err := reg.Resolve("TEST_STRING", "1")
		Expect(err).To(BeNil())

		buf, err := tera.Encode(reg, schema, tera.Record{"s1": "", "s2": "String 2"})
		Expect(err).To(BeNil())
		Expect(buf).To(Equal([]byte{
			0x1c, 0x00, 0x03, 0x00,
			0x08, 0x00, 0x0a, 0x00,
			0x00, 0x00,
			0x53, 0x00, 0x74, 0x00, 0x72, 0x00, 0x69, 0x00, 0x6e, 0x00, 0x67, 0x00, 0x20, 0x00, 0x32, 0x00, 0x00, 0x00,
		}))
	})

	It("encodes TEST_BYTES v1 {bytes b1; bytes b2}", func() {
		reg := mustRegistry("TEST_BYTES 4\n", map[string]string{
			"TEST_BYTES.1.def": "bytes b1\nbytes b2\n",
		})
		schema, err := reg.Resolve("TEST_BYTES", "1")
		Expect(err).To(BeNil())

		buf, err := tera.Encode(reg, schema, tera.Record{
			"b1": []byte{1, 2, 3, 4, 5, 6, 7, 8},
			"b2": []byte{255, 254, 253, 252},
		})
		Expect(err).To(BeNil())
		Expect(buf).To(Equal([]byte{
			0x18, 0x00, 0x04, 0x00,
			0x0c, 0x00, 0x08, 0x00,
			0x14, 0x00, 0x04, 0x00,
			0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			0xff, 0xfe, 0xfd, 0xfc,
		}))
	})

	It("emits a zero count/offset and no payload for an empty array", func() {
		reg := mustRegistry("TEST_ARRAY 5\n", map[string]string{
			"TEST_ARRAY.1.def": "array items\n- int32 n\n",
		})
		schema, err := reg.Resolve("TEST_ARRAY", "1")
		Expect(err).To(BeNil())

		buf, err := tera.Encode(reg, schema, tera.Record{"items": []tera.Record{}})
		Expect(err).To(BeNil())
		Expect(buf).To(Equal([]byte{0x08, 0x00, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00}))
	})
})

var _ = Describe("Round trip", func() {
	DescribeTable("decode(encode(x)) == x",
		func(defBody string, record tera.Record) {
			reg := mustRegistry("MSG 7\n", map[string]string{"MSG.1.def": defBody})
			schema, err := reg.Resolve("MSG", "1")
			Expect(err).To(BeNil())

			buf, err := tera.Encode(reg, schema, record)
			Expect(err).To(BeNil())

			estimated, err := tera.EstimateLength(schema, record)
			Expect(err).To(BeNil())
			Expect(len(buf)).To(Equal(4 + estimated))

			got, err := tera.Decode(reg, schema, buf)
			Expect(err).To(BeNil())
			Expect(got).To(Equal(record))
		},
		Entry("flat scalars", "int32 x\nbool flag\nuint16 y\n",
			tera.Record{"x": int32(-7), "flag": true, "y": uint16(65000)}),
		Entry("string and bytes", "string name\nbytes payload\n",
			tera.Record{"name": "hello, world", "payload": []byte{9, 8, 7}}),
		Entry("nested object", "object pos\n- int32 x\n- int32 y\nstring label\n",
			tera.Record{"pos": tera.Record{"x": int32(1), "y": int32(2)}, "label": "origin"}),
		Entry("array of objects", "array items\n- int32 n\n- string tag\n",
			tera.Record{"items": []tera.Record{
				{"n": int32(1), "tag": "a"},
				{"n": int32(2), "tag": "bb"},
				{"n": int32(3), "tag": "ccc"},
			}}),
		Entry("object containing an array (meta hoisted above the object)", "object grp\n- array items\n- - int32 n\n",
			tera.Record{"grp": tera.Record{"items": []tera.Record{
				{"n": int32(11)},
				{"n": int32(22)},
			}}}),
	)
})

var _ = Describe("Self-pointer consistency", func() {
	It("chains here/next across array elements and terminates with next=0", func() {
		reg := mustRegistry("MSG 9\n", map[string]string{
			"MSG.1.def": "array items\n- byte v\n",
		})
		schema, err := reg.Resolve("MSG", "1")
		Expect(err).To(BeNil())

		buf, err := tera.Encode(reg, schema, tera.Record{"items": []tera.Record{
			{"v": uint8(1)}, {"v": uint8(2)}, {"v": uint8(3)},
		}})
		Expect(err).To(BeNil())

		r := tera.NewReader(buf)
		Expect(r.Skip(4)).To(Succeed())
		count, err := r.ReadUint16()
		Expect(err).To(BeNil())
		Expect(count).To(Equal(uint16(3)))
		offset, err := r.ReadUint16()
		Expect(err).To(BeNil())

		next := offset
		seen := 0
		for next != 0 {
			Expect(r.Seek(int(next))).To(Succeed())
			here, err := r.ReadUint16()
			Expect(err).To(BeNil())
			Expect(here).To(Equal(next))
			next, err = r.ReadUint16()
			Expect(err).To(BeNil())
			seen++
			Expect(r.Skip(1)).To(Succeed()) // the element's "v" byte
		}
		Expect(seen).To(Equal(3))
	})
})

var _ = Describe("Decode tolerance", func() {
	It("is strict about a corrupted array self-pointer", func() {
		reg := mustRegistry("MSG 10\n", map[string]string{
			"MSG.1.def": "array items\n- byte v\n",
		})
		schema, err := reg.Resolve("MSG", "1")
		Expect(err).To(BeNil())

		buf, err := tera.Encode(reg, schema, tera.Record{"items": []tera.Record{{"v": uint8(1)}}})
		Expect(err).To(BeNil())

		// Layout: 4-byte frame header, 2-byte count meta, 2-byte offset
		// meta, then the lone element's "here" word at byte 8.
		buf[8]++

		_, err = tera.Decode(reg, schema, buf)
		Expect(err).ToNot(BeNil())
	})
})
