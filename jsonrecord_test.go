// Copyright (c) 2024 Neomantra Corp

package tera_test

import (
	tera "github.com/neomantra/tera-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DecodeJSONRecord", func() {
	It("hydrates flat scalars and a nested object from JSON", func() {
		reg := mustRegistry("MSG 11\n", map[string]string{
			"MSG.1.def": "int32 x\nstring label\nobject pos\n- int32 x\n- int32 y\n",
		})
		schema, err := reg.Resolve("MSG", "1")
		Expect(err).To(BeNil())

		record, err := tera.DecodeJSONRecord(schema, []byte(`{
			"x": -7,
			"label": "origin",
			"pos": {"x": 1, "y": 2}
		}`))
		Expect(err).To(BeNil())
		Expect(record["x"]).To(Equal(int64(-7)))
		Expect(record["label"]).To(Equal("origin"))

		pos, ok := record["pos"].(tera.Record)
		Expect(ok).To(BeTrue())
		Expect(pos["x"]).To(Equal(int64(1)))
		Expect(pos["y"]).To(Equal(int64(2)))
	})

	It("hydrates an array of objects", func() {
		reg := mustRegistry("MSG 12\n", map[string]string{
			"MSG.1.def": "array items\n- int32 n\n- string tag\n",
		})
		schema, err := reg.Resolve("MSG", "1")
		Expect(err).To(BeNil())

		record, err := tera.DecodeJSONRecord(schema, []byte(`{
			"items": [{"n": 1, "tag": "a"}, {"n": 2, "tag": "bb"}]
		}`))
		Expect(err).To(BeNil())

		items, ok := record["items"].([]tera.Record)
		Expect(ok).To(BeTrue())
		Expect(items).To(HaveLen(2))
		Expect(items[0]["n"]).To(Equal(int64(1)))
		Expect(items[1]["tag"]).To(Equal("bb"))
	})

	It("hydrates bytes from a base64 string or a JSON array of integers", func() {
		reg := mustRegistry("MSG 13\n", map[string]string{
			"MSG.1.def": "bytes b64\nbytes arr\n",
		})
		schema, err := reg.Resolve("MSG", "1")
		Expect(err).To(BeNil())

		record, err := tera.DecodeJSONRecord(schema, []byte(`{
			"b64": "AQIDBA==",
			"arr": [5, 6, 7]
		}`))
		Expect(err).To(BeNil())
		Expect(record["b64"]).To(Equal([]byte{1, 2, 3, 4}))
		Expect(record["arr"]).To(Equal([]byte{5, 6, 7}))
	})

	It("round-trips through Encode when fed straight from JSON", func() {
		reg := mustRegistry("MSG 14\n", map[string]string{
			"MSG.1.def": "int32 x\nstring label\n",
		})
		schema, err := reg.Resolve("MSG", "1")
		Expect(err).To(BeNil())

		record, err := tera.DecodeJSONRecord(schema, []byte(`{"x": 42, "label": "hi"}`))
		Expect(err).To(BeNil())

		buf, err := tera.Encode(reg, schema, record)
		Expect(err).To(BeNil())

		got, err := tera.Decode(reg, schema, buf)
		Expect(err).To(BeNil())
		Expect(got["label"]).To(Equal("hi"))
	})
})
