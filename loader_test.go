// Copyright (c) 2024 Neomantra Corp

package tera_test

import (
	"strings"

	tera "github.com/neomantra/tera-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Opcode map and definition loading", func() {
	It("tolerates malformed opcode map lines without aborting the load", func() {
		reg := tera.NewRegistry(nil)
		err := reg.LoadOpcodeMap("protocol.map", strings.NewReader(strings.Join([]string{
			"# a comment",
			"",
			"GOOD_ONE 10",
			"BAD_SHAPE_LINE",
			"BAD_CODE notanumber",
			"GOOD_TWO 20  # trailing comment",
		}, "\n")))
		Expect(err).To(BeNil())

		code, ok := reg.OpcodeForName("GOOD_ONE")
		Expect(ok).To(BeTrue())
		Expect(code).To(Equal(10))

		code, ok = reg.OpcodeForName("GOOD_TWO")
		Expect(ok).To(BeTrue())
		Expect(code).To(Equal(20))

		_, ok = reg.OpcodeForName("BAD_SHAPE_LINE")
		Expect(ok).To(BeFalse())
	})

	It("parses NAME.VERSION.def filenames", func() {
		name, version, err := tera.ParseDefFilename("Order.3.def")
		Expect(err).To(BeNil())
		Expect(name).To(Equal("Order"))
		Expect(version).To(Equal(3))

		_, _, err = tera.ParseDefFilename("not-a-def-file.txt")
		Expect(err).ToNot(BeNil())
	})

	It("hoists meta fields for a string nested inside two object levels", func() {
		reg := tera.NewRegistry(nil)
		Expect(reg.LoadOpcodeMap("protocol.map", strings.NewReader("MSG 1\n"))).To(Succeed())
		Expect(reg.LoadDefinition("MSG.1.def", strings.NewReader(strings.Join([]string{
			"object outer",
			"- object inner",
			"- - string deep",
			"int32 tail",
		}, "\n")))).To(Succeed())

		schema, err := reg.Resolve("MSG", "1")
		Expect(err).To(BeNil())

		// The hoisted offset meta for outer.inner.deep must appear ahead
		// of the "outer" object field itself, at the schema's top level.
		Expect(schema.Fields[0].Kind).To(Equal(tera.KindOffset))
		Expect(schema.Fields[0].Path).To(Equal("outer.inner.deep"))
		Expect(schema.Fields[1].Name).To(Equal("outer"))
		Expect(schema.Fields[2].Name).To(Equal("tail"))
	})

	It("disables implicit meta insertion when a definition declares meta explicitly", func() {
		reg := tera.NewRegistry(nil)
		Expect(reg.LoadOpcodeMap("protocol.map", strings.NewReader("MSG 1\n"))).To(Succeed())
		Expect(reg.LoadDefinition("MSG.1.def", strings.NewReader(strings.Join([]string{
			"offset s",
			"string s",
		}, "\n")))).To(Succeed())

		schema, err := reg.Resolve("MSG", "1")
		Expect(err).To(BeNil())
		Expect(len(schema.Fields)).To(Equal(2))
		Expect(schema.Fields[0].Kind).To(Equal(tera.KindOffset))
		Expect(schema.Fields[1].Kind).To(Equal(tera.KindString))
	})
})

var _ = Describe("Registry resolution", func() {
	It("resolves by integer opcode", func() {
		reg := tera.NewRegistry(nil)
		Expect(reg.LoadOpcodeMap("protocol.map", strings.NewReader("MSG 42\n"))).To(Succeed())
		Expect(reg.LoadDefinition("MSG.1.def", strings.NewReader("byte b\n"))).To(Succeed())

		schema, err := reg.Resolve(42, "1")
		Expect(err).To(BeNil())
		Expect(schema.Name).To(Equal("MSG"))
	})

	It("fails resolution for an unknown opcode", func() {
		reg := tera.NewRegistry(nil)
		_, err := reg.Resolve(999, "1")
		Expect(err).ToNot(BeNil())
	})

	It("passes an already-resolved schema straight through", func() {
		reg := tera.NewRegistry(nil)
		Expect(reg.LoadOpcodeMap("protocol.map", strings.NewReader("MSG 1\n"))).To(Succeed())
		Expect(reg.LoadDefinition("MSG.1.def", strings.NewReader("byte b\n"))).To(Succeed())
		schema, err := reg.Resolve("MSG", "1")
		Expect(err).To(BeNil())

		same, err := reg.Resolve(schema, "")
		Expect(err).To(BeNil())
		Expect(same).To(BeIdenticalTo(schema))
	})
})
