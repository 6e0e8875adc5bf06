// Copyright (c) 2024 Neomantra Corp

package tera

// Field is one entry of an augmented schema tree (spec.md §3 "Augmented
// schema"). A parsed definition file becomes a tree of Fields rooted at a
// synthetic KindRoot frame; augment (augment.go) inserts KindCount/KindOffset
// fields for every variable-length field it can reach through pure Object
// nesting, at the head of the enclosing frame, per the Meta insertion rules.
//
// Path is the dotted path used to key the Encoder/Decoder's per-call
// position tables (e.g. "obj.sub.arr"). It is relative to the nearest
// enclosing frame: the schema's own Root, or — once recursion crosses an
// Array boundary — the Array's element schema, which is itself a fresh
// frame with its own Root-like field list and its own independently-keyed
// paths.
type Field struct {
	Name string
	Kind Kind
	Path string

	// Fields holds the ordered, augmented subfield list for Object and
	// Root kinds, or the single homogeneous element schema's field list
	// for Array kind. Scalar/meta/string/bytes kinds leave this nil.
	Fields []*Field
}

// Schema is the augmented field tree for one (name, version) message,
// rooted at a KindRoot Field. Schema.Fields is the top-level field list
// that Encode/Decode walk in order.
type Schema = *Field

// newFrame returns an empty composite Field of the given kind, ready to
// receive an augmented Fields list.
func newFrame(kind Kind, name string) *Field {
	return &Field{Name: name, Kind: kind}
}

// FieldByName returns the direct child with the given name, or nil.
func (f *Field) FieldByName(name string) *Field {
	for _, sub := range f.Fields {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}
