// Copyright (c) 2024 Neomantra Corp
//
// Augmentation: turns the raw field tree parsed from a .def file into the
// canonical augmented Schema described in spec.md §3 "Schema" and §9
// "Augmented schema vs. original definition" -- every array/string/bytes
// field gets preceding count/offset meta siblings, inserted at the
// nearest frame boundary (the schema's Root, or an Array's element
// schema) rather than at the field's own immediate parent, so that a
// count/offset pair for a field buried several `object` levels deep can
// "live at the top of the enclosing record" the way spec.md §3 describes.
//
// The reference implementation does this with a temporary arena of nodes
// carrying parent back-pointers, walked upward at insertion time (see
// spec.md §9 "Cyclic-looking parent links"). This implementation reaches
// the same placement by building the augmented tree top-down with an
// accumulated dotted-path prefix instead: each frame (augmentFrame) looks
// ahead through its own Object children with collectVarDescendants to
// find every variable-length field reachable by crossing only Object
// boundaries, and places that field's count/offset meta at the head of
// the frame, ahead of every field the frame holds. Array children always
// start a fresh frame, since an array's elements are stored elsewhere in
// the buffer and decoded via their own pointer chain (spec.md §3
// invariants 3-4), so meta for fields inside an element schema can never
// be hoisted past the array boundary.

package tera

// metaTarget is one variable-length field found while scanning an Object
// subtree for descendants reachable purely through further Object
// nesting.
type metaTarget struct {
	kind Kind
	path string
}

// collectVarDescendants performs a pre-order scan of node's subtree,
// descending through Object children only, collecting every
// String/Bytes/Array field it finds. Array children are recorded (their
// header is itself variable-length) but not descended into: their
// elements are a separate frame, augmented independently.
func collectVarDescendants(node *rawNode, prefix string) []metaTarget {
	var out []metaTarget
	for _, child := range node.children {
		switch child.kind {
		case KindObject:
			out = append(out, collectVarDescendants(child, prefix+child.name+".")...)
		default:
			if child.kind.IsVariableLength() {
				out = append(out, metaTarget{kind: child.kind, path: prefix + child.name})
			}
		}
	}
	return out
}

// metaFieldsForKind returns the meta Fields that must precede a
// variable-length field of the given kind, per spec.md §3 "Meta
// insertion rules."
func metaFieldsForKind(kind Kind, path string) []*Field {
	switch kind {
	case KindArray:
		return []*Field{
			{Name: "$count", Kind: KindCount, Path: path},
			{Name: "$offset", Kind: KindOffset, Path: path},
		}
	case KindBytes:
		return []*Field{
			{Name: "$offset", Kind: KindOffset, Path: path},
			{Name: "$count", Kind: KindCount, Path: path},
		}
	case KindString:
		return []*Field{
			{Name: "$offset", Kind: KindOffset, Path: path},
		}
	default:
		return nil
	}
}

// buildObjectFields rebuilds node's own children in order, recursing into
// nested Objects (without inserting meta -- that happens once, at the
// ancestor frame that owns this whole Object chain) and starting a fresh
// augmented frame for any Array child.
func buildObjectFields(node *rawNode, prefix string) []*Field {
	out := make([]*Field, 0, len(node.children))
	for _, child := range node.children {
		f := &Field{Name: child.name, Kind: child.kind, Path: prefix + child.name}
		switch child.kind {
		case KindObject:
			f.Fields = buildObjectFields(child, prefix+child.name+".")
		case KindArray:
			f.Fields = augmentFrame(child.children, "")
		}
		out = append(out, f)
	}
	return out
}

// augmentFrame builds the augmented field list for one frame (a schema's
// Root, or an Array's element schema) from its raw children: all of the
// frame's meta fields first, in the order of the fields they describe,
// then the frame's own fields in source order.
func augmentFrame(children []*rawNode, prefix string) []*Field {
	var meta []*Field
	out := make([]*Field, 0, len(children))
	for _, child := range children {
		if child.kind == KindObject {
			for _, target := range collectVarDescendants(child, prefix+child.name+".") {
				meta = append(meta, metaFieldsForKind(target.kind, target.path)...)
			}
			out = append(out, &Field{
				Name:   child.name,
				Kind:   KindObject,
				Path:   prefix + child.name,
				Fields: buildObjectFields(child, prefix+child.name+"."),
			})
			continue
		}

		path := prefix + child.name
		if child.kind.IsVariableLength() {
			meta = append(meta, metaFieldsForKind(child.kind, path)...)
		}
		f := &Field{Name: child.name, Kind: child.kind, Path: path}
		if child.kind == KindArray {
			f.Fields = augmentFrame(child.children, "")
		}
		out = append(out, f)
	}
	return append(meta, out...)
}

// augment produces the canonical augmented Schema for a raw definition
// tree parsed from a .def file.
func augment(root *rawNode, name string) Schema {
	return &Field{
		Name:   name,
		Kind:   KindRoot,
		Fields: augmentFrame(root.children, ""),
	}
}

// explicitSchema converts a raw definition tree into a Schema without
// inserting any meta fields, for definitions that already declare
// count/offset explicitly (spec.md §3 "Implicit-meta mode"). Each
// explicit count/offset field's Path is resolved to the next
// variable-length field that follows it in the same sibling list --
// the convention this implementation uses so that a hand-written meta
// entry still keys correctly into the Encoder/Decoder's position tables,
// since plain text carries no other way to say "this count goes with
// that array."
func explicitSchema(root *rawNode, name string) Schema {
	return &Field{
		Name:   name,
		Kind:   KindRoot,
		Fields: explicitFrame(root.children, ""),
	}
}

func explicitFrame(children []*rawNode, prefix string) []*Field {
	out := make([]*Field, 0, len(children))
	for i, child := range children {
		f := &Field{Name: child.name, Kind: child.kind}
		switch child.kind {
		case KindCount, KindOffset:
			f.Path = nextVariableLengthPath(children, i+1, prefix)
		default:
			f.Path = prefix + child.name
		}
		switch child.kind {
		case KindObject:
			f.Fields = explicitFrame(child.children, prefix+child.name+".")
		case KindArray:
			f.Fields = explicitFrame(child.children, "")
		}
		out = append(out, f)
	}
	return out
}

func nextVariableLengthPath(siblings []*rawNode, from int, prefix string) string {
	for i := from; i < len(siblings); i++ {
		if siblings[i].kind.IsVariableLength() {
			return prefix + siblings[i].name
		}
	}
	return ""
}
