// Copyright (c) 2024 Neomantra Corp
//
// Definition file loader (spec.md §4.2 "Definition files", §6 "Definition
// file (.def)"). Parses the indentation-by-dashes line format into a raw
// field tree, which augment.go then turns into the canonical augmented
// Schema. Grounded on the teacher's metadata.go line-oriented parsing
// style (regexp-per-line, warn-and-continue on malformed input) and
// json_scanner.go's use of bufio.Scanner for streaming line reads.

package tera

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var defFilenameRe = regexp.MustCompile(`^(\w+)\.(\d+)\.def$`)

var defLineRe = regexp.MustCompile(`^((?:-\s*)*)(\w+)\s+(\w+)\s*$`)

// ParseDefFilename extracts the message name and version encoded in a
// definition file's name, e.g. "Order.2.def" -> ("Order", 2).
func ParseDefFilename(filename string) (name string, version int, err error) {
	base := filename
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	m := defFilenameRe.FindStringSubmatch(base)
	if m == nil {
		return "", 0, fmt.Errorf("definition filename %q does not match NAME.VERSION.def", filename)
	}
	version, err = strconv.Atoi(m[2])
	if err != nil {
		return "", 0, fmt.Errorf("definition filename %q: %w", filename, err)
	}
	return m[1], version, nil
}

// rawNode is one line of a parsed .def file, before meta-field
// augmentation: just a name, a Kind, and (for object/array) children in
// source order.
type rawNode struct {
	name     string
	kind     Kind
	children []*rawNode
}

// parseDefinition reads a definition file's body (one field per line, a
// run of leading "-" marking nesting depth) into a raw field tree rooted
// at a synthetic node whose children are the top-level fields.
//
// A line whose depth skips more than one level deeper than its
// predecessor is accepted as a one-step descent from the nearest open
// ancestor, with a warning -- spec.md §4.2 treats a skipped level as
// recoverable, not fatal, since the only information lost is how many
// intermediate anonymous levels the author meant to imply.
func parseDefinition(filename string, r io.Reader, logger *slog.Logger) (root *rawNode, hasExplicitMeta bool, err error) {
	root = &rawNode{kind: KindRoot}
	type frame struct {
		node  *rawNode
		depth int
	}
	stack := []frame{{node: root, depth: -1}}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if idx := strings.IndexByte(raw, '#'); idx >= 0 {
			raw = raw[:idx]
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}

		m := defLineRe.FindStringSubmatch(raw)
		if m == nil {
			logger.Warn("definition: malformed line, skipping",
				"file", filename, "line", lineNo, "text", raw)
			continue
		}
		depth := strings.Count(m[1], "-")
		kind, kerr := KindFromString(m[2])
		if kerr != nil {
			logger.Warn("definition: unknown field type, skipping",
				"file", filename, "line", lineNo, "type", m[2])
			continue
		}
		fieldName := m[3]

		parentDepth := stack[len(stack)-1].depth
		if depth > parentDepth+1 {
			logger.Warn("definition: field skips a nesting level, treating as one level deeper",
				"file", filename, "line", lineNo, "name", fieldName, "depth", depth, "parent_depth", parentDepth)
			depth = parentDepth + 1
		}
		for stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}

		node := &rawNode{name: fieldName, kind: kind}
		parent := stack[len(stack)-1].node
		parent.children = append(parent.children, node)
		if kind.IsComposite() {
			// Only object/array introduce a new nesting scope; a scalar
			// or meta field never has children, so it never goes on the
			// stack -- a line nested under one is instead attached to
			// the nearest open composite ancestor, with the depth skip
			// warning above already having fired.
			stack = append(stack, frame{node: node, depth: depth})
		}
		if kind.IsMeta() {
			hasExplicitMeta = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("definition %s: %w", filename, err)
	}
	return root, hasExplicitMeta, nil
}
