// Copyright (c) 2024 Neomantra Corp
//
// Opcode map loader (spec.md §4.2 "Opcode map", §6 "Opcode map file").
// Grounded on the teacher's symbol_map.go, which builds a similar
// bidirectional name<->code table from a simple line-oriented text file
// and is tolerant of blank/malformed lines rather than aborting the load.

package tera

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// OpcodeMap is the bidirectional name<->code table parsed from a
// protocol.map file.
type OpcodeMap struct {
	nameToCode map[string]int
	codeToName map[int]string
}

func newOpcodeMap() *OpcodeMap {
	return &OpcodeMap{
		nameToCode: make(map[string]int),
		codeToName: make(map[int]string),
	}
}

// CodeForName returns the opcode mapped to name, if any.
func (m *OpcodeMap) CodeForName(name string) (int, bool) {
	code, ok := m.nameToCode[name]
	return code, ok
}

// NameForCode returns the message name mapped to code, if any.
func (m *OpcodeMap) NameForCode(code int) (string, bool) {
	name, ok := m.codeToName[code]
	return name, ok
}

// loadOpcodeMap parses an opcode map file of "NAME CODE" pairs, one per
// line. "#" starts a comment running to end of line; blank lines are
// skipped. A line with the wrong shape, or a non-numeric code, logs a
// warning naming the file and line number and is otherwise skipped --
// the load itself never fails because of a single bad line.
func loadOpcodeMap(filename string, r io.Reader, logger *slog.Logger) (*OpcodeMap, error) {
	m := newOpcodeMap()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			logger.Warn("opcode map: malformed line, skipping",
				"file", filename, "line", lineNo, "text", line)
			continue
		}
		name := fields[0]
		code, err := strconv.Atoi(fields[1])
		if err != nil {
			logger.Warn("opcode map: non-numeric code, skipping",
				"file", filename, "line", lineNo, "text", line)
			continue
		}
		if existing, ok := m.nameToCode[name]; ok && existing != code {
			logger.Warn("opcode map: name remapped to a new code",
				"file", filename, "line", lineNo, "name", name, "old_code", existing, "new_code", code)
		}
		m.nameToCode[name] = code
		m.codeToName[code] = name
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("opcode map %s: %w", filename, err)
	}
	return m, nil
}
