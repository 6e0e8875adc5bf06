// Copyright (c) 2024 Neomantra Corp
//
// Registry: the loaded set of opcodes and versioned schemas, and the
// identifier resolution rules of spec.md §4.3 "Resolving an identifier."
// Grounded on the teacher's metadata.go, which likewise loads a directory
// of definition files into an in-memory table keyed by (name, version)
// and exposes a single "resolve whatever the caller handed us" entry
// point.

package tera

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Registry holds every loaded schema, keyed by message name and version,
// plus the opcode map used to translate between message names and the
// integer opcode written in a frame header.
type Registry struct {
	opcodes *OpcodeMap
	// schemas[name][version] -> augmented Schema
	schemas map[string]map[int]Schema
	// defaultName is used by Resolve when given an empty identifier or a
	// digit string that no opcode maps, per spec.md §4.3's "default
	// message name" convention for single-message protocols.
	defaultName string
	logger      *slog.Logger
}

// NewRegistry returns an empty Registry. Load calls populate it.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		opcodes: newOpcodeMap(),
		schemas: make(map[string]map[int]Schema),
		logger:  logger,
	}
}

// SetDefaultName sets the message name Resolve assumes when given an
// empty string identifier, or a digit string that no opcode maps. An
// unmapped int opcode is still an error.
func (reg *Registry) SetDefaultName(name string) { reg.defaultName = name }

// LoadOpcodeMap parses filename's contents as an opcode map and merges it
// into the Registry.
func (reg *Registry) LoadOpcodeMap(filename string, r io.Reader) error {
	m, err := loadOpcodeMap(filename, r, reg.logger)
	if err != nil {
		return err
	}
	for name, code := range m.nameToCode {
		reg.opcodes.nameToCode[name] = code
		reg.opcodes.codeToName[code] = name
	}
	return nil
}

// LoadDefinition parses filename (expected to be named "Name.Version.def")
// and registers the resulting schema.
func (reg *Registry) LoadDefinition(filename string, r io.Reader) error {
	name, version, err := ParseDefFilename(filename)
	if err != nil {
		return err
	}
	root, hasExplicit, err := parseDefinition(filename, r, reg.logger)
	if err != nil {
		return err
	}

	var schema Schema
	if hasExplicit {
		reg.logger.Info("definition uses explicit count/offset fields, skipping implicit meta insertion",
			"file", filename, "name", name, "version", version)
		schema = explicitSchema(root, name)
	} else {
		schema = augment(root, name)
	}

	if reg.schemas[name] == nil {
		reg.schemas[name] = make(map[int]Schema)
	}
	if _, exists := reg.schemas[name][version]; exists {
		reg.logger.Warn("definition replaces an already-loaded schema version",
			"file", filename, "name", name, "version", version)
	}
	reg.schemas[name][version] = schema
	return nil
}

// LoadDir walks dir, loading every "*.map" file as an opcode map and every
// "*.def" file as a definition. It is tolerant: a file that fails to
// parse is logged and skipped, matching spec.md §4.2's "never abort the
// whole load because of one bad file" posture.
func (reg *Registry) LoadDir(dirFS fs.FS, dir string) error {
	return fs.WalkDir(dirFS, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".map"):
			f, oerr := dirFS.Open(path)
			if oerr != nil {
				reg.logger.Warn("could not open opcode map", "file", path, "err", oerr)
				return nil
			}
			defer f.Close()
			if lerr := reg.LoadOpcodeMap(path, f); lerr != nil {
				reg.logger.Warn("could not load opcode map", "file", path, "err", lerr)
			}
		case strings.HasSuffix(path, ".def"):
			f, oerr := dirFS.Open(path)
			if oerr != nil {
				reg.logger.Warn("could not open definition", "file", filepath.Base(path), "err", oerr)
				return nil
			}
			defer f.Close()
			if lerr := reg.LoadDefinition(filepath.Base(path), f); lerr != nil {
				reg.logger.Warn("could not load definition", "file", filepath.Base(path), "err", lerr)
			}
		}
		return nil
	})
}

// MessageNames returns every message name with at least one loaded
// schema, in no particular order.
func (reg *Registry) MessageNames() []string {
	names := make([]string, 0, len(reg.schemas))
	for name := range reg.schemas {
		names = append(names, name)
	}
	return names
}

// Versions returns the sorted list of loaded versions for a message name.
func (reg *Registry) Versions(name string) []int {
	vers := reg.schemas[name]
	if len(vers) == 0 {
		return nil
	}
	out := make([]int, 0, len(vers))
	for v := range vers {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// MaxVersion returns the highest loaded version for name, or (0, false)
// if none are loaded.
func (reg *Registry) MaxVersion(name string) (int, bool) {
	vers := reg.Versions(name)
	if len(vers) == 0 {
		return 0, false
	}
	return vers[len(vers)-1], true
}

// OpcodeForName returns the opcode registered for a message name.
func (reg *Registry) OpcodeForName(name string) (int, bool) { return reg.opcodes.CodeForName(name) }

// NameForOpcode returns the message name registered for an opcode.
func (reg *Registry) NameForOpcode(code int) (string, bool) { return reg.opcodes.NameForCode(code) }

// Resolve implements spec.md §4.3's identifier resolution: identifier may
// be a *Field (an already-resolved Schema, returned as-is), a string
// message name, or a numeric opcode (as an int, or a string of digits).
// desiredVersion selects among that message's loaded versions; "*" (or
// an empty string) picks the highest loaded version. An empty string
// identifier, or a digit string that no opcode maps, falls back to
// defaultName; an int opcode that no name maps is an error.
func (reg *Registry) Resolve(identifier any, desiredVersion string) (Schema, error) {
	if schema, ok := identifier.(Schema); ok {
		return schema, nil
	}

	name, err := reg.resolveName(identifier)
	if err != nil {
		return nil, err
	}

	vers := reg.schemas[name]
	if len(vers) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSchema, name)
	}

	version, err := reg.resolveVersion(name, desiredVersion)
	if err != nil {
		return nil, err
	}
	schema, ok := vers[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q version %d", ErrNoSchema, name, version)
	}
	return schema, nil
}

func (reg *Registry) resolveName(identifier any) (string, error) {
	switch v := identifier.(type) {
	case string:
		if v == "" {
			if reg.defaultName == "" {
				return "", ErrInvalidIdentifier
			}
			return reg.defaultName, nil
		}
		if code, err := strconv.Atoi(v); err == nil {
			if name, ok := reg.opcodes.NameForCode(code); ok {
				return name, nil
			}
			reg.logger.Warn("numeric identifier has no opcode mapping, falling back to default message name",
				"code", code)
			if reg.defaultName == "" {
				return "", fmt.Errorf("%w: code %d", ErrUnknownMessage, code)
			}
			return reg.defaultName, nil
		}
		if _, ok := reg.schemas[v]; !ok {
			reg.logger.Warn("message name has no loaded schema", "name", v)
		}
		return v, nil
	case int:
		name, ok := reg.opcodes.NameForCode(v)
		if !ok {
			return "", fmt.Errorf("%w: code %d", ErrUnknownMessage, v)
		}
		return name, nil
	default:
		return "", ErrInvalidIdentifier
	}
}

func (reg *Registry) resolveVersion(name, desiredVersion string) (int, error) {
	if desiredVersion == "" || desiredVersion == "*" {
		v, ok := reg.MaxVersion(name)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrNoSchema, name)
		}
		return v, nil
	}
	v, err := strconv.Atoi(desiredVersion)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q for message %q: %w", desiredVersion, name, err)
	}
	return v, nil
}

// Opcode returns the frame-header opcode for a message name, per
// spec.md §4.5's requirement that Encode fail fast when a message has no
// opcode mapped rather than writing a frame no decoder can route.
func (reg *Registry) Opcode(name string) (int, error) {
	code, ok := reg.opcodes.CodeForName(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNoOpcode, name)
	}
	return code, nil
}
