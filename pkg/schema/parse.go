package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document parsing errors.
var (
	ErrMissingBitLength = errors.New("bitfield declaration requires bitLength")
	ErrMissingBlobSize  = errors.New("blob declaration requires size")
)

// docField is the external declaration shape. A declaration with only name
// and bitLength is a bitfield, matching the original schema file format;
// type selects one of the other kinds, and size gives a blob's byte length.
type docField struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type,omitempty" yaml:"type,omitempty"`
	BitLength int    `json:"bitLength,omitempty" yaml:"bitLength,omitempty"`
	Size      int    `json:"size,omitempty" yaml:"size,omitempty"`
}

// Parse compiles a JSON schema document: an ordered array of field
// declarations.
func Parse(doc []byte) (*Schema, error) {
	var raw []docField
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}
	return compileDoc(raw)
}

// ParseYAML compiles a YAML schema document of the same shape as Parse.
func ParseYAML(doc []byte) (*Schema, error) {
	var raw []docField
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}
	return compileDoc(raw)
}

// LoadFile reads and compiles a schema document, choosing the codec by file
// extension: .yaml/.yml is YAML, anything else is JSON.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// compileDoc converts document declarations into FieldDecls and compiles
// them. Structural problems are reported with the declaration index; layout
// problems propagate from Compile unchanged.
func compileDoc(raw []docField) (*Schema, error) {
	decls := make([]FieldDecl, 0, len(raw))
	for i, rf := range raw {
		d := FieldDecl{Name: rf.Name, BitWidth: rf.BitLength, Size: rf.Size}
		switch rf.Type {
		case "", "bitfield":
			d.Kind = Bitfield
			if rf.BitLength == 0 {
				return nil, fmt.Errorf("declaration %d (%q): %w", i, rf.Name, ErrMissingBitLength)
			}
		case "uint8":
			d.Kind = FixedU8
		case "uint16":
			d.Kind = FixedU16
		case "uint32":
			d.Kind = FixedU32
		case "int32":
			d.Kind = FixedI32
		case "blob":
			d.Kind = Blob
			if rf.Size == 0 {
				return nil, fmt.Errorf("declaration %d (%q): %w", i, rf.Name, ErrMissingBlobSize)
			}
		default:
			return nil, fmt.Errorf("declaration %d (%q) type %q: %w", i, rf.Name, rf.Type, ErrUnknownFieldKind)
		}
		decls = append(decls, d)
	}
	return Compile(decls)
}
