// Package spec holds the ordered field-name to width mapping that drives
// both generation and parsing of fixed-width files.
package spec

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/downfa11-org/fixedwidth/pkg/retry"
	"github.com/downfa11-org/fixedwidth/util"
	"gopkg.in/yaml.v3"
)

// OffsetKey is the document key holding the field mapping.
const OffsetKey = "offset"

var (
	ErrInvalidWidth   = errors.New("field width must be a positive integer")
	ErrDuplicateField = errors.New("duplicate field name")
	ErrNoFields       = errors.New("spec declares no fields")
)

type Field struct {
	Name  string
	Width int
}

// Spec is immutable after construction; share it freely or Clone it per worker.
type Spec struct {
	fields []Field
}

func New(fields ...Field) (*Spec, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Width <= 0 {
			return nil, fmt.Errorf("field %q: %w (got %d)", f.Name, ErrInvalidWidth, f.Width)
		}
		if _, ok := seen[f.Name]; ok {
			return nil, fmt.Errorf("field %q: %w", f.Name, ErrDuplicateField)
		}
		seen[f.Name] = struct{}{}
		out = append(out, f)
	}
	return &Spec{fields: out}, nil
}

// MustNew panics on an invalid field list. Intended for tests and literals.
func MustNew(fields ...Field) *Spec {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Spec) Len() int { return len(s.fields) }

func (s *Spec) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

func (s *Spec) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

func (s *Spec) Widths() []int {
	widths := make([]int, len(s.fields))
	for i, f := range s.fields {
		widths[i] = f.Width
	}
	return widths
}

// LineWidth is the length of one fixed-width line, excluding the newline.
func (s *Spec) LineWidth() int {
	total := 0
	for _, f := range s.fields {
		total += f.Width
	}
	return total
}

func (s *Spec) Clone() *Spec {
	return &Spec{fields: s.Fields()}
}

// Load reads a YAML or JSON spec document. Reading the file is retried; a
// malformed document is not.
func Load(path string, policy retry.Policy) (*Spec, error) {
	util.Debug("Reading spec file %s", path)
	data, err := retry.Do(policy, "read_spec_file", func() ([]byte, error) {
		return os.ReadFile(path)
	})
	if err != nil {
		return nil, fmt.Errorf("read spec %s: %w", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("spec %s: %w", path, err)
	}
	util.Debug("Loaded spec with %d fields, line width %d", s.Len(), s.LineWidth())
	return s, nil
}

// Parse decodes a spec document. JSON is accepted since it is valid YAML.
func Parse(data []byte) (*Spec, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed spec document: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrNoFields
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("malformed spec document: top level must be a mapping")
	}

	offsets, err := lookup(root, OffsetKey)
	if err != nil {
		return nil, err
	}
	if offsets == nil {
		return nil, fmt.Errorf("%w: missing %q mapping", ErrNoFields, OffsetKey)
	}
	if offsets.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("malformed spec document: %q must be a mapping", OffsetKey)
	}

	fields := make([]Field, 0, len(offsets.Content)/2)
	for i := 0; i+1 < len(offsets.Content); i += 2 {
		name, value := offsets.Content[i], offsets.Content[i+1]
		width, err := parseWidth(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name.Value, err)
		}
		fields = append(fields, Field{Name: name.Value, Width: width})
	}
	return New(fields...)
}

func lookup(m *yaml.Node, key string) (*yaml.Node, error) {
	var found *yaml.Node
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != key {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("malformed spec document: %q appears more than once", key)
		}
		found = m.Content[i+1]
	}
	return found, nil
}

// parseWidth rejects quoted numbers ("10") as well as "10a": widths are plain
// decimal integers, so "010", "+3" and "0x10" are refused too.
func parseWidth(n *yaml.Node) (int, error) {
	if n.Kind != yaml.ScalarNode || n.Tag != "!!int" || !isDecimal(n.Value) {
		return 0, fmt.Errorf("%w (got %q)", ErrInvalidWidth, n.Value)
	}
	w, err := strconv.Atoi(n.Value)
	if err != nil || w <= 0 {
		return 0, fmt.Errorf("%w (got %q)", ErrInvalidWidth, n.Value)
	}
	return w, nil
}

func isDecimal(v string) bool {
	if v == "" || v[0] == '0' {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}
