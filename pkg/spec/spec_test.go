package spec_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/downfa11-org/fixedwidth/pkg/retry"
	"github.com/downfa11-org/fixedwidth/pkg/spec"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsDocumentOrder(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"json", `{"offset": {"zeta": 5, "alpha": 12, "mid": 3}}`},
		{"yaml", "offset:\n  zeta: 5\n  alpha: 12\n  mid: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := spec.Parse([]byte(tt.doc))
			require.NoError(t, err)
			require.Equal(t, []string{"zeta", "alpha", "mid"}, s.Names())
			require.Equal(t, []int{5, 12, 3}, s.Widths())
			require.Equal(t, 20, s.LineWidth())
		})
	}
}

func TestParseIgnoresUnknownKeys(t *testing.T) {
	s, err := spec.Parse([]byte(`{"ColumnNames": ["x"], "offset": {"a": 3, "b": 2}, "Encoding": "utf-8"}`))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, s.Names())
}

func TestParseRejectsInvalidWidths(t *testing.T) {
	docs := map[string]string{
		"non-integer":  `{"offset": {"field1": "10a", "field2": "5b"}}`,
		"quoted":       `{"offset": {"field1": "10"}}`,
		"float":        `{"offset": {"field1": 1.5}}`,
		"zero":         `{"offset": {"field1": 0}}`,
		"negative":     `{"offset": {"field1": -3}}`,
		"nested":       `{"offset": {"field1": {"w": 3}}}`,
		"leading zero": "offset:\n  field1: 010\n",
		"plus sign":    "offset:\n  field1: +3\n",
		"hex":          "offset:\n  field1: 0x10\n",
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := spec.Parse([]byte(doc))
			require.ErrorIs(t, err, spec.ErrInvalidWidth)
		})
	}
}

func TestParseRejectsMissingFields(t *testing.T) {
	for _, doc := range []string{`{}`, `{"offset": {}}`, ``} {
		_, err := spec.Parse([]byte(doc))
		require.ErrorIs(t, err, spec.ErrNoFields, "doc %q", doc)
	}

	_, err := spec.Parse([]byte(`[1, 2]`))
	require.Error(t, err)
	_, err = spec.Parse([]byte(`{"offset": [1, 2]}`))
	require.Error(t, err)
	_, err = spec.Parse([]byte(`{"offset": {`))
	require.Error(t, err)
}

func TestParseRejectsRepeatedOffsetKey(t *testing.T) {
	_, err := spec.Parse([]byte(`{"offset": {"a": 1}, "offset": {"b": 2}}`))
	require.Error(t, err)
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := spec.New(spec.Field{Name: "a", Width: 1}, spec.Field{Name: "a", Width: 2})
	require.ErrorIs(t, err, spec.ErrDuplicateField)
}

func TestCloneIsIndependent(t *testing.T) {
	s := spec.MustNew(spec.Field{Name: "a", Width: 3}, spec.Field{Name: "b", Width: 2})
	c := s.Clone()

	fields := c.Fields()
	fields[0].Width = 99
	require.Equal(t, []int{3, 2}, s.Widths())
	require.Equal(t, []int{3, 2}, c.Widths())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"offset": {"id": 2, "name": 5}}`), 0o644))

	s, err := spec.Load(path, retry.Policy{})
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name"}, s.Names())

	_, err = spec.Load(filepath.Join(t.TempDir(), "missing.json"), retry.Policy{})
	require.Error(t, err)
}
