package parse_test

import (
	"context"
	"encoding/csv"
	"os"
	"testing"

	"github.com/downfa11-org/fixedwidth/pkg/artifact"
	"github.com/downfa11-org/fixedwidth/pkg/parse"
	"github.com/downfa11-org/fixedwidth/pkg/spec"
	"github.com/google/go-cmp/cmp"
)

func TestSplitLine(t *testing.T) {
	widths := []int{3, 2}
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"exact", "abcde\n", []string{"abc", "de"}},
		{"padded", " a  b\n", []string{"a", "b"}},
		{"crlf", "abcde\r\n", []string{"abc", "de"}},
		{"no terminator", "abcde", []string{"abc", "de"}},
		{"short", "ab\n", []string{"ab", ""}},
		{"empty", "\n", []string{"", ""}},
		{"long", "abcdefgh\n", []string{"abc", "de"}},
		{"multibyte", "äöü€x\n", []string{"äöü", "€x"}},
		{"all spaces", "     \n", []string{"", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parse.SplitLine(tt.line, widths)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SplitLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestParseWritesQuotedRows(t *testing.T) {
	store, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	w := parse.NewWorker(store)
	s := spec.MustNew(spec.Field{Name: "id", Width: 2}, spec.Field{Name: "name", Width: 5})

	lines := []string{"1 a,b c\n", `2 "q" ` + "\n", "3 plain\n"}
	path, err := w.Parse(context.Background(), lines, s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	want := [][]string{{"1", "a,b c"}, {"2", `"q"`}, {"3", "plain"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSurfacesPersistFailure(t *testing.T) {
	store, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(store.Dir); err != nil {
		t.Fatal(err)
	}

	w := parse.NewWorker(store)
	_, err = w.Parse(context.Background(), []string{"abc\n"}, spec.MustNew(spec.Field{Name: "a", Width: 3}))
	if err == nil {
		t.Fatal("expected the persist failure to surface")
	}
}
