package artifact_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/downfa11-org/fixedwidth/pkg/artifact"
	"github.com/google/go-cmp/cmp"
)

func newStore(t *testing.T) *artifact.Store {
	t.Helper()
	s, err := artifact.NewStore(filepath.Join(t.TempDir(), "artifacts"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestWriteString(t *testing.T) {
	s := newStore(t)
	for _, data := range []string{"This is a test data.", ""} {
		path, err := s.WriteString(data)
		if err != nil {
			t.Fatalf("WriteString(%q): %v", data, err)
		}
		if filepath.Dir(path) != s.Dir {
			t.Errorf("artifact %s written outside %s", path, s.Dir)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != data {
			t.Errorf("content = %q, want %q", got, data)
		}
	}
}

func TestWriteStringUniqueNames(t *testing.T) {
	s := newStore(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		path, err := s.WriteString("x")
		if err != nil {
			t.Fatal(err)
		}
		if seen[path] {
			t.Fatalf("duplicate artifact name %s", path)
		}
		seen[path] = true
	}
}

func TestWriteRows(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{"valid", [][]string{
			{"Name", "Age", "City"},
			{"User1", "30", "Melbourne"},
			{"User2", "25", "Canberra"},
		}},
		{"special characters", [][]string{
			{"Name", "Age", "City"},
			{"User1", "30", "Melbou\nrne"},
			{"User2", "25", "Canb,erra"},
			{"User3", "35", `Sydn"ey`},
		}},
		{"empty", nil},
	}

	s := newStore(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := s.WriteRows(tt.rows)
			if err != nil {
				t.Fatalf("WriteRows: %v", err)
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
			if diff := cmp.Diff(tt.rows, got); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteFailsWhenDirectoryIsGone(t *testing.T) {
	s := newStore(t)
	if err := os.RemoveAll(s.Dir); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteString("data"); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}

func TestRemove(t *testing.T) {
	s := newStore(t)
	path, err := s.WriteString("bye")
	if err != nil {
		t.Fatal(err)
	}
	if err := artifact.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("artifact still present: %v", err)
	}
	if err := artifact.Remove(path); err == nil || !strings.Contains(err.Error(), "remove artifact") {
		t.Errorf("second Remove err = %v, want wrapped not-exist error", err)
	}
}

func TestWriteRowsUsesLFTerminator(t *testing.T) {
	s := newStore(t)
	path, err := s.WriteRows([][]string{{"a", "b c"}, {"d", "e,f"}})
	if err != nil {
		t.Fatalf("WriteRows: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "a,b c\nd,\"e,f\"\n"; string(got) != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}
