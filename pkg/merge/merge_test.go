package merge_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/downfa11-org/fixedwidth/pkg/artifact"
	"github.com/downfa11-org/fixedwidth/pkg/merge"
	"github.com/stretchr/testify/require"
)

func writeArtifacts(t *testing.T, contents ...string) (*artifact.Store, []string) {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)

	paths := make([]string, 0, len(contents))
	for _, c := range contents {
		p, err := store.WriteString(c)
		require.NoError(t, err)
		paths = append(paths, p)
	}
	return store, paths
}

func requireGone(t *testing.T, paths []string) {
	t.Helper()
	for _, p := range paths {
		_, err := os.Stat(p)
		require.True(t, os.IsNotExist(err), "artifact %s was not deleted", p)
	}
}

func TestMergeSmallWindowIsByteExact(t *testing.T) {
	contents := []string{
		"alpha-line-1\nalpha-line-2\n",
		"",
		"beta\n",
		strings.Repeat("gamma\n", 50),
	}
	out := filepath.Join(t.TempDir(), "out.txt")

	for _, window := range []int{1, 3, 7} {
		_, paths := writeArtifacts(t, contents...)
		require.NoError(t, merge.Merge(paths, out, merge.Options{Window: window}))

		got, err := os.ReadFile(out)
		require.NoError(t, err)
		require.Equal(t, strings.Join(contents, ""), string(got), "window %d", window)
		requireGone(t, paths)
	}
}

func TestMergeWithHeader(t *testing.T) {
	_, paths := writeArtifacts(t, "a,b\n", "c,d\n")
	out := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, merge.Merge(paths, out, merge.Options{Header: []string{"header1", "header2"}, Window: 2}))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "header1,header2\na,b\nc,d\n", string(got))
	requireGone(t, paths)
}

func TestMergeEmptyList(t *testing.T) {
	dir := t.TempDir()

	noHeader := filepath.Join(dir, "empty.csv")
	require.NoError(t, merge.Merge(nil, noHeader, merge.Options{}))
	got, err := os.ReadFile(noHeader)
	require.NoError(t, err)
	require.Empty(t, got)

	withHeader := filepath.Join(dir, "header.csv")
	require.NoError(t, merge.Merge(nil, withHeader, merge.Options{Header: []string{"id", "name"}}))
	got, err = os.ReadFile(withHeader)
	require.NoError(t, err)
	require.Equal(t, "id,name\n", string(got))
}

func TestMergeTruncatesExistingOutput(t *testing.T) {
	_, paths := writeArtifacts(t, "new\n")
	out := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(out, bytes.Repeat([]byte("old\n"), 10), 0o644))

	require.NoError(t, merge.Merge(paths, out, merge.Options{}))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "new\n", string(got))
}

func TestMergeMissingArtifactLeavesRemainder(t *testing.T) {
	_, paths := writeArtifacts(t, "first\n", "third\n")
	missing := filepath.Join(t.TempDir(), "missing.tmp")
	ordered := []string{paths[0], missing, paths[1]}
	out := filepath.Join(t.TempDir(), "out.txt")

	err := merge.Merge(ordered, out, merge.Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "2/3")

	requireGone(t, paths[:1])
	_, statErr := os.Stat(paths[1])
	require.NoError(t, statErr, "unconsumed artifact must stay on disk")
}

func TestMergeUnwritableOutput(t *testing.T) {
	_, paths := writeArtifacts(t, "data\n")
	out := filepath.Join(t.TempDir(), "no-such-dir", "out.txt")

	require.Error(t, merge.Merge(paths, out, merge.Options{}))
	_, err := os.Stat(paths[0])
	require.NoError(t, err)
}
