package filter_test

import (
	"github.com/stretchr/testify/require"
	"testing"

	"github.com/studio1767/s3sync/internal/filter"
)

func TestIncludePatterns(t *testing.T) {
	f := filter.New()
	err := f.ParsePatterns("*.txt\n*.md")
	require.NoError(t, err)

	require.True(t, f.ShouldInclude("test.txt", 100))
	require.True(t, f.ShouldInclude("test.md", 100))
	require.False(t, f.ShouldInclude("test.jpg", 100))
}

func TestExcludePatterns(t *testing.T) {
	f := filter.New()
	err := f.ParsePatterns("!*.tmp\n!*.bak")
	require.NoError(t, err)

	require.True(t, f.ShouldInclude("test.txt", 100))
	require.False(t, f.ShouldInclude("test.tmp", 100))
	require.False(t, f.ShouldInclude("test.bak", 100))
}

func TestExcludeWinsOverInclude(t *testing.T) {
	f := filter.New()
	err := f.ParsePatterns("*.txt\n!*.tmp")
	require.NoError(t, err)

	require.True(t, f.ShouldInclude("a.txt", 100))
	require.False(t, f.ShouldInclude("a.txt.tmp", 100))
}

func TestCommentsAndBlankLinesIgnored(t *testing.T) {
	f := filter.New()
	err := f.ParsePatterns("# only text files\n\n*.txt\n   \n")
	require.NoError(t, err)

	require.True(t, f.ShouldInclude("a.txt", 100))
	require.False(t, f.ShouldInclude("a.jpg", 100))
}

func TestPatternsMatchInSubdirectories(t *testing.T) {
	f := filter.New()
	err := f.ParsePatterns("!*.tmp")
	require.NoError(t, err)

	require.False(t, f.ShouldInclude("a/b/c.tmp", 100))
	require.True(t, f.ShouldInclude("a/b/c.txt", 100))
}

func TestRecursivePatterns(t *testing.T) {
	f := filter.New()
	err := f.ParsePatterns("!build/**")
	require.NoError(t, err)

	require.False(t, f.ShouldInclude("build/out.bin", 100))
	require.False(t, f.ShouldInclude("build/deep/out.bin", 100))
	require.True(t, f.ShouldInclude("src/main.c", 100))
}

func TestSizeBounds(t *testing.T) {
	f := filter.New()
	f.SetMinSize(100)
	f.SetMaxSize(1000)

	// boundaries are inclusive
	require.False(t, f.ShouldInclude("small.txt", 99))
	require.True(t, f.ShouldInclude("edge.txt", 100))
	require.True(t, f.ShouldInclude("medium.txt", 500))
	require.True(t, f.ShouldInclude("edge.txt", 1000))
	require.False(t, f.ShouldInclude("large.txt", 1001))
}

func TestExtensions(t *testing.T) {
	f := filter.New()
	err := f.ParseExtensions("txt,.md,!tmp,!.bak")
	require.NoError(t, err)

	require.True(t, f.ShouldInclude("test.txt", 100))
	require.True(t, f.ShouldInclude("test.md", 100))
	require.False(t, f.ShouldInclude("test.tmp", 100))
	require.False(t, f.ShouldInclude("test.bak", 100))
	require.False(t, f.ShouldInclude("test.jpg", 100))
}

func TestExtensionsAreCaseInsensitive(t *testing.T) {
	f := filter.New()
	err := f.ParseExtensions("txt,!TMP")
	require.NoError(t, err)

	require.True(t, f.ShouldInclude("test.TXT", 100))
	require.False(t, f.ShouldInclude("test.tmp", 100))
}

func TestIncludeExtensionsSkipFilesWithoutExtension(t *testing.T) {
	f := filter.New()
	err := f.ParseExtensions("txt")
	require.NoError(t, err)

	// the include-extension gate only applies when the file has an
	// extension at all
	require.True(t, f.ShouldInclude("Makefile", 100))
	require.True(t, f.ShouldInclude("notes.txt", 100))
	require.False(t, f.ShouldInclude("photo.jpg", 100))
}

func TestEmptyFilterIncludesEverything(t *testing.T) {
	f := filter.New()

	require.True(t, f.ShouldInclude("anything.bin", 0))
	require.True(t, f.ShouldInclude("deep/path/file", 1<<40))
}

func TestBadPatternFailsParse(t *testing.T) {
	f := filter.New()
	err := f.ParsePatterns("[")
	require.Error(t, err)

	var badPattern *filter.ErrBadPattern
	require.ErrorAs(t, err, &badPattern)

	err = f.ParsePatterns("![")
	require.Error(t, err)
}

func TestShouldIncludeIsDeterministic(t *testing.T) {
	f := filter.New()
	err := f.ParsePatterns("*.txt\n!secret*")
	require.NoError(t, err)
	f.SetMinSize(10)

	for i := 0; i < 3; i++ {
		require.True(t, f.ShouldInclude("a.txt", 10))
		require.False(t, f.ShouldInclude("secret.txt", 10))
		require.False(t, f.ShouldInclude("a.txt", 9))
	}
}
