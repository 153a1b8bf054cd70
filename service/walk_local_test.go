package service

import (
	"os"
	"path/filepath"
	"testing"

	set "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"

	"github.com/crcloud/crdeploy/filter"
	"github.com/crcloud/crdeploy/pathutil"
)

func writeTestFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("content of "+filepath.Base(path)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func rulesFor(excludes []string, includes []string) filter.Rules {
	return filter.NewLocalRules(
		set.NewThreadUnsafeSet[string](excludes...),
		set.NewThreadUnsafeSet[string](includes...),
		string(os.PathSeparator),
	)
}

func resolved(t *testing.T, p string) string {
	t.Helper()
	r, err := pathutil.Resolve(p)
	assert.NoError(t, err)
	return r
}

func TestPathsToDeploy_PrunesDefaultNamesAndDotDirs(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "keep.txt"))
	writeTestFile(t, filepath.Join(root, "node_modules", "x.js"))
	writeTestFile(t, filepath.Join(root, ".hidden", "y.txt"))

	paths, err := PathsToDeploy(root, rulesFor(nil, nil))
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(resolved(t, root), "keep.txt")}, paths)
}

func TestPathsToDeploy_InclusionCannotRescuePrunedSubtree(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "keep.txt"))
	writeTestFile(t, filepath.Join(root, "node_modules", "x.js"))

	include := filepath.Join(resolved(t, root), "node_modules", "x.js")
	paths, err := PathsToDeploy(root, rulesFor(nil, []string{include}))
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(resolved(t, root), "keep.txt")}, paths)
}

func TestPathsToDeploy_DirectoriesPrecedeTheirContents(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "app", "sub", "deep.txt"))
	writeTestFile(t, filepath.Join(root, "app", "file.txt"))

	r := resolved(t, root)
	paths, err := PathsToDeploy(root, rulesFor(nil, nil))
	assert.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(r, "app"),
		filepath.Join(r, "app", "file.txt"),
		filepath.Join(r, "app", "sub"),
		filepath.Join(r, "app", "sub", "deep.txt"),
	}, paths)
}

func TestPathsToDeploy_ExplicitExcludePrunesDirectory(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "media", "big.bin"))
	writeTestFile(t, filepath.Join(root, "index.html"))

	r := resolved(t, root)
	exclude := filepath.Join(r, "media")
	paths, err := PathsToDeploy(root, rulesFor([]string{exclude}, nil))
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(r, "index.html")}, paths)
}

func TestPathsToDeploy_IncludedFileWithCleanAncestryIsYielded(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "conf", "local.yaml"))

	r := resolved(t, root)
	target := filepath.Join(r, "conf", "local.yaml")
	paths, err := PathsToDeploy(root, rulesFor([]string{target}, []string{target}))
	assert.NoError(t, err)
	assert.Contains(t, paths, target)
}

func TestPathsToDeploy_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "b.txt"))
	writeTestFile(t, filepath.Join(root, "a", "one.txt"))
	writeTestFile(t, filepath.Join(root, "c", "two.txt"))

	first, err1 := PathsToDeploy(root, rulesFor(nil, nil))
	second, err2 := PathsToDeploy(root, rulesFor(nil, nil))
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, first, second)
}

func TestPathsToDeploy_MissingRoot(t *testing.T) {
	_, err := PathsToDeploy(filepath.Join(t.TempDir(), "nope"), rulesFor(nil, nil))
	assert.Error(t, err)
}

func TestPathsToDeploy_RootIsFile(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "only.txt")
	writeTestFile(t, p)
	_, err := PathsToDeploy(p, rulesFor(nil, nil))
	assert.Error(t, err)
}
