package harness

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qppconv/internal/testutil"
)

// The qppconv binary runs scenarios, so nothing it links may depend on
// the testing package.
func TestProductionCodeAvoidsTestingPackages(t *testing.T) {
	root := testutil.RepoRoot(t)
	banned := map[string]bool{
		"testing": true,
		"github.com/roach88/qppconv/internal/testutil": true,
		"github.com/sebdah/goldie/v2":                  true,
	}

	fset := token.NewFileSet()
	checked := 0
	for _, dir := range []string{"internal", "cmd"} {
		err := filepath.WalkDir(filepath.Join(root, dir), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "testutil" || d.Name() == "testdata" {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
			if err != nil {
				return err
			}
			checked++
			for _, imp := range f.Imports {
				p, _ := strconv.Unquote(imp.Path.Value)
				assert.False(t, banned[p], "%s imports %s", path, p)
			}
			return nil
		})
		require.NoError(t, err)
	}
	assert.Positive(t, checked)
}
