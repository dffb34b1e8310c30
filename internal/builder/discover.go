package builder

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultSuffixes are the file suffixes treated as compilable sources
var DefaultSuffixes = []string{".cpp"}

// CollectSources returns every file under sourceDir whose name ends in one of
// suffixes, sorted by path. A missing sourceDir is a SourceDirMissing error; a
// directory without matches yields an empty slice.
func CollectSources(sourceDir string, suffixes []string) ([]string, error) {
	if len(suffixes) == 0 {
		suffixes = DefaultSuffixes
	}

	stat, err := os.Stat(sourceDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &BuildError{Kind: KindSourceDirMissing, Err: err}
		}
		return nil, err
	}
	if !stat.IsDir() {
		return nil, newError(KindSourceDirMissing, "", "%s is not a directory", sourceDir)
	}

	fsys := os.DirFS(sourceDir)
	files := []string{}
	seen := make(map[string]bool)

	for _, suffix := range suffixes {
		pat := "**/*" + escapeGlob(suffix)
		matches, err := doublestar.Glob(fsys, pat, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true
			files = append(files, filepath.Join(sourceDir, filepath.FromSlash(match)))
		}
	}

	slices.Sort(files)
	return files, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `{`, `\{`)

func escapeGlob(s string) string { return globEscaper.Replace(s) }
