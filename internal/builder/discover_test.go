package builder

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestCollectSources(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"zeta.cpp",
		"main.cpp",
		"alpha.cpp",
		"emit/aex/generator.cpp",
		"emit/stream.cpp",
		"ast/node.h",
		"README.md",
		"notes.cpp.bak",
	)
	if err := os.MkdirAll(filepath.Join(root, "dir.cpp"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := CollectSources(root, nil)
	if err != nil {
		t.Fatalf("CollectSources: %v", err)
	}

	var want []string
	for _, f := range []string{"alpha.cpp", "emit/aex/generator.cpp", "emit/stream.cpp", "main.cpp", "zeta.cpp"} {
		want = append(want, filepath.Join(root, filepath.FromSlash(f)))
	}
	if !slices.Equal(got, want) {
		t.Errorf("CollectSources() =\n  %q\nwant\n  %q", got, want)
	}

	if !slices.IsSorted(got) {
		t.Errorf("result is not sorted: %q", got)
	}

	again, err := CollectSources(root, nil)
	if err != nil {
		t.Fatalf("second CollectSources: %v", err)
	}
	if !slices.Equal(got, again) {
		t.Errorf("CollectSources is not idempotent:\n  %q\n  %q", got, again)
	}
}

func TestCollectSourcesSuffixes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.cpp", "b.cc", "c.c", "d.h")

	got, err := CollectSources(root, []string{".cc", ".cpp"})
	if err != nil {
		t.Fatalf("CollectSources: %v", err)
	}
	want := []string{filepath.Join(root, "a.cpp"), filepath.Join(root, "b.cc")}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCollectSourcesEmpty(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "include/ace.h")

	got, err := CollectSources(root, nil)
	if err != nil {
		t.Fatalf("CollectSources on a tree without sources: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %q, want an empty, non-nil slice", got)
	}
}

func TestCollectSourcesMissing(t *testing.T) {
	_, err := CollectSources(filepath.Join(t.TempDir(), "nope"), nil)
	if err == nil {
		t.Fatal("expected an error for a missing directory")
	}
	if !errors.Is(err, ErrSourceDirMissing) {
		t.Errorf("error %v does not match ErrSourceDirMissing", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error %v does not wrap fs.ErrNotExist", err)
	}
	if KindOf(err) != KindSourceDirMissing {
		t.Errorf("KindOf = %v, want %v", KindOf(err), KindSourceDirMissing)
	}
}

func TestCollectSourcesNotADirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "file.cpp")

	_, err := CollectSources(filepath.Join(root, "file.cpp"), nil)
	if !errors.Is(err, ErrSourceDirMissing) {
		t.Errorf("got %v, want ErrSourceDirMissing", err)
	}
}
