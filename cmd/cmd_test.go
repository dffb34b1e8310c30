package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/qobs-build/acebuild/internal/builder"
	"github.com/qobs-build/acebuild/internal/builder/gen"
	"github.com/qobs-build/acebuild/internal/msg"
)

func TestMain(m *testing.M) {
	msg.Output = io.Discard
	os.Exit(m.Run())
}

func TestPrompterConfirm(t *testing.T) {
	var out strings.Builder
	p := newPrompter(strings.NewReader("y\nYES\n\nn\nmaybe\n  yes  \n"), &out)

	want := []bool{true, true, false, false, false, true}
	for i, w := range want {
		if got := p.Confirm("ace"); got != w {
			t.Errorf("answer %d: Confirm() = %v, want %v", i, got, w)
		}
	}
	// input exhausted
	if p.Confirm("ace") {
		t.Error("Confirm() at EOF = true, want false")
	}

	if !strings.Contains(out.String(), "Build project 'ace'?") {
		t.Errorf("prompt not written: %q", out.String())
	}
}

func TestEnumValue(t *testing.T) {
	e := NewEnumValue("standalone", map[string]string{
		"standalone": "every project on its own",
		"compose":    "",
	})

	if e.Value() != "standalone" || e.Type() != "enum" {
		t.Errorf("Value() = %q, Type() = %q", e.Value(), e.Type())
	}
	if got := e.AllowedKeys(); !slices.Equal(got, []string{"compose", "standalone"}) {
		t.Errorf("AllowedKeys() = %v", got)
	}
	if err := e.Set("hybrid"); err == nil {
		t.Error("Set(hybrid) succeeded")
	}
	if err := e.Set("compose"); err != nil || e.String() != "compose" {
		t.Errorf("Set(compose) = %v, value %q", err, e.String())
	}

	items, _ := e.CompletionFunc()(nil, nil, "")
	if !slices.Equal(items, []string{"compose", "standalone\tevery project on its own"}) {
		t.Errorf("completions = %q", items)
	}
}

func TestRunTarget(t *testing.T) {
	cfg := builder.DefaultConfig()

	if got, err := runTarget(cfg, nil); err != nil || got != "ace" {
		t.Errorf("runTarget(nil) = %q, %v; want ace", got, err)
	}
	if got, err := runTarget(cfg, []string{"ace-c", "--flag"}); err != nil || got != "ace-c" {
		t.Errorf("runTarget(ace-c) = %q, %v", got, err)
	}

	cfg.Projects = []builder.Project{{Name: "solo"}}
	if _, err := runTarget(cfg, nil); !errors.Is(err, errNoComposingProject) {
		t.Errorf("runTarget without composing project = %v", err)
	}
}

func TestInitIn(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ace")
	initIn(dir)

	for _, want := range []string{builder.ConfigFilename, ".gitignore", "include", "src/ace-c", "src/ace-vm", "src/ace"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(want))); err != nil {
			t.Errorf("%s not created: %v", want, err)
		}
	}

	cfg, err := builder.LoadConfig(dir, builder.NewConfigEnv(dir))
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if len(cfg.Projects) != 3 || cfg.Projects[1].Kind != builder.SharedLibrary {
		t.Errorf("generated projects = %+v", cfg.Projects)
	}

	// a second init leaves the existing config alone
	if err := os.WriteFile(filepath.Join(dir, builder.ConfigFilename), []byte("[[project]]\nname = \"mine\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	initIn(dir)
	data, err := os.ReadFile(filepath.Join(dir, builder.ConfigFilename))
	if err != nil || !strings.Contains(string(data), "mine") {
		t.Errorf("init overwrote the config: %q, %v", data, err)
	}
}

func TestInitInAbsoluteSourceDir(t *testing.T) {
	dir := t.TempDir()
	elsewhere := filepath.Join(t.TempDir(), "vm-tree")
	config := "[[project]]\nname = \"ace-vm\"\nsrc = " + strconv.Quote(elsewhere) + "\n"
	if err := os.WriteFile(filepath.Join(dir, builder.ConfigFilename), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	initIn(dir)

	if stat, err := os.Stat(elsewhere); err != nil || !stat.IsDir() {
		t.Errorf("absolute source dir %s not created: %v", elsewhere, err)
	}
	if _, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(elsewhere, filepath.VolumeName(elsewhere)))); err == nil {
		t.Error("absolute source dir was created under the project root")
	}
}

func TestWriteNinja(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"src/ace-c/main.cpp", "src/ace-c/lex.cpp", "src/ace-vm/vm.cpp", "src/ace/main.cpp"} {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tc, err := builder.ResolveToolchain("linux", builder.ToolchainOptions{})
	if err != nil {
		t.Fatal(err)
	}
	cfg := builder.DefaultConfig()
	s := &session{root: root, cfg: cfg, mode: builder.Compose, toolchain: tc}
	writeNinja(context.Background(), s, cfg.Projects)

	data, err := os.ReadFile(filepath.Join(root, gen.NinjaFile))
	if err != nil {
		t.Fatalf("%s not written: %v", gen.NinjaFile, err)
	}
	bin := filepath.Join(root, "bin")
	want := "build " + filepath.Join(bin, "ace") + ": cxx " + filepath.Join(root, "src", "ace", "main.cpp") +
		" | " + filepath.Join(bin, "libace-c.so") + " " + filepath.Join(bin, "libace-vm.so") + "\n"
	if !strings.Contains(string(data), want) {
		t.Errorf("%s lacks %q:\n%s", gen.NinjaFile, want, data)
	}
}
