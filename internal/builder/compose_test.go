package builder

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestComposeExecutable(t *testing.T) {
	tc := &ToolchainConfig{
		Platform:      "linux",
		Compiler:      "clang++",
		DynamicLibExt: "so",
		CompileFlags:  []string{"-Iinclude", "-std=c++17"},
		LinkFlags:     []string{"-ldl"},
		SharedFlags:   []string{"-shared", "-fPIC"},
		RunPathFlags:  []string{"-Wl,-rpath,$ORIGIN"},
	}
	sources := []string{"src/ace/a.cpp", "src/ace/main.cpp"}

	t.Run("no links", func(t *testing.T) {
		inv := ComposeExecutable(tc, sources, "bin/ace-c", "bin", nil)
		want := []string{"-Iinclude", "-std=c++17", "src/ace/a.cpp", "src/ace/main.cpp", "-o", "bin/ace-c", "-ldl"}
		if inv.Program != "clang++" {
			t.Errorf("Program = %q, want clang++", inv.Program)
		}
		if !slices.Equal(inv.Args, want) {
			t.Errorf("Args =\n  %q\nwant\n  %q", inv.Args, want)
		}
	})

	t.Run("links", func(t *testing.T) {
		inv := ComposeExecutable(tc, sources, "bin/ace", "bin", []string{"ace-c", "ace-vm"})
		want := []string{
			"-Iinclude", "-std=c++17",
			"src/ace/a.cpp", "src/ace/main.cpp",
			"-o", "bin/ace",
			"-Lbin", "-lace-c",
			"-Lbin", "-lace-vm",
			"-Wl,-rpath,$ORIGIN",
			"-ldl",
		}
		if !slices.Equal(inv.Args, want) {
			t.Errorf("Args =\n  %q\nwant\n  %q", inv.Args, want)
		}
	})

	t.Run("windows has no run path", func(t *testing.T) {
		win, err := ResolveToolchain("windows", ToolchainOptions{})
		if err != nil {
			t.Fatal(err)
		}
		inv := ComposeExecutable(win, sources, "bin/ace.exe", "bin", []string{"ace-vm"})
		for _, a := range inv.Args {
			if a == "-Wl,-rpath,$ORIGIN" || a == "-Wl,-rpath,@executable_path" {
				t.Errorf("windows invocation carries run-path flag %q", a)
			}
		}
	})
}

func TestComposeSharedLibrary(t *testing.T) {
	tc := &ToolchainConfig{
		Platform:      "darwin",
		Compiler:      "clang++",
		DynamicLibExt: "dylib",
		CompileFlags:  []string{"-std=c++17"},
		SharedFlags:   []string{"-dynamiclib", "-fPIC"},
	}
	sources := []string{"src/vm/main.cpp", "src/vm/vm.cpp", "src/vm/sub/main.cpp", "src/vm/stack.cpp"}

	inv := ComposeSharedLibrary(tc, sources, "bin/libace-vm.dylib", "src/vm/main.cpp")
	want := []string{"-dynamiclib", "-fPIC", "-std=c++17", "src/vm/vm.cpp", "src/vm/sub/main.cpp", "src/vm/stack.cpp", "-o", "bin/libace-vm.dylib"}
	if !slices.Equal(inv.Args, want) {
		t.Errorf("Args =\n  %q\nwant\n  %q", inv.Args, want)
	}
	if len(sources) != 4 {
		t.Errorf("ComposeSharedLibrary modified its input: %q", sources)
	}

	custom := ComposeSharedLibrary(tc, sources, "bin/libace-vm.dylib", "src/vm/./vm.cpp")
	if slices.Contains(custom.Args, "src/vm/vm.cpp") {
		t.Errorf("custom entry vm.cpp was not excluded: %q", custom.Args)
	}
	if !slices.Contains(custom.Args, "src/vm/main.cpp") {
		t.Errorf("main.cpp is not an entry point when entry is vm.cpp: %q", custom.Args)
	}

	all := ComposeSharedLibrary(tc, sources, "bin/libace-vm.dylib", "")
	for _, src := range sources {
		if !slices.Contains(all.Args, src) {
			t.Errorf("without an entry %s should be compiled: %q", src, all.Args)
		}
	}
}

func TestEntryPath(t *testing.T) {
	root := filepath.FromSlash("/work/src/ace-vm")
	tests := []struct {
		entry string
		want  string
	}{
		{"", filepath.Join(root, "main.cpp")},
		{"start.cpp", filepath.Join(root, "start.cpp")},
		{"cli/main.cpp", filepath.Join(root, "cli", "main.cpp")},
	}
	for _, tt := range tests {
		if got := entryPath(&Project{Name: "ace-vm", Entry: tt.entry}, root); got != tt.want {
			t.Errorf("entryPath(%q) = %q, want %q", tt.entry, got, tt.want)
		}
	}
}

func TestInvocationString(t *testing.T) {
	inv := Invocation{Program: "g++", Args: []string{"-o", "out dir/ace", "-Wl,-rpath,$ORIGIN", ""}}
	want := `g++ -o 'out dir/ace' '-Wl,-rpath,$ORIGIN' ''`
	if got := inv.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
	if got := inv.Argv(); len(got) != 5 || got[0] != "g++" {
		t.Errorf("Argv() = %q", got)
	}
}
