package builder

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestResolveToolchain(t *testing.T) {
	tests := []struct {
		platform   string
		compiler   string
		ext        string
		shared     []string
		runPath    []string
		stdFlag    string
		executable string
	}{
		{"windows", "g++", "dll", []string{"-shared"}, nil, "-std=gnu++17", "ace.exe"},
		{"darwin", "clang++", "dylib", []string{"-dynamiclib", "-fPIC"}, []string{"-Wl,-rpath,@executable_path"}, "-std=c++17", "ace"},
		{"linux", "clang++", "so", []string{"-shared", "-fPIC"}, []string{"-Wl,-rpath,$ORIGIN"}, "-std=c++17", "ace"},
		{"freebsd", "clang++", "so", []string{"-shared", "-fPIC"}, []string{"-Wl,-rpath,$ORIGIN"}, "-std=c++17", "ace"},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			tc, err := ResolveToolchain(tt.platform, ToolchainOptions{})
			if err != nil {
				t.Fatalf("ResolveToolchain(%q): %v", tt.platform, err)
			}
			if tc.Platform != tt.platform {
				t.Errorf("Platform = %q, want %q", tc.Platform, tt.platform)
			}
			if tc.Compiler != tt.compiler {
				t.Errorf("Compiler = %q, want %q", tc.Compiler, tt.compiler)
			}
			if tc.DynamicLibExt != tt.ext {
				t.Errorf("DynamicLibExt = %q, want %q", tc.DynamicLibExt, tt.ext)
			}
			if !slices.Equal(tc.SharedFlags, tt.shared) {
				t.Errorf("SharedFlags = %q, want %q", tc.SharedFlags, tt.shared)
			}
			if !slices.Equal(tc.RunPathFlags, tt.runPath) {
				t.Errorf("RunPathFlags = %q, want %q", tc.RunPathFlags, tt.runPath)
			}
			if !slices.Equal(tc.CompileFlags, []string{tt.stdFlag}) {
				t.Errorf("CompileFlags = %q, want [%q]", tc.CompileFlags, tt.stdFlag)
			}

			p := &Project{Name: "ace"}
			if got := p.outputName(Executable, tc); got != tt.executable {
				t.Errorf("executable name = %q, want %q", got, tt.executable)
			}
			if got, want := p.outputName(SharedLibrary, tc), "libace."+tt.ext; got != want {
				t.Errorf("library name = %q, want %q", got, want)
			}
		})
	}
}

func TestResolveToolchainOptions(t *testing.T) {
	tc, err := ResolveToolchain("linux", ToolchainOptions{
		PosixDefault: "g++",
		Std:          "c++20",
		IncludeDirs:  []string{"include", "third_party"},
		OptLevel:     "2",
		CompileFlags: []string{"-Wall"},
		LinkFlags:    []string{"-ldl"},
	})
	if err != nil {
		t.Fatalf("ResolveToolchain: %v", err)
	}
	if tc.Compiler != "g++" {
		t.Errorf("Compiler = %q, want g++", tc.Compiler)
	}
	wantCompile := []string{"-Iinclude", "-Ithird_party", "-std=c++20", "-O2", "-Wall"}
	if !slices.Equal(tc.CompileFlags, wantCompile) {
		t.Errorf("CompileFlags = %q, want %q", tc.CompileFlags, wantCompile)
	}
	if !slices.Equal(tc.LinkFlags, []string{"-ldl"}) {
		t.Errorf("LinkFlags = %q, want [-ldl]", tc.LinkFlags)
	}

	override, err := ResolveToolchain("windows", ToolchainOptions{Compiler: "x86_64-w64-mingw32-g++", PosixDefault: "clang++"})
	if err != nil {
		t.Fatalf("ResolveToolchain: %v", err)
	}
	if override.Compiler != "x86_64-w64-mingw32-g++" {
		t.Errorf("Compiler = %q, want the explicit override", override.Compiler)
	}
}

func TestResolveToolchainStrict(t *testing.T) {
	if _, err := ResolveToolchain("plan9", ToolchainOptions{}); err != nil {
		t.Errorf("lenient resolution of an unknown platform failed: %v", err)
	}

	_, err := ResolveToolchain("plan9", ToolchainOptions{Strict: true})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("got %v, want a configuration error", err)
	}
	if !strings.Contains(err.Error(), "plan9") {
		t.Errorf("error %q does not name the platform", err)
	}

	for _, platform := range []string{"linux", "darwin", "windows"} {
		if _, err := ResolveToolchain(platform, ToolchainOptions{Strict: true}); err != nil {
			t.Errorf("strict resolution of %s failed: %v", platform, err)
		}
	}
}

func TestToolchainValidate(t *testing.T) {
	tests := []struct {
		name string
		tc   ToolchainConfig
		ok   bool
	}{
		{"linux", ToolchainConfig{Platform: "linux", Compiler: "g++", DynamicLibExt: "so", RunPathFlags: []string{"-Wl,-rpath,$ORIGIN"}}, true},
		{"no compiler", ToolchainConfig{Platform: "linux", DynamicLibExt: "so"}, false},
		{"windows with so", ToolchainConfig{Platform: "windows", Compiler: "g++", DynamicLibExt: "so"}, false},
		{"windows with rpath", ToolchainConfig{Platform: "windows", Compiler: "g++", DynamicLibExt: "dll", RunPathFlags: []string{"-Wl,-rpath,$ORIGIN"}}, false},
		{"darwin with so", ToolchainConfig{Platform: "darwin", Compiler: "clang++", DynamicLibExt: "so"}, false},
		{"darwin with origin", ToolchainConfig{Platform: "darwin", Compiler: "clang++", DynamicLibExt: "dylib", RunPathFlags: []string{"-Wl,-rpath,$ORIGIN"}}, false},
		{"windows with rpath link flag", ToolchainConfig{Platform: "windows", Compiler: "g++", DynamicLibExt: "dll", LinkFlags: []string{"-Wl,-rpath,$ORIGIN"}}, false},
		{"windows with origin link flag", ToolchainConfig{Platform: "windows", Compiler: "g++", DynamicLibExt: "dll", LinkFlags: []string{"-Wl,-z,origin,$ORIGIN"}}, false},
		{"windows with plain link flag", ToolchainConfig{Platform: "windows", Compiler: "g++", DynamicLibExt: "dll", LinkFlags: []string{"-lws2_32"}}, true},
		{"linux with executable_path", ToolchainConfig{Platform: "linux", Compiler: "g++", DynamicLibExt: "so", LinkFlags: []string{"-Wl,-rpath,@executable_path"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tc.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrConfiguration) {
				t.Errorf("Validate() = %v, want a configuration error", err)
			}
		})
	}
}

func TestResolveToolchainWindowsRunPathLinkFlags(t *testing.T) {
	_, err := ResolveToolchain("windows", ToolchainOptions{LinkFlags: []string{"-Wl,-rpath,$ORIGIN"}})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("ResolveToolchain(windows) with an rpath ldflag = %v, want a configuration error", err)
	}
}

func TestLocateCompilerMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	tc := &ToolchainConfig{Platform: "linux", Compiler: "definitely-not-a-compiler++", DynamicLibExt: "so"}

	_, err := LocateCompiler(tc)
	if KindOf(err) != KindToolchainNotFound {
		t.Errorf("LocateCompiler error kind = %v, want %v", KindOf(err), KindToolchainNotFound)
	}
}
