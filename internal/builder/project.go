package builder

import (
	"fmt"
	"path/filepath"
	"strings"
)

// OutputKind is what a project compiles into
type OutputKind int

const (
	Executable OutputKind = iota
	SharedLibrary
)

func (k OutputKind) String() string {
	if k == SharedLibrary {
		return "shared"
	}
	return "executable"
}

func (k *OutputKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "exe", "executable", "bin":
		*k = Executable
	case "shared", "lib", "library", "dylib", "so", "dll":
		*k = SharedLibrary
	default:
		return fmt.Errorf("unknown project kind %q, expected \"executable\" or \"shared\"", text)
	}
	return nil
}

func (k OutputKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// BuildMode selects between independent executables and a composed executable
type BuildMode int

const (
	// Standalone builds every project into its own artifact
	Standalone BuildMode = iota
	// Compose builds link dependencies as shared libraries, then the composing executables
	Compose
)

const (
	ModeStandalone = "standalone"
	ModeCompose    = "compose"
)

func (m BuildMode) String() string {
	if m == Compose {
		return ModeCompose
	}
	return ModeStandalone
}

// ParseBuildMode accepts "standalone" or "compose"
func ParseBuildMode(s string) (BuildMode, error) {
	switch strings.ToLower(s) {
	case ModeStandalone, "":
		return Standalone, nil
	case ModeCompose:
		return Compose, nil
	}
	return Standalone, newError(KindConfiguration, "", "unsupported build mode %q (want %s or %s)", s, ModeStandalone, ModeCompose)
}

func (m *BuildMode) UnmarshalText(text []byte) error {
	mode, err := ParseBuildMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// DefaultEntry is the conventional name of the file holding main
const DefaultEntry = "main.cpp"

// Project is a single sub-project with its own source tree
type Project struct {
	Name      string     `toml:"name"`
	SourceDir string     `toml:"src"`
	Kind      OutputKind `toml:"kind"`
	// Links lists the projects this one links against, in linker order
	Links []string `toml:"links"`
	// Entry is the path, relative to SourceDir, of the file holding the program entry point
	Entry string `toml:"entry"`
	// Git is an optional remote the source tree can be fetched from
	Git string `toml:"git"`
}

// IsComposing reports whether the project links against other projects
func (p *Project) IsComposing() bool { return len(p.Links) > 0 }

// outputName returns the artifact file name for kind (e.g. `ace-c.exe` or `libace-vm.so`)
func (p *Project) outputName(kind OutputKind, tc *ToolchainConfig) string {
	if kind == SharedLibrary {
		return "lib" + p.Name + "." + tc.DynamicLibExt
	}
	if tc.Platform == PlatformWindows {
		return p.Name + ".exe"
	}
	return p.Name
}

func (p *Project) outputPath(outputDir string, kind OutputKind, tc *ToolchainConfig) string {
	return filepath.Join(outputDir, p.outputName(kind, tc))
}

// effectiveKind returns what the project is built as under mode; libs is the set of
// projects that some other project links against
func effectiveKind(p *Project, mode BuildMode, libs map[string]bool) OutputKind {
	if mode == Compose && libs[p.Name] {
		return SharedLibrary
	}
	if p.IsComposing() {
		return Executable
	}
	return p.Kind
}

// DefaultProjects returns the compiler frontend, the virtual machine and the executable composing both
func DefaultProjects() []Project {
	return []Project{
		{Name: "ace-c", SourceDir: filepath.Join("src", "ace-c"), Kind: Executable},
		{Name: "ace-vm", SourceDir: filepath.Join("src", "ace-vm"), Kind: SharedLibrary},
		{Name: "ace", SourceDir: filepath.Join("src", "ace"), Kind: Executable, Links: []string{"ace-c", "ace-vm"}},
	}
}
