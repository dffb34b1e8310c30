package builder

import (
	"errors"
	"os/exec"
	"slices"
	"strings"
)

const (
	PlatformWindows = "windows"
	PlatformDarwin  = "darwin"
)

const (
	defaultPosixCompiler = "clang++"
	defaultStd           = "17"
)

// posixPlatforms are the non-Windows, non-Darwin platforms accepted in strict mode
var posixPlatforms = []string{"linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos"}

// ToolchainOptions are the user-tunable inputs of toolchain resolution
type ToolchainOptions struct {
	// Compiler overrides the per-platform compiler when non-empty
	Compiler string
	// PosixDefault is the compiler used on platforms other than Windows and Darwin ("clang++" or "g++")
	PosixDefault string
	// Std is the language standard revision, e.g. "17"
	Std         string
	IncludeDirs []string
	// OptLevel becomes -O<OptLevel> when non-empty
	OptLevel     string
	CompileFlags []string
	LinkFlags    []string
	// Strict rejects platforms that are not explicitly known instead of falling back to POSIX
	Strict bool
}

// ToolchainConfig is everything the command composer needs to know about the host toolchain
type ToolchainConfig struct {
	Platform      string
	Compiler      string
	DynamicLibExt string
	CompileFlags  []string
	LinkFlags     []string
	SharedFlags   []string
	RunPathFlags  []string
}

// ResolveToolchain maps a platform (a GOOS value) to its toolchain. Unknown
// platforms get the POSIX toolchain unless opts.Strict is set.
func ResolveToolchain(platform string, opts ToolchainOptions) (*ToolchainConfig, error) {
	std := opts.Std
	if std == "" {
		std = defaultStd
	}
	std = strings.TrimPrefix(strings.TrimPrefix(std, "gnu++"), "c++")

	tc := &ToolchainConfig{Platform: platform}
	var stdFlag string

	switch {
	case platform == PlatformWindows:
		tc.Compiler = "g++"
		tc.DynamicLibExt = "dll"
		tc.SharedFlags = []string{"-shared"}
		stdFlag = "-std=gnu++" + std
	case platform == PlatformDarwin:
		tc.Compiler = "clang++"
		tc.DynamicLibExt = "dylib"
		tc.SharedFlags = []string{"-dynamiclib", "-fPIC"}
		tc.RunPathFlags = []string{"-Wl,-rpath,@executable_path"}
		stdFlag = "-std=c++" + std
	default:
		if opts.Strict && !slices.Contains(posixPlatforms, platform) {
			return nil, newError(KindConfiguration, "", "unsupported platform %q", platform)
		}
		tc.Compiler = opts.PosixDefault
		if tc.Compiler == "" {
			tc.Compiler = defaultPosixCompiler
		}
		tc.DynamicLibExt = "so"
		tc.SharedFlags = []string{"-shared", "-fPIC"}
		tc.RunPathFlags = []string{"-Wl,-rpath,$ORIGIN"}
		stdFlag = "-std=c++" + std
	}

	if opts.Compiler != "" {
		tc.Compiler = opts.Compiler
	}

	for _, dir := range opts.IncludeDirs {
		tc.CompileFlags = append(tc.CompileFlags, "-I"+dir)
	}
	tc.CompileFlags = append(tc.CompileFlags, stdFlag)
	if opts.OptLevel != "" {
		tc.CompileFlags = append(tc.CompileFlags, "-O"+opts.OptLevel)
	}
	tc.CompileFlags = append(tc.CompileFlags, opts.CompileFlags...)
	tc.LinkFlags = slices.Clone(opts.LinkFlags)

	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return tc, nil
}

// Validate checks that the extension and flags all belong to one platform
func (tc *ToolchainConfig) Validate() error {
	if tc.Compiler == "" {
		return newError(KindConfiguration, "", "no compiler configured")
	}

	var wantExt string
	switch tc.Platform {
	case PlatformWindows:
		wantExt = "dll"
		if len(tc.RunPathFlags) > 0 {
			return newError(KindConfiguration, "", "run-path flags %v are not supported with .dll libraries", tc.RunPathFlags)
		}
	case PlatformDarwin:
		wantExt = "dylib"
	default:
		wantExt = "so"
	}
	if tc.DynamicLibExt != wantExt {
		return newError(KindConfiguration, "", "dynamic library extension %q does not match platform %q (want %q)", tc.DynamicLibExt, tc.Platform, wantExt)
	}

	for _, f := range slices.Concat(tc.RunPathFlags, tc.LinkFlags) {
		if tc.Platform != PlatformDarwin && strings.Contains(f, "@executable_path") {
			return newError(KindConfiguration, "", "flag %q only applies to darwin", f)
		}
		if tc.Platform == PlatformDarwin && strings.Contains(f, "$ORIGIN") {
			return newError(KindConfiguration, "", "flag %q does not apply to darwin", f)
		}
		if tc.Platform == PlatformWindows && (strings.Contains(f, "-rpath") || strings.Contains(f, "$ORIGIN")) {
			return newError(KindConfiguration, "", "run-path flag %q is not supported with .dll libraries", f)
		}
	}

	return nil
}

// LocateCompiler finds the configured compiler on PATH
func LocateCompiler(tc *ToolchainConfig) (string, error) {
	path, err := exec.LookPath(tc.Compiler)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", newError(KindToolchainNotFound, "", "%s is not on PATH", tc.Compiler)
		}
		return "", &BuildError{Kind: KindToolchainNotFound, Err: err}
	}
	return path, nil
}
