package builder

import (
	"path/filepath"
	"slices"
	"strings"
)

// Invocation is a program and its argument vector. It is never passed through a shell.
type Invocation struct {
	Program string
	Args    []string
}

// Argv returns the program followed by its arguments
func (inv Invocation) Argv() []string {
	return append([]string{inv.Program}, inv.Args...)
}

// String renders the invocation for humans, quoting arguments a POSIX shell would split
func (inv Invocation) String() string {
	argv := inv.Argv()
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`&|;<>()*?[]{}~#!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ComposeExecutable builds the compiler invocation producing the executable
// outputPath from sources, linked against links (shared libraries in outputDir)
// in the given order
func ComposeExecutable(tc *ToolchainConfig, sources []string, outputPath, outputDir string, links []string) Invocation {
	args := make([]string, 0, len(tc.CompileFlags)+len(sources)+2*len(links)+len(tc.RunPathFlags)+len(tc.LinkFlags)+2)
	args = append(args, tc.CompileFlags...)
	args = append(args, sources...)
	args = append(args, "-o", outputPath)

	for _, dep := range links {
		args = append(args, "-L"+outputDir, "-l"+dep)
	}
	if len(links) > 0 {
		args = append(args, tc.RunPathFlags...)
	}
	args = append(args, tc.LinkFlags...)

	return Invocation{Program: tc.Compiler, Args: args}
}

// ComposeSharedLibrary builds the compiler invocation producing the shared
// library outputPath. entry is the path of the project's entry-point file; it
// is left out of sources. Files of the same name in subdirectories are kept.
func ComposeSharedLibrary(tc *ToolchainConfig, sources []string, outputPath, entry string) Invocation {
	sources = withoutEntry(sources, entry)

	args := make([]string, 0, len(tc.SharedFlags)+len(tc.CompileFlags)+len(sources)+len(tc.LinkFlags)+2)
	args = append(args, tc.SharedFlags...)
	args = append(args, tc.CompileFlags...)
	args = append(args, sources...)
	args = append(args, "-o", outputPath)
	args = append(args, tc.LinkFlags...)

	return Invocation{Program: tc.Compiler, Args: args}
}

// withoutEntry returns a copy of sources with the entry-point file removed
func withoutEntry(sources []string, entry string) []string {
	if entry == "" {
		return slices.Clone(sources)
	}
	entry = filepath.Clean(entry)
	return slices.DeleteFunc(slices.Clone(sources), func(src string) bool {
		return filepath.Clean(src) == entry
	})
}

// entryPath returns the path of p's entry-point file inside sourceDir
func entryPath(p *Project, sourceDir string) string {
	entry := p.Entry
	if entry == "" {
		entry = DefaultEntry
	}
	if filepath.IsAbs(entry) {
		return filepath.Clean(entry)
	}
	return filepath.Join(sourceDir, filepath.FromSlash(entry))
}
