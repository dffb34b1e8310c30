package gen

import (
	"fmt"
	"strings"
)

// NinjaFile is the name the generated build file is written under
const NinjaFile = "build.ninja"

var ninjaPathEscaper = strings.NewReplacer("$", "$$", ":", "$:", " ", "$ ")

func quote(s string) string { return ninjaPathEscaper.Replace(s) }

var ninjaVarEscaper = strings.NewReplacer("$", "$$", "\n", "$\n")

// quoteAll escapes every path and joins them with spaces
func quoteAll(paths []string) string {
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = quote(p)
	}
	return strings.Join(quoted, " ")
}

// Ninja renders edges as a build.ninja file. Every edge runs its own command;
// edges are written in the given order.
func Ninja(edges []Edge) string {
	var sb strings.Builder

	sb.WriteString("ninja_required_version = 1.1\n\n")
	sb.WriteString("rule cxx\n  command = $cmd\n  description = CXX $name\n\n")

	for _, e := range edges {
		fmt.Fprintf(&sb, "build %s: cxx", quote(e.Output))
		if len(e.Inputs) > 0 {
			sb.WriteString(" " + quoteAll(e.Inputs))
		}
		if len(e.After) > 0 {
			sb.WriteString(" | " + quoteAll(e.After))
		}
		sb.WriteByte('\n')
		fmt.Fprintf(&sb, "  cmd = %s\n", ninjaVarEscaper.Replace(e.Command))
		fmt.Fprintf(&sb, "  name = %s\n", ninjaVarEscaper.Replace(e.Name))
	}

	return sb.String()
}
