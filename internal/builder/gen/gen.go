package gen

// Edge is one project's build step: a single command producing Output from Inputs
type Edge struct {
	Name   string
	Output string
	Inputs []string
	// After lists outputs of other edges that must exist before this one runs
	After []string
	// Command is the already shell-quoted command line
	Command string
}
