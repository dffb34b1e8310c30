package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qobs-build/acebuild/internal/msg"
)

var errNoToolchain = newError(KindConfiguration, "", "no toolchain configured")

// Status is the outcome of one project in one run
type Status int

const (
	Skipped Status = iota
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

// BuildResult records what happened to a project
type BuildResult struct {
	Project string
	Kind    OutputKind
	Status  Status
	// Artifact is the file the invocation writes
	Artifact string
	// ExitCode is the toolchain's exit status; -1 when it never ran to completion
	ExitCode int
	// Output is the captured toolchain output
	Output     []byte
	Invocation *Invocation
	// Reason explains a skip
	Reason string
	Err    error
}

// ErrKind returns the classified failure kind, or KindNone
func (r *BuildResult) ErrKind() ErrorKind { return KindOf(r.Err) }

// Report is the per-run list of results, in build order
type Report struct {
	Mode    BuildMode
	Results []*BuildResult
}

func (r *Report) count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) Succeeded() int    { return r.count(Succeeded) }
func (r *Report) Skipped() int      { return r.count(Skipped) }
func (r *Report) Failed() int       { return r.count(Failed) }
func (r *Report) HasFailures() bool { return r.Failed() > 0 }

// Result returns the result for project, or nil
func (r *Report) Result(project string) *BuildResult {
	for _, res := range r.Results {
		if res.Project == project {
			return res
		}
	}
	return nil
}

// ConfirmFunc asks whether project should be built
type ConfirmFunc func(project string) bool

// Options configure an Orchestrator
type Options struct {
	Mode      BuildMode
	Toolchain *ToolchainConfig
	// Root is the directory relative source and output paths are resolved against
	Root      string
	OutputDir string
	Suffixes  []string
	// Confirm is asked before each project; nil builds every project without asking
	Confirm ConfirmFunc
	// StopOnFailure skips all remaining projects once one fails
	StopOnFailure bool
	Runner        Runner
	// Verbose prints each invocation before it is spawned
	Verbose bool
}

// Orchestrator builds a set of projects one after the other
type Orchestrator struct {
	opts Options
}

func New(opts Options) *Orchestrator {
	if opts.OutputDir == "" {
		opts.OutputDir = "bin"
	}
	if opts.Runner == nil {
		opts.Runner = &ExecRunner{}
	}
	return &Orchestrator{opts: opts}
}

func (o *Orchestrator) resolvePath(p string) string {
	if filepath.IsAbs(p) || o.opts.Root == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(o.opts.Root, p)
}

// buildOrder returns the projects in the order the run visits them
func buildOrder(g *Graph, mode BuildMode) ([]*Project, error) {
	if mode == Compose {
		return g.Order()
	}
	order := make([]*Project, len(g.projects))
	for i := range g.projects {
		order[i] = &g.projects[i]
	}
	return order, nil
}

// Run builds projects and returns one result per project. Only configuration
// errors (bad project graph, missing toolchain) are returned as an error;
// per-project failures are recorded in the report.
func (o *Orchestrator) Run(ctx context.Context, projects []Project) (*Report, error) {
	if o.opts.Toolchain == nil {
		return nil, errNoToolchain
	}
	if err := o.opts.Toolchain.Validate(); err != nil {
		return nil, err
	}

	g, err := NewGraph(projects)
	if err != nil {
		return nil, err
	}
	order, err := buildOrder(g, o.opts.Mode)
	if err != nil {
		return nil, err
	}

	report := &Report{Mode: o.opts.Mode}
	results := make(map[string]*BuildResult, len(order))
	var stopReason string

	for _, p := range order {
		if stopReason == "" && ctx.Err() != nil {
			stopReason = "interrupted"
		}

		var res *BuildResult
		if stopReason != "" {
			res = &BuildResult{
				Project:  p.Name,
				Kind:     effectiveKind(p, o.opts.Mode, g.libs),
				ExitCode: -1,
				Status:   Skipped,
				Reason:   stopReason,
			}
		} else {
			res = o.buildProject(ctx, g, p, results)
		}

		results[p.Name] = res
		report.Results = append(report.Results, res)
		o.printResult(res)

		if stopReason == "" && res.Status == Failed && o.opts.StopOnFailure {
			stopReason = fmt.Sprintf("aborted after %s failed", p.Name)
		}
	}

	return report, nil
}

// buildProject takes a single project from pending to its final status
func (o *Orchestrator) buildProject(ctx context.Context, g *Graph, p *Project, results map[string]*BuildResult) *BuildResult {
	tc := o.opts.Toolchain
	kind := effectiveKind(p, o.opts.Mode, g.libs)
	outputDir := o.resolvePath(o.opts.OutputDir)
	res := &BuildResult{
		Project:  p.Name,
		Kind:     kind,
		ExitCode: -1,
		Artifact: p.outputPath(outputDir, kind, tc),
	}

	skip := func(reason string) *BuildResult {
		res.Status = Skipped
		res.Reason = reason
		return res
	}
	fail := func(err error) *BuildResult {
		res.Status = Failed
		res.Err = err
		return res
	}

	if o.opts.Mode == Standalone && p.IsComposing() {
		return skip("composing project requires " + ModeCompose + " mode")
	}
	if o.opts.Confirm != nil && !o.opts.Confirm(p.Name) {
		return skip("declined")
	}

	if o.opts.Mode == Compose {
		for _, dep := range p.Links {
			if r, ok := results[dep]; !ok || r.Status != Succeeded {
				status := "not built"
				if ok {
					status = r.Status.String()
				}
				return fail(newError(KindLink, p.Name, "missing dependency artifact: %s was %s", dep, status))
			}
		}
	}

	sources, err := CollectSources(o.resolvePath(p.SourceDir), o.opts.Suffixes)
	if err != nil {
		var be *BuildError
		if errors.As(err, &be) {
			be.Project = p.Name
			return fail(be)
		}
		return fail(&BuildError{Kind: KindSourceDirMissing, Project: p.Name, Err: err})
	}

	inv, compiled := o.composeFor(p, kind, sources, outputDir)
	if inv == nil {
		return skip("no source files")
	}
	res.Invocation = inv

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fail(&BuildError{Kind: KindConfiguration, Project: p.Name, Err: fmt.Errorf("create output directory: %w", err)})
	}

	msg.Step("Compiling", "%s (%s, %d files)", p.Name, kind, len(compiled))
	if o.opts.Verbose {
		fmt.Fprintf(msg.Output, "%14s%s\n", "", inv.String())
	}

	code, output, err := o.opts.Runner.Run(ctx, *inv)
	res.ExitCode = code
	res.Output = output
	if err != nil {
		if ctx.Err() != nil {
			return fail(&BuildError{Kind: KindCompilation, Project: p.Name, Err: ctx.Err()})
		}
		return fail(&BuildError{Kind: KindToolchainNotFound, Project: p.Name, Err: fmt.Errorf("could not start %s: %w", inv.Program, err)})
	}
	if code != 0 {
		errKind := KindCompilation
		if isLinkFailure(output) {
			errKind = KindLink
		}
		return fail(newError(errKind, p.Name, "%s exited with status %d", inv.Program, code))
	}

	res.Status = Succeeded
	return res
}

// linkerMarkers are fragments GNU ld, lld, ld64 and MinGW emit on link failures
var linkerMarkers = [][]byte{
	[]byte("undefined reference to"),
	[]byte("Undefined symbols for architecture"),
	[]byte("ld returned"),
	[]byte("linker command failed"),
	[]byte("cannot find -l"),
	[]byte("library not found for -l"),
	[]byte("unable to find library -l"),
	[]byte("multiple definition of"),
	[]byte("duplicate symbol"),
}

func isLinkFailure(output []byte) bool {
	for _, m := range linkerMarkers {
		if bytes.Contains(output, m) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) printResult(res *BuildResult) {
	switch res.Status {
	case Succeeded:
		msg.Step("Finished", "%s -> %s", res.Project, res.Artifact)
		writeIndented(res.Output) // warnings
	case Skipped:
		msg.StepWarn("Skipped", "%s (%s)", res.Project, res.Reason)
	case Failed:
		msg.StepFail("Failed", "%s [%s]: %v", res.Project, res.ErrKind(), errors.Unwrap(res.Err))
		writeIndented(res.Output)
	}
}

func writeIndented(output []byte) {
	if len(output) == 0 {
		return
	}
	w := &msg.IndentWriter{Indent: "    ", W: msg.Output}
	w.Write(output)
	if output[len(output)-1] != '\n' {
		fmt.Fprintln(msg.Output)
	}
}
