package builder

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// PlanStep is what a run would do for one project
type PlanStep struct {
	Project  string
	Kind     OutputKind
	Artifact string
	// Sources are the files the invocation compiles
	Sources []string
	// Invocation is nil when the project would not be built
	Invocation *Invocation
	// Reason explains why Invocation is nil
	Reason string
	Err    error
}

// Plan returns the invocations a run over projects would spawn, in build order,
// assuming every invocation succeeds. Nothing is written and nothing is spawned.
// The confirmation callback is not consulted.
func (o *Orchestrator) Plan(ctx context.Context, projects []Project) ([]PlanStep, error) {
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

	// discovery only reads the source trees, so it can run for all projects at once
	sources := make([][]string, len(order))
	errs := make([]error, len(order))
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, p := range order {
		eg.Go(func() error {
			sources[i], errs[i] = CollectSources(o.resolvePath(p.SourceDir), o.opts.Suffixes)
			return nil
		})
	}
	_ = eg.Wait()

	tc := o.opts.Toolchain
	outputDir := o.resolvePath(o.opts.OutputDir)
	planned := make(map[string]bool, len(order))
	steps := make([]PlanStep, 0, len(order))

	for i, p := range order {
		kind := effectiveKind(p, o.opts.Mode, g.libs)
		step := PlanStep{
			Project:  p.Name,
			Kind:     kind,
			Artifact: p.outputPath(outputDir, kind, tc),
		}

		switch {
		case o.opts.Mode == Standalone && p.IsComposing():
			step.Reason = "composing project requires " + ModeCompose + " mode"
		case errs[i] != nil:
			step.Err = errs[i]
		case o.opts.Mode == Compose && !allPlanned(p.Links, planned):
			step.Reason = "missing dependency artifact"
		default:
			step.Invocation, step.Sources = o.composeFor(p, kind, sources[i], outputDir)
			if step.Invocation == nil {
				step.Reason = "no source files"
			}
		}

		if step.Invocation != nil {
			planned[p.Name] = true
		}
		steps = append(steps, step)
	}

	return steps, nil
}

// composeFor returns the invocation building p as kind together with the
// sources it compiles, or nil when there is nothing to compile
func (o *Orchestrator) composeFor(p *Project, kind OutputKind, sources []string, outputDir string) (*Invocation, []string) {
	tc := o.opts.Toolchain
	artifact := p.outputPath(outputDir, kind, tc)

	var inv Invocation
	if kind == SharedLibrary {
		entry := entryPath(p, o.resolvePath(p.SourceDir))
		sources = withoutEntry(sources, entry)
		if len(sources) == 0 {
			return nil, nil
		}
		inv = ComposeSharedLibrary(tc, sources, artifact, entry)
	} else {
		if len(sources) == 0 {
			return nil, nil
		}
		var links []string
		if o.opts.Mode == Compose {
			links = p.Links
		}
		inv = ComposeExecutable(tc, sources, artifact, outputDir, links)
	}
	return &inv, sources
}

func allPlanned(links []string, planned map[string]bool) bool {
	for _, dep := range links {
		if !planned[dep] {
			return false
		}
	}
	return true
}
