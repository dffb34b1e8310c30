// acebuild plan [project...]
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/qobs-build/acebuild/internal/builder"
	"github.com/qobs-build/acebuild/internal/builder/gen"
	"github.com/qobs-build/acebuild/internal/msg"
	"github.com/spf13/cobra"
)

var flagNinja bool

func planSteps(ctx context.Context, s *session, projects []builder.Project) []builder.PlanStep {
	steps, err := builder.New(s.orchestratorOptions()).Plan(ctx, projects)
	if err != nil {
		msg.Fatal("%v", err)
	}
	return steps
}

func printPlan(ctx context.Context, s *session, projects []builder.Project) {
	for _, step := range planSteps(ctx, s, projects) {
		switch {
		case step.Err != nil:
			msg.StepFail("Failed", "%s [%s]: %v", step.Project, builder.KindOf(step.Err), step.Err)
		case step.Invocation == nil:
			msg.StepWarn("Skipped", "%s (%s)", step.Project, step.Reason)
		default:
			msg.Step("Would build", "%s (%s) -> %s", step.Project, step.Kind, step.Artifact)
			fmt.Fprintf(msg.Output, "    %s\n", step.Invocation)
		}
	}
}

// writeNinja renders the plan as build.ninja in the project root
func writeNinja(ctx context.Context, s *session, projects []builder.Project) {
	steps := planSteps(ctx, s, projects)
	artifacts := make(map[string]string, len(steps))
	edges := make([]gen.Edge, 0, len(steps))

	for _, step := range steps {
		if step.Invocation == nil {
			reason := step.Reason
			if step.Err != nil {
				reason = step.Err.Error()
			}
			msg.Warn("%s is left out of %s: %s", step.Project, gen.NinjaFile, reason)
			continue
		}
		artifacts[step.Project] = step.Artifact

		edge := gen.Edge{
			Name:    step.Project,
			Output:  step.Artifact,
			Inputs:  step.Sources,
			Command: step.Invocation.String(),
		}
		p, _ := findProject(projects, step.Project)
		if s.mode == builder.Compose {
			for _, dep := range p.Links {
				edge.After = append(edge.After, artifacts[dep])
			}
		}
		edges = append(edges, edge)
	}

	path := filepath.Join(s.root, gen.NinjaFile)
	if err := os.WriteFile(path, []byte(gen.Ninja(edges)), 0644); err != nil {
		msg.Fatal("write %s: %v", path, err)
	}
	fmt.Fprintf(msg.Output, "%s file: %s\n", color.HiGreenString("Wrote"), filepath.ToSlash(path))
}

func findProject(projects []builder.Project, name string) (builder.Project, bool) {
	for _, p := range projects {
		if p.Name == name {
			return p, true
		}
	}
	return builder.Project{}, false
}

var planCmd = &cobra.Command{
	Use:   "plan [project...]",
	Short: "Print the compiler invocations a build would run",
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadSession(cmd)
		if err != nil {
			msg.Fatal("%v", err)
		}
		projects, err := s.cfg.SelectProjects(args, s.mode)
		if err != nil {
			msg.Fatal("%v", err)
		}
		if flagNinja {
			writeNinja(cmd.Context(), s, projects)
			return
		}
		printPlan(cmd.Context(), s, projects)
	},
}

func init() {
	// acebuild plan subcommand
	rootCmd.AddCommand(planCmd)
	addModeFlags(planCmd)
	planCmd.Flags().BoolVar(&flagNinja, "ninja", false, "Write the plan to "+gen.NinjaFile+" instead of printing it")
}
