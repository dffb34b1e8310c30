// acebuild run [project] [-- args...]
package cmd

import (
	"errors"
	"os"
	"os/exec"
	"slices"

	"github.com/qobs-build/acebuild/internal/builder"
	"github.com/qobs-build/acebuild/internal/msg"
	"github.com/spf13/cobra"
)

var errNoComposingProject = errors.New("no project links against another one, name the project to run")

// runTarget picks the project to execute: the one named, or else the first composing project
func runTarget(cfg *builder.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	i := slices.IndexFunc(cfg.Projects, func(p builder.Project) bool { return p.IsComposing() })
	if i < 0 {
		return "", &builder.BuildError{Kind: builder.KindConfiguration, Err: errNoComposingProject}
	}
	return cfg.Projects[i].Name, nil
}

func doRun(cmd *cobra.Command, args []string) {
	var programArgs []string
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		programArgs = args[dash:] // other arguments will be passed to program
		args = args[:dash]
	}

	s, err := loadSession(cmd)
	if err != nil {
		msg.Fatal("%v", err)
	}
	s.mode = builder.Compose
	flagYes = true

	target, err := runTarget(s.cfg, args)
	if err != nil {
		msg.Fatal("%v", err)
	}
	projects, err := s.cfg.SelectProjects([]string{target}, s.mode)
	if err != nil {
		msg.Fatal("%v", err)
	}

	report, err := runBuild(cmd.Context(), s, projects)
	if err != nil {
		msg.Fatal("%v", err)
	}
	res := report.Result(target)
	if res == nil || res.Status != builder.Succeeded {
		msg.Fatal("%s was not built", target)
	}
	if res.Kind != builder.Executable {
		msg.Fatal("%s is a shared library and can't be run", target)
	}

	c := exec.CommandContext(cmd.Context(), res.Artifact, programArgs...)
	c.Dir = s.root
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Stdin = os.Stdin
	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		msg.Fatal("%v", err)
	}
}

var runCmd = &cobra.Command{
	Use:   "run [project] [-- args...]",
	Short: "Build in compose mode and run the composed executable",
	Long:  `Build the project and its link dependencies in compose mode, then run it. If no project is given, uses the first project that links against others.`,
	Args:  cobra.ArbitraryArgs,
	Run:   doRun,
}

func init() {
	// acebuild run subcommand
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&flagProfile, "profile", "p", "debug", "Build with the given profile")
	runCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print every command before running it")
}
