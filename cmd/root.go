// acebuild [project...], acebuild build [project...]
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/qobs-build/acebuild/internal/builder"
	"github.com/qobs-build/acebuild/internal/msg"
	"github.com/spf13/cobra"
)

var (
	flagDir       string
	flagProfile   string
	flagCompiler  string
	flagYes       bool
	flagStrict    bool
	flagFailFast  bool
	flagDryRun    bool
	flagVerbose   bool
	flagMode      EnumValue = NewEnumValue(builder.ModeStandalone, map[string]string{
		builder.ModeStandalone: "Build every project into its own executable (default)",
		builder.ModeCompose:    "Build linked projects as shared libraries, then the composing executable",
	})
)

func doBuild(cmd *cobra.Command, args []string) {
	s, err := loadSession(cmd)
	if err != nil {
		msg.Fatal("%v", err)
	}
	projects, err := s.cfg.SelectProjects(args, s.mode)
	if err != nil {
		msg.Fatal("%v", err)
	}

	if flagDryRun {
		printPlan(cmd.Context(), s, projects)
		return
	}

	report, err := runBuild(cmd.Context(), s, projects)
	if err != nil {
		msg.Fatal("%v", err)
	}
	if report.HasFailures() && flagStrict {
		os.Exit(1)
	}
}

// runBuild runs the orchestrator with the options given on the command line and prints a summary
func runBuild(ctx context.Context, s *session, projects []builder.Project) (*builder.Report, error) {
	if _, err := builder.LocateCompiler(s.toolchain); err != nil {
		msg.Warn("%v", err)
	}

	opts := s.orchestratorOptions()
	opts.StopOnFailure = flagFailFast
	opts.Verbose = flagVerbose
	opts.Runner = newSpinnerRunner(&builder.ExecRunner{Dir: s.root})
	if !flagYes {
		opts.Confirm = newPrompter(os.Stdin, msg.Output).Confirm
	}

	report, err := builder.New(opts).Run(ctx, projects)
	if err != nil {
		return nil, err
	}
	printSummary(report)
	return report, nil
}

func printSummary(report *builder.Report) {
	fmt.Fprintf(msg.Output, "\n%s %s mode: %s succeeded, %s skipped, %s failed\n",
		color.HiWhiteString("Summary"),
		report.Mode,
		color.HiGreenString("%d", report.Succeeded()),
		color.YellowString("%d", report.Skipped()),
		color.HiRedString("%d", report.Failed()),
	)
}

var rootCmd = &cobra.Command{
	Use:   "acebuild [project...]",
	Short: "Build the ace compiler, VM and runtime",
	Long: `Build the ace sub-projects with the host C++ toolchain.

In standalone mode every project is compiled into its own executable. In compose
mode the projects other projects link against are compiled into shared libraries
first, then the composing executables are linked against them.`,
	Args: cobra.ArbitraryArgs,
	Run:  doBuild,
}

var buildCmd = &cobra.Command{
	Use:   "build [project...]",
	Short: "Build the projects",
	Long:  `Build the named projects, or every configured project if none are named`,
	Args:  cobra.ArbitraryArgs,
	Run:   doBuild,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "C", ".", "Project root containing src/ and "+builder.ConfigFilename)
	rootCmd.PersistentFlags().StringVarP(&flagCompiler, "compiler", "", "", "Use this compiler instead of the platform default")
	addBuildFlags(rootCmd)

	// acebuild build subcommand
	rootCmd.AddCommand(buildCmd)
	addBuildFlags(buildCmd)
}

func addModeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagProfile, "profile", "p", "debug", "Build with the given profile")
	cmd.Flags().VarP(&flagMode, "mode", "m", "Build mode, one of "+flagMode.HelpString())
	cmd.RegisterFlagCompletionFunc("mode", flagMode.CompletionFunc())
}

func addBuildFlags(cmd *cobra.Command) {
	addModeFlags(cmd)
	cmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Build every project without asking")
	cmd.Flags().BoolVar(&flagStrict, "strict", false, "Exit with a nonzero status if any project fails")
	cmd.Flags().BoolVar(&flagFailFast, "fail-fast", false, "Stop at the first failing project")
	cmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false, "Print the commands without running them")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print every command before running it")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
