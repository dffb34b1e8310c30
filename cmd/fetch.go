// acebuild fetch [project...]
package cmd

import (
	"os"
	"path/filepath"

	"github.com/qobs-build/acebuild/internal/builder"
	"github.com/qobs-build/acebuild/internal/msg"
	"github.com/spf13/cobra"
)

func doFetch(cmd *cobra.Command, args []string) {
	root, err := filepath.Abs(flagDir)
	if err != nil {
		msg.Fatal("%v", err)
	}
	cfg, err := builder.LoadConfig(root, builder.NewConfigEnv(root))
	if err != nil {
		msg.Fatal("%v", err)
	}
	projects, err := cfg.SelectProjects(args, builder.Compose)
	if err != nil {
		msg.Fatal("%v", err)
	}

	failed := false
	progress := &msg.IndentWriter{Indent: "    ", W: os.Stdout}
	for _, outcome := range builder.FetchSources(root, projects, progress) {
		rel, _ := filepath.Rel(root, outcome.Dir)
		switch {
		case outcome.Err != nil:
			failed = true
			msg.StepFail("Failed", "%s: %v", outcome.Project, outcome.Err)
		case outcome.Cloned:
			msg.Step("Fetched", "%s into %s", outcome.Project, filepath.ToSlash(rel))
		default:
			msg.Step("Fresh", "%s (%s already exists)", outcome.Project, filepath.ToSlash(rel))
		}
	}
	if failed {
		os.Exit(1)
	}
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [project...]",
	Short: "Clone missing project sources from their git remotes",
	Args:  cobra.ArbitraryArgs,
	Run:   doFetch,
}

func init() {
	// acebuild fetch subcommand
	rootCmd.AddCommand(fetchCmd)
}
