// acebuild init
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/qobs-build/acebuild/internal/builder"
	"github.com/qobs-build/acebuild/internal/msg"
	"github.com/spf13/cobra"
)

const defaultConfig = `[build]
# standalone: every project becomes its own executable
# compose: linked projects become shared libraries, composing projects link them
mode = "standalone"
output = "bin"
include = ["include"]
std = "17"
entry = "main.cpp"

[toolchain]
# compiler = "g++"
posix-default = "clang++"

[toolchain.'target_os == "linux"']
ldflags = ["-ldl"]

[profile.release]
opt-level = 2

[[project]]
name = "ace-c"
src = "src/ace-c"

[[project]]
name = "ace-vm"
src = "src/ace-vm"
kind = "shared"

[[project]]
name = "ace"
src = "src/ace"
links = ["ace-c", "ace-vm"]
`

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Fprintf(msg.Output, "%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	} else {
		msg.Warn("%s already exists, leaving it alone", filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

// initIn writes a default configuration into dir and creates the source directories it names
func initIn(dir string) {
	mkdir(dir)
	writefile(defaultConfig, dir, builder.ConfigFilename)

	root, err := filepath.Abs(dir)
	if err != nil {
		msg.Fatal("%v", err)
	}
	cfg, err := builder.LoadConfig(root, builder.NewConfigEnv(root))
	if err != nil {
		msg.Fatal("%v", err)
	}
	for _, inc := range cfg.Build.Include {
		if filepath.IsAbs(inc) {
			mkdir(inc)
		} else {
			mkdir(dir, inc)
		}
	}
	for _, p := range cfg.Projects {
		if filepath.IsAbs(p.SourceDir) {
			mkdir(p.SourceDir)
		} else {
			mkdir(dir, p.SourceDir)
		}
	}

	// .gitignore
	writefile(cfg.Build.Output+"/\n", dir, ".gitignore")

	programName := getProgramName()
	fmt.Fprintf(msg.Output, "You can now do %s to build, or %s to build and run.\n",
		color.HiCyanString(programName+" -C "+dir),
		color.HiCyanString(programName+" -C "+dir+" run"),
	)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default " + builder.ConfigFilename + " into the project root",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		initIn(flagDir)
	},
}

func init() {
	// acebuild init subcommand
	rootCmd.AddCommand(initCmd)
}
