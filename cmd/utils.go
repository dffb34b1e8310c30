package cmd

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/qobs-build/acebuild/internal/builder"
	"github.com/spf13/cobra"
)

type EnumValue struct {
	value      string
	allowed    map[string]string // value -> help text
	defaultVal string
}

func NewEnumValue(defaultVal string, allowed map[string]string) EnumValue {
	if _, ok := allowed[defaultVal]; !ok {
		panic(fmt.Sprintf("default value %q not in allowed set", defaultVal))
	}
	return EnumValue{
		value:      defaultVal,
		allowed:    allowed,
		defaultVal: defaultVal,
	}
}

func (e *EnumValue) String() string     { return e.value }
func (e *EnumValue) HelpString() string { return "[" + strings.Join(e.AllowedKeys(), ", ") + "]" }
func (e *EnumValue) Type() string       { return "enum" }
func (e *EnumValue) Value() string      { return e.value }

func (e *EnumValue) Set(v string) error {
	if _, ok := e.allowed[v]; ok {
		e.value = v
		return nil
	}
	return fmt.Errorf("must be one of: %s", strings.Join(e.AllowedKeys(), ", "))
}

func (e *EnumValue) AllowedKeys() []string {
	return slices.Sorted(maps.Keys(e.allowed))
}

func (e *EnumValue) CompletionFunc() func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		items := make([]string, 0, len(e.allowed))
		for _, k := range e.AllowedKeys() {
			if help := e.allowed[k]; help != "" {
				items = append(items, fmt.Sprintf("%s\t%s", k, help))
			} else {
				items = append(items, k)
			}
		}
		return items, cobra.ShellCompDirectiveNoFileComp
	}
}

// session is everything a command needs after reading the configuration
type session struct {
	root      string
	cfg       *builder.Config
	mode      builder.BuildMode
	toolchain *builder.ToolchainConfig
}

// loadSession resolves the root directory, reads Acebuild.toml and resolves
// the toolchain for the host platform
func loadSession(cmd *cobra.Command) (*session, error) {
	root, err := filepath.Abs(flagDir)
	if err != nil {
		return nil, err
	}

	cfg, err := builder.LoadConfig(root, builder.NewConfigEnv(root))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", builder.ConfigFilename, err)
	}

	mode := cfg.Build.Mode
	if f := cmd.Flags().Lookup("mode"); f != nil && f.Changed {
		if mode, err = builder.ParseBuildMode(flagMode.Value()); err != nil {
			return nil, err
		}
	}

	if flagCompiler != "" {
		cfg.Toolchain.Compiler = flagCompiler
	}
	opts, err := cfg.ToolchainOptions(flagProfile, root)
	if err != nil {
		return nil, err
	}
	tc, err := builder.ResolveToolchain(runtime.GOOS, opts)
	if err != nil {
		return nil, err
	}

	return &session{root: root, cfg: cfg, mode: mode, toolchain: tc}, nil
}

func (s *session) orchestratorOptions() builder.Options {
	return builder.Options{
		Mode:      s.mode,
		Toolchain: s.toolchain,
		Root:      s.root,
		OutputDir: s.cfg.Build.Output,
		Suffixes:  s.cfg.Build.Suffixes,
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "acebuild"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}
