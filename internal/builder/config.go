package builder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
)

// ConfigFilename is the name of the configuration file looked up in the project root
const ConfigFilename = "Acebuild.toml"

var defaultProfiles = map[string]ProfileSection{
	"release": {
		OptLevel: 2,
	},
	"debug": {
		OptLevel: "", // no -O
	},
}

type Config struct {
	Build     BuildSection              `toml:"build"`
	Toolchain ToolchainSection          `toml:"toolchain"`
	Profile   map[string]ProfileSection `toml:"profile"`
	Projects  []Project                 `toml:"project"`
}

func (c Config) Profiles() []string {
	profiles := make([]string, 0, len(c.Profile))
	for k := range c.Profile {
		profiles = append(profiles, k)
	}
	slices.Sort(profiles)
	return profiles
}

// ProfileSection defines the [profile.*] section
type ProfileSection struct {
	// OptLevel is either a number (2) or a string ("s")
	OptLevel any `toml:"opt-level"`
}

// optLevel returns the value for -O, or "" when the profile does not optimize
func (p ProfileSection) optLevel() string {
	switch v := p.OptLevel.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return ""
	}
}

// BuildSection defines the [build] section
type BuildSection struct {
	Mode     BuildMode `toml:"mode"`
	Output   string    `toml:"output"`
	Include  []string  `toml:"include"`
	Std      string    `toml:"std"`
	Suffixes []string  `toml:"suffixes"`
	Entry    string    `toml:"entry"`
}

// ToolchainSection defines the [toolchain(.*)] section
type ToolchainSection struct {
	Compiler     string   `toml:"compiler"`
	PosixDefault string   `toml:"posix-default"`
	Cflags       []string `toml:"cflags"`
	Ldflags      []string `toml:"ldflags"`
	// Strict is a pointer so a conditional section can turn it off again
	Strict *bool `toml:"strict"`
}

// DefaultConfig is the configuration used when the root has no config file
func DefaultConfig() *Config {
	cfg := &Config{
		Profile:  maps.Clone(defaultProfiles),
		Projects: DefaultProjects(),
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Build.Output == "" {
		c.Build.Output = "bin"
	}
	if c.Build.Include == nil {
		c.Build.Include = []string{"include"}
	}
	if c.Build.Std == "" {
		c.Build.Std = defaultStd
	}
	if len(c.Build.Suffixes) == 0 {
		c.Build.Suffixes = slices.Clone(DefaultSuffixes)
	}
	if c.Build.Entry == "" {
		c.Build.Entry = DefaultEntry
	}
	for i := range c.Projects {
		p := &c.Projects[i]
		if p.SourceDir == "" {
			p.SourceDir = filepath.Join("src", p.Name)
		}
		if p.Entry == "" {
			p.Entry = c.Build.Entry
		}
	}
}

// ToolchainOptions turns the [build], [toolchain] and selected [profile] sections into resolver input.
// Include directories are resolved against root.
func (c *Config) ToolchainOptions(profile, root string) (ToolchainOptions, error) {
	prof, ok := c.Profile[profile]
	if !ok {
		return ToolchainOptions{}, newError(KindConfiguration, "", "unknown profile %q, known profiles: %s", profile, strings.Join(c.Profiles(), ", "))
	}

	includes := make([]string, len(c.Build.Include))
	for i, dir := range c.Build.Include {
		if filepath.IsAbs(dir) || root == "" {
			includes[i] = filepath.Clean(dir)
		} else {
			includes[i] = filepath.Join(root, dir)
		}
	}

	return ToolchainOptions{
		Compiler:     c.Toolchain.Compiler,
		PosixDefault: c.Toolchain.PosixDefault,
		Std:          c.Build.Std,
		IncludeDirs:  includes,
		OptLevel:     prof.optLevel(),
		CompileFlags: c.Toolchain.Cflags,
		LinkFlags:    c.Toolchain.Ldflags,
		Strict:       c.Toolchain.Strict != nil && *c.Toolchain.Strict,
	}, nil
}

// SelectProjects returns the configured projects restricted to names, keeping
// declaration order. In compose mode the link dependencies of selected projects
// are pulled in too.
func (c *Config) SelectProjects(names []string, mode BuildMode) ([]Project, error) {
	if len(names) == 0 {
		return c.Projects, nil
	}

	byName := make(map[string]*Project, len(c.Projects))
	for i := range c.Projects {
		byName[c.Projects[i].Name] = &c.Projects[i]
	}

	want := make(map[string]bool)
	var visit func(name string) error
	visit = func(name string) error {
		if want[name] {
			return nil
		}
		p, ok := byName[name]
		if !ok {
			return newError(KindConfiguration, "", "unknown project %q", name)
		}
		want[name] = true
		if mode == Compose {
			for _, dep := range p.Links {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	var selected []Project
	for _, p := range c.Projects {
		if want[p.Name] {
			selected = append(selected, p)
		}
	}
	return selected, nil
}

// mergeStructs merges the fields of the src struct into the dst struct
func mergeStructs(dst, src any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Pointer || dstVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dst must be a pointer to a struct")
	}

	dstElem := dstVal.Elem()
	srcVal := reflect.ValueOf(src)

	if srcVal.Kind() == reflect.Pointer {
		srcVal = srcVal.Elem()
	}

	if srcVal.Kind() != reflect.Struct {
		return fmt.Errorf("src must be a struct or a pointer to a struct")
	}

	if dstElem.Type() != srcVal.Type() {
		return fmt.Errorf("dst and src must be of the same struct type")
	}

	for i := range srcVal.NumField() {
		srcField := srcVal.Field(i)
		dstField := dstElem.Field(i)

		if !dstField.CanSet() {
			continue
		}

		switch dstField.Kind() {
		case reflect.Slice:
			if !srcField.IsNil() {
				dstField.Set(reflect.AppendSlice(dstField, srcField))
			}
		case reflect.Map:
			if !srcField.IsNil() {
				if dstField.IsNil() {
					dstField.Set(reflect.MakeMap(dstField.Type()))
				}
				for _, key := range srcField.MapKeys() {
					dstField.SetMapIndex(key, srcField.MapIndex(key))
				}
			}
		case reflect.Bool:
			dstField.SetBool(dstField.Bool() || srcField.Bool())
		default:
			if !srcField.IsZero() {
				dstField.Set(srcField)
			}
		}
	}

	return nil
}

// mergeSection merges src into dst: maps (like [profile]) key by key, structs field by field
func mergeSection[T any](dst *T, src T) error {
	srcVal := reflect.ValueOf(src)
	if srcVal.Kind() != reflect.Map {
		return mergeStructs(dst, src)
	}
	if srcVal.IsNil() {
		return nil
	}
	dstMap := reflect.ValueOf(dst).Elem()
	if dstMap.IsNil() {
		dstMap.Set(reflect.MakeMap(dstMap.Type()))
	}
	for _, key := range srcVal.MapKeys() {
		dstMap.SetMapIndex(key, srcVal.MapIndex(key))
	}
	return nil
}

func mustMarshal(v any) string {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// unmarshalArraySection parses an array of tables such as [[project]]
func unmarshalArraySection[T any](rawCfg map[string]any, name string, dst *[]T) error {
	data, ok := rawCfg[name]
	if !ok {
		return nil
	}
	if _, ok := data.([]any); !ok {
		return fmt.Errorf("invalid [[%s]] section format: expected an array of tables", name)
	}

	var wrapper struct {
		Items []T `toml:"items"`
	}
	if err := toml.Unmarshal([]byte(mustMarshal(map[string]any{"items": data})), &wrapper); err != nil {
		return fmt.Errorf("failed to parse [[%s]] section: %w", name, err)
	}
	*dst = wrapper.Items
	return nil
}

// unmarshalConditionalSection is a helper to parse, evaluate and merge multiple sections with conditional logic
func unmarshalConditionalSection[T any](rawCfg map[string]any, name string, dst *T, env ConfigEnv) error {
	sectionData, ok := rawCfg[name]
	if !ok {
		return nil
	}

	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return fmt.Errorf("invalid [%s] section format: expected a table", name)
	}

	baseFields := make(map[string]any)
	conditionalFields := make(map[string]map[string]any)

	for key, val := range sectionMap {
		if subMap, ok := val.(map[string]any); ok {
			_, err := expr.Compile(key, expr.Env(env), expr.AsBool())
			if err == nil {
				conditionalFields[key] = subMap
			} else {
				baseFields[key] = val
			}
		} else {
			baseFields[key] = val
		}
	}

	if len(baseFields) > 0 {
		var base T
		if err := toml.Unmarshal([]byte(mustMarshal(baseFields)), &base); err != nil {
			return fmt.Errorf("failed to parse base [%s] section: %w", name, err)
		}
		if err := mergeSection(dst, base); err != nil {
			return fmt.Errorf("failed to merge base [%s] section: %w", name, err)
		}
	}

	// evaluate conditions in a stable order so later matches override earlier ones predictably
	expressions := slices.Sorted(maps.Keys(conditionalFields))

	for _, expression := range expressions {
		condMap := conditionalFields[expression]
		program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
		if err != nil {
			return fmt.Errorf("failed to compile expression for [%s.%q]: %w", name, expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return fmt.Errorf("failed to run expression for [%s.%q]: %w", name, expression, err)
		}

		// merge sections if the result is true
		if matched, ok := result.(bool); !ok || !matched {
			continue
		}

		var condSection T
		if err := toml.Unmarshal([]byte(mustMarshal(condMap)), &condSection); err != nil {
			return fmt.Errorf("failed to parse conditional section [%s.%q]: %w", name, expression, err)
		}
		if err := mergeSection(dst, condSection); err != nil {
			return fmt.Errorf("failed to merge conditional section [%s.%q]: %w", name, expression, err)
		}
	}

	return nil
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString finds and evaluates all {{...}} expressions in a string
func evaluateString(s string, env ConfigEnv) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var builder strings.Builder
	lastIndex := 0

	for _, matchIndexes := range matches {
		fullMatchStart := matchIndexes[0]
		fullMatchEnd := matchIndexes[1]
		expressionStart := matchIndexes[2]
		expressionEnd := matchIndexes[3]

		builder.WriteString(s[lastIndex:fullMatchStart])

		expression := strings.TrimSpace(s[expressionStart:expressionEnd])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		builder.WriteString(fmt.Sprintf("%v", result))
		lastIndex = fullMatchEnd
	}

	builder.WriteString(s[lastIndex:])

	return builder.String(), nil
}

// processExpressions recursively walks the parsed TOML data and evaluates expressions in strings
func processExpressions(data any, env ConfigEnv) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			processedVal, err := processExpressions(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = processedVal
		}
		return v, nil
	case []any:
		for i, item := range v {
			processedItem, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processedItem
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

func ParseConfig(rdr io.Reader, env ConfigEnv) (*Config, error) {
	var rawConfig map[string]any
	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(&rawConfig); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, &BuildError{Kind: KindConfiguration, Err: errors.New(derr.String())}
		}
		return nil, &BuildError{Kind: KindConfiguration, Err: err}
	}
	if rawConfig == nil {
		rawConfig = make(map[string]any)
	}

	processedConfig, err := processExpressions(rawConfig, env)
	if err != nil {
		return nil, &BuildError{Kind: KindConfiguration, Err: fmt.Errorf("error processing expressions in config: %w", err)}
	}
	rawConfig = processedConfig.(map[string]any)

	cfg := new(Config)
	cfg.Profile = maps.Clone(defaultProfiles)

	if err := unmarshalConditionalSection(rawConfig, "build", &cfg.Build, env); err != nil {
		return nil, &BuildError{Kind: KindConfiguration, Err: err}
	}
	if err := unmarshalConditionalSection(rawConfig, "toolchain", &cfg.Toolchain, env); err != nil {
		return nil, &BuildError{Kind: KindConfiguration, Err: err}
	}
	if err := unmarshalConditionalSection(rawConfig, "profile", &cfg.Profile, env); err != nil {
		return nil, &BuildError{Kind: KindConfiguration, Err: err}
	}
	if err := unmarshalArraySection(rawConfig, "project", &cfg.Projects); err != nil {
		return nil, &BuildError{Kind: KindConfiguration, Err: err}
	}
	if _, ok := rawConfig["project"]; !ok {
		cfg.Projects = DefaultProjects()
	}

	cfg.applyDefaults()
	return cfg, nil
}

// ParseConfigFromFile parses a config file from a filepath
func ParseConfigFromFile(path string, env ConfigEnv) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseConfig(bufio.NewReader(f), env)
}

// LoadConfig reads Acebuild.toml from root, or returns the default configuration if there is none
func LoadConfig(root string, env ConfigEnv) (*Config, error) {
	cfg, err := ParseConfigFromFile(filepath.Join(root, ConfigFilename), env)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

//
// expr-lang helpers
//

type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
	basedir    string
}

func NewConfigEnv(basedir string) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			environ[k] = v
		}
	}

	return ConfigEnv{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
		basedir:    basedir,
	}
}

// Exists reports whether path, relative to the project root, exists
func (env ConfigEnv) Exists(path string) bool {
	_, err := os.Stat(filepath.Join(env.basedir, path))
	return err == nil
}

// HasCommand reports whether name can be found on PATH
func (env ConfigEnv) HasCommand(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
