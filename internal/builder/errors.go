package builder

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a project failed to build
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindToolchainNotFound
	KindSourceDirMissing
	KindCompilation
	KindLink
	KindConfiguration
)

func (k ErrorKind) String() string {
	switch k {
	case KindToolchainNotFound:
		return "ToolchainNotFound"
	case KindSourceDirMissing:
		return "SourceDirMissing"
	case KindCompilation:
		return "CompilationError"
	case KindLink:
		return "LinkError"
	case KindConfiguration:
		return "ConfigurationError"
	default:
		return "None"
	}
}

// Sentinel errors, one per kind. A *BuildError matches the sentinel of its kind with errors.Is.
var (
	ErrToolchainNotFound = errors.New("toolchain not found")
	ErrSourceDirMissing  = errors.New("source directory missing")
	ErrCompilation       = errors.New("compilation failed")
	ErrLink              = errors.New("linking failed")
	ErrConfiguration     = errors.New("invalid configuration")
)

var kindSentinels = map[ErrorKind]error{
	KindToolchainNotFound: ErrToolchainNotFound,
	KindSourceDirMissing:  ErrSourceDirMissing,
	KindCompilation:       ErrCompilation,
	KindLink:              ErrLink,
	KindConfiguration:     ErrConfiguration,
}

// BuildError is an error tagged with its kind and, when known, the project it belongs to
type BuildError struct {
	Kind    ErrorKind
	Project string
	Err     error
}

func (e *BuildError) Error() string {
	if e.Project != "" {
		return fmt.Sprintf("%s: %s: %v", e.Project, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

func (e *BuildError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newError(kind ErrorKind, project string, format string, a ...any) *BuildError {
	return &BuildError{Kind: kind, Project: project, Err: fmt.Errorf(format, a...)}
}

// KindOf returns the kind of the first *BuildError in err's chain, or KindNone
func KindOf(err error) ErrorKind {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindNone
}
