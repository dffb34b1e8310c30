package cmd

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/qobs-build/acebuild/internal/builder"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// spinnerRunner shows a spinner on stderr while the wrapped runner waits for the toolchain
type spinnerRunner struct {
	inner builder.Runner
}

func newSpinnerRunner(inner builder.Runner) builder.Runner {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return inner
	}
	return &spinnerRunner{inner: inner}
}

func (s *spinnerRunner) Run(ctx context.Context, inv builder.Invocation) (int, []byte, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(describe(inv)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	code, output, err := s.inner.Run(ctx, inv)
	close(done)
	<-stopped
	bar.Finish()
	return code, output, err
}

// describe names the artifact an invocation writes
func describe(inv builder.Invocation) string {
	if i := slices.Index(inv.Args, "-o"); i >= 0 && i+1 < len(inv.Args) {
		return filepath.Base(inv.Program) + " -> " + filepath.Base(inv.Args[i+1])
	}
	return filepath.Base(inv.Program)
}
