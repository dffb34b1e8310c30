package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/acebuild/internal/msg"
	"golang.org/x/term"
)

// prompter asks the operator before each project. Anything but "y" or "yes" declines.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		msg.Warn("stdin is not a terminal, answers are read from it (pass --yes to build without asking)")
	}
	return &prompter{r: bufio.NewReader(in), w: out}
}

func (p *prompter) Confirm(project string) bool {
	fmt.Fprintf(p.w, "%s (Y/n) ", color.HiCyanString("Build project '%s'?", project))
	response, err := p.r.ReadString('\n')
	if err != nil && response == "" {
		fmt.Fprintln(p.w)
		return false // EOF declines
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
