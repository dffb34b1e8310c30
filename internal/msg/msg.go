package msg

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Output is where every message is written
var Output io.Writer = color.Output

func Error(format string, a ...any) {
	fmt.Fprint(Output, color.HiRedString("error"))
	fmt.Fprint(Output, ": ")
	fmt.Fprintf(Output, format, a...)
	fmt.Fprint(Output, "\n")
}

func Warn(format string, a ...any) {
	fmt.Fprint(Output, color.YellowString("warn"))
	fmt.Fprint(Output, ": ")
	fmt.Fprintf(Output, format, a...)
	fmt.Fprint(Output, "\n")
}

func Fatal(format string, a ...any) {
	fmt.Fprint(Output, color.RedString("fatal"))
	fmt.Fprint(Output, ": ")
	fmt.Fprintf(Output, format, a...)
	fmt.Fprint(Output, "\n")
	os.Exit(1)
}

func Info(format string, a ...any) {
	fmt.Fprint(Output, color.HiGreenString("info"))
	fmt.Fprint(Output, ": ")
	fmt.Fprintf(Output, format, a...)
	fmt.Fprint(Output, "\n")
}

// verbWidth right-aligns status verbs so the subjects line up
const verbWidth = 12

// Step prints a status line such as "   Compiling ace-c"
func Step(verb string, format string, a ...any) {
	fmt.Fprintf(Output, "%s%s %s\n",
		strings.Repeat(" ", max(verbWidth-len(verb), 0)),
		color.HiGreenString(verb),
		fmt.Sprintf(format, a...),
	)
}

// StepWarn is Step with the verb in yellow
func StepWarn(verb string, format string, a ...any) {
	fmt.Fprintf(Output, "%s%s %s\n",
		strings.Repeat(" ", max(verbWidth-len(verb), 0)),
		color.YellowString(verb),
		fmt.Sprintf(format, a...),
	)
}

// StepFail is Step with the verb in red
func StepFail(verb string, format string, a ...any) {
	fmt.Fprintf(Output, "%s%s %s\n",
		strings.Repeat(" ", max(verbWidth-len(verb), 0)),
		color.HiRedString(verb),
		fmt.Sprintf(format, a...),
	)
}

type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	var buf []byte
	for _, c := range p {
		if !w.didIndent {
			buf = append(buf, w.Indent...)
			w.didIndent = true
		}
		buf = append(buf, c)
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	if _, err := w.W.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}
