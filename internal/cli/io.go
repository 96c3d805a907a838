package cli

import (
	"fmt"
	"io"
)

// IO is the output side of a command. Results go to stdout as they are
// produced. Warnings are held back and reported together by [IO.Finish],
// after the last result line.
type IO struct {
	out      io.Writer
	errOut   io.Writer
	warnings []warning
}

type warning struct {
	issue  string
	action string
}

// NewIO creates an IO writing results to out and diagnostics to errOut.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Warn records a problem that did not stop the command, such as a key that
// failed to load. issue names the problem; action, which may be empty, tells
// the user what to look at. Any warning makes the command exit 1.
func (o *IO) Warn(issue string, action string) {
	o.warnings = append(o.warnings, warning{issue: issue, action: action})
}

// Println writes a result line to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted results to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish reports the collected warnings on stderr and returns the exit code:
// 0 without warnings, 1 otherwise. Each warning is printed as
//
//	warning: <issue>
//	  <action>
//
// followed by a count line.
func (o *IO) Finish() int {
	if len(o.warnings) == 0 {
		return 0
	}

	for _, w := range o.warnings {
		o.ErrPrintln("warning:", w.issue)

		if w.action != "" {
			_, _ = fmt.Fprintf(o.errOut, "  %s\n", w.action)
		}
	}

	if len(o.warnings) == 1 {
		o.ErrPrintln("1 warning")
	} else {
		_, _ = fmt.Fprintf(o.errOut, "%d warnings\n", len(o.warnings))
	}

	o.warnings = nil

	return 1
}
