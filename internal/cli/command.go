package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one assetcache subcommand: its flags, help text and body.
type Command struct {
	// Flags holds the command's own flags. Global flags are parsed by [Run]
	// before the command is selected.
	Flags *flag.FlagSet

	// Usage is shown after "assetcache" in help, starting with the command
	// name, e.g. "get [--mmap] <key>...".
	Usage string

	// Short is the one-line summary in the command list.
	Short string

	// Long is the command help text. Short is used when empty.
	Long string

	// Exec runs the command with the remaining positional args.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine returns the command's row in the global usage listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-44s %s", c.Usage, c.Short)
}

// PrintHelp writes "assetcache <cmd> --help" output to w.
func (c *Command) PrintHelp(w io.Writer) {
	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Usage: assetcache [global flags] %s\n\n%s\n", c.Usage, desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		fmt.Fprintf(&sb, "\nFlags:\n%s", c.Flags.FlagUsages())
	}

	sb.WriteString("\nRun 'assetcache --help' for global flags.\n")

	_, _ = io.WriteString(w, sb.String())
}

// Run parses args into the command's flags, executes it and returns the
// exit code.
//
// Help goes to stdout and exits 0. A flag error prints the error and the
// help to stderr and exits 1. When Exec fails, warnings recorded so far are
// reported before the error.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(io.Discard)

	err := c.Flags.Parse(args)

	switch {
	case errors.Is(err, flag.ErrHelp):
		c.PrintHelp(o.out)

		return 0
	case err != nil:
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o.errOut)

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.Finish()
		o.ErrPrintln("error:", err)

		return 1
	}

	return o.Finish()
}
