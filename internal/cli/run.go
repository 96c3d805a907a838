// Package cli implements the assetcache command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/assetcache/internal/config"
	"github.com/calvinalkan/assetcache/pkg/fs"
)

// Run is the main entry point. Returns exit code.
//
// args includes the program name. sigCh may be nil; when it delivers a
// signal, the context passed to the running command is canceled.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := flag.NewFlagSet("assetcache", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})

	flagCwd := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globals.StringP("config", "c", "", "Use specified config `file`")
	flagAssetDir := globals.String("asset-dir", "", "Asset directory `name` to search for, or an absolute path")
	flagLogLevel := globals.String("log-level", "", "Log `level` (debug, info, warn, error)")
	flagHelp := globals.BoolP("help", "h", false, "Show help")

	if len(args) > 0 {
		args = args[1:]
	}

	shared := &app{in: in, errOut: errOut, fs: fs.NewReal()}
	commands := allCommands(shared)

	err := globals.Parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globals, commands)

		return 1
	}

	if globals.Changed("asset-dir") && *flagAssetDir == "" {
		fprintln(errOut, "error: asset-dir cannot be empty")
		printUsage(errOut, globals, commands)

		return 1
	}

	rest := globals.Args()
	if *flagHelp || len(rest) == 0 {
		printUsage(out, globals, commands)

		return 0
	}

	workDir := *flagCwd
	if workDir != "" {
		workDir, err = filepath.Abs(workDir)
		if err != nil {
			fprintln(errOut, "error: cannot resolve working directory:", err)

			return 1
		}
	}

	shared.input = config.LoadInput{
		WorkDirOverride:  workDir,
		ConfigPath:       *flagConfig,
		AssetDirOverride: *flagAssetDir,
		LogLevelOverride: *flagLogLevel,
		Env:              env,
	}

	var cmd *Command

	for _, c := range commands {
		if c.Name() == rest[0] {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		printUsage(errOut, globals, commands)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	return cmd.Run(ctx, NewIO(out, errOut), rest[1:])
}

func allCommands(a *app) []*Command {
	return []*Command{
		GetCmd(a),
		BenchCmd(a),
		ReplCmd(a),
		PrintConfigCmd(a),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globals *flag.FlagSet, commands []*Command) {
	fprintln(w, `assetcache - lazy asset cache with scoped timers

Usage: assetcache [global flags] <command> [args]

Global flags:`)
	fprintln(w, strings.TrimRight(globals.FlagUsages(), "\n"))
	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}
}
