package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/assetcache/pkg/ring"
	"github.com/calvinalkan/assetcache/pkg/timer"
)

const replHelp = `Commands:
  get <key>...   Load keys (cached after the first success)
  keys           List loaded keys
  stats          Show entry count and load timings
  help           Show this help
  quit           Leave (also: exit, Ctrl-D)`

// ReplCmd returns the repl command.
func ReplCmd(a *app) *Command {
	flags := flag.NewFlagSet("repl", flag.ContinueOnError)
	mmap := flags.Bool("mmap", false, "Map assets read-only instead of reading them into memory")

	return &Command{
		Flags: flags,
		Usage: "repl [--mmap]",
		Short: "Interactive shell over one cache",
		Long:  "Start an interactive shell that keeps one cache for its whole session.\n\n" + replHelp,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execRepl(ctx, a, o, *mmap)
		},
	}
}

// lineReader is the part of [liner.State] the shell needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// newLineReader uses liner for a real stdin and a plain scanner for anything
// else, since liner always reads os.Stdin.
func newLineReader(in io.Reader) lineReader {
	if f, ok := in.(*os.File); ok && f == os.Stdin {
		state := liner.NewLiner()
		state.SetCtrlCAborts(true)

		return state
	}

	return &scanReader{sc: bufio.NewScanner(in)}
}

type scanReader struct {
	sc *bufio.Scanner
}

func (s *scanReader) Prompt(string) (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return s.sc.Text(), nil
}

func (s *scanReader) AppendHistory(string) {}

func (s *scanReader) Close() error { return nil }

func execRepl(ctx context.Context, a *app, o *IO, mmap bool) error {
	if err := a.ready(); err != nil {
		return err
	}

	samples, err := ring.New[time.Duration](a.cfg.Capacity())
	if err != nil {
		return err
	}

	cache, err := a.newCache(mmap)
	if err != nil {
		return err
	}

	defer a.closeAssets(cache)

	in := a.in
	if in == nil {
		in = strings.NewReader("")
	}

	lines := newLineReader(in)
	defer func() { _ = lines.Close() }()

	sink := timer.BufferSink(samples)

	for ctx.Err() == nil {
		line, err := lines.Prompt("assetcache> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}

			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		lines.AppendHistory(line)

		switch fields[0] {
		case "get":
			if len(fields) == 1 {
				o.ErrPrintln("error:", errKeysRequired)

				continue
			}

			for _, key := range fields[1:] {
				t := timer.Start("get "+key, sink)
				v, err := cache.GetOrLoad(key)
				t.Stop()

				if err != nil {
					o.ErrPrintln("error:", err)

					continue
				}

				o.Printf("%s\t%d\n", key, v.Size())
			}
		case "keys":
			for _, key := range cache.Keys() {
				o.Println(key)
			}
		case "stats":
			o.Printf("entries=%d dir=%s\n", cache.Len(), cache.BaseDir())
			printSummary(o, "get", timer.Summarize(samples.Samples()))
		case "help":
			o.Println(replHelp)
		case "quit", "exit":
			return nil
		default:
			o.ErrPrintln("error: unknown command:", fields[0], "(try help)")
		}
	}

	return nil
}
