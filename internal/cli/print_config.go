package cli

import (
	"context"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/assetcache/internal/config"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(a *app) *Command {
	flags := flag.NewFlagSet("print-config", flag.ContinueOnError)
	asJSON := flags.Bool("json", false, "Print the effective config as JSON")

	return &Command{
		Flags: flags,
		Usage: "print-config [--json]",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			if err := a.ready(); err != nil {
				return err
			}

			return execPrintConfig(io, a.cfg, *asJSON)
		},
	}
}

func execPrintConfig(io *IO, cfg config.Config, asJSON bool) error {
	if asJSON {
		formatted, err := config.Format(cfg)
		if err != nil {
			return err
		}

		io.Println(formatted)

		return nil
	}

	io.Println("effective_cwd=" + cfg.EffectiveCwd)
	io.Println("asset_dir=" + cfg.AssetDir)
	io.Println("search_parents=" + strconv.Itoa(cfg.Parents()))
	io.Println("search_kids=" + strconv.Itoa(cfg.Kids()))
	io.Println("sample_capacity=" + strconv.Itoa(cfg.Capacity()))
	io.Println("log_level=" + cfg.LogLevel)
	io.Printf("mmap=%t\n", cfg.UseMmap())

	io.Println("")
	io.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		io.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			io.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			io.Println("project_config=" + cfg.Sources.Project)
		}
	}

	return nil
}
