package cli_test

import (
	"path/filepath"
	"testing"

	"github.com/calvinalkan/assetcache/internal/cli"
)

func Test_Print_Config_Defaults_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "effective_cwd="+c.Dir)
	cli.AssertContains(t, stdout, "asset_dir=assets")
	cli.AssertContains(t, stdout, "search_parents=2")
	cli.AssertContains(t, stdout, "search_kids=2")
	cli.AssertContains(t, stdout, "sample_capacity=64")
	cli.AssertContains(t, stdout, "mmap=false")
	cli.AssertContains(t, stdout, "(defaults only)")
}

func Test_Print_Config_From_Config_File_With_Comments_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteConfig(`{
		// This is a comment
		"asset_dir": "res",
		"mmap": true,
	}`)

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "asset_dir=res")
	cli.AssertContains(t, stdout, "mmap=true")
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, ".assetcache.json"))
}

func Test_Print_Config_Global_Config_From_XDG_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.Env["XDG_CONFIG_HOME"] = filepath.Join(c.Dir, "xdg")
	c.WriteFile("xdg/assetcache/config.json", `{"log_level": "warn"}`)

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "log_level=warn")
	cli.AssertContains(t, stdout, "global_config="+filepath.Join(c.Dir, "xdg", "assetcache", "config.json"))
}

func Test_Print_Config_Flags_Override_Files_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("custom.json", `{"asset_dir": "from-file", "log_level": "warn"}`)

	stdout := c.MustRun("-c", "custom.json", "--asset-dir", "from-cli", "--log-level=debug", "print-config")

	cli.AssertContains(t, stdout, "asset_dir=from-cli")
	cli.AssertContains(t, stdout, "log_level=debug")
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, "custom.json"))
}

func Test_Print_Config_JSON_When_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("print-config", "--json")

	cli.AssertContains(t, stdout, `"asset_dir": "assets"`)
	cli.AssertContains(t, stdout, `"search_kids": 2`)
}

func Test_Config_Explicit_Config_Not_Found_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("-c", "nonexistent.json", "print-config")

	cli.AssertContains(t, stderr, "config file not found")
}

func Test_Config_Invalid_Log_Level_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--log-level", "loud", "print-config")

	cli.AssertContains(t, stderr, "log_level must be debug, info, warn or error")
}
