package taskdeck

import (
	"fmt"
	"io"
	"os"
)

// Run executes the CLI with explicit streams and environment so tests can
// drive it end to end. It returns the process exit code.
func Run(args []string, stdout, stderr io.Writer, env []string) int {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}

	cfg := DefaultConfig(home)
	if fileCfg, err := LoadOrInitConfig(home); err == nil {
		cfg = MergeConfig(cfg, fileCfg, ParseEnvConfig(env), Config{})
	} else {
		cfg = MergeConfig(cfg, Config{}, ParseEnvConfig(env), Config{})
	}

	root := NewRootCommand(cfg, stdout, stderr)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		var cerr *cliError
		if asCLIError(err, &cerr) {
			if len(cerr.rawJSON) > 0 {
				fmt.Fprintln(stderr, string(cerr.rawJSON))
			} else {
				fmt.Fprintln(stderr, FormatError(cfg.Output, cerr.status, cerr.message))
			}
			return 1
		}
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}
