// Package main provides the simtool CLI.
package main

import (
	"fmt"
	"os"

	"github.com/jmylchreest/simtool/internal/simcore"
	"github.com/jmylchreest/simtool/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if err := runCommand(cmd, args); err != nil {
		fatal("%v", err)
	}
}

// runCommand dispatches to a subcommand and recovers a panicked
// *simcore.InternalInvariantViolation at this single boundary, turning it
// into the same clean fatal exit as an ordinary returned error. The core
// never attempts partial recovery from one of these (spec §7); the driver
// decides only how to report it before exiting.
func runCommand(cmd string, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if iv, ok := r.(*simcore.InternalInvariantViolation); ok {
				err = fmt.Errorf("simtool: %w (this is a bug, please report it)", iv)
				return
			}
			panic(r)
		}
	}()

	switch cmd {
	case "scan":
		return cmdScan(args)
	case "percent":
		return cmdPercent(args)
	case "diff-since":
		return cmdDiffSince(args)
	case "lex":
		return cmdLex(args)
	case "watch":
		return cmdWatch(args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	case "version", "-v", "--version":
		return cmdVersion(args)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func cmdVersion(args []string) error {
	for _, a := range args {
		if a == "--json" {
			fmt.Println(version.JSON())
			return nil
		}
	}
	fmt.Println(version.String())
	return nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Printf(`simtool %s - source similarity and clone scanner

Usage:
  simtool <command> [arguments]

Commands:
  scan         Compare files under a directory, reporting shared token runs
  percent      Compare files under a directory, reporting overlap percentages
  diff-since   Compare the working tree against a git revision (new vs old)
  lex          Tokenize a single file and print its normalized token stream
  watch        Rescan a directory on change; optionally serve results over HTTP
  version      Show version information

Environment:
  SIMTOOL_MIN_RUN_SIZE          Minimum tokens for a reported run (default: 24)
  SIMTOOL_THRESHOLD_PERCENTAGE  Minimum overlap %% reported by percent (default: 10)
  SIMTOOL_IGNORE_FILE           Ignore-rule file name (default: .simignore)

Examples:
  simtool scan ./src
  simtool percent --threshold=25 ./src
  simtool diff-since main ./src
  simtool watch --serve=:8089 ./src
`, version.Short())
}
