package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// errUsage marks invalid invocations; Main maps it to exit code 2.
var errUsage = errors.New("usage")

func main() { os.Exit(Main(os.Args[1:], os.Stdout, os.Stderr)) }

// Main runs the command tree and returns the process exit code:
// 0 on success, 1 on failure, 2 on usage errors.
func Main(args []string, stdout, stderr io.Writer) int {
	root := buildRootCmd(&globalOptions{}, stdout, stderr)
	if len(args) == 0 {
		root.SetOut(stderr)
		_ = root.Usage()
		return 2
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}
