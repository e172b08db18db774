package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ankittk/hardcheck/internal/cli"
)

// Run executes the CLI and returns the process exit code.
func Run(ctx context.Context, args []string) int {
	root := cli.NewRootCmd(Version)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}
