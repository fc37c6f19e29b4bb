// Package main is a command-line tool for exploration files.
//
// Most subcommands read an exploration (YAML) from standard input and
// write to standard output.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		Usage(os.Stdout)
		os.Exit(1)
	}

	if err := Run(context.Background(), os.Args[1], os.Args[2:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// Run executes the subcommand.
func Run(ctx context.Context, name string, args []string, in io.Reader, out io.Writer) error {
	cmd, have := Commands[name]
	if !have {
		Usage(out)
		return fmt.Errorf("unknown subcommand %q", name)
	}
	fs := cmd.Flags()
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return cmd.Run(ctx, in, out)
}

func Usage(out io.Writer) {
	fmt.Fprintf(out, "Subcommands:\n\n")
	for _, name := range names() {
		cmd := Commands[name]
		fs := cmd.Flags()
		fs.SetOutput(out)
		fmt.Fprintf(out, "%s\n  %s\n", name, cmd.Doc())
		fs.PrintDefaults()
		fmt.Fprintln(out)
	}
}
