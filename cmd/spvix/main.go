package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/spvix/cmd/spvix/internal/build"
	"github.com/meenmo/spvix/cmd/spvix/internal/download"
	"github.com/meenmo/spvix/cmd/spvix/internal/inspect"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "build":
		return build.Run(args[1:], stdin, stdout, stderr)
	case "inspect":
		return inspect.Run(args[1:], stdin, stdout, stderr)
	case "download":
		return download.Run(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: spvix <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build     Recompute SPVXSTR or SPVXSP and print date,value lines")
	fmt.Fprintln(w, "  inspect   Show calendar grids and the inputs of one index step")
	fmt.Fprintln(w, "  download  Refresh the futures and t-bill files in the data directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `spvix <command> -h` for command-specific help.")
}
