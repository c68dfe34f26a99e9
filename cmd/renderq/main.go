package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"renderq/internal/services"
)

func main() {
	os.Exit(run())
}

// run executes the CLI and maps failures to exit codes: 2 for configuration
// problems, 1 for everything else.
func run() int {
	err := newRootCommand().Execute()
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, services.ErrConfiguration):
		fmt.Fprintln(os.Stderr, "renderq:", err)
		return 2
	default:
		fmt.Fprintln(os.Stderr, "renderq:", err)
		return 1
	}
}
