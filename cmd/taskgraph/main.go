package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/taskgraph/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var invalid *cli.InvalidGraphError
		if errors.As(err, &invalid) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
