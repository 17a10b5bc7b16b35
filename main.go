package main

import (
	"os"

	"github.com/felixgeelhaar/covreport/internal/cli"
)

func main() {
	code := cli.Run(os.Args, os.Stdout, os.Stderr, func(opts cli.Options) cli.Service {
		return cli.BuildService(opts)
	})
	os.Exit(code)
}
