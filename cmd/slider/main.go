// Command slider numbers the slides of a presentation and keeps a local
// directory of PNG renders in sync with it.
package main

import (
	"context"
	"os"

	"github.com/roach88/slider/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
