// Command wikisql runs SQL-subset queries against Wikidata.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/wikisql/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands report their own failures as ExitError; anything else comes
	// from cobra itself (unknown command, bad flag).
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
