// Command fieldlookup creates lookup tables and counts rows of one table that
// have a field-matched row in another.
package main

import (
	"os"

	"fieldlookup/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
