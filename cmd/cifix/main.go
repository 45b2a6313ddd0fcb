// cifix - CI failure triage and auto-fix tool.
//
// cifix classifies CI failure logs into structured errors, triages each as
// an infrastructure or code problem, and auto-fixes what it can.
package main

import (
	"os"

	"github.com/cifixlabs/cifix/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
