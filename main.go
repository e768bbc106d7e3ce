// Command utapi-server runs the utilization-tracking engine: the signed
// ListMetrics HTTP server plus the replay maintenance subcommand, wired
// through the layered configuration in the cli package.
package main

import (
	"fmt"
	"os"

	"github.com/scality/utapi/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
