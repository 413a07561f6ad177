// Command jobctl submits jobs to the job status service and polls their status.
package main

import (
	"os"

	"github.com/target/jobstatus/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
