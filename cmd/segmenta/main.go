// Command segmenta audits network segmentation by scanning address
// ranges for exposed services and reporting them by segment.
package main

import (
	"os"

	"github.com/segaudit/segmenta/cmd/cli"
)

func main() {
	os.Exit(cli.Execute())
}
