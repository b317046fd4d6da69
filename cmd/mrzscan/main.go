/**
 * mrzscan - Command Line MRZ Scanner
 *
 * Scans a PDF or image for a machine-readable zone and prints the
 * extracted fields.
 */

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
