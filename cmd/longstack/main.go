// Command longstack runs long stack trace demonstrations.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/longstack/cmd/longstack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
