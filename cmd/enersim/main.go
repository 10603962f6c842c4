// The enersim binary simulates household energy systems.
package main

import (
	"github.com/enersim/enersim/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	defer atexit.Exit(0)

	cmd.Execute()
}
