// Command countdown is a countdown timer for the terminal.
package main

import (
	"github.com/sarchlab/countdown/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	atexit.Exit(cmd.Execute())
}
