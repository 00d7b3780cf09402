// Command phicalc computes Fibonacci, Lucas and Tribonacci terms and studies
// the golden ratio. Run "phicalc --help" for the list of commands.
package main

import (
	"context"
	"os"

	"github.com/agbru/phicalc/internal/app"
)

func main() {
	os.Exit(app.Run(context.Background(), os.Args[1:]))
}
