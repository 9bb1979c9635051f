// main is the entry point for the climdash CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/climdash/cmd"
)

func main() {
	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		fmt.Println("⚠️  Warning:", stopErr)
	}
	if err == nil {
		return
	}
	// The error surface already printed the diagnostics.
	if !errors.Is(err, cmd.ErrReported) {
		fmt.Println("❌", err)
	}
	os.Exit(1)
}
