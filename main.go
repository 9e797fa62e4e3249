// main is the entry point for the recap CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/recap/cmd"
	"github.com/huangsam/recap/internal/iocache"
)

func main() {
	os.Exit(run())
}

// run wraps the command execution so deferred cleanup still fires
// before the process exits.
func run() int {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseCaching()

	code := 0
	if err := cmd.Execute(); err != nil {
		fmt.Println("❌", err)
		code = 1
	}

	if err := cmd.StopProfiling(); err != nil {
		fmt.Println("⚠️  Failed to stop profiling:", err)
	}

	return code
}
