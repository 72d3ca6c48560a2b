// Command streakctl inspects and repairs the on-device streak data. It opens
// the same local store as the API daemon, so run it while the daemon is stopped.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(openEngine).Execute(); err != nil {
		os.Exit(1)
	}
}
