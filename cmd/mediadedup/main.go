// Command mediadedup finds and resolves perceptual duplicates across
// image and video libraries: a one-shot scan subcommand for batch runs,
// and serve/worker subcommands for the optional long-running service
// mode (§C.1).
package main

import "os"

func main() {
	os.Exit(Execute())
}
