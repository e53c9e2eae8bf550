// Command runcode compiles and runs a snippet from the command line, either
// with the local toolchains or through a running code compiler server. It
// also registers API clients for the server's token endpoint.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
