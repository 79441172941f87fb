// Command h5flat inspects HDF5 files through the flat shim API.
package main

import (
	"fmt"
	"os"

	"github.com/dropbox/godropbox/errors"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "h5flat:", errors.GetMessage(err))
		os.Exit(1)
	}
}
