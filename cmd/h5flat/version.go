package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/h5flat/internal/cmodel"
)

// Version is the release of h5flat.
const Version = "0.3.0"

func newVersionCmd(a *app) *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of h5flat",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if clean {
				fmt.Fprintln(a.out, Version)
				return
			}
			fmt.Fprintf(a.out, "Version: %s\n", Version)
			fmt.Fprintf(a.out, "C data model: long is %d bytes\n", cmodel.Long)
		},
	}
	cmd.Flags().BoolVar(&clean, "clean", false, "just write the version")
	return cmd
}
