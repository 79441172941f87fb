package main

import (
	"fmt"
	"strings"

	"github.com/dropbox/godropbox/errors"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/h5flat/hdf5"
	"github.com/robert-malhotra/h5flat/shim"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		class    string
		size     int32
		unsigned bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the native type for a class, size and signedness",
		Long: `Print the predefined native type matching a type class, byte size and
signedness on this platform:
  h5flat resolve --class int --size 8
  h5flat resolve --class int --size 2 --unsigned
  h5flat resolve --class float --size 4
  `,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var code int32
			switch strings.ToLower(class) {
			case "int", "integer":
				code = shim.ClassInteger
			case "float":
				code = shim.ClassFloat
			default:
				return errors.Newf("unknown class %q (want int or float)", class)
			}
			signed := int32(1)
			if unsigned {
				signed = 0
			}

			id := shim.ResolveNativeType(code, size, signed)
			if id == int64(shim.Fail) {
				return errors.Newf("no native %s type is %d bytes wide", class, size)
			}
			name, err := hdf5.TypeName(hdf5.ID(id))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %d\n", name, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&class, "class", "int", "type class: int or float")
	cmd.Flags().Int32Var(&size, "size", 4, "size in bytes")
	cmd.Flags().BoolVar(&unsigned, "unsigned", false, "resolve the unsigned integer type")
	return cmd
}
