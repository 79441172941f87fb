package main

import (
	"fmt"

	"github.com/dropbox/godropbox/errors"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/h5flat/hdf5"
	"github.com/robert-malhotra/h5flat/shim"
)

func newNativeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "native FILE DATASET",
		Short: "Print the native type for reading a dataset",
		Long: `Print the native type able to hold the stored values of a dataset:
  h5flat native data.h5 /temperature
  h5flat native data.h5 /counts --direction descend
  `,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := parseDirection(a.v.GetString("direction"))
			if err != nil {
				return err
			}

			f, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer hdf5.FileClose(f)

			ds, err := hdf5.DatasetOpen(f, args[1])
			if err != nil {
				return err
			}
			defer hdf5.DatasetClose(ds)

			name, err := nativeName(ds, dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, name)
			return nil
		},
	}

	cmd.Flags().String("direction", "default", "search direction: default, ascend or descend")
	a.v.BindPFlag("direction", cmd.Flags().Lookup("direction"))
	return cmd
}

// nativeName returns the name of the native type for a dataset. When the
// shim reports a failure the library is asked again for the reason.
func nativeName(ds hdf5.ID, dir hdf5.Direction) (string, error) {
	id := shim.NativeTypeOf(int64(ds), int32(dir))
	if id != int64(shim.Fail) {
		return hdf5.TypeName(hdf5.ID(id))
	}

	stored, err := hdf5.DatasetGetType(ds)
	if err != nil {
		return "", err
	}
	defer hdf5.TypeClose(stored)
	_, err = hdf5.TypeGetNativeType(stored, dir)
	return "", errors.Wrap(err, "resolving native type: ")
}
