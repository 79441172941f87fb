package main

import (
	"fmt"

	"github.com/dropbox/godropbox/errors"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/h5flat/hdf5"
	"github.com/robert-malhotra/h5flat/shim"
)

func newMembersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "members FILE [GROUP]",
		Short: "Print the number of links in a group",
		Long: `Print the number of links in a group, the root group by default:
  h5flat members data.h5
  h5flat members data.h5 /results/run1
  `,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer hdf5.FileClose(f)

			loc, name := f, "/"
			if len(args) == 2 {
				g, err := hdf5.GroupOpen(f, args[1])
				if err != nil {
					return err
				}
				defer hdf5.GroupClose(g)
				loc, name = g, args[1]
			}

			var n uint64
			if shim.GroupMemberCount(int64(loc), &n) != shim.Succeed {
				_, err := hdf5.GroupGetInfo(loc)
				return errors.Wrapf(err, "counting links of %s: ", name)
			}
			fmt.Fprintln(a.out, n)
			return nil
		},
	}
}
