package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dropbox/godropbox/errors"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/h5flat/hdf5"
	"github.com/robert-malhotra/h5flat/shim"
)

func newSpaceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "space FILE DATASET",
		Short: "Print the shape of a dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			shape, err := describeSpace(ds)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, shape.String())
			return nil
		},
	}
}

// shape is the extent of a dataspace.
type shape struct {
	Class   string   `json:"class" yaml:"class"`
	Dims    []uint64 `json:"dims,omitempty" yaml:"dims,omitempty"`
	MaxDims []string `json:"max_dims,omitempty" yaml:"max_dims,omitempty"`
}

func (s shape) String() string {
	if s.Class != hdf5.SpaceSimple.String() {
		return s.Class
	}
	cur := make([]string, len(s.Dims))
	for i, d := range s.Dims {
		cur[i] = strconv.FormatUint(d, 10)
	}
	return fmt.Sprintf("%s (max %s)", strings.Join(cur, " x "), strings.Join(s.MaxDims, " x "))
}

func describeSpace(ds hdf5.ID) (shape, error) {
	sid := hdf5.ID(shim.DatasetSpace(int64(ds)))
	if sid == hdf5.Invalid {
		_, err := hdf5.DatasetGetSpace(ds)
		return shape{}, errors.Wrap(err, "reading dataspace: ")
	}
	defer hdf5.SpaceClose(sid)

	class, err := hdf5.SpaceGetClass(sid)
	if err != nil {
		return shape{}, err
	}
	dims, maxDims, err := hdf5.SpaceGetDims(sid)
	if err != nil {
		return shape{}, err
	}

	s := shape{Class: class.String()}
	if class == hdf5.SpaceSimple {
		s.Dims = dims
		for _, m := range maxDims {
			if m == hdf5.Unlimited {
				s.MaxDims = append(s.MaxDims, "unlimited")
			} else {
				s.MaxDims = append(s.MaxDims, strconv.FormatUint(m, 10))
			}
		}
	}
	return s, nil
}
