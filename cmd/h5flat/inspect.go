package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dropbox/godropbox/errors"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/h5flat/hdf5"
	"github.com/robert-malhotra/h5flat/shim"
)

// object is one group or dataset found while inspecting a file.
type object struct {
	Path   string  `json:"path" yaml:"path"`
	Kind   string  `json:"kind" yaml:"kind"`
	Links  *uint64 `json:"links,omitempty" yaml:"links,omitempty"`
	Shape  *shape  `json:"shape,omitempty" yaml:"shape,omitempty"`
	Type   string  `json:"type,omitempty" yaml:"type,omitempty"`
	Native string  `json:"native,omitempty" yaml:"native,omitempty"`
	Error  string  `json:"error,omitempty" yaml:"error,omitempty"`
}

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "List every group and dataset of a file",
		Long: `Walk a file and list its groups with their link counts and its datasets
with their shapes and native types:
  h5flat inspect data.h5
  h5flat inspect data.h5 -o yaml
  `,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(a.v.GetString("output"))
			if format != "text" && format != "json" && format != "yaml" {
				return errors.Newf("unknown output format %q (want text, json or yaml)", format)
			}
			dir, err := parseDirection(a.v.GetString("direction"))
			if err != nil {
				return err
			}

			f, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer hdf5.FileClose(f)

			objects, err := inspect(f, dir)
			if err != nil {
				return err
			}
			return render(a.out, format, objects)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "output format: text, json or yaml")
	a.v.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func inspect(f hdf5.ID, dir hdf5.Direction) ([]object, error) {
	var objects []object
	err := hdf5.Visit(f, func(path string, id hdf5.ID, err error) error {
		if err != nil {
			logger.Debug("skipping unreadable object", "path", path, "error", errors.GetMessage(err))
			objects = append(objects, object{Path: path, Kind: hdf5.KindBad.String(), Error: firstLine(err)})
			return nil
		}

		kind, err := hdf5.IDKind(id)
		if err != nil {
			return err
		}
		obj := object{Path: path, Kind: kind.String()}

		switch kind {
		case hdf5.KindGroup:
			var n uint64
			if shim.GroupMemberCount(int64(id), &n) == shim.Succeed {
				obj.Links = &n
			} else {
				obj.Error = "link count unavailable"
			}

		case hdf5.KindDataset:
			if s, err := describeSpace(id); err == nil {
				obj.Shape = &s
			} else {
				obj.Error = firstLine(err)
			}
			if stored, err := hdf5.DatasetGetType(id); err == nil {
				obj.Type, _ = hdf5.TypeName(stored)
				hdf5.TypeClose(stored)
			}
			if native, err := nativeName(id, dir); err == nil {
				obj.Native = native
			}
		}

		objects = append(objects, obj)
		return nil
	})
	return objects, err
}

func render(w io.Writer, format string, objects []object) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(objects, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(objects); err != nil {
			return err
		}
		return enc.Close()
	}

	for _, o := range objects {
		switch {
		case o.Error != "":
			fmt.Fprintf(w, "%-8s %s: %s\n", o.Kind, o.Path, o.Error)
		case o.Links != nil:
			fmt.Fprintf(w, "%-8s %s (%d links)\n", o.Kind, o.Path, *o.Links)
		case o.Shape != nil:
			fmt.Fprintf(w, "%-8s %s %s, %s -> %s\n", o.Kind, o.Path, o.Shape, o.Type, nativeOrNone(o.Native))
		default:
			fmt.Fprintf(w, "%-8s %s\n", o.Kind, o.Path)
		}
	}
	return nil
}

func nativeOrNone(s string) string {
	if s == "" {
		return "no native type"
	}
	return s
}

// firstLine strips everything after the first line of an error message.
// Wrapped errors put each layer on its own line.
func firstLine(err error) string {
	msg := errors.GetMessage(err)
	msg = strings.ReplaceAll(msg, ": \n", ": ")
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSuffix(msg, ": ")
}
