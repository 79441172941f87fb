package main

import (
	stderrors "errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/dropbox/godropbox/errors"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/robert-malhotra/h5flat/hdf5"
	"github.com/robert-malhotra/h5flat/internal/logging"
)

var logger = logging.Logger("cli")

// app is the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	out     io.Writer
	cfgFile string
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}
	a.v.SetDefault("log-level", "warn")
	a.v.SetDefault("direction", "default")
	a.v.SetDefault("output", "text")

	root := &cobra.Command{
		Use:   "h5flat",
		Short: "Query HDF5 files through the flat shim API",
		Long: `h5flat answers the questions the flat shim API answers:
  h5flat members FILE [GROUP]
  h5flat resolve --class int --size 4
  h5flat space FILE DATASET
  h5flat native FILE DATASET --direction descend
  h5flat inspect FILE -o json
  `,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			return logging.SetLevel(a.v.GetString("log-level"))
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.h5flat/config.yaml)")
	root.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn or error")
	a.v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		newMembersCmd(a),
		newResolveCmd(a),
		newSpaceCmd(a),
		newNativeCmd(a),
		newInspectCmd(a),
		newVersionCmd(a),
	)
	return root
}

// initConfig reads in the config file and H5FLAT_ environment variables.
func (a *app) initConfig() error {
	a.v.SetEnvPrefix("h5flat")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			logger.Debug("no home directory, skipping config file", "error", err)
			return nil
		}
		a.v.AddConfigPath(filepath.Join(home, ".h5flat"))
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile == "" && stderrors.As(err, &notFound) {
			return nil
		}
		return errors.Wrapf(err, "reading config %s: ", a.cfgFile)
	}
	logger.Debug("using config file", "path", a.v.ConfigFileUsed())
	return nil
}

// open opens name read-only.
func (a *app) open(name string) (hdf5.ID, error) {
	f, err := hdf5.Open(name, hdf5.ReadOnly)
	if err != nil {
		return hdf5.Invalid, err
	}
	logger.Debug("opened file", "path", name, "id", int64(f))
	return f, nil
}

func parseDirection(s string) (hdf5.Direction, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return hdf5.DirDefault, nil
	case "ascend":
		return hdf5.DirAscend, nil
	case "descend":
		return hdf5.DirDescend, nil
	}
	return hdf5.DirDefault, errors.Newf("unknown direction %q (want default, ascend or descend)", s)
}
