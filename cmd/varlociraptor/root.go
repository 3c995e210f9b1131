package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/PROSIC/libprosic/internal/cliutil"
)

var cfgFile string

// newRootCmd builds the command tree, binding every subcommand's flags
// through the package-level viper instance the way
// inodb-vibe-vep/cmd/vibe-vep/config.go does, so a `--config` YAML file and
// per-command flags both reach internal/cliutil's knob validation.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "varlociraptor",
		Short:         "Call Bayesian variant events from aligned reads and candidate records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: preprocessing knobs use §6 defaults)")

	root.AddCommand(newPreprocessCmd())
	root.AddCommand(newCallCmd())
	root.AddCommand(newFilterCallsCmd())
	root.AddCommand(newEstimateCmd())
	root.AddCommand(newDecodePHREDCmd())
	root.AddCommand(newTestcaseCmd())
	return root
}

func initConfig() error {
	cliutil.SetDefaults(viper.GetViper())
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}
