// Package cmd provides the root command and CLI setup for refmove.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"refmove.dev/pkg/refmove/internal/adapter"
	"refmove.dev/pkg/refmove/internal/controller"
	"refmove.dev/pkg/refmove/internal/domain"
)

var fsAdapter adapter.SourceFSAdapter
var projectFactory adapter.ProjectFactory

// newMoveWorkflow builds the workflow behind the move command. The UI
// depends on the command's output streams and verbosity.
var newMoveWorkflow = func(cmd *cobra.Command, verbose bool) domain.Workflow {
	ui := controller.NewUI(cmd, controller.IsTTY(os.Stdout), verbose)
	return domain.NewWorkflow(fsAdapter, projectFactory, ui)
}

// logFileFlag overrides log.filename for a single invocation.
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	fsAdapter = adapter.NewLocalSourceFSAdapter()
	projectFactory = adapter.NewLocalProjectFactory(fsAdapter)
}

const rootLongDescription = `refmove moves source files, directories or glob matches to a new location
and rewrites the relative imports that point at them, so the project keeps
resolving after the move.

The amount of the project loaded to find referencing files shrinks as the
number of moved files grows:
  - up to 10 files     the whole project is loaded
  - up to 30 files     moved files plus every file importing them (max 100)
  - up to 50 files     batches of 10, each with at most 20 importing files
  - more than 50       one file at a time, importing files found by a bounded
                       text scan of the first 50 project files`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "refmove",
		Short:        "Move source files and rewrite their imports",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, "", "log file path (default from log.filename)")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
