package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"refmove.dev/pkg/refmove/internal/domain"
	m "refmove.dev/pkg/refmove/internal/model"
)

var (
	moveExtensionsFlag   string
	moveForceFlag        bool
	moveDryRunFlag       bool
	moveVerboseFlag      bool
	moveDebugImportsFlag bool
	moveTSConfigFlag     string
	moveRecursiveFlag    bool
	moveReportFlag       string
)

const moveLongDescription = `Move files, directories or glob matches to a destination and rewrite every
relative import that points at them.

Sources that exist as directories are moved with their whole content; when
the directory's name differs from the destination's it is nested inside the
destination, otherwise its content is merged into it. Sources that exist as
files are moved as is. Anything else is read as a glob pattern relative to
the working directory (e.g. "src/**/*.ts").`

// moveCmd represents the move command.
var moveCmd = newMoveCmd()

func newMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <sources...> <destination>",
		Short: "Move files and rewrite the imports referencing them",
		Long:  moveLongDescription,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}

			extensions := m.NormalizeExtensions([]string{viper.GetString(moveExtensionsKey)})
			if len(extensions) == 0 {
				return fmt.Errorf("--%s must name at least one extension", extensionsFlagName)
			}

			runID := uuid.NewString()
			slog.SetDefault(slog.Default().With("run", runID))

			verbose := viper.GetBool(logVerboseKey)
			workflow := newMoveWorkflow(cmd, verbose)

			report, moveErr := workflow.Move(cmd.Context(), domain.MoveArgs{
				RunID:        runID,
				WorkingDir:   m.WorkingDirectory(wd),
				Sources:      args[:len(args)-1],
				Destination:  args[len(args)-1],
				Extensions:   extensions,
				Force:        viper.GetBool(moveForceKey),
				DryRun:       moveDryRunFlag,
				DebugImports: moveDebugImportsFlag,
				Recursive:    viper.GetBool(moveRecursiveKey),
				TSConfigPath: viper.GetString(moveTSConfigKey),
			})

			if reportPath := viper.GetString(moveReportKey); reportPath != "" {
				if err := writeReport(m.WorkingDirectory(wd).Resolve(reportPath), report); err != nil {
					slog.Error("Failed to write report", "path", reportPath, "error", err)

					if moveErr == nil {
						return err
					}
				}
			}

			if moveErr != nil {
				slog.Error("Move failed", "error", moveErr)
				return moveErr
			}

			return nil
		},
	}

	configureMoveFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(moveCmd)
}

func configureMoveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&moveExtensionsFlag, extensionsFlagName, "e", viper.GetString(moveExtensionsKey), "comma separated source extensions")
	bindFlagToConfig(cmd.Flags().Lookup(extensionsFlagName), moveExtensionsKey)

	cmd.Flags().BoolVarP(&moveForceFlag, forceFlagName, "f", viper.GetBool(moveForceKey), "overwrite existing destination files")
	bindFlagToConfig(cmd.Flags().Lookup(forceFlagName), moveForceKey)

	cmd.Flags().BoolVarP(&moveRecursiveFlag, recursiveFlagName, "r", viper.GetBool(moveRecursiveKey), "let glob patterns match at any depth")
	bindFlagToConfig(cmd.Flags().Lookup(recursiveFlagName), moveRecursiveKey)

	cmd.Flags().StringVar(&moveTSConfigFlag, tsconfigFlagName, viper.GetString(moveTSConfigKey), "tsconfig.json whose directory is the project root")
	bindFlagToConfig(cmd.Flags().Lookup(tsconfigFlagName), moveTSConfigKey)

	cmd.Flags().StringVar(&moveReportFlag, reportFlagName, viper.GetString(moveReportKey), "write a YAML run report to this file")
	bindFlagToConfig(cmd.Flags().Lookup(reportFlagName), moveReportKey)

	cmd.Flags().BoolVarP(&moveVerboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "show every skipped file and warning, log at debug level")
	bindFlagToConfig(cmd.Flags().Lookup(verboseFlagName), logVerboseKey)

	cmd.Flags().BoolVarP(&moveDryRunFlag, dryRunFlagName, "n", false, "print the planned moves without touching any file")
	cmd.Flags().BoolVar(&moveDebugImportsFlag, debugImportsFlagName, false, "log import resolution and print a diff of every rewritten file")
}
