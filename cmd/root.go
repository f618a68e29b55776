/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/fulmenhq/ocsetup/pkg/buildinfo"
	"github.com/fulmenhq/ocsetup/pkg/config"
	"github.com/fulmenhq/ocsetup/pkg/exitcode"
	"github.com/fulmenhq/ocsetup/pkg/identity"
	"github.com/fulmenhq/ocsetup/pkg/jsonfile"
	"github.com/fulmenhq/ocsetup/pkg/logger"
	"github.com/fulmenhq/ocsetup/pkg/placeholder"
	"github.com/fulmenhq/ocsetup/pkg/readme"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocsetup",
		Short: "Link a repository to its Open Collective",
		Long: `ocsetup adds Open Collective support to a project checkout: a financial
contributors badge and backer/sponsor sections in the README, a postinstall
donation prompt in package.json, and optional contributing, issue, pull request
and FUNDING.yml files. Every change is safe to re-run.

Examples:
   ocsetup setup --repo acme/widget         # Onboard the current checkout
   ocsetup setup --path ~/src/widget --no-op  # Show what would change
   ocsetup readme README.md --slug widget   # Patch a single README
   ocsetup version                          # Show version`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("no-op", false, "Show what would change without writing files")
	cmd.PersistentFlags().String("config", "", "Config file (default: ocsetup.yaml in ., $HOME or the user config dir)")

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("ocsetup {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newSetupCommand())
	cmd.AddCommand(newReadmeCommand())
	cmd.AddCommand(newManifestCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := exitCodeFor(err)
		if code == exitcode.AlreadyConfigured {
			logger.Warn("Nothing to do: Open Collective is already configured", logger.Err(err))
		} else {
			logger.Error("Command execution failed", logger.Err(err), logger.String("kind", exitcode.String(code)))
		}
		os.Exit(code)
	}
}

func init() {
	registerSubcommands(rootCmd)
}

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, readme.ErrAlreadyConfigured):
		return exitcode.AlreadyConfigured
	case errors.Is(err, config.ErrInvalidConfig):
		return exitcode.ConfigError
	case errors.Is(err, identity.ErrInvalidSlug), errors.Is(err, placeholder.ErrUnknownPlaceholder):
		return exitcode.ValidationError
	case errors.Is(err, fs.ErrPermission):
		return exitcode.PermissionError
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, jsonfile.ErrWrite), errors.Is(err, readme.ErrWrite), errors.Is(err, jsonfile.ErrParse):
		return exitcode.FileSystemError
	default:
		return exitcode.GeneralError
	}
}

// loadConfig reads configuration honoring the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	return config.Load(file)
}

func isNoOp(cmd *cobra.Command) bool {
	noOp, _ := cmd.Flags().GetBool("no-op")
	return noOp
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	noOp, _ := cmd.Flags().GetBool("no-op")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "ocsetup",
		NoOp:      noOp,
		Output:    cmd.ErrOrStderr(),
	}

	if err := logger.Initialize(config); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}
