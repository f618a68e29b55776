/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"

	"github.com/fulmenhq/ocsetup/pkg/manifest"
	"github.com/spf13/cobra"
)

func newManifestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest [package.json]",
		Short: "Declare the collective and the postinstall hook in package.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			id, err := identityFromFlags(cmd)
			if err != nil {
				return err
			}
			path := manifest.FileName
			if len(args) == 1 {
				path = args[0]
			}
			res, err := manifest.Augment(path, id, manifest.Options{
				HookCommand:   cfg.Manifest.HookCommand,
				HookPackage:   cfg.Manifest.HookPackage,
				HookVersion:   cfg.Manifest.HookVersion,
				DefaultIndent: cfg.JSON.DefaultIndent,
				DryRun:        isNoOp(cmd),
			})
			if err != nil {
				return err
			}
			if !res.Changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s unchanged: %s\n", path, res.Reason)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", path)
			return nil
		},
	}
	cmd.Flags().StringP("slug", "s", "", "Collective slug (required)")
	cmd.Flags().StringP("repo", "r", "", "GitHub repository as org/repo")
	_ = cmd.MarkFlagRequired("slug")
	return cmd
}
