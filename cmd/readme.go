/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"

	"github.com/fulmenhq/ocsetup/pkg/identity"
	"github.com/fulmenhq/ocsetup/pkg/readme"
	"github.com/spf13/cobra"
)

func newReadmeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readme <file>",
		Short: "Add the collective badge and contributor sections to one README",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identityFromFlags(cmd)
			if err != nil {
				return err
			}
			out, err := readme.Patch(args[0], id, readme.Options{DryRun: isNoOp(cmd)})
			if err != nil {
				return err
			}
			if printOut, _ := cmd.Flags().GetBool("print"); printOut {
				fmt.Fprint(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	cmd.Flags().StringP("slug", "s", "", "Collective slug (required)")
	cmd.Flags().StringP("repo", "r", "", "GitHub repository as org/repo (required)")
	cmd.Flags().Bool("print", false, "Print the patched README to stdout")
	_ = cmd.MarkFlagRequired("slug")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}

func identityFromFlags(cmd *cobra.Command) (identity.Identity, error) {
	slug, _ := cmd.Flags().GetString("slug")
	repo, _ := cmd.Flags().GetString("repo")
	return identity.New(slug, repo)
}
