/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/fulmenhq/ocsetup/internal/onboard"
	"github.com/fulmenhq/ocsetup/pkg/ascii"
	"github.com/fulmenhq/ocsetup/pkg/config"
	"github.com/spf13/cobra"
)

// targetFlags maps setup flags onto config toggles.
var targetFlags = []struct {
	name  string
	usage string
	field func(*config.Config) *bool
}{
	{"manifest", "Add the postinstall donation prompt to package.json", func(c *config.Config) *bool { return &c.Targets.Manifest }},
	{"contributing", "Add or update CONTRIBUTING.md", func(c *config.Config) *bool { return &c.Targets.Contributing }},
	{"issue-template", "Add or update .github/ISSUE_TEMPLATE.md", func(c *config.Config) *bool { return &c.Targets.IssueTemplate }},
	{"pull-request-template", "Add or update .github/PULL_REQUEST_TEMPLATE.md", func(c *config.Config) *bool { return &c.Targets.PullRequestTemplate }},
	{"funding", "Add open_collective to .github/FUNDING.yml", func(c *config.Config) *bool { return &c.Targets.Funding }},
	{"commit", "Commit each changed file", func(c *config.Config) *bool { return &c.Git.Commit }},
}

func newSetupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Onboard a project checkout to Open Collective",
		Long: `Patch the README, package.json and the optional community files of a
project checkout so they point to its Open Collective.

The run stops without touching anything else when the README or package.json
already references the collective.`,
		Args: cobra.NoArgs,
		RunE: runSetup,
	}
	cmd.Flags().StringP("path", "p", ".", "Project checkout to update")
	cmd.Flags().StringP("slug", "s", "", "Collective slug (default: repository or package name)")
	cmd.Flags().StringP("repo", "r", "", "GitHub repository as org/repo (default: origin remote)")
	defaults := config.Default()
	for _, f := range targetFlags {
		cmd.Flags().Bool(f.name, *f.field(defaults), f.usage)
	}
	return cmd
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	for _, f := range targetFlags {
		if cmd.Flags().Changed(f.name) {
			v, _ := cmd.Flags().GetBool(f.name)
			*f.field(cfg) = v
		}
	}

	path, _ := cmd.Flags().GetString("path")
	slug, _ := cmd.Flags().GetString("slug")
	repo, _ := cmd.Flags().GetString("repo")

	report, err := onboard.Run(cmd.Context(), onboard.Options{
		Path:    path,
		Slug:    slug,
		RepoRef: repo,
		Config:  cfg,
		DryRun:  isNoOp(cmd),
	})
	if report != nil && len(report.Steps) > 0 {
		printReport(cmd.OutOrStdout(), report)
	}
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), ascii.Box([]string{
		"Done. Collective: " + report.Identity.URL(),
		"Please double check your updated README to make sure everything looks good.",
	}))
	return nil
}

func printReport(w io.Writer, report *onboard.Report) {
	rows := [][]string{{"STEP", "FILE", "STATUS", "DETAIL"}}
	for _, s := range report.Steps {
		status := string(s.Status)
		if s.Committed {
			status += " (committed)"
		}
		rows = append(rows, []string{s.Name, s.File, status, ascii.Truncate(s.Detail, 60)})
	}
	fmt.Fprint(w, ascii.Table(rows))
}
