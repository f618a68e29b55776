// Package onboard runs the document mutators against a local checkout in the
// order the setup flow requires and collects what each one did.
package onboard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fulmenhq/ocsetup/internal/assets"
	"github.com/fulmenhq/ocsetup/internal/gitctx"
	"github.com/fulmenhq/ocsetup/pkg/config"
	"github.com/fulmenhq/ocsetup/pkg/funding"
	"github.com/fulmenhq/ocsetup/pkg/identity"
	"github.com/fulmenhq/ocsetup/pkg/logger"
	"github.com/fulmenhq/ocsetup/pkg/manifest"
	"github.com/fulmenhq/ocsetup/pkg/placeholder"
	"github.com/fulmenhq/ocsetup/pkg/readme"
	"github.com/fulmenhq/ocsetup/pkg/safeio"
	"github.com/fulmenhq/ocsetup/pkg/templates"
)

// ReadmePattern matches the README files the badge can be added to.
const ReadmePattern = "{README,Readme,readme}.{md,markdown,rst}"

// ErrNoReadme is returned when the checkout has no README to patch.
var ErrNoReadme = errors.New("no README found")

// Commit messages, one per touched file.
const (
	readmeCommitMessage   = "Added financial contributors to the README"
	manifestCommitMessage = "Added call to donate after npm install (optional)"
)

// Status is the outcome of one step.
type Status string

const (
	StatusCreated   Status = "created"
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Step records what happened to one file.
type Step struct {
	Name      string
	File      string
	Status    Status
	Detail    string
	Committed bool
}

// Report is the result of a run.
type Report struct {
	Root     string
	Identity identity.Identity
	Steps    []Step
}

// Options describe the checkout and the collective to link.
type Options struct {
	// Path is the project checkout, "." when empty.
	Path string
	// Slug overrides the collective slug derived from the repository.
	Slug string
	// RepoRef is "org/repo"; read from the origin remote when empty.
	RepoRef string
	Config  *config.Config
	DryRun  bool
}

type runner struct {
	opts   Options
	cfg    *config.Config
	root   string
	id     identity.Identity
	repo   *gitctx.Repo
	report *Report
}

// Run onboards the checkout. A README that is already configured, or that
// cannot be written, stops the run before any other file is touched. Failures
// in the optional steps are logged and recorded in the report.
func Run(ctx context.Context, opts Options) (*Report, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	path := opts.Path
	if path == "" {
		path = "."
	}
	root, err := safeio.ExpandHome(path)
	if err != nil {
		return nil, err
	}

	r := &runner{opts: opts, cfg: cfg, root: root, report: &Report{Root: root}}
	if repo, err := gitctx.Open(root); err == nil {
		r.repo = repo
	} else if cfg.Git.Commit && !opts.DryRun {
		return nil, err
	} else {
		logger.Debug("Not a git repository", logger.String("path", root))
	}

	pkgPath := filepath.Join(root, manifest.FileName)
	state, hasManifest, err := r.inspectManifest(pkgPath)
	if err != nil {
		return r.report, err
	}

	if r.id, err = r.resolveIdentity(state.Name); err != nil {
		return r.report, err
	}
	r.report.Identity = r.id

	readmePath, err := FindReadme(root)
	if err != nil {
		return r.report, err
	}
	if err := ctx.Err(); err != nil {
		return r.report, err
	}
	if _, err := readme.Patch(readmePath, r.id, readme.Options{DryRun: opts.DryRun}); err != nil {
		r.record(Step{Name: "readme", File: readmePath, Status: StatusFailed, Detail: err.Error()})
		return r.report, err
	}
	r.record(r.commit(Step{Name: "readme", File: readmePath, Status: StatusUpdated}, readmeCommitMessage))

	if cfg.Targets.Manifest && hasManifest {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		r.augmentManifest(pkgPath)
	}

	for _, t := range r.templateTargets() {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		r.reconcile(t)
	}

	if cfg.Targets.Funding {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		r.applyFunding()
	}
	return r.report, nil
}

// FindReadme returns the README in root, preferring README.md.
func FindReadme(root string) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), ReadmePattern)
	if err != nil {
		return "", fmt.Errorf("failed to search for README: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s: %w", ErrNoReadme, root, fs.ErrNotExist)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return readmeRank(matches[i]) < readmeRank(matches[j])
	})
	return filepath.Join(root, matches[0]), nil
}

func readmeRank(name string) string {
	if name == "README.md" {
		return "0"
	}
	return "1" + name
}

// inspectManifest stops the run when the manifest already declares a
// collective. A missing or unreadable manifest only disables the manifest step.
func (r *runner) inspectManifest(pkgPath string) (manifest.State, bool, error) {
	state, err := manifest.Inspect(pkgPath, r.manifestOptions())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("No package.json in project", logger.String("path", r.root))
		return state, false, nil
	case err != nil:
		logger.Warn("Cannot load the package.json of your project", logger.String("file", pkgPath), logger.Err(err))
		return state, false, nil
	case state.HasCollective:
		logger.Info("Open Collective already configured", logger.String("file", pkgPath))
		return state, true, fmt.Errorf("%w: %s declares a collective", readme.ErrAlreadyConfigured, pkgPath)
	}
	return state, true, nil
}

// resolveIdentity reads org/repo from the --repo value or the origin remote
// and picks the slug. The repository owner is required: every contributors
// link is built from it.
func (r *runner) resolveIdentity(manifestName string) (identity.Identity, error) {
	var org, repoName string
	if r.opts.RepoRef != "" {
		var err error
		if org, repoName, err = identity.SplitOrgRepo(r.opts.RepoRef); err != nil {
			return identity.Identity{}, err
		}
	} else if r.repo != nil {
		if o, n, err := r.repo.Origin(); err == nil {
			org, repoName = o, n
		} else {
			logger.Debug("No usable origin remote", logger.Err(err))
		}
	}

	id, err := identity.New(r.resolveSlug(repoName, manifestName), "")
	if err != nil {
		return identity.Identity{}, err
	}
	if org == "" {
		return identity.Identity{}, fmt.Errorf("%w: {{org}}, {{repo}} (no origin remote in %s, pass --repo org/repo)",
			placeholder.ErrMissingPlaceholder, r.root)
	}
	id.Org, id.Repo = org, repoName
	logger.Debug("Resolved collective", logger.String("slug", id.Slug), logger.String("org", id.Org), logger.String("repo", id.Repo))
	return id, nil
}

// resolveSlug picks the slug from the flag, the repository name, the
// manifest name, then the directory name.
func (r *runner) resolveSlug(repoName, manifestName string) string {
	for _, candidate := range []string{r.opts.Slug, repoName, manifestName, filepath.Base(r.root)} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func (r *runner) manifestOptions() manifest.Options {
	return manifest.Options{
		HookCommand:   r.cfg.Manifest.HookCommand,
		HookPackage:   r.cfg.Manifest.HookPackage,
		HookVersion:   r.cfg.Manifest.HookVersion,
		DefaultIndent: r.cfg.JSON.DefaultIndent,
		DryRun:        r.opts.DryRun,
	}
}

func (r *runner) augmentManifest(pkgPath string) {
	res, err := manifest.Augment(pkgPath, r.id, r.manifestOptions())
	switch {
	case err != nil:
		r.record(Step{Name: "manifest", File: pkgPath, Status: StatusFailed, Detail: err.Error()})
	case !res.Changed:
		r.record(Step{Name: "manifest", File: pkgPath, Status: StatusUnchanged, Detail: res.Reason})
	default:
		r.record(r.commit(Step{Name: "manifest", File: pkgPath, Status: StatusUpdated}, manifestCommitMessage))
	}
}

func (r *runner) templateTargets() []assets.AssetInfo {
	enabled := map[string]bool{
		"issue_template":        r.cfg.Targets.IssueTemplate,
		"pull_request_template": r.cfg.Targets.PullRequestTemplate,
		"contributing":          r.cfg.Targets.Contributing,
	}
	var out []assets.AssetInfo
	for _, kind := range []string{"issue_template", "pull_request_template", "contributing"} {
		if !enabled[kind] {
			continue
		}
		for _, a := range assets.Registry {
			if a.Kind == kind {
				out = append(out, a)
			}
		}
	}
	return out
}

func (r *runner) reconcile(a assets.AssetInfo) {
	target := filepath.Join(r.root, filepath.FromSlash(a.Target))
	res, err := templates.Reconcile(target, r.id, templates.Options{DryRun: r.opts.DryRun})
	if err != nil {
		logger.Warn("Unable to update template", logger.String("file", target), logger.Err(err))
		r.record(Step{Name: a.Kind, File: target, Status: StatusFailed, Detail: err.Error()})
		return
	}
	step := Step{Name: a.Kind, File: target, Status: StatusUnchanged}
	if res.Changed {
		step.Status = StatusUpdated
		if res.Created {
			step.Status = StatusCreated
		}
		step = r.commit(step, fmt.Sprintf("%s %s (optional)", res.Verb(), a.Target))
	}
	r.record(step)
}

func (r *runner) applyFunding() {
	target := filepath.Join(r.root, filepath.FromSlash(funding.RelPath))
	res, err := funding.Apply(target, r.id, r.opts.DryRun)
	if err != nil {
		logger.Warn("Unable to update FUNDING.yml", logger.String("file", target), logger.Err(err))
		r.record(Step{Name: "funding", File: target, Status: StatusFailed, Detail: err.Error()})
		return
	}
	step := Step{Name: "funding", File: target, Status: StatusUnchanged}
	if res.Changed {
		verb := "Updated"
		step.Status = StatusUpdated
		if res.Created {
			verb = "Added"
			step.Status = StatusCreated
		}
		step = r.commit(step, fmt.Sprintf("%s %s (optional)", verb, funding.RelPath))
	}
	r.record(step)
}

// commit records the step's file in git when committing is enabled. A failed
// commit is reported in the step detail and does not stop the run.
func (r *runner) commit(step Step, message string) Step {
	if !r.cfg.Git.Commit || r.opts.DryRun || r.repo == nil {
		return step
	}
	author := gitctx.Author{Name: r.cfg.Git.AuthorName, Email: r.cfg.Git.AuthorEmail}
	committed, err := r.repo.Commit([]string{step.File}, message, author)
	if err != nil {
		logger.Warn("Unable to commit change", logger.String("file", step.File), logger.Err(err))
		step.Detail = strings.TrimSpace(step.Detail + " commit failed: " + err.Error())
		return step
	}
	step.Committed = committed
	return step
}

func (r *runner) record(step Step) {
	if rel, err := filepath.Rel(r.root, step.File); err == nil {
		step.File = filepath.ToSlash(rel)
	}
	r.report.Steps = append(r.report.Steps, step)
}
