package assets

// Registry lists the onboarding templates and the project file each one
// produces. Update this when adding/removing templates.

type AssetInfo struct {
	Kind   string // readme, contributing, issue_template, pull_request_template
	Path   string // path inside GetTemplatesFS
	Target string // path relative to the repository root
}

var Registry = []AssetInfo{
	{Kind: "readme", Path: "readme/README.md", Target: "README.md"},
	{Kind: "readme", Path: "readme/README.rst", Target: "README.rst"},
	{Kind: "contributing", Path: "contributing/CONTRIBUTING.md", Target: "CONTRIBUTING.md"},
	{Kind: "issue_template", Path: "github/ISSUE_TEMPLATE.md", Target: ".github/ISSUE_TEMPLATE.md"},
	{Kind: "pull_request_template", Path: "github/PULL_REQUEST_TEMPLATE.md", Target: ".github/PULL_REQUEST_TEMPLATE.md"},
}

// Lookup returns the registry entry whose Target matches target.
func Lookup(target string) (AssetInfo, bool) {
	for _, a := range Registry {
		if a.Target == target {
			return a, true
		}
	}
	return AssetInfo{}, false
}
