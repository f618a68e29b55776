// Package manifest adds the collective declaration, the postinstall hook and
// the hook's dependency to a project's package.json.
package manifest

import (
	"errors"
	"fmt"

	"github.com/fulmenhq/ocsetup/pkg/identity"
	"github.com/fulmenhq/ocsetup/pkg/jsonfile"
	"github.com/fulmenhq/ocsetup/pkg/logger"
)

// FileName is the manifest file name inside a project.
const FileName = "package.json"

// ErrNoManifest is returned when the manifest is missing or malformed. It
// wraps the underlying fs.ErrNotExist or jsonfile.ErrParse.
var ErrNoManifest = errors.New("no manifest")

// Options tune the hook that is installed.
type Options struct {
	HookCommand   string
	HookPackage   string
	HookVersion   string
	DefaultIndent string
	DryRun        bool
}

// DefaultOptions returns the Open Collective postinstall settings.
func DefaultOptions() Options {
	return Options{
		HookCommand:   "opencollective-postinstall",
		HookPackage:   "opencollective-postinstall",
		HookVersion:   "^2.0.2",
		DefaultIndent: jsonfile.DefaultIndent,
	}
}

// Result describes what Augment did.
type Result struct {
	Changed bool
	Reason  string
}

// State summarizes what a manifest already declares.
type State struct {
	Name          string
	HasCollective bool
	HasHook       bool
}

// Inspect reads the manifest at path without modifying it.
func Inspect(path string, opts Options) (State, error) {
	pkg, err := load(path)
	if err != nil {
		return State{}, err
	}
	var st State
	if name, ok := pkg.Get("name"); ok {
		st.Name, _ = name.(string)
	}
	if c, ok := pkg.Get("collective"); ok {
		if obj, ok := c.(*jsonfile.Object); ok {
			url, _ := obj.Get("url")
			st.HasCollective = url != nil && url != ""
		}
	}
	scripts, err := objectField(pkg, "scripts")
	if err != nil {
		return State{}, err
	}
	if scripts != nil {
		hook, err := stringField(scripts, "postinstall")
		if err != nil {
			return State{}, err
		}
		st.HasHook = ExistingHook(hook).Contains(opts.HookCommand)
	}
	return st, nil
}

// Augment declares the collective in the manifest at path and wires the
// postinstall hook. A manifest whose postinstall already mentions the hook
// is left untouched.
func Augment(path string, id identity.Identity, opts Options) (Result, error) {
	pkg, err := load(path)
	if err != nil {
		logger.Warn("Cannot load the package.json of your project", logger.String("file", path), logger.Err(err))
		return Result{}, err
	}

	scripts, err := objectField(pkg, "scripts")
	if err != nil {
		return Result{}, err
	}
	var existing string
	if scripts != nil {
		if existing, err = stringField(scripts, "postinstall"); err != nil {
			return Result{}, err
		}
	}
	chain := ExistingHook(existing)
	if chain.Contains(opts.HookCommand) {
		logger.Debug("Open Collective postinstall already configured", logger.String("file", path))
		return Result{Changed: false, Reason: "postinstall hook already configured"}, nil
	}

	collective, err := objectField(pkg, "collective")
	if err != nil {
		return Result{}, err
	}
	if collective == nil {
		collective = jsonfile.NewObject()
	}
	collective.Set("type", identity.PlatformName)
	collective.Set("url", id.URL())
	pkg.Set("collective", collective)

	if scripts == nil {
		scripts = jsonfile.NewObject()
	}
	scripts.Set("postinstall", chain.AppendTolerant(opts.HookCommand).String())
	pkg.Set("scripts", scripts)

	deps, err := objectField(pkg, "dependencies")
	if err != nil {
		return Result{}, err
	}
	if deps == nil {
		deps = jsonfile.NewObject()
	}
	if _, ok := deps.Get(opts.HookPackage); !ok {
		deps.Set(opts.HookPackage, opts.HookVersion)
	}
	pkg.Set("dependencies", deps)

	logger.Info("Updating your package.json", logger.String("file", path), logger.String("collective", id.URL()))
	if opts.DryRun {
		return Result{Changed: true, Reason: "dry run"}, nil
	}
	if err := (jsonfile.Writer{DefaultIndent: opts.DefaultIndent}).Write(path, pkg); err != nil {
		return Result{}, err
	}
	return Result{Changed: true}, nil
}

func load(path string) (*jsonfile.Object, error) {
	pkg, err := jsonfile.ReadObject(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoManifest, err)
	}
	return pkg, nil
}

// objectField returns obj[key] as an object, nil when absent.
func objectField(obj *jsonfile.Object, key string) (*jsonfile.Object, error) {
	v, ok := obj.Get(key)
	if !ok || v == nil {
		return nil, nil
	}
	child, ok := v.(*jsonfile.Object)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, not an object", ErrNoManifest, key, v)
	}
	return child, nil
}

func stringField(obj *jsonfile.Object, key string) (string, error) {
	v, ok := obj.Get(key)
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T, not a string", ErrNoManifest, key, v)
	}
	return s, nil
}
