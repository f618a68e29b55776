package manifest

import "strings"

// Step is one command in a lifecycle hook.
type Step struct {
	Command string
	// FailureTolerant steps never fail the hook as a whole.
	FailureTolerant bool
}

// HookChain is an ordered list of steps run one after another; a failing
// step that is not failure-tolerant stops the chain.
type HookChain []Step

// ExistingHook wraps a hook command already present in a manifest. Its text
// is kept verbatim as a single step.
func ExistingHook(command string) HookChain {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	return HookChain{{Command: command}}
}

// Contains reports whether any step mentions command.
func (c HookChain) Contains(command string) bool {
	for _, s := range c {
		if strings.Contains(s.Command, command) {
			return true
		}
	}
	return false
}

// AppendTolerant returns a new chain with command appended as a
// failure-tolerant step.
func (c HookChain) AppendTolerant(command string) HookChain {
	out := make(HookChain, 0, len(c)+1)
	out = append(out, c...)
	return append(out, Step{Command: command, FailureTolerant: true})
}

// String renders the chain as a shell command line.
func (c HookChain) String() string {
	if len(c) == 1 && c[0].FailureTolerant {
		return c[0].Command + " || true"
	}
	parts := make([]string, len(c))
	for i, s := range c {
		if s.FailureTolerant {
			parts[i] = "(" + s.Command + " || true)"
		} else {
			parts[i] = s.Command
		}
	}
	return strings.Join(parts, " && ")
}
