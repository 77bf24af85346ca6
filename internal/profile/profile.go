// Package profile defines the named build configurations the orchestrator
// can compile under.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownProfile is returned when a requested configuration name is not
// registered.
var ErrUnknownProfile = errors.New("unknown build profile")

// Profile is an immutable named set of compiler and linker flags.
type Profile struct {
	Name    string
	CFlags  []string
	LDFlags []string
}

var registry = map[string]Profile{
	"debug": {
		Name:    "debug",
		CFlags:  []string{"-Wall", "-Wextra", "-g", "-O0", "-DDEBUG=1"},
		LDFlags: []string{"-lm", "-pthread"},
	},
	"release": {
		Name:    "release",
		CFlags:  []string{"-Wall", "-Wextra", "-O3", "-DNDEBUG"},
		LDFlags: []string{"-lm", "-pthread", "-flto"},
	},
	"profile": {
		Name:    "profile",
		CFlags:  []string{"-Wall", "-Wextra", "-g", "-O2", "-pg"},
		LDFlags: []string{"-lm", "-pthread", "-pg"},
	},
}

// Lookup resolves a configuration name to its Profile.
func Lookup(name string) (Profile, error) {
	p, ok := registry[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownProfile, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names returns the registered profile names in lexicographic order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
