// Package environ holds the environment variable sets handed to child processes.
//
// An Environ is never modified in place. Every operation returns a new value, so an
// environment built for one command cannot leak into the next.
package environ

import (
	"os"
	"sort"
	"strings"
)

type Environ struct {
	vars map[string]string
}

// New copies vars into a new Environ.
func New(vars map[string]string) Environ {
	e := Environ{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		e.vars[k] = v
	}
	return e
}

// FromSlice parses KEY=VALUE entries. Entries without '=' are skipped.
func FromSlice(entries []string) Environ {
	e := Environ{vars: make(map[string]string, len(entries))}
	for _, kv := range entries {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		e.vars[key] = value
	}
	return e
}

// FromOS snapshots the current process environment.
func FromOS() Environ {
	return FromSlice(os.Environ())
}

func (e Environ) Get(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

func (e Environ) Len() int {
	return len(e.vars)
}

// Merge returns e plus vars. Keys already present in e keep their value unless overwrite is set.
func (e Environ) Merge(vars map[string]string, overwrite bool) Environ {
	out := New(e.vars)
	for k, v := range vars {
		if _, exists := out.vars[k]; exists && !overwrite {
			continue
		}
		out.vars[k] = v
	}
	return out
}

// MergeEnviron is Merge with another Environ as the source.
func (e Environ) MergeEnviron(other Environ, overwrite bool) Environ {
	return e.Merge(other.vars, overwrite)
}

// With returns a copy of e with key set to value.
func (e Environ) With(key string, value string) Environ {
	out := New(e.vars)
	out.vars[key] = value
	return out
}

// Without returns a copy of e with keys removed.
func (e Environ) Without(keys ...string) Environ {
	out := New(e.vars)
	for _, k := range keys {
		delete(out.vars, k)
	}
	return out
}

// Keys returns the variable names in sorted order.
func (e Environ) Keys() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Slice renders the environment as sorted KEY=VALUE entries, ready for exec.Cmd.Env.
func (e Environ) Slice() []string {
	keys := e.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + "=" + e.vars[k]
	}
	return out
}

// Map returns a copy of the variables.
func (e Environ) Map() map[string]string {
	return New(e.vars).vars
}
