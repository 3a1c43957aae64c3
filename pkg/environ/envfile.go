package environ

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sungazer-io/swarm-cli/pkg/errors"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
	"github.com/sungazer-io/swarm-cli/pkg/util/files"
	"github.com/sungazer-io/swarm-cli/pkg/util/shell"
)

// Variables sh sets on its own in an otherwise empty environment.
var shellNoise = map[string]bool{
	"PWD":   true,
	"SHLVL": true,
	"_":     true,
}

// ReadFile sources path with sh in an empty environment and returns the variables it defines.
// Files are plain shell: comments, quoting and references to earlier variables all behave as sh does.
func ReadFile(ctx context.Context, path string) (map[string]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	exists, err := files.Exists(abs)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.MissingConfigFile(path)
	}

	script := "set -a && . " + shell.Quote(abs) + " && env"
	cmd := exec.CommandContext(ctx, "env", "-i", "sh", "-c", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	console.Debugf("Loading %s", path)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("Failed to source env file %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return parseEnvOutput(stdout.String()), nil
}

// parseEnvOutput reads the output of env. A line without '=' continues the previous value,
// which is how env prints values containing newlines.
func parseEnvOutput(out string) map[string]string {
	vars := map[string]string{}
	last := ""
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok || !isName(key) {
			if last != "" {
				vars[last] += "\n" + line
			}
			continue
		}
		vars[key] = value
		last = key
	}
	for k := range shellNoise {
		delete(vars, k)
	}
	return vars
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// LoadFiles merges each env file into base in order. Existing values are kept unless overwrite is set,
// so variables already in the process environment win over file contents.
// Missing files fail unless ignoreMissing is set.
func LoadFiles(ctx context.Context, base Environ, paths []string, ignoreMissing bool, overwrite bool) (Environ, error) {
	env := base
	for _, path := range paths {
		vars, err := ReadFile(ctx, path)
		if err != nil {
			if ignoreMissing && errors.IsMissingConfigFile(err) {
				console.Debugf("Loading %s: not found", path)
				continue
			}
			return Environ{}, err
		}
		for k := range vars {
			if _, exists := env.Get(k); exists && !overwrite {
				console.Spamf("%s: keeping existing %s", path, k)
				continue
			}
			console.Spamf("%s: loaded %s", path, k)
		}
		env = env.Merge(vars, overwrite)
	}
	return env, nil
}
