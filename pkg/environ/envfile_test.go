package environ

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sungazer-io/swarm-cli/pkg/errors"
)

func writeEnvFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeEnvFile(t, dir, "env", `# comment
FOO=bar
GREETING="hello world"
COMBINED=${FOO}-baz
MULTI="line one
line two"
`)

	vars, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "bar", vars["FOO"])
	require.Equal(t, "hello world", vars["GREETING"])
	require.Equal(t, "bar-baz", vars["COMBINED"])
	require.Equal(t, "line one\nline two", vars["MULTI"])
	require.NotContains(t, vars, "PWD")
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.True(t, errors.IsMissingConfigFile(err))
}

func TestReadFileDoesNotSeeProcessEnvironment(t *testing.T) {
	t.Setenv("SWARM_CLI_TEST_OUTER", "outer")
	path := writeEnvFile(t, t.TempDir(), "env", "INNER=${SWARM_CLI_TEST_OUTER:-unset}\n")

	vars, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "unset", vars["INNER"])
	require.NotContains(t, vars, "SWARM_CLI_TEST_OUTER")
}

func TestLoadFilesNeverOverwritesByDefault(t *testing.T) {
	dir := t.TempDir()
	secrets := writeEnvFile(t, dir, "secrets", "PASSWORD=from-secrets\nFOO=from-secrets\n")
	env := writeEnvFile(t, dir, "env", "FOO=from-env\nBAR=from-env\n")

	base := New(map[string]string{"BAR": "from-process"})
	out, err := LoadFiles(context.Background(), base, []string{secrets, env}, false, false)
	require.NoError(t, err)

	v, _ := out.Get("FOO")
	require.Equal(t, "from-secrets", v)
	v, _ = out.Get("BAR")
	require.Equal(t, "from-process", v)
	v, _ = out.Get("PASSWORD")
	require.Equal(t, "from-secrets", v)
}

func TestLoadFilesOverwrite(t *testing.T) {
	path := writeEnvFile(t, t.TempDir(), "env", "FOO=file\n")
	out, err := LoadFiles(context.Background(), New(map[string]string{"FOO": "process"}), []string{path}, false, true)
	require.NoError(t, err)
	v, _ := out.Get("FOO")
	require.Equal(t, "file", v)
}

func TestLoadFilesMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	_, err := LoadFiles(context.Background(), Environ{}, []string{missing}, false, false)
	require.True(t, errors.IsMissingConfigFile(err))

	out, err := LoadFiles(context.Background(), Environ{}, []string{missing}, true, false)
	require.NoError(t, err)
	require.Equal(t, 0, out.Len())
}

func TestParseEnvOutput(t *testing.T) {
	vars := parseEnvOutput("PWD=/tmp\nA=1\nB=first\nsecond\nSHLVL=1\n")
	require.Equal(t, map[string]string{"A": "1", "B": "first\nsecond"}, vars)
}
