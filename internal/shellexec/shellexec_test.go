package shellexec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelforge/wheelforge/internal/config"
	"github.com/wheelforge/wheelforge/internal/secrets"
)

func TestSplit(t *testing.T) {
	argv, err := Split("python -m pip install --upgrade pip numpy")
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "-m", "pip", "install", "--upgrade", "pip", "numpy"}, argv)

	argv, err = Split(`twine upload -r pypi "dist/my lib.whl"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"twine", "upload", "-r", "pypi", "dist/my lib.whl"}, argv)

	_, err = Split("")
	assert.Error(t, err)

	_, err = Split(`unterminated "quote`)
	assert.Error(t, err)
}

func TestShellCommand(t *testing.T) {
	assert.Equal(t, []string{"sh", "-c", "pip wheel . && ls wheelhouse/*"},
		ShellCommand("pip wheel . && ls wheelhouse/*"))
}

func TestContainerRunnerWrap(t *testing.T) {
	c := &ContainerRunner{
		Image:   "quay.io/pypa/manylinux2014_x86_64",
		Workdir: "/checkout",
	}
	wrapped := c.Wrap(Command{
		Argv: []string{"pip", "wheel", ".", "-w", "wheelhouse/"},
		Env:  []string{"PIP_NO_CACHE_DIR=1"},
	})
	assert.Equal(t, []string{
		"docker", "run", "--rm",
		"-v", "/checkout:/io",
		"-w", "/io",
		"-e", "PIP_NO_CACHE_DIR=1",
		"quay.io/pypa/manylinux2014_x86_64",
		"pip", "wheel", ".", "-w", "wheelhouse/",
	}, wrapped.Argv)
	assert.Equal(t, "/checkout", wrapped.Dir)
}

func TestOSRunnerSuccess(t *testing.T) {
	r := NewOSRunner(secrets.NewMasker(secrets.Empty()))
	result, err := r.Run(context.Background(), Command{Argv: []string{"sh", "-c", "echo hello"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello", result.Output)
}

func TestOSRunnerExitError(t *testing.T) {
	r := NewOSRunner(secrets.NewMasker(secrets.Empty()))
	result, err := r.Run(context.Background(), Command{Argv: []string{"sh", "-c", "echo boom; exit 3"}})
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Output, "boom")
}

func TestOSRunnerMasksOutput(t *testing.T) {
	t.Setenv("WF_TEST_SECRET", "tops3cret")
	store, err := secrets.Resolve([]*config.Secret{{Name: "s", Env: "WF_TEST_SECRET"}})
	require.NoError(t, err)

	r := NewOSRunner(secrets.NewMasker(store))
	result, err := r.Run(context.Background(), Command{Argv: []string{"sh", "-c", "echo password=tops3cret"}})
	require.NoError(t, err)
	assert.Equal(t, "password=***", result.Output)
}
