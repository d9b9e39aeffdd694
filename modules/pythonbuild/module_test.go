package pythonbuild_test

import (
	. "github.com/wheelforge/wheelforge/modules/pythonbuild"

	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelforge/wheelforge/internal/config"
	"github.com/wheelforge/wheelforge/internal/matrix"
	"github.com/wheelforge/wheelforge/internal/runtime"
	"github.com/wheelforge/wheelforge/internal/secrets"
	"github.com/wheelforge/wheelforge/internal/shellexec"
	"github.com/wheelforge/wheelforge/internal/testutil"
)

func stepContext(t *testing.T, runner *testutil.FakeRunner) *runtime.StepContext {
	t.Helper()
	return &runtime.StepContext{
		Pipeline: &config.Pipeline{Name: "release", Package: "mylib"},
		Leg:      &matrix.Leg{Job: &config.Job{Name: "Build"}, ID: "Build"},
		Workdir:  t.TempDir(),
		Exec:     runner,
		Secrets:  secrets.Empty(),
		Masker:   secrets.NewMasker(secrets.Empty()),
	}
}

func writeDist(t *testing.T, workdir string, names ...string) {
	t.Helper()
	dir := filepath.Join(workdir, "dist")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("fake"), 0o644))
	}
}

func TestBuildProducesArtifacts(t *testing.T) {
	runner := testutil.NewFakeRunner()
	sc := stepContext(t, runner)
	runner.StubPrefix("python setup.py", func(cmd shellexec.Command) (*shellexec.Result, error) {
		writeDist(t, sc.Workdir,
			"mylib-1.2.0-cp39-cp39-win_amd64.whl",
			"mylib-1.2.0.tar.gz",
		)
		return &shellexec.Result{ExitCode: 0}, nil
	})

	out, err := OnRunPythonBuild(context.Background(), sc, &Input{})
	require.NoError(t, err)
	require.Len(t, out.Artifacts, 2)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"python", "setup.py", "sdist", "bdist_wheel"}, calls[0].Argv)
	assert.Equal(t, sc.Workdir, calls[0].Dir)
}

func TestBuildCustomInterpreter(t *testing.T) {
	runner := testutil.NewFakeRunner()
	sc := stepContext(t, runner)
	runner.StubPrefix("python3.11 setup.py", func(cmd shellexec.Command) (*shellexec.Result, error) {
		writeDist(t, sc.Workdir, "mylib-1.2.0.tar.gz")
		return &shellexec.Result{ExitCode: 0}, nil
	})

	_, err := OnRunPythonBuild(context.Background(), sc, &Input{Python: "python3.11"})
	require.NoError(t, err)
	assert.Equal(t, "python3.11", runner.Calls()[0].Argv[0])
}

func TestBuildEmptyDistDirFails(t *testing.T) {
	runner := testutil.NewFakeRunner()
	sc := stepContext(t, runner)

	_, err := OnRunPythonBuild(context.Background(), sc, &Input{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains no distributions")
}

func TestBuildToolFailure(t *testing.T) {
	runner := testutil.NewFakeRunner()
	runner.FailPrefix("python setup.py", 1, "error: invalid command 'bdist_wheel'")
	sc := stepContext(t, runner)

	_, err := OnRunPythonBuild(context.Background(), sc, &Input{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "building distributions")
}
