package twine_test

import (
	. "github.com/wheelforge/wheelforge/modules/twine"

	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
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

func stepContext(t *testing.T, runner shellexec.Runner) *runtime.StepContext {
	t.Helper()
	return &runtime.StepContext{
		Pipeline: &config.Pipeline{Name: "release", Package: "mylib"},
		Leg:      &matrix.Leg{Job: &config.Job{Name: "Publish"}, ID: "Publish"},
		Workdir:  t.TempDir(),
		Exec:     runner,
		Secrets:  secrets.Empty(),
		Masker:   secrets.NewMasker(secrets.Empty()),
	}
}

func writeArtifact(t *testing.T, workdir, relPath string) {
	t.Helper()
	path := filepath.Join(workdir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("fake"), 0o644))
}

func TestUploadCommandLine(t *testing.T) {
	runner := testutil.NewFakeRunner()
	sc := stepContext(t, runner)
	writeArtifact(t, sc.Workdir, "dist/mylib-1.2.0-cp39-cp39-win_amd64.whl")
	writeArtifact(t, sc.Workdir, "dist/mylib-1.2.0.tar.gz")

	out, err := OnRunTwine(context.Background(), sc, &Input{
		User:     "u",
		Password: "s3cret",
		DistGlob: "dist/*",
	})
	require.NoError(t, err)
	assert.False(t, out.Skipped)
	assert.Equal(t, []string{
		"dist/mylib-1.2.0-cp39-cp39-win_amd64.whl",
		"dist/mylib-1.2.0.tar.gz",
	}, out.Uploaded)

	lines := runner.CommandLines()
	require.Len(t, lines, 1)
	assert.Equal(t, "twine upload -r pypi -u u -p s3cret --skip-existing --disable-progress-bar "+
		"dist/mylib-1.2.0-cp39-cp39-win_amd64.whl dist/mylib-1.2.0.tar.gz", lines[0])
}

func TestUploadCustomRepository(t *testing.T) {
	runner := testutil.NewFakeRunner()
	sc := stepContext(t, runner)
	writeArtifact(t, sc.Workdir, "dist/mylib-1.2.0.tar.gz")

	_, err := OnRunTwine(context.Background(), sc, &Input{
		Repository: "testpypi",
		User:       "u",
		Password:   "p",
		DistGlob:   "dist/*",
	})
	require.NoError(t, err)
	assert.Contains(t, runner.CommandLines()[0], "-r testpypi")
}

func TestUploadNoMatchingArtifacts(t *testing.T) {
	runner := testutil.NewFakeRunner()
	sc := stepContext(t, runner)

	_, err := OnRunTwine(context.Background(), sc, &Input{
		User: "u", Password: "p", DistGlob: "dist/*",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no artifacts match")
	assert.Empty(t, runner.Calls())
}

func TestUploadAlreadyExistsIsSuccess(t *testing.T) {
	runner := testutil.NewFakeRunner()
	runner.FailPrefix("twine upload", 1,
		"HTTPError: 400 Bad Request: File already exists. See https://pypi.org/help/#file-name-reuse")
	sc := stepContext(t, runner)
	writeArtifact(t, sc.Workdir, "dist/mylib-1.2.0.tar.gz")

	out, err := OnRunTwine(context.Background(), sc, &Input{
		User: "u", Password: "p", DistGlob: "dist/*",
	})
	require.NoError(t, err)
	assert.False(t, out.Skipped)
	// The duplicate rejection is terminal; no retries happen.
	assert.Len(t, runner.Calls(), 1)
}

func TestUploadRetriesTransientFailure(t *testing.T) {
	runner := testutil.NewFakeRunner()
	attempts := 0
	runner.StubPrefix("twine upload", func(cmd shellexec.Command) (*shellexec.Result, error) {
		attempts++
		if attempts < 3 {
			result := &shellexec.Result{ExitCode: 1, Output: "ConnectionError: connection reset"}
			return result, &shellexec.ExitError{Argv: cmd.Argv, ExitCode: 1, Output: result.Output}
		}
		return &shellexec.Result{ExitCode: 0}, nil
	})
	sc := stepContext(t, runner)
	writeArtifact(t, sc.Workdir, "dist/mylib-1.2.0.tar.gz")

	_, err := OnRunTwine(context.Background(), sc, &Input{
		User: "u", Password: "p", DistGlob: "dist/*", Retries: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestUploadExhaustsRetries(t *testing.T) {
	runner := testutil.NewFakeRunner()
	runner.FailPrefix("twine upload", 1, "ConnectionError: connection reset")
	sc := stepContext(t, runner)
	writeArtifact(t, sc.Workdir, "dist/mylib-1.2.0.tar.gz")

	_, err := OnRunTwine(context.Background(), sc, &Input{
		User: "u", Password: "p", DistGlob: "dist/*", Retries: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload failed after 2 attempt(s)")
	assert.Len(t, runner.Calls(), 2)
}

func TestIndexPrecheckSkipsPublishedVersions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mylib/1.2.0/json", r.URL.Path)
		fmt.Fprint(w, `{"info": {"version": "1.2.0"}}`)
	}))
	defer server.Close()

	runner := testutil.NewFakeRunner()
	sc := stepContext(t, runner)
	writeArtifact(t, sc.Workdir, "dist/mylib-1.2.0-cp39-cp39-win_amd64.whl")

	out, err := OnRunTwine(context.Background(), sc, &Input{
		User: "u", Password: "p", DistGlob: "dist/*", IndexAPI: server.URL,
	})
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Empty(t, runner.Calls())
}

func TestIndexPrecheckMissingVersionUploads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	runner := testutil.NewFakeRunner()
	sc := stepContext(t, runner)
	writeArtifact(t, sc.Workdir, "dist/mylib-1.2.0.tar.gz")

	out, err := OnRunTwine(context.Background(), sc, &Input{
		User: "u", Password: "p", DistGlob: "dist/*", IndexAPI: server.URL,
	})
	require.NoError(t, err)
	assert.False(t, out.Skipped)
	assert.Len(t, runner.Calls(), 1)
}

func TestIndexPrecheckErrorStillUploads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	runner := testutil.NewFakeRunner()
	sc := stepContext(t, runner)
	writeArtifact(t, sc.Workdir, "dist/mylib-1.2.0.tar.gz")

	out, err := OnRunTwine(context.Background(), sc, &Input{
		User: "u", Password: "p", DistGlob: "dist/*", IndexAPI: server.URL,
	})
	require.NoError(t, err)
	assert.False(t, out.Skipped)
	assert.Len(t, runner.Calls(), 1)
}

func TestArtifactVersions(t *testing.T) {
	versions, err := ArtifactVersions([]string{
		"dist/mylib-1.2.0-cp39-cp39-win_amd64.whl",
		"dist/mylib-1.2.0-cp310-cp310-win_amd64.whl",
		"dist/mylib-1.2.0.tar.gz",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"1.2.0": {}}, versions)

	_, err = ArtifactVersions([]string{"dist/notes.txt"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not a recognized"))
}
