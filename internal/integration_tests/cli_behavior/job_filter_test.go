package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelforge/wheelforge/internal/testutil"
)

const twoJobHCL = `
	pipeline "p" {}

	job "Build" {
		step "script" "build" {
			arguments {
				command = "python setup.py bdist_wheel"
			}
		}
	}

	job "Publish" {
		depends_on = ["Build"]

		step "script" "publish" {
			arguments {
				command = "twine upload dist/*"
			}
		}
	}
`

// -job restricts the run to one job.
func TestJobFilterRunsOnlySelectedJob(t *testing.T) {
	runner := testutil.NewFakeRunner()
	result := testutil.RunPipelineTest(t, twoJobHCL, runner, testutil.HarnessOptions{Job: "Build"})
	require.NoError(t, result.Err)

	assert.Equal(t, []string{"python setup.py bdist_wheel"}, runner.CommandLines())
}

// A filtered job drops its cross-job dependencies so it stays independently
// triggerable, with a warning.
func TestJobFilterDropsCrossJobDependency(t *testing.T) {
	runner := testutil.NewFakeRunner()
	result := testutil.RunPipelineTest(t, twoJobHCL, runner, testutil.HarnessOptions{Job: "Publish"})
	require.NoError(t, result.Err)

	assert.Equal(t, []string{"twine upload dist/*"}, runner.CommandLines())
	assert.Contains(t, result.LogOutput, "Dropping dependency on unselected job.")
}

func TestUnknownJobFilterFails(t *testing.T) {
	runner := testutil.NewFakeRunner()
	result := testutil.RunPipelineTest(t, twoJobHCL, runner, testutil.HarnessOptions{Job: "Nope"})
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "unknown job 'Nope'")
	assert.Empty(t, runner.Calls())
}
