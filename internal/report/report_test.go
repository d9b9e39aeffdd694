package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRecorderFinishOverallStatus(t *testing.T) {
	t.Run("all succeeded", func(t *testing.T) {
		rec := NewRecorder("p")
		rec.AddLeg(&LegReport{Leg: "A", Status: StatusSucceeded})
		rec.AddLeg(&LegReport{Leg: "B", Status: StatusSucceeded})

		rep := rec.Finish()
		assert.Equal(t, StatusSucceeded, rep.Status)
		assert.False(t, rep.FinishedAt.IsZero())
	})

	t.Run("one failed", func(t *testing.T) {
		rec := NewRecorder("p")
		rec.AddLeg(&LegReport{Leg: "A", Status: StatusSucceeded})
		rec.AddLeg(&LegReport{Leg: "B", Status: StatusFailed})

		assert.Equal(t, StatusFailed, rec.Finish().Status)
	})

	t.Run("skipped counts as not succeeded", func(t *testing.T) {
		rec := NewRecorder("p")
		rec.AddLeg(&LegReport{Leg: "A", Status: StatusSkipped})

		assert.Equal(t, StatusFailed, rec.Finish().Status)
	})
}

func TestRecorderRunIDsUnique(t *testing.T) {
	a := NewRecorder("p")
	b := NewRecorder("p")
	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestReportWriteFile(t *testing.T) {
	rec := NewRecorder("wheel-release")
	rec.AddLeg(&LegReport{
		Job:    "Build",
		Leg:    "Build/v=3.9",
		Pool:   "windows-2022",
		Vars:   map[string]string{"v": "3.9"},
		Status: StatusSucceeded,
		Steps: []*StepReport{{
			Name:     "install",
			Runner:   "script",
			Status:   StatusSucceeded,
			Commands: []string{"python -m pip install numpy"},
		}},
	})
	rep := rec.Finish()

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, rep.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, rep.RunID, decoded.RunID)
	assert.Equal(t, "wheel-release", decoded.Pipeline)
	require.Len(t, decoded.Legs, 1)
	assert.Equal(t, "Build/v=3.9", decoded.Legs[0].Leg)
	require.Len(t, decoded.Legs[0].Steps, 1)
	assert.Equal(t, []string{"python -m pip install numpy"}, decoded.Legs[0].Steps[0].Commands)
}
