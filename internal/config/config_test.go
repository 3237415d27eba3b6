package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mentor/internal/validate"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mentor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Learner)
	assert.Equal(t, "skills.yaml", cfg.Graph)
	assert.Equal(t, 5, cfg.Interview.QuestionCount)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
learner: alice
graph: curriculum.yaml
mastery:
  decay:
    half-life: 720h
    floor: 0.1
roadmap:
  unit-delta-cap: 0.5
interview:
  session-timeout: 45m
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.Learner)
	assert.Equal(t, "curriculum.yaml", cfg.Graph)
	assert.Equal(t, 720*time.Hour, cfg.Mastery.Decay.HalfLife)
	assert.Equal(t, 0.1, cfg.Mastery.Decay.Floor)
	assert.Equal(t, 0.5, cfg.Roadmap.UnitDeltaCap)
	assert.Equal(t, 45*time.Minute, cfg.Interview.SessionTimeout)

	// Keys the file does not mention keep their defaults.
	assert.Equal(t, 5, cfg.Interview.QuestionCount)
	assert.Equal(t, 0.8, cfg.Extractor.SourceConfidence.Manual)
	assert.Equal(t, 480, cfg.Roadmap.TierBaseMinutes.Advanced)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("MENTOR_LEARNER", "bob")
	t.Setenv("MENTOR_GRAPH", "/etc/mentor/skills.yaml")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Learner)
	assert.Equal(t, "/etc/mentor/skills.yaml", cfg.Graph)
}

func TestLoadRejectsOutOfRangeValues(t *testing.T) {
	path := writeConfig(t, `
interview:
  question-count: 0
`)

	_, err := Load(viper.New(), path)
	var verr *validate.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLoadRejectsEmptyLearner(t *testing.T) {
	path := writeConfig(t, "learner: \"\"\n")

	_, err := Load(viper.New(), path)
	var verr *validate.ValidationError
	require.ErrorAs(t, err, &verr)
}
