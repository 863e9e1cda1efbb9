package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "PRECINCT_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "modules", "hrm")
	requireMkdirAll(t, sub)

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(sub))

	_ = os.Unsetenv("PRECINCT_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("PRECINCT_TEST_ENV_LOAD"))
}

func TestConfiguration_ValidateDefaults(t *testing.T) {
	c := &Configuration{}
	require.NoError(t, env.ParseWithOptions(c, env.Options{Environment: map[string]string{}}))
	require.NoError(t, c.Validate())

	assert.Equal(t, StoragePostgres, c.StorageBackend)
	assert.Equal(t, 70, c.Recruitment.QuestionThresholdPercent)

	rates, err := c.Incentive.Rates()
	require.NoError(t, err)
	assert.Equal(t, "1500", rates["module_completed"].String())
}

func TestConfiguration_ValidateRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"storage":   {"STORAGE_BACKEND": "sqlite"},
		"threshold": {"RECRUITMENT_QUESTION_THRESHOLD_PERCENT": "0"},
		"rate":      {"INCENTIVE_RATE_EXAM_CONDUCTED": "-5"},
		"discord":   {"DISCORD_ENABLED": "true"},
		"ratelimit": {"RATE_LIMIT_STORAGE": "redis"},
		"opsguard":  {"OPS_GUARD_ENABLED": "true"},
	}
	for name, environment := range cases {
		t.Run(name, func(t *testing.T) {
			c := &Configuration{}
			require.NoError(t, env.ParseWithOptions(c, env.Options{Environment: environment}))
			require.Error(t, c.Validate())
		})
	}
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func requireMkdirAll(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
}
