package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Pacing.TextDelay)
	assert.Equal(t, 7*time.Second, cfg.Pacing.VideoDelay)
	assert.Equal(t, "TutorialGenerator/1.0", cfg.Scraper.UserAgent)
	assert.Equal(t, 50, cfg.Scraper.MaxSnippets)
	assert.NotEmpty(t, cfg.LLM.GenerationBackends)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GENERATION_BACKENDS", " mock/a , ,gemini/gemini-2.0-flash ")
	t.Setenv("PACING_TEXT_DELAY", "250ms")
	t.Setenv("PACING_VIDEO_DELAY", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"mock/a", "gemini/gemini-2.0-flash"}, cfg.LLM.GenerationBackends)
	assert.Equal(t, 250*time.Millisecond, cfg.Pacing.TextDelay)
	assert.Equal(t, 7*time.Second, cfg.Pacing.VideoDelay)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  idea_backends: [mock/ideas]
  generation_backends: [mock/one, mock/two]
pacing:
  text_delay: 0s
  video_delay: 0s
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"mock/ideas"}, cfg.LLM.IdeaBackends)
	assert.Equal(t, []string{"mock/one", "mock/two"}, cfg.LLM.GenerationBackends)
	assert.Zero(t, cfg.Pacing.TextDelay)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, 2*time.Minute, cfg.LLM.RequestTimeout)
}

func TestLoadRejectsEmptyBackendList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  generation_backends: []\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}
