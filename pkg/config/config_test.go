package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestNew(t *testing.T) {
	t.Run("reads config.yaml from the working directory", func(t *testing.T) {
		dir := t.TempDir()
		yaml := `corpus_db: corpora.db
corpus: dev
resolver: prob
pop_coefficient: 0.4
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0666))
		chdir(t, dir)

		cfg, err := New()
		require.NoError(t, err)
		assert.Equal(t, "corpora.db", cfg.CorpusDB)
		assert.Equal(t, "prob", cfg.Resolver)
		assert.Equal(t, 0.4, cfg.PopCoefficient)
		// defaults
		assert.Equal(t, 10, cfg.Iterations)
		assert.Equal(t, "no", cfg.DocCoordMode)
	})

	t.Run("missing required fields fail validation", func(t *testing.T) {
		chdir(t, t.TempDir())

		_, err := New()
		assert.Error(t, err)
	})

	t.Run("unknown resolver fails validation", func(t *testing.T) {
		dir := t.TempDir()
		yaml := `corpus_db: corpora.db
corpus: dev
resolver: astrology
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0666))
		chdir(t, dir)

		_, err := New()
		assert.Error(t, err)
	})
}
