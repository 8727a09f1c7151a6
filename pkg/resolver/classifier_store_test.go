package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirClassifierStore(t *testing.T) {
	t.Run("loads models and derives frequencies from training files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "paris.txt"),
			[]byte("a\nb\nc\n"), 0666))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cairo.txt"),
			[]byte("a\n\n\n"), 0666))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "paris.mxm"),
			[]byte("model"), 0666))

		loader := func(path string) (ContextClassifier, error) {
			return stubClassifier{probs: []float64{1.0}}, nil
		}
		store, err := NewDirClassifierStore(nil, dir, loader)
		require.NoError(t, err)

		assert.NotNil(t, store.Classifier("Paris"))
		assert.Nil(t, store.Classifier("Cairo"))

		// blank training lines do not count
		assert.InDelta(t, 0.75, store.Frequency("Paris"), 1e-9)
		assert.InDelta(t, 0.25, store.Frequency("Cairo"), 1e-9)
		assert.Equal(t, 0.0, store.Frequency("Atlantis"))
	})

	t.Run("an unloadable model is skipped, not fatal", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "paris.mxm"),
			[]byte("garbage"), 0666))

		loader := func(path string) (ContextClassifier, error) {
			return nil, errors.New("corrupt model")
		}
		store, err := NewDirClassifierStore(nil, dir, loader)
		require.NoError(t, err)
		assert.Nil(t, store.Classifier("Paris"))
	})

	t.Run("missing directory is an error", func(t *testing.T) {
		_, err := NewDirClassifierStore(nil, filepath.Join(t.TempDir(), "nope"), nil)
		assert.Error(t, err)
	})
}
