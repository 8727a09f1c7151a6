package resolver

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

const (
	modelFileExt    = ".mxm"
	trainingFileExt = ".txt"
)

// ContextClassifier scores a toponym's candidates from local-context
// features, returning one probability per candidate index. Models are
// trained by an external classifier library; this package only consumes
// them.
type ContextClassifier interface {
	Eval(features []string) []float64
}

// ClassifierLoader turns a model file into a ContextClassifier. It is
// injected by the caller since the classifier library is an external
// collaborator.
type ClassifierLoader func(path string) (ContextClassifier, error)

// ClassifierStore provides the per-toponym-type local-context classifiers
// and the corpus frequency of each type.
type ClassifierStore interface {
	// Classifier returns the model for the toponym surface form, or nil if
	// none was trained.
	Classifier(form string) ContextClassifier
	// Frequency returns the type's empirical corpus frequency among toponym
	// tokens, derived from training-set sizes.
	Frequency(form string) float64
}

// DirClassifierStore reads a directory holding one `<sanitized>.mxm` model
// and one matching `<sanitized>.txt` training file per toponym type. The
// training files are used only to count training instances per type.
type DirClassifierStore struct {
	models map[string]ContextClassifier
	counts map[string]int
	total  int
}

func NewDirClassifierStore(log *zap.Logger, dir string, loader ClassifierLoader) (*DirClassifierStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	store := &DirClassifierStore{
		models: make(map[string]ContextClassifier),
		counts: make(map[string]int),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)
		switch filepath.Ext(name) {
		case trainingFileExt:
			count, err := countLines(path)
			if err != nil {
				return nil, err
			}
			form := strings.TrimSuffix(name, trainingFileExt)
			store.counts[form] = count
			store.total += count
		case modelFileExt:
			if loader == nil {
				continue
			}
			form := strings.TrimSuffix(name, modelFileExt)
			model, err := loader(path)
			if err != nil {
				// A model that fails to load is missing evidence, not a
				// fatal condition; the type falls back to document-level
				// components.
				log.Warn("skipping unloadable context classifier",
					zap.String("path", path), zap.Error(err))
				continue
			}
			store.models[form] = model
		}
	}

	return store, nil
}

func (s *DirClassifierStore) Classifier(form string) ContextClassifier {
	return s.models[SanitizeForm(form)]
}

func (s *DirClassifierStore) Frequency(form string) float64 {
	if s.total == 0 {
		return 0
	}
	return float64(s.counts[SanitizeForm(form)]) / float64(s.total)
}

// SanitizeForm maps a toponym surface form to the file base name used for
// its model and training files: lowercased, with every non-alphanumeric rune
// replaced by an underscore.
func SanitizeForm(form string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(form) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func countLines(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(strings.TrimSpace(scanner.Text())) > 0 {
			count++
		}
	}
	return count, scanner.Err()
}
