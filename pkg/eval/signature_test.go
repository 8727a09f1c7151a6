package eval

import (
	"path/filepath"
	"testing"

	"github.com/benwing/fieldspring/pkg/corpus"
	"github.com/benwing/fieldspring/pkg/topo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parisCandidates() []*topo.Location {
	return []*topo.Location{
		topo.NewPointLocation(1, "Paris", topo.NewCoordinateFromDegrees(48.85, 2.35)),   // France
		topo.NewPointLocation(2, "Paris", topo.NewCoordinateFromDegrees(33.66, -95.55)), // Texas
	}
}

// parisCorpus builds a one-document corpus around a single Paris toponym.
// goldIdx < 0 leaves the toponym without a gold label; selectedIdx < 0 leaves
// it unresolved.
func parisCorpus(goldIdx, selectedIdx int) *corpus.Corpus {
	var top *corpus.Toponym
	if goldIdx >= 0 {
		top = corpus.NewToponymWithGold("Paris", parisCandidates(), goldIdx)
	} else {
		top = corpus.NewToponym("Paris", parisCandidates())
	}
	if selectedIdx >= 0 {
		top.SetSelectedIdx(selectedIdx)
	}

	sent := corpus.NewSentence([]corpus.Token{
		corpus.NewWord("I"),
		corpus.NewWord("visited"),
		top,
		corpus.NewWord("last"),
		corpus.NewWord("summer"),
	})
	doc := corpus.NewDocument("d1", []*corpus.Sentence{sent})
	return corpus.NewCorpus(corpus.FormatTrconll, []*corpus.Document{doc})
}

func newEvaluator(t *testing.T, gold *corpus.Corpus, oracle bool) *SignatureEvaluator {
	t.Helper()
	e := NewSignatureEvaluator(gold, oracle)
	e.ErrorsPath = filepath.Join(t.TempDir(), "errors.txt")
	return e
}

func TestSignatureEvaluator(t *testing.T) {
	t.Run("matching selection is a true positive", func(t *testing.T) {
		gold := parisCorpus(0, -1)
		pred := parisCorpus(-1, 0)

		e := newEvaluator(t, gold, false)
		report, err := e.Evaluate(pred)
		require.NoError(t, err)

		assert.Equal(t, 1, report.TP())
		assert.Equal(t, 0, report.FP())
		assert.Equal(t, 0, report.FN())
		assert.Equal(t, 1.0, report.Precision())
		assert.Equal(t, 1.0, report.Recall())
		assert.Equal(t, 1.0, report.FMeasure())

		require.Equal(t, 1, e.DistanceReport().Count())
		assert.InDelta(t, 0.0, e.DistanceReport().Mean(), 1e-9)
	})

	t.Run("selection farther than an alternative counts as both fp and fn", func(t *testing.T) {
		gold := parisCorpus(0, -1)
		pred := parisCorpus(-1, 1) // picked Texas, gold is France

		e := newEvaluator(t, gold, false)
		report, err := e.Evaluate(pred)
		require.NoError(t, err)

		assert.Equal(t, 0, report.TP())
		assert.Equal(t, 1, report.FP())
		assert.Equal(t, 1, report.FN())

		// the error distance is France-Texas
		france := parisCandidates()[0]
		texas := parisCandidates()[1]
		assert.InDelta(t, france.DistanceKm(texas), e.DistanceReport().Mean(), 1e-6)
	})

	t.Run("unresolved prediction is a false negative", func(t *testing.T) {
		gold := parisCorpus(0, -1)
		pred := parisCorpus(-1, -1)

		e := newEvaluator(t, gold, false)
		report, err := e.Evaluate(pred)
		require.NoError(t, err)

		assert.Equal(t, 0, report.TP())
		assert.Equal(t, 0, report.FP())
		assert.Equal(t, 1, report.FN())
	})

	t.Run("prediction without a gold counterpart is a false positive", func(t *testing.T) {
		gold := parisCorpus(-1, -1) // no gold label anywhere
		pred := parisCorpus(-1, 0)

		e := newEvaluator(t, gold, false)
		report, err := e.Evaluate(pred)
		require.NoError(t, err)

		assert.Equal(t, 0, report.TP())
		assert.Equal(t, 1, report.FP())
		assert.Equal(t, 0, report.FN())
	})

	t.Run("oracle mode scores the closest candidate instead of the selection", func(t *testing.T) {
		gold := parisCorpus(0, -1)
		pred := parisCorpus(-1, 1) // wrong selection

		e := newEvaluator(t, gold, true)
		report, err := e.Evaluate(pred)
		require.NoError(t, err)

		assert.Equal(t, 1, report.TP())
		assert.Equal(t, 0, report.FP())
		assert.InDelta(t, 0.0, e.DistanceReport().Mean(), 1e-9)
	})

	t.Run("records the closest candidate for each matched toponym", func(t *testing.T) {
		gold := parisCorpus(0, -1)
		pred := parisCorpus(-1, 1)

		e := newEvaluator(t, gold, false)
		_, err := e.Evaluate(pred)
		require.NoError(t, err)

		require.Len(t, e.CorrectLocations, 1)
		for _, loc := range e.CorrectLocations {
			assert.Equal(t, 1, loc.ID()) // Paris, France
		}
	})
}

func TestSignatureHelpers(t *testing.T) {
	t.Run("squash keeps only lowercased alphanumerics", func(t *testing.T) {
		assert.Equal(t, "stlouis", squashForm("St. Louis"))
		assert.Equal(t, "rio2016", squashForm("Rio-2016!"))
	})

	t.Run("signature window is clipped at the text edges", func(t *testing.T) {
		text := "abcdefghij"
		assert.Equal(t, "abc", signature(text, 0, 3))
		assert.Equal(t, "abcdef", signature(text, 3, 3))
		assert.Equal(t, "ghij", signature(text, 9, 3))
	})
}
