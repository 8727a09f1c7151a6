package resolver

import (
	"testing"

	"github.com/benwing/fieldspring/pkg/corpus"
	"github.com/benwing/fieldspring/pkg/logparse"
	"github.com/benwing/fieldspring/pkg/topo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomResolver(t *testing.T) {
	t.Run("selects an in-range candidate for every ambiguous toponym", func(t *testing.T) {
		c := springfieldCairoCorpus()
		r := NewRandomResolverWithSeed(42)

		out, err := r.Disambiguate(c)
		require.NoError(t, err)

		for _, doc := range out.Documents {
			for _, top := range doc.Toponyms() {
				assert.True(t, top.HasSelected())
				assert.Less(t, top.SelectedIdx(), top.Ambiguity())
			}
		}
	})

	t.Run("leaves already resolved toponyms alone when overwriting is off", func(t *testing.T) {
		c := springfieldCairoCorpus()
		top := c.Documents[0].Toponyms()[0]
		top.SetSelectedIdx(2)

		r := NewRandomResolverWithSeed(42)
		r.OverwriteSelecteds = false
		_, err := r.Disambiguate(c)
		require.NoError(t, err)

		assert.Equal(t, 2, top.SelectedIdx())
	})
}

func TestDocDistResolver(t *testing.T) {
	t.Run("selects the candidate nearest the predicted document coordinate", func(t *testing.T) {
		c := springfieldCairoCorpus()
		boston := topo.NewCoordinateFromDegrees(42.36, -71.06)
		preds := map[string]*logparse.PredictedDocument{
			"d1": {ID: "d1", PredCoord: &boston},
		}

		r := NewDocDistResolverFromPredictions(preds)
		out, err := r.Disambiguate(c)
		require.NoError(t, err)

		for _, top := range out.Documents[0].Toponyms() {
			switch top.Form() {
			case "Springfield":
				assert.Equal(t, 1, top.SelectedIdx()) // Massachusetts
			case "Cairo":
				assert.Equal(t, 0, top.SelectedIdx()) // Illinois
			}
		}
	})

	t.Run("documents missing from the log are left untouched", func(t *testing.T) {
		c := springfieldCairoCorpus()
		r := NewDocDistResolverFromPredictions(map[string]*logparse.PredictedDocument{})

		out, err := r.Disambiguate(c)
		require.NoError(t, err)

		for _, doc := range out.Documents {
			for _, top := range doc.Toponyms() {
				assert.False(t, top.HasSelected())
			}
		}
	})
}

func TestBasicMinDistResolver(t *testing.T) {
	t.Run("selects the mutually nearest candidates", func(t *testing.T) {
		c := springfieldCairoCorpus()
		r := NewBasicMinDistResolver()

		out, err := r.Disambiguate(c)
		require.NoError(t, err)

		for _, doc := range out.Documents {
			for _, top := range doc.Toponyms() {
				assert.Equal(t, 0, top.SelectedIdx(), "%s in %s", top.Form(), doc.ID)
			}
		}
	})

	t.Run("a toponym with no resolvable neighbor abstains", func(t *testing.T) {
		doc := corpus.NewDocument("lonely", []*corpus.Sentence{
			corpus.NewSentence([]corpus.Token{
				corpus.NewToponym("Springfield", springfieldCandidates()),
				corpus.NewToponym("Atlantis", nil),
			}),
		})
		c := corpus.NewCorpus(corpus.FormatPlain, []*corpus.Document{doc})

		r := NewBasicMinDistResolver()
		_, err := r.Disambiguate(c)
		require.NoError(t, err)

		assert.False(t, doc.Toponyms()[0].HasSelected())
		assert.False(t, doc.Toponyms()[1].HasSelected())
	})
}

func TestSanitizeForm(t *testing.T) {
	assert.Equal(t, "new_york", SanitizeForm("New York"))
	assert.Equal(t, "côte_d_ivoire", SanitizeForm("Côte d'Ivoire"))
}
