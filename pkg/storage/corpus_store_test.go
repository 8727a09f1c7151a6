package storage

import (
	"path/filepath"
	"testing"

	"github.com/benwing/fieldspring/pkg/corpus"
	"github.com/benwing/fieldspring/pkg/topo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func newTestStore(t *testing.T) *CorpusStore {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "corpus.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewCorpusStore(db)
	require.NoError(t, err)
	return store
}

func testCorpus() *corpus.Corpus {
	rect := topo.NewRectRegionFromDegrees(36.9, 42.7, -91.5, -87.5)
	candidates := []*topo.Location{
		topo.NewLocation(1, "Springfield",
			topo.NewPointRegion(topo.NewCoordinateFromDegrees(39.8, -89.65)),
			114000, "IL", topo.LocationCity),
		topo.NewLocation(2, "Illinois", rect, 12800000, "IL", topo.LocationState),
	}

	resolved := corpus.NewToponymWithGold("Springfield", candidates, 0)
	resolved.SetSelectedIdx(1)
	unresolved := corpus.NewToponym("Springfield", candidates)

	doc1 := corpus.NewDocument("d1", []*corpus.Sentence{
		corpus.NewSentence([]corpus.Token{
			corpus.NewWord("from"),
			resolved,
		}),
		corpus.NewSentence([]corpus.Token{unresolved}),
	})
	gold := topo.NewCoordinateFromDegrees(39.8, -89.65)
	doc1.GoldCoord = &gold

	doc2 := corpus.NewDocument("d2", []*corpus.Sentence{
		corpus.NewSentence([]corpus.Token{corpus.NewWord("nothing"), corpus.NewWord("here")}),
	})

	return corpus.NewCorpus(corpus.FormatGeotext, []*corpus.Document{doc1, doc2})
}

func TestCorpusStore(t *testing.T) {
	t.Run("round trip preserves structure and resolution state", func(t *testing.T) {
		store := newTestStore(t)
		original := testCorpus()

		require.NoError(t, store.SaveCorpus("dev", original))
		loaded, err := store.LoadCorpus("dev")
		require.NoError(t, err)

		assert.Equal(t, corpus.FormatGeotext, loaded.Format)
		require.Len(t, loaded.Documents, 2)

		doc := loaded.Documents[0]
		assert.Equal(t, "d1", doc.ID)
		require.NotNil(t, doc.GoldCoord)
		assert.InDelta(t, 39.8, doc.GoldCoord.LatDegrees(), 1e-9)

		require.Len(t, doc.Sentences, 2)
		assert.Equal(t, "from", doc.Sentences[0].Tokens[0].Form())
		assert.False(t, doc.Sentences[0].Tokens[0].IsToponym())

		toponyms := doc.Toponyms()
		require.Len(t, toponyms, 2)

		resolved := toponyms[0]
		assert.Equal(t, "Springfield", resolved.Form())
		assert.Equal(t, 0, resolved.GoldIdx())
		assert.Equal(t, 1, resolved.SelectedIdx())
		require.Equal(t, 2, resolved.Ambiguity())

		point := resolved.Candidates()[0]
		assert.Equal(t, 1, point.ID())
		assert.Equal(t, 114000, point.Population())
		assert.Equal(t, "IL", point.Admin1Code())
		assert.Equal(t, topo.LocationCity, point.Type())
		assert.IsType(t, &topo.PointRegion{}, point.Region())

		state := resolved.Candidates()[1]
		assert.Equal(t, topo.LocationState, state.Type())
		require.IsType(t, &topo.RectRegion{}, state.Region())
		assert.True(t, topo.RegionContains(state.Region(),
			topo.NewCoordinateFromDegrees(39.8, -89.65)))

		unresolved := toponyms[1]
		assert.False(t, unresolved.HasGold())
		assert.False(t, unresolved.HasSelected())

		assert.Equal(t, "d2", loaded.Documents[1].ID)
	})

	t.Run("saving again replaces the previous corpus", func(t *testing.T) {
		store := newTestStore(t)

		require.NoError(t, store.SaveCorpus("dev", testCorpus()))
		require.NoError(t, store.SaveCorpus("dev", corpus.NewCorpus(corpus.FormatPlain, nil)))

		loaded, err := store.LoadCorpus("dev")
		require.NoError(t, err)
		assert.Equal(t, corpus.FormatPlain, loaded.Format)
		assert.Empty(t, loaded.Documents)
	})

	t.Run("loading a missing corpus is an error", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.LoadCorpus("nope")
		assert.Error(t, err)
	})
}
