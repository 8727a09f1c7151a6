package corpus

import (
	"testing"

	"github.com/benwing/fieldspring/pkg/topo"

	"github.com/stretchr/testify/assert"
)

func candidates(n int) []*topo.Location {
	locs := make([]*topo.Location, 0, n)
	for i := 0; i < n; i++ {
		locs = append(locs, topo.NewPointLocation(i+1, "loc",
			topo.NewCoordinateFromDegrees(float64(i), float64(i))))
	}
	return locs
}

func TestToponym(t *testing.T) {
	t.Run("out of range selections are ignored", func(t *testing.T) {
		top := NewToponym("Springfield", candidates(2))
		assert.False(t, top.HasSelected())

		top.SetSelectedIdx(5)
		assert.False(t, top.HasSelected())
		top.SetSelectedIdx(-3)
		assert.False(t, top.HasSelected())

		top.SetSelectedIdx(1)
		assert.Equal(t, 1, top.SelectedIdx())

		top.ClearSelected()
		assert.False(t, top.HasSelected())
	})

	t.Run("gold index past the candidate list clamps to the last candidate", func(t *testing.T) {
		top := NewToponymWithGold("Springfield", candidates(2), 7)
		loc, ok := top.GoldLocation()
		assert.True(t, ok)
		assert.Equal(t, 2, loc.ID())
	})

	t.Run("zero candidates never resolve", func(t *testing.T) {
		top := NewToponym("Atlantis", nil)
		assert.Equal(t, 0, top.Ambiguity())

		top.SetSelectedIdx(0)
		assert.False(t, top.HasSelected())

		_, ok := top.GoldLocation()
		assert.False(t, ok)
	})
}

func TestDocumentFlatteners(t *testing.T) {
	t.Run("toponyms and tokens come back in sentence order", func(t *testing.T) {
		first := NewToponym("Springfield", candidates(2))
		second := NewToponym("Cairo", candidates(3))

		doc := NewDocument("d1", []*Sentence{
			NewSentence([]Token{NewWord("from"), first}),
			NewSentence([]Token{second, NewWord("onward")}),
		})

		assert.Equal(t, []*Toponym{first, second}, doc.Toponyms())

		tokens := doc.Tokens()
		assert.Len(t, tokens, 4)
		assert.Equal(t, "from", tokens[0].Form())
		assert.Equal(t, "onward", tokens[3].Form())
	})
}
