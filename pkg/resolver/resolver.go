// Package resolver implements the toponym resolution algorithms: given
// documents whose toponyms carry gazetteer candidate lists, each resolver
// mutates the toponyms' selected indices in place. Resolvers may chain a
// backoff resolver (run with overwriteSelecteds off) so that every toponym
// with at least one candidate ends up resolved.
package resolver

import (
	"math"
	"time"

	"github.com/benwing/fieldspring/pkg"
	"github.com/benwing/fieldspring/pkg/corpus"
	"github.com/benwing/fieldspring/pkg/logparse"
	"github.com/benwing/fieldspring/pkg/topo"

	"golang.org/x/exp/rand"
)

type Resolver interface {
	// Train runs optional corpus-wide precomputation. Disambiguate calls it
	// implicitly when internal state is absent.
	Train(c *corpus.Corpus) error
	// Disambiguate sets the selected index of every toponym with at least
	// one candidate, mutating the corpus in place and returning it.
	Disambiguate(c *corpus.Corpus) (*corpus.Corpus, error)
}

// skipToponym reports whether a resolver pass must leave the toponym alone:
// either it has no candidates (permanent abstention) or it was already
// resolved by a higher-priority resolver and overwriting is off.
func skipToponym(t *corpus.Toponym, overwriteSelecteds bool) bool {
	if t.Ambiguity() == 0 {
		return true
	}
	return !overwriteSelecteds && t.HasSelected()
}

// RandomResolver selects a candidate uniformly at random. Used as the final
// backoff when nothing else can decide.
type RandomResolver struct {
	OverwriteSelecteds bool
	rng                *rand.Rand
}

func NewRandomResolver() *RandomResolver {
	return &RandomResolver{
		OverwriteSelecteds: true,
		rng:                rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
}

func NewRandomResolverWithSeed(seed uint64) *RandomResolver {
	return &RandomResolver{
		OverwriteSelecteds: true,
		rng:                rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomResolver) Train(c *corpus.Corpus) error {
	return nil
}

func (r *RandomResolver) Disambiguate(c *corpus.Corpus) (*corpus.Corpus, error) {
	for _, doc := range c.Documents {
		for _, t := range doc.Toponyms() {
			if skipToponym(t, r.OverwriteSelecteds) {
				continue
			}
			t.SetSelectedIdx(r.rng.Intn(t.Ambiguity()))
		}
	}
	return c, nil
}

// DocDistResolver selects, for each toponym, the candidate nearest to the
// document's predicted coordinate taken from a document-geolocation run log.
// Documents absent from the log are left untouched.
type DocDistResolver struct {
	OverwriteSelecteds bool
	logPath            string
	preds              map[string]*logparse.PredictedDocument
}

func NewDocDistResolver(logPath string) *DocDistResolver {
	return &DocDistResolver{
		OverwriteSelecteds: true,
		logPath:            logPath,
	}
}

// NewDocDistResolverFromPredictions reuses an already parsed log.
func NewDocDistResolverFromPredictions(preds map[string]*logparse.PredictedDocument) *DocDistResolver {
	return &DocDistResolver{
		OverwriteSelecteds: true,
		preds:              preds,
	}
}

func (r *DocDistResolver) Train(c *corpus.Corpus) error {
	if r.preds != nil {
		return nil
	}
	preds, err := logparse.ParseFile(r.logPath, 0)
	if err != nil {
		return pkg.WrapErrorf(err, pkg.ErrMalformedFile, "docdist: reading log file %s", r.logPath)
	}
	r.preds = preds
	return nil
}

func (r *DocDistResolver) Disambiguate(c *corpus.Corpus) (*corpus.Corpus, error) {
	if r.preds == nil {
		if err := r.Train(c); err != nil {
			return nil, err
		}
	}

	for _, doc := range c.Documents {
		pd, ok := r.preds[doc.ID]
		if !ok || pd.PredCoord == nil {
			continue
		}
		for _, t := range doc.Toponyms() {
			if skipToponym(t, r.OverwriteSelecteds) {
				continue
			}
			t.SetSelectedIdx(nearestCandidate(t, *pd.PredCoord))
		}
	}
	return c, nil
}

func nearestCandidate(t *corpus.Toponym, coord topo.Coordinate) int {
	minDist := math.Inf(1)
	minIdx := 0
	for idx, candidate := range t.Candidates() {
		dist := candidate.CoordDistance(coord)
		if dist < minDist {
			minDist = dist
			minIdx = idx
		}
	}
	return minIdx
}

// BasicMinDistResolver selects the candidate minimizing the total minimum
// distance to the other toponyms' candidates in the same document, with no
// weighting and no training. Toponyms co-occurring with no other resolvable
// toponym abstain.
type BasicMinDistResolver struct {
	OverwriteSelecteds bool
	distanceTable      *topo.DistanceTable
}

func NewBasicMinDistResolver() *BasicMinDistResolver {
	return &BasicMinDistResolver{
		OverwriteSelecteds: true,
		distanceTable:      topo.NewDistanceTable(),
	}
}

func (r *BasicMinDistResolver) Train(c *corpus.Corpus) error {
	return nil
}

func (r *BasicMinDistResolver) Disambiguate(c *corpus.Corpus) (*corpus.Corpus, error) {
	for _, doc := range c.Documents {
		toponyms := doc.Toponyms()
		for _, t := range toponyms {
			if skipToponym(t, r.OverwriteSelecteds) {
				continue
			}

			minTotal := math.MaxFloat64
			minIdx := -1
			for idx, candidate := range t.Candidates() {
				total := 0.0
				seen := 0
				for _, other := range toponyms {
					if other == t || other.Ambiguity() == 0 {
						continue
					}
					minDist := math.Inf(1)
					for _, otherLoc := range other.Candidates() {
						dist := r.distanceTable.Distance(candidate, otherLoc)
						if dist < minDist {
							minDist = dist
						}
					}
					seen++
					total += minDist
				}
				if seen > 0 && total < minTotal {
					minTotal = total
					minIdx = idx
				}
			}
			if minIdx > -1 {
				t.SetSelectedIdx(minIdx)
			}
		}
	}
	return c, nil
}
