package resolver

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/benwing/fieldspring/pkg"
	"github.com/benwing/fieldspring/pkg/corpus"
	"github.com/benwing/fieldspring/pkg/topo"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DocCoordMode controls how the document-level gold coordinate participates
// in the iterative voting.
type DocCoordMode int

const (
	// DocCoordNo ignores document coordinates.
	DocCoordNo DocCoordMode = iota
	// DocCoordAddTopo adds one synthetic single-candidate toponym per
	// document, located at the document's gold coordinate, to bias voting.
	DocCoordAddTopo
	// DocCoordWeighted initializes candidate weights by inverse distance to
	// the gold coordinate. Provisional: the normalization formula is
	// untested against real corpora.
	DocCoordWeighted
)

const (
	// phantom/imagined counts for smoothing
	phantomCount = 0
	// floor for weights used as divisors, so an externally supplied 0.0
	// weight cannot make a distance term diverge.
	minDivisorWeight = 1e-10
)

// WeightedMinDistResolver implements the iterative weighted minimum-distance
// resolution algorithm: per toponym type it learns a weight per candidate by
// repeated minimum-total-weighted-distance voting across the corpus, then
// disambiguates each toponym against all other toponyms in its document
// using the learned weights. Weights and the toponym lexicon are kept on the
// resolver so a different corpus can be used for training than for
// disambiguating.
type WeightedMinDistResolver struct {
	OverwriteSelecteds bool

	numIterations int
	weightsPath   string
	logPath       string
	docCoordMode  DocCoordMode
	workers       int
	log           *zap.Logger

	lex             *pkg.Lexicon
	weights         [][]float64
	weightsFromFile [][]float64
	distanceTable   *topo.DistanceTable

	syntheticToponyms map[*corpus.Document]*corpus.Toponym
	docIndex          int
	syntheticLocID    int
}

func NewWeightedMinDistResolver(log *zap.Logger, numIterations int, weightsPath,
	logPath string, docCoordMode DocCoordMode) (*WeightedMinDistResolver, error) {

	if weightsPath != "" && logPath == "" {
		return nil, pkg.WrapErrorf(errors.New("missing log file path"), pkg.ErrBadParamInput,
			"wmd: reading weights from file requires a geolocation log for the DocDist backoff")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &WeightedMinDistResolver{
		OverwriteSelecteds: true,
		numIterations:      numIterations,
		weightsPath:        weightsPath,
		logPath:            logPath,
		docCoordMode:       docCoordMode,
		workers:            runtime.NumCPU(),
		log:                log,
		syntheticToponyms:  make(map[*corpus.Document]*corpus.Toponym),
		syntheticLocID:     -1,
	}, nil
}

// SetWorkers bounds the number of goroutines used for the per-document
// scoring phase of each iteration.
func (r *WeightedMinDistResolver) SetWorkers(workers int) {
	if workers > 0 {
		r.workers = workers
	}
}

func (r *WeightedMinDistResolver) Train(c *corpus.Corpus) error {
	r.distanceTable = topo.NewDistanceTable()

	r.lex = pkg.NewLexicon()
	buildLexicon(r.lex, c)
	r.initializeSyntheticToponyms(c)

	counts := make([][]int, r.lex.Size())
	r.weights = make([][]float64, r.lex.Size())

	if r.weightsPath != "" {
		weightsFromFile, err := ReadWeights(r.weightsPath, r.lex.Size())
		if err != nil {
			return err
		}
		r.weightsFromFile = weightsFromFile
	}

	r.initializeCountsAndWeights(counts, c)

	for i := 0; i < r.numIterations; i++ {
		r.log.Info("weighted min dist iteration", zap.Int("iteration", i+1),
			zap.Int("of", r.numIterations))
		if err := r.updateWeights(c, counts, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *WeightedMinDistResolver) Disambiguate(c *corpus.Corpus) (*corpus.Corpus, error) {
	if r.weights == nil {
		if err := r.Train(c); err != nil {
			return nil, err
		}
	}

	// The disambiguation corpus may contain toponym types never seen during
	// training; give those uniform weights.
	buildLexicon(r.lex, c)
	r.initializeSyntheticToponyms(c)
	r.expandWeightsArray(c)

	r.finalDisambiguationStep(c)

	// Exactly one backoff pass, which must not clobber anything resolved
	// above: DocDist when weights came from a file, uniform random otherwise.
	var backoff Resolver
	if r.weightsPath != "" {
		docDist := NewDocDistResolver(r.logPath)
		docDist.OverwriteSelecteds = false
		backoff = docDist
	} else {
		random := NewRandomResolver()
		random.OverwriteSelecteds = false
		backoff = random
	}
	return backoff.Disambiguate(c)
}

func buildLexicon(lex *pkg.Lexicon, c *corpus.Corpus) {
	for _, doc := range c.Documents {
		for _, t := range doc.Toponyms() {
			lex.GetOrAdd(t.Form())
		}
	}
}

// initializeSyntheticToponyms makes sure the lexicon holds indices for the
// synthetic toponyms, one per document, each with a single candidate at the
// document's gold coordinate.
func (r *WeightedMinDistResolver) initializeSyntheticToponyms(c *corpus.Corpus) {
	if r.docCoordMode != DocCoordAddTopo {
		return
	}
	for _, doc := range c.Documents {
		if doc.GoldCoord == nil {
			continue
		}
		t, ok := r.syntheticToponyms[doc]
		if !ok {
			topoID := fmt.Sprintf("__TOPO_%s_%d__", doc.ID, r.docIndex)
			r.docIndex++
			loc := topo.NewPointLocation(r.syntheticLocID, topoID, *doc.GoldCoord)
			r.syntheticLocID--
			t = corpus.NewToponym(topoID, []*topo.Location{loc})
			r.syntheticToponyms[doc] = t
		}
		r.lex.GetOrAdd(t.Form())
	}
}

// iterToponyms returns the toponyms of a document, including the synthetic
// document-coordinate toponym when that mode is on.
func (r *WeightedMinDistResolver) iterToponyms(doc *corpus.Document) []*corpus.Toponym {
	toponyms := doc.Toponyms()
	if r.docCoordMode != DocCoordAddTopo {
		return toponyms
	}
	if t, ok := r.syntheticToponyms[doc]; ok {
		toponyms = append(toponyms, t)
	}
	return toponyms
}

func (r *WeightedMinDistResolver) initializeCountsAndWeights(counts [][]int, c *corpus.Corpus) {
	for _, doc := range c.Documents {
		for _, t := range r.iterToponyms(doc) {
			if t.Ambiguity() == 0 {
				continue
			}
			index := r.lex.Get(t.Form())
			if index < 0 || counts[index] != nil {
				continue
			}

			counts[index] = make([]int, t.Ambiguity())
			for i := range counts[index] {
				counts[index][i] = phantomCount
			}

			weights := make([]float64, t.Ambiguity())
			candidates := t.Candidates()
			for i := range weights {
				switch {
				case r.weightsFromFile != nil && len(r.weightsFromFile[index]) > 0:
					weights[i] = r.weightsFromFile[index][i]
				case r.docCoordMode == DocCoordWeighted && doc.GoldCoord != nil:
					weights[i] = 1.0 / candidates[i].CoordDistance(*doc.GoldCoord)
				default:
					weights[i] = 1.0
				}
			}
			if r.docCoordMode == DocCoordWeighted && doc.GoldCoord != nil {
				// Normalize so the weights add up to the ambiguity.
				sum := 0.0
				for _, w := range weights {
					sum += w
				}
				for i := range weights {
					weights[i] = weights[i] * float64(t.Ambiguity()) / sum
				}
			}
			r.weights[index] = weights
		}
	}
}

// expandWeightsArray grows the weight table to cover toponym types found in
// the lexicon but not in the training corpus, giving their candidates a
// weight of 1.0.
func (r *WeightedMinDistResolver) expandWeightsArray(c *corpus.Corpus) {
	if len(r.weights) >= r.lex.Size() {
		return
	}

	newWeights := make([][]float64, r.lex.Size())
	copy(newWeights, r.weights)
	r.weights = newWeights

	for _, doc := range c.Documents {
		for _, t := range r.iterToponyms(doc) {
			if t.Ambiguity() == 0 {
				continue
			}
			index := r.lex.Get(t.Form())
			if index < 0 || r.weights[index] != nil {
				continue
			}
			weights := make([]float64, t.Ambiguity())
			for i := range weights {
				weights[i] = 1.0
			}
			r.weights[index] = weights
		}
	}
}

type winner struct {
	typeIndex   int
	winnerIndex int
}

// updateWeights runs one voting iteration: every toponym instance votes for
// the candidate with the lowest total weighted distance to the other
// toponyms in its document, and the votes are renormalized into the next
// iteration's weights.
func (r *WeightedMinDistResolver) updateWeights(c *corpus.Corpus, counts [][]int, iteration int) error {
	for i := range counts {
		for j := range counts[i] {
			counts[i][j] = phantomCount
		}
	}

	sums := make([]int, len(counts))
	for i := range counts {
		sums[i] = phantomCount * len(counts[i])
	}

	bar := progressbar.NewOptions(len(c.Documents),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(
			fmt.Sprintf("[cyan][%d/%d]Voting on candidate locations...", iteration+1, r.numIterations)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	// Weights are only read during the voting phase, so documents can be
	// scored in parallel; the counts are merged afterwards.
	jobs := make(chan *corpus.Document, r.workers)
	var mu sync.Mutex

	g := errgroup.Group{}
	for w := 0; w < r.workers; w++ {
		g.Go(func() error {
			local := make([]winner, 0)
			for doc := range jobs {
				for _, t := range r.iterToponyms(doc) {
					minIdx := r.pickCandidate(doc, t)
					if minIdx > -1 {
						local = append(local, winner{
							typeIndex:   r.lex.Get(t.Form()),
							winnerIndex: minIdx,
						})
					}
				}
				_ = bar.Add(1)
			}

			mu.Lock()
			for _, win := range local {
				counts[win.typeIndex][win.winnerIndex]++
				sums[win.typeIndex]++
			}
			mu.Unlock()
			return nil
		})
	}
	for _, doc := range c.Documents {
		jobs <- doc
	}
	close(jobs)
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println("")

	// Convert counts to a distribution over candidates renormalized to
	// average 1.0, directly usable as a multiplicative prior next iteration.
	// Types that received no votes keep their previous weights.
	for i := range r.weights {
		if sums[i] == 0 {
			continue
		}
		for j := range r.weights[i] {
			r.weights[i][j] = float64(counts[i][j]) / float64(sums[i]) * float64(len(r.weights[i]))
		}
	}
	return nil
}

// pickCandidate returns the index of the candidate with the lowest total
// weighted distance to the other toponyms of the document, or -1. When no
// candidate finished a total (typically a singleton document), it falls back
// to the candidate with the greatest weight, unless all weights are uniform.
func (r *WeightedMinDistResolver) pickCandidate(doc *corpus.Document, t *corpus.Toponym) int {
	min := math.MaxFloat64
	minIdx := -1

	for idx, candidate := range t.Candidates() {
		if candidateMin, ok := r.checkCandidate(doc, t, candidate, idx, min); ok {
			min = candidateMin
			minIdx = idx
		}
	}

	if minIdx == -1 {
		maxWeight := 1.0
		for locationIdx := range t.Candidates() {
			thisWeight := r.weights[r.lex.Get(t.Form())][locationIdx]
			if thisWeight > maxWeight {
				maxWeight = thisWeight
				minIdx = locationIdx
			}
		}
	}

	return minIdx
}

// checkCandidate returns the total weighted distance from the candidate to
// the nearest candidate of every other toponym in the document. It stops
// early and reports false as soon as the running total reaches the current
// minimum, since the candidate can no longer win; it also reports false when
// the document holds no other resolvable toponym.
func (r *WeightedMinDistResolver) checkCandidate(doc *corpus.Document, t *corpus.Toponym,
	candidate *topo.Location, locationIndex int, currentMinTotal float64) (float64, bool) {

	total := 0.0
	seen := 0
	thisWeight := r.divisorWeight(t.Form(), locationIndex)

	for _, other := range r.iterToponyms(doc) {
		if other == t || other.Ambiguity() == 0 {
			continue
		}

		min := math.Inf(1)
		for otherIdx, otherLoc := range other.Candidates() {
			weightedDist := r.distanceTable.Distance(candidate, otherLoc)
			otherWeight := r.divisorWeight(other.Form(), otherIdx)
			weightedDist /= thisWeight * otherWeight
			if weightedDist < min {
				min = weightedDist
			}
		}

		seen++
		total += min
		if total >= currentMinTotal {
			return 0, false
		}
	}

	if seen == 0 {
		return 0, false
	}
	return total, true
}

func (r *WeightedMinDistResolver) divisorWeight(form string, idx int) float64 {
	w := r.weights[r.lex.Get(form)][idx]
	if w < minDivisorWeight {
		return minDivisorWeight
	}
	return w
}

func (r *WeightedMinDistResolver) finalDisambiguationStep(c *corpus.Corpus) {
	for _, doc := range c.Documents {
		for _, t := range r.iterToponyms(doc) {
			if skipToponym(t, r.OverwriteSelecteds) {
				continue
			}
			if minIdx := r.pickCandidate(doc, t); minIdx > -1 {
				t.SetSelectedIdx(minIdx)
			}
		}
	}
}

// Weights exposes the learned per-type candidate weights, indexed by lexicon
// index.
func (r *WeightedMinDistResolver) Weights() [][]float64 {
	return r.weights
}

// Lexicon exposes the toponym lexicon built during training.
func (r *WeightedMinDistResolver) Lexicon() *pkg.Lexicon {
	return r.lex
}
