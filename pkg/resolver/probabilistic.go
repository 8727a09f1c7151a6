package resolver

import (
	"strings"

	"github.com/benwing/fieldspring/pkg"
	"github.com/benwing/fieldspring/pkg/corpus"
	"github.com/benwing/fieldspring/pkg/logparse"

	"go.uber.org/zap"
)

const (
	// freqSmoothing is the constant C in the mixing coefficient
	// lambda = freq / (freq + C): frequent toponym types lean on the
	// local-context classifier, rare types on document-level evidence.
	freqSmoothing = 1e-4
	// contextWindowTokens is the number of non-stopword tokens taken on each
	// side of a toponym as classifier features.
	contextWindowTokens = 20
)

// ProbabilisticResolver blends, per candidate, a local-context classifier
// probability, a document-level cell probability from a prior geolocation
// run, a population prior, and an administrative-level prior into a single
// score, then selects the argmax. It can also persist the accumulated
// per-type candidate distributions as a weights file for consumption by
// WeightedMinDistResolver.
type ProbabilisticResolver struct {
	OverwriteSelecteds bool

	// MEProbOnly restricts scoring to the local-context component alone;
	// DGProbOnly to the document-level component alone. Diagnostic modes.
	MEProbOnly bool
	DGProbOnly bool

	// PopComponentCoefficient mixes the population prior into the blended
	// probability when any candidate has a known population.
	PopComponentCoefficient float64

	logPath          string
	store            ClassifierStore
	writeWeightsPath string
	topKCells        int
	log              *zap.Logger

	preds map[string]*logparse.PredictedDocument
}

func NewProbabilisticResolver(log *zap.Logger, logPath string, store ClassifierStore,
	writeWeightsPath string, popComponentCoefficient float64) *ProbabilisticResolver {

	if log == nil {
		log = zap.NewNop()
	}
	return &ProbabilisticResolver{
		OverwriteSelecteds:      true,
		PopComponentCoefficient: popComponentCoefficient,
		logPath:                 logPath,
		store:                   store,
		writeWeightsPath:        writeWeightsPath,
		log:                     log,
	}
}

// SetTopKCells restricts the document cell distributions to the k best
// ranks. Zero keeps every rank present in the log.
func (r *ProbabilisticResolver) SetTopKCells(k int) {
	r.topKCells = k
}

func (r *ProbabilisticResolver) Train(c *corpus.Corpus) error {
	preds, err := logparse.ParseFile(r.logPath, r.topKCells)
	if err != nil {
		return pkg.WrapErrorf(err, pkg.ErrMalformedFile, "probabilistic: reading log file %s", r.logPath)
	}
	r.preds = preds
	return nil
}

func (r *ProbabilisticResolver) Disambiguate(c *corpus.Corpus) (*corpus.Corpus, error) {
	if r.preds == nil {
		if err := r.Train(c); err != nil {
			return nil, err
		}
	}

	lex := pkg.NewLexicon()
	buildLexicon(lex, c)
	typeDists := make([][]float64, lex.Size())

	for _, doc := range c.Documents {
		pd := r.preds[doc.ID]
		tokens := doc.Tokens()
		pos := 0
		for _, sent := range doc.Sentences {
			for _, token := range sent.Tokens {
				t, ok := token.(*corpus.Toponym)
				if ok && !skipToponym(t, r.OverwriteSelecteds) {
					r.scoreToponym(doc, pd, tokens, pos, t, lex, typeDists)
				}
				pos++
			}
		}
	}

	if r.writeWeightsPath != "" {
		if err := WriteWeights(r.writeWeightsPath, lex, typeDists); err != nil {
			return nil, err
		}
	}

	// Toponyms whose document had no cell distribution and whose type has
	// no model may be left unscored; back off to document distance.
	backoff := NewDocDistResolverFromPredictions(r.preds)
	backoff.OverwriteSelecteds = false
	return backoff.Disambiguate(c)
}

func (r *ProbabilisticResolver) scoreToponym(doc *corpus.Document,
	pd *logparse.PredictedDocument, tokens []corpus.Token, pos int,
	t *corpus.Toponym, lex *pkg.Lexicon, typeDists [][]float64) {

	ambiguity := t.Ambiguity()
	candidates := t.Candidates()

	localProbs := r.localContextComponent(tokens, pos, t)
	docProbs := documentComponent(pd, t)

	freq := r.store.Frequency(t.Form())
	lambda := freq / (freq + freqSmoothing)

	totalReps := 0
	for _, candidate := range candidates {
		totalReps += len(candidate.Region().Representatives())
	}
	totalPop := 0
	for _, candidate := range candidates {
		totalPop += candidate.Population()
	}

	index := lex.Get(t.Form())
	if typeDists[index] == nil {
		typeDists[index] = make([]float64, ambiguity)
	}

	bestIdx := -1
	bestScore := 0.0
	for j := 0; j < ambiguity; j++ {
		adminPrior := float64(len(candidates[j].Region().Representatives())) / float64(totalReps)
		probComponent := adminPrior * (lambda*localProbs[j] + (1.0-lambda)*docProbs[j])

		var score float64
		switch {
		case r.MEProbOnly:
			score = localProbs[j]
		case r.DGProbOnly:
			score = docProbs[j]
		case totalPop > 0:
			score = r.PopComponentCoefficient*float64(candidates[j].Population())/float64(totalPop) +
				(1.0-r.PopComponentCoefficient)*probComponent
		default:
			score = probComponent
		}

		if j < len(typeDists[index]) {
			typeDists[index][j] += score
		}
		// Ties keep the first-seen maximum.
		if score > bestScore {
			bestScore = score
			bestIdx = j
		}
	}

	if bestIdx > -1 {
		t.SetSelectedIdx(bestIdx)
	}
}

// localContextComponent queries the type's classifier, if any, over a
// symmetric window of up to contextWindowTokens non-stopword tokens on each
// side of the toponym. Types without a model contribute 0 to every
// candidate.
func (r *ProbabilisticResolver) localContextComponent(tokens []corpus.Token,
	pos int, t *corpus.Toponym) []float64 {

	probs := make([]float64, t.Ambiguity())
	classifier := r.store.Classifier(t.Form())
	if classifier == nil {
		return probs
	}

	features := contextWindow(tokens, pos, contextWindowTokens)
	modelProbs := classifier.Eval(features)
	for j := 0; j < len(probs) && j < len(modelProbs); j++ {
		probs[j] = modelProbs[j]
	}
	return probs
}

func contextWindow(tokens []corpus.Token, pos int, windowSize int) []string {
	features := make([]string, 0, 2*windowSize)

	taken := 0
	for i := pos - 1; i >= 0 && taken < windowSize; i-- {
		form := strings.ToLower(tokens[i].Form())
		if isStopword(form) {
			continue
		}
		features = append(features, form)
		taken++
	}
	taken = 0
	for i := pos + 1; i < len(tokens) && taken < windowSize; i++ {
		form := strings.ToLower(tokens[i].Form())
		if isStopword(form) {
			continue
		}
		features = append(features, form)
		taken++
	}
	return features
}

// documentComponent maps the document's cell distribution onto the toponym's
// candidates: cells containing no candidate center are discarded, the rest
// are renormalized, and each candidate receives the mass of the retained
// cells containing its center.
func documentComponent(pd *logparse.PredictedDocument, t *corpus.Toponym) []float64 {
	probs := make([]float64, t.Ambiguity())
	if pd == nil || len(pd.Cells) == 0 {
		return probs
	}

	centers := make([]struct{ lat, lng float64 }, t.Ambiguity())
	for j, candidate := range t.Candidates() {
		center := candidate.Region().Center()
		centers[j] = struct{ lat, lng float64 }{center.Lat, center.Lng}
	}

	retainedMass := 0.0
	retained := make([]bool, len(pd.Cells))
	for i, cell := range pd.Cells {
		for _, center := range centers {
			if cell.Rect.ContainsRadians(center.lat, center.lng) {
				retained[i] = true
				retainedMass += cell.Prob
				break
			}
		}
	}
	if retainedMass == 0 {
		return probs
	}

	for i, cell := range pd.Cells {
		if !retained[i] {
			continue
		}
		for j, center := range centers {
			if cell.Rect.ContainsRadians(center.lat, center.lng) {
				probs[j] += cell.Prob / retainedMass
			}
		}
	}
	return probs
}
