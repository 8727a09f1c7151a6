package eval

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/benwing/fieldspring/pkg/corpus"
	"github.com/benwing/fieldspring/pkg/topo"
)

// contextWindowChars is the number of characters of squashed sentence text
// taken on each side of a toponym when building its signature.
const contextWindowChars = 20

// SignatureEvaluator matches toponym instances between an independently
// processed predicted corpus and a gold corpus without relying on object
// identity: each toponym is keyed by a signature built from the alphanumeric
// characters around it plus the document ID, and the signatures are joined.
// A matched toponym is a true positive when its predicted location is not
// strictly farther from the gold location than any alternative candidate;
// otherwise it counts as both a false positive and a false negative.
type SignatureEvaluator struct {
	goldCorpus *corpus.Corpus
	oracle     bool
	// ErrorsPath receives the per-toponym-type error breakdown. Empty
	// disables the file.
	ErrorsPath string

	// CorrectLocations maps each matched predicted toponym to the candidate
	// closest to the gold location, filled during Evaluate.
	CorrectLocations map[*corpus.Toponym]*topo.Location

	distanceReport *DistanceReport
	predCandidates map[string][]*topo.Location
}

func NewSignatureEvaluator(goldCorpus *corpus.Corpus, oracle bool) *SignatureEvaluator {
	return &SignatureEvaluator{
		goldCorpus:       goldCorpus,
		oracle:           oracle,
		ErrorsPath:       "errors.txt",
		CorrectLocations: make(map[*corpus.Toponym]*topo.Location),
	}
}

// DistanceReport returns the error-distance distribution of the last
// Evaluate call.
func (e *SignatureEvaluator) DistanceReport() *DistanceReport {
	return e.distanceReport
}

func (e *SignatureEvaluator) Evaluate(pred *corpus.Corpus) (*Report, error) {
	report := NewReport()
	e.distanceReport = NewDistanceReport()
	e.predCandidates = make(map[string][]*topo.Location)

	signatureToPredTop := make(map[string]*corpus.Toponym)
	goldLocs := e.populateSigsAndLocations(e.goldCorpus, true, nil)
	predLocs := e.populateSigsAndLocations(pred, false, signatureToPredTop)

	errors := make(map[string][]float64)

	for context, goldLoc := range goldLocs {
		predLoc, ok := predLocs[context]
		if !ok {
			report.IncrementFN()
			continue
		}

		if predLoc != nil && !e.oracle {
			dist := goldLoc.DistanceKm(predLoc)
			e.distanceReport.AddDistance(dist)
			key := strings.ToLower(goldLoc.Name())
			errors[key] = append(errors[key], dist)
		}

		// Record the closest available candidate as the "correct" location
		// for the predicted toponym.
		if candidates := e.predCandidates[context]; len(candidates) > 0 {
			e.CorrectLocations[signatureToPredTop[context]] = closestMatch(goldLoc, candidates)
		}

		if e.oracle {
			if candidates := e.predCandidates[context]; len(candidates) > 0 {
				closest := closestMatch(goldLoc, candidates)
				dist := goldLoc.DistanceKm(closest)
				e.distanceReport.AddDistance(dist)
				report.IncrementTP()
				key := strings.ToLower(goldLoc.Name())
				errors[key] = append(errors[key], dist)
			}
			continue
		}

		if isClosestMatch(goldLoc, predLoc, e.predCandidates[context]) {
			report.IncrementTP()
		} else {
			report.IncrementFPandFN()
		}
	}

	for context := range predLocs {
		if _, ok := goldLocs[context]; !ok {
			report.IncrementFP()
		}
	}

	if e.ErrorsPath != "" {
		if err := writeErrorBreakdown(e.ErrorsPath, errors); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// populateSigsAndLocations maps toponym signatures to locations: gold
// locations for the gold corpus, selected locations for the predicted one
// (nil for zero-candidate toponyms). For the predicted corpus it also
// records each signature's full candidate list and, when signatureToToponym
// is non-nil, the originating toponym.
func (e *SignatureEvaluator) populateSigsAndLocations(c *corpus.Corpus,
	gold bool, signatureToToponym map[string]*corpus.Toponym) map[string]*topo.Location {

	locs := make(map[string]*topo.Location)

	for _, doc := range c.Documents {
		for _, sent := range doc.Sentences {
			var sb strings.Builder
			var toponymStarts []int
			var curToponyms []*corpus.Toponym
			var curLocations []*topo.Location
			var curCandidates [][]*topo.Location

			for _, token := range sent.Tokens {
				if t, ok := token.(*corpus.Toponym); ok {
					if (gold && t.HasGold()) ||
						(!gold && (t.HasSelected() || t.Ambiguity() == 0)) {
						toponymStarts = append(toponymStarts, sb.Len())
						curToponyms = append(curToponyms, t)
						if gold {
							loc, _ := t.GoldLocation()
							curLocations = append(curLocations, loc)
						} else {
							if t.Ambiguity() > 0 {
								loc, _ := t.SelectedLocation()
								curLocations = append(curLocations, loc)
							} else {
								curLocations = append(curLocations, nil)
							}
							curCandidates = append(curCandidates, t.Candidates())
						}
					}
				}
				sb.WriteString(squashForm(token.Form()))
			}

			whole := sb.String()
			for i, start := range toponymStarts {
				context := signature(whole, start, contextWindowChars) + doc.ID
				locs[context] = curLocations[i]
				if !gold {
					e.predCandidates[context] = curCandidates[i]
				}
				if signatureToToponym != nil {
					signatureToToponym[context] = curToponyms[i]
				}
			}
		}
	}

	return locs
}

// squashForm lowercases a token form and strips every non-alphanumeric
// character.
func squashForm(form string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(form) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func signature(wholeContext string, centerIndex, windowSize int) string {
	beginIndex := centerIndex - windowSize
	if beginIndex < 0 {
		beginIndex = 0
	}
	endIndex := centerIndex + windowSize
	if endIndex > len(wholeContext) {
		endIndex = len(wholeContext)
	}
	return wholeContext[beginIndex:endIndex]
}

// isClosestMatch reports whether predLoc is no farther from the gold
// location than any alternative candidate.
func isClosestMatch(goldLoc, predLoc *topo.Location, candidates []*topo.Location) bool {
	if predLoc == nil {
		return false
	}

	distanceToBeat := topo.RegionDistance(predLoc.Region(), goldLoc.Region())
	for _, otherLoc := range candidates {
		if topo.RegionDistance(otherLoc.Region(), goldLoc.Region()) < distanceToBeat {
			return false
		}
	}
	return true
}

func closestMatch(goldLoc *topo.Location, candidates []*topo.Location) *topo.Location {
	minDist := math.Inf(1)
	var toReturn *topo.Location
	for _, otherLoc := range candidates {
		dist := topo.RegionDistance(otherLoc.Region(), goldLoc.Region())
		if dist < minDist {
			minDist = dist
			toReturn = otherLoc
		}
	}
	return toReturn
}

// writeErrorBreakdown writes one line per gold toponym name: the name, the
// number of matched instances, the mean error and the total error, as LaTeX
// table rows.
func writeErrorBreakdown(path string, errors map[string][]float64) error {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer file.Close()

	names := make([]string, 0, len(errors))
	for name := range errors {
		names = append(names, name)
	}
	sort.Strings(names)

	writer := bufio.NewWriter(file)
	for _, name := range names {
		errorList := errors[name]
		sum := 0.0
		for _, e := range errorList {
			sum += e
		}
		_, err := fmt.Fprintf(writer, "%s & %d & %f & %f\\\\\n",
			name, len(errorList), sum/float64(len(errorList)), sum)
		if err != nil {
			return err
		}
	}
	return writer.Flush()
}
