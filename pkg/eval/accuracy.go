package eval

import "github.com/benwing/fieldspring/pkg/corpus"

// AccuracyEvaluator assumes gold toponym spans were used during
// preprocessing, so predicted and gold toponyms are the same objects: each
// gold-annotated toponym is simply right or wrong by index.
type AccuracyEvaluator struct {
	corpus *corpus.Corpus
}

func NewAccuracyEvaluator(c *corpus.Corpus) *AccuracyEvaluator {
	return &AccuracyEvaluator{corpus: c}
}

func (e *AccuracyEvaluator) Evaluate() *Report {
	report := NewReport()

	for _, doc := range e.corpus.Documents {
		for _, t := range doc.Toponyms() {
			if !t.HasGold() {
				continue
			}
			if t.GoldIdx() == t.SelectedIdx() {
				report.IncrementTP()
			} else {
				report.IncrementInstanceCount()
			}
		}
	}

	return report
}
