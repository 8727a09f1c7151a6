// Package corpus holds the in-memory document model consumed by the
// resolvers: documents made of sentences, made of tokens, some of which are
// toponyms carrying gazetteer candidate lists.
package corpus

import (
	"github.com/benwing/fieldspring/pkg/topo"
)

type Format int

const (
	FormatPlain Format = iota
	FormatTrconll
	FormatGeotext
	FormatWiki
)

// Token is a single token in a sentence.
type Token interface {
	Form() string
	IsToponym() bool
}

// Word is a plain, non-toponym token.
type Word struct {
	form string
}

func NewWord(form string) *Word {
	return &Word{form: form}
}

func (w *Word) Form() string    { return w.form }
func (w *Word) IsToponym() bool { return false }

// Toponym is a token naming a place, with an ordered list of candidate
// locations. The selected index is mutated in place by resolvers; -1 means
// unresolved.
type Toponym struct {
	form        string
	candidates  []*topo.Location
	goldIdx     int
	selectedIdx int
}

func NewToponym(form string, candidates []*topo.Location) *Toponym {
	return &Toponym{
		form:        form,
		candidates:  candidates,
		goldIdx:     -1,
		selectedIdx: -1,
	}
}

func NewToponymWithGold(form string, candidates []*topo.Location, goldIdx int) *Toponym {
	t := NewToponym(form, candidates)
	t.goldIdx = goldIdx
	return t
}

func (t *Toponym) Form() string    { return t.form }
func (t *Toponym) IsToponym() bool { return true }

func (t *Toponym) Candidates() []*topo.Location { return t.candidates }

// Ambiguity is the number of candidate locations. Zero means the toponym can
// never be resolved.
func (t *Toponym) Ambiguity() int { return len(t.candidates) }

func (t *Toponym) GoldIdx() int  { return t.goldIdx }
func (t *Toponym) HasGold() bool { return t.goldIdx >= 0 }

func (t *Toponym) SelectedIdx() int { return t.selectedIdx }
func (t *Toponym) HasSelected() bool {
	return t.selectedIdx >= 0 && t.selectedIdx < len(t.candidates)
}

// SetSelectedIdx records the resolver's choice. Out-of-range indices are
// ignored so a toponym can never point outside its candidate list.
func (t *Toponym) SetSelectedIdx(idx int) {
	if idx < 0 || idx >= len(t.candidates) {
		return
	}
	t.selectedIdx = idx
}

// ClearSelected resets the toponym to unresolved.
func (t *Toponym) ClearSelected() {
	t.selectedIdx = -1
}

func (t *Toponym) SelectedLocation() (*topo.Location, bool) {
	if !t.HasSelected() {
		return nil, false
	}
	return t.candidates[t.selectedIdx], true
}

func (t *Toponym) GoldLocation() (*topo.Location, bool) {
	if !t.HasGold() || len(t.candidates) == 0 {
		return nil, false
	}
	goldIdx := t.goldIdx
	if goldIdx >= len(t.candidates) {
		goldIdx = len(t.candidates) - 1
	}
	return t.candidates[goldIdx], true
}

type Sentence struct {
	Tokens []Token
}

func NewSentence(tokens []Token) *Sentence {
	return &Sentence{Tokens: tokens}
}

func (s *Sentence) Toponyms() []*Toponym {
	toponyms := make([]*Toponym, 0)
	for _, token := range s.Tokens {
		if t, ok := token.(*Toponym); ok {
			toponyms = append(toponyms, t)
		}
	}
	return toponyms
}

type Document struct {
	ID        string
	Sentences []*Sentence
	// GoldCoord is the document-level gold coordinate, when the corpus
	// provides one. Nil otherwise.
	GoldCoord *topo.Coordinate
}

func NewDocument(id string, sentences []*Sentence) *Document {
	return &Document{ID: id, Sentences: sentences}
}

// Toponyms returns all toponyms of the document in sentence order.
func (d *Document) Toponyms() []*Toponym {
	toponyms := make([]*Toponym, 0)
	for _, sent := range d.Sentences {
		toponyms = append(toponyms, sent.Toponyms()...)
	}
	return toponyms
}

// Tokens returns all tokens of the document in sentence order.
func (d *Document) Tokens() []Token {
	tokens := make([]Token, 0)
	for _, sent := range d.Sentences {
		tokens = append(tokens, sent.Tokens...)
	}
	return tokens
}

// Corpus is an ordered collection of documents. Format travels with the
// corpus instead of living in process-wide state so independently loaded
// corpora can disagree about it.
type Corpus struct {
	Format    Format
	Documents []*Document
}

func NewCorpus(format Format, documents []*Document) *Corpus {
	return &Corpus{Format: format, Documents: documents}
}
