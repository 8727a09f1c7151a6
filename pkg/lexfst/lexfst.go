// Package lexfst persists a toponym lexicon as a finite state transducer
// mapping surface forms to their lexicon indices. Stored beside a weights
// file, it keeps cross-run weight records aligned to the forms that produced
// them.
package lexfst

import (
	"errors"
	"os"

	"github.com/benwing/fieldspring/pkg"

	"github.com/blevesearch/vellum"
)

// Save writes the lexicon to path as an FST. Forms are inserted in sorted
// order as vellum requires; the stored value is the form's lexicon index.
func Save(lex *pkg.Lexicon, path string) error {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer file.Close()

	fstBuilder, err := vellum.New(file, nil)
	if err != nil {
		return err
	}
	for _, form := range lex.SortedForms() {
		if err := fstBuilder.Insert([]byte(form), uint64(lex.Get(form))); err != nil {
			return err
		}
	}
	return fstBuilder.Close()
}

// Load rebuilds a lexicon from an FST written by Save, with identical index
// assignments.
func Load(path string) (*pkg.Lexicon, error) {
	fst, err := vellum.Open(path)
	if err != nil {
		return nil, err
	}
	defer fst.Close()

	lex := pkg.NewLexicon()
	itr, err := fst.Iterator(nil, nil)
	for err == nil {
		form, index := itr.Current()
		lex.Restore(string(form), int(index))
		err = itr.Next()
	}
	if !errors.Is(err, vellum.ErrIteratorDone) {
		return nil, err
	}
	return lex, nil
}
