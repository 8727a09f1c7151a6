package pkg

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Lexicon is a bijective mapping between toponym surface forms and dense
// integer indices in [0, Size()). Indices are stable once assigned and never
// reused, so they can be used to index parallel weight/count arrays.
type Lexicon struct {
	strToID map[string]int
	idToStr map[int]string
	sync.Mutex
}

func NewLexicon() *Lexicon {
	return &Lexicon{
		strToID: make(map[string]int),
		idToStr: make(map[int]string),
	}
}

// GetOrAdd returns the index of form, assigning the next free index if the
// form has not been seen before.
func (lex *Lexicon) GetOrAdd(form string) int {
	lex.Lock()
	defer lex.Unlock()
	if id, ok := lex.strToID[form]; ok {
		return id
	}

	id := len(lex.strToID)
	lex.strToID[form] = id
	lex.idToStr[id] = form

	return id
}

// Get returns the index of form, or -1 if the form is unknown.
func (lex *Lexicon) Get(form string) int {
	lex.Lock()
	defer lex.Unlock()
	if id, ok := lex.strToID[form]; ok {
		return id
	}
	return -1
}

func (lex *Lexicon) GetStr(id int) string {
	lex.Lock()
	defer lex.Unlock()
	if str, ok := lex.idToStr[id]; ok {
		return str
	}
	return ""
}

func (lex *Lexicon) Size() int {
	lex.Lock()
	defer lex.Unlock()
	return len(lex.strToID)
}

// Restore inserts a form with an explicit index, used when reloading a
// persisted lexicon. The caller is responsible for index consistency.
func (lex *Lexicon) Restore(form string, id int) {
	lex.Lock()
	defer lex.Unlock()
	lex.strToID[form] = id
	lex.idToStr[id] = form
}

func (lex *Lexicon) SortedForms() []string {
	lex.Lock()
	defer lex.Unlock()
	sortedForms := make([]string, 0, len(lex.strToID))
	for form := range lex.strToID {
		sortedForms = append(sortedForms, form)
	}
	sort.Strings(sortedForms)
	return sortedForms
}

// error

type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s", e.msg)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func (e *Error) Code() error {
	return e.code
}

var (
	ErrInternalServerError = errors.New("internal Server Error")
	ErrNotFound            = errors.New("your requested Item is not found")
	ErrBadParamInput       = errors.New("given Param is not valid")
	ErrMalformedFile       = errors.New("malformed file")
)
