// Package storage persists imported corpora so a resolver can train on one
// corpus and disambiguate another across runs. Documents are msgpack-encoded,
// zstd-compressed and stored in bbolt, one bucket per corpus.
package storage

import (
	"encoding/binary"
	"sync"

	"github.com/benwing/fieldspring/pkg"
	"github.com/benwing/fieldspring/pkg/corpus"
	"github.com/benwing/fieldspring/pkg/topo"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

const (
	docsBucket = "docs"
	formatKey  = "format"
)

type CorpusStore struct {
	db  *bbolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	sync.Mutex
}

func NewCorpusStore(db *bbolt.DB) (*CorpusStore, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &CorpusStore{db: db, enc: enc, dec: dec}, nil
}

// SaveCorpus stores the corpus under the given name, replacing any previous
// corpus with that name.
func (s *CorpusStore) SaveCorpus(name string, c *corpus.Corpus) error {
	s.Lock()
	defer s.Unlock()
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(name)) != nil {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return err
			}
		}
		root, err := tx.CreateBucket([]byte(name))
		if err != nil {
			return err
		}

		formatBuf := make([]byte, 8)
		binary.LittleEndian.PutUint64(formatBuf, uint64(c.Format))
		if err := root.Put([]byte(formatKey), formatBuf); err != nil {
			return err
		}

		docs, err := root.CreateBucket([]byte(docsBucket))
		if err != nil {
			return err
		}
		for i, doc := range c.Documents {
			blob, err := s.serializeDocument(doc)
			if err != nil {
				return err
			}
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(i))
			if err := docs.Put(key, blob); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadCorpus reads back a corpus stored with SaveCorpus, preserving document
// order, gold indices and selected indices.
func (s *CorpusStore) LoadCorpus(name string) (*corpus.Corpus, error) {
	s.Lock()
	defer s.Unlock()

	var loaded *corpus.Corpus
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(name))
		if root == nil {
			return pkg.WrapErrorf(nil, pkg.ErrNotFound,
				"storage: corpus %s not found", name)
		}

		format := corpus.FormatPlain
		if formatBuf := root.Get([]byte(formatKey)); len(formatBuf) == 8 {
			format = corpus.Format(binary.LittleEndian.Uint64(formatBuf))
		}

		documents := make([]*corpus.Document, 0)
		docs := root.Bucket([]byte(docsBucket))
		if docs != nil {
			// Keys are big-endian indices, so the cursor yields document
			// order.
			cursor := docs.Cursor()
			for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
				doc, err := s.deserializeDocument(v)
				if err != nil {
					return err
				}
				documents = append(documents, doc)
			}
		}

		loaded = corpus.NewCorpus(format, documents)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

const (
	regionKindPoint = 0
	regionKindRect  = 1
)

type storedCoordinate struct {
	Lat float64 `msgpack:"lat"`
	Lng float64 `msgpack:"lng"`
}

type storedRegion struct {
	Kind   uint8   `msgpack:"kind"`
	MinLat float64 `msgpack:"minLat"`
	MaxLat float64 `msgpack:"maxLat"`
	MinLng float64 `msgpack:"minLng"`
	MaxLng float64 `msgpack:"maxLng"`
}

type storedLocation struct {
	ID         int          `msgpack:"id"`
	Name       string       `msgpack:"name"`
	Region     storedRegion `msgpack:"region"`
	Population int          `msgpack:"population"`
	Admin1Code string       `msgpack:"admin1"`
	Type       int          `msgpack:"type"`
}

type storedToken struct {
	Form        string           `msgpack:"form"`
	Toponym     bool             `msgpack:"toponym"`
	Candidates  []storedLocation `msgpack:"candidates"`
	GoldIdx     int              `msgpack:"goldIdx"`
	SelectedIdx int              `msgpack:"selectedIdx"`
}

type storedSentence struct {
	Tokens []storedToken `msgpack:"tokens"`
}

type storedDocument struct {
	ID        string            `msgpack:"id"`
	Sentences []storedSentence  `msgpack:"sentences"`
	GoldCoord *storedCoordinate `msgpack:"goldCoord"`
}

func (s *CorpusStore) serializeDocument(doc *corpus.Document) ([]byte, error) {
	stored := storedDocument{ID: doc.ID}
	if doc.GoldCoord != nil {
		stored.GoldCoord = &storedCoordinate{Lat: doc.GoldCoord.Lat, Lng: doc.GoldCoord.Lng}
	}
	for _, sent := range doc.Sentences {
		storedSent := storedSentence{Tokens: make([]storedToken, 0, len(sent.Tokens))}
		for _, token := range sent.Tokens {
			storedSent.Tokens = append(storedSent.Tokens, serializeToken(token))
		}
		stored.Sentences = append(stored.Sentences, storedSent)
	}

	raw, err := msgpack.Marshal(&stored)
	if err != nil {
		return nil, err
	}
	return s.enc.EncodeAll(raw, nil), nil
}

func (s *CorpusStore) deserializeDocument(blob []byte) (*corpus.Document, error) {
	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, err
	}
	var stored storedDocument
	if err := msgpack.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}

	sentences := make([]*corpus.Sentence, 0, len(stored.Sentences))
	for _, storedSent := range stored.Sentences {
		tokens := make([]corpus.Token, 0, len(storedSent.Tokens))
		for _, st := range storedSent.Tokens {
			tokens = append(tokens, deserializeToken(st))
		}
		sentences = append(sentences, corpus.NewSentence(tokens))
	}

	doc := corpus.NewDocument(stored.ID, sentences)
	if stored.GoldCoord != nil {
		coord := topo.NewCoordinateFromRadians(stored.GoldCoord.Lat, stored.GoldCoord.Lng)
		doc.GoldCoord = &coord
	}
	return doc, nil
}

func serializeToken(token corpus.Token) storedToken {
	t, ok := token.(*corpus.Toponym)
	if !ok {
		return storedToken{Form: token.Form(), GoldIdx: -1, SelectedIdx: -1}
	}

	st := storedToken{
		Form:        t.Form(),
		Toponym:     true,
		GoldIdx:     t.GoldIdx(),
		SelectedIdx: t.SelectedIdx(),
	}
	for _, candidate := range t.Candidates() {
		st.Candidates = append(st.Candidates, serializeLocation(candidate))
	}
	return st
}

func deserializeToken(st storedToken) corpus.Token {
	if !st.Toponym {
		return corpus.NewWord(st.Form)
	}

	candidates := make([]*topo.Location, 0, len(st.Candidates))
	for _, sl := range st.Candidates {
		candidates = append(candidates, deserializeLocation(sl))
	}
	t := corpus.NewToponymWithGold(st.Form, candidates, st.GoldIdx)
	t.SetSelectedIdx(st.SelectedIdx)
	return t
}

func serializeLocation(loc *topo.Location) storedLocation {
	region := loc.Region()
	stored := storedRegion{
		MinLat: region.MinLat(),
		MaxLat: region.MaxLat(),
		MinLng: region.MinLng(),
		MaxLng: region.MaxLng(),
	}
	if _, ok := region.(*topo.RectRegion); ok {
		stored.Kind = regionKindRect
	} else {
		stored.Kind = regionKindPoint
	}

	return storedLocation{
		ID:         loc.ID(),
		Name:       loc.Name(),
		Region:     stored,
		Population: loc.Population(),
		Admin1Code: loc.Admin1Code(),
		Type:       int(loc.Type()),
	}
}

func deserializeLocation(sl storedLocation) *topo.Location {
	var region topo.Region
	if sl.Region.Kind == regionKindRect {
		region = topo.NewRectRegionFromRadians(sl.Region.MinLat, sl.Region.MaxLat,
			sl.Region.MinLng, sl.Region.MaxLng)
	} else {
		region = topo.NewPointRegion(topo.NewCoordinateFromRadians(sl.Region.MinLat, sl.Region.MinLng))
	}
	return topo.NewLocation(sl.ID, sl.Name, region, sl.Population,
		sl.Admin1Code, topo.LocationType(sl.Type))
}
