package resolver

import (
	"bufio"
	"encoding/binary"
	"os"

	"github.com/benwing/fieldspring/pkg"
)

// The binary weights file holds one record per lexicon index in insertion
// order: a big-endian int32 candidate count n (0 = no data for that type),
// followed by n float64 weights normalized to sum to n. The file is written
// by ProbabilisticResolver and consumed by WeightedMinDistResolver; both
// sides must build their lexicon from corpora presenting toponym types in
// the same order.

// ReadWeights reads lexiconSize records from the weights file. A short or
// corrupt file is a hard error; there is no partial recovery.
func ReadWeights(path string, lexiconSize int) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pkg.WrapErrorf(err, pkg.ErrNotFound, "weights: opening %s", path)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	weights := make([][]float64, 0, lexiconSize)
	for i := 0; i < lexiconSize; i++ {
		var ambiguity int32
		if err := binary.Read(reader, binary.BigEndian, &ambiguity); err != nil {
			return nil, pkg.WrapErrorf(err, pkg.ErrMalformedFile,
				"weights: reading record %d of %s", i, path)
		}
		record := make([]float64, ambiguity)
		for j := int32(0); j < ambiguity; j++ {
			if err := binary.Read(reader, binary.BigEndian, &record[j]); err != nil {
				return nil, pkg.WrapErrorf(err, pkg.ErrMalformedFile,
					"weights: reading record %d of %s", i, path)
			}
		}
		weights = append(weights, record)
	}
	return weights, nil
}

// WriteWeights writes one record per lexicon index. Each non-empty record is
// renormalized so its weights sum to the candidate count (average 1.0,
// directly usable as a multiplicative prior); a record whose raw sum is 0 is
// written as literal 1.0 values.
func WriteWeights(path string, lex *pkg.Lexicon, dists [][]float64) error {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for i := 0; i < lex.Size(); i++ {
		var record []float64
		if i < len(dists) {
			record = dists[i]
		}
		if err := binary.Write(writer, binary.BigEndian, int32(len(record))); err != nil {
			return err
		}
		if len(record) == 0 {
			continue
		}

		sum := 0.0
		for _, w := range record {
			sum += w
		}
		for _, w := range record {
			normalized := 1.0
			if sum > 0 {
				normalized = w / sum * float64(len(record))
			}
			if err := binary.Write(writer, binary.BigEndian, normalized); err != nil {
				return err
			}
		}
	}
	return writer.Flush()
}
