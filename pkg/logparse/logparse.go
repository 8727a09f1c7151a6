// Package logparse reads the log output of a document-geolocation run and
// extracts, per document, the predicted coordinate and a probability
// distribution over predicted grid cells. Only `#`-prefixed marker lines
// matching the known record patterns are interpreted; everything else is
// skipped.
package logparse

import (
	"bufio"
	"io"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/benwing/fieldspring/pkg/topo"
)

var (
	docHeaderRe = regexp.MustCompile(`^#[0-9]*\s*Document\s+(\S+)\s+at\s+\((-?[0-9.]+),(-?[0-9.]+)\):`)

	// Two historical schemas for the predicted-cell lines. Older logs carry
	// kl-div scores and GeoCell rectangles, newer ones neg-score and bare
	// bracketed rectangles. Both are first-class formats.
	predCellOldRe = regexp.MustCompile(`Predicted cell \(at rank ([0-9]+), kl-div (-?[0-9.eE+]+)\): GeoCell\(\((-?[0-9.]+),(-?[0-9.]+)\)-\((-?[0-9.]+),(-?[0-9.]+)\)`)
	predCellNewRe = regexp.MustCompile(`Predicted cell at rank ([0-9]+), neg-score (-?[0-9.eE+]+): \[\((-?[0-9.]+),(-?[0-9.]+)\) to \((-?[0-9.]+),(-?[0-9.]+)\)\]`)

	neighborRe  = regexp.MustCompile(`close neighbor:`)
	predPointRe = regexp.MustCompile(`central point.*?\((-?[0-9.]+),(-?[0-9.]+)\)`)
	avgDistRe   = regexp.MustCompile(`Average distance`)
)

// CellProb is one predicted grid cell with its normalized probability mass.
type CellProb struct {
	Rank int
	Rect *topo.RectRegion
	Prob float64
}

// PredictedDocument is the record of one document in a geolocation log.
type PredictedDocument struct {
	ID string
	// TrueCoord is the document coordinate printed in the header line.
	TrueCoord *topo.Coordinate
	// PredCoord is the predicted central point, used by distance backoff.
	PredCoord *topo.Coordinate
	Cells     []CellProb
}

type rawCell struct {
	rank  int
	score float64
	rect  *topo.RectRegion
}

type lineKind int

const (
	lineUnparsed lineKind = iota
	lineDocHeader
	linePredCell
	lineNeighbor
	linePredPoint
	lineAvgDist
)

type parsedLine struct {
	kind   lineKind
	groups []string
}

// classifyLine tries each known pattern in turn. Lines matching none of them
// are reported as unparsed, never as an error.
func classifyLine(line string) parsedLine {
	if m := docHeaderRe.FindStringSubmatch(line); m != nil {
		return parsedLine{kind: lineDocHeader, groups: m}
	}
	if m := predCellOldRe.FindStringSubmatch(line); m != nil {
		return parsedLine{kind: linePredCell, groups: m}
	}
	if m := predCellNewRe.FindStringSubmatch(line); m != nil {
		return parsedLine{kind: linePredCell, groups: m}
	}
	if neighborRe.MatchString(line) {
		return parsedLine{kind: lineNeighbor}
	}
	if m := predPointRe.FindStringSubmatch(line); m != nil {
		return parsedLine{kind: linePredPoint, groups: m}
	}
	if avgDistRe.MatchString(line) {
		return parsedLine{kind: lineAvgDist}
	}
	return parsedLine{kind: lineUnparsed}
}

// Parse reads a geolocation log and returns the per-document records keyed
// by document ID. topK restricts the cell distribution to the lowest-rank
// cells; topK <= 0 keeps every rank present in the log.
func Parse(r io.Reader, topK int) (map[string]*PredictedDocument, error) {
	docs := make(map[string]*PredictedDocument)

	var cur *PredictedDocument
	var curCells []rawCell

	finish := func() {
		if cur == nil {
			return
		}
		cur.Cells = normalizeCells(curCells, topK)
		docs[cur.ID] = cur
		cur = nil
		curCells = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		parsed := classifyLine(line)
		switch parsed.kind {
		case lineDocHeader:
			finish()
			lat, _ := strconv.ParseFloat(parsed.groups[2], 64)
			lng, _ := strconv.ParseFloat(parsed.groups[3], 64)
			coord := topo.NewCoordinateFromDegrees(lat, lng)
			cur = &PredictedDocument{ID: parsed.groups[1], TrueCoord: &coord}
		case linePredCell:
			if cur == nil {
				continue
			}
			rank, _ := strconv.Atoi(parsed.groups[1])
			score, _ := strconv.ParseFloat(parsed.groups[2], 64)
			lat1, _ := strconv.ParseFloat(parsed.groups[3], 64)
			lng1, _ := strconv.ParseFloat(parsed.groups[4], 64)
			lat2, _ := strconv.ParseFloat(parsed.groups[5], 64)
			lng2, _ := strconv.ParseFloat(parsed.groups[6], 64)
			curCells = append(curCells, rawCell{
				rank:  rank,
				score: score,
				rect:  topo.NewRectRegionFromDegrees(lat1, lat2, lng1, lng2),
			})
		case linePredPoint:
			if cur == nil {
				continue
			}
			lat, _ := strconv.ParseFloat(parsed.groups[1], 64)
			lng, _ := strconv.ParseFloat(parsed.groups[2], 64)
			coord := topo.NewCoordinateFromDegrees(lat, lng)
			cur.PredCoord = &coord
		case lineAvgDist:
			finish()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// A log truncated before its terminator still yields the last document.
	finish()

	return docs, nil
}

func ParseFile(path string, topK int) (map[string]*PredictedDocument, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file, topK)
}

// normalizeCells converts negative-divergence scores into a probability
// distribution with weight = exp(-score), normalized to sum 1 over the
// retained ranks.
func normalizeCells(cells []rawCell, topK int) []CellProb {
	if len(cells) == 0 {
		return nil
	}

	sort.SliceStable(cells, func(i, j int) bool {
		return cells[i].rank < cells[j].rank
	})
	if topK > 0 && topK < len(cells) {
		cells = cells[:topK]
	}

	weights := make([]float64, len(cells))
	total := 0.0
	for i, cell := range cells {
		weights[i] = math.Exp(-cell.score)
		total += weights[i]
	}

	out := make([]CellProb, len(cells))
	for i, cell := range cells {
		prob := 0.0
		if total > 0 {
			prob = weights[i] / total
		}
		out[i] = CellProb{Rank: cell.rank, Rect: cell.rect, Prob: prob}
	}
	return out
}
