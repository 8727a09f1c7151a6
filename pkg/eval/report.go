// Package eval scores a disambiguated corpus against a gold corpus.
package eval

import "sort"

// Report accumulates precision/recall bookkeeping for one evaluation run.
type Report struct {
	tp        int
	fp        int
	fn        int
	instances int
}

func NewReport() *Report {
	return &Report{}
}

func (r *Report) IncrementTP() {
	r.tp++
	r.instances++
}

func (r *Report) IncrementFP() {
	r.fp++
}

func (r *Report) IncrementFN() {
	r.fn++
}

// IncrementFPandFN records a matched toponym whose predicted location is
// wrong: one false positive and one false negative.
func (r *Report) IncrementFPandFN() {
	r.fp++
	r.fn++
	r.instances++
}

func (r *Report) IncrementInstanceCount() {
	r.instances++
}

func (r *Report) TP() int        { return r.tp }
func (r *Report) FP() int        { return r.fp }
func (r *Report) FN() int        { return r.fn }
func (r *Report) Instances() int { return r.instances }

func (r *Report) Precision() float64 {
	if r.tp+r.fp == 0 {
		return 0
	}
	return float64(r.tp) / float64(r.tp+r.fp)
}

func (r *Report) Recall() float64 {
	if r.tp+r.fn == 0 {
		return 0
	}
	return float64(r.tp) / float64(r.tp+r.fn)
}

func (r *Report) FMeasure() float64 {
	p := r.Precision()
	rec := r.Recall()
	if p+rec == 0 {
		return 0
	}
	return 2.0 * p * rec / (p + rec)
}

func (r *Report) Accuracy() float64 {
	if r.instances == 0 {
		return 0
	}
	return float64(r.tp) / float64(r.instances)
}

// Threshold under which a prediction counts as "close enough" in the
// fraction-within statistic: 100 miles in kilometers.
const CloseDistanceKm = 161.0

// DistanceReport accumulates the error-distance distribution of an
// evaluation run.
type DistanceReport struct {
	distances []float64
}

func NewDistanceReport() *DistanceReport {
	return &DistanceReport{}
}

func (dr *DistanceReport) AddDistance(dist float64) {
	dr.distances = append(dr.distances, dist)
}

func (dr *DistanceReport) Count() int {
	return len(dr.distances)
}

func (dr *DistanceReport) Min() float64 {
	min := 0.0
	for i, d := range dr.distances {
		if i == 0 || d < min {
			min = d
		}
	}
	return min
}

func (dr *DistanceReport) Max() float64 {
	max := 0.0
	for _, d := range dr.distances {
		if d > max {
			max = d
		}
	}
	return max
}

func (dr *DistanceReport) Mean() float64 {
	if len(dr.distances) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range dr.distances {
		sum += d
	}
	return sum / float64(len(dr.distances))
}

func (dr *DistanceReport) Median() float64 {
	if len(dr.distances) == 0 {
		return 0
	}
	sorted := make([]float64, len(dr.distances))
	copy(sorted, dr.distances)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2.0
	}
	return sorted[mid]
}

// FractionClose returns the fraction of predictions within CloseDistanceKm
// of the gold location.
func (dr *DistanceReport) FractionClose() float64 {
	if len(dr.distances) == 0 {
		return 0
	}
	within := 0
	for _, d := range dr.distances {
		if d <= CloseDistanceKm {
			within++
		}
	}
	return float64(within) / float64(len(dr.distances))
}
