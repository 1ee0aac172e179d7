package app

import (
	"ecttool/domain/survival"
)

const (
	pValuePrefix = "logrank pValue: "

	// The BMI facets are drawn with narrower bars and get their own spacing.
	bmiAttribute = "bmi_status"

	singleAnnotationX = 0.05
	singleAnnotationY = 0.05
	columnAnnotationY = 0.05
	firstColumnOffset = 0.01
	rowAnnotationX    = 50
	rowAnnotationY    = 1.01
)

// offsetSchedule places column facet annotations in paper coordinates: the
// first at start, each next one a step further. Once the steps run out the
// offset holds.
type offsetSchedule struct {
	start float64
	steps []float64
}

// columnSchedules are hand-tuned against the rendered figure and keyed by
// facet count. Counts missing here stack every annotation at the first offset.
// Steps: n<4 adds (1+e)/n+0.2 with e starting at 0.25 and growing 0.015 per
// facet; n=4 adds 1/n, then 1/n+0.7/n, then 1/n; n=5 adds 1/n+0.005 with an
// extra 0.075 before the third and 0.08 before the fourth.
var columnSchedules = map[int]offsetSchedule{
	1: {start: firstColumnOffset},
	2: {start: firstColumnOffset, steps: []float64{(1+0.25)/2 + 0.2}},
	3: {start: firstColumnOffset, steps: []float64{(1+0.25)/3 + 0.2, (1+0.265)/3 + 0.2}},
	4: {start: firstColumnOffset, steps: []float64{1.0 / 4, 1.0/4 + 0.7/4, 1.0 / 4}},
	5: {start: firstColumnOffset, steps: []float64{1.0/5 + 0.005, 1.0/5 + 0.005 + 0.075, 1.0/5 + 0.005 + 0.08, 1.0/5 + 0.005}},
}

// bmiSchedule starts one facet width in, at 0.01+1/n, then adds 1.02/n and
// 0.75/n.
func bmiSchedule(n int) offsetSchedule {
	f := float64(n)
	return offsetSchedule{start: firstColumnOffset + 1/f, steps: []float64{1.02 / f, 0.75 / f}}
}

func scheduleFor(facetColumn string, n int) offsetSchedule {
	if facetColumn == bmiAttribute {
		return bmiSchedule(n)
	}
	if s, ok := columnSchedules[n]; ok {
		return s
	}
	return offsetSchedule{start: firstColumnOffset}
}

func (o offsetSchedule) positions(n int) []float64 {
	out := make([]float64, n)
	x := o.start
	for i := range out {
		if i > 0 && i-1 < len(o.steps) {
			x += o.steps[i-1]
		}
		out[i] = x
	}
	return out
}

// ColumnOffsets returns the horizontal paper offsets of n column facet
// annotations.
func ColumnOffsets(facetColumn string, n int) []float64 {
	if n <= 0 {
		return nil
	}
	return scheduleFor(facetColumn, n).positions(n)
}

// LayoutAnnotations positions one p-value label per compared panel. facets
// lists every drawn panel in order; a panel without a significance result
// keeps its slot but gets no label.
func LayoutAnnotations(layout survival.FacetMode, facetColumn string, facets []string, significance []survival.Significance) survival.AnnotationSet {
	set := survival.AnnotationSet{Mode: layout, Items: []survival.Annotation{}}
	byFacet := make(map[string]survival.LogRankResult, len(significance))
	for _, sig := range significance {
		byFacet[sig.Facet] = sig.Result
	}

	switch layout {
	case survival.FacetNone:
		if r, ok := byFacet[""]; ok {
			set.Items = append(set.Items, survival.Annotation{
				Text: pValuePrefix + r.Formatted(),
				X:    singleAnnotationX,
				Y:    singleAnnotationY,
				XRef: "paper",
				YRef: "paper",
			})
		}
	case survival.FacetColumn:
		xs := ColumnOffsets(facetColumn, len(facets))
		for i, f := range facets {
			r, ok := byFacet[f]
			if !ok {
				continue
			}
			set.Items = append(set.Items, survival.Annotation{
				Facet: f,
				Text:  pValuePrefix + r.Formatted(),
				X:     xs[i],
				Y:     columnAnnotationY,
				XRef:  "paper",
				YRef:  "paper",
				Col:   i + 1,
			})
		}
	case survival.FacetRow:
		for i, f := range facets {
			r, ok := byFacet[f]
			if !ok {
				continue
			}
			set.Items = append(set.Items, survival.Annotation{
				Facet: f,
				Text:  pValuePrefix + r.Formatted(),
				X:     rowAnnotationX,
				Y:     rowAnnotationY,
				XRef:  "x",
				YRef:  "y",
				Row:   i + 1,
				Col:   1,
			})
		}
	}
	return set
}
