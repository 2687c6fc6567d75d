// Package stats buckets containers by total piece count.
package stats

import "math"

// Bin is an inclusive piece range.
type Bin struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
}

// Contains reports whether n falls in the bin.
func (b Bin) Contains(n int) bool {
	return n >= b.Min && n <= b.Max
}

// Bins are the fixed, contiguous piece ranges. Order is significant.
var Bins = []Bin{
	{Label: "< 50", Min: 0, Max: 49},
	{Label: "50 - 99", Min: 50, Max: 99},
	{Label: "100 - 149", Min: 100, Max: 149},
	{Label: "150 - 199", Min: 150, Max: 199},
	{Label: "200 - 249", Min: 200, Max: 249},
	{Label: "≥ 250", Min: 250, Max: math.MaxInt},
}

// Count is the number of containers in one bin.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Histogram is the ordered bin counts. Every bin is present.
type Histogram []Count

// Total returns the sum of all counts.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c.Count
	}
	return n
}

// Get returns the count of a labelled bin.
func (h Histogram) Get(label string) int {
	for _, c := range h {
		if c.Label == label {
			return c.Count
		}
	}
	return 0
}

// Compute bins each value into the first range that contains it.
// Values below zero fall in no bin.
func Compute(values []int) Histogram {
	h := make(Histogram, len(Bins))
	for i, b := range Bins {
		h[i].Label = b.Label
	}
	for _, v := range values {
		for i, b := range Bins {
			if b.Contains(v) {
				h[i].Count++
				break
			}
		}
	}
	return h
}
