package pulsemon

// FilterWindow is the number of raw samples in the running average
const FilterWindow = 16

// RunningAverage is a small ring of raw samples with a running sum.
// Its output is the residual average - sample, which rises when the
// raw intensity dips below its recent mean. This is not a true DC filter.
type RunningAverage struct {
	Values [FilterWindow]float64
	Sum    float64
	Avg    float64
	Count  int // filled slots, saturates at FilterWindow
	Index  int // next slot to overwrite
}

// Filter adds a raw sample and returns the residual
func (ra *RunningAverage) Filter(sample float64) float64 {
	ra.Sum += sample - ra.Values[ra.Index]
	ra.Values[ra.Index] = sample

	ra.Index = (ra.Index + 1) % FilterWindow
	ra.Count = min(ra.Count+1, FilterWindow)

	ra.Avg = ra.Sum / float64(ra.Count)
	return ra.Avg - sample
}
