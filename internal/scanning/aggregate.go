package scanning

// Merge copies every host of src into dst. A host already present in dst is
// replaced wholesale by the later record.
func Merge(dst, src ResultSet) {
	for addr, host := range src {
		dst[addr] = host
	}
}

// Aggregator accumulates per-target results over one run.
type Aggregator struct {
	results   ResultSet
	attempted int
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{results: make(ResultSet)}
}

// Attempt counts one target, whatever its outcome.
func (a *Aggregator) Attempt() {
	a.attempted++
}

// Merge folds the results of one target into the run.
func (a *Aggregator) Merge(found ResultSet) {
	Merge(a.results, found)
}

// Attempted returns the number of targets counted so far.
func (a *Aggregator) Attempted() int {
	return a.attempted
}

// Results returns the accumulated result set.
func (a *Aggregator) Results() ResultSet {
	return a.results
}
