package textmetrics

// orderedCounts is a frequency table that iterates in first-insertion order.
// Go maps have no iteration order, and the keyword ranking relies on it for
// tie-breaking.
type orderedCounts struct {
	index  map[string]int
	keys   []string
	counts []int
}

func newOrderedCounts() *orderedCounts {
	return &orderedCounts{index: make(map[string]int)}
}

func (o *orderedCounts) increment(key string) {
	if i, ok := o.index[key]; ok {
		o.counts[i]++
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.counts = append(o.counts, 1)
}

func (o *orderedCounts) get(key string) int {
	if i, ok := o.index[key]; ok {
		return o.counts[i]
	}
	return 0
}

func (o *orderedCounts) len() int {
	return len(o.keys)
}

func (o *orderedCounts) each(fn func(key string, count int)) {
	for i, key := range o.keys {
		fn(key, o.counts[i])
	}
}
