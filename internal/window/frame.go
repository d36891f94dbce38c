package window

// Frame is an inclusive range of partition-relative positions
type Frame struct {
	Start int
	End   int
}

// Len returns the number of positions in the frame
func (f Frame) Len() int {
	if f.End < f.Start {
		return 0
	}
	return f.End - f.Start + 1
}

// rollingFrame returns the trailing frame of size rows ending at position p
func rollingFrame(p, size int) Frame {
	return Frame{Start: max(0, p-size+1), End: p}
}

// wholeFrame spans a partition of n rows
func wholeFrame(n int) Frame {
	return Frame{Start: 0, End: n - 1}
}

// partitionResult holds the output of one partition, aligned with Group.Rows
type partitionResult struct {
	values   []float64
	valid    []bool
	failures []error
}

func newPartitionResult(n int) partitionResult {
	return partitionResult{
		values: make([]float64, n),
		valid:  make([]bool, n),
	}
}

func (r *partitionResult) set(p int, v float64, ok bool) {
	if ok {
		r.values[p] = v
		r.valid[p] = true
	}
}

// gather copies the valid values of the frame, in position order, into buf
func gather(buf []float64, values []float64, valid []bool, f Frame) []float64 {
	buf = buf[:0]
	for p := f.Start; p <= f.End; p++ {
		if valid[p] {
			buf = append(buf, values[p])
		}
	}
	return buf
}
