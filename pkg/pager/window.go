package pager

// DefaultWindowSize is the number of responses shown at once.
const DefaultWindowSize = 10

// Window is a contiguous slice of the response list ready for display.
type Window struct {
	// Start is the index of the first item in the full list.
	Start int

	// Items holds the responses in [Start, Start+len(Items)).
	Items []string
}

// Len returns the number of rows in the window.
func (w Window) Len() int {
	return len(w.Items)
}

// Render returns the window list[start, start+size), clamped to the list bounds.
// It never yields rows past the end of the list.
func Render(list []string, start, size int) Window {
	if size < 0 {
		size = 0
	}
	if start < 0 {
		start = 0
	}
	if start > len(list) {
		start = len(list)
	}

	end := start + size
	if end > len(list) {
		end = len(list)
	}

	items := make([]string, end-start)
	copy(items, list[start:end])

	return Window{Start: start, Items: items}
}

// lastWindowStart returns the start index of the last window of a list of n items.
func lastWindowStart(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return ((n - 1) / size) * size
}

// clampStart keeps start a multiple of size inside a list of n items.
func clampStart(start, n, size int) int {
	if start < 0 {
		return 0
	}
	if last := lastWindowStart(n, size); start > last {
		return last
	}
	return start
}
