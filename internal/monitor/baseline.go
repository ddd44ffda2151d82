package monitor

import "sync"

// volumeWindow is a bounded ring of the most recent volume samples for one
// symbol.
type volumeWindow struct {
	buf []int64
	idx int
}

// Baselines tracks a bounded FIFO window of recent volume samples per
// symbol and derives the moving average used for spike detection. Windows
// are created lazily on first sighting of a symbol.
type Baselines struct {
	mu         sync.Mutex
	window     int
	minSamples int
	states     map[string]*volumeWindow
}

// NewBaselines creates a tracker with the given window capacity and
// minimum sample count.
func NewBaselines(window, minSamples int) *Baselines {
	return &Baselines{
		window:     window,
		minSamples: minSamples,
		states:     make(map[string]*volumeWindow),
	}
}

// Observe records a volume sample for the symbol and returns the moving
// average of the samples seen before this one. ok is false until the
// minimum sample count has been reached; an undefined average means no
// spike is possible. The current sample only enters the window for
// subsequent calls, never the average it is judged against.
func (b *Baselines) Observe(symbol string, volume int64) (avg float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, exists := b.states[symbol]
	if !exists {
		w = &volumeWindow{}
		b.states[symbol] = w
	}

	if len(w.buf) >= b.minSamples {
		var sum int64
		for _, v := range w.buf {
			sum += v
		}
		avg = float64(sum) / float64(len(w.buf))
		ok = true
	}

	if len(w.buf) < b.window {
		w.buf = append(w.buf, volume)
	} else {
		w.buf[w.idx] = volume
	}
	w.idx = (w.idx + 1) % b.window

	return avg, ok
}

// SampleCount returns the number of retained samples for a symbol.
func (b *Baselines) SampleCount(symbol string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, exists := b.states[symbol]; exists {
		return len(w.buf)
	}
	return 0
}
