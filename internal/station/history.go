package station

import "github.com/belly1v123/weatherStationESP32/internal/environment"

// history is a fixed-capacity ring of enriched readings, oldest evicted first
type history struct {
	items []*environment.EnrichedReading
	start int
	size  int
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = 1
	}
	return &history{items: make([]*environment.EnrichedReading, capacity)}
}

func (h *history) push(r *environment.EnrichedReading) {
	capacity := len(h.items)
	if h.size < capacity {
		h.items[(h.start+h.size)%capacity] = r
		h.size++
		return
	}
	h.items[h.start] = r
	h.start = (h.start + 1) % capacity
}

func (h *history) len() int {
	return h.size
}

// each visits readings oldest first
func (h *history) each(fn func(*environment.EnrichedReading)) {
	for i := 0; i < h.size; i++ {
		fn(h.items[(h.start+i)%len(h.items)])
	}
}

func (h *history) last() *environment.EnrichedReading {
	if h.size == 0 {
		return nil
	}
	return h.items[(h.start+h.size-1)%len(h.items)]
}

func (h *history) readings() []*environment.EnrichedReading {
	out := make([]*environment.EnrichedReading, 0, h.size)
	h.each(func(r *environment.EnrichedReading) { out = append(out, r) })
	return out
}

func (h *history) samples() []environment.Sample {
	out := make([]environment.Sample, 0, h.size)
	h.each(func(r *environment.EnrichedReading) { out = append(out, r.Sample()) })
	return out
}
