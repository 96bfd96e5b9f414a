package index

import "github.com/sankooc/shark-go/model"

// Histogram buckets frames by time (default: 100 buckets of equal time
// width across the capture span) and per top-protocol,
// for stacked-area charts (§4.5).
type Histogram struct {
	buckets int
}

func NewHistogram(buckets int) *Histogram {
	if buckets <= 0 {
		buckets = 100
	}
	return &Histogram{buckets: buckets}
}

// Build computes equal-time-width buckets spanning [firstUs, lastUs] from
// the given frame summaries. Frames are assumed already in file order.
func (h *Histogram) Build(summaries []model.FrameSummary) []model.HistogramBucket {
	if len(summaries) == 0 {
		return nil
	}

	firstUs := summaries[0].TimestampUs
	lastUs := summaries[len(summaries)-1].TimestampUs
	span := lastUs - firstUs
	if span <= 0 {
		span = 1
	}
	width := span / int64(h.buckets)
	if width <= 0 {
		width = 1
	}

	out := make([]model.HistogramBucket, h.buckets)
	for i := range out {
		out[i] = model.HistogramBucket{
			StartUs: firstUs + int64(i)*width,
			EndUs:   firstUs + int64(i+1)*width,
			Counts:  make(map[string]int),
		}
	}
	out[len(out)-1].EndUs = lastUs + 1

	for _, s := range summaries {
		idx := int((s.TimestampUs - firstUs) / width)
		if idx >= len(out) {
			idx = len(out) - 1
		}
		if idx < 0 {
			idx = 0
		}
		proto := s.TopProtocol
		if proto == "" {
			proto = "unknown"
		}
		out[idx].Counts[proto]++
	}

	return out
}
