package index

import (
	"testing"

	"github.com/sankooc/shark-go/model"
)

func TestHistogramBuildBucketsByProtocol(t *testing.T) {
	h := NewHistogram(10)
	summaries := []model.FrameSummary{
		{TimestampUs: 0, TopProtocol: "tcp"},
		{TimestampUs: 500, TopProtocol: "udp"},
		{TimestampUs: 999, TopProtocol: "tcp"},
	}

	buckets := h.Build(summaries)
	if len(buckets) != 10 {
		t.Fatalf("expected 10 buckets, got %d", len(buckets))
	}

	total := 0
	for _, b := range buckets {
		for _, n := range b.Counts {
			total += n
		}
	}
	if total != len(summaries) {
		t.Fatalf("expected every frame counted exactly once, got %d", total)
	}
}

func TestHistogramBuildEmpty(t *testing.T) {
	h := NewHistogram(10)
	if out := h.Build(nil); out != nil {
		t.Fatalf("expected nil for no frames, got %v", out)
	}
}

func TestHistogramSingleTimestamp(t *testing.T) {
	h := NewHistogram(5)
	summaries := []model.FrameSummary{
		{TimestampUs: 42, TopProtocol: "dns"},
	}
	buckets := h.Build(summaries)
	total := 0
	for _, b := range buckets {
		total += b.Counts["dns"]
	}
	if total != 1 {
		t.Fatalf("expected the single frame to land in exactly one bucket, got %d", total)
	}
}
