package index

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sankooc/shark-go/model"
)

func TestDNSTablePagination(t *testing.T) {
	tbl := NewDNSTable()
	for i := 0; i < 5; i++ {
		tbl.Append(model.DNSRecord{QueryName: "host"})
	}
	if tbl.Len() != 5 {
		t.Fatalf("expected 5 records, got %d", tbl.Len())
	}
	page := tbl.List(2, 2)
	if len(page) != 2 {
		t.Fatalf("expected a page of 2, got %d", len(page))
	}
	if _, ok := tbl.At(100); ok {
		t.Fatal("out-of-range At should report not found")
	}
}

func TestDNSTableFindByNameSubstring(t *testing.T) {
	tbl := NewDNSTable()
	tbl.Append(model.DNSRecord{QueryName: "example.com"})
	tbl.Append(model.DNSRecord{QueryName: "Example.org"})
	tbl.Append(model.DNSRecord{QueryName: "other.net"})

	matches := tbl.FindByNameSubstring("EXAMPLE")
	if len(matches) != 2 {
		t.Fatalf("expected 2 case-insensitive matches, got %d", len(matches))
	}
}

func TestPaginateEmptyAndOverrun(t *testing.T) {
	items := []int{1, 2, 3}
	if out := paginate(items, 0, 0); len(out) != 3 {
		t.Fatalf("limit 0 should mean unbounded, got %d", len(out))
	}
	if out := paginate(items, 10, 1); out != nil {
		t.Fatalf("offset beyond length should return nil, got %v", out)
	}
	if out := paginate(items, 1, 100); len(out) != 2 {
		t.Fatalf("limit overrunning the slice should clamp, got %d", len(out))
	}
}

func TestConversationsRebuild(t *testing.T) {
	convs := NewConversations()

	hostA := model.Ref(1)
	hostB := model.Ref(2)

	conn := &model.Connection{
		ID:     1,
		EP1:    model.Endpoint{Host: hostA, Port: 1111},
		EP2:    model.Endpoint{Host: hostB, Port: 80},
		Active: true,
		Dir1Stats: model.DirectionStats{Segments: 3, SegmentBytes: 100, DeliveredBytes: 90},
		Dir2Stats: model.DirectionStats{Segments: 5, SegmentBytes: 200, DeliveredBytes: 200},
	}
	convs.Update(conn)
	convs.Rebuild([]*model.Connection{conn})

	list := convs.List(nil)
	if len(list) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(list))
	}
	agg := list[0]
	if agg.ABytes != 100 || agg.BBytes != 200 {
		t.Fatalf("unexpected byte totals: A=%d B=%d", agg.ABytes, agg.BBytes)
	}
	if agg.ASegments != 3 || agg.BSegments != 5 {
		t.Fatalf("unexpected segment totals: A=%d B=%d", agg.ASegments, agg.BSegments)
	}
	want := float64(290) / float64(300)
	if agg.ThroughputAccuracy != want {
		t.Fatalf("expected throughput accuracy %.4f, got %.4f", want, agg.ThroughputAccuracy)
	}
}

func TestConversationsListIsStableAcrossRebuilds(t *testing.T) {
	convs := NewConversations()
	conn := &model.Connection{
		ID:     1,
		EP1:    model.Endpoint{Host: model.Ref(1), Port: 1111},
		EP2:    model.Endpoint{Host: model.Ref(2), Port: 80},
		Active: true,
	}
	convs.Update(conn)

	before := convs.List(nil)
	convs.Rebuild([]*model.Connection{conn})
	after := convs.List(nil)

	if len(before) != len(after) {
		t.Fatalf("rebuild changed the number of conversations: %d vs %d", len(before), len(after))
	}
	if diff := cmp.Diff(before[0].Key, after[0].Key); diff != "" {
		t.Fatalf("conversation key changed across rebuild (-before +after):\n%s", diff)
	}
}

func TestConversationsKeyIsUnordered(t *testing.T) {
	a, b := model.Ref(5), model.Ref(9)
	if keyFor(a, b) != keyFor(b, a) {
		t.Fatal("keyFor must be symmetric regardless of host order")
	}
}
