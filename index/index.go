// Package index implements the cross-frame indices (component G, §4.5):
// the DNS, HTTP, and TLS record tables, the host-pair conversation
// aggregation, and the frame-count histogram. Every table is append-only
// and populated as a side effect of dissection, in frame order.
package index

import (
	"strings"

	"github.com/sankooc/shark-go/model"
)

// DNSTable is the query/answer table: one entry per parsed DNS message,
// looked up by ordinal or by a name substring. It has no lookup by frame
// index; a frame's entries are listed in its Frame.DNSRecordIndexes.
type DNSTable struct {
	records []model.DNSRecord
}

func NewDNSTable() *DNSTable { return &DNSTable{} }

func (t *DNSTable) Append(r model.DNSRecord) int {
	t.records = append(t.records, r)
	return len(t.records) - 1
}

func (t *DNSTable) Len() int { return len(t.records) }

func (t *DNSTable) At(i int) (model.DNSRecord, bool) {
	if i < 0 || i >= len(t.records) {
		return model.DNSRecord{}, false
	}
	return t.records[i], true
}

func (t *DNSTable) List(offset, limit int) []model.DNSRecord {
	return paginate(t.records, offset, limit)
}

// FindByNameSubstring returns every record whose query name contains sub.
func (t *DNSTable) FindByNameSubstring(sub string) []model.DNSRecord {
	var out []model.DNSRecord
	for _, r := range t.records {
		if strings.Contains(strings.ToLower(r.QueryName), strings.ToLower(sub)) {
			out = append(out, r)
		}
	}
	return out
}

// HTTPTable is the request/response table: appended when TCP reassembly
// completes a message; carries the owning connection id and direction.
type HTTPTable struct {
	messages []model.HTTPMessage
}

func NewHTTPTable() *HTTPTable { return &HTTPTable{} }

func (t *HTTPTable) Append(m model.HTTPMessage) int {
	t.messages = append(t.messages, m)
	return len(t.messages) - 1
}

func (t *HTTPTable) Len() int { return len(t.messages) }

func (t *HTTPTable) At(i int) (model.HTTPMessage, bool) {
	if i < 0 || i >= len(t.messages) {
		return model.HTTPMessage{}, false
	}
	return t.messages[i], true
}

func (t *HTTPTable) List(offset, limit int) []model.HTTPMessage {
	return paginate(t.messages, offset, limit)
}

// ByConnection returns every message belonging to connID, in table order
// (i.e. frame order), so request/response pairs can be recovered.
func (t *HTTPTable) ByConnection(connID model.ConnectionID) []model.HTTPMessage {
	var out []model.HTTPMessage
	for _, m := range t.messages {
		if m.ConnectionID == connID {
			out = append(out, m)
		}
	}
	return out
}

// TLSTable is the per-record table appended during TCP stream delivery.
type TLSTable struct {
	records []model.TLSHandshakeRecord
}

func NewTLSTable() *TLSTable { return &TLSTable{} }

func (t *TLSTable) Append(r model.TLSHandshakeRecord) int {
	t.records = append(t.records, r)
	return len(t.records) - 1
}

func (t *TLSTable) Len() int { return len(t.records) }

func (t *TLSTable) At(i int) (model.TLSHandshakeRecord, bool) {
	if i < 0 || i >= len(t.records) {
		return model.TLSHandshakeRecord{}, false
	}
	return t.records[i], true
}

func (t *TLSTable) List(offset, limit int) []model.TLSHandshakeRecord {
	return paginate(t.records, offset, limit)
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
