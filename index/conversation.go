package index

import "github.com/sankooc/shark-go/model"

// Conversations aggregates connections sharing an (unordered) endpoint
// host pair, ignoring port. Membership is updated incrementally as
// connections are observed; totals are recomputed by Rebuild.
type Conversations struct {
	byKey map[model.ConversationKey]*model.Conversation
	order []model.ConversationKey
}

func NewConversations() *Conversations {
	return &Conversations{byKey: make(map[model.ConversationKey]*model.Conversation)}
}

func keyFor(a, b model.Ref) model.ConversationKey {
	if a <= b {
		return model.ConversationKey{HostA: a, HostB: b}
	}
	return model.ConversationKey{HostA: b, HostB: a}
}

// Update records conn's id under its host-pair aggregate, creating the
// aggregate on first sight. It folds in no counters (Rebuild computes the
// totals), so calling it again for the same connection changes nothing;
// the engine calls it for every TCP segment it ingests.
func (c *Conversations) Update(conn *model.Connection) {
	key := keyFor(conn.EP1.Host, conn.EP2.Host)
	agg, ok := c.byKey[key]
	if !ok {
		agg = &model.Conversation{Key: key}
		c.byKey[key] = agg
		c.order = append(c.order, key)
	}

	// Membership only; each connection is listed once.
	agg.ConnectionIDs = addIfMissing(agg.ConnectionIDs, conn.ID)
}

func addIfMissing(ids []model.ConnectionID, id model.ConnectionID) []model.ConnectionID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// Rebuild recomputes every aggregate's byte/segment/accuracy totals from
// the live connection set. Conversation counts are cheap enough (bounded
// by connection count, not frame count) to recompute wholesale on each
// query rather than maintain incrementally under retransmission/out-of-
// order adjustments.
func (c *Conversations) Rebuild(connections []*model.Connection) {
	byID := make(map[model.ConnectionID]*model.Connection, len(connections))
	for _, conn := range connections {
		byID[conn.ID] = conn
	}
	for _, agg := range c.byKey {
		agg.ABytes, agg.BBytes = 0, 0
		agg.ASegments, agg.BSegments = 0, 0
		var segBytes, deliveredBytes int64
		for _, id := range agg.ConnectionIDs {
			conn, ok := byID[id]
			if !ok {
				continue
			}
			if conn.EP1.Host == agg.Key.HostA {
				agg.ABytes += int64(conn.Dir1Stats.SegmentBytes)
				agg.BBytes += int64(conn.Dir2Stats.SegmentBytes)
				agg.ASegments += int64(conn.Dir1Stats.Segments)
				agg.BSegments += int64(conn.Dir2Stats.Segments)
			} else {
				agg.ABytes += int64(conn.Dir2Stats.SegmentBytes)
				agg.BBytes += int64(conn.Dir1Stats.SegmentBytes)
				agg.ASegments += int64(conn.Dir2Stats.Segments)
				agg.BSegments += int64(conn.Dir1Stats.Segments)
			}
			segBytes += int64(conn.Dir1Stats.SegmentBytes + conn.Dir2Stats.SegmentBytes)
			deliveredBytes += int64(conn.Dir1Stats.DeliveredBytes + conn.Dir2Stats.DeliveredBytes)
		}
		if segBytes > 0 {
			agg.ThroughputAccuracy = float64(deliveredBytes) / float64(segBytes)
		}
	}
}

// List returns every conversation aggregate, filtered by filter if it
// returns true (a nil filter returns everything).
func (c *Conversations) List(filter func(model.Conversation) bool) []model.Conversation {
	out := make([]model.Conversation, 0, len(c.order))
	for _, key := range c.order {
		agg := *c.byKey[key]
		if filter == nil || filter(agg) {
			out = append(out, agg)
		}
	}
	return out
}
