// Package conversation derives per-peer views from the flat message log.
// Everything here is a pure function of its inputs; nothing is cached.
package conversation

import (
	"sort"

	"github.com/campusbridge/marketplace-backend/internal/domain"
)

// Conversations maps a peer id to that peer's messages, oldest first
type Conversations map[string][]*domain.Message

// Project groups every message touching viewerID by the other participant.
// Each group is sorted by timestamp; equal timestamps keep log order.
func Project(log []*domain.Message, viewerID string) Conversations {
	out := make(Conversations)
	for _, m := range log {
		if !m.Involves(viewerID) {
			continue
		}
		peer := m.PeerOf(viewerID)
		out[peer] = append(out[peer], m)
	}
	for _, msgs := range out {
		sortByTimestamp(msgs)
	}
	return out
}

// Conversation returns the ordered exchange between viewerID and peerID
func Conversation(log []*domain.Message, viewerID, peerID string) []*domain.Message {
	var msgs []*domain.Message
	for _, m := range log {
		if (m.SenderID == viewerID && m.RecipientID == peerID) ||
			(m.SenderID == peerID && m.RecipientID == viewerID) {
			msgs = append(msgs, m)
		}
	}
	sortByTimestamp(msgs)
	return msgs
}

// UnreadCount counts messages from peerID to viewerID not yet read
func UnreadCount(log []*domain.Message, viewerID, peerID string) int {
	n := 0
	for _, m := range log {
		if m.RecipientID == viewerID && m.SenderID == peerID && !m.Read {
			n++
		}
	}
	return n
}

// Peers returns the conversation keys in a stable order
func (c Conversations) Peers() []string {
	peers := make([]string, 0, len(c))
	for p := range c {
		peers = append(peers, p)
	}
	sort.Strings(peers)
	return peers
}

func sortByTimestamp(msgs []*domain.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
