package conversation

import (
	"sort"
	"unicode/utf8"

	"github.com/campusbridge/marketplace-backend/internal/domain"
)

// PreviewLength is how many characters of the last message a preview keeps
const PreviewLength = 30

const ellipsis = "..."

// Preview is the conversation-list line for one peer
type Preview struct {
	LastMessage *domain.Message
	Text        string
}

// PreviewOf returns the last message of an ordered conversation and its
// truncated text. An empty conversation yields a zero Preview.
func PreviewOf(conv []*domain.Message) Preview {
	if len(conv) == 0 {
		return Preview{}
	}
	last := conv[len(conv)-1]
	return Preview{LastMessage: last, Text: Truncate(last.Content, PreviewLength)}
}

// Truncate keeps the first n characters of s and marks the cut with "..."
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + ellipsis
}

// Summary is one row of a user's inbox
type Summary struct {
	PeerID string
	// PeerName is the name the peer last sent under, or PeerID when the
	// peer has not sent the viewer anything yet
	PeerName string
	Preview  Preview
	Unread   int
}

// Inbox lists every conversation of viewerID, most recent activity first
func Inbox(log []*domain.Message, viewerID string) []Summary {
	convs := Project(log, viewerID)
	out := make([]Summary, 0, len(convs))
	for peer, msgs := range convs {
		s := Summary{
			PeerID:  peer,
			Preview: PreviewOf(msgs),
		}
		for _, m := range msgs {
			if m.SenderID == peer {
				s.PeerName = m.SenderName
				if !m.Read {
					s.Unread++
				}
			}
		}
		if s.PeerName == "" {
			s.PeerName = peer
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		ti := out[i].Preview.LastMessage.Timestamp
		tj := out[j].Preview.LastMessage.Timestamp
		if ti.Equal(tj) {
			return out[i].PeerID < out[j].PeerID
		}
		return ti.After(tj)
	})
	return out
}
