package domain

// InboxEntryResponse is one row of the conversation list
type InboxEntryResponse struct {
	PeerID      string           `json:"peer_id"`
	PeerName    string           `json:"peer_name"`
	Preview     string           `json:"preview"`
	LastMessage *MessageResponse `json:"last_message"`
	Unread      int              `json:"unread"`
}

// DayGroupResponse is a date section of a conversation
type DayGroupResponse struct {
	Date       string   `json:"date"` // YYYY-MM-DD in the server's zone
	Label      string   `json:"label"`
	MessageIDs []string `json:"message_ids"`
}

// ConversationResponse is the ordered exchange with one peer
type ConversationResponse struct {
	PeerID   string             `json:"peer_id"`
	Messages []*MessageResponse `json:"messages"`
	Days     []DayGroupResponse `json:"days"`
}
