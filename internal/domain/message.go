package domain

import "time"

// Message is a direct message between exactly two users.
// Everything but Read is fixed at send time; Read only moves false -> true.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	SenderName  string    `json:"senderName"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
}

// PeerOf returns the other participant relative to userID
func (m *Message) PeerOf(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// Involves reports whether userID sent or received the message
func (m *Message) Involves(userID string) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// Clone returns a detached copy
func (m *Message) Clone() *Message {
	c := *m
	return &c
}

// SendMessageRequest represents a send message request
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	Content     string `json:"content" binding:"required"`
}

// MessageResponse represents a message in API responses
type MessageResponse struct {
	ID          string `json:"id"`
	SenderID    string `json:"sender_id"`
	SenderName  string `json:"sender_name"`
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
	IsRead      bool   `json:"is_read"`
}

// ToResponse converts Message to MessageResponse
func (m *Message) ToResponse() *MessageResponse {
	return &MessageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		Timestamp:   m.Timestamp.Format(time.RFC3339Nano),
		IsRead:      m.Read,
	}
}

// ToMessageResponses converts a slice of messages
func ToMessageResponses(msgs []*Message) []*MessageResponse {
	out := make([]*MessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = m.ToResponse()
	}
	return out
}
