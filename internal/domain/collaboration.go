package domain

import "time"

// CollaborationStatus lifecycle: pending -> accepted | rejected
type CollaborationStatus string

const (
	CollaborationPending  CollaborationStatus = "pending"
	CollaborationAccepted CollaborationStatus = "accepted"
	CollaborationRejected CollaborationStatus = "rejected"
)

// Terminal reports whether no further transition is allowed
func (s CollaborationStatus) Terminal() bool {
	return s == CollaborationAccepted || s == CollaborationRejected
}

// CollaborationRole selects which side of a request a listing is for
type CollaborationRole string

const (
	AsRequester CollaborationRole = "requester"
	AsRecipient CollaborationRole = "recipient"
)

// Collaboration is a business user's request to work with a student on a project
type Collaboration struct {
	ID             string              `json:"id"`
	ProjectID      string              `json:"projectId"`
	BusinessUserID string              `json:"businessUserId"`
	StudentUserID  string              `json:"studentUserId"`
	Message        string              `json:"message"`
	Status         CollaborationStatus `json:"status"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// Clone returns a detached copy
func (c *Collaboration) Clone() *Collaboration {
	cp := *c
	return &cp
}

// SameTriple reports whether c targets the same project, requester and recipient
func (c *Collaboration) SameTriple(projectID, requesterID, recipientID string) bool {
	return c.ProjectID == projectID && c.BusinessUserID == requesterID && c.StudentUserID == recipientID
}

// CreateCollaborationRequest represents a collaboration request body
type CreateCollaborationRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	Message   string `json:"message"`
}

// CollaborationResponse represents a collaboration in API responses
type CollaborationResponse struct {
	ID             string `json:"id"`
	ProjectID      string `json:"project_id"`
	BusinessUserID string `json:"business_user_id"`
	StudentUserID  string `json:"student_user_id"`
	Message        string `json:"message"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

// ToResponse converts Collaboration to CollaborationResponse
func (c *Collaboration) ToResponse() *CollaborationResponse {
	return &CollaborationResponse{
		ID:             c.ID,
		ProjectID:      c.ProjectID,
		BusinessUserID: c.BusinessUserID,
		StudentUserID:  c.StudentUserID,
		Message:        c.Message,
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt.Format(time.RFC3339Nano),
	}
}

// ToCollaborationResponses converts a slice of collaborations
func ToCollaborationResponses(items []*Collaboration) []*CollaborationResponse {
	out := make([]*CollaborationResponse, len(items))
	for i, c := range items {
		out[i] = c.ToResponse()
	}
	return out
}
