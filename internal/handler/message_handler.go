package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/campusbridge/marketplace-backend/internal/common"
	"github.com/campusbridge/marketplace-backend/internal/conversation"
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/internal/middleware"
	"github.com/campusbridge/marketplace-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// MessageHandler handles direct message and conversation HTTP requests
type MessageHandler struct {
	service service.MessageService
	loc     *time.Location
	now     func() time.Time
}

// NewMessageHandler creates a new MessageHandler. loc is the zone day sections are computed in.
func NewMessageHandler(service service.MessageService, loc *time.Location) *MessageHandler {
	if loc == nil {
		loc = time.Local
	}
	return &MessageHandler{service: service, loc: loc, now: time.Now}
}

// SendMessage handles POST /messages
// @Summary 메시지 보내기
// @Tags messages
// @Accept json
// @Produce json
// @Param request body domain.SendMessageRequest true "메시지 내용"
// @Success 201 {object} common.APIResponse{data=domain.MessageResponse}
// @Router /messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	user, ok := middleware.GetIdentity(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	msg, err := h.service.Send(c.Request.Context(), user, req.RecipientID, req.Content)
	warning := common.WarningFor(err)
	if err != nil && warning == nil {
		common.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, common.APIResponse{Data: msg.ToResponse(), Warning: warning})
}

// ListMessages handles GET /messages
// @Summary 내 메시지 전체
// @Tags messages
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.MessageResponse}
// @Router /messages [get]
func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID := middleware.GetUserID(c)

	msgs, err := h.service.AllForUser(c.Request.Context(), userID)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.SuccessResponse(c, domain.ToMessageResponses(msgs), &common.Meta{Total: int64(len(msgs))})
}

// MarkRead handles POST /messages/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)

	err := h.service.MarkReadBy(c.Request.Context(), userID, c.Param("id"))
	warning := common.WarningFor(err)
	if err != nil && warning == nil {
		common.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{
		Data:    gin.H{"id": c.Param("id"), "is_read": true},
		Warning: warning,
	})
}

// ListConversations handles GET /conversations
// @Summary 대화 목록
// @Tags conversations
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.InboxEntryResponse}
// @Router /conversations [get]
func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID := middleware.GetUserID(c)

	inbox, err := h.service.Inbox(c.Request.Context(), userID)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	entries := make([]domain.InboxEntryResponse, 0, len(inbox))
	unread := 0
	for _, s := range inbox {
		entry := domain.InboxEntryResponse{
			PeerID:   s.PeerID,
			PeerName: s.PeerName,
			Preview:  s.Preview.Text,
			Unread:   s.Unread,
		}
		if s.Preview.LastMessage != nil {
			entry.LastMessage = s.Preview.LastMessage.ToResponse()
		}
		unread += s.Unread
		entries = append(entries, entry)
	}

	common.SuccessResponse(c, entries, &common.Meta{Total: int64(len(entries)), Unread: unread})
}

// GetConversation handles GET /conversations/:peer_id
// @Summary 대화 조회
// @Tags conversations
// @Produce json
// @Param peer_id path string true "상대 사용자 ID"
// @Success 200 {object} common.APIResponse{data=domain.ConversationResponse}
// @Router /conversations/{peer_id} [get]
func (h *MessageHandler) GetConversation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	peerID := c.Param("peer_id")

	conv, err := h.service.Conversation(c.Request.Context(), userID, peerID)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	unread, err := h.service.UnreadCount(c.Request.Context(), userID, peerID)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.SuccessResponse(c, h.conversationResponse(peerID, conv), &common.Meta{Total: int64(len(conv)), Unread: unread})
}

// OpenConversation handles POST /conversations/:peer_id/read
// Marks everything the peer sent to the caller as read and returns the conversation.
func (h *MessageHandler) OpenConversation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	peerID := c.Param("peer_id")

	conv, err := h.service.OpenConversation(c.Request.Context(), userID, peerID)
	warning := common.WarningFor(err)
	if err != nil && warning == nil {
		common.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{
		Data:    h.conversationResponse(peerID, conv),
		Meta:    &common.Meta{Total: int64(len(conv))},
		Warning: warning,
	})
}

func (h *MessageHandler) conversationResponse(peerID string, conv []*domain.Message) *domain.ConversationResponse {
	groups := conversation.GroupByDay(conv, h.now(), h.loc)
	days := make([]domain.DayGroupResponse, 0, len(groups))
	for _, g := range groups {
		ids := make([]string, len(g.Messages))
		for i, m := range g.Messages {
			ids[i] = m.ID
		}
		days = append(days, domain.DayGroupResponse{
			Date:       fmt.Sprintf("%04d-%02d-%02d", g.Day.Year, int(g.Day.Month), g.Day.Day),
			Label:      g.Label,
			MessageIDs: ids,
		})
	}
	return &domain.ConversationResponse{
		PeerID:   peerID,
		Messages: domain.ToMessageResponses(conv),
		Days:     days,
	}
}
