package handler

import (
	"net/http"

	"github.com/campusbridge/marketplace-backend/internal/common"
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/internal/middleware"
	"github.com/campusbridge/marketplace-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// CollaborationHandler handles collaboration request HTTP requests
type CollaborationHandler struct {
	service service.CollaborationService
}

// NewCollaborationHandler creates a new CollaborationHandler
func NewCollaborationHandler(service service.CollaborationService) *CollaborationHandler {
	return &CollaborationHandler{service: service}
}

// Create handles POST /collaborations
// @Summary 협업 요청
// @Tags collaborations
// @Accept json
// @Produce json
// @Param request body domain.CreateCollaborationRequest true "요청 내용"
// @Success 201 {object} common.APIResponse{data=domain.CollaborationResponse}
// @Failure 409 {object} common.APIResponse
// @Router /collaborations [post]
func (h *CollaborationHandler) Create(c *gin.Context) {
	user, ok := middleware.GetIdentity(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req domain.CreateCollaborationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	collab, err := h.service.Create(c.Request.Context(), user, req.ProjectID, req.Message)
	warning := common.WarningFor(err)
	if err != nil && warning == nil {
		common.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, common.APIResponse{Data: collab.ToResponse(), Warning: warning})
}

// List handles GET /collaborations?role=requester|recipient
// Without a role the caller's marketplace side decides.
func (h *CollaborationHandler) List(c *gin.Context) {
	user, _ := middleware.GetIdentity(c)

	var (
		items []*domain.Collaboration
		err   error
	)
	if role := c.Query("role"); role != "" {
		items, err = h.service.ForUser(c.Request.Context(), user.ID, domain.CollaborationRole(role))
	} else {
		items, err = h.service.ForIdentity(c.Request.Context(), user)
	}
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.SuccessResponse(c, domain.ToCollaborationResponses(items), &common.Meta{Total: int64(len(items))})
}

// Get handles GET /collaborations/:id
func (h *CollaborationHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)

	collab, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	if collab.BusinessUserID != userID && collab.StudentUserID != userID {
		common.ErrorResponse(c, http.StatusForbidden, "not a participant of this collaboration", nil)
		return
	}

	common.SuccessResponse(c, collab.ToResponse(), nil)
}

// ListForProject handles GET /projects/:project_id/collaborations
func (h *CollaborationHandler) ListForProject(c *gin.Context) {
	items, err := h.service.ForProject(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.SuccessResponse(c, domain.ToCollaborationResponses(items), &common.Meta{Total: int64(len(items))})
}

// Accept handles POST /collaborations/:id/accept
// @Summary 협업 요청 수락
// @Tags collaborations
// @Produce json
// @Param id path string true "요청 ID"
// @Success 200 {object} common.APIResponse{data=domain.CollaborationResponse}
// @Router /collaborations/{id}/accept [post]
func (h *CollaborationHandler) Accept(c *gin.Context) {
	h.transition(c, domain.CollaborationAccepted)
}

// Reject handles POST /collaborations/:id/reject
func (h *CollaborationHandler) Reject(c *gin.Context) {
	h.transition(c, domain.CollaborationRejected)
}

func (h *CollaborationHandler) transition(c *gin.Context, status domain.CollaborationStatus) {
	user, ok := middleware.GetIdentity(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	collab, err := h.service.Transition(c.Request.Context(), user, c.Param("id"), status)
	warning := common.WarningFor(err)
	if err != nil && warning == nil {
		common.HandleError(c, err)
		return
	}

	// status change stands even with a warning
	c.JSON(http.StatusOK, common.APIResponse{Data: collab.ToResponse(), Warning: warning})
}
