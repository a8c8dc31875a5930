package routes

import (
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/internal/handler"
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the API routes dispatch to
type Handlers struct {
	Message       *handler.MessageHandler
	Collaboration *handler.CollaborationHandler
	WS            *handler.WSHandler // optional
}

// Middleware bundles the per-route middleware
type Middleware struct {
	Auth        gin.HandlerFunc                   // resolves the caller's identity
	RequireRole func(domain.Role) gin.HandlerFunc // gates marketplace-side specific endpoints
	WriteLimit  gin.HandlerFunc                   // optional, throttles sends and requests
}

// Setup configures all API routes
func Setup(router *gin.Engine, h Handlers, mw Middleware) {
	api := router.Group("/api/v1", mw.Auth)
	requireRole := mw.RequireRole
	writeLimit := mw.WriteLimit
	if writeLimit == nil {
		writeLimit = func(c *gin.Context) { c.Next() }
	}

	// Direct messages
	messages := api.Group("/messages")
	messages.POST("", writeLimit, h.Message.SendMessage)
	messages.GET("", h.Message.ListMessages)
	messages.POST("/:id/read", h.Message.MarkRead)

	// Conversations (projections of the message log)
	conversations := api.Group("/conversations")
	conversations.GET("", h.Message.ListConversations)
	conversations.GET("/:peer_id", h.Message.GetConversation)
	conversations.POST("/:peer_id/read", h.Message.OpenConversation)

	// Collaboration requests
	collaborations := api.Group("/collaborations")
	collaborations.POST("", requireRole(domain.RoleBuyer), writeLimit, h.Collaboration.Create) // 비즈니스 사용자만
	collaborations.GET("", h.Collaboration.List)
	collaborations.GET("/:id", h.Collaboration.Get)
	collaborations.POST("/:id/accept", requireRole(domain.RoleSeller), h.Collaboration.Accept)
	collaborations.POST("/:id/reject", requireRole(domain.RoleSeller), h.Collaboration.Reject)

	api.GET("/projects/:project_id/collaborations", h.Collaboration.ListForProject)

	// Realtime inbox signals
	if h.WS != nil {
		api.GET("/ws", h.WS.Connect)
	}
}
