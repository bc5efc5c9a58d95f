package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"snackzinabi/internal/extraction"
	"snackzinabi/internal/kitchen"
	"snackzinabi/internal/metrics"
	"snackzinabi/internal/models"
	"snackzinabi/internal/workflow"
)

// UserStore is the user persistence the API needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	ByEmail(ctx context.Context, email string) (*models.User, error)
}

// TranscriptStore is the conversation persistence the API needs.
type TranscriptStore interface {
	CreateConversation(ctx context.Context, title, userEmail string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userEmail string) ([]models.Conversation, error)
	Append(ctx context.Context, conversationID uint, text string, fromUser bool) error
	History(ctx context.Context, conversationID uint) ([]models.Message, error)
}

// OrderLister exposes committed orders to the kitchen dashboard.
type OrderLister interface {
	List(ctx context.Context, limit int) ([]models.Commande, error)
}

// Responder generates the assistant's conversational replies.
type Responder interface {
	Reply(ctx context.Context, history []models.Message) (string, error)
}

// Confirmer runs the order confirmation state machine.
type Confirmer interface {
	HandleMessage(ctx context.Context, conversationID uint, userEmail, text string) (workflow.Result, error)
	ObserveAssistantMessage(conversationID uint, text string)
}

// Server wires the HTTP surface: auth, conversations, chat, and the kitchen
// websocket.
type Server struct {
	Router *gin.Engine

	users       UserStore
	transcripts TranscriptStore
	orders      OrderLister
	assistant   Responder
	flow        Confirmer
	extractor   *extraction.Extractor
	hub         *kitchen.Hub

	auth    AuthConfig
	log     *logrus.Logger
	metrics *metrics.Collector
}

// Deps collects the server's collaborators.
type Deps struct {
	Users       UserStore
	Transcripts TranscriptStore
	Orders      OrderLister
	Assistant   Responder
	Flow        Confirmer
	Extractor   *extraction.Extractor
	Hub         *kitchen.Hub
	Auth        AuthConfig
	Log         *logrus.Logger
	Metrics     *metrics.Collector
}

// NewServer builds the router.
func NewServer(d Deps) *Server {
	s := &Server{
		Router:      gin.Default(),
		users:       d.Users,
		transcripts: d.Transcripts,
		orders:      d.Orders,
		assistant:   d.Assistant,
		flow:        d.Flow,
		extractor:   d.Extractor,
		hub:         d.Hub,
		auth:        d.Auth,
		log:         d.Log,
		metrics:     d.Metrics,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all endpoints.
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.Router.Group("/api")
	{
		api.POST("/signup", s.Signup)
		api.POST("/login", s.Login)

		// Kitchen side: list of committed orders plus the live push channel.
		api.GET("/commandes", s.ListCommandes)
		api.GET("/ws/commandes", s.KitchenWebSocket)

		// Transcript access, kept open like the rest of the message store.
		api.POST("/messages", s.AddMessage)
		api.GET("/messages/:conversation_id", s.GetMessages)

		authed := api.Group("")
		authed.Use(s.AuthMiddleware())
		{
			authed.GET("/me", s.Me)
			authed.POST("/conversations", s.CreateConversation)
			authed.GET("/conversations", s.ListConversations)
			authed.POST("/chat-rag", s.Chat)
			authed.POST("/commande/confirmer", s.ConfirmOrder)
		}
	}
}
