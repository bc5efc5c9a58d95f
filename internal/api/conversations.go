package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type conversationRequest struct {
	Title string `json:"title" binding:"required"`
}

// CreateConversation opens a new ordering session for the caller.
func (s *Server) CreateConversation(c *gin.Context) {
	var req conversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := s.transcripts.CreateConversation(c.Request.Context(), req.Title, currentUserEmail(c))
	if err != nil {
		s.log.WithError(err).Error("create conversation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// ListConversations returns the caller's conversations, newest first.
func (s *Server) ListConversations(c *gin.Context) {
	convs, err := s.transcripts.ListConversations(c.Request.Context(), currentUserEmail(c))
	if err != nil {
		s.log.WithError(err).Error("list conversations failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, convs)
}

type messageRequest struct {
	ConversationID uint   `json:"conversation_id" binding:"required"`
	Text           string `json:"text" binding:"required"`
	IsUser         bool   `json:"is_user"`
}

// AddMessage appends a turn to a conversation transcript.
func (s *Server) AddMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.transcripts.Append(c.Request.Context(), req.ConversationID, req.Text, req.IsUser); err != nil {
		s.log.WithError(err).Error("append message failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message added"})
}

// GetMessages returns a conversation's transcript in arrival order.
func (s *Server) GetMessages(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("conversation_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	msgs, err := s.transcripts.History(c.Request.Context(), uint(id))
	if err != nil {
		s.log.WithError(err).Error("load messages failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}
