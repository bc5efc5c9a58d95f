package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"snackzinabi/internal/workflow"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID uint   `json:"conversation_id"`
}

// Chat is the conversational endpoint. The user's message is appended to
// the transcript; confirmation messages run through the order workflow,
// everything else gets an assistant reply.
func (s *Server) Chat(c *gin.Context) {
	started := time.Now()
	defer func() { s.metrics.ObserveChatDuration(time.Since(started).Seconds()) }()

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ConversationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id est requis"})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusOK, gin.H{"response": "Je n'ai pas compris votre message."})
		return
	}

	ctx := c.Request.Context()
	if err := s.transcripts.Append(ctx, req.ConversationID, req.Message, true); err != nil {
		s.log.WithError(err).Error("chat: append user message failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	// Confirmation messages never reach the LLM; the workflow owns them.
	if s.extractor.IsConfirmation(req.Message) {
		s.respondFromWorkflow(c, req.ConversationID, req.Message)
		return
	}

	history, err := s.transcripts.History(ctx, req.ConversationID)
	if err != nil {
		s.log.WithError(err).Error("chat: load history failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	reply, err := s.assistant.Reply(ctx, history)
	if err != nil {
		s.log.WithError(err).Error("chat: assistant failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Assistant indisponible"})
		return
	}

	if err := s.transcripts.Append(ctx, req.ConversationID, reply, false); err != nil {
		s.log.WithError(err).Error("chat: append assistant message failed")
	}
	// Remember the candidate carried by the reply so a following "je
	// confirme" can be resolved without re-reading the transcript.
	s.flow.ObserveAssistantMessage(req.ConversationID, reply)

	c.JSON(http.StatusOK, gin.H{"response": reply})
}

// ConfirmOrder is the dedicated order-confirmation endpoint: the message
// always runs through the workflow, confirmation phrase or not.
func (s *Server) ConfirmOrder(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Message != "" && req.ConversationID != 0 {
		if err := s.transcripts.Append(c.Request.Context(), req.ConversationID, req.Message, true); err != nil {
			s.log.WithError(err).Error("confirm: append user message failed")
		}
	}
	s.respondFromWorkflow(c, req.ConversationID, req.Message)
}

// respondFromWorkflow maps a workflow result onto the HTTP response and
// records the workflow's answer in the transcript.
func (s *Server) respondFromWorkflow(c *gin.Context, conversationID uint, message string) {
	ctx := c.Request.Context()
	result, err := s.flow.HandleMessage(ctx, conversationID, currentUserEmail(c), message)
	switch {
	case errors.Is(err, workflow.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, workflow.ErrStorage):
		// The result carries the generic customer-facing message; the
		// storage details stay in the logs.
		s.log.WithError(err).Error("confirm: workflow storage failure")
		c.JSON(http.StatusInternalServerError, gin.H{"response": result.Response})
		return
	case err != nil:
		s.log.WithError(err).Error("confirm: workflow failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if appendErr := s.transcripts.Append(ctx, conversationID, result.Response, false); appendErr != nil {
		s.log.WithError(appendErr).Error("confirm: append response failed")
	}

	c.JSON(http.StatusOK, gin.H{"response": result.Response})
}
