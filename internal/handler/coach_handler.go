package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/internal/logging"
	"github.com/wellnest/internal/service"
)

type coachMessagePayload struct {
	Text string `json:"text" binding:"required"`
}

// StartConversation opens a coach conversation with the greeting.
func (a *API) StartConversation(c *gin.Context) {
	userID, _ := currentUserID(c)
	conv := a.coach.Start(userID)
	c.JSON(http.StatusCreated, gin.H{"conversation": conversationToPayload(conv)})
}

// GetConversation returns the transcript.
func (a *API) GetConversation(c *gin.Context) {
	userID, _ := currentUserID(c)

	conv, err := a.coach.Get(userID, c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "conversation not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conversationToPayload(conv)})
}

// SendCoachMessage appends a user message and returns the coach reply.
func (a *API) SendCoachMessage(c *gin.Context) {
	userID, _ := currentUserID(c)

	var payload coachMessagePayload
	if !bindJSON(c, &payload, "message text is required") {
		return
	}

	userMsg, reply, err := a.coach.Send(c.Request.Context(), userID, c.Param("id"), payload.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			respondError(c, http.StatusNotFound, "conversation not found")
		case errors.Is(err, service.ErrCoachMessageEmpty):
			respondError(c, http.StatusBadRequest, "message text is required")
		case errors.Is(err, context.Canceled):
			logging.FromContext(c).Info("coach reply canceled by client")
			respondError(c, http.StatusRequestTimeout, "request canceled")
		default:
			logging.FromContext(c).WithError(err).Error("coach reply failed")
			respondError(c, http.StatusBadGateway, "the coach is unavailable right now, please try again")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": coachMessageToPayload(userMsg),
		"reply":   coachMessageToPayload(reply),
	})
}

func conversationToPayload(conv service.Conversation) gin.H {
	messages := make([]gin.H, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		messages = append(messages, coachMessageToPayload(msg))
	}
	return gin.H{
		"id":         conv.ID,
		"messages":   messages,
		"created_at": conv.CreatedAt.UTC().Format(timestampFormat),
		"updated_at": conv.UpdatedAt.UTC().Format(timestampFormat),
	}
}

func coachMessageToPayload(msg service.CoachMessage) gin.H {
	return gin.H{
		"role":       msg.Role,
		"text":       msg.Text,
		"created_at": msg.CreatedAt.UTC().Format(timestampFormat),
	}
}
