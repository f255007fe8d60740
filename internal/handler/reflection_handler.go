package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/internal/logging"
	"github.com/wellnest/internal/service"
)

type reflectionPayload struct {
	PromptID int    `json:"prompt_id" binding:"required,min=1"`
	Response string `json:"response" binding:"required"`
}

// ListReflectionPrompts returns the journaling prompts.
func (a *API) ListReflectionPrompts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prompts": a.reflections.Prompts()})
}

// ListReflections returns the caller's journal entries, newest first.
func (a *API) ListReflections(c *gin.Context) {
	userID, _ := currentUserID(c)

	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := a.reflections.List(c.Request.Context(), userID, limit)
	if err != nil {
		logging.FromContext(c).WithError(err).Error("list reflections failed")
		respondError(c, http.StatusInternalServerError, "could not load reflections")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, reflectionToPayload(entry))
	}
	c.JSON(http.StatusOK, gin.H{"reflections": items})
}

// SaveReflection stores today's answer to a prompt.
func (a *API) SaveReflection(c *gin.Context) {
	userID, _ := currentUserID(c)

	var payload reflectionPayload
	if !bindJSON(c, &payload, "invalid reflection") {
		return
	}

	entry, err := a.reflections.Save(c.Request.Context(), userID, service.ReflectionInput{
		PromptID: payload.PromptID,
		Response: payload.Response,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReflectionPromptUnknown):
			respondError(c, http.StatusBadRequest, "unknown prompt")
		case errors.Is(err, service.ErrReflectionEmpty):
			respondError(c, http.StatusBadRequest, "response is required")
		default:
			logging.FromContext(c).WithError(err).Error("save reflection failed")
			respondError(c, http.StatusInternalServerError, "could not save reflection")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"reflection": reflectionToPayload(*entry)})
}

// DeleteReflection removes one journal entry.
func (a *API) DeleteReflection(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid reflection id")
		return
	}

	if err := a.reflections.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, service.ErrReflectionNotFound) {
			respondError(c, http.StatusNotFound, "reflection not found")
			return
		}
		logging.FromContext(c).WithError(err).Error("delete reflection failed")
		respondError(c, http.StatusInternalServerError, "could not delete reflection")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func reflectionToPayload(entry service.ReflectionEntry) gin.H {
	return gin.H{
		"id":         entry.Reflection.ID,
		"prompt":     entry.Prompt,
		"entry_date": entry.Reflection.EntryDate.Format(dateFormat),
		"response":   entry.Reflection.Response,
		"html":       entry.HTML,
		"updated_at": entry.Reflection.UpdatedAt.UTC().Format(timestampFormat),
	}
}
