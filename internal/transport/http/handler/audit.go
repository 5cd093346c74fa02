package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hr-assistant/internal/repository"
	"hr-assistant/internal/transport/http/middleware"
	"hr-assistant/internal/transport/http/response"
)

// AuditHandler exposes a user's own auth-event trail. Events exist only when
// the audit worker is configured; otherwise the list is empty.
type AuditHandler struct {
	eventRepo *repository.AuthEventRepository
}

func NewAuditHandler(eventRepo *repository.AuthEventRepository) *AuditHandler {
	return &AuditHandler{eventRepo: eventRepo}
}

// ListEvents returns the newest auth events for the authenticated user.
func (h *AuditHandler) ListEvents(c *gin.Context) {
	emailAny, exists := c.Get(middleware.ContextEmailKey)
	email, ok := emailAny.(string)
	if !exists || !ok || email == "" {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	events, err := h.eventRepo.ListByEmail(email, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list auth events failed")
		return
	}
	response.OK(c, events)
}
