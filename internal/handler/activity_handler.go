package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unidesk/registrar-api/internal/service"
	"github.com/unidesk/registrar-api/pkg/response"
)

// ActivityHandler serves the recent activity feed.
type ActivityHandler struct {
	activities *service.ActivityService
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// Recent godoc
// @Summary List recent enrollment activity
// @Tags Activities
// @Produce json
// @Param limit query int false "Maximum entries" default(20)
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *ActivityHandler) Recent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	activities, err := h.activities.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil)
}
