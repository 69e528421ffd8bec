package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unidesk/registrar-api/internal/service"
	"github.com/unidesk/registrar-api/pkg/response"
)

// ScheduleHandler serves the weekly schedule grid and its exports.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Grid godoc
// @Summary Get a student's weekly schedule grid
// @Description Hour-by-day grid over the configured display window
// @Tags Schedules
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/schedule [get]
func (h *ScheduleHandler) Grid(c *gin.Context) {
	grid, cached, err := h.schedules.WeeklyGrid(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// Export godoc
// @Summary Export a student's schedule
// @Tags Schedules
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Student ID"
// @Param format query string false "Export format (pdf or csv)" default(pdf)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	studentID := c.Param("id")
	format := c.DefaultQuery("format", "pdf")

	payload, contentType, err := h.schedules.Export(c.Request.Context(), studentID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("schedule-%s.%s", studentID, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
