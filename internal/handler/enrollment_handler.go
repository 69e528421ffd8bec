package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unidesk/registrar-api/internal/service"
	appErrors "github.com/unidesk/registrar-api/pkg/errors"
	"github.com/unidesk/registrar-api/pkg/response"
)

// EnrollmentHandler exposes the enrollment engine over HTTP.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Enroll godoc
// @Summary Enroll a student in a course
// @Description Runs the duplicate, capacity, conflict and prerequisite checks and commits the enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body object{course_id=string} true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /students/{id}/enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var payload struct {
		CourseID string `json:"course_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}

	outcome, err := h.enrollments.Enroll(c.Request.Context(), service.EnrollRequest{
		StudentID: c.Param("id"),
		CourseID:  payload.CourseID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, outcome)
}

// Drop godoc
// @Summary Drop an enrollment
// @Description Removes the enrollment, strips its schedule slots and releases the seat
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/enrollments/{enrollmentId} [delete]
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	outcome, err := h.enrollments.Drop(c.Request.Context(), c.Param("id"), c.Param("enrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// ListActive godoc
// @Summary List a student's active enrollments
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *EnrollmentHandler) ListActive(c *gin.Context) {
	enrollments, err := h.enrollments.Active(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// History godoc
// @Summary List a student's enrollment history
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments/history [get]
func (h *EnrollmentHandler) History(c *gin.Context) {
	events, err := h.enrollments.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}
