package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examcore/internal/controller"
	"github.com/lshigami/examcore/internal/dto"
	"github.com/lshigami/examcore/internal/service"
	"github.com/rs/zerolog/log"
)

type AttemptController struct {
	attemptService service.AttemptService
}

func NewAttemptController(as service.AttemptService) *AttemptController {
	return &AttemptController{attemptService: as}
}

// CreateOrResumeAttempt godoc
// @Summary (User) Start or resume a full exam attempt
// @Description Returns the caller's in-progress attempt for the exam, or creates one. force_new cancels the existing attempt first.
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param exam_id path int true "Exam ID"
// @Param force_new query bool false "Supersede an in-progress attempt"
// @Success 200 {object} dto.AttemptResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{exam_id}/attempts [post]
func (c *AttemptController) CreateOrResumeAttempt(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	examID, ok := controller.UintParam(ctx, "exam_id")
	if !ok {
		return
	}
	forceNew := false
	if raw := ctx.Query("force_new"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid force_new value"})
			return
		}
		forceNew = v
	}

	attempt, err := c.attemptService.CreateOrResume(ctx.Request.Context(), p, examID, forceNew)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to start attempt")
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}

// StartSectionAttempt godoc
// @Summary (User) Start or resume a section-only attempt
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param exam_id path int true "Exam ID"
// @Param section_id path int true "Section ID"
// @Success 200 {object} dto.AttemptResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Exam or section not found"
// @Router /exams/{exam_id}/sections/{section_id}/attempts [post]
func (c *AttemptController) StartSectionAttempt(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	examID, ok := controller.UintParam(ctx, "exam_id")
	if !ok {
		return
	}
	sectionID, ok := controller.UintParam(ctx, "section_id")
	if !ok {
		return
	}
	attempt, err := c.attemptService.StartSection(ctx.Request.Context(), p, examID, sectionID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to start section attempt")
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}

// GetMyAttempts godoc
// @Summary (User) List the caller's attempts on an exam
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param exam_id path int true "Exam ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Router /exams/{exam_id}/my-attempts [get]
func (c *AttemptController) GetMyAttempts(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	examID, ok := controller.UintParam(ctx, "exam_id")
	if !ok {
		return
	}
	attempts, err := c.attemptService.ListMyAttempts(ctx.Request.Context(), p, examID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to retrieve attempts")
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// GetAttempt godoc
// @Summary (User) Get an attempt
// @Description Reading an overdue in-progress attempt expires it.
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	attempt, err := c.attemptService.GetAttempt(ctx.Request.Context(), p, ctx.Param("attempt_id"))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to retrieve attempt")
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}

// GetAttemptStatus godoc
// @Summary (User) Get remaining time and progress of an attempt
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptStatusDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/status [get]
func (c *AttemptController) GetAttemptStatus(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	status, err := c.attemptService.Status(ctx.Request.Context(), p, ctx.Param("attempt_id"))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to retrieve attempt status")
		return
	}
	ctx.JSON(http.StatusOK, status)
}

// RecordResponse godoc
// @Summary (User) Save or replace the answer to one question
// @Tags User - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Param response body dto.RecordResponseDTO true "Answer payload"
// @Success 200 {object} dto.AckResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Attempt not in progress or section already submitted"
// @Failure 410 {object} dto.ErrorResponse "Attempt expired"
// @Router /attempts/{attempt_id}/responses [put]
func (c *AttemptController) RecordResponse(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	var req dto.RecordResponseDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	ack, err := c.attemptService.RecordResponse(ctx.Request.Context(), p, ctx.Param("attempt_id"), req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to record response")
		return
	}
	ctx.JSON(http.StatusOK, ack)
}

// SubmitSection godoc
// @Summary (User) Submit one section of an attempt
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Param section_id path int true "Section ID"
// @Success 200 {object} dto.SectionsStatusResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 410 {object} dto.ErrorResponse "Attempt expired"
// @Router /attempts/{attempt_id}/sections/{section_id}/submit [post]
func (c *AttemptController) SubmitSection(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	sectionID, ok := controller.UintParam(ctx, "section_id")
	if !ok {
		return
	}
	resp, err := c.attemptService.SubmitSection(ctx.Request.Context(), p, ctx.Param("attempt_id"), sectionID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to submit section")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitAttempt godoc
// @Summary (User) Submit the whole attempt
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptResponseDTO
// @Failure 409 {object} dto.ErrorResponse
// @Failure 410 {object} dto.ErrorResponse "Attempt expired"
// @Router /attempts/{attempt_id}/submit [post]
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	attempt, err := c.attemptService.Submit(ctx.Request.Context(), p, ctx.Param("attempt_id"))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to submit attempt")
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}

// GradeAttempt godoc
// @Summary (User) Grade a submitted attempt
// @Description Recomputes per-question correctness, calling the text judge for long and spoken answers. Safe to repeat.
// @Tags User - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.GradeResultDTO
// @Failure 409 {object} dto.ErrorResponse "Attempt not submitted"
// @Router /attempts/{attempt_id}/grade [post]
func (c *AttemptController) GradeAttempt(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	attemptID := ctx.Param("attempt_id")
	log.Info().Str("attemptID", attemptID).Uint("callerID", p.ID).Msg("Grading requested")
	result, err := c.attemptService.Grade(ctx.Request.Context(), p, attemptID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to grade attempt")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// CancelAttempt godoc
// @Summary (User) Cancel an in-progress attempt
// @Tags User - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Param body body dto.ReasonDTO false "Optional reason"
// @Success 200 {object} dto.AttemptResponseDTO
// @Failure 409 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/cancel [post]
func (c *AttemptController) CancelAttempt(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	var req dto.ReasonDTO
	if !controller.BindOptionalJSON(ctx, &req) {
		return
	}
	attempt, err := c.attemptService.Cancel(ctx.Request.Context(), p, ctx.Param("attempt_id"), req.Reason)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to cancel attempt")
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}

// ExpireAttempt godoc
// @Summary Expire an attempt explicitly
// @Description The owner may expire an in-progress attempt. Graders and admins may expire any attempt, and force covers submitted ones.
// @Tags User - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Param body body dto.ExpireAttemptDTO false "Optional reason and force flag"
// @Success 200 {object} dto.AttemptResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/expire [post]
func (c *AttemptController) ExpireAttempt(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	var req dto.ExpireAttemptDTO
	if !controller.BindOptionalJSON(ctx, &req) {
		return
	}
	attempt, err := c.attemptService.Expire(ctx.Request.Context(), p, ctx.Param("attempt_id"), req.Reason, req.Force)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to expire attempt")
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}
