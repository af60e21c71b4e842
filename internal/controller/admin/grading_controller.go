package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examcore/internal/controller"
	"github.com/lshigami/examcore/internal/dto"
	"github.com/lshigami/examcore/internal/service"
)

type GradingController struct {
	attemptService service.AttemptService
}

func NewGradingController(as service.AttemptService) *GradingController {
	return &GradingController{attemptService: as}
}

// GradeManual godoc
// @Summary (Grader) Override per-question grades
// @Description Replaces matching per-question results or appends new ones, then recomputes totals and the scaled score. The attempt becomes graded.
// @Tags Admin - Grading
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Param updates body dto.ManualGradeDTO true "Grade updates"
// @Success 200 {object} model.Scoring
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Attempt not submitted"
// @Router /admin/attempts/{attempt_id}/grade/manual [post]
func (c *GradingController) GradeManual(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	var req dto.ManualGradeDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	scoring, err := c.attemptService.GradeManual(ctx.Request.Context(), p, ctx.Param("attempt_id"), req.Updates)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to apply manual grades")
		return
	}
	ctx.JSON(http.StatusOK, scoring)
}

// GradeExternal godoc
// @Summary (Grader) Import grades from an external rater
// @Description Same merge as manual grading; the attempt becomes graded only when finalizeAttempt is set.
// @Tags Admin - Grading
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Param updates body dto.ExternalGradeDTO true "Grade updates"
// @Success 200 {object} model.Scoring
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Attempt not submitted"
// @Router /admin/attempts/{attempt_id}/grade/external [post]
func (c *GradingController) GradeExternal(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	var req dto.ExternalGradeDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	scoring, err := c.attemptService.GradeExternal(ctx.Request.Context(), p, ctx.Param("attempt_id"), req.Updates, req.FinalizeAttempt)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to apply external grades")
		return
	}
	ctx.JSON(http.StatusOK, scoring)
}

// GetAttemptStats godoc
// @Summary (Grader) Count attempts of an exam per status
// @Tags Admin - Grading
// @Produce json
// @Security BearerAuth
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.AttemptStatsDTO
// @Router /admin/exams/{exam_id}/attempt-stats [get]
func (c *GradingController) GetAttemptStats(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	examID, ok := controller.UintParam(ctx, "exam_id")
	if !ok {
		return
	}
	stats, err := c.attemptService.AttemptStats(ctx.Request.Context(), p, examID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to count attempts")
		return
	}
	ctx.JSON(http.StatusOK, stats)
}
