package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examcore/internal/controller"
	"github.com/lshigami/examcore/internal/service"
)

type ExamController struct {
	userExamService service.UserExamService
}

func NewExamController(ues service.UserExamService) *ExamController {
	return &ExamController{userExamService: ues}
}

// GetAllExams godoc
// @Summary (User) List all available exams
// @Tags User - Exams
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ExamSummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /exams [get]
func (c *ExamController) GetAllExams(ctx *gin.Context) {
	exams, err := c.userExamService.GetAllExams(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, err, "Failed to retrieve exams")
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// GetExamDetails godoc
// @Summary (User) Get the content tree of an exam
// @Description Correct answers and explanations are only included for graders and admins.
// @Tags User - Exams
// @Produce json
// @Security BearerAuth
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Exam ID format"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{exam_id} [get]
func (c *ExamController) GetExamDetails(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	examID, ok := controller.UintParam(ctx, "exam_id")
	if !ok {
		return
	}
	exam, err := c.userExamService.GetExamDetails(ctx.Request.Context(), examID, p.Privileged())
	if err != nil {
		controller.RespondError(ctx, err, "Failed to retrieve exam")
		return
	}
	ctx.JSON(http.StatusOK, exam)
}
