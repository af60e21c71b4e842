package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examcore/internal/controller"
	"github.com/lshigami/examcore/internal/dto"
	"github.com/lshigami/examcore/internal/service"
	"github.com/rs/zerolog/log"
)

type ExamController struct {
	adminExamService service.AdminExamService
}

func NewExamController(adminExamService service.AdminExamService) *ExamController {
	return &ExamController{adminExamService: adminExamService}
}

// CreateExam godoc
// @Summary (Admin) Seed a complete exam tree
// @Description Creates an exam with its sections, parts, question groups and questions in one call.
// @Tags Admin - Exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exam_data body dto.ExamCreateDTO true "Exam tree"
// @Success 201 {object} dto.ExamResponseDTO "Exam created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 409 {object} dto.ErrorResponse "Title already taken"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/exams [post]
func (c *ExamController) CreateExam(ctx *gin.Context) {
	var req dto.ExamCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}

	examResp, err := c.adminExamService.CreateExam(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to create exam")
		return
	}
	log.Info().Uint("examID", examResp.ID).Str("title", examResp.Title).Msg("Exam created")
	ctx.JSON(http.StatusCreated, examResp)
}
