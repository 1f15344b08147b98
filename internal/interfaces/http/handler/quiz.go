package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shipshape/backend/internal/application/quiz"
	appwarehouse "github.com/shipshape/backend/internal/application/warehouse"
	"github.com/shipshape/backend/internal/domain/warehouse"
)

// QuizHandler handles stock-verification quiz endpoints
type QuizHandler struct {
	BaseHandler
	quiz        *quiz.QuizService
	store       *appwarehouse.Store
	defaultSize int
}

// NewQuizHandler creates a new QuizHandler
func NewQuizHandler(quizService *quiz.QuizService, store *appwarehouse.Store, defaultSize int) *QuizHandler {
	return &QuizHandler{quiz: quizService, store: store, defaultSize: defaultSize}
}

// GenerateQuizRequest asks for a number of items to verify
type GenerateQuizRequest struct {
	Count int `json:"count" binding:"omitempty,gte=1,lte=100" example:"10"`
}

// CompleteQuizRequest submits the answers of a verification pass
type CompleteQuizRequest struct {
	CompletedBy string        `json:"completedBy" binding:"required,max=100" example:"Sam"`
	Answers     []quiz.Answer `json:"answers" binding:"required,min=1,max=500,dive"`
}

// QuizReportResponse is a stored report with its "no" answers pulled out
type QuizReportResponse struct {
	warehouse.QuizReport
	Discrepancies []warehouse.AnsweredQuizItem `json:"discrepancies"`
}

func newQuizReportResponse(r warehouse.QuizReport) QuizReportResponse {
	return QuizReportResponse{QuizReport: r, Discrepancies: quiz.Discrepancies(r)}
}

// Generate godoc
// @Summary      Sample shipment/location pairs to verify
// @Tags         quiz
// @Router       /quiz/generate [post]
func (h *QuizHandler) Generate(c *gin.Context) {
	var req GenerateQuizRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	count := req.Count
	if count == 0 {
		count = h.defaultSize
	}
	List(c, h.quiz.Generate(count))
}

// Complete godoc
// @Summary      Record the answers of a verification pass
// @Tags         quiz
// @Router       /quiz/reports [post]
func (h *QuizHandler) Complete(c *gin.Context) {
	var req CompleteQuizRequest
	if !h.BindJSON(c, &req) {
		return
	}
	stored, err := h.quiz.Complete(c.Request.Context(), req.CompletedBy, req.Answers)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, newQuizReportResponse(stored))
}

// ListReports godoc
// @Summary      List completed quiz reports
// @Tags         quiz
// @Router       /quiz/reports [get]
func (h *QuizHandler) ListReports(c *gin.Context) {
	List(c, h.store.QuizReports())
}

// GetReport godoc
// @Summary      Get a quiz report by id
// @Tags         quiz
// @Router       /quiz/reports/{id} [get]
func (h *QuizHandler) GetReport(c *gin.Context) {
	r, ok := h.store.GetQuizReportByID(c.Param("id"))
	if !ok {
		h.NotFound(c, "Quiz report not found")
		return
	}
	h.Success(c, newQuizReportResponse(r))
}

// DeleteReport godoc
// @Summary      Delete a quiz report
// @Tags         quiz
// @Router       /quiz/reports/{id} [delete]
func (h *QuizHandler) DeleteReport(c *gin.Context) {
	if !h.store.DeleteQuizReport(c.Request.Context(), c.Param("id")) {
		h.NotFound(c, "Quiz report not found")
		return
	}
	h.NoContent(c)
}
