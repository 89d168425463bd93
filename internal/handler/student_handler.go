package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studynotes-api/internal/dto"
	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
	"github.com/noah-isme/studynotes-api/pkg/response"
)

type studentService interface {
	Register(ctx context.Context, req dto.RegisterStudentRequest) (*dto.StudentResponse, error)
	Get(ctx context.Context, id string) (*dto.StudentResponse, error)
}

type enrollmentService interface {
	Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.StudentMessageResponse, error)
	AddChapter(ctx context.Context, req dto.ChapterSelectionRequest) (*dto.StudentMessageResponse, error)
	RemoveChapter(ctx context.Context, req dto.ChapterSelectionRequest) (*dto.StudentMessageResponse, error)
}

type personalNoteService interface {
	UploadPersonal(ctx context.Context, req dto.UploadFileRequest, upload dto.FileUpload) (*dto.PersonalNoteResponse, error)
}

// StudentHandler exposes registration, profile and enrollment endpoints.
type StudentHandler struct {
	students    studentService
	enrollments enrollmentService
	notes       personalNoteService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students studentService, enrollments enrollmentService, notes personalNoteService) *StudentHandler {
	return &StudentHandler{students: students, enrollments: enrollments, notes: notes}
}

// Register godoc
// @Summary Register a student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.RegisterStudentRequest true "Student payload"
// @Success 201 {object} dto.StudentResponse
// @Failure 400 {object} response.Envelope
// @Router /students/register [post]
func (h *StudentHandler) Register(c *gin.Context) {
	var req dto.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student payload"))
		return
	}
	student, err := h.students.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusCreated, student)
}

// Get godoc
// @Summary Get a student profile
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} dto.StudentResponse
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, student)
}

// Enroll godoc
// @Summary Enroll a student in a course
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.EnrollRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /students/enroll [post]
func (h *StudentHandler) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment payload"))
		return
	}
	result, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// AddChapter godoc
// @Summary Select a chapter of an enrolled course
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.ChapterSelectionRequest true "Selection payload"
// @Success 200 {object} response.Envelope
// @Router /students/add-chapter [post]
func (h *StudentHandler) AddChapter(c *gin.Context) {
	h.selection(c, h.enrollments.AddChapter)
}

// RemoveChapter godoc
// @Summary Drop a selected chapter
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.ChapterSelectionRequest true "Selection payload"
// @Success 200 {object} response.Envelope
// @Router /students/remove-chapter [post]
func (h *StudentHandler) RemoveChapter(c *gin.Context) {
	h.selection(c, h.enrollments.RemoveChapter)
}

func (h *StudentHandler) selection(c *gin.Context, apply func(context.Context, dto.ChapterSelectionRequest) (*dto.StudentMessageResponse, error)) {
	var req dto.ChapterSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid chapter payload"))
		return
	}
	result, err := apply(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// UploadNote godoc
// @Summary Upload a personal note to a selected chapter
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Note file"
// @Param studentId formData string true "Student ID"
// @Param courseId formData string true "Course ID"
// @Param chapterId formData string true "Chapter ID"
// @Success 200 {object} response.Envelope
// @Router /students/upload-note [post]
func (h *StudentHandler) UploadNote(c *gin.Context) {
	upload, closeFn, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFn()

	result, err := h.notes.UploadPersonal(c.Request.Context(), uploadRequest(c), upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
