package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studynotes-api/internal/dto"
	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
	"github.com/noah-isme/studynotes-api/pkg/response"
)

type courseService interface {
	Create(ctx context.Context, req dto.CreateCourseRequest) (*dto.CourseCreatedResponse, error)
	Get(ctx context.Context, id string) (*dto.CourseResponse, error)
	ListByStudent(ctx context.Context, studentID string) ([]dto.CourseResponse, error)
}

type chapterService interface {
	Add(ctx context.Context, req dto.AddChapterRequest) (*dto.ChapterCreatedResponse, error)
	ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]dto.ChapterResponse, error)
}

// CourseHandler exposes course and chapter endpoints.
type CourseHandler struct {
	courses  courseService
	chapters chapterService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(courses courseService, chapters chapterService) *CourseHandler {
	return &CourseHandler{courses: courses, chapters: chapters}
}

// Create godoc
// @Summary Create a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} dto.CourseCreatedResponse
// @Failure 400 {object} response.Envelope
// @Router /courses/create [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course payload"))
		return
	}
	result, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusCreated, result)
}

// ListByStudent godoc
// @Summary List a student's courses
// @Tags Courses
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {array} dto.CourseResponse
// @Failure 404 {object} response.Envelope
// @Router /courses/student/{studentId} [get]
func (h *CourseHandler) ListByStudent(c *gin.Context) {
	courses, err := h.courses.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, courses)
}

// Get godoc
// @Summary Get a course with its chapters
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} dto.CourseResponse
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, course)
}

// AddChapter godoc
// @Summary Add a chapter to a course
// @Tags Chapters
// @Accept json
// @Produce json
// @Param payload body dto.AddChapterRequest true "Chapter payload"
// @Success 201 {object} dto.ChapterCreatedResponse
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /chapters/add [post]
func (h *CourseHandler) AddChapter(c *gin.Context) {
	var req dto.AddChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid chapter payload"))
		return
	}
	result, err := h.chapters.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusCreated, result)
}

// ListChapters godoc
// @Summary List a student's chapters for a course
// @Tags Chapters
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {array} dto.ChapterResponse
// @Failure 404 {object} response.Envelope
// @Router /chapters/{studentId}/{courseId} [get]
func (h *CourseHandler) ListChapters(c *gin.Context) {
	chapters, err := h.chapters.ListByStudentAndCourse(c.Request.Context(), c.Param("studentId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, chapters)
}
