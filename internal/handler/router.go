package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studynotes-api/internal/middleware"
)

// multipartOverhead is the allowance for boundaries and form fields around
// the uploaded file.
const multipartOverhead = 64 << 10

// Handlers groups every HTTP handler served under the API prefix.
type Handlers struct {
	Students      *StudentHandler
	Courses       *CourseHandler
	Files         *FileHandler
	Conversations *ConversationHandler
	Metrics       *MetricsHandler

	// MaxUploadBytes caps the file part of multipart uploads. Zero disables
	// the request body cap.
	MaxUploadBytes int64
}

// RegisterRoutes mounts the API on api. Static paths are registered before
// their parameterised siblings.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	var limitUpload gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if h.MaxUploadBytes > 0 {
		limitUpload = middleware.LimitBody(h.MaxUploadBytes + multipartOverhead)
	}

	students := api.Group("/students")
	students.POST("/register", h.Students.Register)
	students.POST("/enroll", h.Students.Enroll)
	students.POST("/add-chapter", h.Students.AddChapter)
	students.POST("/remove-chapter", h.Students.RemoveChapter)
	students.POST("/upload-note", limitUpload, h.Students.UploadNote)
	students.GET("/:id", h.Students.Get)

	courses := api.Group("/courses")
	courses.POST("/create", h.Courses.Create)
	courses.GET("/student/:studentId", h.Courses.ListByStudent)
	courses.GET("/:id", h.Courses.Get)

	chapters := api.Group("/chapters")
	chapters.POST("/add", h.Courses.AddChapter)
	chapters.GET("/:studentId/:courseId", h.Courses.ListChapters)

	files := api.Group("/files")
	files.POST("/upload", limitUpload, h.Files.Upload)
	files.GET("", h.Files.List)
	files.GET("/:id", h.Files.Get)
	files.GET("/:id/download", h.Files.Download)
	files.DELETE("/:id", h.Files.Delete)

	conversations := api.Group("/conversations")
	conversations.GET("", h.Conversations.Get)
	conversations.GET("/export", h.Conversations.Export)
	conversations.POST("/:chapterId", h.Conversations.Send)

	if h.Metrics != nil {
		api.GET("/metrics/summary", h.Metrics.Summary)
	}
}

// RegisterProbes mounts the unprefixed operational endpoints.
func RegisterProbes(r gin.IRouter, metrics *MetricsHandler) {
	r.GET("/health", metrics.Health)
	r.GET("/ready", metrics.Ready)
	r.GET("/metrics", metrics.Prometheus)
}
