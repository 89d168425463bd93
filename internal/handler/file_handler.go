package handler

import (
	"context"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studynotes-api/internal/dto"
	"github.com/noah-isme/studynotes-api/internal/middleware"
	"github.com/noah-isme/studynotes-api/internal/service"
	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
	"github.com/noah-isme/studynotes-api/pkg/response"
)

type fileService interface {
	Upload(ctx context.Context, req dto.UploadFileRequest, upload dto.FileUpload) (*dto.FileDescriptor, error)
	List(ctx context.Context, query dto.FileQuery) (*dto.FileList, bool, error)
	Get(ctx context.Context, id string) (*dto.FileDescriptor, error)
	Download(ctx context.Context, id, token string) (*dto.FileDownload, error)
	Delete(ctx context.Context, id string) error
}

// FileHandler manages file upload, directory and deletion endpoints.
type FileHandler struct {
	service fileService
}

// NewFileHandler constructs the handler.
func NewFileHandler(service fileService) *FileHandler {
	return &FileHandler{service: service}
}

// Upload godoc
// @Summary Upload a notes file to a chapter
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Notes file"
// @Param studentId formData string true "Student ID"
// @Param courseId formData string true "Course ID"
// @Param chapterId formData string true "Chapter ID"
// @Success 200 {object} dto.FileDescriptor
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /files/upload [post]
func (h *FileHandler) Upload(c *gin.Context) {
	upload, closeFn, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFn()

	desc, err := h.service.Upload(c.Request.Context(), uploadRequest(c), upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, desc)
}

// List godoc
// @Summary List uploaded files
// @Tags Files
// @Produce json
// @Param studentId query string false "Student ID"
// @Param courseId query string false "Course ID"
// @Param chapterId query string false "Chapter ID"
// @Success 200 {object} dto.FileList
// @Router /files [get]
func (h *FileHandler) List(c *gin.Context) {
	var query dto.FileQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	files, hit, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.WriteMetaHeaders(c)
	response.Raw(c, http.StatusOK, files)
}

// Get godoc
// @Summary Get file metadata with a signed download link
// @Tags Files
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{id} [get]
func (h *FileHandler) Get(c *gin.Context) {
	desc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, desc)
}

// Download godoc
// @Summary Download file content via signed token
// @Tags Files
// @Produce octet-stream
// @Param id path string true "File ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /files/{id}/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.Download(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.Content.Close() //nolint:errcheck
	c.Header("Content-Disposition", attachment(result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.Size, result.ContentType, result.Content, nil)
}

// Delete godoc
// @Summary Delete a file, its content and every reference to it
// @Tags Files
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} response.MessageBody
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, response.MessageBody{Message: service.FileDeletedMessage})
}

func uploadRequest(c *gin.Context) dto.UploadFileRequest {
	return dto.UploadFileRequest{
		StudentID: strings.TrimSpace(c.PostForm("studentId")),
		CourseID:  strings.TrimSpace(c.PostForm("courseId")),
		ChapterID: strings.TrimSpace(c.PostForm("chapterId")),
	}
}

// readUpload opens the multipart "file" part. The returned func closes it.
func readUpload(c *gin.Context) (dto.FileUpload, func(), error) {
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dto.FileUpload{}, nil, appErrors.Clone(appErrors.ErrValidation, "File exceeds the maximum upload size")
		}
		return dto.FileUpload{}, nil, appErrors.Clone(appErrors.ErrValidation, "No file uploaded")
	}
	src, err := header.Open()
	if err != nil {
		return dto.FileUpload{}, nil, appErrors.Internal(err, "failed to open file")
	}
	return dto.FileUpload{
		Filename:    header.Filename,
		ContentType: contentTypeOf(header),
		Size:        header.Size,
		Content:     src,
	}, func() { _ = src.Close() }, nil
}

func contentTypeOf(header *multipart.FileHeader) string {
	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

func attachment(filename string) string {
	if disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); disposition != "" {
		return disposition
	}
	return "attachment"
}
