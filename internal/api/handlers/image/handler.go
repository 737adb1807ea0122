package image

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-compressor/internal/api/respond"
	"github.com/aliskhannn/image-compressor/internal/archive"
	"github.com/aliskhannn/image-compressor/internal/model"
	imagerepo "github.com/aliskhannn/image-compressor/internal/repository/image"
	imagesvc "github.com/aliskhannn/image-compressor/internal/service/image"
	"github.com/aliskhannn/image-compressor/internal/storage/preview"
)

// service defines the interface for image-related operations.
type service interface {
	Submit(files []model.File, target model.Format, quality int) []model.Image
	List() ([]*model.Image, map[model.Status]int)
	GetImage(id uuid.UUID) (model.Image, error)
	Result(id uuid.UUID) (*model.Blob, string, error)
	Preview(handle string) (*model.Blob, error)
	Retry(id uuid.UUID) error
	DeleteImage(id uuid.UUID) error
	Clear() int
	Archive(w io.Writer) (int, error)
}

// Handler provides HTTP handlers for image-related endpoints.
type Handler struct {
	service       service
	defaultFormat model.Format
	maxUploadSize int64
}

// NewHandler creates a new Handler. defaultFormat is used when an upload
// does not name an output format.
func NewHandler(s service, defaultFormat model.Format, maxUploadSize int64) *Handler {
	return &Handler{service: s, defaultFormat: defaultFormat, maxUploadSize: maxUploadSize}
}

// ListResponse is the body of the list endpoint.
type ListResponse struct {
	Images []*model.Image        `json:"images"`
	Counts map[model.Status]int `json:"counts"`
}

// Upload accepts one or more files in the "images" form field and submits
// them for compression. The output format and quality come from the
// "format" and "quality" fields.
func (h *Handler) Upload(c *ginext.Context) {
	if err := c.Request.ParseMultipartForm(h.maxUploadSize); err != nil {
		zlog.Logger.Err(err).Msg("failed to parse multipart form")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("parse multipart form failed: %v", err))
		return
	}

	target := h.defaultFormat
	if raw := c.PostForm("format"); raw != "" {
		f, err := model.ParseFormat(raw)
		if err != nil {
			respond.Fail(c, http.StatusBadRequest, err)
			return
		}
		target = f
	}

	quality := 0
	if raw := c.PostForm("quality"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid quality: %q", raw))
			return
		}
		quality = q
	}

	headers := c.Request.MultipartForm.File["images"]
	if len(headers) == 0 {
		zlog.Logger.Warn().Msg("no images provided")
		respond.Fail(c, http.StatusBadRequest, errors.New("images field is required"))
		return
	}

	files := make([]model.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFile(fh)
		if err != nil {
			zlog.Logger.Err(err).Str("filename", fh.Filename).Msg("failed to read the file")
			respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to read %s", fh.Filename))
			return
		}
		files = append(files, f)
	}

	images := h.service.Submit(files, target, quality)

	zlog.Logger.Info().
		Int("count", len(images)).
		Str("target", string(target)).
		Msg("images submitted")

	respond.Created(c, images)
}

// readFile loads an uploaded part into memory. When the client sends no
// useful content type it is sniffed from the data.
func readFile(fh *multipart.FileHeader) (model.File, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}

	return model.NewMemoryFile(fh.Filename, contentType, data), nil
}

// List returns all images in submission order with per-status counts.
func (h *Handler) List(c *ginext.Context) {
	images, counts := h.service.List()
	respond.OK(c, ListResponse{Images: images, Counts: counts})
}

// Get returns the metadata of a single image.
func (h *Handler) Get(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	img, err := h.service.GetImage(id)
	if err != nil {
		fail(c, err)
		return
	}

	respond.OK(c, img)
}

// Download serves the compressed image as an attachment.
func (h *Handler) Download(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	blob, name, err := h.service.Result(id)
	if err != nil {
		fail(c, err)
		return
	}

	respond.Blob(c, blob, name)
}

// Preview serves an encoded image by its preview handle.
func (h *Handler) Preview(c *ginext.Context) {
	blob, err := h.service.Preview(c.Param("handle"))
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Cache-Control", "private, max-age=3600")
	respond.Blob(c, blob, "")
}

// Retry re-enqueues a failed image.
func (h *Handler) Retry(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Retry(id); err != nil {
		fail(c, err)
		return
	}

	respond.Accepted(c, map[string]interface{}{"id": id})
}

// Delete removes an image by ID.
func (h *Handler) Delete(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteImage(id); err != nil {
		fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Clear removes every image.
func (h *Handler) Clear(c *ginext.Context) {
	n := h.service.Clear()
	respond.OK(c, map[string]interface{}{"removed": n})
}

// Archive serves all compressed images as a single zip file.
func (h *Handler) Archive(c *ginext.Context) {
	buf := new(bytes.Buffer)

	n, err := h.service.Archive(buf)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to build archive")
		respond.Fail(c, http.StatusInternalServerError, errors.New("failed to build archive"))
		return
	}
	if n == 0 {
		respond.Fail(c, http.StatusNotFound, errors.New("no compressed images"))
		return
	}

	respond.Attachment(c, archive.Name)
	respond.Stream(c, "application/zip", int64(buf.Len()), buf)
}

func parseID(c *ginext.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		zlog.Logger.Warn().Str("id", c.Param("id")).Msg("failed to parse id")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return uuid.Nil, false
	}

	return id, true
}

// fail maps service errors to HTTP statuses.
func fail(c *ginext.Context, err error) {
	switch {
	case errors.Is(err, imagerepo.ErrImageNotFound):
		respond.Fail(c, http.StatusNotFound, errors.New("image not found"))
	case errors.Is(err, preview.ErrPreviewNotFound):
		respond.Fail(c, http.StatusNotFound, err)
	case errors.Is(err, imagesvc.ErrImageNotReady), errors.Is(err, imagesvc.ErrNotRetryable):
		respond.Fail(c, http.StatusConflict, err)
	default:
		zlog.Logger.Err(err).Msg("request failed")
		respond.Fail(c, http.StatusInternalServerError, err)
	}
}
