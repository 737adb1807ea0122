package respond

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-compressor/internal/model"
)

// Success represents a standard structure for successful responses.
type Success struct {
	Result interface{} `json:"result"`
}

// Error represents a standard structure for error responses.
type Error struct {
	Message string `json:"message"`
}

// Blob streams an encoded image. If filename is not empty the response is
// sent as an attachment with that name.
func Blob(c *ginext.Context, blob *model.Blob, filename string) {
	if filename != "" {
		Attachment(c, filename)
	}

	c.DataFromReader(http.StatusOK, int64(len(blob.Data)), blob.Type, bytes.NewReader(blob.Data), nil)
}

// Stream sends size bytes from reader with the given content type.
func Stream(c *ginext.Context, contentType string, size int64, reader io.Reader) {
	c.DataFromReader(http.StatusOK, size, contentType, reader, nil)
}

// Attachment marks the response as a download named filename.
func Attachment(c *ginext.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

// JSON sends a JSON response with the specified HTTP status code and data.
func JSON(c *ginext.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// OK sends a 200 OK JSON response, wrapping the given result in a Success struct.
func OK(c *ginext.Context, result interface{}) {
	JSON(c, http.StatusOK, Success{Result: result})
}

// Created sends a 201 Created JSON response, wrapping the given result in a Success struct.
func Created(c *ginext.Context, result interface{}) {
	JSON(c, http.StatusCreated, Success{Result: result})
}

// Accepted sends a 202 Accepted JSON response.
func Accepted(c *ginext.Context, result interface{}) {
	JSON(c, http.StatusAccepted, Success{Result: result})
}

// Fail sends an error JSON response with the specified HTTP status code.
func Fail(c *ginext.Context, status int, err error) {
	JSON(c, status, Error{Message: err.Error()})
}
