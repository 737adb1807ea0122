package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-compressor/internal/api/handlers/image"
	"github.com/aliskhannn/image-compressor/internal/middleware"
)

func Setup(h *image.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.POST("/images", h.Upload)               // submitting images for compression
	api.GET("/images", h.List)                  // listing images with status counts
	api.GET("/images/:id", h.Get)               // getting image metadata by id
	api.GET("/images/:id/download", h.Download) // downloading the compressed image
	api.POST("/images/:id/retry", h.Retry)      // re-enqueueing a failed image
	api.DELETE("/images/:id", h.Delete)         // removing image by id
	api.DELETE("/images", h.Clear)              // removing all images
	api.GET("/archive", h.Archive)              // downloading all results as zip
	api.GET("/preview/:handle", h.Preview)      // serving a preview

	return r
}
