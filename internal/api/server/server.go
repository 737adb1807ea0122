package server

import (
	"net/http"
	"time"

	"github.com/wb-go/wbf/ginext"
)

// New creates an HTTP server for the router. Write timeout is generous
// because archive downloads may carry many compressed images.
func New(addr string, router *ginext.Engine) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
