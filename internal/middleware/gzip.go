package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// NewGzipHandler compresses responses for clients that accept gzip.
// Bodies under gzhttp's default minimum size are sent as is.
func NewGzipHandler() (func(http.Handler) http.Handler, error) {
	wrap, err := gzhttp.NewWrapper(gzhttp.ContentTypes([]string{
		"application/json",
		"application/yaml",
		"text/html",
	}))
	if err != nil {
		return nil, err
	}
	return func(next http.Handler) http.Handler {
		return wrap(next)
	}, nil
}
