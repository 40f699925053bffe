package handlers

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yourusername/undertow/pkg/undertow/http11"
)

const (
	msgForbidden     = "403 Forbidden"
	msgFileNotFound  = "404 File Not Found"
	msgInternalError = "500 Internal Server Error"
)

// DefaultStaticRoot is the directory served when none is configured.
const DefaultStaticRoot = "static"

var mimeTypes = map[string]string{
	".html": "text/html",
	".txt":  "text/plain",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// MimeType returns the content type for name by its extension.
// Matching is exact and case-sensitive.
func MimeType(name string) string {
	if ct, ok := mimeTypes[path.Ext(name)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Static serves files from Root under /static/{relpath}.
//
// Any path containing ".." is refused with 403 before the filesystem is
// touched. Files are read whole on every request.
type Static struct {
	Root   fs.FS
	Logger zerolog.Logger
}

// NewStatic serves the directory dir.
func NewStatic(dir string, logger zerolog.Logger) *Static {
	return &Static{Root: os.DirFS(dir), Logger: logger}
}

// ServeRequest implements http11.Handler.
func (s *Static) ServeRequest(ctx context.Context, req *http11.Request) http11.Response {
	if strings.Contains(req.Path, "..") {
		return page(403, msgForbidden)
	}
	rel, _ := req.PathSuffix(StaticPrefix)

	// fs.FS names are unrooted; an empty name means the root directory.
	name := strings.TrimLeft(rel, "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return page(404, msgFileNotFound)
	}

	f, err := s.Root.Open(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.Logger.Debug().Err(err).Str("file", name).Msg("static open failed")
		}
		return page(404, msgFileNotFound)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.Logger.Error().Err(err).Str("file", name).Msg("static stat failed")
		return page(500, msgInternalError)
	}
	if info.IsDir() {
		return page(404, msgFileNotFound)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		s.Logger.Error().Err(err).Str("file", name).Msg("static read failed")
		return page(500, msgInternalError)
	}

	return http11.Response{Status: 200, ContentType: MimeType(name), Body: data}
}
