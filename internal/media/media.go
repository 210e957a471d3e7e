package media

import (
	"context"
	"errors"
	"io"
)

// Result describes a completed image upload at the media host.
type Result struct {
	URL    string
	Width  int
	Height int
	Format string
	Bytes  int
}

// Meta returns the result's free-form metadata map, in the shape
// broadcast alongside image messages.
func (r *Result) Meta() map[string]any {
	return map[string]any{
		"width":  r.Width,
		"height": r.Height,
		"format": r.Format,
		"size":   r.Bytes,
	}
}

// Uploader sends an image to an external media host and returns the
// resulting public URL plus metadata.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (*Result, error)
}

// ErrNotConfigured is returned when no media host credentials are set.
var ErrNotConfigured = errors.New("media uploads are not configured")

// Disabled is an Uploader that rejects every upload. Used when the
// media host is not configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader, string) (*Result, error) {
	return nil, ErrNotConfigured
}
