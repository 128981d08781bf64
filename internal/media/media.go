// Package media handles image uploads to an external media host.
package media

import (
	"context"
	"io"
)

// Upload is the result of a successful upload.
type Upload struct {
	// URL is the public URL the file is served from.
	URL string `json:"url"`
	// PublicID identifies the file at the media host.
	PublicID string `json:"publicId"`
}

// Uploader sends files to a media host.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (Upload, error)
}
