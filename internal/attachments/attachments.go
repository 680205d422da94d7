// Package attachments stores files attached to expenses and payments. Files
// are addressed by the URL returned from Upload.
package attachments

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrUnknownURL is returned by DeleteByURL for URLs the store did not issue.
var ErrUnknownURL = errors.New("attachment url not owned by this store")

// Store uploads files and deletes them by URL.
type Store interface {
	Upload(ctx context.Context, ownerID, filename, contentType string, body io.Reader) (string, error)
	DeleteByURL(ctx context.Context, url string) error
}

// cleanName keeps the base name of an uploaded file and replaces characters
// that are awkward in object keys.
func cleanName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
