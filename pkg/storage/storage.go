// Package storage abstracts the media provider that holds uploaded
// documents, prescription PDFs, and TC card PDFs. Callers upload a new
// asset, swap the reference on the owning record, and only then delete
// the old asset, so a failed upload never orphans the record.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
)

var ErrNotFound = errors.New("stored asset not found")

// Storage uploads and deletes binary assets. Upload returns the public
// reference stored on domain records; Delete addresses by PublicID.
type Storage interface {
	Upload(ctx context.Context, filename string, r io.Reader) (domain.FileRef, error)
	Delete(ctx context.Context, publicID string) error
}

// Subfolder routes an asset below the provider namespace by extension.
// PDFs live under pdf/, everything else under images/.
func Subfolder(filename string) string {
	if strings.EqualFold(path.Ext(filename), ".pdf") {
		return "pdf"
	}
	return "images"
}
