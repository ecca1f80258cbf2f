package advert

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MaxPhotoSize bounds an uploaded photo (1 MiB).
const MaxPhotoSize = 1 << 20

// Uploader stores uploaded photos on disk under random names so user-supplied
// file names never reach the filesystem.
type Uploader struct {
	dir string
}

func NewUploader(dir string) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create photos directory")
	}
	return &Uploader{dir: dir}, nil
}

// Upload copies the file into the photos directory and returns the stored
// file name.
func (u *Uploader) Upload(file multipart.File, header *multipart.FileHeader) (string, error) {
	name := uuid.New().String() + filepath.Ext(header.Filename)

	dst, err := os.Create(filepath.Join(u.dir, name))
	if err != nil {
		return "", errors.Wrap(err, "create photo file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, MaxPhotoSize)); err != nil {
		return "", errors.Wrap(err, "write photo file")
	}
	return name, nil
}

// Remove deletes a stored photo file. A missing file is not an error.
func (u *Uploader) Remove(name string) error {
	err := os.Remove(filepath.Join(u.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove photo file")
	}
	return nil
}
