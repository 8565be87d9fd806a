// Package capture reads leaf photos from disk or a stream and prepares them
// for the relay.
package capture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// ErrEmpty is returned when no image data was read.
var ErrEmpty = errors.New("no image selected")

// Image is a captured photo with its sniffed content type.
type Image struct {
	Name     string
	MimeType string
	Data     []byte
}

// Load reads the image at path.
func Load(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, err
	}
	defer f.Close()
	return Read(filepath.Base(path), f)
}

// Read captures an image from r. The content type is detected from the bytes,
// not from the name.
func Read(name string, r io.Reader) (Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Image{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return Image{}, ErrEmpty
	}
	return Image{
		Name:     name,
		MimeType: mimetype.Detect(data).String(),
		Data:     data,
	}, nil
}

// Base64 returns the image as standard base64 without a data-URI prefix.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}
