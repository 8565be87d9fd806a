package diagnosis

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	domain "github.com/bryanwahyu/plant-md/internal/domain/diagnosis"
)

const fallbackExtension = ".img"

// decodeImage turns the request payload into raw bytes and a content type.
// A data-URI prefix is accepted and its media type counts as the declared type.
func decodeImage(payload, declared string, maxBytes int) (domain.Image, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return domain.Image{}, domain.ErrMissingImage
	}

	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return domain.Image{}, fmt.Errorf("%w: malformed data URI", domain.ErrInvalidImage)
		}
		header := payload[len("data:"):comma]
		if !strings.HasSuffix(header, ";base64") {
			return domain.Image{}, fmt.Errorf("%w: data URI is not base64", domain.ErrInvalidImage)
		}
		if declared == "" {
			declared = strings.TrimSuffix(header, ";base64")
		}
		payload = payload[comma+1:]
	}

	payload = strings.NewReplacer("\n", "", "\r", "").Replace(payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return domain.Image{}, domain.ErrMissingImage
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return domain.Image{}, fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrImageTooLarge, len(data), maxBytes)
	}

	mime, err := resolveMime(data, declared)
	if err != nil {
		return domain.Image{}, err
	}
	return domain.Image{Data: data, MimeType: mime}, nil
}

// resolveMime prefers the sniffed type and falls back to the declared one for
// image formats the detector does not know.
func resolveMime(data []byte, declared string) (string, error) {
	detected := mimetype.Detect(data).String()
	if isImage(detected) {
		return detected, nil
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if isImage(declared) {
		return declared, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, detected)
}

func isImage(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}

func extensionFor(mime string) string {
	if m := mimetype.Lookup(mime); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return fallbackExtension
}
