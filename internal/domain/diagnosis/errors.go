package diagnosis

import "errors"

var (
	// ErrMissingImage is returned when a request carries no image data.
	ErrMissingImage = errors.New("missing image data")
	// ErrInvalidImage is returned when the image payload is not valid base64.
	ErrInvalidImage = errors.New("invalid image data")
	// ErrUnsupportedImage is returned when the payload is not an image.
	ErrUnsupportedImage = errors.New("unsupported image type")
	// ErrImageTooLarge is returned when the payload exceeds the configured limit.
	ErrImageTooLarge = errors.New("image too large")
	// ErrInvalidShape is returned when JSON does not match the Analysis shape.
	ErrInvalidShape = errors.New("analysis does not match expected shape")
)
