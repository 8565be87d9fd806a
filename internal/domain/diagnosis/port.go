package diagnosis

import "context"

// ImageArchive stores submitted leaf images. Store returns a URL for the object.
type ImageArchive interface {
	Store(ctx context.Context, key string, img Image) (string, error)
}
