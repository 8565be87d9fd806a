package ai

import (
	"context"

	"github.com/bryanwahyu/plant-md/internal/domain/diagnosis"
)

// Provider asks a multimodal model to diagnose a leaf image. Diagnose returns
// the model's structured JSON text without interpreting it.
type Provider interface {
	Name() string
	Model() string
	Diagnose(ctx context.Context, img diagnosis.Image) (string, error)
}
