package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/plant-md/internal/application"
	"github.com/bryanwahyu/plant-md/internal/domain/ai"
	domain "github.com/bryanwahyu/plant-md/internal/domain/diagnosis"
	"github.com/bryanwahyu/plant-md/internal/domain/events"
)

const sinkTimeout = 5 * time.Second

// Service diagnoses leaf images through an AI provider.
// Service holds no per-request state and is safe for concurrent use.
type Service struct {
	Provider      ai.Provider // nil when no credentials are configured
	Archive       domain.ImageArchive
	Events        events.Recorder
	Clock         application.Clock
	MaxImageBytes int
}

// DiagnoseCommand is one relay request.
type DiagnoseCommand struct {
	RequestID string
	Image     string // base64, optionally with a data-URI prefix
	MimeType  string
}

// Diagnose validates the image, asks the provider for a structured analysis
// and checks the answer against the Analysis shape. The provider is called
// once; failures are never retried.
func (s *Service) Diagnose(ctx context.Context, cmd DiagnoseCommand) (a domain.Analysis, err error) {
	start := s.now()
	ev := &events.Event{
		ID:        uuid.NewString(),
		RequestID: cmd.RequestID,
		CreatedAt: start,
	}
	defer func() { s.record(ctx, ev, err, start) }()

	img, err := decodeImage(cmd.Image, cmd.MimeType, s.MaxImageBytes)
	if err != nil {
		return domain.Analysis{}, err
	}
	ev.MimeType = img.MimeType
	ev.ImageBytes = len(img.Data)

	if s.Provider == nil {
		log.Printf("diagnosis: request_id=%s provider credentials are not configured", cmd.RequestID)
		return domain.Analysis{}, ai.ErrNotConfigured
	}
	ev.Provider = s.Provider.Name()
	ev.Model = s.Provider.Model()

	text, err := s.Provider.Diagnose(ctx, img)
	if err != nil {
		log.Printf("diagnosis: request_id=%s provider=%s error=%v", cmd.RequestID, ev.Provider, err)
		return domain.Analysis{}, fmt.Errorf("diagnose leaf: %w", err)
	}

	a, c, err := domain.Decode([]byte(text))
	if err != nil {
		log.Printf("diagnosis: request_id=%s provider=%s unexpected response shape: %v", cmd.RequestID, ev.Provider, err)
		return domain.Analysis{}, fmt.Errorf("%w: %v", ai.ErrInvalidResponse, err)
	}
	if c.Adjusted {
		log.Printf("diagnosis: request_id=%s received invalid confidence score %v, using %v", cmd.RequestID, c.Raw, a.ConfidenceScore)
	}

	ev.ArchiveKey = s.archive(ctx, cmd.RequestID, img, start)
	return a, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

// archive stores a successfully diagnosed image when an archive is configured.
// Failures are logged and do not affect the diagnosis.
func (s *Service) archive(ctx context.Context, requestID string, img domain.Image, at time.Time) string {
	if s.Archive == nil {
		return ""
	}
	key := fmt.Sprintf("leaves/%s/%s%s", at.UTC().Format("2006/01/02"), uuid.NewString(), extensionFor(img.MimeType))
	ctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()
	if _, err := s.Archive.Store(ctx, key, img); err != nil {
		log.Printf("diagnosis: request_id=%s archive key=%s error=%v", requestID, key, err)
		return ""
	}
	return key
}

func (s *Service) record(ctx context.Context, ev *events.Event, err error, start time.Time) {
	if s.Events == nil {
		return
	}
	ev.DurationMS = s.now().Sub(start).Milliseconds()
	ev.Outcome = events.OutcomeSuccess
	if err != nil {
		ev.Outcome = events.OutcomeFailed
		ev.ErrorKind = Kind(err)
		ev.Message = err.Error()
		var up *ai.UpstreamError
		if errors.As(err, &up) {
			ev.UpstreamStatus = up.StatusCode
		}
	}

	// the request may already be cancelled; the event should still land
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()
	if rerr := s.Events.Record(ctx, ev); rerr != nil {
		log.Printf("diagnosis: request_id=%s record event %s error=%v", ev.RequestID, ev.ID, rerr)
	}
}

// Kind classifies a Diagnose error for logs and events.
func Kind(err error) string {
	var up *ai.UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrMissingImage),
		errors.Is(err, domain.ErrInvalidImage),
		errors.Is(err, domain.ErrUnsupportedImage),
		errors.Is(err, domain.ErrImageTooLarge):
		return "input"
	case errors.Is(err, ai.ErrNotConfigured):
		return "config"
	case errors.As(err, &up):
		return "upstream"
	case errors.Is(err, ai.ErrInvalidResponse):
		return "upstream_shape"
	default:
		return "internal"
	}
}
