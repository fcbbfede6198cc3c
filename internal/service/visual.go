package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/cloo-solutions/grootai/internal/fetch"
	"github.com/cloo-solutions/grootai/internal/telemetry"
	"github.com/google/uuid"
)

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// ImageFetcher downloads raw bytes with their content type.
type ImageFetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// ScratchStore keeps short-lived copies of fetched media.
type ScratchStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// VisionModel answers a prompt about one image.
type VisionModel interface {
	DescribeImage(ctx context.Context, prompt, imageURL string) (string, error)
}

// VisualService answers questions about an image at a URL.
type VisualService struct {
	fetcher ImageFetcher
	scratch ScratchStore
	model   VisionModel
	uuidGen UUIDGenerator
}

func NewVisualService(fetcher ImageFetcher, scratch ScratchStore, model VisionModel) *VisualService {
	return NewVisualServiceWithUUIDGen(fetcher, scratch, model, &DefaultUUIDGenerator{})
}

func NewVisualServiceWithUUIDGen(fetcher ImageFetcher, scratch ScratchStore, model VisionModel, uuidGen UUIDGenerator) *VisualService {
	return &VisualService{
		fetcher: fetcher,
		scratch: scratch,
		model:   model,
		uuidGen: uuidGen,
	}
}

// Describe fetches the image, keeps a scratch copy and asks the vision model
// about it. The image is sent inline so the model never fetches it itself.
func (s *VisualService) Describe(ctx context.Context, prompt, imageURL string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", domain.Wrap(domain.ErrMissingRequiredField, errors.New("prompt"))
	}
	imageURL = strings.TrimSpace(imageURL)
	if !isHTTPURL(imageURL) {
		return "", domain.ErrInvalidImageURL
	}

	ctx, span := telemetry.StartSpan(ctx, "visual.describe", telemetry.SpanAttributes{Tool: "visual_tool"})
	defer span.End()

	data, contentType, err := s.fetcher.Get(ctx, imageURL)
	if err != nil {
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) {
			err = fmt.Errorf("image fetch returned status %d", statusErr.StatusCode)
		}
		span.SetError(err)
		return "", domain.Wrap(domain.ErrImageFetch, err)
	}

	contentType = imageContentType(contentType, data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", domain.Wrap(domain.ErrImageFetch, fmt.Errorf("unsupported content type %q", contentType))
	}
	span.SetData("image_bytes", len(data))

	key := "images/" + s.uuidGen.NewString() + extensionFor(contentType)
	if err := s.scratch.Put(ctx, key, contentType, data); err != nil {
		log.Printf("[visual] scratch write failed for %s: %v", key, err)
	}

	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	answer, err := s.model.DescribeImage(ctx, prompt, dataURL)
	if err != nil {
		span.SetError(err)
		return "", domain.Wrap(domain.ErrVisionProvider, err)
	}

	return answer, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// imageContentType prefers the declared media type and sniffs when the
// server sent none or a generic one.
func imageContentType(declared string, data []byte) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return sniffed
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}
