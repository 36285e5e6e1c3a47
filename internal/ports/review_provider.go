package ports

import (
	"context"

	"github.com/thomas-vilte/svnreview/internal/models"
)

// ReviewProvider turns a review request into findings.
type ReviewProvider interface {
	GenerateReview(ctx context.Context, req models.ReviewRequest) (*models.ReviewResponse, error)

	// SupportsStreaming reports whether the backend can stream partial completions.
	SupportsStreaming() bool

	// Name is the provider identifier stored on review sessions (e.g.: "openai", "mock").
	Name() string

	// Model is the model the provider sends requests to.
	Model() string
}
