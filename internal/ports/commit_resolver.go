package ports

import (
	"context"

	"github.com/thomas-vilte/svnreview/internal/models"
)

// CommitResolver loads reviewable commit bodies for a list of commit identifiers.
// Identifiers that do not resolve are skipped rather than failing the whole call.
type CommitResolver interface {
	ResolveCommits(ctx context.Context, ids []string) ([]models.CommitData, error)
}
