package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thomas-vilte/svnreview/internal/models"
)

type (
	MockCommitResolver struct {
		mock.Mock
	}

	MockReviewProvider struct {
		mock.Mock
	}
)

func (m *MockCommitResolver) ResolveCommits(ctx context.Context, ids []string) ([]models.CommitData, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CommitData), args.Error(1)
}

func (m *MockReviewProvider) GenerateReview(ctx context.Context, req models.ReviewRequest) (*models.ReviewResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewResponse), args.Error(1)
}

func (m *MockReviewProvider) SupportsStreaming() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockReviewProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockReviewProvider) Model() string {
	args := m.Called()
	return args.String(0)
}
