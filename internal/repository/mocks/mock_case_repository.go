package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/repository"
)

type MockCaseRepository struct {
	mock.Mock
}

func (m *MockCaseRepository) CreateAssessment(ctx context.Context, c *model.Case, docs []model.Document, quals []model.Qualification, rec *model.VerdictRecord) (*repository.CreatedAssessment, error) {
	args := m.Called(ctx, c, docs, quals, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.CreatedAssessment), args.Error(1)
}

func (m *MockCaseRepository) FindByID(ctx context.Context, id string) (*model.Case, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Case), args.Error(1)
}

func (m *MockCaseRepository) List(ctx context.Context, q repository.PageQuery) (*repository.PageResult[model.Case], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Case]), args.Error(1)
}

func (m *MockCaseRepository) ListQualifications(ctx context.Context, caseID string) ([]model.Qualification, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Qualification), args.Error(1)
}

func (m *MockCaseRepository) AppendVerdict(ctx context.Context, rec *model.VerdictRecord) (*model.VerdictRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerdictRecord), args.Error(1)
}

func (m *MockCaseRepository) LatestVerdict(ctx context.Context, caseID string) (*model.VerdictRecord, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerdictRecord), args.Error(1)
}

func (m *MockCaseRepository) ListVerdicts(ctx context.Context, caseID string) ([]model.VerdictRecord, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VerdictRecord), args.Error(1)
}

func (m *MockCaseRepository) Stats(ctx context.Context) (*repository.CaseStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.CaseStats), args.Error(1)
}
