package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/repository"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/service"
)

type MockAssessmentService struct {
	mock.Mock
}

func (m *MockAssessmentService) Analyze(docs []service.AnalyzedDocument) *service.AnalysisResult {
	args := m.Called(docs)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*service.AnalysisResult)
}

func (m *MockAssessmentService) AssessCase(ctx context.Context, files []service.UploadedFile) (*service.CaseResult, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CaseResult), args.Error(1)
}

func (m *MockAssessmentService) Reassess(ctx context.Context, caseID string) (*model.VerdictRecord, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerdictRecord), args.Error(1)
}

func (m *MockAssessmentService) Report(ctx context.Context, caseID string) (*service.CaseReport, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CaseReport), args.Error(1)
}

func (m *MockAssessmentService) GetCase(ctx context.Context, id string) (*model.Case, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Case), args.Error(1)
}

func (m *MockAssessmentService) ListCases(ctx context.Context, limit, offset int) (*service.CaseListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CaseListResult), args.Error(1)
}

func (m *MockAssessmentService) Stats(ctx context.Context) (*repository.CaseStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.CaseStats), args.Error(1)
}
