package repository

import (
	"context"
	"time"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
)

// CaseRepository defines data access for cases, their qualification records,
// and their verdict history. No business logic here — strictly persistence.
// The decision engine only needs read access to the qualifications list and
// write access to append one verdict.
type CaseRepository interface {
	// CreateAssessment persists a new case together with its document rows,
	// credential records, and first verdict in one transaction: either the
	// whole assessment is stored or nothing is, so a failed write never
	// leaves an orphaned case behind for the client to duplicate on retry.
	CreateAssessment(ctx context.Context, c *model.Case, docs []model.Document, quals []model.Qualification, rec *model.VerdictRecord) (*CreatedAssessment, error)

	// FindByID returns a case (metadata only) by its ID.
	FindByID(ctx context.Context, id string) (*model.Case, error)

	// List returns a paginated list of cases and a total rows count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Case], error)

	// ListQualifications returns a case's stored credential records.
	ListQualifications(ctx context.Context, caseID string) ([]model.Qualification, error)

	// AppendVerdict stores one assessment result. Verdicts are append-only;
	// the case's current verdict is the latest by assessed_at.
	AppendVerdict(ctx context.Context, rec *model.VerdictRecord) (*model.VerdictRecord, error)

	// LatestVerdict returns a case's most recent verdict record.
	LatestVerdict(ctx context.Context, caseID string) (*model.VerdictRecord, error)

	// ListVerdicts returns a case's verdict history ordered by assessment time.
	ListVerdicts(ctx context.Context, caseID string) ([]model.VerdictRecord, error)

	// Stats aggregates each case's latest verdict for the dashboard.
	Stats(ctx context.Context) (*CaseStats, error)
}

// CreatedAssessment is what CreateAssessment stored, read back from the
// database.
type CreatedAssessment struct {
	Case      *model.Case
	Documents []model.Document
	Verdict   *model.VerdictRecord
}

// CaseStats aggregates the latest verdict per case. It is served as-is by
// the stats endpoint.
type CaseStats struct {
	TotalCases int                     `json:"total_cases"`
	ByOutcome  map[model.Outcome]int   `json:"by_outcome"`
	ByRisk     map[model.RiskLevel]int `json:"by_risk"`
	// ComplianceRate is the percentage of assessed cases whose latest verdict
	// is COMPLIANT. Zero when no case has a verdict yet.
	ComplianceRate float64            `json:"compliance_rate"`
	Recent         []RecentAssessment `json:"recent"`
}

// RecentAssessment is one row of the dashboard's recent-activity list.
type RecentAssessment struct {
	WorkerName string        `json:"worker_name"`
	Outcome    model.Outcome `json:"outcome"`
	AssessedAt time.Time     `json:"assessed_at"`
}
