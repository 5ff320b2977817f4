package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/repository"
)

// CasePostgres is a PostgreSQL implementation of repository.CaseRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type CasePostgres struct {
	db *sql.DB
}

// NewCasePostgres creates a new CasePostgres repository.
func NewCasePostgres(db *sql.DB) *CasePostgres {
	return &CasePostgres{db: db}
}

var _ repository.CaseRepository = (*CasePostgres)(nil)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the insert helpers run both standalone and inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateAssessment writes a full assessment (case, document rows, credential
// records, first verdict) in one transaction. A failure at any statement
// rolls the whole assessment back.
func (r *CasePostgres) CreateAssessment(ctx context.Context, c *model.Case, docs []model.Document, quals []model.Qualification, rec *model.VerdictRecord) (*repository.CreatedAssessment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assessment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	out := &repository.CreatedAssessment{}
	if out.Case, err = insertCase(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("insert case: %w", err)
	}

	out.Documents = make([]model.Document, 0, len(docs))
	for i := range docs {
		var stored *model.Document
		if stored, err = insertDocument(ctx, tx, &docs[i]); err != nil {
			return nil, fmt.Errorf("insert document %s: %w", docs[i].Filename, err)
		}
		out.Documents = append(out.Documents, *stored)
	}

	if err = insertQualifications(ctx, tx, quals); err != nil {
		return nil, err
	}

	if out.Verdict, err = insertVerdict(ctx, tx, rec); err != nil {
		return nil, fmt.Errorf("insert verdict: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assessment tx: %w", err)
	}
	return out, nil
}

func insertCase(ctx context.Context, q querier, c *model.Case) (*model.Case, error) {
	const query = `
		INSERT INTO cases (id, worker_name, cos_reference, job_title, soc_code, assignment_date_raw, assignment_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, worker_name, cos_reference, job_title, soc_code, assignment_date_raw, assignment_date, created_at
	`
	row := q.QueryRowContext(ctx, query,
		c.ID,
		c.Metadata.WorkerName,
		c.Metadata.CoSReference,
		c.Metadata.JobTitle,
		c.Metadata.SOCCode,
		c.Metadata.AssignmentDateRaw,
		c.Metadata.AssignmentDate,
		c.CreatedAt,
	)
	return scanCase(row)
}

// FindByID fetches a single case by its ID. Mentions and verdicts are loaded
// through their own queries.
func (r *CasePostgres) FindByID(ctx context.Context, id string) (*model.Case, error) {
	const q = `
		SELECT id, worker_name, cos_reference, job_title, soc_code, assignment_date_raw, assignment_date, created_at
		FROM cases
		WHERE id = $1
	`
	return scanCase(r.db.QueryRowContext(ctx, q, id))
}

// List returns cases using LIMIT/OFFSET pagination and a total count.
func (r *CasePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Case], error) {
	const qCount = `SELECT COUNT(*) FROM cases`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, worker_name, cos_reference, job_title, soc_code, assignment_date_raw, assignment_date, created_at
		FROM cases
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Case]{Items: items, Total: total}, nil
}

func insertQualifications(ctx context.Context, db querier, quals []model.Qualification) error {
	const q = `
		INSERT INTO qualifications (id, case_id, title, level, completion_date, issuing_body, certificate_number, verification_status, source_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, qual := range quals {
		if _, err := db.ExecContext(ctx, q,
			qual.ID,
			qual.CaseID,
			qual.Title,
			qual.Level,
			qual.CompletionDate,
			qual.IssuingBody,
			qual.CertificateNumber,
			qual.VerificationStatus,
			string(qual.SourceRole),
			qual.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert qualification %s: %w", qual.Title, err)
		}
	}
	return nil
}

// ListQualifications returns a case's credential records in insertion order.
func (r *CasePostgres) ListQualifications(ctx context.Context, caseID string) ([]model.Qualification, error) {
	const q = `
		SELECT id, case_id, title, level, completion_date, issuing_body, certificate_number, verification_status, source_role, created_at
		FROM qualifications
		WHERE case_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Qualification, 0)
	for rows.Next() {
		var qual model.Qualification
		var completion sql.NullTime
		var role string
		if err := rows.Scan(
			&qual.ID,
			&qual.CaseID,
			&qual.Title,
			&qual.Level,
			&completion,
			&qual.IssuingBody,
			&qual.CertificateNumber,
			&qual.VerificationStatus,
			&role,
			&qual.CreatedAt,
		); err != nil {
			return nil, err
		}
		if completion.Valid {
			t := completion.Time
			qual.CompletionDate = &t
		}
		qual.SourceRole = model.DocumentRole(role)
		out = append(out, qual)
	}
	return out, rows.Err()
}

// AppendVerdict stores one assessment result. The full verdict is kept as
// JSONB next to the indexed outcome columns used by Stats.
func (r *CasePostgres) AppendVerdict(ctx context.Context, rec *model.VerdictRecord) (*model.VerdictRecord, error) {
	return insertVerdict(ctx, r.db, rec)
}

func insertVerdict(ctx context.Context, db querier, rec *model.VerdictRecord) (*model.VerdictRecord, error) {
	payload, err := json.Marshal(rec.Verdict)
	if err != nil {
		return nil, fmt.Errorf("marshal verdict: %w", err)
	}

	var breach sql.NullString
	if rec.Verdict.BreachType != "" {
		breach = sql.NullString{String: string(rec.Verdict.BreachType), Valid: true}
	}

	const q = `
		INSERT INTO verdicts (id, case_id, outcome, risk_level, breach_type, verdict, narrative, assessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, case_id, verdict, narrative, assessed_at
	`
	row := db.QueryRowContext(ctx, q,
		rec.ID,
		rec.CaseID,
		string(rec.Verdict.Outcome),
		string(rec.Verdict.Risk),
		breach,
		payload,
		rec.Narrative,
		rec.AssessedAt,
	)
	return scanVerdict(row)
}

// LatestVerdict returns a case's most recent verdict record.
func (r *CasePostgres) LatestVerdict(ctx context.Context, caseID string) (*model.VerdictRecord, error) {
	const q = `
		SELECT id, case_id, verdict, narrative, assessed_at
		FROM verdicts
		WHERE case_id = $1
		ORDER BY assessed_at DESC, id DESC
		LIMIT 1
	`
	return scanVerdict(r.db.QueryRowContext(ctx, q, caseID))
}

// ListVerdicts returns a case's verdict history, oldest first.
func (r *CasePostgres) ListVerdicts(ctx context.Context, caseID string) ([]model.VerdictRecord, error) {
	const q = `
		SELECT id, case_id, verdict, narrative, assessed_at
		FROM verdicts
		WHERE case_id = $1
		ORDER BY assessed_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.VerdictRecord, 0)
	for rows.Next() {
		rec, err := scanVerdict(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Stats aggregates the latest verdict of each case.
func (r *CasePostgres) Stats(ctx context.Context) (*repository.CaseStats, error) {
	stats := &repository.CaseStats{
		ByOutcome: make(map[model.Outcome]int),
		ByRisk:    make(map[model.RiskLevel]int),
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cases`).Scan(&stats.TotalCases); err != nil {
		return nil, err
	}

	// DISTINCT ON keeps only the latest verdict per case.
	const qLatest = `
		SELECT DISTINCT ON (v.case_id) c.worker_name, v.outcome, v.risk_level, v.assessed_at
		FROM verdicts v
		JOIN cases c ON c.id = v.case_id
		ORDER BY v.case_id, v.assessed_at DESC, v.id DESC
	`
	rows, err := r.db.QueryContext(ctx, qLatest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ra repository.RecentAssessment
		var risk string
		if err := rows.Scan(&ra.WorkerName, &ra.Outcome, &risk, &ra.AssessedAt); err != nil {
			return nil, err
		}
		stats.ByOutcome[ra.Outcome]++
		stats.ByRisk[model.RiskLevel(risk)]++
		stats.Recent = append(stats.Recent, ra)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if assessed := len(stats.Recent); assessed > 0 {
		stats.ComplianceRate = float64(stats.ByOutcome[model.OutcomeCompliant]) / float64(assessed) * 100
	}

	// Keep only the five most recent assessments for the dashboard.
	sort.Slice(stats.Recent, func(i, j int) bool {
		return stats.Recent[i].AssessedAt.After(stats.Recent[j].AssessedAt)
	})
	if len(stats.Recent) > 5 {
		stats.Recent = stats.Recent[:5]
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*model.Case, error) {
	var c model.Case
	var assignment sql.NullTime
	if err := row.Scan(
		&c.ID,
		&c.Metadata.WorkerName,
		&c.Metadata.CoSReference,
		&c.Metadata.JobTitle,
		&c.Metadata.SOCCode,
		&c.Metadata.AssignmentDateRaw,
		&assignment,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if assignment.Valid {
		t := assignment.Time
		c.Metadata.AssignmentDate = &t
	}
	return &c, nil
}

func scanVerdict(row rowScanner) (*model.VerdictRecord, error) {
	var rec model.VerdictRecord
	var payload []byte
	if err := row.Scan(
		&rec.ID,
		&rec.CaseID,
		&payload,
		&rec.Narrative,
		&rec.AssessedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &rec.Verdict); err != nil {
		return nil, fmt.Errorf("unmarshal verdict: %w", err)
	}
	return &rec, nil
}
