package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/classify"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/engine"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/extract"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/report"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/repository"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/storage"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrCaseNotFound    = errors.New("case not found")
	ErrNoDocuments     = errors.New("no documents provided")
	ErrVerdictNotFound = errors.New("no verdict recorded for case")
)

// UploadedFile is one raw file submitted for a case.
type UploadedFile struct {
	Data        []byte
	Filename    string
	ContentType string
}

// AnalyzedDocument is the core analysis input: extracted text plus filename,
// with an optional pre-supplied role. An empty role means the classifier
// decides from content and filename.
type AnalyzedDocument struct {
	Text     string
	Filename string
	Role     model.DocumentRole
}

// AnalysisResult is the outcome of the pure analysis pipeline for one case.
type AnalysisResult struct {
	Metadata  model.CaseMetadata
	Mentions  []model.QualificationMention
	Roles     []model.DocumentRole // per input document, in submission order
	Verdict   model.Verdict
	Narrative string
}

// CaseResult is the result of a persisting assessment.
type CaseResult struct {
	Case      *model.Case                  `json:"case"`
	Verdict   *model.VerdictRecord         `json:"verdict"`
	Documents []model.Document             `json:"documents"`
	Mentions  []model.QualificationMention `json:"mentions"`
}

// CaseListResult is the service-level DTO for paginated cases.
type CaseListResult struct {
	Items []model.Case `json:"data"`
	Total int          `json:"total"`
}

// CaseReport is the report payload consumed by the JSON API and laid out by
// the PDF collaborator: the narrative as an opaque paragraph plus the fixed
// summary fields.
type CaseReport struct {
	CaseID          string                `json:"case_id"`
	WorkerName      string                `json:"worker_name"`
	CoSReference    string                `json:"cos_reference"`
	JobTitle        string                `json:"job_title"`
	SOCCode         string                `json:"soc_code"`
	AssignmentDate  string                `json:"assignment_date"`
	Outcome         model.Outcome         `json:"compliance_status"`
	Risk            model.RiskLevel       `json:"risk_level"`
	BreachType      model.BreachType      `json:"breach_type,omitempty"`
	Findings        []string              `json:"findings"`
	Recommendations []string              `json:"recommendations"`
	Qualifications  []model.Qualification `json:"qualifications_found"`
	EvidenceStatus  string                `json:"evidence_status"`
	Narrative       string                `json:"narrative"`
	AssessedAt      time.Time             `json:"assessed_at"`
	GeneratedAt     time.Time             `json:"generated_at"`
}

// Evidence status values reported alongside a verdict.
const (
	EvidenceCertificates    = "CERTIFICATES_AVAILABLE"
	EvidenceClaimsOnly      = "QUALIFICATIONS_CLAIMED_NO_CERTIFICATES"
	EvidenceNoQualification = "NO_QUALIFICATIONS_FOUND"
)

// AssessmentService defines the use cases for analyzing and assessing cases.
type AssessmentService interface {
	// Analyze runs the full pure pipeline (classification, fact extraction,
	// decision, narrative) over pre-extracted document texts. It has no
	// side effects and is deterministic for identical inputs.
	Analyze(docs []AnalyzedDocument) *AnalysisResult

	// AssessCase stores the uploaded files, extracts and analyzes them, and
	// persists the case, its documents, qualification records, and verdict
	// in a single transaction. On failure nothing is persisted and staged
	// storage objects are removed.
	AssessCase(ctx context.Context, files []UploadedFile) (*CaseResult, error)

	// Reassess re-runs the decision procedure over a case's stored
	// qualification records and appends a new verdict. Identical inputs
	// yield an identical verdict (new record ID and timestamp aside).
	Reassess(ctx context.Context, caseID string) (*model.VerdictRecord, error)

	// Report builds the report payload from the case's latest verdict.
	Report(ctx context.Context, caseID string) (*CaseReport, error)

	// GetCase returns a single case by its ID.
	GetCase(ctx context.Context, id string) (*model.Case, error)

	// ListCases returns cases using limit/offset and a total count.
	ListCases(ctx context.Context, limit, offset int) (*CaseListResult, error)

	// Stats aggregates latest verdicts for the dashboard.
	Stats(ctx context.Context) (*repository.CaseStats, error)
}

// assessmentService is a concrete implementation of AssessmentService.
type assessmentService struct {
	store   storage.Storage
	cases   repository.CaseRepository
	engine  *engine.Engine
	decided *prometheus.CounterVec
	now     func() time.Time
}

// NewAssessmentService constructs a new AssessmentService. reg may be nil to
// skip metric registration (e.g., in tests).
func NewAssessmentService(
	store storage.Storage,
	cases repository.CaseRepository,
	eng *engine.Engine,
	reg prometheus.Registerer,
) (AssessmentService, error) {
	decided := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_assessments_total",
			Help: "Total number of compliance assessments by outcome.",
		},
		[]string{"outcome"},
	)
	if reg != nil {
		if err := reg.Register(decided); err != nil {
			return nil, err
		}
	}
	return &assessmentService{
		store:   store,
		cases:   cases,
		engine:  eng,
		decided: decided,
		now:     time.Now,
	}, nil
}

func (s *assessmentService) Analyze(docs []AnalyzedDocument) *AnalysisResult {
	metas := make([]model.CaseMetadata, len(docs))
	perDoc := make([][]model.QualificationMention, len(docs))
	roles := make([]model.DocumentRole, len(docs))

	// Each document's facts are independent, so extraction fans out. Results
	// land in index-addressed slices and the metadata merge below walks them
	// in submission order, so the result does not depend on completion order.
	var wg sync.WaitGroup
	for i, d := range docs {
		wg.Add(1)
		go func(i int, d AnalyzedDocument) {
			defer wg.Done()
			role := d.Role
			if role == "" {
				role = classify.Role(d.Text, d.Filename)
			}
			roles[i] = role
			metas[i] = extract.Metadata(d.Text, d.Filename)
			perDoc[i] = extract.Mentions(d.Text, role)
		}(i, d)
	}
	wg.Wait()

	meta := extract.MergeMetadata(metas)
	var mentions []model.QualificationMention
	for _, ms := range perDoc {
		mentions = append(mentions, ms...)
	}

	verdict := s.engine.Assess(meta, mentions)
	return &AnalysisResult{
		Metadata:  meta,
		Mentions:  mentions,
		Roles:     roles,
		Verdict:   verdict,
		Narrative: report.Render(verdict, meta),
	}
}

func (s *assessmentService) AssessCase(ctx context.Context, files []UploadedFile) (*CaseResult, error) {
	if len(files) == 0 {
		return nil, ErrNoDocuments
	}

	// Text extraction per file is independent and parallelized the same way
	// as fact extraction.
	texts := make([]string, len(files))
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f UploadedFile) {
			defer wg.Done()
			texts[i] = extract.Text(f.Data, f.Filename)
		}(i, f)
	}
	wg.Wait()

	docs := make([]AnalyzedDocument, len(files))
	for i, f := range files {
		docs[i] = AnalyzedDocument{Text: texts[i], Filename: f.Filename}
	}
	res := s.Analyze(docs)
	s.recordOutcome(res.Verdict)

	now := s.now().UTC()
	c := &model.Case{
		ID:        uuid.New().String(),
		Metadata:  res.Metadata,
		Mentions:  res.Mentions,
		CreatedAt: now,
	}

	// Objects are staged in storage first; all database rows of the
	// assessment then land in one transaction, so a failed write has only
	// the staged objects left to undo.
	docRows := make([]model.Document, 0, len(files))
	for i, f := range files {
		doc, err := s.storeObject(ctx, c.ID, f, res.Roles[i], now.Add(time.Duration(i)*time.Microsecond))
		if err != nil {
			s.deleteObjects(ctx, docRows)
			return nil, err
		}
		docRows = append(docRows, *doc)
	}

	created, err := s.cases.CreateAssessment(ctx, c, docRows,
		qualificationRecords(c.ID, res.Mentions, now),
		&model.VerdictRecord{
			ID:         uuid.New().String(),
			CaseID:     c.ID,
			Verdict:    res.Verdict,
			Narrative:  res.Narrative,
			AssessedAt: now,
		})
	if err != nil {
		s.deleteObjects(ctx, docRows)
		return nil, fmt.Errorf("store assessment: %w", err)
	}

	created.Case.Mentions = res.Mentions
	created.Case.Verdict = &created.Verdict.Verdict
	return &CaseResult{
		Case:      created.Case,
		Verdict:   created.Verdict,
		Documents: created.Documents,
		Mentions:  res.Mentions,
	}, nil
}

// storeObject uploads one file to object storage and returns its unsaved
// document row. The createdAt skew per index keeps ListByCase in upload
// order.
func (s *assessmentService) storeObject(ctx context.Context, caseID string, f UploadedFile, role model.DocumentRole, createdAt time.Time) (*model.Document, error) {
	ext := filepath.Ext(f.Filename)
	key := filepath.ToSlash(filepath.Join("cases", caseID, uuid.New().String()+ext))

	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(f.Data), storage.PutObjectOptions{
		Size:        int64(len(f.Data)),
		ContentType: ct,
		Metadata: map[string]string{
			"original-filename": f.Filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	return &model.Document{
		ID:          uuid.New().String(),
		CaseID:      caseID,
		Filename:    f.Filename,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: ct,
		Role:        role,
		CreatedAt:   createdAt,
	}, nil
}

// deleteObjects removes staged storage objects after a failed assessment
// write. Delete failures are logged; the caller's error stays the original
// one.
func (s *assessmentService) deleteObjects(ctx context.Context, docs []model.Document) {
	for _, d := range docs {
		if err := s.store.Delete(ctx, d.StoragePath); err != nil {
			entry := map[string]any{
				"ts":        time.Now().UTC().Format(time.RFC3339Nano),
				"level":     "error",
				"component": "storage",
				"event":     "rollback_delete_failed",
				"key":       d.StoragePath,
				"error":     err.Error(),
			}
			if b, mErr := json.Marshal(entry); mErr == nil {
				log.SetFlags(0)
				log.Println(string(b))
			}
		}
	}
}

func (s *assessmentService) Reassess(ctx context.Context, caseID string) (*model.VerdictRecord, error) {
	if caseID == "" {
		return nil, ErrIDRequired
	}
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	quals, err := s.cases.ListQualifications(ctx, caseID)
	if err != nil {
		return nil, err
	}

	verdict := s.engine.Assess(c.Metadata, mentionsFromQualifications(quals))
	s.recordOutcome(verdict)

	return s.cases.AppendVerdict(ctx, &model.VerdictRecord{
		ID:         uuid.New().String(),
		CaseID:     caseID,
		Verdict:    verdict,
		Narrative:  report.Render(verdict, c.Metadata),
		AssessedAt: s.now().UTC(),
	})
}

func (s *assessmentService) Report(ctx context.Context, caseID string) (*CaseReport, error) {
	if caseID == "" {
		return nil, ErrIDRequired
	}
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	rec, err := s.cases.LatestVerdict(ctx, caseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVerdictNotFound
		}
		return nil, err
	}

	quals, err := s.cases.ListQualifications(ctx, caseID)
	if err != nil {
		return nil, err
	}

	return &CaseReport{
		CaseID:          c.ID,
		WorkerName:      c.Metadata.WorkerName,
		CoSReference:    c.Metadata.CoSReference,
		JobTitle:        c.Metadata.JobTitle,
		SOCCode:         c.Metadata.SOCCode,
		AssignmentDate:  c.Metadata.AssignmentDateRaw,
		Outcome:         rec.Verdict.Outcome,
		Risk:            rec.Verdict.Risk,
		BreachType:      rec.Verdict.BreachType,
		Findings:        rec.Verdict.Findings,
		Recommendations: rec.Verdict.Recommendations,
		Qualifications:  quals,
		EvidenceStatus:  evidenceStatus(quals),
		Narrative:       rec.Narrative,
		AssessedAt:      rec.AssessedAt,
		GeneratedAt:     s.now().UTC(),
	}, nil
}

func (s *assessmentService) GetCase(ctx context.Context, id string) (*model.Case, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	c, err := s.cases.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	if rec, err := s.cases.LatestVerdict(ctx, id); err == nil {
		c.Verdict = &rec.Verdict
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return c, nil
}

func (s *assessmentService) ListCases(ctx context.Context, limit, offset int) (*CaseListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.cases.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &CaseListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *assessmentService) Stats(ctx context.Context) (*repository.CaseStats, error) {
	return s.cases.Stats(ctx)
}

// recordOutcome bumps the assessments counter. An UNKNOWN outcome means an
// input combination the rule set does not cover; it is logged as a defect so
// it is never mistaken for a normal verdict.
func (s *assessmentService) recordOutcome(v model.Verdict) {
	s.decided.WithLabelValues(string(v.Outcome)).Inc()
	if v.Outcome == model.OutcomeUnknown {
		entry := map[string]any{
			"ts":        time.Now().UTC().Format(time.RFC3339Nano),
			"level":     "error",
			"component": "engine",
			"event":     "decision_procedure_gap",
			"msg":       "assessment reached the unreachable fallback rule",
		}
		if b, err := json.Marshal(entry); err == nil {
			log.SetFlags(0)
			log.Println(string(b))
		}
	}
}

var levelPattern = regexp.MustCompile(`(?i)Level\s+(\d)`)

// qualificationRecords converts detected mentions into storable credential
// records. A mention from a certificate document counts as verified; claims
// from CVs and application forms stay pending.
func qualificationRecords(caseID string, mentions []model.QualificationMention, now time.Time) []model.Qualification {
	out := make([]model.Qualification, 0, len(mentions))
	for i, m := range mentions {
		q := model.Qualification{
			ID:                 uuid.New().String(),
			CaseID:             caseID,
			Title:              m.Qualification,
			VerificationStatus: "pending",
			SourceRole:         m.SourceRole,
			CreatedAt:          now.Add(time.Duration(i) * time.Microsecond),
		}
		if lvl := levelPattern.FindStringSubmatch(m.Qualification); lvl != nil {
			q.Level = "Level " + lvl[1]
		}
		if d, ok := m.EarliestDate(); ok {
			q.CompletionDate = &d
		}
		if m.SourceRole == model.RoleCertificate {
			q.VerificationStatus = "verified"
		}
		out = append(out, q)
	}
	return out
}

// mentionsFromQualifications rebuilds the engine's input from stored
// credential records for re-assessment. Context windows are not persisted,
// so only the title, completion date, and source role survive — exactly the
// facts the decision procedure consumes.
func mentionsFromQualifications(quals []model.Qualification) []model.QualificationMention {
	out := make([]model.QualificationMention, 0, len(quals))
	for _, q := range quals {
		m := model.QualificationMention{
			Qualification: q.Title,
			SourceRole:    q.SourceRole,
		}
		if q.CompletionDate != nil {
			m.CandidateDates = []time.Time{*q.CompletionDate}
		}
		out = append(out, m)
	}
	return out
}

func evidenceStatus(quals []model.Qualification) string {
	if len(quals) == 0 {
		return EvidenceNoQualification
	}
	for _, q := range quals {
		if q.SourceRole == model.RoleCertificate {
			return EvidenceCertificates
		}
	}
	return EvidenceClaimsOnly
}
