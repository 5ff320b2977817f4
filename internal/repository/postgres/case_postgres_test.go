package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/repository"
)

var caseColumns = []string{
	"id", "worker_name", "cos_reference", "job_title", "soc_code",
	"assignment_date_raw", "assignment_date", "created_at",
}

func TestCasePostgres_CreateAssessment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCasePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	assignment := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
	completion := time.Date(2019, time.March, 12, 0, 0, 0, 0, time.UTC)
	c := &model.Case{
		ID: "case-1",
		Metadata: model.CaseMetadata{
			WorkerName:        "Jane Smith",
			CoSReference:      "C2G8Y18250Q",
			JobTitle:          "Senior Carer",
			SOCCode:           "6146",
			AssignmentDateRaw: "01/06/2020",
			AssignmentDate:    &assignment,
		},
		CreatedAt: now,
	}
	docs := []model.Document{
		{
			ID: "doc-1", CaseID: "case-1", Filename: "cos.pdf",
			StoragePath: "cases/case-1/a.pdf", Size: 10,
			ContentType: "application/pdf", Role: model.RoleCoS, CreatedAt: now,
		},
	}
	quals := []model.Qualification{
		{
			ID: "qual-1", CaseID: "case-1", Title: "Care Certificate",
			CompletionDate: &completion, VerificationStatus: "verified",
			SourceRole: model.RoleCertificate, CreatedAt: now,
		},
	}
	verdict := model.Verdict{Outcome: model.OutcomeCompliant, Risk: model.RiskLow}
	payload, err := json.Marshal(verdict)
	require.NoError(t, err)
	rec := &model.VerdictRecord{
		ID: "verdict-1", CaseID: "case-1", Verdict: verdict,
		Narrative: "narrative", AssessedAt: now,
	}

	t.Run("commits all rows", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO cases").
			WithArgs("case-1", "Jane Smith", "C2G8Y18250Q", "Senior Carer", "6146", "01/06/2020", assignment, now).
			WillReturnRows(sqlmock.NewRows(caseColumns).
				AddRow("case-1", "Jane Smith", "C2G8Y18250Q", "Senior Carer", "6146", "01/06/2020", assignment, now))
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs("doc-1", "case-1", "cos.pdf", "cases/case-1/a.pdf", int64(10), "application/pdf", "cos_document", now).
			WillReturnRows(sqlmock.NewRows(documentColumns).
				AddRow("doc-1", "case-1", "cos.pdf", "cases/case-1/a.pdf", 10, "application/pdf", "cos_document", now))
		mock.ExpectExec("INSERT INTO qualifications").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO verdicts").
			WithArgs("verdict-1", "case-1", "COMPLIANT", "LOW", sqlmock.AnyArg(), payload, "narrative", now).
			WillReturnRows(sqlmock.NewRows([]string{"id", "case_id", "verdict", "narrative", "assessed_at"}).
				AddRow("verdict-1", "case-1", payload, "narrative", now))
		mock.ExpectCommit()

		created, err := repo.CreateAssessment(ctx, c, docs, quals, rec)

		assert.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "case-1", created.Case.ID)
		require.Len(t, created.Documents, 1)
		assert.Equal(t, model.RoleCoS, created.Documents[0].Role)
		assert.Equal(t, model.OutcomeCompliant, created.Verdict.Verdict.Outcome)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when a statement fails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO cases").
			WillReturnRows(sqlmock.NewRows(caseColumns).
				AddRow("case-1", "Jane Smith", "C2G8Y18250Q", "Senior Carer", "6146", "01/06/2020", assignment, now))
		mock.ExpectQuery("INSERT INTO documents").
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		created, err := repo.CreateAssessment(ctx, c, docs, quals, rec)

		assert.Error(t, err)
		assert.Nil(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCasePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCasePostgres(db)
	ctx := context.Background()

	t.Run("found with null assignment date", func(t *testing.T) {
		rows := sqlmock.NewRows(caseColumns).
			AddRow("case-1", "Unknown Worker", "", "", "6146", "", nil, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM cases WHERE id = ?").
			WithArgs("case-1").
			WillReturnRows(rows)

		c, err := repo.FindByID(ctx, "case-1")

		assert.NoError(t, err)
		require.NotNil(t, c)
		assert.Nil(t, c.Metadata.AssignmentDate)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM cases WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		c, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, c)
	})
}

func TestCasePostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCasePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows(caseColumns).
		AddRow("case-2", "John Doe", "", "", "6146", "", nil, time.Now()).
		AddRow("case-1", "Jane Smith", "", "", "6146", "", nil, time.Now().Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM cases ORDER BY created_at DESC").
		WithArgs(10, 0).
		WillReturnRows(rows)

	res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "case-2", res.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCasePostgres_Qualifications(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCasePostgres(db)
	ctx := context.Background()

	t.Run("insert one row per record", func(t *testing.T) {
		completion := time.Date(2019, time.March, 12, 0, 0, 0, 0, time.UTC)
		quals := []model.Qualification{
			{
				ID: "qual-1", CaseID: "case-1", Title: "Care Certificate",
				CompletionDate: &completion, VerificationStatus: "verified",
				SourceRole: model.RoleCertificate, CreatedAt: time.Now(),
			},
			{
				ID: "qual-2", CaseID: "case-1", Title: "BSW",
				VerificationStatus: "pending", SourceRole: model.RoleCV,
				CreatedAt: time.Now(),
			},
		}

		mock.ExpectExec("INSERT INTO qualifications").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO qualifications").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := insertQualifications(ctx, db, quals)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list", func(t *testing.T) {
		completion := time.Date(2019, time.March, 12, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{
			"id", "case_id", "title", "level", "completion_date", "issuing_body",
			"certificate_number", "verification_status", "source_role", "created_at",
		}).
			AddRow("qual-1", "case-1", "Care Certificate", "", completion, "", "", "verified", "certificate_document", time.Now()).
			AddRow("qual-2", "case-1", "BSW", "", nil, "", "", "pending", "cv_document", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM qualifications WHERE case_id = ?").
			WithArgs("case-1").
			WillReturnRows(rows)

		quals, err := repo.ListQualifications(ctx, "case-1")

		assert.NoError(t, err)
		require.Len(t, quals, 2)
		assert.Equal(t, model.RoleCertificate, quals[0].SourceRole)
		require.NotNil(t, quals[0].CompletionDate)
		assert.Equal(t, completion, *quals[0].CompletionDate)
		assert.Nil(t, quals[1].CompletionDate)
	})
}

func TestCasePostgres_Verdicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCasePostgres(db)
	ctx := context.Background()

	verdict := model.Verdict{
		Outcome:                 model.OutcomeCompliant,
		Risk:                    model.RiskLow,
		CompliantQualifications: []string{"Care Certificate"},
	}
	payload, err := json.Marshal(verdict)
	require.NoError(t, err)
	assessedAt := time.Date(2020, time.July, 1, 10, 0, 0, 0, time.UTC)

	verdictColumns := []string{"id", "case_id", "verdict", "narrative", "assessed_at"}

	t.Run("append", func(t *testing.T) {
		rec := &model.VerdictRecord{
			ID: "verdict-1", CaseID: "case-1", Verdict: verdict,
			Narrative: "narrative", AssessedAt: assessedAt,
		}

		rows := sqlmock.NewRows(verdictColumns).
			AddRow("verdict-1", "case-1", payload, "narrative", assessedAt)

		mock.ExpectQuery("INSERT INTO verdicts").
			WithArgs("verdict-1", "case-1", "COMPLIANT", "LOW", sqlmock.AnyArg(), payload, "narrative", assessedAt).
			WillReturnRows(rows)

		stored, err := repo.AppendVerdict(ctx, rec)

		assert.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, model.OutcomeCompliant, stored.Verdict.Outcome)
		assert.Equal(t, []string{"Care Certificate"}, stored.Verdict.CompliantQualifications)
	})

	t.Run("latest", func(t *testing.T) {
		rows := sqlmock.NewRows(verdictColumns).
			AddRow("verdict-2", "case-1", payload, "narrative", assessedAt)

		mock.ExpectQuery("SELECT (.+) FROM verdicts WHERE case_id = (.+) ORDER BY assessed_at DESC").
			WithArgs("case-1").
			WillReturnRows(rows)

		rec, err := repo.LatestVerdict(ctx, "case-1")

		assert.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "verdict-2", rec.ID)
	})

	t.Run("latest not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM verdicts WHERE case_id = (.+) ORDER BY assessed_at DESC").
			WithArgs("case-9").
			WillReturnError(sql.ErrNoRows)

		rec, err := repo.LatestVerdict(ctx, "case-9")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, rec)
	})

	t.Run("history oldest first", func(t *testing.T) {
		rows := sqlmock.NewRows(verdictColumns).
			AddRow("verdict-1", "case-1", payload, "first", assessedAt.Add(-time.Hour)).
			AddRow("verdict-2", "case-1", payload, "second", assessedAt)

		mock.ExpectQuery("SELECT (.+) FROM verdicts WHERE case_id = (.+) ORDER BY assessed_at ASC").
			WithArgs("case-1").
			WillReturnRows(rows)

		recs, err := repo.ListVerdicts(ctx, "case-1")

		assert.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "first", recs[0].Narrative)
	})
}

func TestCasePostgres_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCasePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	base := time.Date(2020, time.July, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"worker_name", "outcome", "risk_level", "assessed_at"}).
		AddRow("Jane Smith", "COMPLIANT", "LOW", base.Add(2*time.Hour)).
		AddRow("John Doe", "BREACH", "HIGH", base).
		AddRow("Mary Major", "COMPLIANT", "LOW", base.Add(time.Hour))

	mock.ExpectQuery("SELECT DISTINCT ON").WillReturnRows(rows)

	stats, err := repo.Stats(ctx)

	assert.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.TotalCases)
	assert.Equal(t, 2, stats.ByOutcome[model.OutcomeCompliant])
	assert.Equal(t, 1, stats.ByOutcome[model.OutcomeBreach])
	assert.Equal(t, 2, stats.ByRisk[model.RiskLow])
	assert.InDelta(t, 100.0*2.0/3.0, stats.ComplianceRate, 0.01)

	// Recent is newest first regardless of row order.
	require.Len(t, stats.Recent, 3)
	assert.Equal(t, "Jane Smith", stats.Recent[0].WorkerName)
	assert.Equal(t, "Mary Major", stats.Recent[1].WorkerName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
