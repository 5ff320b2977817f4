package model

import "time"

// Outcome is the final classification of a case.
type Outcome string

const (
	OutcomeNotApplicable Outcome = "NOT_APPLICABLE"
	OutcomeCompliant     Outcome = "COMPLIANT"
	OutcomeBreach        Outcome = "BREACH"
	OutcomeSeriousBreach Outcome = "SERIOUS_BREACH"
	// OutcomeUnknown is reserved for inputs the decision procedure does not
	// cover. It must never be mapped to COMPLIANT or BREACH downstream.
	OutcomeUnknown Outcome = "UNKNOWN"
)

// RiskLevel accompanies every outcome.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// BreachType sub-classifies a non-compliant outcome.
type BreachType string

const (
	BreachNoQualification BreachType = "NO_QUALIFICATION"
	BreachPostCoS         BreachType = "POST_COS_QUALIFICATION"
	BreachNoEvidence      BreachType = "NO_EVIDENCE"
)

// DocumentRole labels what kind of evidence a document is.
type DocumentRole string

const (
	RoleCoS          DocumentRole = "cos_document"
	RoleCV           DocumentRole = "cv_document"
	RoleApplication  DocumentRole = "application_document"
	RoleCertificate  DocumentRole = "certificate_document"
	RoleUnclassified DocumentRole = "other_document"
)

// UnknownWorker is the identity sentinel when no candidate name survives
// validation. Identity is never left empty.
const UnknownWorker = "Unknown Worker"

// CaseMetadata is the per-case information extracted from documents.
// Fields are empty when no pattern matched; AssignmentDateRaw keeps the
// matched substring verbatim even when it is not calendar-parseable.
type CaseMetadata struct {
	WorkerName        string     `json:"worker_name"`
	CoSReference      string     `json:"cos_reference"`
	JobTitle          string     `json:"job_title"`
	SOCCode           string     `json:"soc_code"`
	AssignmentDateRaw string     `json:"assignment_date"`
	AssignmentDate    *time.Time `json:"assignment_date_parsed,omitempty"`
}

// QualificationMention is one occurrence of a controlled-vocabulary
// qualification name in document text. CandidateDates holds every date found
// in the surrounding window; none of them is authoritative.
type QualificationMention struct {
	Qualification  string       `json:"qualification"`
	Context        string       `json:"surrounding_text"`
	CandidateDates []time.Time  `json:"candidate_dates"`
	SourceRole     DocumentRole `json:"source_role"`
}

// EarliestDate returns the earliest candidate date, or false when the
// mention carries no usable date.
func (m QualificationMention) EarliestDate() (time.Time, bool) {
	if len(m.CandidateDates) == 0 {
		return time.Time{}, false
	}
	earliest := m.CandidateDates[0]
	for _, d := range m.CandidateDates[1:] {
		if d.Before(earliest) {
			earliest = d
		}
	}
	return earliest, true
}

// Verdict is the decision engine's terminal state for one case.
type Verdict struct {
	Outcome         Outcome    `json:"compliance_status"`
	Risk            RiskLevel  `json:"risk_level"`
	BreachType      BreachType `json:"breach_type,omitempty"`
	Findings        []string   `json:"findings"`
	Recommendations []string   `json:"recommendations"`

	// Qualification names by bucket, used by the narrative generator to name
	// the specific non-qualifying evidence found.
	CompliantQualifications   []string `json:"compliant_qualifications,omitempty"`
	PostCoSQualifications     []string `json:"post_cos_qualifications,omitempty"`
	UnevidencedQualifications []string `json:"unevidenced_qualifications,omitempty"`
}

// Case is the owning aggregate: one sponsorship-assignment event, its
// metadata, the mentions found across all of its documents, and (after
// assessment) its verdict.
type Case struct {
	ID        string                 `json:"id"`
	Metadata  CaseMetadata           `json:"metadata"`
	Mentions  []QualificationMention `json:"mentions"`
	Verdict   *Verdict               `json:"verdict,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Qualification is a stored credential record attached to a case.
// SourceRole records which document role the mention came from so that
// re-assessment can rebuild the engine's input from stored records alone.
type Qualification struct {
	ID                 string       `json:"id"`
	CaseID             string       `json:"case_id"`
	Title              string       `json:"title"`
	Level              string       `json:"level,omitempty"`
	CompletionDate     *time.Time   `json:"completion_date,omitempty"`
	IssuingBody        string       `json:"issuing_body,omitempty"`
	CertificateNumber  string       `json:"certificate_number,omitempty"`
	VerificationStatus string       `json:"verification_status"`
	SourceRole         DocumentRole `json:"source_role"`
	CreatedAt          time.Time    `json:"created_at"`
}

// VerdictRecord is one stored assessment of a case. Re-assessment appends a
// new record; the case's current verdict is the latest by AssessedAt.
type VerdictRecord struct {
	ID         string    `json:"id"`
	CaseID     string    `json:"case_id"`
	Verdict    Verdict   `json:"verdict"`
	Narrative  string    `json:"narrative"`
	AssessedAt time.Time `json:"assessed_at"`
}
