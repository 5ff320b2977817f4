// Package engine implements the deterministic compliance decision procedure
// over the facts aggregated from one case's documents.
package engine

import (
	"fmt"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
)

// UndatedPolicy decides which bucket a mention falls into when neither a
// candidate date nor an assignment date is available for comparison.
type UndatedPolicy string

const (
	// PolicyLenient treats an undated mention as dated at-or-before the
	// assignment: absence of contrary evidence favors the claimant, and the
	// mention is bucketed on source-role evidence alone.
	PolicyLenient UndatedPolicy = "lenient"
	// PolicyStrict treats a missing date as non-compliant pending evidence:
	// undated mentions always land in the no-evidence bucket.
	PolicyStrict UndatedPolicy = "strict"
)

// Config holds the decision-procedure parameters.
type Config struct {
	// RequiredSOCCodes are the job classification codes whose roles require a
	// recognised credential. Codes outside this set, including an absent
	// code, make the requirement not applicable.
	RequiredSOCCodes []string
	UndatedPolicy    UndatedPolicy
}

// Engine evaluates cases. It is stateless and safe for concurrent use.
type Engine struct {
	required map[string]struct{}
	policy   UndatedPolicy
}

// New builds an Engine. Defaults: SOC 6146 (senior care workers) requires a
// credential, undated mentions are judged leniently.
func New(cfg Config) *Engine {
	codes := cfg.RequiredSOCCodes
	if len(codes) == 0 {
		codes = []string{"6146"}
	}
	required := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		required[c] = struct{}{}
	}

	policy := cfg.UndatedPolicy
	if policy == "" {
		policy = PolicyLenient
	}
	return &Engine{required: required, policy: policy}
}

// Assess maps a case's aggregated facts to exactly one verdict. The rules
// are evaluated in strict order and the first matching rule terminates, so
// the procedure is total: every input state reaches exactly one outcome.
func (e *Engine) Assess(meta model.CaseMetadata, mentions []model.QualificationMention) model.Verdict {
	// Rule 1: the role does not require a recognised credential. An absent
	// SOC code is treated the same way; callers wanting stricter validation
	// check for the missing code at the API boundary.
	if _, ok := e.required[meta.SOCCode]; !ok {
		return model.Verdict{
			Outcome:         model.OutcomeNotApplicable,
			Risk:            model.RiskLow,
			Findings:        []string{"Role does not require specific healthcare qualifications"},
			Recommendations: []string{"No action required for qualification compliance"},
		}
	}

	// Rule 2: no qualification mention in any document.
	if len(mentions) == 0 {
		return model.Verdict{
			Outcome:         model.OutcomeSeriousBreach,
			Risk:            model.RiskCritical,
			BreachType:      model.BreachNoQualification,
			Findings:        []string{"No relevant healthcare qualification found in any document"},
			Recommendations: []string{"Immediate action required - worker lacks required qualifications"},
		}
	}

	// Rule 3: partition mentions by earliest candidate date vs assignment
	// date and by source-role evidence.
	var compliant, postAssignment, noEvidence []string
	for _, m := range mentions {
		fromCertificate := m.SourceRole == model.RoleCertificate

		earliest, dated := m.EarliestDate()
		switch {
		case dated && meta.AssignmentDate != nil:
			if earliest.After(*meta.AssignmentDate) {
				postAssignment = append(postAssignment, m.Qualification)
			} else if fromCertificate {
				compliant = append(compliant, m.Qualification)
			} else {
				noEvidence = append(noEvidence, m.Qualification)
			}
		case e.policy == PolicyStrict:
			noEvidence = append(noEvidence, m.Qualification)
		default:
			// Lenient: no usable comparison means the mention counts as
			// dated at-or-before; only the evidence source decides.
			if fromCertificate {
				compliant = append(compliant, m.Qualification)
			} else {
				noEvidence = append(noEvidence, m.Qualification)
			}
		}
	}

	// Rule 4: a qualification obtained only after the CoS was assigned.
	if len(postAssignment) > 0 && len(compliant) == 0 {
		return model.Verdict{
			Outcome:               model.OutcomeBreach,
			Risk:                  model.RiskHigh,
			BreachType:            model.BreachPostCoS,
			Findings:              []string{"Relevant qualification was obtained after CoS assignment"},
			Recommendations:       []string{"Review sponsorship decision - qualification not valid at time of sponsorship"},
			PostCoSQualifications: postAssignment,
		}
	}

	// Rule 5: a qualification claimed without certificate evidence.
	if len(noEvidence) > 0 && len(compliant) == 0 {
		return model.Verdict{
			Outcome:                   model.OutcomeBreach,
			Risk:                      model.RiskHigh,
			BreachType:                model.BreachNoEvidence,
			Findings:                  []string{"Relevant qualification claimed but no certificate evidence available"},
			Recommendations:           []string{"Obtain and file qualification certificates immediately"},
			UnevidencedQualifications: noEvidence,
		}
	}

	// Rule 6: at least one evidenced, timely qualification.
	if len(compliant) > 0 {
		return model.Verdict{
			Outcome:                   model.OutcomeCompliant,
			Risk:                      model.RiskLow,
			Findings:                  []string{fmt.Sprintf("Found %d relevant qualification(s) with evidence", len(compliant))},
			Recommendations:           []string{"Maintain current documentation standards"},
			CompliantQualifications:   compliant,
			PostCoSQualifications:     postAssignment,
			UnevidencedQualifications: noEvidence,
		}
	}

	// Rule 7: unreachable while rules 2-6 exhaust a non-empty mention set.
	// Reaching it means the rule set has a gap; the caller must surface this
	// distinctly, never fold it into COMPLIANT or BREACH.
	return model.Verdict{
		Outcome:         model.OutcomeUnknown,
		Risk:            model.RiskHigh,
		Findings:        []string{"Insufficient information available to complete compliance assessment"},
		Recommendations: []string{"Additional documentation may be required"},
	}
}
