// Package report renders a verdict into the fixed narrative explanation used
// by the JSON API and the PDF collaborator.
package report

import (
	"fmt"
	"strings"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
)

// Render is a pure function from (verdict, case metadata) to structured
// prose. One of four fixed templates is selected by outcome; beyond
// substituting case-specific values there is no conditional logic, so the
// output is byte-for-byte reproducible for identical inputs. The template
// text itself carries the regulatory justification.
func Render(v model.Verdict, meta model.CaseMetadata) string {
	opening := fmt.Sprintf(
		"You assigned Certificate of Sponsorship (CoS) for %s (%s) on %s to work as a %s under Standard Occupational Classification (SOC) code %s.",
		display(meta.WorkerName),
		display(meta.CoSReference),
		display(meta.AssignmentDateRaw),
		display(meta.JobTitle),
		display(meta.SOCCode),
	)

	switch v.Outcome {
	case model.OutcomeSeriousBreach:
		return seriousBreachNarrative(opening, meta)
	case model.OutcomeBreach:
		return breachNarrative(opening, meta, v)
	case model.OutcomeCompliant:
		return compliantNarrative(opening, meta, v)
	default:
		return fallbackNarrative(opening, v)
	}
}

func seriousBreachNarrative(opening string, meta model.CaseMetadata) string {
	return opening + "\n\n" + fmt.Sprintf(
		"%s's file has been reviewed for evidence of appropriate qualifications and training for the care role. "+
			"No recognised care qualification was found in any of the documents provided.\n\n"+
			"The file does not include proof of recognised care qualifications such as a Care Certificate, "+
			"NVQ Level 3 in Health and Social Care, or other UK-recognised care qualifications. "+
			"The care role requires specific qualifications and training to ensure safe and lawful practice "+
			"when working with vulnerable individuals.\n\n"+
			"You have sponsored a worker who does not hold any relevant qualification for their role. "+
			"This constitutes a serious breach of Paragraph C1.38 of the sponsor guidance, which requires "+
			"sponsors not to employ individuals who do not have the qualifications, experience, or "+
			"immigration permission necessary for the job. The Home Office will likely conclude that the "+
			"worker lacked the minimum qualification required for the role.",
		display(meta.WorkerName))
}

func breachNarrative(opening string, meta model.CaseMetadata, v model.Verdict) string {
	var middle string
	switch v.BreachType {
	case model.BreachPostCoS:
		middle = fmt.Sprintf(
			"Although a qualification has been declared (%s), it was obtained after the Certificate of "+
				"Sponsorship was assigned on %s. %s was therefore not appropriately qualified when "+
				"sponsored. Qualifications obtained after the CoS assignment date cannot be used to "+
				"demonstrate eligibility at the time of sponsorship.",
			joinOr(v.PostCoSQualifications, "unspecified"),
			display(meta.AssignmentDateRaw),
			display(meta.WorkerName))
	default:
		middle = fmt.Sprintf(
			"%s claims to hold a relevant qualification (%s), but there is no certificate or formal "+
				"documentation on file to evidence it. Sponsors are required to retain evidence that the "+
				"worker met the requirements at the time of sponsorship; the Home Office may treat the "+
				"absence of evidence as non-compliance.",
			display(meta.WorkerName),
			joinOr(v.UnevidencedQualifications, "unspecified"))
	}

	return opening + "\n\n" + middle + "\n\n" +
		"This represents a breach of Paragraph C1.38 of the sponsor guidance, which requires that all " +
		"sponsored workers be appropriately qualified, registered, or experienced for the job they are assigned."
}

func compliantNarrative(opening string, meta model.CaseMetadata, v model.Verdict) string {
	return opening + "\n\n" + fmt.Sprintf(
		"%s's file has been reviewed for evidence of appropriate qualifications and training for the care "+
			"role. The documentation provided demonstrates relevant qualifications including %s, with "+
			"certificate evidence dated on or before the CoS assignment date.\n\n"+
			"We are satisfied that the sponsored worker held a recognised, care-related qualification prior "+
			"to the Certificate of Sponsorship being assigned, and that evidence of the qualification is "+
			"retained in the personnel file. No breach of Paragraph C1.38 is identified.",
		display(meta.WorkerName),
		joinOr(v.CompliantQualifications, "recognised care qualifications"))
}

func fallbackNarrative(opening string, v model.Verdict) string {
	return opening + "\n\n" +
		"This assessment did not result in a compliance determination under Paragraph C1.38.\n\n" +
		strings.Join(append(append([]string{}, v.Findings...), v.Recommendations...), " ")
}

func display(s string) string {
	if s == "" {
		return "not recorded"
	}
	return s
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}
