package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
)

func testMeta() model.CaseMetadata {
	d := time.Date(2019, time.March, 12, 0, 0, 0, 0, time.UTC)
	return model.CaseMetadata{
		WorkerName:        "Jane Smith",
		CoSReference:      "C2G8Y18250Q",
		JobTitle:          "Senior Carer",
		SOCCode:           "6146",
		AssignmentDateRaw: "12/03/2019",
		AssignmentDate:    &d,
	}
}

func TestRender_ContainsAllMetadata(t *testing.T) {
	verdicts := map[string]model.Verdict{
		"serious breach": {
			Outcome:    model.OutcomeSeriousBreach,
			Risk:       model.RiskCritical,
			BreachType: model.BreachNoQualification,
		},
		"post cos breach": {
			Outcome:               model.OutcomeBreach,
			Risk:                  model.RiskHigh,
			BreachType:            model.BreachPostCoS,
			PostCoSQualifications: []string{"Care Certificate"},
		},
		"no evidence breach": {
			Outcome:                   model.OutcomeBreach,
			Risk:                      model.RiskHigh,
			BreachType:                model.BreachNoEvidence,
			UnevidencedQualifications: []string{"Care Certificate"},
		},
		"compliant": {
			Outcome:                 model.OutcomeCompliant,
			Risk:                    model.RiskLow,
			CompliantQualifications: []string{"Care Certificate"},
		},
		"not applicable": {
			Outcome: model.OutcomeNotApplicable,
			Risk:    model.RiskLow,
		},
	}

	meta := testMeta()
	for name, v := range verdicts {
		t.Run(name, func(t *testing.T) {
			out := Render(v, meta)

			assert.Contains(t, out, "Jane Smith")
			assert.Contains(t, out, "C2G8Y18250Q")
			assert.Contains(t, out, "Senior Carer")
			assert.Contains(t, out, "6146")
			assert.Contains(t, out, "12/03/2019")
		})
	}
}

func TestRender_SeriousBreach(t *testing.T) {
	out := Render(model.Verdict{
		Outcome:    model.OutcomeSeriousBreach,
		Risk:       model.RiskCritical,
		BreachType: model.BreachNoQualification,
	}, testMeta())

	assert.Contains(t, out, "No recognised care qualification was found")
	assert.Contains(t, out, "serious breach of Paragraph C1.38")
}

func TestRender_BreachVariants(t *testing.T) {
	meta := testMeta()

	t.Run("post cos names the qualification and assignment date", func(t *testing.T) {
		out := Render(model.Verdict{
			Outcome:               model.OutcomeBreach,
			BreachType:            model.BreachPostCoS,
			PostCoSQualifications: []string{"Care Certificate"},
		}, meta)

		assert.Contains(t, out, "obtained after the Certificate of Sponsorship was assigned on 12/03/2019")
		assert.Contains(t, out, "Care Certificate")
		assert.Contains(t, out, "breach of Paragraph C1.38")
	})

	t.Run("no evidence lists claimed qualifications", func(t *testing.T) {
		out := Render(model.Verdict{
			Outcome:                   model.OutcomeBreach,
			BreachType:                model.BreachNoEvidence,
			UnevidencedQualifications: []string{"Care Certificate", "BSW"},
		}, meta)

		assert.Contains(t, out, "no certificate or formal documentation on file")
		assert.Contains(t, out, "Care Certificate, BSW")
	})
}

func TestRender_Compliant(t *testing.T) {
	out := Render(model.Verdict{
		Outcome:                 model.OutcomeCompliant,
		CompliantQualifications: []string{"Care Certificate"},
	}, testMeta())

	assert.Contains(t, out, "No breach of Paragraph C1.38 is identified")
	assert.Contains(t, out, "Care Certificate")
}

func TestRender_MissingFieldsDisplayed(t *testing.T) {
	out := Render(model.Verdict{Outcome: model.OutcomeNotApplicable}, model.CaseMetadata{
		WorkerName: model.UnknownWorker,
	})

	assert.Contains(t, out, model.UnknownWorker)
	assert.Contains(t, out, "not recorded")
}

func TestRender_Deterministic(t *testing.T) {
	v := model.Verdict{
		Outcome:                 model.OutcomeCompliant,
		Risk:                    model.RiskLow,
		CompliantQualifications: []string{"Care Certificate"},
	}
	meta := testMeta()

	require.Equal(t, Render(v, meta), Render(v, meta))
}
