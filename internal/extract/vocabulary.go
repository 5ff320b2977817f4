package extract

// Vocabulary is the controlled list of recognised care-sector credentials.
// A qualification mention exists only when one of these strings occurs
// (case-insensitively) as a literal substring of document text.
var Vocabulary = []string{
	"Level 2 Diploma in Care",
	"Level 3 Diploma in Health and Social Care",
	"Level 3 Diploma in Adult Care",
	"Level 4 Diploma in Adult Care",
	"Level 5 Diploma in Leadership for Health and Social Care",
	"Level 5 Diploma in Leadership and Management for Adult Care",
	"Level 4 Certificate in Principles of Leadership and Management in Adult Care",
	"NVQ Level 3 in Health and Social Care",
	"NVQ Level 4 in Health and Social Care",
	"SVQ Level 3 in Health and Social Care",
	"SVQ Level 4 in Health and Social Care",
	"Care Certificate",
	"Diploma in Dementia Care",
	"Certificate in Palliative Care",
	"Certificate in End-of-Life Care",
	"Certificate in Understanding Dignity and Safeguarding",
	"Certificate in Principles of Working with Individuals with Learning Disabilities",
	"Certificate in Mental Health Awareness",
	"Certificate in Infection Prevention and Control",
	"Bachelor of Science in Nursing",
	"BSc Nursing",
	"Diploma in General Nursing & Midwifery",
	"GNM",
	"Diploma in Health and Social Care",
	"Bachelor of Social Work",
	"BSW",
	"Certificate in Caregiving",
	"Higher National Diploma in Health and Social Care",
}
