package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
)

// windowRadius is the number of characters captured on each side of a
// qualification occurrence; candidate dates are extracted from that window
// only, not from the whole document.
const windowRadius = 200

// organizationTokens disqualify a name candidate: anything containing one of
// these is an employer, not a worker.
var organizationTokens = []string{"care", "ltd", "limited", "company", "services", "group"}

// Mentions finds every controlled-vocabulary qualification occurring in the
// text. Each vocabulary entry is checked independently; a document can yield
// many mentions. The source role tags each mention for the decision engine.
func Mentions(text string, role model.DocumentRole) []model.QualificationMention {
	lower := strings.ToLower(text)

	var out []model.QualificationMention
	for _, qual := range Vocabulary {
		needle := strings.ToLower(qual)
		idx := strings.Index(lower, needle)
		if idx < 0 {
			continue
		}

		// Offsets found in the lowercase haystack are mapped back before
		// slicing: lowercasing can change a rune's byte length, so an offset
		// in lower is not an offset in text.
		start := sourceOffset(text, idx-windowRadius)
		end := sourceOffset(text, idx+len(needle)+windowRadius)
		window := text[start:end]

		out = append(out, model.QualificationMention{
			Qualification:  qual,
			Context:        window,
			CandidateDates: Dates(window),
			SourceRole:     role,
		})
	}
	return out
}

// sourceOffset translates a byte offset in strings.ToLower(text) back to the
// offset in text it came from. Lowercasing maps rune by rune, so walking both
// forms in step recovers the boundary; out-of-range offsets clamp to the ends.
func sourceOffset(text string, lowerOff int) int {
	if lowerOff <= 0 {
		return 0
	}
	off := 0
	for i, r := range text {
		if off >= lowerOff {
			return i
		}
		off += utf8.RuneLen(unicode.ToLower(r))
	}
	return len(text)
}

// Prioritized pattern templates per metadata field. The first pattern that
// matches wins for that field.
var (
	cosRefTextPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)CoS[:\s]*([A-Z0-9]{10,12})`),
		regexp.MustCompile(`(?i)Certificate of Sponsorship[:\s]*([A-Z0-9]{10,12})`),
		regexp.MustCompile(`(?i)Reference[:\s]*([A-Z0-9]{10,12})`),
		regexp.MustCompile(`\(([A-Z0-9]{10,12})\)`),
		regexp.MustCompile(`([A-Z]\d[A-Z]\d[A-Z]\d{6})`),
	}

	cosRefFilenamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`CoS-([A-Z0-9]{10,12})`),
		regexp.MustCompile(`([A-Z]\d[A-Z]\d[A-Z]\d{6})`),
	}

	socCodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)SOC\s*(?:Code)?\s*:?\s*(\d{4})`),
		regexp.MustCompile(`(?i)Standard\s+Occupational\s+Classification\s*:?\s*(\d{4})`),
	}

	jobTitlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Job\s+Title\s*:?\s*([^\n\r]+)`),
		regexp.MustCompile(`(?i)Position\s*:?\s*([^\n\r]+)`),
		regexp.MustCompile(`(?i)Role\s*:?\s*([^\n\r]+)`),
	}

	assignmentDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Assignment\s+Date\s*:?\s*([^\n\r]+)`),
		regexp.MustCompile(`(?i)CoS\s+(?:Assignment|Assigned)\s*:?\s*([^\n\r]+)`),
		regexp.MustCompile(`(?i)Date\s+Assigned\s*:?\s*([^\n\r]+)`),
	}

	namePrefixFilenamePattern = regexp.MustCompile(`(?:CV|CoS.*?-)\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`)
	nameDashFilenamePattern   = regexp.MustCompile(`-\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`)

	nameTextPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:Name|Full Name|Worker|Employee|Applicant)[:\s]+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
		regexp.MustCompile(`(?:Mr|Mrs|Ms|Miss|Dr)\.?\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
		regexp.MustCompile(`Certificate of Sponsorship.*?for\s+([A-Z][a-z]+\s+[A-Z][a-z]+)`),
		regexp.MustCompile(`CoS.*?for\s+([A-Z][a-z]+\s+[A-Z][a-z]+)`),
		regexp.MustCompile(`assigned.*?to\s+([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	}
)

// Metadata extracts the case metadata visible in one document. Fields are
// independent: a document may contribute only some of them. Identity and
// reference code fall back to filename evidence; for identity the filename is
// actually checked first, since filenames are a higher-precision signal than
// free text.
func Metadata(text, filename string) model.CaseMetadata {
	meta := model.CaseMetadata{
		WorkerName:   workerName(text, filename),
		CoSReference: cosReference(text, filename),
		JobTitle:     firstMatch(jobTitlePatterns, text),
		SOCCode:      firstMatch(socCodePatterns, text),
	}

	if raw := firstMatch(assignmentDatePatterns, text); raw != "" {
		// The raw matched substring is kept verbatim even when it is not
		// calendar-parseable: some display value beats none for this field.
		meta.AssignmentDateRaw = raw
		if d, ok := ParseDate(raw); ok {
			meta.AssignmentDate = &d
		}
	}
	return meta
}

// MergeMetadata combines per-document extractions with first-match-wins
// precedence per field, walking documents in upload order. The precedence is
// deliberate and stable: parallel extraction followed by this ordered merge
// yields a result independent of extraction completion order. An unresolved
// identity becomes the UnknownWorker sentinel, never an empty field.
func MergeMetadata(metas []model.CaseMetadata) model.CaseMetadata {
	var merged model.CaseMetadata
	for _, m := range metas {
		if merged.WorkerName == "" {
			merged.WorkerName = m.WorkerName
		}
		if merged.CoSReference == "" {
			merged.CoSReference = m.CoSReference
		}
		if merged.JobTitle == "" {
			merged.JobTitle = m.JobTitle
		}
		if merged.SOCCode == "" {
			merged.SOCCode = m.SOCCode
		}
		if merged.AssignmentDateRaw == "" {
			merged.AssignmentDateRaw = m.AssignmentDateRaw
			merged.AssignmentDate = m.AssignmentDate
		}
	}
	if merged.WorkerName == "" {
		merged.WorkerName = model.UnknownWorker
	}
	return merged
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func workerName(text, filename string) string {
	// Filenames first: "CV Jane Smith.pdf", "CoS-C2G8Y18250Q-Jane Smith.pdf".
	clean := filename
	for _, ext := range []string{".pdf", ".docx", ".doc", ".txt"} {
		clean = strings.ReplaceAll(clean, ext, "")
	}
	for _, re := range []*regexp.Regexp{namePrefixFilenamePattern, nameDashFilenamePattern} {
		if m := re.FindStringSubmatch(clean); m != nil {
			if name := strings.TrimSpace(m[1]); validName(name) {
				return name
			}
		}
	}

	// Then body text, line by line. Very long lines are running prose, not
	// labelled fields, and produce junk captures.
	for _, re := range nameTextPatterns {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if len(line) > 100 {
				continue
			}
			if m := re.FindStringSubmatch(line); m != nil {
				if name := strings.TrimSpace(m[1]); validName(name) {
					return name
				}
			}
		}
	}
	return ""
}

// validName accepts 2-4 alphabetic words and rejects anything resembling an
// organization name.
func validName(name string) bool {
	words := strings.Fields(name)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		for _, r := range w {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	lower := strings.ToLower(name)
	for _, tok := range organizationTokens {
		if strings.Contains(lower, tok) {
			return false
		}
	}
	return true
}

func cosReference(text, filename string) string {
	for _, re := range cosRefTextPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m[1]) >= 10 {
				return strings.ToUpper(m[1])
			}
		}
	}
	for _, re := range cosRefFilenamePatterns {
		if m := re.FindStringSubmatch(filename); m != nil {
			return m[1]
		}
	}
	return ""
}
