// Package classify labels each uploaded document with the evidentiary role
// it plays in a case.
package classify

import (
	"strings"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
)

// Keyword families per role, checked in precedence order. Sponsorship
// certificate signals come first: that document type's absence most directly
// determines case metadata, so it must never be mistaken for anything else.
var contentKeywords = []struct {
	role     model.DocumentRole
	keywords []string
}{
	{model.RoleCoS, []string{"certificate of sponsorship", "cos reference", "sponsorship certificate"}},
	{model.RoleCV, []string{"curriculum vitae", "cv", "resume", "work experience", "employment history"}},
	{model.RoleApplication, []string{"application form", "job application", "application for", "applicant"}},
	{model.RoleCertificate, []string{"certificate", "diploma", "qualification", "nvq", "level"}},
}

var filenameKeywords = []struct {
	role     model.DocumentRole
	keywords []string
}{
	{model.RoleCoS, []string{"cos", "sponsorship"}},
	{model.RoleCV, []string{"cv", "resume"}},
	{model.RoleApplication, []string{"application"}},
	{model.RoleCertificate, []string{"certificate", "diploma"}},
}

// Role returns exactly one role label for a document. Content is checked
// before the filename; the first matching keyword family wins.
func Role(text, filename string) model.DocumentRole {
	textLower := strings.ToLower(text)
	for _, family := range contentKeywords {
		if containsAny(textLower, family.keywords) {
			return family.role
		}
	}

	filenameLower := strings.ToLower(filename)
	for _, family := range filenameKeywords {
		if containsAny(filenameLower, family.keywords) {
			return family.role
		}
	}
	return model.RoleUnclassified
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
