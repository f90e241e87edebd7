package services

import (
	"fmt"
	"strings"
)

type PromptBuilder struct {
	catalog *SkillCatalog
}

func NewPromptBuilder(catalog *SkillCatalog) *PromptBuilder {
	return &PromptBuilder{catalog: catalog}
}

// BuildScreeningPrompt creates the screening prompt for one resume. The
// reference guidance block is only included when guidance is non-empty.
func (pb *PromptBuilder) BuildScreeningPrompt(domain, resumeText, guidance string) (string, error) {
	skills, err := pb.catalog.Lookup(domain)
	if err != nil {
		return "", err
	}

	var reference string
	if guidance = strings.TrimSpace(guidance); guidance != "" {
		reference = fmt.Sprintf("Reference Guidance for %s:\n%s\n\n", domain, guidance)
	}

	return fmt.Sprintf(`
You are an HR Resume Screening System.

Screen the resume for %s domain.

Required Skills for %s:
%s

Return ONLY this short format:

Match Score: XX/100

Selected: YES or NO

Key Strengths:
- ...

Missing Skills:
- ...

%sResume:
%s
`, domain, domain, skills, reference, resumeText), nil
}

// BuildRetrievalQuery creates the query used to look up reference guidance for a domain.
func (pb *PromptBuilder) BuildRetrievalQuery(domain string) string {
	skills, err := pb.catalog.SkillList(domain)
	if err != nil || len(skills) == 0 {
		return fmt.Sprintf("Screening criteria for %s candidates", domain)
	}
	return fmt.Sprintf("Screening criteria and expectations for %s candidates skilled in %s",
		domain, strings.Join(skills, ", "))
}

// FormatReferenceContext joins retrieved reference chunks for prompt injection.
func FormatReferenceContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for i, result := range results {
		text := strings.TrimSpace(result.Text)
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Reference %d (Score: %.2f) ---\n%s",
			i+1, result.Score, text))
	}

	return strings.Join(parts, "\n\n")
}
