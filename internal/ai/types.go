package ai

import "strings"

// DocumentItem is one classified statement extracted from a document.
type DocumentItem struct {
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Source      string `json:"source,omitempty"`
}

type Stakeholder struct {
	Role        string `json:"role"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
}

// DocumentAnalysis is the classified content of a requirements document.
type DocumentAnalysis struct {
	FunctionalRequirements    []DocumentItem `json:"functional_requirements"`
	NonFunctionalRequirements []DocumentItem `json:"non_functional_requirements"`
	BusinessRules             []DocumentItem `json:"business_rules"`
	Constraints               []DocumentItem `json:"constraints"`
	Stakeholders              []Stakeholder  `json:"stakeholders"`
}

// Sections returns the non-empty section names, for logging.
func (d *DocumentAnalysis) Sections() []string {
	var out []string
	if len(d.FunctionalRequirements) > 0 {
		out = append(out, "functional_requirements")
	}
	if len(d.NonFunctionalRequirements) > 0 {
		out = append(out, "non_functional_requirements")
	}
	if len(d.BusinessRules) > 0 {
		out = append(out, "business_rules")
	}
	if len(d.Constraints) > 0 {
		out = append(out, "constraints")
	}
	if len(d.Stakeholders) > 0 {
		out = append(out, "stakeholders")
	}
	return out
}

type UserStory struct {
	Role               string   `json:"role"`
	Goal               string   `json:"goal"`
	Benefit            string   `json:"benefit"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
}

// Issue types the consistency prompt asks for. Decoding canonicalizes their
// letter case; other types pass through unchanged.
const (
	IssueConflict   = "CONFLICT"
	IssueDuplicate  = "DUPLICATE"
	IssueDependency = "DEPENDENCY"
	IssueIncomplete = "INCOMPLETE"
)

var issueTypes = []string{IssueConflict, IssueDuplicate, IssueDependency, IssueIncomplete}

func canonicalIssueType(t string) string {
	t = strings.TrimSpace(t)
	for _, known := range issueTypes {
		if strings.EqualFold(t, known) {
			return known
		}
	}
	return t
}

type Issue struct {
	Type                string   `json:"type"`
	Description         string   `json:"description"`
	Suggestion          string   `json:"suggestion"`
	RelatedRequirements []string `json:"relatedRequirements"`
}

type CompletenessAnalysis struct {
	Score           float64  `json:"score"`
	MissingElements []string `json:"missingElements"`
	Suggestions     []string `json:"suggestions"`
	Summary         string   `json:"summary"`
}
