package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// fencedBlock matches the first markdown code block, with or without a language tag.
var fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\\r?\\n?(.*?)\\s*```")

// StripFences removes markdown code-fence wrapping from a model reply.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// unterminated fence, usually a reply cut off by max_tokens
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			return strings.TrimSpace(s[i+1:])
		}
		return ""
	}
	return s
}

// decodeJSON decodes a stripped reply into v. Syntax errors get one repair
// pass (trailing commas, single quotes, truncated brackets) before failing.
func decodeJSON(shape, raw string, v any) error {
	body := StripFences(raw)
	err := json.Unmarshal([]byte(body), v)

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		if repaired, rerr := jsonrepair.JSONRepair(body); rerr == nil {
			err = json.Unmarshal([]byte(repaired), v)
		}
	}
	if err != nil {
		return &ResponseDecodeError{Shape: shape, Raw: raw, Err: err}
	}
	return nil
}

func missing(shape, raw, format string, args ...any) error {
	return &ResponseDecodeError{Shape: shape, Raw: raw, Err: fmt.Errorf(format, args...)}
}

func DecodeDocumentAnalysis(raw string) (*DocumentAnalysis, error) {
	const shape = "document analysis"

	var sections map[string]json.RawMessage
	if err := decodeJSON(shape, raw, &sections); err != nil {
		return nil, err
	}
	known := 0
	for _, k := range []string{"functional_requirements", "non_functional_requirements", "business_rules", "constraints", "stakeholders"} {
		if _, ok := sections[k]; ok {
			known++
		}
	}
	if known == 0 {
		return nil, missing(shape, raw, "no known section present")
	}

	var out DocumentAnalysis
	if err := decodeJSON(shape, raw, &out); err != nil {
		return nil, err
	}
	for name, items := range map[string][]DocumentItem{
		"functional_requirements":     out.FunctionalRequirements,
		"non_functional_requirements": out.NonFunctionalRequirements,
		"business_rules":              out.BusinessRules,
		"constraints":                 out.Constraints,
	} {
		for i, it := range items {
			if strings.TrimSpace(it.Description) == "" {
				return nil, missing(shape, raw, "%s[%d]: description is required", name, i)
			}
		}
	}
	for i, s := range out.Stakeholders {
		if strings.TrimSpace(s.Role) == "" {
			return nil, missing(shape, raw, "stakeholders[%d]: role is required", i)
		}
	}

	if out.FunctionalRequirements == nil {
		out.FunctionalRequirements = []DocumentItem{}
	}
	if out.NonFunctionalRequirements == nil {
		out.NonFunctionalRequirements = []DocumentItem{}
	}
	if out.BusinessRules == nil {
		out.BusinessRules = []DocumentItem{}
	}
	if out.Constraints == nil {
		out.Constraints = []DocumentItem{}
	}
	if out.Stakeholders == nil {
		out.Stakeholders = []Stakeholder{}
	}
	return &out, nil
}

type rawUserStory struct {
	Role                    string   `json:"role"`
	Goal                    string   `json:"goal"`
	Benefit                 string   `json:"benefit"`
	AcceptanceCriteria      []string `json:"acceptanceCriteria"`
	AcceptanceCriteriaSnake []string `json:"acceptance_criteria"`
}

func DecodeUserStories(raw string) ([]UserStory, error) {
	const shape = "user stories"

	var in []rawUserStory
	if err := decodeJSON(shape, raw, &in); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, missing(shape, raw, "expected a JSON array")
	}
	out := make([]UserStory, 0, len(in))
	for i, s := range in {
		if strings.TrimSpace(s.Role) == "" || strings.TrimSpace(s.Goal) == "" {
			return nil, missing(shape, raw, "story %d: role and goal are required", i)
		}
		criteria := s.AcceptanceCriteria
		if criteria == nil {
			criteria = s.AcceptanceCriteriaSnake
		}
		if criteria == nil {
			criteria = []string{}
		}
		out = append(out, UserStory{
			Role:               s.Role,
			Goal:               s.Goal,
			Benefit:            s.Benefit,
			AcceptanceCriteria: criteria,
		})
	}
	return out, nil
}

func DecodeIssues(raw string) ([]Issue, error) {
	const shape = "consistency issues"

	var in []Issue
	if err := decodeJSON(shape, raw, &in); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, missing(shape, raw, "expected a JSON array")
	}
	for i := range in {
		if strings.TrimSpace(in[i].Type) == "" || strings.TrimSpace(in[i].Description) == "" {
			return nil, missing(shape, raw, "issue %d: type and description are required", i)
		}
		in[i].Type = canonicalIssueType(in[i].Type)
		if in[i].RelatedRequirements == nil {
			in[i].RelatedRequirements = []string{}
		}
	}
	return in, nil
}

type rawCompleteness struct {
	Score           *float64 `json:"score"`
	MissingElements []string `json:"missingElements"`
	Suggestions     []string `json:"suggestions"`
	Summary         *string  `json:"summary"`
}

func DecodeCompleteness(raw string) (*CompletenessAnalysis, error) {
	const shape = "completeness analysis"

	var in rawCompleteness
	if err := decodeJSON(shape, raw, &in); err != nil {
		return nil, err
	}
	if in.Score == nil {
		return nil, missing(shape, raw, "score is required")
	}
	if *in.Score < 0 || *in.Score > 1 {
		return nil, missing(shape, raw, "score %v outside [0,1]", *in.Score)
	}
	if in.Summary == nil {
		return nil, missing(shape, raw, "summary is required")
	}

	out := &CompletenessAnalysis{
		Score:           *in.Score,
		MissingElements: in.MissingElements,
		Suggestions:     in.Suggestions,
		Summary:         *in.Summary,
	}
	if out.MissingElements == nil {
		out.MissingElements = []string{}
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	return out, nil
}
