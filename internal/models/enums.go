package models

import "strings"

type RequirementType string

const (
	TypeFunctional    RequirementType = "FUNCTIONAL"
	TypeNonFunctional RequirementType = "NON_FUNCTIONAL"
	TypeBusinessRule  RequirementType = "BUSINESS_RULE"
	TypeConstraint    RequirementType = "CONSTRAINT"
	TypeUserStory     RequirementType = "USER_STORY"
	TypeUseCase       RequirementType = "USE_CASE"
	TypeUnknown       RequirementType = "UNKNOWN"
)

var requirementTypes = []RequirementType{
	TypeFunctional, TypeNonFunctional, TypeBusinessRule, TypeConstraint,
	TypeUserStory, TypeUseCase, TypeUnknown,
}

// RequirementTypes lists every known type in declaration order.
func RequirementTypes() []RequirementType {
	return append([]RequirementType(nil), requirementTypes...)
}

// ParseRequirementType accepts any letter case; "non-functional" style dashes are tolerated.
func ParseRequirementType(s string) (RequirementType, bool) {
	v := RequirementType(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	for _, t := range requirementTypes {
		if t == v {
			return t, true
		}
	}
	return "", false
}

type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return p, true
	}
	return "", false
}

type MessageRole string

const (
	RoleUser      MessageRole = "USER"
	RoleAssistant MessageRole = "ASSISTANT"
	RoleSystem    MessageRole = "SYSTEM"
)

const (
	SourceManual   = "MANUAL"
	SourceDocument = "DOCUMENT"
	SourceChat     = "CHAT"
)
