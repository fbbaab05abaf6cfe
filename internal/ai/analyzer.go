package ai

import (
	"context"

	"github.com/reqmaster/reqmaster/internal/models"
	"github.com/reqmaster/reqmaster/internal/prompt"
)

// Sampling temperatures per workflow.
const (
	TempParseDocument = 0.1
	TempUserStories   = 0.3
	TempConsistency   = 0.2
	TempCompleteness  = 0.2
	TempChat          = 0.7
	TempSummary       = 0.3
	TempChatAnalysis  = 0.5
)

// Analyzer is the requirements-analysis capability of a completion provider.
type Analyzer interface {
	Completer
	ParseDocument(ctx context.Context, content string) (*DocumentAnalysis, error)
	GenerateUserStories(ctx context.Context, req models.Requirement) ([]UserStory, error)
	CheckConsistency(ctx context.Context, reqs []models.Requirement) ([]Issue, error)
	AnalyzeCompleteness(ctx context.Context, req models.Requirement) (*CompletenessAnalysis, error)
	Name() string
}

// LLMAnalyzer renders prompts, calls the completer and normalizes replies.
type LLMAnalyzer struct {
	name      string
	completer Completer
}

func NewAnalyzer(name string, c Completer) *LLMAnalyzer {
	return &LLMAnalyzer{name: name, completer: c}
}

func (a *LLMAnalyzer) Name() string { return a.name }

func (a *LLMAnalyzer) Complete(ctx context.Context, p string, temperature *float64) (string, error) {
	return a.completer.Complete(ctx, p, temperature)
}

func (a *LLMAnalyzer) ParseDocument(ctx context.Context, content string) (*DocumentAnalysis, error) {
	reply, err := a.completer.Complete(ctx, prompt.DocumentParse(content), Temperature(TempParseDocument))
	if err != nil {
		return nil, err
	}
	return DecodeDocumentAnalysis(reply)
}

func (a *LLMAnalyzer) GenerateUserStories(ctx context.Context, req models.Requirement) ([]UserStory, error) {
	reply, err := a.completer.Complete(ctx, prompt.UserStories(req), Temperature(TempUserStories))
	if err != nil {
		return nil, err
	}
	return DecodeUserStories(reply)
}

func (a *LLMAnalyzer) CheckConsistency(ctx context.Context, reqs []models.Requirement) ([]Issue, error) {
	reply, err := a.completer.Complete(ctx, prompt.Consistency(reqs), Temperature(TempConsistency))
	if err != nil {
		return nil, err
	}
	return DecodeIssues(reply)
}

func (a *LLMAnalyzer) AnalyzeCompleteness(ctx context.Context, req models.Requirement) (*CompletenessAnalysis, error) {
	reply, err := a.completer.Complete(ctx, prompt.Completeness(req), Temperature(TempCompleteness))
	if err != nil {
		return nil, err
	}
	return DecodeCompleteness(reply)
}
