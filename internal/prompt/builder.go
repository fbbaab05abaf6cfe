// Package prompt renders the fixed prompt templates sent to the completion service.
//
// Substitution is literal and single-pass: values are inserted verbatim and
// placeholders that appear inside a value are never expanded.
package prompt

import (
	"strings"

	"github.com/reqmaster/reqmaster/internal/models"
)

// MaxDocumentChars bounds how much document text goes into a parse prompt.
const MaxDocumentChars = 15000

const (
	defaultProjectDescription = "暂无详细描述"
	defaultProjectDomain      = "未指定"
)

func render(tmpl string, kv ...string) string {
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func DocumentParse(content string) string {
	return render(documentParseTemplate, "content", Truncate(content, MaxDocumentChars))
}

func UserStories(r models.Requirement) string {
	return render(userStoryTemplate,
		"title", r.Title,
		"description", r.Description,
		"type", string(r.Type),
	)
}

func Completeness(r models.Requirement) string {
	return render(completenessTemplate,
		"title", r.Title,
		"description", r.Description,
		"type", string(r.Type),
	)
}

func Consistency(reqs []models.Requirement) string {
	return render(consistencyTemplate, "requirements", RequirementList(reqs))
}

// RequirementList renders one "- title: description [TYPE]" line per requirement.
func RequirementList(reqs []models.Requirement) string {
	var b strings.Builder
	for _, r := range reqs {
		b.WriteString("- ")
		b.WriteString(r.Title)
		b.WriteString(": ")
		b.WriteString(r.Description)
		b.WriteString(" [")
		b.WriteString(string(r.Type))
		b.WriteString("]\n")
	}
	return b.String()
}

// History renders a transcript as alternating "用户"/"助手" blocks.
func History(msgs []models.ChatMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.IsUser() {
			b.WriteString("用户: ")
		} else {
			b.WriteString("助手: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func Chat(p models.Project, history []models.ChatMessage, latest string) string {
	desc := p.Description
	if strings.TrimSpace(desc) == "" {
		desc = defaultProjectDescription
	}
	domain := p.Domain
	if strings.TrimSpace(domain) == "" {
		domain = defaultProjectDomain
	}
	return render(chatTemplate,
		"name", p.Name,
		"description", desc,
		"domain", domain,
		"history", History(history),
		"message", latest,
	)
}

func Summary(history []models.ChatMessage) string {
	return render(summaryTemplate, "history", History(history))
}

func ChatAnalysis(reqs []models.Requirement, question string) string {
	return render(chatAnalysisTemplate,
		"requirements", RequirementList(reqs),
		"question", question,
	)
}
