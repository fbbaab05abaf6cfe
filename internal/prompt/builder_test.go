package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/reqmaster/reqmaster/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "需求", Truncate("需求文档", 2))
	assert.Equal(t, "", Truncate("需求", 0))
}

func TestDocumentParse_TruncatesContent(t *testing.T) {
	content := strings.Repeat("Ж", MaxDocumentChars+500)
	p := DocumentParse(content)

	assert.Equal(t, MaxDocumentChars, strings.Count(p, "Ж"))
	assert.True(t, utf8.ValidString(p))
	assert.NotContains(t, p, "{content}")
}

func TestUserStories_SubstitutesFields(t *testing.T) {
	p := UserStories(models.Requirement{
		Title:       "Login",
		Description: "users sign in with email",
		Type:        models.TypeFunctional,
	})

	assert.Contains(t, p, "需求标题：Login")
	assert.Contains(t, p, "需求描述：users sign in with email")
	assert.Contains(t, p, "需求类型：FUNCTIONAL")
	assert.NotContains(t, p, "{title}")
}

func TestRender_DoesNotExpandPlaceholdersInValues(t *testing.T) {
	p := Completeness(models.Requirement{
		Title:       "{description}",
		Description: "real description",
		Type:        models.TypeConstraint,
	})

	assert.Contains(t, p, "需求标题：{description}")
	assert.Equal(t, 1, strings.Count(p, "real description"))
}

func TestConsistency_ListsRequirements(t *testing.T) {
	p := Consistency([]models.Requirement{
		{Title: "Login", Description: "email login", Type: models.TypeFunctional},
		{Title: "Perf", Description: "p99 < 200ms", Type: models.TypeNonFunctional},
	})

	assert.Contains(t, p, "- Login: email login [FUNCTIONAL]\n- Perf: p99 < 200ms [NON_FUNCTIONAL]\n")
}

func TestChat_UsesFallbacksAndHistory(t *testing.T) {
	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "我们要做一个商城"},
		{Role: models.RoleAssistant, Content: "目标用户是谁？"},
	}
	p := Chat(models.Project{Name: "Demo"}, history, "面向年轻人")

	assert.Contains(t, p, "项目名称：Demo")
	assert.Contains(t, p, "项目描述：暂无详细描述")
	assert.Contains(t, p, "项目领域：未指定")
	assert.Contains(t, p, "用户: 我们要做一个商城\n\n助手: 目标用户是谁？\n\n")
	assert.Contains(t, p, "用户最新问题：面向年轻人")
}

func TestSummary_IncludesTranscript(t *testing.T) {
	p := Summary([]models.ChatMessage{{Role: models.RoleUser, Content: "hello"}})
	assert.Contains(t, p, "用户: hello")
	assert.Contains(t, p, "不超过200字")
}
