package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/ai"
	"github.com/reqmaster/reqmaster/internal/ai/aitest"
	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/db/dbtest"
	"github.com/reqmaster/reqmaster/internal/models"
)

const summaryPrefix = "请为以下需求分析对话生成一个简洁的摘要"

type fixture struct {
	db      *gorm.DB
	svc     *Service
	project *models.Project
}

func newFixture(t *testing.T, c ai.Completer) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	p := &models.Project{Name: "Shop", Description: "在线商城", Domain: "电商"}
	require.NoError(t, gdb.Create(p).Error)
	return &fixture{db: gdb, svc: NewService(NewRepo(gdb), c, Options{}), project: p}
}

func (f *fixture) session(t *testing.T) *models.ChatSession {
	t.Helper()
	sess, err := f.svc.CreateSession(context.Background(), f.project.ID, "访谈", "")
	require.NoError(t, err)
	return sess
}

func (f *fixture) reload(t *testing.T, id uint64) *models.ChatSession {
	t.Helper()
	var s models.ChatSession
	require.NoError(t, f.db.First(&s, id).Error)
	return &s
}

func summaryCalls(c *aitest.Completer) int {
	n := 0
	for _, call := range c.Calls {
		if strings.HasPrefix(call.Prompt, summaryPrefix) {
			n++
		}
	}
	return n
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t, aitest.New())
	sess := f.session(t)
	assert.Equal(t, models.DefaultSessionType, sess.SessionType)
	assert.Zero(t, sess.MessageCount)
	assert.Nil(t, sess.Summary)

	_, err := f.svc.CreateSession(context.Background(), 999, "t", "")
	var nf *common.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = f.svc.CreateSession(context.Background(), f.project.ID, " ", "")
	var ve *common.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSendMessage_StoresTurn(t *testing.T) {
	fake := aitest.New(aitest.Text("您好，请描述登录流程"))
	f := newFixture(t, fake)
	sess := f.session(t)

	reply, err := f.svc.SendMessage(context.Background(), sess.ID, "我们需要登录功能")
	require.NoError(t, err)
	assert.Equal(t, "您好，请描述登录流程", reply.Content)
	assert.Equal(t, models.RoleAssistant, reply.Role)

	msgs, err := f.svc.ListMessages(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "我们需要登录功能", msgs[0].Content)
	assert.False(t, msgs[1].Timestamp.Before(msgs[0].Timestamp))

	assert.Equal(t, 2, f.reload(t, sess.ID).MessageCount)

	call := fake.LastCall()
	require.NotNil(t, call.Temperature)
	assert.InDelta(t, ai.TempChat, *call.Temperature, 1e-9)
	assert.Contains(t, call.Prompt, "项目名称：Shop")
	assert.Contains(t, call.Prompt, "用户: 我们需要登录功能")
	assert.Contains(t, call.Prompt, "用户最新问题：我们需要登录功能")
}

func TestSendMessage_HistoryInPrompt(t *testing.T) {
	fake := aitest.New(aitest.Text("first reply"), aitest.Text("second reply"))
	f := newFixture(t, fake)
	sess := f.session(t)

	_, err := f.svc.SendMessage(context.Background(), sess.ID, "第一个问题")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(context.Background(), sess.ID, "第二个问题")
	require.NoError(t, err)

	p := fake.Calls[1].Prompt
	first := strings.Index(p, "用户: 第一个问题")
	reply := strings.Index(p, "助手: first reply")
	second := strings.Index(p, "用户: 第二个问题")
	require.True(t, first >= 0 && reply >= 0 && second >= 0, p)
	assert.Less(t, first, reply)
	assert.Less(t, reply, second)
}

func TestSendMessage_EndpointFailureYieldsApology(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	provider := ai.NewOpenAIProvider(srv.URL, "k", "m", 0, 0.7, time.Second)
	f := newFixture(t, provider)
	sess := f.session(t)

	reply, err := f.svc.SendMessage(context.Background(), sess.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, Apology, reply.Content)
	assert.Equal(t, 2, f.reload(t, sess.ID).MessageCount)
}

func TestSendMessage_Rejects(t *testing.T) {
	f := newFixture(t, aitest.New(aitest.Text("x")))
	sess := f.session(t)

	var ve *common.ValidationError
	_, err := f.svc.SendMessage(context.Background(), sess.ID, "  ")
	assert.ErrorAs(t, err, &ve)

	var nf *common.NotFoundError
	_, err = f.svc.SendMessage(context.Background(), 999, "hi")
	assert.ErrorAs(t, err, &nf)
}

func TestSummary_ExactlyOnceAtThreshold(t *testing.T) {
	fake := aitest.New(aitest.Text("a1"), aitest.Text("a2"), aitest.Text("讨论了登录需求"), aitest.Text("a3"))
	f := newFixture(t, fake)
	sess := f.session(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, sess.ID, "q1")
	require.NoError(t, err)
	assert.Nil(t, f.reload(t, sess.ID).Summary)
	assert.Zero(t, summaryCalls(fake))

	_, err = f.svc.SendMessage(ctx, sess.ID, "q2")
	require.NoError(t, err)
	got := f.reload(t, sess.ID)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "讨论了登录需求", *got.Summary)
	assert.Equal(t, 1, summaryCalls(fake))
	assert.Equal(t, 4, got.MessageCount)

	_, err = f.svc.SendMessage(ctx, sess.ID, "q3")
	require.NoError(t, err)
	got = f.reload(t, sess.ID)
	assert.Equal(t, "讨论了登录需求", *got.Summary)
	assert.Equal(t, 1, summaryCalls(fake))
	assert.Equal(t, 6, got.MessageCount)

	call := fake.Calls[2]
	require.NotNil(t, call.Temperature)
	assert.InDelta(t, ai.TempSummary, *call.Temperature, 1e-9)
	assert.Contains(t, call.Prompt, "用户: q2")
	assert.Contains(t, call.Prompt, "助手: a2")
}

func TestSummary_NoneBelowThreshold(t *testing.T) {
	fake := aitest.New(aitest.Text("reply"))
	f := newFixture(t, fake)
	sess := f.session(t)
	require.NoError(t, f.db.Model(&models.ChatSession{}).Where("id = ?", sess.ID).Update("message_count", 1).Error)

	_, err := f.svc.SendMessage(context.Background(), sess.ID, "q")
	require.NoError(t, err)
	got := f.reload(t, sess.ID)
	assert.Equal(t, 3, got.MessageCount)
	assert.Nil(t, got.Summary)
	assert.False(t, got.SummaryAttempted)
	assert.Zero(t, summaryCalls(fake))
}

func TestSummary_FailureIsNotRetried(t *testing.T) {
	fake := aitest.New(
		aitest.Text("a1"),
		aitest.Text("a2"),
		aitest.Error(errors.New("summary endpoint down")),
		aitest.Text("a3"),
	)
	f := newFixture(t, fake)
	sess := f.session(t)
	ctx := context.Background()

	for _, q := range []string{"q1", "q2"} {
		_, err := f.svc.SendMessage(ctx, sess.ID, q)
		require.NoError(t, err)
	}
	got := f.reload(t, sess.ID)
	assert.Nil(t, got.Summary)
	assert.True(t, got.SummaryAttempted)

	reply, err := f.svc.SendMessage(ctx, sess.ID, "q3")
	require.NoError(t, err)
	assert.Equal(t, "a3", reply.Content)
	assert.Equal(t, 1, summaryCalls(fake))
	assert.Nil(t, f.reload(t, sess.ID).Summary)
}

func TestSendMessage_ConcurrentTurnsOnOneSession(t *testing.T) {
	fake := aitest.New(aitest.Text("ok"))
	f := newFixture(t, fake)
	sess := f.session(t)

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SendMessage(context.Background(), sess.ID, "q")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got := f.reload(t, sess.ID)
	assert.Equal(t, 2*turns, got.MessageCount)
	assert.Equal(t, 1, summaryCalls(fake))

	var n int64
	require.NoError(t, f.db.Model(&models.ChatMessage{}).Where("session_id = ?", sess.ID).Count(&n).Error)
	assert.Equal(t, int64(2*turns), n)
}

func TestGenerateSummary_Manual(t *testing.T) {
	fake := aitest.New(aitest.Text("a1"), aitest.Text("  手动摘要  "))
	f := newFixture(t, fake)
	sess := f.session(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, sess.ID, "q1")
	require.NoError(t, err)

	summary, err := f.svc.GenerateSummary(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "手动摘要", summary)
	assert.Equal(t, "手动摘要", *f.reload(t, sess.ID).Summary)

	t.Run("failure", func(t *testing.T) {
		failing := newFixture(t, aitest.New(aitest.Error(errors.New("down"))))
		s2 := failing.session(t)
		_, err := failing.svc.GenerateSummary(ctx, s2.ID)
		var of *common.OperationFailedError
		assert.ErrorAs(t, err, &of)
	})
}

func TestSessionsTitleAndDelete(t *testing.T) {
	fake := aitest.New(aitest.Text("ok"))
	f := newFixture(t, fake)
	ctx := context.Background()
	older := f.session(t)
	newer := f.session(t)

	_, err := f.svc.SendMessage(ctx, older.ID, "bump")
	require.NoError(t, err)

	list, err := f.svc.ListProjectSessions(ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, newer.ID, list[1].ID)

	renamed, err := f.svc.UpdateTitle(ctx, newer.ID, "新标题")
	require.NoError(t, err)
	assert.Equal(t, "新标题", renamed.Title)

	var nf *common.NotFoundError
	_, err = f.svc.UpdateTitle(ctx, 999, "x")
	assert.ErrorAs(t, err, &nf)

	require.NoError(t, f.svc.DeleteSession(ctx, older.ID))
	var n int64
	require.NoError(t, f.db.Model(&models.ChatMessage{}).Where("session_id = ?", older.ID).Count(&n).Error)
	assert.Zero(t, n)
	assert.ErrorAs(t, f.svc.DeleteSession(ctx, older.ID), &nf)
	_, err = f.svc.ListMessages(ctx, older.ID)
	assert.ErrorAs(t, err, &nf)
}
