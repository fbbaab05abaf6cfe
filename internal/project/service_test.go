package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/db/dbtest"
	"github.com/reqmaster/reqmaster/internal/models"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	gdb := dbtest.Open(t)
	return NewService(NewRepo(gdb)), gdb
}

func TestCreate_DuplicateName(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, Input{Name: " Shop ", Domain: "电商"})
	require.NoError(t, err)
	assert.Equal(t, "Shop", p.Name)
	assert.NotZero(t, p.ID)

	_, err = svc.Create(ctx, Input{Name: "Shop"})
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "Shop")

	_, err = svc.Create(ctx, Input{Name: "  "})
	assert.ErrorAs(t, err, &ve)
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Get(context.Background(), 42)
	var nf *common.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, uint64(42), nf.ID)
}

func TestUpdate_NameConflict(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, Input{Name: "A"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Name: "B"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, Input{Name: "B"})
	var ve *common.ValidationError
	assert.ErrorAs(t, err, &ve)

	got, err := svc.Update(ctx, a.ID, Input{Name: "A", Description: "new", Domain: "金融"})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Description)
	assert.Equal(t, "金融", got.Domain)

	_, err = svc.Update(ctx, 999, Input{Name: "C"})
	var nf *common.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDelete_Cascades(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()
	keep, err := svc.Create(ctx, Input{Name: "keep"})
	require.NoError(t, err)
	gone, err := svc.Create(ctx, Input{Name: "gone"})
	require.NoError(t, err)

	for _, pid := range []uint64{keep.ID, gone.ID} {
		require.NoError(t, gdb.Create(&models.Requirement{ProjectID: pid, Title: "r", Type: models.TypeFunctional, Priority: models.PriorityHigh}).Error)
		sess := &models.ChatSession{ProjectID: pid, Title: "s", SessionType: models.DefaultSessionType}
		require.NoError(t, gdb.Create(sess).Error)
		require.NoError(t, gdb.Create(&models.ChatMessage{SessionID: sess.ID, Role: models.RoleUser, Content: "hi", Timestamp: time.Now()}).Error)
	}

	require.NoError(t, svc.Delete(ctx, gone.ID))

	var n int64
	require.NoError(t, gdb.Model(&models.Requirement{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	require.NoError(t, gdb.Model(&models.ChatSession{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	require.NoError(t, gdb.Model(&models.ChatMessage{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	var nf *common.NotFoundError
	assert.ErrorAs(t, svc.Delete(ctx, gone.ID), &nf)
}

func TestSearchDomainPageStats(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()
	for _, in := range []Input{
		{Name: "Online Shop", Domain: "电商"},
		{Name: "shopping cart", Domain: "电商"},
		{Name: "Bank Core", Domain: "金融"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	found, err := svc.Search(ctx, "SHOP")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	all, err := svc.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	fin, err := svc.ByDomain(ctx, "金融")
	require.NoError(t, err)
	require.Len(t, fin, 1)
	assert.Equal(t, "Bank Core", fin[0].Name)

	page, err := svc.Page(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)

	require.NoError(t, gdb.Create(&models.Requirement{ProjectID: fin[0].ID, Title: "a", Type: models.TypeFunctional, Priority: models.PriorityLow, IsAnalyzed: true}).Error)
	require.NoError(t, gdb.Create(&models.Requirement{ProjectID: fin[0].ID, Title: "b", Type: models.TypeFunctional, Priority: models.PriorityLow}).Error)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalProjects: 3, TotalRequirements: 2, AnalyzedRequirements: 1}, st)
}
