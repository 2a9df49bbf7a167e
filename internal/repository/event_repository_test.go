package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/testutil"
)

func TestNormalizeOrdering(t *testing.T) {
	assert.Equal(t, "title", NormalizeOrdering("title"))
	assert.Equal(t, "-click", NormalizeOrdering(" -click "))
	assert.Equal(t, DefaultOrdering, NormalizeOrdering(""))
	assert.Equal(t, DefaultOrdering, NormalizeOrdering("password"))
	assert.Equal(t, DefaultOrdering, NormalizeOrdering("title; DROP TABLE users"))
}

func TestEventList_FilterAndOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	testutil.SeedEvent(t, db, "Summer Hackathon", model.CategoryEvent, base)
	testutil.SeedEvent(t, db, "Winter hackathon", model.CategoryEvent, base.Add(time.Hour))
	testutil.SeedEvent(t, db, "Research Grant", model.CategoryGrant, base.Add(2*time.Hour))
	testutil.SeedEvent(t, db, "100% Scholarship", model.CategoryGrant, base.Add(3*time.Hour))

	events, total, err := repo.List(ctx, EventFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, "100% Scholarship", events[0].Title, "default is newest first")

	events, total, err = repo.List(ctx, EventFilter{Query: "HACKATHON", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Winter hackathon", events[0].Title)

	events, _, err = repo.List(ctx, EventFilter{Query: "hackathon", Ordering: "title", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "Summer Hackathon", events[0].Title)

	_, total, err = repo.List(ctx, EventFilter{Category: model.CategoryGrant, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = repo.List(ctx, EventFilter{Query: "%", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "wildcards in the query are literal")

	events, total, err = repo.List(ctx, EventFilter{Offset: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, events, 1)
	assert.Equal(t, "Summer Hackathon", events[0].Title)
}

func TestIncrementClick_Concurrent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	e := testutil.SeedEvent(t, db, "Olympiad", model.CategoryOlympiad, base)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementClick(ctx, e.EventID))
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Click)

	err = repo.IncrementClick(ctx, "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestOpenDetail(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "a@example.com")
	e := testutil.SeedEvent(t, db, "Internship", model.CategoryInternship, base)

	ev, entry, err := repo.OpenDetail(ctx, e.EventID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ev.Click)
	assert.True(t, entry.IsViewed)

	ev, _, err = repo.OpenDetail(ctx, e.EventID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ev.Click)

	_, _, err = repo.OpenDetail(ctx, "missing", u.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// 不存在的用户：整个事务回滚，点击数不变
	_, _, err = repo.OpenDetail(ctx, e.EventID, uuid.NewString())
	assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated)
	ev, err = repo.Get(ctx, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ev.Click)
}

func TestDeleteEvent_CascadesLedger(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEventRepository(db)
	ledger := NewInteractionRepository(db)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "a@example.com")
	e := testutil.SeedEvent(t, db, "Course", model.CategoryCourse, base)
	require.NoError(t, ledger.UpsertView(ctx, u.ID, e.EventID))

	require.NoError(t, repo.Delete(ctx, e.EventID))

	_, err := ledger.Get(ctx, u.ID, e.EventID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, e.EventID), gorm.ErrRecordNotFound)
}

func TestEventStats(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewEventRepository(db)
	ledger := NewInteractionRepository(db)
	ctx := context.Background()
	e := testutil.SeedEvent(t, db, "Grant", model.CategoryGrant, base)

	s1 := testutil.SeedUser(t, db, "s1@example.com", testutil.WithType(model.UserTypeStudent))
	s2 := testutil.SeedUser(t, db, "s2@example.com", testutil.WithType(model.UserTypeStudent))
	k := testutil.SeedUser(t, db, "k@example.com", testutil.WithType(model.UserTypeSchoolchild))
	anon := testutil.SeedUser(t, db, "anon@example.com")

	require.NoError(t, ledger.UpsertView(ctx, s1.ID, e.EventID))
	require.NoError(t, ledger.UpsertView(ctx, s2.ID, e.EventID))
	_, err := ledger.AddLike(ctx, s2.ID, e.EventID, base)
	require.NoError(t, err)
	_, err = ledger.UpsertLink(ctx, k.ID, e.EventID)
	require.NoError(t, err)
	require.NoError(t, ledger.UpsertView(ctx, anon.ID, e.EventID))
	require.NoError(t, repo.IncrementClick(ctx, e.EventID))

	stats, err := repo.Stats(ctx, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Click)
	assert.Equal(t, TypeStats{Views: 3, Likes: 1, Links: 1}, stats.Totals)
	assert.Equal(t, TypeStats{Views: 2, Likes: 1}, stats.ByUserType[model.UserTypeStudent])
	assert.Equal(t, TypeStats{Links: 1}, stats.ByUserType[model.UserTypeSchoolchild])
	assert.Equal(t, TypeStats{}, stats.ByUserType[model.UserTypeOther])

	_, err = repo.Stats(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
