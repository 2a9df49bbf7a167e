package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/eventhub/internal/cache"
	"github.com/d60-Lab/eventhub/internal/model"
	"github.com/d60-Lab/eventhub/internal/testutil"
	"github.com/d60-Lab/eventhub/pkg/push"
)

func createInput(title string, cat model.Category) CreateEventInput {
	return CreateEventInput{
		Title:      title,
		Deadline:   model.NewDate(base.AddDate(0, 1, 0)),
		TypesEvent: cat,
		TypeURL:    "https://example.com/apply",
	}
}

func TestEventFlow_EndToEnd(t *testing.T) {
	f := newFixture(t)
	events := NewEventService(f.events, nil, nil)
	ledger := f.interactions()
	ctx := context.Background()

	a := testutil.SeedUser(t, f.db, "a@example.com")
	b := testutil.SeedUser(t, f.db, "b@example.com")
	c := testutil.SeedUser(t, f.db, "c@example.com")

	e, err := events.CreateEvent(ctx, createInput("Robotics Olympiad", model.CategoryOlympiad))
	require.NoError(t, err)
	assert.Equal(t, int64(0), e.Click)
	_, err = uuid.Parse(e.EventID)
	require.NoError(t, err)

	d, err := events.GetEventDetail(ctx, e.EventID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Click)
	assert.True(t, d.IsViewed)
	assert.False(t, d.IsLiked)

	d, err = events.GetEventDetail(ctx, e.EventID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.Click)

	unviewedA, err := ledger.ListUnviewed(ctx, a.ID, "", Pagination{})
	require.NoError(t, err)
	assert.Zero(t, unviewedA.Count)

	unviewedC, err := ledger.ListUnviewed(ctx, c.ID, "", Pagination{})
	require.NoError(t, err)
	require.Len(t, unviewedC.Events, 1)
	assert.Equal(t, e.EventID, unviewedC.Events[0].EventID)
}

func TestGetEventDetail_EveryFetchCounts(t *testing.T) {
	f := newFixture(t)
	events := NewEventService(f.events, nil, nil)
	ctx := context.Background()
	u := testutil.SeedUser(t, f.db, "a@example.com")
	e := testutil.SeedEvent(t, f.db, "Grant", model.CategoryGrant, base)

	for i := 0; i < 2; i++ {
		_, err := events.GetEventDetail(ctx, e.EventID, u.ID)
		require.NoError(t, err)
	}
	got, err := f.events.Get(ctx, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Click)
	assert.Equal(t, int64(1), f.ledgerRows(t, u.ID, e.EventID))

	_, err = events.GetEventDetail(ctx, uuid.NewString(), u.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = events.GetEventDetail(ctx, "42", u.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetEventDetail_UnknownUser(t *testing.T) {
	f := newFixture(t)
	events := NewEventService(f.events, nil, nil)
	ctx := context.Background()
	e := testutil.SeedEvent(t, f.db, "Grant", model.CategoryGrant, base)
	u := testutil.SeedUser(t, f.db, "gone@example.com")
	require.NoError(t, f.db.Delete(&model.User{}, "id = ?", u.ID).Error)

	_, err := events.GetEventDetail(ctx, e.EventID, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = events.GetEventDetail(ctx, e.EventID, uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)

	got, err := f.events.Get(ctx, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Click)
}

func TestListEvents_CachedUntilTTL(t *testing.T) {
	f := newFixture(t)
	client, mr := testutil.NewRedis(t)
	listing := cache.NewEventListCache(client, 5*time.Minute)
	events := NewEventService(f.events, listing, nil)
	ctx := context.Background()

	testutil.SeedEvent(t, f.db, "Summer Hackathon", model.CategoryEvent, base)

	page, err := events.ListEvents(ctx, EventQuery{Query: "hackathon"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Count)

	testutil.SeedEvent(t, f.db, "Winter Hackathon", model.CategoryEvent, base.Add(time.Hour))

	page, err = events.ListEvents(ctx, EventQuery{Query: "  HACKATHON "})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Count, "served from cache, no invalidation on create")

	mr.FastForward(6 * time.Minute)
	page, err = events.ListEvents(ctx, EventQuery{Query: "hackathon"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Count)
	assert.Equal(t, "Winter Hackathon", page.Events[0].Title)

	_, err = events.ListEvents(ctx, EventQuery{Category: "webinar"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateEvent_Validation(t *testing.T) {
	f := newFixture(t)
	events := NewEventService(f.events, nil, nil)
	ctx := context.Background()

	_, err := events.CreateEvent(ctx, createInput("x", "webinar"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	in := createInput("x", model.CategoryGrant)
	in.Deadline = model.Date{}
	_, err = events.CreateEvent(ctx, in)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "deadline", ve.Field)
}

func TestCreateEvent_NotifiesDeviceOwners(t *testing.T) {
	f := newFixture(t)
	pusher := testutil.NewFakePusher()
	dispatcher := NewNotificationDispatcher(f.users, pusher, "New event", 8)
	stop := dispatcher.Start(1)
	defer func() { _ = stop(context.Background()) }()

	testutil.SeedUser(t, f.db, "a@example.com", testutil.WithDeviceToken("tok-a"))
	testutil.SeedUser(t, f.db, "b@example.com", testutil.WithDeviceToken("tok-b"))
	testutil.SeedUser(t, f.db, "c@example.com")

	events := NewEventService(f.events, nil, dispatcher)
	e, err := events.CreateEvent(context.Background(), createInput("Data Internship", model.CategoryInternship))
	require.NoError(t, err)

	select {
	case msg := <-pusher.Messages:
		assert.Equal(t, "New event", msg.Title)
		assert.Equal(t, "Data Internship", msg.Body)
		assert.ElementsMatch(t, []string{"tok-a", "tok-b"}, msg.Tokens)
		assert.Equal(t, map[string]string{
			"event_id":     e.EventID,
			"type":         "internship",
			"title":        "Data Internship",
			"click_action": "OPEN_EVENT_DETAILS",
		}, msg.Data)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not dispatched")
	}
}

func TestCreateEvent_PushFailureNotPropagated(t *testing.T) {
	f := newFixture(t)
	pusher := testutil.NewFakePusher()
	pusher.Err = errors.New("fcm unavailable")
	dispatcher := NewNotificationDispatcher(f.users, pusher, "New event", 8)
	stop := dispatcher.Start(1)
	defer func() { _ = stop(context.Background()) }()
	testutil.SeedUser(t, f.db, "a@example.com", testutil.WithDeviceToken("tok-a"))

	events := NewEventService(f.events, nil, dispatcher)
	e, err := events.CreateEvent(context.Background(), createInput("Grant", model.CategoryGrant))
	require.NoError(t, err)

	select {
	case <-pusher.Messages:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not attempted")
	}
	_, err = f.events.Get(context.Background(), e.EventID)
	assert.NoError(t, err, "event persisted despite push failure")
}

func TestNotificationDispatcher_EnqueueNeverBlocks(t *testing.T) {
	f := newFixture(t)
	d := NewNotificationDispatcher(f.users, push.Noop{}, "New event", 1)

	assert.True(t, d.Enqueue(model.Event{EventID: "e1"}))
	assert.False(t, d.Enqueue(model.Event{EventID: "e2"}), "full queue drops")
	assert.Equal(t, 1, d.QueueLen())

	stop := d.Start(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, stop(ctx))
	assert.Equal(t, 0, d.QueueLen(), "stop drains the queue")
}

func TestDeleteEventAndStats(t *testing.T) {
	f := newFixture(t)
	events := NewEventService(f.events, nil, nil)
	ledger := f.interactions()
	ctx := context.Background()
	u := testutil.SeedUser(t, f.db, "a@example.com", testutil.WithType(model.UserTypeStudent))
	e := testutil.SeedEvent(t, f.db, "Course", model.CategoryCourse, base)

	_, err := events.GetEventDetail(ctx, e.EventID, u.ID)
	require.NoError(t, err)
	require.NoError(t, ledger.AddFavorite(ctx, u.ID, e.EventID))

	stats, err := events.EventStats(ctx, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Click)
	assert.Equal(t, int64(1), stats.ByUserType[model.UserTypeStudent].Views)
	assert.Equal(t, int64(1), stats.ByUserType[model.UserTypeStudent].Likes)

	require.NoError(t, events.DeleteEvent(ctx, e.EventID))
	assert.Zero(t, f.ledgerRows(t, u.ID, e.EventID))
	assert.ErrorIs(t, events.DeleteEvent(ctx, e.EventID), ErrEventNotFound)
	_, err = events.EventStats(ctx, e.EventID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
