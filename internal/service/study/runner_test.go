package study

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/domain/srs"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/mocks"
	"github.com/phrazzld/vocab-api/internal/service"
	"github.com/phrazzld/vocab-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)

type fixture struct {
	runner   *runnerImpl
	sql      sqlmock.Sqlmock
	users    *mocks.UserStore
	items    *mocks.ItemStore
	sessions *mocks.SessionStore
	emitter  *mocks.EventEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureIn(t, "")
}

// newFixtureIn builds a fixture whose users live in the given time zone.
func newFixtureIn(t *testing.T, timezone string) *fixture {
	t.Helper()

	db, sqlMock := mocks.NewTxDB(t)
	f := &fixture{
		sql:      sqlMock,
		users:    &mocks.UserStore{},
		items:    &mocks.ItemStore{},
		sessions: &mocks.SessionStore{},
		emitter:  &mocks.EventEmitter{},
	}
	f.users.On("GetByID", mock.Anything, mock.Anything).
		Return(&domain.User{Timezone: timezone}, nil).Maybe()

	r := NewRunner(db, f.users, f.items, f.sessions, srs.NewDefaultService(), f.emitter,
		config.StudyConfig{DefaultBatchSize: 20, MaxBatchSize: 100, QuizOptions: 4},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.runner = r.(*runnerImpl)
	f.runner.now = func() time.Time { return testNow }

	t.Cleanup(func() {
		f.items.AssertExpectations(t)
		f.sessions.AssertExpectations(t)
	})
	return f
}

func newItem(t *testing.T, userID uuid.UUID, term string) *domain.VocabItem {
	t.Helper()
	item, err := domain.NewVocabItem(userID, term, term+"-tr", domain.DefaultEaseFactor)
	require.NoError(t, err)
	return item
}

func newSession(t *testing.T, userID uuid.UUID, items ...*domain.VocabItem) *domain.StudySession {
	t.Helper()
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	sess, err := domain.NewStudySession(userID, domain.StudyModeReview, ids, testNow.Add(-10*time.Minute))
	require.NoError(t, err)
	return sess
}

func TestNewRunnerPanicsOnMissingDeps(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		NewRunner(nil, nil, nil, nil, nil, nil, config.StudyConfig{}, nil)
	})
}

func TestStart(t *testing.T) {
	t.Parallel()

	t.Run("learn uses default batch", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		a, b := newItem(t, userID, "uno"), newItem(t, userID, "dos")

		f.items.On("ListNew", mock.Anything, userID, 20).Return([]*domain.VocabItem{a, b}, nil)
		f.sessions.On("Create", mock.Anything, mock.AnythingOfType("*domain.StudySession")).Return(nil)

		sess, err := f.runner.Start(context.Background(), userID, domain.StudyModeLearn, 0)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID, b.ID}, sess.ItemIDs)
		assert.Equal(t, domain.StudyModeLearn, sess.Mode)
		assert.Equal(t, testNow, sess.StartedAt)
	})

	t.Run("review clamps limit", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		a := newItem(t, userID, "tres")

		f.items.On("ListDue", mock.Anything, userID, testNow, 100).Return([]*domain.VocabItem{a}, nil)
		f.sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

		sess, err := f.runner.Start(context.Background(), userID, domain.StudyModeReview, 500)
		require.NoError(t, err)
		assert.Len(t, sess.ItemIDs, 1)
	})

	t.Run("nothing to study", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		f.items.On("ListDue", mock.Anything, userID, testNow, 5).Return([]*domain.VocabItem{}, nil)

		_, err := f.runner.Start(context.Background(), userID, domain.StudyModeReview, 5)
		assert.ErrorIs(t, err, ErrNothingToStudy)
	})

	t.Run("invalid mode", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.runner.Start(context.Background(), uuid.New(), domain.StudyMode("cram"), 5)
		assert.ErrorIs(t, err, domain.ErrInvalidStudyMode)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		f.items.On("ListNew", mock.Anything, userID, 3).Return(nil, store.ErrInternal)

		_, err := f.runner.Start(context.Background(), userID, domain.StudyModeLearn, 3)
		var se *service.ServiceError
		require.ErrorAs(t, err, &se)
		assert.ErrorIs(t, err, store.ErrInternal)
	})
}

func TestAnswer(t *testing.T) {
	t.Parallel()

	t.Run("first success", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		item := newItem(t, userID, "gato")
		other := newItem(t, userID, "perro")
		sess := newSession(t, userID, item, other)

		mocks.ExpectCommittedTx(f.sql)
		f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)
		f.items.On("GetForUpdate", mock.Anything, item.ID).Return(item, nil)
		f.items.On("Update", mock.Anything, item).Return(nil)
		f.sessions.On("Update", mock.Anything, sess).Return(nil)

		res, err := f.runner.Answer(context.Background(), userID, sess.ID, item.ID, 4)
		require.NoError(t, err)

		assert.True(t, res.Success)
		assert.False(t, res.Promoted)
		assert.Equal(t, domain.MasteryLearning, res.Mastery)
		assert.Equal(t, 1, res.Item.State.Interval)
		assert.Equal(t, 1, res.Item.State.Repetitions)
		require.NotNil(t, res.Item.State.NextReviewAt)
		assert.Equal(t, testNow.AddDate(0, 0, 1), *res.Item.State.NextReviewAt)
		assert.Equal(t, 1, res.Item.TimesStudied)
		assert.Equal(t, 1, res.Item.TimesCorrect)

		require.NotNil(t, res.Session)
		assert.Equal(t, 1, res.Session.Position)
		assert.Equal(t, 1, res.Session.Reviewed)
		assert.Equal(t, 1, res.Session.Correct)
	})

	t.Run("lapse", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		item := newItem(t, userID, "casa")
		next := testNow.AddDate(0, 0, -1)
		item.State = domain.SchedulerState{EaseFactor: 2.5, Interval: 6, Repetitions: 2, NextReviewAt: &next}
		sess := newSession(t, userID, item)

		mocks.ExpectCommittedTx(f.sql)
		f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)
		f.items.On("GetForUpdate", mock.Anything, item.ID).Return(item, nil)
		f.items.On("Update", mock.Anything, item).Return(nil)
		f.sessions.On("Update", mock.Anything, sess).Return(nil)

		res, err := f.runner.Answer(context.Background(), userID, sess.ID, item.ID, 1)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, 0, res.Item.State.Repetitions)
		assert.Equal(t, 1, res.Item.State.Interval)
		assert.InDelta(t, 1.96, res.Item.State.EaseFactor, 1e-9)
		assert.Equal(t, 0, res.Session.Correct)
		assert.True(t, res.Session.Exhausted())
	})

	t.Run("promotion to mastered", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		item := newItem(t, userID, "sol")
		next := testNow
		item.State = domain.SchedulerState{EaseFactor: 2.6, Interval: 15, Repetitions: 3, NextReviewAt: &next}
		item.TimesStudied, item.TimesCorrect = 4, 4
		sess := newSession(t, userID, item)

		mocks.ExpectCommittedTx(f.sql)
		f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)
		f.items.On("GetForUpdate", mock.Anything, item.ID).Return(item, nil)
		f.items.On("Update", mock.Anything, item).Return(nil)
		f.sessions.On("Update", mock.Anything, sess).Return(nil)

		res, err := f.runner.Answer(context.Background(), userID, sess.ID, item.ID, 5)
		require.NoError(t, err)
		assert.True(t, res.Promoted)
		assert.Equal(t, domain.MasteryMastered, res.Mastery)
		assert.Equal(t, 39, res.Item.State.Interval)
		assert.Equal(t, 1, res.Session.Promoted)
	})

	t.Run("invalid quality", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.runner.Answer(context.Background(), uuid.New(), uuid.New(), uuid.New(), 6)
		assert.ErrorIs(t, err, domain.ErrInvalidQuality)
	})

	t.Run("out of order", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		a, b := newItem(t, userID, "a"), newItem(t, userID, "b")
		sess := newSession(t, userID, a, b)

		mocks.ExpectRolledBackTx(f.sql)
		f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)

		_, err := f.runner.Answer(context.Background(), userID, sess.ID, b.ID, 4)
		assert.ErrorIs(t, err, ErrOutOfOrder)
		assert.True(t, IsConflict(err))
		assert.Equal(t, 0, sess.Position)
	})

	t.Run("foreign session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		item := newItem(t, uuid.New(), "a")
		sess := newSession(t, item.UserID, item)

		mocks.ExpectRolledBackTx(f.sql)
		f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)

		_, err := f.runner.Answer(context.Background(), uuid.New(), sess.ID, item.ID, 4)
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})

	t.Run("finished session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		item := newItem(t, userID, "a")
		sess := newSession(t, userID, item)
		require.NoError(t, sess.Finish(testNow))

		mocks.ExpectRolledBackTx(f.sql)
		f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)

		_, err := f.runner.Answer(context.Background(), userID, sess.ID, item.ID, 4)
		assert.ErrorIs(t, err, domain.ErrSessionFinished)
	})

	t.Run("session complete", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		item := newItem(t, userID, "a")
		sess := newSession(t, userID, item)
		sess.Position = 1

		mocks.ExpectRolledBackTx(f.sql)
		f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)

		_, err := f.runner.Answer(context.Background(), userID, sess.ID, item.ID, 4)
		assert.ErrorIs(t, err, ErrSessionComplete)
	})

	t.Run("session not found", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := uuid.New()

		mocks.ExpectRolledBackTx(f.sql)
		f.sessions.On("GetForUpdate", mock.Anything, id).Return(nil, store.ErrSessionNotFound)

		_, err := f.runner.Answer(context.Background(), uuid.New(), id, uuid.New(), 3)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("item update failure rolls back", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		item := newItem(t, userID, "luna")
		sess := newSession(t, userID, item)

		mocks.ExpectRolledBackTx(f.sql)
		f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)
		f.items.On("GetForUpdate", mock.Anything, item.ID).Return(item, nil)
		f.items.On("Update", mock.Anything, item).Return(store.ErrInternal)

		_, err := f.runner.Answer(context.Background(), userID, sess.ID, item.ID, 4)
		assert.ErrorIs(t, err, store.ErrInternal)
		assert.Equal(t, 0, sess.Position)
	})
}

func TestCurrent(t *testing.T) {
	t.Parallel()

	t.Run("returns item at cursor", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		item := newItem(t, userID, "agua")
		sess := newSession(t, userID, item)

		f.sessions.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.items.On("GetByID", mock.Anything, item.ID).Return(item, nil)

		got, gotSess, err := f.runner.Current(context.Background(), userID, sess.ID)
		require.NoError(t, err)
		assert.Same(t, item, got)
		assert.Same(t, sess, gotSess)
	})

	t.Run("skips deleted items", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		gone, kept := newItem(t, userID, "gone"), newItem(t, userID, "kept")
		sess := newSession(t, userID, gone, kept)

		mocks.ExpectCommittedTx(f.sql)
		f.sessions.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)
		f.sessions.On("Update", mock.Anything, sess).Return(nil)
		f.items.On("GetByID", mock.Anything, gone.ID).Return(nil, store.ErrItemNotFound)
		f.items.On("GetByID", mock.Anything, kept.ID).Return(kept, nil)

		got, gotSess, err := f.runner.Current(context.Background(), userID, sess.ID)
		require.NoError(t, err)
		assert.Same(t, kept, got)
		assert.Equal(t, 1, gotSess.Position)
		assert.Equal(t, 0, gotSess.Reviewed)
	})

	t.Run("complete", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		item := newItem(t, userID, "a")
		sess := newSession(t, userID, item)
		sess.Position = 1

		f.sessions.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)

		_, _, err := f.runner.Current(context.Background(), userID, sess.ID)
		assert.ErrorIs(t, err, ErrSessionComplete)
	})

	t.Run("foreign", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		item := newItem(t, uuid.New(), "a")
		sess := newSession(t, item.UserID, item)

		f.sessions.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)

		_, _, err := f.runner.Current(context.Background(), uuid.New(), sess.ID)
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})
}

func TestFinish(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()
	a, b := newItem(t, userID, "a"), newItem(t, userID, "b")
	sess := newSession(t, userID, a, b)
	require.NoError(t, sess.Advance(true, false, testNow))

	mocks.ExpectCommittedTx(f.sql)
	f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)
	f.sessions.On("Update", mock.Anything, sess).Return(nil)

	summary, err := f.runner.Finish(context.Background(), userID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Reviewed)
	assert.Equal(t, 1.0, summary.Accuracy)
	assert.Equal(t, 10*time.Minute, summary.Duration)
	assert.True(t, sess.Finished())

	emitted := f.emitter.Emitted()
	require.Len(t, emitted, 1)
	assert.Equal(t, events.TypeSessionCompleted, emitted[0].Type)

	var payload domain.SessionSummary
	require.NoError(t, emitted[0].UnmarshalPayload(&payload))
	assert.Equal(t, sess.ID, payload.SessionID)
	assert.Equal(t, 1, payload.Correct)
}

func TestFinishTwice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()
	sess := newSession(t, userID, newItem(t, userID, "a"))
	require.NoError(t, sess.Finish(testNow))

	mocks.ExpectRolledBackTx(f.sql)
	f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)

	_, err := f.runner.Finish(context.Background(), userID, sess.ID)
	assert.ErrorIs(t, err, domain.ErrSessionFinished)
	assert.Empty(t, f.emitter.Emitted())
}

func TestReviewItem(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID := uuid.New()
		item := newItem(t, userID, "flor")

		mocks.ExpectCommittedTx(f.sql)
		f.items.On("GetForUpdate", mock.Anything, item.ID).Return(item, nil)
		f.items.On("Update", mock.Anything, item).Return(nil)

		res, err := f.runner.ReviewItem(context.Background(), userID, item.ID, 3)
		require.NoError(t, err)
		assert.Nil(t, res.Session)
		assert.Equal(t, 1, res.Item.State.Interval)
		assert.InDelta(t, 2.36, res.Item.State.EaseFactor, 1e-9)
	})

	t.Run("foreign item", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		item := newItem(t, uuid.New(), "flor")

		mocks.ExpectRolledBackTx(f.sql)
		f.items.On("GetForUpdate", mock.Anything, item.ID).Return(item, nil)

		_, err := f.runner.ReviewItem(context.Background(), uuid.New(), item.ID, 3)
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})

	t.Run("missing item", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := uuid.New()

		mocks.ExpectRolledBackTx(f.sql)
		f.items.On("GetForUpdate", mock.Anything, id).Return(nil, store.ErrItemNotFound)

		_, err := f.runner.ReviewItem(context.Background(), uuid.New(), id, 3)
		assert.ErrorIs(t, err, store.ErrItemNotFound)
	})
}

func TestReviewItemKeepsLocalTimeAcrossDST(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		timezone string
		reviewed time.Time
		current  domain.SchedulerState
		quality  int
		want     time.Time
	}{
		{
			name:     "fall back keeps 09:00 local",
			timezone: "America/New_York",
			reviewed: time.Date(2024, 11, 1, 9, 0, 0, 0, ny),
			current:  domain.SchedulerState{EaseFactor: 2.5, Interval: 1, Repetitions: 1},
			quality:  4,
			want:     time.Date(2024, 11, 7, 9, 0, 0, 0, ny),
		},
		{
			name:     "spring forward keeps 09:00 local",
			timezone: "America/New_York",
			reviewed: time.Date(2024, 3, 9, 9, 0, 0, 0, ny),
			current:  domain.NewSchedulerState(2.5),
			quality:  5,
			want:     time.Date(2024, 3, 10, 9, 0, 0, 0, ny),
		},
		{
			name:     "unknown zone falls back to UTC days",
			timezone: "Mars/Olympus_Mons",
			reviewed: time.Date(2024, 11, 1, 9, 0, 0, 0, ny),
			current:  domain.SchedulerState{EaseFactor: 2.5, Interval: 1, Repetitions: 1},
			quality:  4,
			want:     time.Date(2024, 11, 1, 9, 0, 0, 0, ny).UTC().AddDate(0, 0, 6),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixtureIn(t, tc.timezone)
			f.runner.now = func() time.Time { return tc.reviewed.UTC() }
			userID := uuid.New()
			item := newItem(t, userID, "hoja")
			item.State = tc.current

			mocks.ExpectCommittedTx(f.sql)
			f.items.On("GetForUpdate", mock.Anything, item.ID).Return(item, nil)
			f.items.On("Update", mock.Anything, item).Return(nil)

			res, err := f.runner.ReviewItem(context.Background(), userID, item.ID, tc.quality)
			require.NoError(t, err)

			due := res.Item.State.NextReviewAt
			require.NotNil(t, due)
			assert.True(t, tc.want.Equal(*due), "got %s want %s", due, tc.want)
			assert.Equal(t, time.UTC, due.Location())
		})
	}
}

func TestAnswerSchedulesInUserZone(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	reviewed := time.Date(2024, 11, 1, 9, 0, 0, 0, ny)

	f := newFixtureIn(t, "America/New_York")
	f.runner.now = func() time.Time { return reviewed.UTC() }
	userID := uuid.New()
	item := newItem(t, userID, "nube")
	item.State = domain.SchedulerState{EaseFactor: 2.5, Interval: 1, Repetitions: 1}
	sess := newSession(t, userID, item)

	mocks.ExpectCommittedTx(f.sql)
	f.sessions.On("GetForUpdate", mock.Anything, sess.ID).Return(sess, nil)
	f.items.On("GetForUpdate", mock.Anything, item.ID).Return(item, nil)
	f.items.On("Update", mock.Anything, item).Return(nil)
	f.sessions.On("Update", mock.Anything, sess).Return(nil)

	res, err := f.runner.Answer(context.Background(), userID, sess.ID, item.ID, 4)
	require.NoError(t, err)

	local := res.Item.State.NextReviewAt.In(ny)
	assert.Equal(t, 7, local.Day())
	assert.Equal(t, 9, local.Hour())
	f.users.AssertCalled(t, "GetByID", mock.Anything, userID)
}

func TestReviewItemUserLookupFailureUsesUTC(t *testing.T) {
	t.Parallel()

	db, sqlMock := mocks.NewTxDB(t)
	users := &mocks.UserStore{}
	items := &mocks.ItemStore{}
	r := NewRunner(db, users, items, &mocks.SessionStore{}, srs.NewDefaultService(), &mocks.EventEmitter{},
		config.StudyConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil))).(*runnerImpl)
	r.now = func() time.Time { return testNow }

	userID := uuid.New()
	item := newItem(t, userID, "sol")
	users.On("GetByID", mock.Anything, userID).Return(nil, store.ErrUserNotFound)
	mocks.ExpectCommittedTx(sqlMock)
	items.On("GetForUpdate", mock.Anything, item.ID).Return(item, nil)
	items.On("Update", mock.Anything, item).Return(nil)

	res, err := r.ReviewItem(context.Background(), userID, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, testNow.AddDate(0, 0, 1), *res.Item.State.NextReviewAt)
	users.AssertExpectations(t)
	items.AssertExpectations(t)
}
