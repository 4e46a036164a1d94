package quiz

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/mocks"
	"github.com/phrazzld/vocab-api/internal/service"
	"github.com/phrazzld/vocab-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func item(userID uuid.UUID, term, translation string) *domain.VocabItem {
	it, _ := domain.NewVocabItem(userID, term, translation, domain.DefaultEaseFactor)
	return it
}

func newService(t *testing.T, seed uint64) (Service, *mocks.ItemStore) {
	t.Helper()
	items := &mocks.ItemStore{}
	t.Cleanup(func() { items.AssertExpectations(t) })
	svc := NewService(items, config.StudyConfig{QuizOptions: 4}, rand.New(rand.NewPCG(seed, 7)), nil)
	return svc, items
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	d, err := ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, TermToTranslation, d)

	d, err = ParseDirection("translation_to_term")
	require.NoError(t, err)
	assert.Equal(t, TranslationToTerm, d)

	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	target := item(userID, "perro", "dog")
	pool := []*domain.VocabItem{
		item(userID, "gato", "cat"),
		item(userID, "can", "Dog"), // same answer as target
		item(userID, "felino", "cat"),
		item(userID, "pez", "fish"),
		item(userID, "ave", "bird"),
		item(userID, "vaca", "cow"),
	}

	svc, items := newService(t, 42)
	items.On("GetByID", mock.Anything, target.ID).Return(target, nil)
	items.On("ListOthers", mock.Anything, userID, target.ID, poolSize).Return(pool, nil)

	q, err := svc.Generate(context.Background(), userID, target.ID, 0, TermToTranslation)
	require.NoError(t, err)

	assert.Equal(t, "perro", q.Prompt)
	require.Len(t, q.Options, 4)
	assert.Equal(t, "dog", q.Options[q.Answer])
	assert.True(t, q.Check(" DOG "))
	assert.False(t, q.Check("cat"))

	seen := map[string]bool{}
	for _, o := range q.Options {
		assert.False(t, seen[normalize(o)], "duplicate option %q", o)
		seen[normalize(o)] = true
	}
	assert.Subset(t, []string{"dog", "cat", "fish", "bird", "cow"}, q.Options)
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	target := item(userID, "uno", "one")
	pool := []*domain.VocabItem{
		item(userID, "dos", "two"), item(userID, "tres", "three"),
		item(userID, "cuatro", "four"), item(userID, "cinco", "five"),
	}

	run := func() *Question {
		svc, items := newService(t, 99)
		items.On("GetByID", mock.Anything, target.ID).Return(target, nil)
		items.On("ListOthers", mock.Anything, userID, target.ID, poolSize).Return(pool, nil)
		q, err := svc.Generate(context.Background(), userID, target.ID, 3, TranslationToTerm)
		require.NoError(t, err)
		return q
	}

	a, b := run(), run()
	assert.Equal(t, a, b)
	assert.Equal(t, "one", a.Prompt)
	assert.Len(t, a.Options, 3)
	assert.Equal(t, "uno", a.Options[a.Answer])
}

func TestGenerateFewerOptions(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	target := item(userID, "sí", "yes")

	svc, items := newService(t, 1)
	items.On("GetByID", mock.Anything, target.ID).Return(target, nil)
	items.On("ListOthers", mock.Anything, userID, target.ID, poolSize).
		Return([]*domain.VocabItem{item(userID, "no", "no")}, nil)

	q, err := svc.Generate(context.Background(), userID, target.ID, 6, TermToTranslation)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"yes", "no"}, q.Options)
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	t.Run("not enough items", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		target := item(userID, "sí", "yes")
		svc, items := newService(t, 1)
		items.On("GetByID", mock.Anything, target.ID).Return(target, nil)
		items.On("ListOthers", mock.Anything, userID, target.ID, poolSize).
			Return([]*domain.VocabItem{item(userID, "vale", "Yes")}, nil)

		_, err := svc.Generate(context.Background(), userID, target.ID, 4, TermToTranslation)
		assert.ErrorIs(t, err, ErrNotEnoughItems)
	})

	t.Run("foreign item", func(t *testing.T) {
		t.Parallel()
		target := item(uuid.New(), "a", "b")
		svc, items := newService(t, 1)
		items.On("GetByID", mock.Anything, target.ID).Return(target, nil)

		_, err := svc.Generate(context.Background(), uuid.New(), target.ID, 4, TermToTranslation)
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})

	t.Run("missing item", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		svc, items := newService(t, 1)
		items.On("GetByID", mock.Anything, id).Return(nil, store.ErrItemNotFound)

		_, err := svc.Generate(context.Background(), uuid.New(), id, 4, TermToTranslation)
		assert.ErrorIs(t, err, store.ErrItemNotFound)
	})

	t.Run("bad direction", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t, 1)
		_, err := svc.Generate(context.Background(), uuid.New(), uuid.New(), 4, Direction("up"))
		assert.ErrorIs(t, err, ErrInvalidDirection)
	})
}

func TestCheck(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	target := item(userID, "mariposa", "Butterfly")

	testCases := []struct {
		name      string
		direction Direction
		answer    string
		want      bool
		expected  string
	}{
		{"exact translation", TermToTranslation, "Butterfly", true, "Butterfly"},
		{"case and space ignored", TermToTranslation, "  butterfly ", true, "Butterfly"},
		{"wrong translation", TermToTranslation, "moth", false, "Butterfly"},
		{"empty answer", TermToTranslation, "", false, "Butterfly"},
		{"default direction", "", "BUTTERFLY", true, "Butterfly"},
		{"term asked for", TranslationToTerm, "Mariposa", true, "mariposa"},
		{"translation given when term asked", TranslationToTerm, "butterfly", false, "mariposa"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, items := newService(t, 1)
			items.On("GetByID", mock.Anything, target.ID).Return(target, nil)

			res, err := svc.Check(context.Background(), userID, target.ID, tc.direction, tc.answer)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Correct)
			assert.Equal(t, tc.expected, res.Expected)
			assert.Equal(t, target.ID, res.ItemID)
		})
	}
}

func TestCheckErrors(t *testing.T) {
	t.Parallel()

	t.Run("foreign item", func(t *testing.T) {
		t.Parallel()
		target := item(uuid.New(), "a", "b")
		svc, items := newService(t, 1)
		items.On("GetByID", mock.Anything, target.ID).Return(target, nil)

		_, err := svc.Check(context.Background(), uuid.New(), target.ID, TermToTranslation, "b")
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})

	t.Run("missing item", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		svc, items := newService(t, 1)
		items.On("GetByID", mock.Anything, id).Return(nil, store.ErrItemNotFound)

		_, err := svc.Check(context.Background(), uuid.New(), id, TermToTranslation, "b")
		assert.ErrorIs(t, err, store.ErrItemNotFound)
	})

	t.Run("bad direction", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t, 1)
		_, err := svc.Check(context.Background(), uuid.New(), uuid.New(), Direction("up"), "b")
		assert.ErrorIs(t, err, ErrInvalidDirection)
	})
}
