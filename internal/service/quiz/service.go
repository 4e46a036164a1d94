package quiz

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/service"
	"github.com/phrazzld/vocab-api/internal/store"
)

const (
	serviceName = "quiz"

	// MinOptions is the smallest question worth asking.
	MinOptions = 2
	// MaxOptions caps the option count.
	MaxOptions = 10

	// poolSize is how many candidate items are read per question.
	poolSize = 50
)

// Service generates practice questions.
type Service interface {
	// Generate builds a question for itemID with up to optionCount options
	// (zero selects the configured default). When the user has too few other
	// items the question has fewer options; below MinOptions it fails with
	// ErrNotEnoughItems.
	Generate(ctx context.Context, userID, itemID uuid.UUID, optionCount int, direction Direction) (*Question, error)

	// Check grades answer against itemID asked in direction. Case and
	// surrounding space are ignored.
	Check(ctx context.Context, userID, itemID uuid.UUID, direction Direction, answer string) (*Result, error)
}

// Result is the outcome of a checked answer.
type Result struct {
	ItemID    uuid.UUID `json:"item_id"`
	Direction Direction `json:"direction"`
	Correct   bool      `json:"correct"`
	// Expected is the correct answer, as stored.
	Expected string `json:"expected"`
}

type serviceImpl struct {
	items  store.ItemStore
	cfg    config.StudyConfig
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Service = (*serviceImpl)(nil)

// NewService creates a quiz service. rng may be nil, in which case a
// time-seeded source is used.
func NewService(items store.ItemStore, cfg config.StudyConfig, rng *rand.Rand, log *slog.Logger) Service {
	if items == nil {
		panic("quiz service requires an item store")
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if log == nil {
		log = slog.Default()
	}
	return &serviceImpl{
		items:  items,
		cfg:    cfg,
		rng:    rng,
		logger: log.With(slog.String("component", "quiz_service")),
	}
}

func (s *serviceImpl) optionCount(n int) int {
	if n <= 0 {
		n = s.cfg.QuizOptions
	}
	return max(MinOptions, min(n, MaxOptions))
}

func (s *serviceImpl) load(ctx context.Context, op string, userID, itemID uuid.UUID) (*domain.VocabItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrItemNotFound
		}
		return nil, service.NewServiceError(serviceName, op, "failed to load item", err)
	}
	if item.UserID != userID {
		return nil, service.ErrNotOwned
	}
	return item, nil
}

func (s *serviceImpl) Generate(
	ctx context.Context,
	userID, itemID uuid.UUID,
	optionCount int,
	direction Direction,
) (*Question, error) {
	direction, err := ParseDirection(string(direction))
	if err != nil {
		return nil, err
	}
	optionCount = s.optionCount(optionCount)

	item, err := s.load(ctx, "generate", userID, itemID)
	if err != nil {
		return nil, err
	}

	pool, err := s.items.ListOthers(ctx, userID, itemID, poolSize)
	if err != nil {
		return nil, service.NewServiceError(serviceName, "generate", "failed to load distractors", err)
	}

	correct := direction.answer(item)
	seen := map[string]bool{normalize(correct): true}
	candidates := make([]string, 0, len(pool))
	for _, other := range pool {
		a := direction.answer(other)
		key := normalize(a)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, a)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n := optionCount - 1; len(candidates) > n {
		candidates = candidates[:n]
	}
	if len(candidates)+1 < MinOptions {
		logger.FromContextOrDefault(ctx, s.logger).Debug("not enough distractors",
			slog.String("item_id", itemID.String()),
			slog.Int("pool", len(pool)))
		return nil, ErrNotEnoughItems
	}

	q := newQuestion(item, direction, candidates)
	s.rng.Shuffle(len(q.Options), func(i, j int) {
		q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
		switch q.Answer {
		case i:
			q.Answer = j
		case j:
			q.Answer = i
		}
	})
	return q, nil
}

func (s *serviceImpl) Check(
	ctx context.Context,
	userID, itemID uuid.UUID,
	direction Direction,
	answer string,
) (*Result, error) {
	direction, err := ParseDirection(string(direction))
	if err != nil {
		return nil, err
	}
	item, err := s.load(ctx, "check", userID, itemID)
	if err != nil {
		return nil, err
	}

	q := newQuestion(item, direction, nil)
	return &Result{
		ItemID:    itemID,
		Direction: direction,
		Correct:   q.Check(answer),
		Expected:  q.Options[q.Answer],
	}, nil
}
