package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/redact"
	"github.com/phrazzld/vocab-api/internal/store"
)

// DefaultListLimit applies when an ItemFilter has no limit.
const DefaultListLimit = 50

// MaxListLimit caps ItemFilter.Limit.
const MaxListLimit = 200

var itemColumns = []string{
	"id", "user_id", "term", "translation", "definition", "example", "category",
	"ease_factor", "interval_days", "repetitions", "next_review_at",
	"times_studied", "times_correct", "last_studied_at", "created_at", "updated_at",
}

// PostgresItemStore implements store.ItemStore.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ItemStore = (*PostgresItemStore)(nil)

// NewPostgresItemStore creates an item store on db.
func NewPostgresItemStore(db store.DBTX, log *slog.Logger) *PostgresItemStore {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresItemStore{db: db, logger: log.With(slog.String("component", "item_store"))}
}

// WithTx implements store.ItemStore.
func (s *PostgresItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &PostgresItemStore{db: tx, logger: s.logger}
}

func scanItem(row rowScanner) (*domain.VocabItem, error) {
	var (
		it          domain.VocabItem
		nextReview  sql.NullTime
		lastStudied sql.NullTime
	)
	err := row.Scan(
		&it.ID, &it.UserID, &it.Term, &it.Translation, &it.Definition, &it.Example, &it.Category,
		&it.State.EaseFactor, &it.State.Interval, &it.State.Repetitions, &nextReview,
		&it.TimesStudied, &it.TimesCorrect, &lastStudied, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	it.State.NextReviewAt = nullTimePtr(nextReview)
	it.LastStudiedAt = nullTimePtr(lastStudied)
	return &it, nil
}

func (s *PostgresItemStore) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// Create implements store.ItemStore.
func (s *PostgresItemStore) Create(ctx context.Context, item *domain.VocabItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query, args, err := psql.Insert("vocab_items").Columns(itemColumns...).Values(
		item.ID, item.UserID, item.Term, item.Translation, item.Definition, item.Example, item.Category,
		item.State.EaseFactor, item.State.Interval, item.State.Repetitions, item.State.NextReviewAt,
		item.TimesStudied, item.TimesCorrect, item.LastStudiedAt, item.CreatedAt, item.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if IsUniqueViolation(err) {
			return store.ErrTermExists
		}
		s.log(ctx).Error("failed to insert vocab item", redact.Attr(err))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.ItemStore.
func (s *PostgresItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabItem, error) {
	return s.getOne(ctx, psql.Select(itemColumns...).From("vocab_items").Where(sq.Eq{"id": id}))
}

// GetForUpdate implements store.ItemStore.
func (s *PostgresItemStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.VocabItem, error) {
	return s.getOne(ctx, psql.Select(itemColumns...).From("vocab_items").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (s *PostgresItemStore) getOne(ctx context.Context, b sq.SelectBuilder) (*domain.VocabItem, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	item, err := scanItem(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		s.log(ctx).Error("failed to load vocab item", redact.Attr(err))
		return nil, MapError(err)
	}
	return item, nil
}

// Update implements store.ItemStore.
func (s *PostgresItemStore) Update(ctx context.Context, item *domain.VocabItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query, args, err := psql.Update("vocab_items").SetMap(map[string]any{
		"term":            item.Term,
		"translation":     item.Translation,
		"definition":      item.Definition,
		"example":         item.Example,
		"category":        item.Category,
		"ease_factor":     item.State.EaseFactor,
		"interval_days":   item.State.Interval,
		"repetitions":     item.State.Repetitions,
		"next_review_at":  item.State.NextReviewAt,
		"times_studied":   item.TimesStudied,
		"times_correct":   item.TimesCorrect,
		"last_studied_at": item.LastStudiedAt,
		"updated_at":      item.UpdatedAt,
	}).Where(sq.Eq{"id": item.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrTermExists
		}
		s.log(ctx).Error("failed to update vocab item", redact.Attr(err))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrItemNotFound)
}

// Delete implements store.ItemStore.
func (s *PostgresItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM vocab_items WHERE id = $1`, id)
	if err != nil {
		s.log(ctx).Error("failed to delete vocab item", redact.Attr(err))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrItemNotFound)
}

// masteryCondition mirrors domain.ClassifyMastery in integer arithmetic.
func masteryCondition(level domain.MasteryLevel) sq.Sqlizer {
	learning := sq.Expr("times_studied > 0 AND (times_studied < 3 OR 5 * times_correct < 3 * times_studied)")
	mastered := sq.Expr("times_studied >= 5 AND 10 * times_correct >= 9 * times_studied")

	switch level {
	case domain.MasteryNew:
		return sq.Eq{"times_studied": 0}
	case domain.MasteryLearning:
		return learning
	case domain.MasteryMastered:
		return mastered
	case domain.MasteryReviewing:
		return sq.And{
			sq.Expr("times_studied >= 3 AND 5 * times_correct >= 3 * times_studied"),
			sq.Expr("NOT (times_studied >= 5 AND 10 * times_correct >= 9 * times_studied)"),
		}
	default:
		return nil
	}
}

func clampLimit(limit int) uint64 {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return uint64(limit)
	}
}

// buildListQuery turns a filter into a SELECT.
func buildListQuery(f store.ItemFilter) sq.SelectBuilder {
	b := psql.Select(itemColumns...).From("vocab_items").
		Where(sq.Eq{"user_id": f.UserID}).
		OrderBy("created_at DESC", "id").
		Limit(clampLimit(f.Limit))

	if f.Offset > 0 {
		b = b.Offset(uint64(f.Offset))
	}
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": f.Category})
	}
	if cond := masteryCondition(f.Mastery); cond != nil {
		b = b.Where(cond)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		b = b.Where(sq.Or{sq.ILike{"term": pattern}, sq.ILike{"translation": pattern}})
	}
	return b
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List implements store.ItemStore.
func (s *PostgresItemStore) List(ctx context.Context, f store.ItemFilter) ([]*domain.VocabItem, error) {
	return s.query(ctx, buildListQuery(f))
}

// ListNew implements store.ItemStore.
func (s *PostgresItemStore) ListNew(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.VocabItem, error) {
	return s.query(ctx, psql.Select(itemColumns...).From("vocab_items").
		Where(sq.Eq{"user_id": userID, "next_review_at": nil}).
		OrderBy("created_at ASC", "id").
		Limit(clampLimit(limit)))
}

// ListDue implements store.ItemStore.
func (s *PostgresItemStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.VocabItem, error) {
	return s.query(ctx, psql.Select(itemColumns...).From("vocab_items").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.LtOrEq{"next_review_at": now}).
		OrderBy("next_review_at ASC", "ease_factor ASC", "id").
		Limit(clampLimit(limit)))
}

// ListOthers implements store.ItemStore.
func (s *PostgresItemStore) ListOthers(ctx context.Context, userID, excludeID uuid.UUID, limit int) ([]*domain.VocabItem, error) {
	return s.query(ctx, psql.Select(itemColumns...).From("vocab_items").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.NotEq{"id": excludeID}).
		OrderBy("updated_at DESC", "id").
		Limit(clampLimit(limit)))
}

func (s *PostgresItemStore) query(ctx context.Context, b sq.SelectBuilder) ([]*domain.VocabItem, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log(ctx).Error("failed to query vocab items", redact.Attr(err))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := []*domain.VocabItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			s.log(ctx).Error("failed to scan vocab item", redact.Attr(err))
			return nil, MapError(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

// CountDueByUser implements store.ItemStore.
func (s *PostgresItemStore) CountDueByUser(ctx context.Context, now time.Time) (map[uuid.UUID]int, error) {
	query, args, err := psql.Select("user_id", "COUNT(*)").From("vocab_items").
		Where(sq.LtOrEq{"next_review_at": now}).
		GroupBy("user_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log(ctx).Error("failed to count due items", redact.Attr(err))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			userID uuid.UUID
			n      int
		)
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, MapError(err)
		}
		counts[userID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return counts, nil
}
