package enrichment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/generation"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/store"
)

// Enricher generates and stores example sentences.
type Enricher struct {
	db        *sql.DB
	items     store.ItemStore
	generator generation.Generator
	logger    *slog.Logger
	now       func() time.Time
}

// NewEnricher creates an Enricher.
func NewEnricher(db *sql.DB, items store.ItemStore, generator generation.Generator, log *slog.Logger) (*Enricher, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if items == nil {
		return nil, fmt.Errorf("item store cannot be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Enricher{
		db:        db,
		items:     items,
		generator: generator,
		logger:    log.With(slog.String("component", "enricher")),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Enrich adds an example sentence to the item. Deleted items, items that
// already have an example and content the model refuses are skipped.
func (e *Enricher) Enrich(ctx context.Context, itemID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, e.logger).With(slog.String("item_id", itemID.String()))

	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Info("item deleted before enrichment")
			return nil
		}
		return fmt.Errorf("failed to load item: %w", err)
	}
	if item.Example != "" {
		return nil
	}

	example, err := e.generator.GenerateExample(ctx, generation.ExampleRequest{
		Term:        item.Term,
		Translation: item.Translation,
		Definition:  item.Definition,
		Category:    item.Category,
	})
	if err != nil {
		if errors.Is(err, generation.ErrContentBlocked) {
			log.Warn("example generation blocked", slog.String("error", err.Error()))
			return nil
		}
		return fmt.Errorf("failed to generate example: %w", err)
	}

	stored := false
	err = store.RunInTransaction(ctx, e.db, func(ctx context.Context, tx *sql.Tx) error {
		items := e.items.WithTx(tx)

		current, err := items.GetForUpdate(ctx, itemID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil
			}
			return err
		}
		// the user may have written one while the model was busy
		if current.Example != "" {
			return nil
		}

		current.Example = example
		current.UpdatedAt = e.now()
		if err := items.Update(ctx, current); err != nil {
			return err
		}
		stored = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store example: %w", err)
	}

	if stored {
		log.Info("example sentence stored", slog.Int("length", len(example)))
	}
	return nil
}
