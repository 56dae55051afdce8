package story

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/hnstar/hnstar/internal/story/repo"
	"github.com/hnstar/hnstar/pkg/utilities"
)

// Syncer runs one ingestion pass: fetch the top story IDs, fetch each item
// and upsert them all in a single transaction. There is no scheduling here;
// the sync command runs once and exits.
type Syncer struct {
	db     *sqlx.DB
	client *Client
	logger *zap.SugaredLogger
}

func NewSyncer(db *sqlx.DB, client *Client, logger *zap.SugaredLogger) *Syncer {
	return &Syncer{db: db, client: client, logger: logger}
}

// Run executes one ingestion pass over every returned top story. Items that
// are not live stories (jobs, polls, deleted or dead entries) are skipped.
// Any fetch or store error aborts the pass and rolls the transaction back.
func (s *Syncer) Run(ctx context.Context) error {
	runID := utilities.NewRunID()
	logger := s.logger.With("run_id", runID)
	started := time.Now()

	ids, err := s.client.TopStories(ctx)
	if err != nil {
		return fmt.Errorf("fetch top stories: %w", err)
	}
	logger.Infow("fetched top story ids", "count", len(ids))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	r := repo.New(tx)

	stored := 0
	for _, id := range ids {
		item, err := s.client.Item(ctx, id)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("fetch item %d: %w", id, err)
		}
		if item == nil || item.Type != "story" || item.Deleted || item.Dead {
			continue
		}
		if err := r.Upsert(ctx, *item); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("store item %d: %w", id, err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Infow("sync finished", "stored", stored, "elapsed", time.Since(started).String())
	return nil
}
