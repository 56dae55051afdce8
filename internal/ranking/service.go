package ranking

import (
	"context"
	"html"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hnstar/hnstar/internal/ranking/entity"
	"github.com/hnstar/hnstar/internal/ranking/repo"
	"github.com/hnstar/hnstar/internal/weberr"
)

// Service owns ranking reads and writes for authenticated users.
type Service struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// SetRankings applies a mutation batch all-or-nothing: the whole batch is
// validated before any write, and all writes share one transaction.
func (s *Service) SetRankings(ctx context.Context, userID int32, batch []entity.SetStory) error {
	for _, e := range batch {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return weberr.Store(err)
	}
	r := repo.New(tx)
	for _, e := range batch {
		if err := r.UpsertRanking(ctx, userID, e); err != nil {
			_ = tx.Rollback()
			return weberr.Store(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return weberr.Store(err)
	}
	return nil
}

// QueryStories compiles the filter and executes it, shaping rows for the
// response. Titles arrive HTML-entity-escaped from ingestion and are decoded
// back to plain text here.
func (s *Service) QueryStories(ctx context.Context, userID int32, f Filter) ([]entity.StoryRow, error) {
	q, err := compile(f, userID, s.now())
	if err != nil {
		return nil, err
	}
	rows, err := repo.New(s.db).SelectStories(ctx, q.Text, q.Params)
	if err != nil {
		return nil, weberr.Store(err)
	}
	for i := range rows {
		rows[i].Title = html.UnescapeString(rows[i].Title)
	}
	if rows == nil {
		rows = []entity.StoryRow{}
	}
	return rows, nil
}
