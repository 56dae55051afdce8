package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/hnstar/hnstar/internal/story/entity"
)

// StoryRepo persists ingested stories. It binds to sqlx.ExtContext so the
// syncer can run a whole batch inside one transaction.
type StoryRepo struct {
	db sqlx.ExtContext
}

func New(db sqlx.ExtContext) *StoryRepo { return &StoryRepo{db: db} }

// Upsert inserts a story or refreshes the columns that move over time,
// the comment count and the score.
func (r *StoryRepo) Upsert(ctx context.Context, it entity.Item) error {
	const q = `
insert into story (story_id, timestamp, by, title, url, descendants, score)
values ($1, $2, $3, $4, $5, $6, $7)
on conflict (story_id)
do update set descendants = $6, score = $7`
	_, err := r.db.ExecContext(ctx, q, it.ID, it.Time, it.By, it.Title, it.URL, it.Descendants, it.Score)
	return err
}
