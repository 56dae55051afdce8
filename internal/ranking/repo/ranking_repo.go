package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/hnstar/hnstar/internal/ranking/entity"
)

// RankingRepo executes compiled ranking queries and upserts personal
// rankings. Like the auth repository it binds to sqlx.ExtContext so the
// service controls the transaction boundary.
type RankingRepo struct {
	db sqlx.ExtContext
}

func New(db sqlx.ExtContext) *RankingRepo { return &RankingRepo{db: db} }

// SelectStories runs a compiled query text with its parameter vector.
func (r *RankingRepo) SelectStories(ctx context.Context, text string, params []any) ([]entity.StoryRow, error) {
	var rows []entity.StoryRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, text, params...); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertRanking inserts or updates one (user, story) ranking row. Fields
// absent from the request arrive as NULL and coalesce to the stored value,
// so partial updates never clobber untouched fields.
func (r *RankingRepo) UpsertRanking(ctx context.Context, userID int32, s entity.SetStory) error {
	const q = `
insert into story_user_rank (user_main_id, story_id, stars, flags, comment, created, updated)
values ($1, $2, coalesce($3, 0), coalesce($4, 0), coalesce($5, ''), now(), now())
on conflict (user_main_id, story_id)
do update set
    stars = coalesce($3, story_user_rank.stars),
    flags = coalesce($4, story_user_rank.flags),
    comment = coalesce($5, story_user_rank.comment),
    updated = now()`
	_, err := r.db.ExecContext(ctx, q, userID, s.StoryID, s.Stars, s.Flags, s.Comment)
	return err
}
